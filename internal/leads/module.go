// Package leads provides the lead intake bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"telesales_backend/internal/events"
	apphttp "telesales_backend/internal/http"
	"telesales_backend/internal/leads/handler"
	"telesales_backend/internal/leads/importing"
	"telesales_backend/internal/leads/management"
	"telesales_backend/internal/leads/repository"
	"telesales_backend/platform/logger"
	"telesales_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	repo       *repository.Repository
	management *management.Service
	importing  *importing.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, vault management.Vault, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)

	mgmtSvc := management.New(management.NewStore(repo), vault, eventBus, log)
	importSvc := importing.New(mgmtSvc, repo, eventBus, log)

	return &Module{
		handler:    handler.New(mgmtSvc, importSvc, val),
		repo:       repo,
		management: mgmtSvc,
		importing:  importSvc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Repository returns the lead repository so other contexts can bind it to
// their own transactions.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// ManagementService returns the lead management service for external use.
func (m *Module) ManagementService() *management.Service {
	return m.management
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All leads routes require authentication
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
