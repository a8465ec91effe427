// Package assignments provides the lead distribution bounded context module:
// automatic and manual assignment, recycling of stale assignments and load stats.
package assignments

import (
	"telesales_backend/internal/assignments/distribution"
	"telesales_backend/internal/assignments/handler"
	"telesales_backend/internal/assignments/recycling"
	"telesales_backend/internal/assignments/repository"
	"telesales_backend/internal/assignments/stats"
	"telesales_backend/internal/events"
	apphttp "telesales_backend/internal/http"
	"telesales_backend/internal/shared/businessday"
	"telesales_backend/platform/logger"
	"telesales_backend/platform/runlock"
	"telesales_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the assignments bounded context module implementing http.Module.
type Module struct {
	handler      *handler.Handler
	repo         *repository.Repository
	distribution *distribution.Service
	recycling    *recycling.Service
}

// NewModule wires the assignment services. locker may be nil when Redis is not configured.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, cal *businessday.Calendar, locker *runlock.Locker, phones handler.PhoneRevealer, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)

	distSvc := distribution.New(distribution.NewStore(repo), cal, locker, eventBus, log)
	recycleSvc := recycling.New(recycling.NewStore(repo), locker, eventBus, log)
	statsSvc := stats.New(repo, cal)

	return &Module{
		handler:      handler.New(distSvc, recycleSvc, statsSvc, phones, cal, val),
		repo:         repo,
		distribution: distSvc,
		recycling:    recycleSvc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "assignments"
}

// Repository returns the assignment repository for contexts that update
// assignments inside their own transactions.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// DistributionService returns the distribution service for scheduled runs.
func (m *Module) DistributionService() *distribution.Service {
	return m.distribution
}

// RecyclingService returns the recycling service for scheduled runs.
func (m *Module) RecyclingService() *recycling.Service {
	return m.recycling
}

// RegisterRoutes mounts assignment routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/assignments"))
	m.handler.RegisterRoutes(ctx.Protected.Group("/assignments"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
