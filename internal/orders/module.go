// Package orders provides the order conversion bounded context module.
package orders

import (
	commissionsvc "telesales_backend/internal/commissions/service"
	"telesales_backend/internal/events"
	apphttp "telesales_backend/internal/http"
	"telesales_backend/internal/orders/handler"
	"telesales_backend/internal/orders/repository"
	"telesales_backend/internal/orders/service"
	"telesales_backend/internal/orders/storefront"
	"telesales_backend/platform/config"
	"telesales_backend/platform/logger"
	"telesales_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the orders bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires order conversion. The storefront client is only created
// when the main site API is configured.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, commissions *commissionsvc.Service, cfg config.StorefrontConfig, phones service.PhoneRevealer, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(service.NewStore(repository.New(pool)), commissions, eventBus, log)
	if cfg.IsStorefrontSyncEnabled() {
		svc.SetStorefront(storefront.New(cfg.GetStorefrontAPIURL(), cfg.GetStorefrontAPIKey(), log), phones)
	}
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "orders"
}

// Service returns the order service for the scheduler's sync tasks.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts order routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/orders"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
