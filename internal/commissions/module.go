// Package commissions provides the commission bounded context module: rule
// based calculation for converted orders and agents' commission history.
package commissions

import (
	"telesales_backend/internal/commissions/calculator"
	"telesales_backend/internal/commissions/handler"
	"telesales_backend/internal/commissions/repository"
	"telesales_backend/internal/commissions/service"
	apphttp "telesales_backend/internal/http"
	"telesales_backend/internal/shared/businessday"
	"telesales_backend/platform/config"
	"telesales_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the commissions bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, cfg config.CommissionConfig, cal *businessday.Calendar, val *validator.Validator) *Module {
	svc := service.New(repository.New(pool), calculator.New(cfg.GetCommissionFallbackAmount()), cal)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "commissions"
}

// Service returns the commission service; orders record commissions through it.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts commission routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/commissions"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/commissions"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
