// Package calls provides the call logging bounded context module.
package calls

import (
	"telesales_backend/internal/calls/handler"
	"telesales_backend/internal/calls/repository"
	"telesales_backend/internal/calls/service"
	"telesales_backend/internal/events"
	apphttp "telesales_backend/internal/http"
	"telesales_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the calls bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator) *Module {
	svc := service.New(service.NewStore(repository.New(pool)), eventBus)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "calls"
}

func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts call log routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/call-logs"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
