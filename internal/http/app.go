// Package http holds what the API process hands to the router: its
// configuration, a readiness probe and the modules that own routes.
package http

import (
	"context"

	"telesales_backend/platform/config"
	"telesales_backend/platform/logger"
)

type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs /api/health. A nil checker always reports ok.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is assembled in cmd/api and consumed by router.New.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	Health  HealthChecker
	Modules []Module
}
