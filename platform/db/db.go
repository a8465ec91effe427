// Package db owns the Postgres pool, transactions and embedded migrations.
package db

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"telesales_backend/platform/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens and pings a pool. Sessions run in UTC and are tagged with
// the binary name so pg_stat_activity tells the API and the worker apart.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDatabaseURL())
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = 20
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 15 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	params := poolConfig.ConnConfig.RuntimeParams
	params["timezone"] = "UTC"
	if _, set := params["application_name"]; !set {
		params["application_name"] = "telesales-" + filepath.Base(os.Args[0])
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
