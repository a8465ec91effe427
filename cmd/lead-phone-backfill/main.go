package main

import (
	"context"
	"flag"

	"telesales_backend/internal/leads/backfill"
	"telesales_backend/internal/leads/repository"
	"telesales_backend/internal/phonevault"
	"telesales_backend/platform/config"
	"telesales_backend/platform/db"
	"telesales_backend/platform/logger"
)

func main() {
	batchSize := flag.Int("batch", 500, "leads per page")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting lead phone index backfill")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	vault, err := phonevault.NewFromConfig(cfg)
	if err != nil {
		log.Error("failed to initialize phone vault", "error", err)
		panic("failed to initialize phone vault: " + err.Error())
	}

	report, err := backfill.NewPhoneIndices(repository.New(pool), vault, log).Run(ctx, *batchSize)
	if err != nil {
		log.Error("phone index backfill aborted", "error", err, "updated", report.Updated)
		return
	}
	if len(report.Undecodable) > 0 {
		log.Warn("some leads could not be decrypted; check PHONE_VAULT_KEY", "count", len(report.Undecodable))
	}
}
