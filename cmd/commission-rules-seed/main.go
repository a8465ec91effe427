package main

import (
	"context"
	"flag"
	"os"

	"telesales_backend/internal/commissions/repository"
	"telesales_backend/internal/commissions/seed"
	"telesales_backend/platform/config"
	"telesales_backend/platform/db"
	"telesales_backend/platform/logger"
)

func main() {
	path := flag.String("file", "commission_rules.yaml", "YAML file with commission rules")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("seeding commission rules", "file", *path)

	f, err := os.Open(*path)
	if err != nil {
		panic("failed to open rules file: " + err.Error())
	}
	defer func() { _ = f.Close() }()

	rules, err := seed.Parse(f)
	if err != nil {
		log.Error("invalid rules file", "error", err)
		return
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	err = repository.New(pool).InTx(ctx, func(tx *repository.Repository) error {
		saved, err := seed.Apply(ctx, tx, rules)
		if err != nil {
			return err
		}
		for _, rule := range saved {
			log.Info("commission rule saved", "name", rule.Name, "type", rule.Type, "default", rule.IsDefault, "active", rule.IsActive)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to seed commission rules", "error", err)
		return
	}
	log.Info("commission rules seeded", "count", len(rules))
}
