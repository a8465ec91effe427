package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telesales_backend/internal/assignments"
	"telesales_backend/internal/commissions"
	"telesales_backend/internal/events"
	"telesales_backend/internal/leads"
	"telesales_backend/internal/orders"
	"telesales_backend/internal/phonevault"
	"telesales_backend/internal/scheduler"
	"telesales_backend/internal/shared/businessday"
	"telesales_backend/platform/config"
	"telesales_backend/platform/db"
	platformevents "telesales_backend/platform/events"
	"telesales_backend/platform/logger"
	"telesales_backend/platform/runlock"
	"telesales_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const runLockTTL = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	if cfg.GetRedisURL() == "" {
		panic("REDIS_URL is required for the scheduler")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	if cfg.IsBrokerEnabled() {
		forwarder, err := platformevents.DialAMQPForwarder(cfg.GetAMQPURL(), cfg.GetAMQPExchange(), log)
		if err != nil {
			log.Error("failed to connect event forwarder; continuing without broker", "error", err)
		} else {
			eventBus.Subscribe(events.Wildcard, forwarder)
			defer func() { _ = forwarder.Close() }()
		}
	}

	rdb, err := runlock.NewRedisClient(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("failed to initialize run locker", "error", err)
		panic("failed to initialize run locker: " + err.Error())
	}
	defer func() { _ = rdb.Close() }()
	locker := runlock.New(rdb, runLockTTL, log)

	vault, err := phonevault.NewFromConfig(cfg)
	if err != nil {
		log.Error("failed to initialize phone vault", "error", err)
		panic("failed to initialize phone vault: " + err.Error())
	}

	// Worker-side wiring; no HTTP handlers are mounted.
	val := validator.New(cfg.GetPhoneDefaultRegion())
	cal := businessday.New(cfg.GetBusinessLocation(), nil)
	leadsModule := leads.NewModule(pool, eventBus, vault, val, log)
	assignmentsModule := assignments.NewModule(pool, eventBus, cal, locker, leadsModule.ManagementService(), val, log)
	commissionsModule := commissions.NewModule(pool, cfg, cal, val)
	ordersModule := orders.NewModule(pool, eventBus, commissionsModule.Service(), cfg, leadsModule.ManagementService(), val, log)

	jobs := scheduler.Jobs{
		Distribution: assignmentsModule.DistributionService(),
		Recycling:    assignmentsModule.RecyclingService(),
		Calendar:     cal,
	}
	if cfg.IsStorefrontSyncEnabled() {
		jobs.Orders = ordersModule.Service()
	} else {
		log.Warn("storefront API not configured; order sync disabled")
	}

	worker, err := scheduler.NewWorker(cfg, jobs, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	entries, err := scheduler.PeriodicEntries(cfg, jobs.Orders != nil)
	if err != nil {
		panic("failed to build periodic tasks: " + err.Error())
	}
	periodic, err := scheduler.NewPeriodic(cfg, cfg.GetBusinessLocation(), entries, log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return periodic.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped", "error", err)
	}
	eventBus.Wait()
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
