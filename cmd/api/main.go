package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telesales_backend/internal/assignments"
	"telesales_backend/internal/calls"
	"telesales_backend/internal/commissions"
	"telesales_backend/internal/events"
	apphttp "telesales_backend/internal/http"
	"telesales_backend/internal/http/router"
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

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

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
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	if closeBroker := initBrokerForwarder(cfg, eventBus, log); closeBroker != nil {
		defer closeBroker()
	}

	vault, err := phonevault.NewFromConfig(cfg)
	if err != nil {
		log.Error("failed to initialize phone vault", "error", err)
		panic("failed to initialize phone vault: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New(cfg.GetPhoneDefaultRegion())
	cal := businessday.New(cfg.GetBusinessLocation(), nil)

	locker, closeLocker := initRunLocker(cfg, log)
	if closeLocker != nil {
		defer closeLocker()
	}

	taskClient, closeTasks := initTaskClient(cfg, log)
	if closeTasks != nil {
		defer closeTasks()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule := leads.NewModule(pool, eventBus, vault, val, log)
	assignmentsModule := assignments.NewModule(pool, eventBus, cal, locker, leadsModule.ManagementService(), val, log)
	callsModule := calls.NewModule(pool, eventBus, val)
	commissionsModule := commissions.NewModule(pool, cfg, cal, val)
	ordersModule := orders.NewModule(pool, eventBus, commissionsModule.Service(), cfg, leadsModule.ManagementService(), val, log)

	if taskClient != nil {
		// Logged calls pull the next distribution cycle forward; conversions
		// are pushed to the main site in the background.
		eventBus.Subscribe(events.CallLogged{}.EventName(), scheduler.CallLoggedHandler(taskClient))
		ordersModule.Service().SetSyncEnqueuer(taskClient)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{
			leadsModule,
			assignmentsModule,
			callsModule,
			ordersModule,
			commissionsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	eventBus.Wait()
}

func initBrokerForwarder(cfg config.BrokerConfig, bus *events.InMemoryBus, log *logger.Logger) func() {
	if !cfg.IsBrokerEnabled() {
		log.Info("AMQP_URL not configured; domain events stay in-process")
		return nil
	}

	forwarder, err := platformevents.DialAMQPForwarder(cfg.GetAMQPURL(), cfg.GetAMQPExchange(), log)
	if err != nil {
		log.Error("failed to connect event forwarder; continuing without broker", "error", err)
		return nil
	}
	bus.Subscribe(events.Wildcard, forwarder)
	log.Info("forwarding domain events", "exchange", cfg.GetAMQPExchange())

	return func() {
		_ = forwarder.Close()
	}
}

func initRunLocker(cfg config.SchedulerConfig, log *logger.Logger) (*runlock.Locker, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; distribution runs rely on database locks only")
		return nil, nil
	}

	rdb, err := runlock.NewRedisClient(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("failed to initialize run locker", "error", err)
		return nil, nil
	}

	return runlock.New(rdb, runLockTTL, log), func() {
		_ = rdb.Close()
	}
}

func initTaskClient(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; background tasks disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
