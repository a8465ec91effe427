package scheduler

import (
	"context"
	"fmt"
	"time"

	"telesales_backend/internal/assignments/distribution"
	"telesales_backend/internal/shared/actor"
	"telesales_backend/internal/shared/businessday"
	"telesales_backend/platform/apperr"
	"telesales_backend/platform/config"
	"telesales_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const orderSyncSweepLimit = 100

type Distributor interface {
	AutoDistribute(ctx context.Context, a actor.Actor) (distribution.Result, error)
}

type Recycler interface {
	Recycle(ctx context.Context, asOf time.Time) (int, error)
}

type OrderSyncer interface {
	SyncOrder(ctx context.Context, orderID uuid.UUID) error
	SyncPending(ctx context.Context, limit int) (int, error)
}

// Jobs are the services the worker drives. Orders may be nil when order sync
// is not wanted.
type Jobs struct {
	Distribution Distributor
	Recycling    Recycler
	Orders       OrderSyncer
	Calendar     *businessday.Calendar
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	jobs   Jobs
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, jobs Jobs, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		jobs:   jobs,
		log:    log,
	}
	w.register()

	return w, nil
}

func (w *Worker) register() {
	w.mux.HandleFunc(TaskDistribute, w.handleDistribute)
	w.mux.HandleFunc(TaskRecycle, w.handleRecycle)
	if w.jobs.Orders != nil {
		w.mux.HandleFunc(TaskOrderSync, w.handleOrderSync)
		w.mux.HandleFunc(TaskOrderSyncSweep, w.handleOrderSyncSweep)
	}
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleDistribute(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDistributePayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	result, err := w.jobs.Distribution.AutoDistribute(ctx, actor.System())
	if apperr.GetCode(err) == apperr.CodeRunInProgress {
		w.log.Info("distribution already running, skipping", "reason", payload.Reason)
		return nil
	}
	if err != nil {
		return err
	}

	w.log.Debug("distribution task finished",
		"reason", payload.Reason,
		"assigned", result.Assigned,
		"skipped", len(result.SkippedLeads),
	)
	return nil
}

func (w *Worker) handleRecycle(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRecyclePayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	asOf := w.jobs.Calendar.Today()
	if payload.AsOf != "" {
		asOf, err = businessday.ParseDate(payload.AsOf)
		if err != nil {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
	}

	_, err = w.jobs.Recycling.Recycle(ctx, asOf)
	if apperr.GetCode(err) == apperr.CodeRunInProgress {
		w.log.Info("recycle already running, skipping", "asOf", asOf.Format(time.DateOnly))
		return nil
	}
	return err
}

func (w *Worker) handleOrderSync(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseOrderSyncPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	orderID, err := uuid.Parse(payload.OrderID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	err = w.jobs.Orders.SyncOrder(ctx, orderID)
	if apperr.Is(err, apperr.KindNotFound) {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return err
}

func (w *Worker) handleOrderSyncSweep(ctx context.Context, _ *asynq.Task) error {
	_, err := w.jobs.Orders.SyncPending(ctx, orderSyncSweepLimit)
	return err
}
