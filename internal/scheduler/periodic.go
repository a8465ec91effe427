package scheduler

import (
	"context"
	"fmt"
	"time"

	"telesales_backend/platform/config"
	"telesales_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const orderSyncSweepSpec = "@every 15m"

// Entry is one cron registration.
type Entry struct {
	Spec string
	Task *asynq.Task
}

// Periodic enqueues recurring tasks on cron schedules evaluated in the
// business time zone.
type Periodic struct {
	scheduler *asynq.Scheduler
	entries   []Entry
	log       *logger.Logger
}

// PeriodicEntries lists the recurring tasks for cfg. The order sync sweep is
// only included when withOrderSync is set.
func PeriodicEntries(cfg config.SchedulerConfig, withOrderSync bool) ([]Entry, error) {
	recycle, err := NewRecycleTask(RecyclePayload{})
	if err != nil {
		return nil, err
	}
	distribute, err := NewDistributeTask(DistributePayload{Reason: "schedule"})
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if spec := cfg.GetRecycleCron(); spec != "" {
		entries = append(entries, Entry{Spec: spec, Task: recycle})
	}
	if spec := cfg.GetDistributeCron(); spec != "" {
		entries = append(entries, Entry{Spec: spec, Task: distribute})
	}
	if withOrderSync {
		entries = append(entries, Entry{Spec: orderSyncSweepSpec, Task: NewOrderSyncSweepTask()})
	}
	return entries, nil
}

func NewPeriodic(cfg config.SchedulerConfig, loc *time.Location, entries []Entry, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: loc})
	queue := queueName(cfg)
	for _, e := range entries {
		if _, err := scheduler.Register(e.Spec, e.Task, asynq.Queue(queue)); err != nil {
			return nil, fmt.Errorf("register %s (%s): %w", e.Task.Type(), e.Spec, err)
		}
	}

	return &Periodic{scheduler: scheduler, entries: entries, log: log}, nil
}

// Run starts the scheduler and blocks until ctx is done.
func (p *Periodic) Run(ctx context.Context) error {
	if err := p.scheduler.Start(); err != nil {
		return err
	}
	for _, e := range p.entries {
		p.log.Info("periodic task registered", "task", e.Task.Type(), "spec", e.Spec)
	}

	<-ctx.Done()
	p.scheduler.Shutdown()
	return nil
}
