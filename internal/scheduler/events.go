package scheduler

import (
	"context"

	"telesales_backend/internal/events"
)

// DistributeEnqueuer queues a distribution cycle.
type DistributeEnqueuer interface {
	EnqueueDistribute(ctx context.Context, reason string) error
}

// CallLoggedHandler queues a distribution cycle after each logged call.
// Bursts collapse into a single queued task.
func CallLoggedHandler(q DistributeEnqueuer) events.Handler {
	return events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		if _, ok := event.(events.CallLogged); !ok {
			return nil
		}
		return q.EnqueueDistribute(ctx, "call-logged")
	})
}
