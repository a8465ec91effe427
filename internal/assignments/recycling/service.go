// Package recycling reclaims leads whose assignment went unworked past its day.
package recycling

import (
	"context"
	"errors"
	"time"

	"telesales_backend/internal/assignments/repository"
	"telesales_backend/internal/events"
	"telesales_backend/internal/leads/domain"
	leadrepo "telesales_backend/internal/leads/repository"
	"telesales_backend/internal/metrics"
	"telesales_backend/platform/apperr"
	"telesales_backend/platform/logger"
	"telesales_backend/platform/runlock"

	"github.com/google/uuid"
)

// RunName is the run lock held while sweeping.
const RunName = "recycle"

// Tx is the store as seen inside one per-assignment transaction.
type Tx interface {
	LockLead(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error)
	RecycleIfStale(ctx context.Context, id uuid.UUID, asOf time.Time) (bool, error)
	SetLeadAssignment(ctx context.Context, leadID uuid.UUID, agentID *uuid.UUID, status string) error
}

type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
	ListStalePending(ctx context.Context, asOf time.Time) ([]repository.Assignment, error)
}

type repoStore struct {
	*repository.Repository
}

// NewStore adapts the assignment repository to Store.
func NewStore(repo *repository.Repository) Store {
	return repoStore{Repository: repo}
}

func (s repoStore) InTx(ctx context.Context, fn func(Tx) error) error {
	return s.Repository.InTx(ctx, func(r *repository.Repository) error {
		return fn(r)
	})
}

type Service struct {
	store  Store
	locker *runlock.Locker
	bus    events.Publisher
	log    *logger.Logger
}

func New(store Store, locker *runlock.Locker, bus events.Publisher, log *logger.Logger) *Service {
	if bus == nil {
		bus = events.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, locker: locker, bus: bus, log: log}
}

// Recycle retires every pending assignment dated before asOf and returns its
// lead to the pool. It returns how many assignments this run claimed; rows
// claimed by a concurrent run or moved on by a call are not counted.
func (s *Service) Recycle(ctx context.Context, asOf time.Time) (int, error) {
	var recycled int
	err := s.locker.Run(ctx, RunName, func(ctx context.Context) error {
		var err error
		recycled, err = s.sweep(ctx, asOf)
		return err
	})
	if errors.Is(err, runlock.ErrBusy) {
		return 0, apperr.Conflict("a recycle run is already in progress").WithCode(apperr.CodeRunInProgress)
	}
	return recycled, err
}

func (s *Service) sweep(ctx context.Context, asOf time.Time) (int, error) {
	started := time.Now()
	log := s.log.WithContext(ctx)

	stale, err := s.store.ListStalePending(ctx, asOf)
	if err != nil {
		return 0, err
	}

	recycled, released := 0, 0
	for _, a := range stale {
		claimed, reset, err := s.recycleOne(ctx, a, asOf)
		if err != nil {
			metrics.RecordRecycled(recycled)
			return recycled, err
		}
		if !claimed {
			continue
		}
		recycled++
		if reset {
			released++
		}
		s.bus.Publish(ctx, events.LeadRecycled{
			BaseEvent:    events.NewBaseEvent(),
			LeadID:       a.LeadID,
			AgentID:      a.UserID,
			AssignmentID: a.ID,
			AssignedDate: a.AssignedDate,
		})
	}

	metrics.RecordRecycled(recycled)
	metrics.ObserveJob(RunName, started)
	log.JobRun(RunName, started,
		"asOf", asOf.Format(time.DateOnly),
		"candidates", len(stale),
		"recycled", recycled,
		"leadsReleased", released,
	)
	return recycled, nil
}

// recycleOne locks the lead before touching the assignment, the same order
// every other mutation uses.
func (s *Service) recycleOne(ctx context.Context, a repository.Assignment, asOf time.Time) (claimed, reset bool, err error) {
	err = s.store.InTx(ctx, func(tx Tx) error {
		lead, err := tx.LockLead(ctx, a.LeadID)
		if err != nil && !errors.Is(err, leadrepo.ErrNotFound) {
			return err
		}
		leadFound := err == nil

		claimed, err = tx.RecycleIfStale(ctx, a.ID, asOf)
		if err != nil || !claimed || !leadFound {
			return err
		}

		if lead.Status != domain.StatusAssigned || lead.AssignedTo == nil || *lead.AssignedTo != a.UserID {
			return nil
		}
		reset = true
		return tx.SetLeadAssignment(ctx, a.LeadID, nil, domain.StatusNew)
	})
	if err != nil {
		return false, false, err
	}
	return claimed, reset, nil
}
