// Package service applies call outcomes to leads.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	assignrepo "telesales_backend/internal/assignments/repository"
	"telesales_backend/internal/calls/repository"
	"telesales_backend/internal/events"
	"telesales_backend/internal/leads/domain"
	leadrepo "telesales_backend/internal/leads/repository"
	"telesales_backend/internal/metrics"
	"telesales_backend/internal/shared/actor"
	"telesales_backend/platform/apperr"

	"github.com/google/uuid"
)

// Tx is the store as seen inside the call transaction.
type Tx interface {
	LockLead(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error)
	ApplyCall(ctx context.Context, id uuid.UUID, status string, calledAt time.Time) (leadrepo.Lead, error)
	ActiveAssignment(ctx context.Context, leadID uuid.UUID) (*assignrepo.Assignment, error)
	SetAssignmentStatus(ctx context.Context, id uuid.UUID, status string, completedAt *time.Time) error
	InsertCall(ctx context.Context, p repository.InsertParams) (repository.CallLog, error)
}

type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
	GetLead(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error)
	ListForLead(ctx context.Context, leadID uuid.UUID) ([]repository.CallLog, error)
}

type repoStore struct {
	*repository.Repository
}

// NewStore adapts the call repository to Store.
func NewStore(repo *repository.Repository) Store {
	return repoStore{Repository: repo}
}

func (s repoStore) InTx(ctx context.Context, fn func(Tx) error) error {
	return s.Repository.InTx(ctx, func(r *repository.Repository) error {
		return fn(r)
	})
}

type Service struct {
	store Store
	bus   events.Publisher
	now   func() time.Time
}

func New(store Store, bus events.Publisher) *Service {
	if bus == nil {
		bus = events.NopPublisher{}
	}
	return &Service{store: store, bus: bus, now: time.Now}
}

// LogCall records a call by the lead's assigned agent and applies its outcome:
// the lead takes the mapped status, its call count grows by one and it is
// locked for good. The lead's active assignment moves to working, or to
// completed when the new status is terminal. A converted lead keeps its
// status; later calls are still recorded.
func (s *Service) LogCall(ctx context.Context, leadID, agentID uuid.UUID, outcome, notes string, durationSeconds int) (repository.CallLog, error) {
	status, ok := StatusFor(outcome)
	if !ok {
		return repository.CallLog{}, apperr.Validation("unknown call outcome")
	}
	if durationSeconds < 0 {
		return repository.CallLog{}, apperr.Validation("duration cannot be negative")
	}

	calledAt := s.now().UTC()
	var (
		call   repository.CallLog
		lead   leadrepo.Lead
		result string
	)
	err := s.store.InTx(ctx, func(tx Tx) error {
		current, err := tx.LockLead(ctx, leadID)
		if errors.Is(err, leadrepo.ErrNotFound) {
			return apperr.NotFound("lead not found")
		}
		if err != nil {
			return err
		}
		if current.AssignedTo == nil || *current.AssignedTo != agentID {
			return apperr.Forbidden("lead is not assigned to you")
		}

		result = status
		if current.Status == domain.StatusConverted {
			result = domain.StatusConverted
		}

		call, err = tx.InsertCall(ctx, repository.InsertParams{
			LeadID:          leadID,
			UserID:          agentID,
			Outcome:         outcome,
			Notes:           optional(notes),
			DurationSeconds: durationSeconds,
			CalledAt:        calledAt,
		})
		if err != nil {
			return err
		}
		lead, err = tx.ApplyCall(ctx, leadID, result, calledAt)
		if err != nil {
			return err
		}

		active, err := tx.ActiveAssignment(ctx, leadID)
		if err != nil || active == nil || active.UserID != agentID {
			return err
		}
		return advanceAssignment(ctx, tx, *active, result, calledAt)
	})
	if err != nil {
		return repository.CallLog{}, err
	}

	metrics.RecordCall(outcome)
	s.bus.Publish(ctx, events.CallLogged{
		BaseEvent: events.NewBaseEvent(),
		CallID:    call.ID,
		LeadID:    lead.ID,
		AgentID:   agentID,
		Outcome:   outcome,
		NewStatus: lead.Status,
		Terminal:  domain.IsTerminal(lead.Status),
	})
	return call, nil
}

func advanceAssignment(ctx context.Context, tx Tx, a assignrepo.Assignment, leadStatus string, at time.Time) error {
	switch {
	case a.Status == assignrepo.StatusCompleted:
		return nil
	case domain.IsTerminal(leadStatus):
		return tx.SetAssignmentStatus(ctx, a.ID, assignrepo.StatusCompleted, &at)
	case a.Status == assignrepo.StatusPending:
		return tx.SetAssignmentStatus(ctx, a.ID, assignrepo.StatusWorking, nil)
	}
	return nil
}

// ListForLead returns a lead's calls, newest first. Agents may only read the
// history of leads assigned to them.
func (s *Service) ListForLead(ctx context.Context, a actor.Actor, leadID uuid.UUID) ([]repository.CallLog, error) {
	lead, err := s.store.GetLead(ctx, leadID)
	if errors.Is(err, leadrepo.ErrNotFound) {
		return nil, apperr.NotFound("lead not found")
	}
	if err != nil {
		return nil, err
	}
	if !a.CanDistribute() && (lead.AssignedTo == nil || *lead.AssignedTo != a.ID) {
		return nil, apperr.Forbidden("lead is not assigned to you")
	}
	return s.store.ListForLead(ctx, leadID)
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
