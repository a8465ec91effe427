package distribution

import (
	"context"
	"time"

	"telesales_backend/internal/assignments/repository"
	leadrepo "telesales_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// Tx is the assignment store as seen inside one per-lead transaction.
type Tx interface {
	LockLead(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error)
	ActiveAssignment(ctx context.Context, leadID uuid.UUID) (*repository.Assignment, error)
	LockAgent(ctx context.Context, id uuid.UUID) (repository.Agent, error)
	CountActiveForDate(ctx context.Context, agentID uuid.UUID, date time.Time) (int, error)
	InsertAssignment(ctx context.Context, p repository.CreateParams) (repository.Assignment, error)
	SetAssignmentStatus(ctx context.Context, id uuid.UUID, status string, completedAt *time.Time) error
	SetLeadAssignment(ctx context.Context, leadID uuid.UUID, agentID *uuid.UUID, status string) error
}

// Store defines the data access needed by distribution.
type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
	ListActiveAgents(ctx context.Context) ([]repository.Agent, error)
	GetAgent(ctx context.Context, id uuid.UUID) (repository.Agent, error)
	CountsForDate(ctx context.Context, date time.Time) (map[uuid.UUID]int, error)
	ListUnassignedLeadIDs(ctx context.Context) ([]uuid.UUID, error)
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
