package management

import (
	"context"

	"telesales_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// Tx is the lead store as seen inside one transaction.
type Tx interface {
	LockPhoneIndex(ctx context.Context, last4 string) error
	FindByLast4(ctx context.Context, last4 string) ([]repository.Lead, error)
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	LockByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (repository.Lead, error)
	SetQualityTag(ctx context.Context, id uuid.UUID, tag *string) error
}

// Store defines the data access needed by the management service.
type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Lead, int, error)
}

type repoStore struct {
	*repository.Repository
}

// NewStore adapts the lead repository to Store.
func NewStore(repo *repository.Repository) Store {
	return repoStore{Repository: repo}
}

func (s repoStore) InTx(ctx context.Context, fn func(Tx) error) error {
	return s.Repository.InTx(ctx, func(r *repository.Repository) error {
		return fn(r)
	})
}
