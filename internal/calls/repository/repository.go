package repository

import (
	"context"
	"time"

	assignrepo "telesales_backend/internal/assignments/repository"
	leadrepo "telesales_backend/internal/leads/repository"
	"telesales_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository appends call records. The lead and assignment repositories it
// carries are bound to the same transaction.
type Repository struct {
	pool        *pgxpool.Pool
	db          db.DBTX
	inTx        bool
	leads       *leadrepo.Repository
	assignments *assignrepo.Repository
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool:        pool,
		db:          pool,
		leads:       leadrepo.New(pool),
		assignments: assignrepo.New(pool),
	}
}

func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{
		pool:        r.pool,
		db:          tx,
		inTx:        true,
		leads:       r.leads.WithTx(tx),
		assignments: r.assignments.WithTx(tx),
	}
}

func (r *Repository) InTx(ctx context.Context, fn func(*Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(r.WithTx(tx))
	})
}

type CallLog struct {
	ID              uuid.UUID
	LeadID          uuid.UUID
	UserID          uuid.UUID
	Outcome         string
	Notes           *string
	DurationSeconds int
	CalledAt        time.Time
}

type InsertParams struct {
	LeadID          uuid.UUID
	UserID          uuid.UUID
	Outcome         string
	Notes           *string
	DurationSeconds int
	CalledAt        time.Time
}

const callColumns = `id, lead_id, user_id, outcome, notes, duration_seconds, called_at`

func (r *Repository) InsertCall(ctx context.Context, p InsertParams) (CallLog, error) {
	var c CallLog
	err := r.db.QueryRow(ctx, `
		INSERT INTO call_logs (lead_id, user_id, outcome, notes, duration_seconds, called_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+callColumns,
		p.LeadID, p.UserID, p.Outcome, p.Notes, p.DurationSeconds, p.CalledAt,
	).Scan(&c.ID, &c.LeadID, &c.UserID, &c.Outcome, &c.Notes, &c.DurationSeconds, &c.CalledAt)
	return c, err
}

// ListForLead returns a lead's calls, newest first.
func (r *Repository) ListForLead(ctx context.Context, leadID uuid.UUID) ([]CallLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+callColumns+` FROM call_logs
		WHERE lead_id = $1
		ORDER BY called_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (CallLog, error) {
		var c CallLog
		err := row.Scan(&c.ID, &c.LeadID, &c.UserID, &c.Outcome, &c.Notes, &c.DurationSeconds, &c.CalledAt)
		return c, err
	})
}

func (r *Repository) GetLead(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error) {
	return r.leads.GetByID(ctx, id)
}

func (r *Repository) LockLead(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error) {
	return r.leads.LockByID(ctx, id)
}

func (r *Repository) ApplyCall(ctx context.Context, id uuid.UUID, status string, calledAt time.Time) (leadrepo.Lead, error) {
	return r.leads.ApplyCall(ctx, id, status, calledAt)
}

func (r *Repository) ActiveAssignment(ctx context.Context, leadID uuid.UUID) (*assignrepo.Assignment, error) {
	return r.assignments.ActiveAssignment(ctx, leadID)
}

func (r *Repository) SetAssignmentStatus(ctx context.Context, id uuid.UUID, status string, completedAt *time.Time) error {
	return r.assignments.SetAssignmentStatus(ctx, id, status, completedAt)
}
