// Package repository stores lead assignments and reads agent capacity.
// Agents live in the externally owned users table and are read-only here.
package repository

import (
	"context"
	"errors"
	"time"

	leadrepo "telesales_backend/internal/leads/repository"
	"telesales_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("assignment not found")
	ErrAgentNotFound = errors.New("agent not found")
)

// Assignment statuses.
const (
	StatusPending   = "pending"
	StatusWorking   = "working"
	StatusCompleted = "completed"
	StatusRecycled  = "recycled"
)

// Repository reads and writes assignments. Lead rows are reached through the
// embedded lead repository, always bound to the same transaction.
type Repository struct {
	pool  *pgxpool.Pool
	db    db.DBTX
	inTx  bool
	leads *leadrepo.Repository
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, db: pool, leads: leadrepo.New(pool)}
}

// WithTx returns a copy of the repository, lead access included, bound to tx.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{pool: r.pool, db: tx, inTx: true, leads: r.leads.WithTx(tx)}
}

// InTx runs fn in a transaction, joining the current one when already bound.
func (r *Repository) InTx(ctx context.Context, fn func(*Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(r.WithTx(tx))
	})
}

type Agent struct {
	ID             uuid.UUID
	Name           string
	Role           string
	DailyLeadLimit int
	IsActive       bool
}

type Assignment struct {
	ID             uuid.UUID
	LeadID         uuid.UUID
	UserID         uuid.UUID
	AssignedDate   time.Time
	Status         string
	IsAutoAssigned bool
	AssignedBy     *uuid.UUID
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type CreateParams struct {
	LeadID         uuid.UUID
	UserID         uuid.UUID
	AssignedDate   time.Time
	IsAutoAssigned bool
	AssignedBy     *uuid.UUID
}

const agentColumns = `id, name, role, daily_lead_limit, is_active`

const assignmentColumns = `id, lead_id, user_id, assigned_date, status, is_auto_assigned,
	assigned_by, completed_at, created_at, updated_at`

func scanAgent(row pgx.Row) (Agent, error) {
	var a Agent
	err := row.Scan(&a.ID, &a.Name, &a.Role, &a.DailyLeadLimit, &a.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return Agent{}, ErrAgentNotFound
	}
	return a, err
}

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.LeadID, &a.UserID, &a.AssignedDate, &a.Status, &a.IsAutoAssigned,
		&a.AssignedBy, &a.CompletedAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, ErrNotFound
	}
	return a, err
}

func collectAssignments(rows pgx.Rows) ([]Assignment, error) {
	defer rows.Close()

	items := make([]Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

// ListActiveAgents returns agents eligible for distribution ordered by id,
// which fixes the round-robin order.
func (r *Repository) ListActiveAgents(ctx context.Context) ([]Agent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+agentColumns+` FROM users
		WHERE role = 'agent' AND is_active
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agents := make([]Agent, 0)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func (r *Repository) GetAgent(ctx context.Context, id uuid.UUID) (Agent, error) {
	return scanAgent(r.db.QueryRow(ctx, `SELECT `+agentColumns+` FROM users WHERE id = $1`, id))
}

// LockAgent holds the agent row so concurrent capacity checks for the same
// agent serialize.
func (r *Repository) LockAgent(ctx context.Context, id uuid.UUID) (Agent, error) {
	return scanAgent(r.db.QueryRow(ctx, `SELECT `+agentColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

// CountActiveForDate counts the agent's non-recycled assignments on date.
func (r *Repository) CountActiveForDate(ctx context.Context, agentID uuid.UUID, date time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT count(*) FROM lead_assignments
		WHERE user_id = $1 AND assigned_date = $2 AND status <> 'recycled'
	`, agentID, date).Scan(&n)
	return n, err
}

// CountsForDate returns non-recycled assignment counts on date for every agent
// that has at least one.
func (r *Repository) CountsForDate(ctx context.Context, date time.Time) (map[uuid.UUID]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, count(*) FROM lead_assignments
		WHERE assigned_date = $1 AND status <> 'recycled'
		GROUP BY user_id
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			id uuid.UUID
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// ActiveAssignment locks and returns the lead's non-recycled assignment, or
// nil when there is none. Call it after the lead row is locked.
func (r *Repository) ActiveAssignment(ctx context.Context, leadID uuid.UUID) (*Assignment, error) {
	a, err := scanAssignment(r.db.QueryRow(ctx, `
		SELECT `+assignmentColumns+` FROM lead_assignments
		WHERE lead_id = $1 AND status <> 'recycled'
		FOR UPDATE
	`, leadID))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) InsertAssignment(ctx context.Context, p CreateParams) (Assignment, error) {
	return scanAssignment(r.db.QueryRow(ctx, `
		INSERT INTO lead_assignments (lead_id, user_id, assigned_date, status, is_auto_assigned, assigned_by)
		VALUES ($1, $2, $3, 'pending', $4, $5)
		RETURNING `+assignmentColumns,
		p.LeadID, p.UserID, p.AssignedDate, p.IsAutoAssigned, p.AssignedBy,
	))
}

// SetAssignmentStatus moves an assignment to status. completedAt is only
// written when non-nil.
func (r *Repository) SetAssignmentStatus(ctx context.Context, id uuid.UUID, status string, completedAt *time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE lead_assignments
		SET status = $2, completed_at = COALESCE($3, completed_at), updated_at = now()
		WHERE id = $1
	`, id, status, completedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListStalePending returns pending assignments dated before asOf, oldest first.
func (r *Repository) ListStalePending(ctx context.Context, asOf time.Time) ([]Assignment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+assignmentColumns+` FROM lead_assignments
		WHERE status = 'pending' AND assigned_date < $1
		ORDER BY assigned_date ASC, created_at ASC
	`, asOf)
	if err != nil {
		return nil, err
	}
	return collectAssignments(rows)
}

// RecycleIfStale claims the assignment for recycling. It reports false when
// another run or a call already moved it out of stale pending.
func (r *Repository) RecycleIfStale(ctx context.Context, id uuid.UUID, asOf time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE lead_assignments SET status = 'recycled', updated_at = now()
		WHERE id = $1 AND status = 'pending' AND assigned_date < $2
	`, id, asOf)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListForAgentOnDate returns the agent's non-recycled assignments on date.
func (r *Repository) ListForAgentOnDate(ctx context.Context, agentID uuid.UUID, date time.Time) ([]Assignment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+assignmentColumns+` FROM lead_assignments
		WHERE user_id = $1 AND assigned_date = $2 AND status <> 'recycled'
		ORDER BY created_at ASC
	`, agentID, date)
	if err != nil {
		return nil, err
	}
	return collectAssignments(rows)
}

// Lead access, bound to the repository's transaction.

func (r *Repository) LockLead(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error) {
	return r.leads.LockByID(ctx, id)
}

func (r *Repository) SetLeadAssignment(ctx context.Context, leadID uuid.UUID, agentID *uuid.UUID, status string) error {
	return r.leads.SetAssignment(ctx, leadID, agentID, status)
}

func (r *Repository) ListUnassignedLeadIDs(ctx context.Context) ([]uuid.UUID, error) {
	return r.leads.ListUnassignedIDs(ctx)
}

func (r *Repository) LeadsByIDs(ctx context.Context, ids []uuid.UUID) ([]leadrepo.Lead, error) {
	return r.leads.ListByIDs(ctx, ids)
}

func (r *Repository) LeadCounts(ctx context.Context) (leadrepo.Counts, error) {
	return r.leads.Counts(ctx)
}
