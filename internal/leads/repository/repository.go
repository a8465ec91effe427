package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"telesales_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

// Repository is the lead store. A Repository bound to a transaction (see
// WithTx) runs every query inside it.
type Repository struct {
	pool *pgxpool.Pool
	db   db.DBTX
	inTx bool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, db: pool}
}

// WithTx returns a copy of the repository bound to tx.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{pool: r.pool, db: tx, inTx: true}
}

// InTx runs fn in a transaction. When the repository is already bound to
// one, fn joins it.
func (r *Repository) InTx(ctx context.Context, fn func(*Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(r.WithTx(tx))
	})
}

type Lead struct {
	ID             uuid.UUID
	Name           string
	Email          *string
	PhoneEncrypted string
	PhoneLast4     string
	PhoneFirst4    string
	Address        string
	City           string
	State          string
	ZipCode        string
	Source         string
	Notes          *string
	Status         string
	QualityTag     *string
	AssignedTo     *uuid.UUID
	BatchID        *uuid.UUID
	IsLocked       bool
	CallCount      int
	LastCalledAt   *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type CreateLeadParams struct {
	Name           string
	Email          *string
	PhoneEncrypted string
	PhoneLast4     string
	PhoneFirst4    string
	Address        string
	City           string
	State          string
	ZipCode        string
	Source         string
	Notes          *string
	QualityTag     *string
	BatchID        *uuid.UUID
}

type ListParams struct {
	Status      string
	AssignedTo  *uuid.UUID
	BatchID     *uuid.UUID
	PhoneLast4  string
	PhoneFirst4 string
	Search      string
	Page        int
	PageSize    int
}

const leadColumns = `id, name, email, phone_encrypted, phone_last_4, phone_first_4,
	address, city, state, zip_code, source, notes, status, quality_tag,
	assigned_to, batch_id, is_locked, call_count, last_called_at, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Email, &lead.PhoneEncrypted, &lead.PhoneLast4, &lead.PhoneFirst4,
		&lead.Address, &lead.City, &lead.State, &lead.ZipCode, &lead.Source, &lead.Notes, &lead.Status, &lead.QualityTag,
		&lead.AssignedTo, &lead.BatchID, &lead.IsLocked, &lead.CallCount, &lead.LastCalledAt, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

func collectLeads(rows pgx.Rows) ([]Lead, error) {
	defer rows.Close()

	items := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	return scanLead(r.db.QueryRow(ctx, `
		INSERT INTO leads (
			name, email, phone_encrypted, phone_last_4, phone_first_4,
			address, city, state, zip_code, source, notes, quality_tag, batch_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+leadColumns,
		params.Name, params.Email, params.PhoneEncrypted, params.PhoneLast4, params.PhoneFirst4,
		params.Address, params.City, params.State, params.ZipCode, params.Source, params.Notes, params.QualityTag, params.BatchID,
	))
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	return scanLead(r.db.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE id = $1 AND deleted_at IS NULL
	`, id))
}

// LockByID re-reads the lead and holds its row lock until the transaction ends.
// Every mutation of status or assignment starts here.
func (r *Repository) LockByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	return scanLead(r.db.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE id = $1 AND deleted_at IS NULL FOR UPDATE
	`, id))
}

// LockPhoneIndex serializes lead creation for numbers sharing last4 so two
// concurrent creates cannot both pass the duplicate check.
func (r *Repository) LockPhoneIndex(ctx context.Context, last4 string) error {
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended('lead-phone:' || $1, 0))`, last4)
	return err
}

// FindByLast4 returns live leads sharing the index. The result is a candidate
// set only; callers must decode and compare.
func (r *Repository) FindByLast4(ctx context.Context, last4 string) ([]Lead, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE phone_last_4 = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`, last4)
	if err != nil {
		return nil, err
	}
	return collectLeads(rows)
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Lead, error) {
	return scanLead(r.db.QueryRow(ctx, `
		UPDATE leads SET status = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+leadColumns,
		id, status,
	))
}

func (r *Repository) SetQualityTag(ctx context.Context, id uuid.UUID, tag *string) error {
	res, err := r.db.Exec(ctx, `
		UPDATE leads SET quality_tag = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL
	`, id, tag)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAssignment points the lead at agentID (nil clears it) and sets status.
func (r *Repository) SetAssignment(ctx context.Context, id uuid.UUID, agentID *uuid.UUID, status string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE leads SET assigned_to = $2, status = $3, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id, agentID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyCall records a call attempt on the lead. The lock flag only ever moves to true.
func (r *Repository) ApplyCall(ctx context.Context, id uuid.UUID, status string, calledAt time.Time) (Lead, error) {
	return scanLead(r.db.QueryRow(ctx, `
		UPDATE leads SET
			status = $2,
			call_count = call_count + 1,
			last_called_at = $3,
			is_locked = TRUE,
			updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+leadColumns,
		id, status, calledAt,
	))
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	where = append(where, "deleted_at IS NULL")
	if params.Status != "" {
		add("status = $%d", params.Status)
	}
	if params.AssignedTo != nil {
		add("assigned_to = $%d", *params.AssignedTo)
	}
	if params.BatchID != nil {
		add("batch_id = $%d", *params.BatchID)
	}
	if params.PhoneLast4 != "" {
		add("phone_last_4 = $%d", params.PhoneLast4)
	}
	if params.PhoneFirst4 != "" {
		add("phone_first_4 = $%d", params.PhoneFirst4)
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		add("(name ILIKE $%d)", "%"+search+"%")
	}
	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM leads WHERE `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, pageSize := normalizePage(params.Page, params.PageSize)
	args = append(args, pageSize, (page-1)*pageSize)
	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM leads WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, leadColumns, whereSQL, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}

	items, err := collectLeads(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListMissingPhoneIndices pages through leads whose indices were never
// computed, ordered by id and starting after afterID.
func (r *Repository) ListMissingPhoneIndices(ctx context.Context, afterID uuid.UUID, limit int) ([]Lead, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE (phone_last_4 = '' OR phone_first_4 = '') AND phone_encrypted <> '' AND id > $1
		ORDER BY id ASC
		LIMIT $2
	`, afterID, limit)
	if err != nil {
		return nil, err
	}
	return collectLeads(rows)
}

func (r *Repository) UpdatePhoneIndices(ctx context.Context, id uuid.UUID, last4, first4 string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE leads SET phone_last_4 = $2, phone_first_4 = $3, updated_at = now() WHERE id = $1
	`, id, last4, first4)
	return err
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// ListUnassignedIDs returns leads waiting for distribution, oldest first.
func (r *Repository) ListUnassignedIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM leads
		WHERE status = 'new' AND assigned_to IS NULL AND deleted_at IS NULL
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (r *Repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Lead, error) {
	if len(ids) == 0 {
		return []Lead{}, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE id = ANY($1) AND deleted_at IS NULL
	`, ids)
	if err != nil {
		return nil, err
	}
	return collectLeads(rows)
}

// Counts summarizes the live lead pool.
type Counts struct {
	Total      int
	Unassigned int
}

func (r *Repository) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := r.db.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = 'new' AND assigned_to IS NULL)
		FROM leads WHERE deleted_at IS NULL
	`).Scan(&c.Total, &c.Unassigned)
	return c, err
}
