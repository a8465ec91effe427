package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	assignrepo "telesales_backend/internal/assignments/repository"
	commissionrepo "telesales_backend/internal/commissions/repository"
	leadrepo "telesales_backend/internal/leads/repository"
	"telesales_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("order not found")

// Repository stores orders. The lead, assignment and commission
// repositories it carries join its transaction so a conversion commits as one unit.
type Repository struct {
	pool        *pgxpool.Pool
	db          db.DBTX
	inTx        bool
	leads       *leadrepo.Repository
	assignments *assignrepo.Repository
	commissions *commissionrepo.Repository
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool:        pool,
		db:          pool,
		leads:       leadrepo.New(pool),
		assignments: assignrepo.New(pool),
		commissions: commissionrepo.New(pool),
	}
}

func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{
		pool:        r.pool,
		db:          tx,
		inTx:        true,
		leads:       r.leads.WithTx(tx),
		assignments: r.assignments.WithTx(tx),
		commissions: r.commissions.WithTx(tx),
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

type Product struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type Order struct {
	ID               uuid.UUID
	OrderNumber      string
	LeadID           uuid.UUID
	UserID           uuid.UUID
	Products         []Product
	TotalAmount      decimal.Decimal
	CustomerAddress  string
	PaymentMethod    string
	OfferApplied     *string
	Notes            *string
	SyncedToMainSite bool
	SyncedAt         *time.Time
	SyncResponse     *string
	CreatedAt        time.Time
}

type InsertParams struct {
	OrderNumber     string
	LeadID          uuid.UUID
	UserID          uuid.UUID
	Products        []Product
	TotalAmount     decimal.Decimal
	CustomerAddress string
	PaymentMethod   string
	OfferApplied    *string
	Notes           *string
	CreatedAt       time.Time
}

type ListParams struct {
	UserID   uuid.UUID
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

const orderColumns = `id, order_number, lead_id, user_id, products, total_amount, customer_address,
	payment_method, offer_applied, notes, synced_to_main_site, synced_at, sync_response, created_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.LeadID, &o.UserID, &o.Products, &o.TotalAmount, &o.CustomerAddress,
		&o.PaymentMethod, &o.OfferApplied, &o.Notes, &o.SyncedToMainSite, &o.SyncedAt, &o.SyncResponse, &o.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func (r *Repository) InsertOrder(ctx context.Context, p InsertParams) (Order, error) {
	return scanOrder(r.db.QueryRow(ctx, `
		INSERT INTO orders (
			order_number, lead_id, user_id, products, total_amount, customer_address,
			payment_method, offer_applied, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+orderColumns,
		p.OrderNumber, p.LeadID, p.UserID, p.Products, p.TotalAmount, p.CustomerAddress,
		p.PaymentMethod, p.OfferApplied, p.Notes, p.CreatedAt,
	))
}

func (r *Repository) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

// ListForUser pages through a user's orders, newest first. From and To bound
// created_at inclusively by date.
func (r *Repository) ListForUser(ctx context.Context, p ListParams) ([]Order, int, error) {
	where := []string{"user_id = $1"}
	args := []any{p.UserID}
	if p.From != nil {
		args = append(args, *p.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if p.To != nil {
		args = append(args, p.To.AddDate(0, 0, 1))
		where = append(where, fmt.Sprintf("created_at < $%d", len(args)))
	}
	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM orders WHERE `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, p.PageSize, (p.Page-1)*p.PageSize)
	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM orders WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, orderColumns, whereSQL, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// RecordSync stores the main site's reply. synced marks the order as accepted.
func (r *Repository) RecordSync(ctx context.Context, id uuid.UUID, synced bool, at time.Time, response string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET
			synced_to_main_site = $2,
			synced_at = CASE WHEN $2 THEN $3 ELSE synced_at END,
			sync_response = $4
		WHERE id = $1
	`, id, synced, at, response)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUnsynced returns orders that were never sent to the main site, oldest
// first. Orders it rejected carry a sync_response and are left out.
func (r *Repository) ListUnsynced(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM orders WHERE NOT synced_to_main_site AND sync_response IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (r *Repository) GetLead(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error) {
	return r.leads.GetByID(ctx, id)
}

func (r *Repository) LockLead(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error) {
	return r.leads.LockByID(ctx, id)
}

func (r *Repository) SetLeadStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.leads.UpdateStatus(ctx, id, status)
	return err
}

func (r *Repository) ActiveAssignment(ctx context.Context, leadID uuid.UUID) (*assignrepo.Assignment, error) {
	return r.assignments.ActiveAssignment(ctx, leadID)
}

func (r *Repository) SetAssignmentStatus(ctx context.Context, id uuid.UUID, status string, completedAt *time.Time) error {
	return r.assignments.SetAssignmentStatus(ctx, id, status, completedAt)
}

func (r *Repository) DefaultRule(ctx context.Context) (commissionrepo.Rule, error) {
	return r.commissions.DefaultRule(ctx)
}

func (r *Repository) InsertCommission(ctx context.Context, p commissionrepo.InsertCommissionParams) (commissionrepo.Commission, error) {
	return r.commissions.InsertCommission(ctx, p)
}
