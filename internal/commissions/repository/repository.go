package repository

import (
	"context"
	"errors"
	"time"

	"telesales_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Rule types.
const (
	TypeFixed      = "fixed"
	TypePercentage = "percentage"
	TypeHybrid     = "hybrid"
)

// Commission statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusPaid     = "paid"
)

var ErrRuleNotFound = errors.New("commission rule not found")

type Repository struct {
	pool *pgxpool.Pool
	db   db.DBTX
	inTx bool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, db: pool}
}

func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{pool: r.pool, db: tx, inTx: true}
}

func (r *Repository) InTx(ctx context.Context, fn func(*Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(r.WithTx(tx))
	})
}

// Rule is a commission rule. MinOrderValue and MaxOrderValue are kept for
// reporting only.
type Rule struct {
	ID              uuid.UUID
	Name            string
	Type            string
	FixedAmount     decimal.Decimal
	PercentageValue decimal.Decimal
	MinOrderValue   decimal.NullDecimal
	MaxOrderValue   decimal.NullDecimal
	IsActive        bool
	IsDefault       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Commission struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	OrderID          uuid.UUID
	OrderAmount      decimal.Decimal
	CommissionAmount decimal.Decimal
	CalculationType  string
	RateValue        decimal.Decimal
	MonthYear        string
	Status           string
	PaidAt           *time.Time
	CreatedAt        time.Time
}

type InsertCommissionParams struct {
	UserID           uuid.UUID
	OrderID          uuid.UUID
	OrderAmount      decimal.Decimal
	CommissionAmount decimal.Decimal
	CalculationType  string
	RateValue        decimal.Decimal
	MonthYear        string
}

type UpsertRuleParams struct {
	Name            string
	Type            string
	FixedAmount     decimal.Decimal
	PercentageValue decimal.Decimal
	MinOrderValue   decimal.NullDecimal
	MaxOrderValue   decimal.NullDecimal
	IsActive        bool
	IsDefault       bool
}

const ruleColumns = `id, name, type, fixed_amount, percentage_value, min_order_value, max_order_value,
	is_active, is_default, created_at, updated_at`

func scanRule(row pgx.Row) (Rule, error) {
	var rule Rule
	err := row.Scan(
		&rule.ID, &rule.Name, &rule.Type, &rule.FixedAmount, &rule.PercentageValue, &rule.MinOrderValue, &rule.MaxOrderValue,
		&rule.IsActive, &rule.IsDefault, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rule{}, ErrRuleNotFound
	}
	return rule, err
}

// DefaultRule returns the active default rule, or ErrRuleNotFound.
func (r *Repository) DefaultRule(ctx context.Context) (Rule, error) {
	return scanRule(r.db.QueryRow(ctx, `
		SELECT `+ruleColumns+` FROM commission_rules
		WHERE is_active AND is_default
		ORDER BY updated_at DESC
		LIMIT 1
	`))
}

func (r *Repository) ListRules(ctx context.Context) ([]Rule, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ruleColumns+` FROM commission_rules ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Rule, error) {
		return scanRule(row)
	})
}

// UpsertRule inserts a rule or replaces the one with the same name.
func (r *Repository) UpsertRule(ctx context.Context, p UpsertRuleParams) (Rule, error) {
	return scanRule(r.db.QueryRow(ctx, `
		INSERT INTO commission_rules (
			name, type, fixed_amount, percentage_value, min_order_value, max_order_value, is_active, is_default
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (name) DO UPDATE SET
			type = EXCLUDED.type,
			fixed_amount = EXCLUDED.fixed_amount,
			percentage_value = EXCLUDED.percentage_value,
			min_order_value = EXCLUDED.min_order_value,
			max_order_value = EXCLUDED.max_order_value,
			is_active = EXCLUDED.is_active,
			is_default = EXCLUDED.is_default,
			updated_at = now()
		RETURNING `+ruleColumns,
		p.Name, p.Type, p.FixedAmount, p.PercentageValue, p.MinOrderValue, p.MaxOrderValue, p.IsActive, p.IsDefault,
	))
}

// ClearDefaults unsets the default flag on every rule except keep.
func (r *Repository) ClearDefaults(ctx context.Context, keep string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE commission_rules SET is_default = FALSE, updated_at = now()
		WHERE is_default AND name <> $1
	`, keep)
	return err
}

const commissionColumns = `id, user_id, order_id, order_amount, commission_amount, calculation_type,
	rate_value, month_year, status, paid_at, created_at`

func scanCommission(row pgx.Row) (Commission, error) {
	var c Commission
	err := row.Scan(
		&c.ID, &c.UserID, &c.OrderID, &c.OrderAmount, &c.CommissionAmount, &c.CalculationType,
		&c.RateValue, &c.MonthYear, &c.Status, &c.PaidAt, &c.CreatedAt,
	)
	return c, err
}

func (r *Repository) InsertCommission(ctx context.Context, p InsertCommissionParams) (Commission, error) {
	return scanCommission(r.db.QueryRow(ctx, `
		INSERT INTO commissions (
			user_id, order_id, order_amount, commission_amount, calculation_type, rate_value, month_year, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending')
		RETURNING `+commissionColumns,
		p.UserID, p.OrderID, p.OrderAmount, p.CommissionAmount, p.CalculationType, p.RateValue, p.MonthYear,
	))
}

// ListForUser returns a user's commissions, newest first. An empty monthYear
// means every month.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID, monthYear string) ([]Commission, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+commissionColumns+` FROM commissions
		WHERE user_id = $1 AND ($2::text = '' OR month_year = $2::text)
		ORDER BY created_at DESC
	`, userID, monthYear)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Commission, error) {
		return scanCommission(row)
	})
}
