package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"telesales_backend/internal/commissions/calculator"
	"telesales_backend/internal/commissions/repository"
	"telesales_backend/internal/shared/actor"
	"telesales_backend/internal/shared/businessday"
	"telesales_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	rule     *repository.Rule
	ruleErr  error
	inserted []repository.InsertCommissionParams
}

func (f *fakeTx) DefaultRule(context.Context) (repository.Rule, error) {
	if f.ruleErr != nil {
		return repository.Rule{}, f.ruleErr
	}
	if f.rule == nil {
		return repository.Rule{}, repository.ErrRuleNotFound
	}
	return *f.rule, nil
}

func (f *fakeTx) InsertCommission(_ context.Context, p repository.InsertCommissionParams) (repository.Commission, error) {
	f.inserted = append(f.inserted, p)
	return repository.Commission{
		ID:               uuid.New(),
		UserID:           p.UserID,
		OrderID:          p.OrderID,
		OrderAmount:      p.OrderAmount,
		CommissionAmount: p.CommissionAmount,
		CalculationType:  p.CalculationType,
		RateValue:        p.RateValue,
		MonthYear:        p.MonthYear,
		Status:           repository.StatusPending,
	}, nil
}

type fakeStore struct {
	commissions []repository.Commission
}

func (f *fakeStore) ListForUser(_ context.Context, userID uuid.UUID, monthYear string) ([]repository.Commission, error) {
	var out []repository.Commission
	for _, c := range f.commissions {
		if c.UserID == userID && (monthYear == "" || c.MonthYear == monthYear) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) ListRules(context.Context) ([]repository.Rule, error) {
	return []repository.Rule{{Name: "Standard"}}, nil
}

func newService(store Store) *Service {
	dhaka := time.FixedZone("Asia/Dhaka", 6*60*60)
	return New(store, calculator.New(decimal.NewFromInt(100)), businessday.New(dhaka, nil))
}

func TestOnOrderConverted_UsesDefaultRule(t *testing.T) {
	tx := &fakeTx{rule: &repository.Rule{
		Type:            repository.TypeHybrid,
		FixedAmount:     decimal.NewFromInt(50),
		PercentageValue: decimal.NewFromInt(3),
	}}
	order := ConvertedOrder{
		ID:          uuid.New(),
		AgentID:     uuid.New(),
		TotalAmount: decimal.NewFromInt(1000),
		// Already April in the business zone.
		CreatedAt: time.Date(2025, 3, 31, 19, 0, 0, 0, time.UTC),
	}

	c, err := newService(&fakeStore{}).OnOrderConverted(context.Background(), tx, order)
	require.NoError(t, err)

	assert.True(t, c.CommissionAmount.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, repository.TypeHybrid, c.CalculationType)
	assert.True(t, c.RateValue.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "2025-04", c.MonthYear)
	assert.Equal(t, repository.StatusPending, c.Status)
	assert.Equal(t, order.AgentID, c.UserID)
	assert.Equal(t, order.ID, c.OrderID)
}

func TestOnOrderConverted_FallsBackWithoutRule(t *testing.T) {
	tx := &fakeTx{}
	order := ConvertedOrder{ID: uuid.New(), AgentID: uuid.New(), TotalAmount: decimal.NewFromInt(420), CreatedAt: time.Now()}

	c, err := newService(&fakeStore{}).OnOrderConverted(context.Background(), tx, order)
	require.NoError(t, err)

	assert.True(t, c.CommissionAmount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, repository.TypeFixed, c.CalculationType)
	assert.True(t, c.RateValue.Equal(decimal.NewFromInt(100)))
}

func TestOnOrderConverted_StoreErrorAborts(t *testing.T) {
	tx := &fakeTx{ruleErr: errors.New("connection reset")}
	order := ConvertedOrder{ID: uuid.New(), AgentID: uuid.New(), TotalAmount: decimal.NewFromInt(1)}

	_, err := newService(&fakeStore{}).OnOrderConverted(context.Background(), tx, order)
	require.Error(t, err)
	assert.Empty(t, tx.inserted)
}

func TestListOwn(t *testing.T) {
	me, other := uuid.New(), uuid.New()
	store := &fakeStore{commissions: []repository.Commission{
		{UserID: me, MonthYear: "2025-03", CommissionAmount: decimal.RequireFromString("80.00")},
		{UserID: me, MonthYear: "2025-04", CommissionAmount: decimal.RequireFromString("100.00")},
		{UserID: other, MonthYear: "2025-03", CommissionAmount: decimal.RequireFromString("999.00")},
	}}
	svc := newService(store)

	all, err := svc.ListOwn(context.Background(), actor.New(me, actor.RoleAgent), "")
	require.NoError(t, err)
	assert.Len(t, all.Commissions, 2)
	assert.True(t, all.Total.Equal(decimal.NewFromInt(180)))

	march, err := svc.ListOwn(context.Background(), actor.New(me, actor.RoleAgent), "2025-03")
	require.NoError(t, err)
	assert.Len(t, march.Commissions, 1)
	assert.True(t, march.Total.Equal(decimal.NewFromInt(80)))

	_, err = svc.ListOwn(context.Background(), actor.New(me, actor.RoleAgent), "March")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.ListOwn(context.Background(), actor.System(), "")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestRules_RequiresManager(t *testing.T) {
	svc := newService(&fakeStore{})

	_, err := svc.Rules(context.Background(), actor.New(uuid.New(), actor.RoleAgent))
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	rules, err := svc.Rules(context.Background(), actor.New(uuid.New(), actor.RoleManager))
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}
