// Package service records commissions for converted orders and serves an
// agent's own commission history.
package service

import (
	"context"
	"errors"
	"time"

	"telesales_backend/internal/commissions/calculator"
	"telesales_backend/internal/commissions/repository"
	"telesales_backend/internal/shared/actor"
	"telesales_backend/internal/shared/businessday"
	"telesales_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const monthLayout = "2006-01"

// Tx is the part of the order transaction the commission is written in.
type Tx interface {
	DefaultRule(ctx context.Context) (repository.Rule, error)
	InsertCommission(ctx context.Context, p repository.InsertCommissionParams) (repository.Commission, error)
}

type Store interface {
	ListForUser(ctx context.Context, userID uuid.UUID, monthYear string) ([]repository.Commission, error)
	ListRules(ctx context.Context) ([]repository.Rule, error)
}

// ConvertedOrder is what the calculation needs to know about an order.
type ConvertedOrder struct {
	ID          uuid.UUID
	AgentID     uuid.UUID
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
}

type Service struct {
	store Store
	calc  *calculator.Calculator
	cal   *businessday.Calendar
}

func New(store Store, calc *calculator.Calculator, cal *businessday.Calendar) *Service {
	return &Service{store: store, calc: calc, cal: cal}
}

// OnOrderConverted writes the pending commission for order inside tx, using
// the active default rule or the fallback when there is none.
func (s *Service) OnOrderConverted(ctx context.Context, tx Tx, order ConvertedOrder) (repository.Commission, error) {
	var rule *repository.Rule
	found, err := tx.DefaultRule(ctx)
	switch {
	case err == nil:
		rule = &found
	case !errors.Is(err, repository.ErrRuleNotFound):
		return repository.Commission{}, err
	}

	quote := s.calc.Calculate(rule, order.TotalAmount)
	return tx.InsertCommission(ctx, repository.InsertCommissionParams{
		UserID:           order.AgentID,
		OrderID:          order.ID,
		OrderAmount:      order.TotalAmount,
		CommissionAmount: quote.Amount,
		CalculationType:  quote.Type,
		RateValue:        quote.RateValue,
		MonthYear:        s.cal.DateOf(order.CreatedAt).Format(monthLayout),
	})
}

// Summary is an agent's commission list with its total.
type Summary struct {
	MonthYear   string
	Total       decimal.Decimal
	Commissions []repository.Commission
}

// ListOwn returns the caller's commissions, optionally for one "2006-01" month.
func (s *Service) ListOwn(ctx context.Context, a actor.Actor, monthYear string) (Summary, error) {
	if a.ID == uuid.Nil {
		return Summary{}, apperr.Forbidden("commissions belong to a user")
	}
	if monthYear != "" {
		if _, err := time.Parse(monthLayout, monthYear); err != nil {
			return Summary{}, apperr.Validation("month must be YYYY-MM")
		}
	}

	items, err := s.store.ListForUser(ctx, a.ID, monthYear)
	if err != nil {
		return Summary{}, err
	}

	total := decimal.Zero
	for _, c := range items {
		total = total.Add(c.CommissionAmount)
	}
	return Summary{MonthYear: monthYear, Total: total, Commissions: items}, nil
}

// Rules lists every commission rule for managers.
func (s *Service) Rules(ctx context.Context, a actor.Actor) ([]repository.Rule, error) {
	if !a.CanDistribute() {
		return nil, apperr.Forbidden("only managers can view commission rules")
	}
	return s.store.ListRules(ctx)
}
