// Package calculator derives the commission payable on an order.
package calculator

import (
	"telesales_backend/internal/commissions/repository"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Quote is the computed commission together with the rule snapshot stored
// alongside it.
type Quote struct {
	Amount    decimal.Decimal
	Type      string
	RateValue decimal.Decimal
}

type Calculator struct {
	fallback decimal.Decimal
}

// New creates a calculator paying fallback when no rule applies.
func New(fallback decimal.Decimal) *Calculator {
	return &Calculator{fallback: fallback}
}

// Calculate applies rule to orderAmount. A nil rule pays the fixed fallback.
func (c *Calculator) Calculate(rule *repository.Rule, orderAmount decimal.Decimal) Quote {
	if rule == nil {
		return Quote{
			Amount:    c.fallback.Round(2),
			Type:      repository.TypeFixed,
			RateValue: c.fallback,
		}
	}

	share := orderAmount.Mul(rule.PercentageValue).Div(hundred)
	var amount decimal.Decimal
	switch rule.Type {
	case repository.TypePercentage:
		amount = share
	case repository.TypeHybrid:
		amount = rule.FixedAmount.Add(share)
	default:
		amount = rule.FixedAmount
	}

	rate := rule.FixedAmount
	if rule.Type == repository.TypePercentage {
		rate = rule.PercentageValue
	}
	return Quote{Amount: amount.Round(2), Type: rule.Type, RateValue: rate}
}
