package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ListCommissionsRequest struct {
	Month string `form:"month" validate:"omitempty,datetime=2006-01"`
}

type CommissionResponse struct {
	ID               uuid.UUID       `json:"id"`
	OrderID          uuid.UUID       `json:"orderId"`
	OrderAmount      decimal.Decimal `json:"orderAmount"`
	CommissionAmount decimal.Decimal `json:"commissionAmount"`
	CalculationType  string          `json:"calculationType"`
	RateValue        decimal.Decimal `json:"rateValue"`
	MonthYear        string          `json:"monthYear"`
	Status           string          `json:"status"`
	PaidAt           *time.Time      `json:"paidAt,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

type CommissionListResponse struct {
	Month       string               `json:"month,omitempty"`
	Total       decimal.Decimal      `json:"total"`
	Commissions []CommissionResponse `json:"commissions"`
}

type RuleResponse struct {
	ID              uuid.UUID           `json:"id"`
	Name            string              `json:"name"`
	Type            string              `json:"type"`
	FixedAmount     decimal.Decimal     `json:"fixedAmount"`
	PercentageValue decimal.Decimal     `json:"percentageValue"`
	MinOrderValue   decimal.NullDecimal `json:"minOrderValue"`
	MaxOrderValue   decimal.NullDecimal `json:"maxOrderValue"`
	IsActive        bool                `json:"isActive"`
	IsDefault       bool                `json:"isDefault"`
}
