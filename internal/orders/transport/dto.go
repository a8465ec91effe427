package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductRequest struct {
	Name     string          `json:"name" validate:"required,max=255"`
	Quantity int             `json:"quantity" validate:"required,min=1"`
	Price    decimal.Decimal `json:"price" validate:"money"`
}

type CreateOrderRequest struct {
	LeadID          uuid.UUID        `json:"leadId" validate:"required"`
	Products        []ProductRequest `json:"products" validate:"required,min=1,dive"`
	CustomerAddress string           `json:"customerAddress" validate:"required,max=1000"`
	PaymentMethod   string           `json:"paymentMethod" validate:"required,max=50"`
	OfferApplied    string           `json:"offerApplied,omitempty" validate:"max=255"`
	Notes           string           `json:"notes,omitempty" validate:"max=2000"`
}

type ListOrdersRequest struct {
	From string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" validate:"omitempty,datetime=2006-01-02"`
	Page int    `form:"page" validate:"omitempty,min=1"`
}

type ProductResponse struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type OrderResponse struct {
	ID               uuid.UUID         `json:"id"`
	OrderNumber      string            `json:"orderNumber"`
	LeadID           uuid.UUID         `json:"leadId"`
	Products         []ProductResponse `json:"products"`
	TotalAmount      decimal.Decimal   `json:"totalAmount"`
	CustomerAddress  string            `json:"customerAddress"`
	PaymentMethod    string            `json:"paymentMethod"`
	OfferApplied     *string           `json:"offerApplied,omitempty"`
	Notes            *string           `json:"notes,omitempty"`
	SyncedToMainSite bool              `json:"syncedToMainSite"`
	SyncedAt         *time.Time        `json:"syncedAt,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
}

type CommissionSummary struct {
	ID              uuid.UUID       `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	CalculationType string          `json:"calculationType"`
	MonthYear       string          `json:"monthYear"`
	Status          string          `json:"status"`
}

type CreateOrderResponse struct {
	Order      OrderResponse     `json:"order"`
	Commission CommissionSummary `json:"commission"`
}

type OrderListResponse struct {
	Items    []OrderResponse `json:"items"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}
