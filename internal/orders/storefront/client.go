// Package storefront posts converted orders to the main site's order API.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"telesales_backend/platform/logger"

	"github.com/shopspring/decimal"
)

const createPath = "/api/orders/create"

// maxBody caps how much of a response is kept for the order's sync record.
const maxBody = 64 << 10

type Product struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Order is the payload the main site expects.
type Order struct {
	OrderNumber     string          `json:"order_number"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   *string         `json:"customer_email"`
	CustomerPhone   string          `json:"customer_phone"`
	CustomerAddress string          `json:"customer_address"`
	Products        []Product       `json:"products"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaymentMethod   string          `json:"payment_method"`
	OfferApplied    *string         `json:"offer_applied"`
	Notes           *string         `json:"notes"`
}

// Response is the main site's reply.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the main site accepted the order.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        *logger.Logger
}

func New(baseURL, apiKey string, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		log:        log,
	}
}

// CreateOrder sends order to the main site. An error means the request never
// got a response; rejected orders come back as a non-OK Response.
func (c *Client) CreateOrder(ctx context.Context, order Order) (Response, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return Response{}, fmt.Errorf("encode order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+createPath, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("storefront request failed", "error", err, "order", order.OrderNumber)
		return Response{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	out := Response{StatusCode: resp.StatusCode, Body: body}
	if !out.OK() {
		c.log.Warn("storefront rejected order", "status", resp.StatusCode, "order", order.OrderNumber)
	}
	return out, nil
}
