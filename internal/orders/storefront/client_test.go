package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"telesales_backend/platform/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder_SendsAuthorizedJSON(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, createPath, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":42}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "secret", logger.Nop())
	resp, err := client.CreateOrder(context.Background(), Order{
		OrderNumber:   "ORD-20250310-ABC123",
		CustomerName:  "Rahim",
		CustomerPhone: "8801921805176",
		Products:      []Product{{Name: "Tea", Quantity: 2, Price: decimal.RequireFromString("150.50")}},
		TotalAmount:   decimal.RequireFromString("301"),
		PaymentMethod: "cod",
	})
	require.NoError(t, err)

	assert.True(t, resp.OK())
	assert.JSONEq(t, `{"id":42}`, string(resp.Body))
	assert.Equal(t, "ORD-20250310-ABC123", got["order_number"])
	assert.Equal(t, "8801921805176", got["customer_phone"])
	assert.Equal(t, "301", got["total_amount"])
}

func TestCreateOrder_RejectionIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid products", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	resp, err := New(srv.URL, "secret", logger.Nop()).CreateOrder(context.Background(), Order{OrderNumber: "ORD-1"})
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "invalid products")
}

func TestCreateOrder_UnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := New(srv.URL, "secret", logger.Nop()).CreateOrder(context.Background(), Order{OrderNumber: "ORD-1"})
	assert.Error(t, err)
}
