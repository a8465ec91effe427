package handler

import (
	"net/http"
	"time"

	"telesales_backend/internal/orders/repository"
	"telesales_backend/internal/orders/service"
	"telesales_backend/internal/orders/transport"
	"telesales_backend/internal/shared/actor"
	"telesales_backend/internal/shared/businessday"
	"telesales_backend/platform/httpkit"
	"telesales_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.ListOwn)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	products := make([]repository.Product, 0, len(req.Products))
	for _, p := range req.Products {
		products = append(products, repository.Product{Name: p.Name, Quantity: p.Quantity, Price: p.Price})
	}

	order, commission, err := h.svc.ConvertToOrder(c.Request.Context(), actor.FromIdentity(id), service.ConvertInput{
		LeadID:          req.LeadID,
		Products:        products,
		CustomerAddress: req.CustomerAddress,
		PaymentMethod:   req.PaymentMethod,
		OfferApplied:    req.OfferApplied,
		Notes:           req.Notes,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.CreateOrderResponse{
		Order: toResponse(order),
		Commission: transport.CommissionSummary{
			ID:              commission.ID,
			Amount:          commission.CommissionAmount,
			CalculationType: commission.CalculationType,
			MonthYear:       commission.MonthYear,
			Status:          commission.Status,
		},
	})
}

func (h *Handler) ListOwn(c *gin.Context) {
	var req transport.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	from, err := optionalDate(req.From)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	to, err := optionalDate(req.To)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	page := max(req.Page, 1)
	items, total, err := h.svc.ListOwn(c.Request.Context(), actor.FromIdentity(id), from, to, page)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.OrderListResponse{
		Items:    make([]transport.OrderResponse, 0, len(items)),
		Total:    total,
		Page:     page,
		PageSize: service.OwnPageSize,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, toResponse(item))
	}
	httpkit.OK(c, resp)
}

func optionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := businessday.ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func toResponse(o repository.Order) transport.OrderResponse {
	products := make([]transport.ProductResponse, 0, len(o.Products))
	for _, p := range o.Products {
		products = append(products, transport.ProductResponse{Name: p.Name, Quantity: p.Quantity, Price: p.Price})
	}
	return transport.OrderResponse{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		LeadID:           o.LeadID,
		Products:         products,
		TotalAmount:      o.TotalAmount,
		CustomerAddress:  o.CustomerAddress,
		PaymentMethod:    o.PaymentMethod,
		OfferApplied:     o.OfferApplied,
		Notes:            o.Notes,
		SyncedToMainSite: o.SyncedToMainSite,
		SyncedAt:         o.SyncedAt,
		CreatedAt:        o.CreatedAt,
	}
}
