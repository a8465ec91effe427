package handler

import (
	"net/http"

	"telesales_backend/internal/commissions/service"
	"telesales_backend/internal/commissions/transport"
	"telesales_backend/internal/shared/actor"
	"telesales_backend/platform/httpkit"
	"telesales_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListOwn)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/rules", h.Rules)
}

func (h *Handler) ListOwn(c *gin.Context) {
	var req transport.ListCommissionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	summary, err := h.svc.ListOwn(c.Request.Context(), actor.FromIdentity(id), req.Month)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.CommissionListResponse{
		Month:       summary.MonthYear,
		Total:       summary.Total,
		Commissions: make([]transport.CommissionResponse, 0, len(summary.Commissions)),
	}
	for _, item := range summary.Commissions {
		resp.Commissions = append(resp.Commissions, transport.CommissionResponse{
			ID:               item.ID,
			OrderID:          item.OrderID,
			OrderAmount:      item.OrderAmount,
			CommissionAmount: item.CommissionAmount,
			CalculationType:  item.CalculationType,
			RateValue:        item.RateValue,
			MonthYear:        item.MonthYear,
			Status:           item.Status,
			PaidAt:           item.PaidAt,
			CreatedAt:        item.CreatedAt,
		})
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Rules(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	rules, err := h.svc.Rules(c.Request.Context(), actor.FromIdentity(id))
	if httpkit.HandleError(c, err) {
		return
	}

	resp := make([]transport.RuleResponse, 0, len(rules))
	for _, r := range rules {
		resp = append(resp, transport.RuleResponse{
			ID:              r.ID,
			Name:            r.Name,
			Type:            r.Type,
			FixedAmount:     r.FixedAmount,
			PercentageValue: r.PercentageValue,
			MinOrderValue:   r.MinOrderValue,
			MaxOrderValue:   r.MaxOrderValue,
			IsActive:        r.IsActive,
			IsDefault:       r.IsDefault,
		})
	}
	httpkit.OK(c, resp)
}
