package handler

import (
	"context"
	"net/http"
	"time"

	"telesales_backend/internal/assignments/distribution"
	"telesales_backend/internal/assignments/recycling"
	"telesales_backend/internal/assignments/stats"
	"telesales_backend/internal/assignments/transport"
	leadrepo "telesales_backend/internal/leads/repository"
	"telesales_backend/internal/shared/actor"
	"telesales_backend/internal/shared/businessday"
	"telesales_backend/platform/httpkit"
	"telesales_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// PhoneRevealer decodes a lead's number for the agent working it.
type PhoneRevealer interface {
	RevealPhone(ctx context.Context, lead leadrepo.Lead) string
}

type Handler struct {
	distribution *distribution.Service
	recycling    *recycling.Service
	stats        *stats.Service
	phones       PhoneRevealer
	cal          *businessday.Calendar
	val          *validator.Validator
}

func New(dist *distribution.Service, rec *recycling.Service, st *stats.Service, phones PhoneRevealer, cal *businessday.Calendar, val *validator.Validator) *Handler {
	return &Handler{distribution: dist, recycling: rec, stats: st, phones: phones, cal: cal, val: val}
}

// RegisterAdminRoutes mounts the manager-only endpoints.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/auto-distribute", h.AutoDistribute)
	rg.POST("/manual-assign", h.ManualAssign)
	rg.POST("/recycle", h.Recycle)
	rg.GET("/stats", h.Stats)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/today", h.TodayLeads)
}

func (h *Handler) AutoDistribute(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	result, err := h.distribution.AutoDistribute(c.Request.Context(), actor.FromIdentity(id))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) ManualAssign(c *gin.Context) {
	var req transport.ManualAssignRequest
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

	result, err := h.distribution.ManualAssign(c.Request.Context(), req.LeadIDs, req.AgentID, actor.FromIdentity(id))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Recycle(c *gin.Context) {
	var req transport.RecycleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	asOf := h.cal.Today()
	if req.AsOf != "" {
		parsed, err := businessday.ParseDate(req.AsOf)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
			return
		}
		asOf = parsed
	}

	recycled, err := h.recycling.Recycle(c.Request.Context(), asOf)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.RecycleResponse{AsOf: asOf.Format(time.DateOnly), Recycled: recycled})
}

func (h *Handler) Stats(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	result, err := h.stats.Stats(c.Request.Context(), actor.FromIdentity(id))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) TodayLeads(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	agentID := id.UserID()
	if raw := c.Query("agentId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		agentID = parsed
	}

	items, err := h.stats.TodayLeads(c.Request.Context(), actor.FromIdentity(id), agentID)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := make([]transport.TodayLeadResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, transport.TodayLeadResponse{
			AssignmentID:     item.Assignment.ID,
			AssignmentStatus: item.Assignment.Status,
			IsAutoAssigned:   item.Assignment.IsAutoAssigned,
			LeadID:           item.Lead.ID,
			Name:             item.Lead.Name,
			Phone:            h.phones.RevealPhone(c.Request.Context(), item.Lead),
			City:             item.Lead.City,
			Status:           item.Lead.Status,
			QualityTag:       item.Lead.QualityTag,
			CallCount:        item.Lead.CallCount,
			LastCalledAt:     item.Lead.LastCalledAt,
		})
	}
	httpkit.OK(c, resp)
}
