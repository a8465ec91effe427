package handler

import (
	"net/http"

	"telesales_backend/internal/calls/repository"
	"telesales_backend/internal/calls/service"
	"telesales_backend/internal/calls/transport"
	"telesales_backend/internal/shared/actor"
	"telesales_backend/platform/httpkit"
	"telesales_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.LogCall)
	rg.GET("/:leadId", h.ListForLead)
}

func (h *Handler) LogCall(c *gin.Context) {
	var req transport.LogCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
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

	call, err := h.svc.LogCall(c.Request.Context(), req.LeadID, id.UserID(), req.Outcome, req.Notes, req.DurationSeconds)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, toResponse(call))
}

func (h *Handler) ListForLead(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	calls, err := h.svc.ListForLead(c.Request.Context(), actor.FromIdentity(id), leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := make([]transport.CallLogResponse, 0, len(calls))
	for _, call := range calls {
		resp = append(resp, toResponse(call))
	}
	httpkit.OK(c, resp)
}

func toResponse(call repository.CallLog) transport.CallLogResponse {
	return transport.CallLogResponse{
		ID:              call.ID,
		LeadID:          call.LeadID,
		UserID:          call.UserID,
		Outcome:         call.Outcome,
		Notes:           call.Notes,
		DurationSeconds: call.DurationSeconds,
		CalledAt:        call.CalledAt,
	}
}
