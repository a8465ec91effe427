package handler

import (
	"net/http"

	"telesales_backend/internal/leads/importing"
	"telesales_backend/internal/leads/management"
	"telesales_backend/internal/leads/repository"
	"telesales_backend/internal/leads/transport"
	"telesales_backend/internal/shared/actor"
	"telesales_backend/platform/httpkit"
	"telesales_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	mgmt     *management.Service
	importer *importing.Service
	val      *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	defaultPageSize     = 20
)

func New(mgmt *management.Service, importer *importing.Service, val *validator.Validator) *Handler {
	return &Handler{mgmt: mgmt, importer: importer, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/check-duplicate", h.CheckDuplicate)
	rg.POST("/imports", h.Import)
	rg.GET("/:id", h.GetByID)
	rg.PATCH("/:id/status", h.UpdateStatus)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
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

	lead, err := h.mgmt.CreateLead(c.Request.Context(), actor.FromIdentity(id), management.CreateLeadInput{
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Address:    req.Address,
		City:       req.City,
		State:      req.State,
		ZipCode:    req.ZipCode,
		Notes:      req.Notes,
		QualityTag: req.QualityTag,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, h.toResponse(c, lead))
}

func (h *Handler) GetByID(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	lead, err := h.mgmt.GetByID(c.Request.Context(), actor.FromIdentity(id), leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, h.toResponse(c, lead))
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListLeadsRequest
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

	params := repository.ListParams{
		Status:   req.Status,
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.AssignedTo != "" {
		agentID := uuid.MustParse(req.AssignedTo)
		params.AssignedTo = &agentID
	}
	if req.BatchID != "" {
		batchID := uuid.MustParse(req.BatchID)
		params.BatchID = &batchID
	}
	if req.Phone != "" {
		params.PhoneLast4, params.PhoneFirst4 = h.mgmt.PhoneFilter(req.Phone)
	}

	leads, total, err := h.mgmt.List(c.Request.Context(), actor.FromIdentity(id), params)
	if httpkit.HandleError(c, err) {
		return
	}

	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, h.toResponse(c, lead))
	}
	httpkit.OK(c, transport.LeadListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	})
}

func (h *Handler) CheckDuplicate(c *gin.Context) {
	phone := c.Query("phone")
	if err := h.val.Var(phone, "required,phone"); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	existing, err := h.mgmt.FindDuplicate(c.Request.Context(), phone)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.DuplicateCheckResponse{IsDuplicate: existing != nil}
	// agents learn that a number is taken, not whose lead it is
	if existing != nil && actor.FromIdentity(id).CanDistribute() {
		lead := h.toResponse(c, *existing)
		resp.ExistingLead = &lead
	}
	httpkit.OK(c, resp)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateStatusRequest
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

	lead, err := h.mgmt.UpdateStatus(c.Request.Context(), actor.FromIdentity(id), leadID, req.Status, req.QualityTag)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, h.toResponse(c, lead))
}

func (h *Handler) Import(c *gin.Context) {
	var req transport.ImportLeadsRequest
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
	a := actor.FromIdentity(id)
	if !a.CanDistribute() {
		httpkit.Error(c, http.StatusForbidden, "forbidden", nil)
		return
	}

	rows := make([]importing.Row, len(req.Rows))
	for i, row := range req.Rows {
		rows[i] = importing.Row(row)
	}

	report, err := h.importer.Import(c.Request.Context(), a, req.FileName, rows)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, report)
}

func (h *Handler) toResponse(c *gin.Context, lead repository.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:           lead.ID,
		Name:         lead.Name,
		Phone:        h.mgmt.RevealPhone(c.Request.Context(), lead),
		PhoneLast4:   lead.PhoneLast4,
		Email:        lead.Email,
		Address:      lead.Address,
		City:         lead.City,
		State:        lead.State,
		ZipCode:      lead.ZipCode,
		Source:       lead.Source,
		Notes:        lead.Notes,
		Status:       lead.Status,
		QualityTag:   lead.QualityTag,
		AssignedTo:   lead.AssignedTo,
		BatchID:      lead.BatchID,
		IsLocked:     lead.IsLocked,
		CallCount:    lead.CallCount,
		LastCalledAt: lead.LastCalledAt,
		CreatedAt:    lead.CreatedAt,
		UpdatedAt:    lead.UpdatedAt,
	}
}
