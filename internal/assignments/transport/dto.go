package transport

import (
	"time"

	"github.com/google/uuid"
)

type ManualAssignRequest struct {
	LeadIDs []uuid.UUID `json:"leadIds" validate:"required,min=1,max=500"`
	AgentID uuid.UUID   `json:"agentId" validate:"required"`
}

type RecycleRequest struct {
	AsOf string `json:"asOf,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type RecycleResponse struct {
	AsOf     string `json:"asOf"`
	Recycled int    `json:"recycled"`
}

type TodayLeadResponse struct {
	AssignmentID     uuid.UUID  `json:"assignmentId"`
	AssignmentStatus string     `json:"assignmentStatus"`
	IsAutoAssigned   bool       `json:"isAutoAssigned"`
	LeadID           uuid.UUID  `json:"leadId"`
	Name             string     `json:"name"`
	Phone            string     `json:"phone,omitempty"`
	City             string     `json:"city,omitempty"`
	Status           string     `json:"status"`
	QualityTag       *string    `json:"qualityTag,omitempty"`
	CallCount        int        `json:"callCount"`
	LastCalledAt     *time.Time `json:"lastCalledAt,omitempty"`
}
