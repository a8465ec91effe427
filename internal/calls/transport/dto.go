package transport

import (
	"time"

	"github.com/google/uuid"
)

type LogCallRequest struct {
	LeadID          uuid.UUID `json:"leadId" validate:"required"`
	Outcome         string    `json:"outcome" validate:"required,oneof=connected not_connected interested follow_up_scheduled converted wrong_number no_interest"`
	Notes           string    `json:"notes,omitempty" validate:"max=2000"`
	DurationSeconds int       `json:"durationSeconds" validate:"min=0,max=86400"`
}

type CallLogResponse struct {
	ID              uuid.UUID `json:"id"`
	LeadID          uuid.UUID `json:"leadId"`
	UserID          uuid.UUID `json:"userId"`
	Outcome         string    `json:"outcome"`
	Notes           *string   `json:"notes,omitempty"`
	DurationSeconds int       `json:"durationSeconds"`
	CalledAt        time.Time `json:"calledAt"`
}
