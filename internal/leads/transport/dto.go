package transport

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs
type CreateLeadRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=200"`
	Phone      string `json:"phone" validate:"required,phone"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Address    string `json:"address,omitempty" validate:"max=500"`
	City       string `json:"city,omitempty" validate:"max=100"`
	State      string `json:"state,omitempty" validate:"max=100"`
	ZipCode    string `json:"zipCode,omitempty" validate:"max=20"`
	Notes      string `json:"notes,omitempty" validate:"max=2000"`
	QualityTag string `json:"qualityTag,omitempty" validate:"omitempty,oneof=good medium poor"`
}

type UpdateStatusRequest struct {
	Status     string  `json:"status" validate:"required,oneof=new assigned called interested follow_up converted invalid not_interested"`
	QualityTag *string `json:"qualityTag,omitempty" validate:"omitempty,oneof=good medium poor"`
}

type ListLeadsRequest struct {
	Status     string `form:"status" validate:"omitempty,oneof=new assigned called interested follow_up converted invalid not_interested"`
	AssignedTo string `form:"assignedTo" validate:"omitempty,uuid"`
	BatchID    string `form:"batchId" validate:"omitempty,uuid"`
	Phone      string `form:"phone" validate:"max=30"`
	Search     string `form:"search" validate:"max=100"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type ImportRow struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	ZipCode    string `json:"zipCode,omitempty"`
	Notes      string `json:"notes,omitempty"`
	QualityTag string `json:"qualityTag,omitempty"`
}

// ImportLeadsRequest carries rows already parsed from a spreadsheet. Rows are
// validated one by one during import so a bad row is reported, not rejected.
type ImportLeadsRequest struct {
	FileName string      `json:"fileName" validate:"max=255"`
	Rows     []ImportRow `json:"rows" validate:"required,min=1,max=5000"`
}

// Response DTOs
type LeadResponse struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone,omitempty"`
	PhoneLast4   string     `json:"phoneLast4"`
	Email        *string    `json:"email,omitempty"`
	Address      string     `json:"address,omitempty"`
	City         string     `json:"city,omitempty"`
	State        string     `json:"state,omitempty"`
	ZipCode      string     `json:"zipCode,omitempty"`
	Source       string     `json:"source"`
	Notes        *string    `json:"notes,omitempty"`
	Status       string     `json:"status"`
	QualityTag   *string    `json:"qualityTag,omitempty"`
	AssignedTo   *uuid.UUID `json:"assignedTo,omitempty"`
	BatchID      *uuid.UUID `json:"batchId,omitempty"`
	IsLocked     bool       `json:"isLocked"`
	CallCount    int        `json:"callCount"`
	LastCalledAt *time.Time `json:"lastCalledAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

type DuplicateCheckResponse struct {
	IsDuplicate  bool          `json:"isDuplicate"`
	ExistingLead *LeadResponse `json:"existingLead,omitempty"`
}
