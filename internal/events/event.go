// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"telesales_backend/platform/events"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Re-export platform types for convenience
type (
	Event        = events.Event
	Bus          = events.Bus
	Publisher    = events.Publisher
	NopPublisher = events.NopPublisher
	Handler      = events.Handler
	HandlerFunc  = events.HandlerFunc
	BaseEvent    = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published after a lead passes deduplication and is stored.
type LeadCreated struct {
	BaseEvent
	LeadID    uuid.UUID  `json:"leadId"`
	Source    string     `json:"source"`
	BatchID   *uuid.UUID `json:"batchId,omitempty"`
	CreatedBy *uuid.UUID `json:"createdBy,omitempty"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadImportCompleted is published when an import batch finishes.
type LeadImportCompleted struct {
	BaseEvent
	BatchID    uuid.UUID `json:"batchId"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	Duplicates int       `json:"duplicates"`
}

func (e LeadImportCompleted) EventName() string { return "leads.import.completed" }

// =============================================================================
// Assignment Domain Events
// =============================================================================

// LeadAssigned is published for every assignment created by distribution or override.
type LeadAssigned struct {
	BaseEvent
	LeadID       uuid.UUID  `json:"leadId"`
	AgentID      uuid.UUID  `json:"agentId"`
	AssignedDate time.Time  `json:"assignedDate"`
	Automatic    bool       `json:"automatic"`
	AssignedBy   *uuid.UUID `json:"assignedBy,omitempty"`
}

func (e LeadAssigned) EventName() string { return "assignments.lead.assigned" }

// LeadRecycled is published when a stale pending assignment is reclaimed.
type LeadRecycled struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	AgentID      uuid.UUID `json:"agentId"`
	AssignmentID uuid.UUID `json:"assignmentId"`
	AssignedDate time.Time `json:"assignedDate"`
}

func (e LeadRecycled) EventName() string { return "assignments.lead.recycled" }

// =============================================================================
// Call Domain Events
// =============================================================================

// CallLogged is published after a call outcome has been applied to a lead.
type CallLogged struct {
	BaseEvent
	CallID    uuid.UUID `json:"callId"`
	LeadID    uuid.UUID `json:"leadId"`
	AgentID   uuid.UUID `json:"agentId"`
	Outcome   string    `json:"outcome"`
	NewStatus string    `json:"newStatus"`
	Terminal  bool      `json:"terminal"`
}

func (e CallLogged) EventName() string { return "calls.call.logged" }

// =============================================================================
// Order Domain Events
// =============================================================================

// OrderConverted is published once an order and its commission are committed.
type OrderConverted struct {
	BaseEvent
	OrderID          uuid.UUID       `json:"orderId"`
	OrderNumber      string          `json:"orderNumber"`
	LeadID           uuid.UUID       `json:"leadId"`
	AgentID          uuid.UUID       `json:"agentId"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	CommissionAmount decimal.Decimal `json:"commissionAmount"`
}

func (e OrderConverted) EventName() string { return "orders.order.converted" }
