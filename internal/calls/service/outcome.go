package service

import "telesales_backend/internal/leads/domain"

// Call outcomes an agent can record.
const (
	OutcomeConnected         = "connected"
	OutcomeNotConnected      = "not_connected"
	OutcomeInterested        = "interested"
	OutcomeFollowUpScheduled = "follow_up_scheduled"
	OutcomeConverted         = "converted"
	OutcomeWrongNumber       = "wrong_number"
	OutcomeNoInterest        = "no_interest"
)

var outcomeStatus = map[string]string{
	OutcomeConnected:         domain.StatusCalled,
	OutcomeNotConnected:      domain.StatusCalled,
	OutcomeInterested:        domain.StatusInterested,
	OutcomeFollowUpScheduled: domain.StatusFollowUp,
	OutcomeConverted:         domain.StatusConverted,
	OutcomeWrongNumber:       domain.StatusInvalid,
	OutcomeNoInterest:        domain.StatusNotInterested,
}

// StatusFor maps an outcome to the lead status it produces.
func StatusFor(outcome string) (string, bool) {
	status, ok := outcomeStatus[outcome]
	return status, ok
}
