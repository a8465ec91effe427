// Package domain provides core business rules for the leads bounded context.
package domain

// Lead statuses.
const (
	StatusNew           = "new"
	StatusAssigned      = "assigned"
	StatusCalled        = "called"
	StatusInterested    = "interested"
	StatusFollowUp      = "follow_up"
	StatusConverted     = "converted"
	StatusInvalid       = "invalid"
	StatusNotInterested = "not_interested"
)

// Quality tags.
const (
	QualityGood   = "good"
	QualityMedium = "medium"
	QualityPoor   = "poor"
)

// Lead sources.
const (
	SourceManual = "manual"
	SourceImport = "import"
)

var validStatuses = map[string]bool{
	StatusNew:           true,
	StatusAssigned:      true,
	StatusCalled:        true,
	StatusInterested:    true,
	StatusFollowUp:      true,
	StatusConverted:     true,
	StatusInvalid:       true,
	StatusNotInterested: true,
}

// terminalStatuses end the working life of a lead; its assignment completes.
var terminalStatuses = map[string]bool{
	StatusConverted:     true,
	StatusInvalid:       true,
	StatusNotInterested: true,
}

// IsValidStatus reports whether status is a known lead status.
func IsValidStatus(status string) bool {
	return validStatuses[status]
}

// IsTerminal returns true if no further calls are expected for the status.
func IsTerminal(status string) bool {
	return terminalStatuses[status]
}

// IsAssignable reports whether a lead in status may be handed to an agent
// by a manual override.
func IsAssignable(status string) bool {
	return status == StatusNew || status == StatusAssigned
}

// IsDistributionOwned reports whether status is only ever set by assignment
// and recycling. Direct status edits may not move a lead into or out of these.
func IsDistributionOwned(status string) bool {
	return status == StatusNew || status == StatusAssigned
}

// IsValidQualityTag reports whether tag is a known quality tag.
func IsValidQualityTag(tag string) bool {
	return tag == QualityGood || tag == QualityMedium || tag == QualityPoor
}
