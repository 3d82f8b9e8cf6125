package models

import "time"

// Violation source categories. HPD and DOB feed the distress score; other
// categories count toward display totals only.
const (
	ViolationTypeHPD = "HPD"
	ViolationTypeDOB = "DOB"
)

// Violation statuses.
const (
	ViolationStatusOpen   = "Open"
	ViolationStatusClosed = "Closed"
)

// Violation represents a code-enforcement violation against a property.
// Keyed by (bbl, violation_id); violation IDs are namespaced by source
// system, so the composite key is required for uniqueness.
type Violation struct {
	BBL           string     `json:"bbl"`
	ViolationID   string     `json:"violation_id"`
	ViolationType string     `json:"violation_type"`
	Status        string     `json:"status"`
	IssueDate     *time.Time `json:"issue_date,omitempty"`
	Description   *string    `json:"description,omitempty"`
}

// IsOpen reports whether the violation is still code-enforced.
func (v *Violation) IsOpen() bool {
	return v.Status == ViolationStatusOpen
}
