package admission

import (
	"fmt"
	"strings"
)

// ValidationError reports malformed input: a bad academic-year label, a bad policy rule,
// or an applicant field needed for classification that is missing or invalid
type ValidationError struct {
	ApplicantID string
	Field       string
	Reason      string
}

func (e *ValidationError) Error() string {
	if e.ApplicantID != "" {
		return fmt.Sprintf("validation failed for applicant %s: %s %s", e.ApplicantID, e.Field, e.Reason)
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// NotFoundError reports a missing batch-level resource such as an admission period
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports that another commit run holds the period
type ConflictError struct {
	PeriodID string
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting acceptance run for period %s: %s", e.PeriodID, e.Reason)
}

// CommitError reports a write-back that was rolled back. No applicant of the batch was updated.
type CommitError struct {
	PeriodID           string
	FailedApplicantIDs []string
	Err                error
}

func (e *CommitError) Error() string {
	if len(e.FailedApplicantIDs) == 0 {
		return fmt.Sprintf("acceptance commit for period %s rolled back: %v", e.PeriodID, e.Err)
	}
	return fmt.Sprintf("acceptance commit for period %s rolled back, failed applicants [%s]: %v",
		e.PeriodID, strings.Join(e.FailedApplicantIDs, ", "), e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}
