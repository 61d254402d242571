package db

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a requested row does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when another commit for the same period holds the database lock
	ErrConflict = errors.New("conflicting acceptance run in progress")
)

// ApplyError reports applicants whose write-back failed. The whole run was rolled back.
type ApplyError struct {
	FailedApplicantIDs []string
	Err                error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("failed to update applicants [%s]: %v", strings.Join(e.FailedApplicantIDs, ", "), e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}
