package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/valter-silva-au/agent-session/pkg/models"
)

// ErrorType classifies a structured rejection from the update pipeline.
type ErrorType string

const (
	ErrorCorruptState      ErrorType = "corrupt_state"
	ErrorStaleVersion      ErrorType = "stale_version"
	ErrorWaitingOnLock     ErrorType = "waiting_on_lock"
	ErrorValidationFailed  ErrorType = "plan_validation_failed"
	ErrorTaskNotFound      ErrorType = "task_not_found"
	ErrorSignalAlreadyOpen ErrorType = "signal_already_open"
	ErrorSignalNotFound    ErrorType = "signal_not_found"
)

// Signal ledger sentinels.
var (
	ErrSignalAlreadyOpen = errors.New("signal already open")
	ErrSignalNotFound    = errors.New("no open signal with that id")
)

// RejectedError is a structured rejection of a whole batch: nothing was
// applied, and every violation found is reported together so the caller can
// fix the batch in one round-trip.
type RejectedError struct {
	Type       ErrorType
	Violations []models.Violation
	Details    []string
	Err        error
}

func (e *RejectedError) Error() string {
	parts := []string{string(e.Type)}
	for _, v := range e.Violations {
		parts = append(parts, v.Message)
	}
	parts = append(parts, e.Details...)
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// AsRejected extracts a RejectedError from an error chain.
func AsRejected(err error) (*RejectedError, bool) {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected, true
	}
	return nil, false
}

func rejected(errType ErrorType, err error, details ...string) *RejectedError {
	return &RejectedError{Type: errType, Details: details, Err: err}
}

func rejectedViolations(violations []models.Violation) *RejectedError {
	return &RejectedError{
		Type:       ErrorValidationFailed,
		Violations: violations,
		Err:        fmt.Errorf("%d violation(s)", len(violations)),
	}
}
