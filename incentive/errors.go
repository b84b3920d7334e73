/*
errors.go - Centralized error taxonomy for the incentive workflow

PURPOSE:
  All error types in one place. Callers branch with errors.Is against the
  sentinels; the structured types carry enough context for an API layer to
  build a useful response (current status, offending field, required role).

ERROR CATEGORIES:
  1. Input errors      - malformed percentages/amounts/remarks
  2. Transition errors - operation not legal from the current status
  3. Authorization     - actor role does not match the operation
  4. Concurrency       - optimistic version check failed
  5. Lookup            - no record for the given lead

USAGE:
  if errors.Is(err, incentive.ErrInvalidTransition) {
      var te *incentive.TransitionError
      errors.As(err, &te) // te.From is the status the record is stuck at
  }

SEE ALSO:
  - service.go: Produces these errors; never retries on its own
  - machine.go: Source of transition/authorization failures
*/
package incentive

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned for malformed percentages, amounts, or
	// empty remark text. No record mutation occurs.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition is returned when an operation is not legal from
	// the record's current status. The record is left unchanged.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrForbidden is returned when the actor's role does not match the
	// role required by the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when the optimistic version check failed:
	// the record changed since the caller last read it. Re-fetch and retry.
	ErrConflict = errors.New("conflict: record changed since last read")

	// ErrNotFound is returned when no incentive record exists for the lead.
	ErrNotFound = errors.New("incentive record not found")

	// ErrDuplicateRecord is returned when creating a record for a lead that
	// already has one.
	ErrDuplicateRecord = errors.New("incentive record already exists for lead")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InputError reports which input was rejected and why.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// TransitionError reports an operation attempted from an illegal status.
// From is surfaced to callers so a client can refresh its view.
type TransitionError struct {
	Op   Operation
	From Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s from status %q", e.Op, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// ForbiddenError reports a role mismatch for an operation.
type ForbiddenError struct {
	Op       Operation
	Role     Role
	Required Role
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("%s requires role %q, caller has %q", e.Op, e.Required, e.Role)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry after a
// re-fetch. Retrying is a caller decision; the workflow never retries itself.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsClientError returns true if the error is due to invalid caller input
// rather than system failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrDuplicateRecord)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
