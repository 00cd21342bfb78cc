/*
errors.go - Centralized error taxonomy for the vacation engine

PURPOSE:
  All caller-visible error kinds in one place. Callers branch on these with
  errors.Is / errors.As instead of string-matching messages.

ERROR CATEGORIES:
  1. Validation errors - bad date ranges, past dates
  2. Business rule violations - overlaps, insufficient balance, re-review
  3. Lookup/authorization errors - not found, forbidden
  4. Internal failures - wrapped storage/dependency errors

USAGE:
  if errors.Is(err, vacation.ErrOverlappingRequest) { ... }

  var shortage *vacation.InsufficientBalanceError
  if errors.As(err, &shortage) {
      fmt.Println(shortage.Shortfall)
  }
*/
package vacation

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDateRange is returned when end precedes start, or when the
	// range contains zero business days under the active policy.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrPastDate is returned when the start date precedes the current date.
	ErrPastDate = errors.New("start date is in the past")

	// ErrOverlappingRequest is returned when the range conflicts with an
	// existing pending or approved request of the same user.
	ErrOverlappingRequest = errors.New("overlapping request")

	// ErrInsufficientBalance is returned when the requested days exceed the
	// user's remaining balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAlreadyReviewed is returned when a review or cancellation targets a
	// request that already left the pending state.
	ErrAlreadyReviewed = errors.New("request already reviewed")

	// ErrNotFound is returned when a referenced user or request doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller doesn't own the request or
	// lacks the role an operation requires.
	ErrForbidden = errors.New("forbidden")

	// ErrInternal wraps unexpected failures from storage or other
	// dependencies, so callers can branch on the taxonomy above without ever
	// seeing raw infrastructure errors.
	ErrInternal = errors.New("internal failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError reports a balance shortage in detail.
type InsufficientBalanceError struct {
	UserID    UserID
	Requested Days
	Available Days
	Shortfall Days
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %s, available %s, shortfall %s",
		e.Requested, e.Available, e.Shortfall)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// OverlapError identifies the existing request that conflicts.
type OverlapError struct {
	UserID        UserID
	ConflictingID RequestID
	Start, End    Date
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("overlapping request: conflicts with %s (%s to %s)",
		e.ConflictingID, e.Start, e.End)
}

func (e *OverlapError) Unwrap() error { return ErrOverlappingRequest }

// AlreadyReviewedError carries the request's current terminal status.
type AlreadyReviewedError struct {
	RequestID RequestID
	Status    Status
}

func (e *AlreadyReviewedError) Error() string {
	return fmt.Sprintf("request %s already reviewed: status is %s", e.RequestID, e.Status)
}

func (e *AlreadyReviewedError) Unwrap() error { return ErrAlreadyReviewed }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// internal wraps a dependency failure so it surfaces as ErrInternal. The
// underlying error text is preserved for logs but not for errors.Is matching.
func internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}

// IsClientError reports whether the error is due to invalid caller input or
// a business rule violation, as opposed to an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrPastDate) ||
		errors.Is(err, ErrOverlappingRequest) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrAlreadyReviewed) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrForbidden)
}
