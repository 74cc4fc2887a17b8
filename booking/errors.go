/*
errors.go - Centralized error types for the booking engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Engine packages wrap these with additional context; the API boundary
  translates them into structured responses.

ERROR CATEGORIES:
  1. Request errors - malformed or contradictory purchase requests
  2. Capacity/limit errors - seat inventory and promotion caps
  3. Payment errors - gateway declines
  4. Internal errors - invariant violations at commit time

USAGE:
  if errors.Is(err, booking.ErrInsufficientCapacity) {
      // all partial reservations were already released
  }
*/
package booking

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidArgument is returned for malformed or contradictory purchase
	// requests, rejected before any reservation is made.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInsufficientCapacity is returned when a seat reservation cannot be
	// satisfied. Partial reservations are released by the caller.
	ErrInsufficientCapacity = errors.New("insufficient capacity")

	// ErrCriteriaNotMet is returned when no ticket in a purchase satisfies a
	// promotion's qualifying criteria.
	ErrCriteriaNotMet = errors.New("promotion criteria not met")

	// ErrUsageLimitExceeded is returned when applying a promotion would
	// exceed its per-user or global cap.
	ErrUsageLimitExceeded = errors.New("promotion usage limit exceeded")

	// ErrPaymentDeclined is returned when the external gateway declines a
	// charge. The message shown to users is sanitized.
	ErrPaymentDeclined = errors.New("payment declined")

	// ErrImbalancedTransaction is returned when debits and credits do not
	// balance at commit. Fatal internal-consistency error, not user-retriable.
	ErrImbalancedTransaction = errors.New("imbalanced transaction")

	// ErrAlreadyCommitted is returned when modifying a committed transaction.
	ErrAlreadyCommitted = errors.New("transaction already committed")

	// ErrReservationConsumed is returned when releasing or finalizing a
	// reservation that was already released or finalized.
	ErrReservationConsumed = errors.New("reservation already consumed")

	// ErrForbidden is returned when a session token does not match the one
	// stored against the transaction.
	ErrForbidden = errors.New("forbidden")

	ErrTripNotFound        = errors.New("trip not found")
	ErrPromotionNotFound   = errors.New("promotion not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrTicketNotFound      = errors.New("ticket not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// CapacityError reports a reservation that could not be satisfied.
type CapacityError struct {
	TripID    TripID
	Requested int
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("insufficient capacity on trip %s: requested %d, available %d",
		e.TripID, e.Requested, e.Available)
}

func (e *CapacityError) Unwrap() error { return ErrInsufficientCapacity }

// UsageLimitError reports which cap a promotion application would exceed.
type UsageLimitError struct {
	PromotionID PromotionID
	Scope       string // "per_user" or "global"
	Cap         int
}

func (e *UsageLimitError) Error() string {
	return fmt.Sprintf("promotion %s %s cap of %d exhausted", e.PromotionID, e.Scope, e.Cap)
}

func (e *UsageLimitError) Unwrap() error { return ErrUsageLimitExceeded }

// ImbalancedError reports the exact imbalance detected at commit.
type ImbalancedError struct {
	TransactionID TransactionID
	Debit         Money
	Credit        Money
}

func (e *ImbalancedError) Error() string {
	return fmt.Sprintf("transaction %s does not balance: debit %s, credit %s",
		e.TransactionID, e.Debit, e.Credit)
}

func (e *ImbalancedError) Unwrap() error { return ErrImbalancedTransaction }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to the client's request.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrInsufficientCapacity) ||
		errors.Is(err, ErrUsageLimitExceeded) ||
		errors.Is(err, ErrPaymentDeclined) ||
		errors.Is(err, ErrForbidden)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTripNotFound) ||
		errors.Is(err, ErrPromotionNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrTicketNotFound)
}

// IsFatal returns true for internal invariant violations that must alert
// operators rather than be retried by the caller.
func IsFatal(err error) bool {
	return errors.Is(err, ErrImbalancedTransaction)
}
