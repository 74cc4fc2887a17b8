/*
Package inventory provides the seat-inventory ledger.

PURPOSE:
  Wraps the trip store's atomic seat operations with reservation handles.
  Capacity is decremented at Reserve time; the handle then tracks whether
  the reservation was consumed (Finalize) or unwound (Release), so a
  reservation can never be released twice.

INVARIANT:
  A trip's available seat count never goes below zero and issued seats
  never exceed capacity, under any interleaving of concurrent purchases.
  The store's compare-and-decrement is the sole serialization point; this
  package never reads the count and writes it back.

LIFECYCLE:
  Reserve  -> seats decremented, handle Held
  Release  -> seats restored, handle Released (purchase aborted)
  Finalize -> no capacity change, handle Finalized (purchase committed)

SEE ALSO:
  - booking/store.go: TripStore.ReserveSeats / RestoreSeats contracts
  - checkout: the orchestrator holding reservations across the gateway call
*/
package inventory

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/transitline/booking-engine/booking"
)

// =============================================================================
// RESERVATION HANDLE
// =============================================================================

const (
	stateHeld int32 = iota
	stateReleased
	stateFinalized
)

// Reservation is a handle to seats already decremented from a trip.
type Reservation struct {
	ID       string
	TripID   booking.TripID
	Quantity int

	state int32
}

// Held reports whether the reservation is still outstanding.
func (r *Reservation) Held() bool { return atomic.LoadInt32(&r.state) == stateHeld }

// Finalized reports whether the reservation was consumed by a commit.
func (r *Reservation) Finalized() bool { return atomic.LoadInt32(&r.state) == stateFinalized }

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	trips booking.TripStore
}

func NewLedger(trips booking.TripStore) *Ledger {
	return &Ledger{trips: trips}
}

// Reserve atomically decrements the trip's available seats by quantity and
// returns a handle. Fails with a CapacityError (wrapping
// booking.ErrInsufficientCapacity) when fewer seats remain; capacity is
// untouched in that case.
func (l *Ledger) Reserve(ctx context.Context, tripID booking.TripID, quantity int) (*Reservation, error) {
	if quantity <= 0 {
		return nil, booking.ErrInvalidArgument
	}
	if err := l.trips.ReserveSeats(ctx, tripID, quantity); err != nil {
		return nil, err
	}
	return &Reservation{
		ID:       uuid.NewString(),
		TripID:   tripID,
		Quantity: quantity,
		state:    stateHeld,
	}, nil
}

// Release restores the reserved seats. Used when the surrounding purchase
// aborts. Releasing a reservation that was already released or finalized
// returns ErrReservationConsumed and does not touch capacity.
func (l *Ledger) Release(ctx context.Context, r *Reservation) error {
	if !atomic.CompareAndSwapInt32(&r.state, stateHeld, stateReleased) {
		return booking.ErrReservationConsumed
	}
	if err := l.trips.RestoreSeats(ctx, r.TripID, r.Quantity); err != nil {
		// Restore failed: hand the handle back so the caller can retry.
		atomic.StoreInt32(&r.state, stateHeld)
		return err
	}
	return nil
}

// Finalize marks the reservation consumed. No capacity change - the seats
// were already decremented at Reserve - but the handle can no longer be
// released.
func (l *Ledger) Finalize(_ context.Context, r *Reservation) error {
	if !atomic.CompareAndSwapInt32(&r.state, stateHeld, stateFinalized) {
		return booking.ErrReservationConsumed
	}
	return nil
}
