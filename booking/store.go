/*
store.go - Persistence interfaces for the booking engine

PURPOSE:
  Defines the interface between the engines and the database. The two
  operations that serialize concurrent purchases live here: the seat
  compare-and-decrement and the usage-counter check-and-increment. Both
  MUST be atomic in every implementation - a read-then-write race on
  either one breaks the no-oversell / cap invariants.

KEY INTERFACES:
  TripStore:        Trips and the atomic seat operations
  PromotionStore:   Versioned promotion records
  UsageStore:       Atomic promotion usage counters
  TransactionStore: Transactions, items, tickets, payments

IMPLEMENTATIONS:
  - store/sqlite: production SQLite (conditional UPDATE statements)
  - booking/store: in-memory for tests and dev (mutex-serialized)

SEE ALSO:
  - ledger.go: transaction ledger built on TransactionStore
  - inventory: reservation ledger built on TripStore
*/
package booking

import "context"

// =============================================================================
// TRIP STORE - Seat inventory serialization point
// =============================================================================

type TripStore interface {
	SaveTrip(ctx context.Context, trip Trip) error
	GetTrip(ctx context.Context, id TripID) (*Trip, error)
	ListTrips(ctx context.Context) ([]Trip, error)
	ListTripsByRoute(ctx context.Context, routeID RouteID) ([]Trip, error)

	// ReserveSeats atomically decrements available seats by quantity.
	// It is a compare-and-decrement: it fails with a CapacityError when
	// fewer than quantity seats remain, and never leaves the count negative.
	// This is the sole serialization point for capacity.
	ReserveSeats(ctx context.Context, id TripID, quantity int) error

	// RestoreSeats returns quantity seats to the trip. Used when the
	// surrounding purchase aborts or a ticket is refunded.
	RestoreSeats(ctx context.Context, id TripID, quantity int) error
}

// =============================================================================
// PROMOTION STORE - Versioned promotion records
// =============================================================================

type PromotionStore interface {
	// SavePromotion persists a record. Editing an existing code means
	// saving a new record with a higher version; records are never updated.
	SavePromotion(ctx context.Context, rec PromotionRecord) error

	GetPromotion(ctx context.Context, id PromotionID) (*PromotionRecord, error)

	// GetPromotionByCode returns the latest version for the code.
	GetPromotionByCode(ctx context.Context, code string) (*PromotionRecord, error)

	ListPromotions(ctx context.Context) ([]PromotionRecord, error)
}

// =============================================================================
// USAGE STORE - Atomic promotion usage counters
// =============================================================================

type UsageStore interface {
	// ConsumeUsage checks both caps and increments both counters as one
	// indivisible step. A cap of zero or less means unlimited. Two
	// concurrent calls racing for the last unit must not both succeed.
	// Returns a UsageLimitError when either cap would be exceeded.
	ConsumeUsage(ctx context.Context, id PromotionID, userKey string, count, perUserCap, globalCap int) error

	// ReleaseUsage undoes a prior ConsumeUsage when the surrounding
	// purchase aborts after pricing. Never drives a counter below zero.
	ReleaseUsage(ctx context.Context, id PromotionID, userKey string, count int) error

	// Usage returns the current per-user and global counters (read-only,
	// used by dry runs).
	Usage(ctx context.Context, id PromotionID, userKey string) (user, global int, err error)
}

// =============================================================================
// TRANSACTION STORE - Purchase audit trail
// =============================================================================

type TransactionStore interface {
	// SaveTransaction persists a new, uncommitted transaction shell.
	SaveTransaction(ctx context.Context, tx Transaction) error

	// GetTransaction returns the transaction with its items.
	GetTransaction(ctx context.Context, id TransactionID) (*Transaction, error)

	// AppendItems appends line items atomically. Items are never updated
	// or deleted once written.
	AppendItems(ctx context.Context, id TransactionID, items []TransactionItem) error

	// MarkCommitted flips the committed flag to true. Monotonic: there is
	// no way to reset it.
	MarkCommitted(ctx context.Context, id TransactionID) error

	SaveTickets(ctx context.Context, tickets []Ticket) error
	UpdateTicketStatus(ctx context.Context, ids []TicketID, status TicketStatus) error
	GetTicket(ctx context.Context, id TicketID) (*Ticket, error)
	TicketsByTransaction(ctx context.Context, id TransactionID) ([]Ticket, error)

	SavePayment(ctx context.Context, p Payment) error
	PaymentsByTransaction(ctx context.Context, id TransactionID) ([]Payment, error)
}

// =============================================================================
// STORE - Everything the engine needs
// =============================================================================

type Store interface {
	TripStore
	PromotionStore
	UsageStore
	TransactionStore
}
