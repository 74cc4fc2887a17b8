/*
Package promotion provides the promotion engine.

PURPOSE:
  A promotion is a data-driven, composable policy: an ordered list of
  qualifying criteria (AND semantics), one discount function, one refund
  function, and usage limits. The engine evaluates a promotion against a
  candidate purchase, computes the discount per ticket, and enforces the
  caps atomically.

KEY CONCEPTS IN THIS FILE (types.go):
  - Criterion / DiscountFunc / RefundFunc: the three capability interfaces
  - Promotion: an executable policy assembled from the registries
  - Context / TicketContext: the candidate purchase under evaluation

OPEN TYPE SET:
  New criterion, discount, and refund types are added by implementing the
  interface and registering a factory (registry.go) - never by branching
  inside the evaluator.

SEE ALSO:
  - registry.go: type-name -> factory dispatch, built-in types
  - engine.go: evaluation and atomic usage enforcement
  - factory: JSON promotion definitions -> Promotion
*/
package promotion

import (
	"github.com/transitline/booking-engine/booking"
)

// =============================================================================
// CAPABILITY INTERFACES
// =============================================================================

// Criterion is one qualifying predicate. Criteria act as filters over the
// tickets of a purchase: a ticket qualifies only if EVERY criterion of the
// promotion matches it (conjunction).
type Criterion interface {
	// Type returns the registry name of this criterion.
	Type() string

	// Matches reports whether the ticket qualifies under this criterion.
	Matches(t TicketContext) bool
}

// DiscountFunc computes the discount for one qualifying ticket.
type DiscountFunc interface {
	Type() string

	// Discount returns the amount taken off the ticket's unit fare.
	// Implementations return zero for tickets they do not apply to.
	Discount(t TicketContext) booking.Money
}

// RefundFunc computes the clawback when a discounted ticket is refunded.
type RefundFunc interface {
	Type() string

	// Refund returns the amount returned to the purchaser, given what was
	// actually paid for the ticket (fare minus discount).
	Refund(t TicketContext, paid booking.Money) booking.Money
}

// =============================================================================
// PROMOTION - Executable policy
// =============================================================================

// UsageLimit caps how often a promotion may be applied. Zero means
// unlimited for that scope. One application = one purchase transaction.
type UsageLimit struct {
	PerUser int
	Global  int
}

// Promotion is a named, versioned policy. Instances are assembled by the
// factory package from stored JSON configs; once a committed transaction
// references a record, edits create a new record instead.
type Promotion struct {
	ID      booking.PromotionID
	Code    string
	Name    string
	Version int

	Criteria []Criterion
	Discount DiscountFunc
	Refund   RefundFunc
	Limit    UsageLimit
}

// =============================================================================
// EVALUATION CONTEXT - The candidate purchase
// =============================================================================

// TicketContext is one requested ticket as seen by criteria and discount
// functions: the trip it rides, its class, and the unit fare it was priced
// at (base fare or bulk-pass per-unit fare).
type TicketContext struct {
	Trip       *booking.Trip
	Class      booking.TicketClass
	BoardStop  booking.StopID
	AlightStop booking.StopID
	UnitFare   booking.Money
}

// Context is the purchase under evaluation. Tickets is the fully expanded
// list, one entry per seat.
type Context struct {
	UserKey string
	Tickets []TicketContext
}

// =============================================================================
// RESULT
// =============================================================================

// Result is the outcome of evaluating one promotion against one purchase.
// PerTicket is aligned with Context.Tickets; non-qualifying tickets hold a
// zero entry.
type Result struct {
	Applicable    bool
	Discount      booking.Money
	PerTicket     []booking.Money
	EligibleCount int
}
