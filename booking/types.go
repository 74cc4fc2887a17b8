/*
Package booking provides the core types of the booking transaction engine.

PURPOSE:
  This package contains the data model shared by every component: trips with
  finite seat inventory, tickets, promotions-as-records, payments, and the
  double-entry transaction that ties a purchase together. Engines (inventory,
  promotion, pricing, checkout) build on these types; they never define their
  own money or identifier representations.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: a currency amount backed by decimal.Decimal (minor-unit safe)
  - Trip: a scheduled service instance with seat capacity and pass pricing
  - Ticket: one seat on one trip between two stops
  - Transaction/TransactionItem: the double-entry purchase record
  - Purchaser: user or guest, one type for both paths

DESIGN PRINCIPLES:
  1. Precision: all money arithmetic uses decimal.Decimal, never float64
  2. Type Safety: strong typing for IDs prevents mixing trip/ticket/tx IDs
  3. Auditability: transactions exist whether or not payment succeeded
  4. Immutability of committed state: a committed transaction never changes

SEE ALSO:
  - ledger.go: transaction ledger (begin/addItem/commit)
  - store.go: persistence interfaces
  - errors.go: sentinel and structured errors
*/
package booking

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Currency amount in minor-unit-safe decimal
// =============================================================================

// Money is a currency amount with two decimal places of precision.
// The currency itself is implicit; the engine is single-currency.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

// MoneyFromMinor converts integer minor units (cents) to Money.
func MoneyFromMinor(units int64) Money {
	return Money{Value: decimal.New(units, -2)}
}

// ParseMoney parses a decimal amount string. Use this for amounts that
// arrive over the wire or from configuration.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{Value: decimal.Zero}, fmt.Errorf("%w: invalid amount %q", ErrInvalidArgument, s)
	}
	return Money{Value: d}, nil
}

// MustParseMoney is ParseMoney for trusted literals and self-written
// storage; it panics on a malformed amount.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func Zero() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(o Money) Money              { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money              { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Mul(s decimal.Decimal) Money    { return Money{Value: m.Value.Mul(s)} }
func (m Money) MulInt(n int) Money             { return Money{Value: m.Value.Mul(decimal.NewFromInt(int64(n)))} }
func (m Money) Neg() Money                     { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool                   { return m.Value.IsZero() }
func (m Money) IsNegative() bool               { return m.Value.IsNegative() }
func (m Money) IsPositive() bool               { return m.Value.IsPositive() }
func (m Money) Equal(o Money) bool             { return m.Value.Equal(o.Value) }
func (m Money) GreaterThan(o Money) bool       { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool          { return m.Value.LessThan(o.Value) }
func (m Money) String() string                 { return m.Value.StringFixed(2) }

// MinorUnits returns the amount in integer minor units (cents).
// This is the representation the payment gateway consumes.
func (m Money) MinorUnits() int64 {
	return m.Value.Round(2).Shift(2).IntPart()
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TripID string
type RouteID string
type StopID string
type UserID string
type TicketID string
type TransactionID string
type PaymentID string
type PromotionID string

// =============================================================================
// TRIP - Scheduled service instance with seat inventory
// =============================================================================

// Trip is one scheduled run of a route. AvailableSeats is mutated only
// through the inventory ledger's atomic reserve/restore operations and is
// never decremented below zero.
type Trip struct {
	ID            TripID
	RouteID       RouteID
	RouteTags     []string
	DepartureDate time.Time

	// BaseFare is the adult fare; ChildFare is the reduced fare applied by
	// child-rate promotions (tickets are priced at BaseFare and discounted).
	BaseFare  Money
	ChildFare Money

	TotalSeats     int
	AvailableSeats int

	// PassFares maps a bulk-pass size to the per-unit fare for that size.
	PassFares map[int]Money

	CreatedAt time.Time
}

// PassUnitFare returns the per-unit fare when quantity matches a configured
// pass size, and whether such a pass exists.
func (t *Trip) PassUnitFare(quantity int) (Money, bool) {
	fare, ok := t.PassFares[quantity]
	return fare, ok
}

// HasTag reports whether the trip's route carries the given tag.
func (t *Trip) HasTag(tag string) bool {
	for _, rt := range t.RouteTags {
		if rt == tag {
			return true
		}
	}
	return false
}

// =============================================================================
// PURCHASER - User or guest, one type for both paths
// =============================================================================

// Purchaser identifies who is buying. Authenticated purchases carry a UserID;
// guest purchases carry contact info only. Both retrieve tickets through the
// access broker's session token.
type Purchaser struct {
	UserID       UserID
	GuestContact string
}

func UserPurchaser(id UserID) Purchaser       { return Purchaser{UserID: id} }
func GuestPurchaser(contact string) Purchaser { return Purchaser{GuestContact: contact} }

func (p Purchaser) IsGuest() bool { return p.UserID == "" }

// UsageKey returns the key under which promotion usage is counted for this
// purchaser. Guests are keyed by contact so per-user caps still apply.
func (p Purchaser) UsageKey() string {
	if p.IsGuest() {
		return "guest:" + p.GuestContact
	}
	return string(p.UserID)
}

// =============================================================================
// TICKET - One seat on one trip between two stops
// =============================================================================

type TicketClass string

const (
	ClassAdult TicketClass = "adult"
	ClassChild TicketClass = "child"
)

type TicketStatus string

const (
	TicketPending   TicketStatus = "pending"
	TicketValid     TicketStatus = "valid"
	TicketFailed    TicketStatus = "failed"
	TicketCancelled TicketStatus = "cancelled"
)

// TicketNotes carries annotations attached to a ticket at issue time.
type TicketNotes struct {
	// PromotionID pins the exact promotion record the discount was sold
	// under. Refunds resolve this record, never the latest version of the
	// code, so editing a promotion cannot change past tickets' refunds.
	PromotionID   PromotionID `json:"promotionId,omitempty"`
	DiscountCodes []string    `json:"discountCodes,omitempty"`
}

// Ticket transitions pending -> valid only when its owning transaction
// commits; any failure before that marks it failed.
type Ticket struct {
	ID            TicketID
	TransactionID TransactionID
	UserID        UserID
	TripID        TripID
	BoardStop     StopID
	AlightStop    StopID
	Class         TicketClass
	Status        TicketStatus
	Notes         TicketNotes
	CreatedAt     time.Time
}

// =============================================================================
// PAYMENT - Record of an external charge attempt
// =============================================================================

type PaymentStatus string

const (
	PaymentCaptured PaymentStatus = "captured"
	PaymentDeclined PaymentStatus = "declined"
	PaymentRefunded PaymentStatus = "refunded"
)

type Payment struct {
	ID            PaymentID
	TransactionID TransactionID
	AmountMinor   int64
	GatewayRef    string
	Status        PaymentStatus
	Reason        string
	CreatedAt     time.Time
}

// =============================================================================
// TRANSACTION - Double-entry purchase record
// =============================================================================

type ItemType string

const (
	ItemTicketSale ItemType = "ticketSale" // debit: gross fare per ticket
	ItemPayment    ItemType = "payment"    // credit: gateway charge
	ItemDiscount   ItemType = "discount"   // credit: promotion discount
	ItemRefund     ItemType = "refund"     // debit: clawback owed to purchaser
)

// TransactionItem is a typed line owned by exactly one transaction.
// ItemID references the concrete entity: ticket for ticketSale/discount/refund,
// payment record for payment.
type TransactionItem struct {
	ID            string
	TransactionID TransactionID
	Type          ItemType
	ItemID        string
	Debit         Money
	Credit        Money
	CreatedAt     time.Time
}

// Transaction is the root of a purchase. It exists even when payment fails:
// the uncommitted transaction and its failed tickets are the audit record.
// Committed is monotonic - set once by the ledger, never reset.
type Transaction struct {
	ID           TransactionID
	Purchaser    Purchaser
	SessionToken string
	Committed    bool
	CreatedAt    time.Time
	Items        []TransactionItem
}

func (t *Transaction) TotalDebit() Money {
	sum := Zero()
	for _, it := range t.Items {
		sum = sum.Add(it.Debit)
	}
	return sum
}

func (t *Transaction) TotalCredit() Money {
	sum := Zero()
	for _, it := range t.Items {
		sum = sum.Add(it.Credit)
	}
	return sum
}

// Balanced reports whether debits equal credits to the minor unit.
// A transaction may only be committed while this holds.
func (t *Transaction) Balanced() bool {
	return t.TotalDebit().Equal(t.TotalCredit())
}

// ItemsOfType returns the items of one type, in insertion order.
func (t *Transaction) ItemsOfType(itemType ItemType) []TransactionItem {
	var out []TransactionItem
	for _, it := range t.Items {
		if it.Type == itemType {
			out = append(out, it)
		}
	}
	return out
}

// =============================================================================
// PROMOTION RECORD - Stored, versioned promotion policy
// =============================================================================

// PromotionRecord is the persisted form of a promotion: a versioned JSON
// config parsed by the factory package into an executable promotion.
// Records are immutable once referenced by a committed transaction;
// edits create a new record with a higher version.
type PromotionRecord struct {
	ID         PromotionID
	Code       string
	Name       string
	Version    int
	ConfigJSON string
	CreatedAt  time.Time
}
