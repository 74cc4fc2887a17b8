/*
registry.go - Type-name dispatch for criteria, discount, and refund functions

PURPOSE:
  Promotions are stored as {type, params} pairs. This file maps type names
  to factories that build the executable variants. Adding a new type means
  adding a variant + a registry entry; the evaluator's core loop never
  changes.

BUILT-IN TYPES:
  Criteria:   route_tag, trip_date_range, ticket_class
  Discounts:  child_rate, percent, flat
  Refunds:    discounted_fare, no_refund

SEE ALSO:
  - types.go: the three capability interfaces
  - factory: parses stored JSON configs through these registries
*/
package promotion

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/transitline/booking-engine/booking"
)

// =============================================================================
// REGISTRIES
// =============================================================================

type CriterionFactory func(params json.RawMessage) (Criterion, error)
type DiscountFactory func(params json.RawMessage) (DiscountFunc, error)
type RefundFactory func(params json.RawMessage) (RefundFunc, error)

var (
	criterionRegistry = map[string]CriterionFactory{}
	discountRegistry  = map[string]DiscountFactory{}
	refundRegistry    = map[string]RefundFactory{}
)

func RegisterCriterion(name string, f CriterionFactory) { criterionRegistry[name] = f }
func RegisterDiscount(name string, f DiscountFactory)   { discountRegistry[name] = f }
func RegisterRefund(name string, f RefundFactory)       { refundRegistry[name] = f }

// NewCriterion builds a criterion from its registry name and params.
func NewCriterion(name string, params json.RawMessage) (Criterion, error) {
	f, ok := criterionRegistry[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown criterion type %q", booking.ErrInvalidArgument, name)
	}
	return f(params)
}

// NewDiscount builds a discount function from its registry name and params.
func NewDiscount(name string, params json.RawMessage) (DiscountFunc, error) {
	f, ok := discountRegistry[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown discount type %q", booking.ErrInvalidArgument, name)
	}
	return f(params)
}

// NewRefund builds a refund function from its registry name and params.
func NewRefund(name string, params json.RawMessage) (RefundFunc, error) {
	f, ok := refundRegistry[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown refund type %q", booking.ErrInvalidArgument, name)
	}
	return f(params)
}

func init() {
	RegisterCriterion("route_tag", newRouteTagCriterion)
	RegisterCriterion("trip_date_range", newDateRangeCriterion)
	RegisterCriterion("ticket_class", newTicketClassCriterion)

	RegisterDiscount("child_rate", newChildRateDiscount)
	RegisterDiscount("percent", newPercentDiscount)
	RegisterDiscount("flat", newFlatDiscount)

	RegisterRefund("discounted_fare", newDiscountedFareRefund)
	RegisterRefund("no_refund", newNoRefund)
}

// =============================================================================
// BUILT-IN CRITERIA
// =============================================================================

// routeTagCriterion matches tickets whose trip's route carries any of the
// configured tags.
type routeTagCriterion struct {
	Tags []string `json:"tags"`
}

func newRouteTagCriterion(params json.RawMessage) (Criterion, error) {
	var c routeTagCriterion
	if err := json.Unmarshal(params, &c); err != nil {
		return nil, fmt.Errorf("%w: route_tag params: %v", booking.ErrInvalidArgument, err)
	}
	if len(c.Tags) == 0 {
		return nil, fmt.Errorf("%w: route_tag requires at least one tag", booking.ErrInvalidArgument)
	}
	return &c, nil
}

func (c *routeTagCriterion) Type() string { return "route_tag" }

func (c *routeTagCriterion) Matches(t TicketContext) bool {
	for _, tag := range c.Tags {
		if t.Trip.HasTag(tag) {
			return true
		}
	}
	return false
}

// dateRangeCriterion matches tickets whose trip departs within [From, To].
type dateRangeCriterion struct {
	from time.Time
	to   time.Time
}

func newDateRangeCriterion(params json.RawMessage) (Criterion, error) {
	var raw struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := json.Unmarshal(params, &raw); err != nil {
		return nil, fmt.Errorf("%w: trip_date_range params: %v", booking.ErrInvalidArgument, err)
	}
	from, err := parseDay(raw.From)
	if err != nil {
		return nil, fmt.Errorf("%w: trip_date_range from: %v", booking.ErrInvalidArgument, err)
	}
	to, err := parseDay(raw.To)
	if err != nil {
		return nil, fmt.Errorf("%w: trip_date_range to: %v", booking.ErrInvalidArgument, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: trip_date_range end before start", booking.ErrInvalidArgument)
	}
	return &dateRangeCriterion{from: from, to: to}, nil
}

func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (c *dateRangeCriterion) Type() string { return "trip_date_range" }

func (c *dateRangeCriterion) Matches(t TicketContext) bool {
	d := t.Trip.DepartureDate
	return !d.Before(c.from) && !d.After(c.to.Add(24*time.Hour-time.Nanosecond))
}

// ticketClassCriterion restricts a promotion to one fare class.
type ticketClassCriterion struct {
	Class booking.TicketClass `json:"class"`
}

func newTicketClassCriterion(params json.RawMessage) (Criterion, error) {
	var c ticketClassCriterion
	if err := json.Unmarshal(params, &c); err != nil {
		return nil, fmt.Errorf("%w: ticket_class params: %v", booking.ErrInvalidArgument, err)
	}
	if c.Class != booking.ClassAdult && c.Class != booking.ClassChild {
		return nil, fmt.Errorf("%w: ticket_class %q", booking.ErrInvalidArgument, c.Class)
	}
	return &c, nil
}

func (c *ticketClassCriterion) Type() string { return "ticket_class" }

func (c *ticketClassCriterion) Matches(t TicketContext) bool {
	return t.Class == c.Class
}

// =============================================================================
// BUILT-IN DISCOUNT FUNCTIONS
// =============================================================================

// childRateDiscount replaces the adult fare with the trip's child fare:
// the discount is the adult/child fare delta. Zero for non-child tickets.
type childRateDiscount struct{}

func newChildRateDiscount(json.RawMessage) (DiscountFunc, error) {
	return childRateDiscount{}, nil
}

func (childRateDiscount) Type() string { return "child_rate" }

func (childRateDiscount) Discount(t TicketContext) booking.Money {
	if t.Class != booking.ClassChild {
		return booking.Zero()
	}
	delta := t.Trip.BaseFare.Sub(t.Trip.ChildFare)
	if delta.IsNegative() {
		return booking.Zero()
	}
	return delta
}

// percentDiscount takes a fraction off the unit fare.
type percentDiscount struct {
	Rate decimal.Decimal `json:"rate"`
}

func newPercentDiscount(params json.RawMessage) (DiscountFunc, error) {
	var d percentDiscount
	if err := json.Unmarshal(params, &d); err != nil {
		return nil, fmt.Errorf("%w: percent params: %v", booking.ErrInvalidArgument, err)
	}
	if d.Rate.IsNegative() || d.Rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: percent rate must be in [0,1]", booking.ErrInvalidArgument)
	}
	return &d, nil
}

func (d *percentDiscount) Type() string { return "percent" }

func (d *percentDiscount) Discount(t TicketContext) booking.Money {
	return booking.Money{Value: t.UnitFare.Value.Mul(d.Rate).Round(2)}
}

// flatDiscount takes a fixed amount off each qualifying ticket.
type flatDiscount struct {
	Amount booking.Money
}

func newFlatDiscount(params json.RawMessage) (DiscountFunc, error) {
	var raw struct {
		Amount string `json:"amount"`
	}
	if err := json.Unmarshal(params, &raw); err != nil {
		return nil, fmt.Errorf("%w: flat params: %v", booking.ErrInvalidArgument, err)
	}
	amount, err := booking.ParseMoney(raw.Amount)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: flat amount must be positive", booking.ErrInvalidArgument)
	}
	return &flatDiscount{Amount: amount}, nil
}

func (d *flatDiscount) Type() string { return "flat" }

func (d *flatDiscount) Discount(t TicketContext) booking.Money {
	if d.Amount.GreaterThan(t.UnitFare) {
		return t.UnitFare
	}
	return d.Amount
}

// =============================================================================
// BUILT-IN REFUND FUNCTIONS
// =============================================================================

// discountedFareRefund returns exactly what was paid for the ticket - the
// discounted amount, never the gross fare.
type discountedFareRefund struct{}

func newDiscountedFareRefund(json.RawMessage) (RefundFunc, error) {
	return discountedFareRefund{}, nil
}

func (discountedFareRefund) Type() string { return "discounted_fare" }

func (discountedFareRefund) Refund(_ TicketContext, paid booking.Money) booking.Money {
	return paid
}

// noRefund marks promo fares as non-refundable.
type noRefund struct{}

func newNoRefund(json.RawMessage) (RefundFunc, error) { return noRefund{}, nil }

func (noRefund) Type() string { return "no_refund" }

func (noRefund) Refund(TicketContext, booking.Money) booking.Money {
	return booking.Zero()
}
