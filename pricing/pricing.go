/*
Package pricing provides the price calculator.

PURPOSE:
  Combines base fares, trip-level bulk-pass pricing, and promotion output
  into a per-item price breakdown. Pricing arithmetic is pure; the only
  side effect of a non-dry run is the promotion usage increment performed
  inside the promotion engine.

PROMO CODE POLICY:
  - Unknown code + RequireCode=false: permissive miss, zero discount.
  - Unknown code + RequireCode=true:  booking.ErrInvalidArgument.
  - Criteria not met: always permissive, zero discount.
  - Usage cap exhausted: BestEffort=true prices without the discount,
    otherwise the error propagates.

DRY RUN:
  DryRun=true produces an identical breakdown without touching usage
  counters. Used for quote tables.

SEE ALSO:
  - promotion: criteria evaluation and usage enforcement
  - checkout: runs the calculator in non-dry-run mode during a purchase
*/
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/transitline/booking-engine/booking"
	"github.com/transitline/booking-engine/factory"
	"github.com/transitline/booking-engine/promotion"
)

// =============================================================================
// INPUTS
// =============================================================================

// Item is one requested (trip, boardStop, alightStop, class) selection.
type Item struct {
	Trip       *booking.Trip
	BoardStop  booking.StopID
	AlightStop booking.StopID
	Class      booking.TicketClass
	Quantity   int
}

// Options carries purchase-wide pricing parameters.
type Options struct {
	// Quantity overrides the total ticket count used for bulk-pass
	// matching; zero means "sum of item quantities".
	Quantity int

	PromoCode string

	// RequireCode makes an unknown promo code an error instead of a
	// permissive miss. The purchase path sets it whenever a code was sent.
	RequireCode bool

	// BestEffort prices without the discount when the promotion's usage
	// cap is exhausted, instead of failing the request.
	BestEffort bool

	// DryRun computes the same breakdown without consuming promo usage.
	DryRun bool

	UserKey string
}

// =============================================================================
// OUTPUTS
// =============================================================================

// TicketPrice is the price of one ticket, in expansion order (item by
// item, quantity by quantity). The checkout orchestrator creates tickets
// in the same order.
type TicketPrice struct {
	ItemIndex     int
	TripID        booking.TripID
	BoardStop     booking.StopID
	AlightStop    booking.StopID
	Class         booking.TicketClass
	UnitFare      booking.Money
	Discount      booking.Money
	DiscountCodes []string
}

// Paid returns what is actually charged for the ticket.
func (t TicketPrice) Paid() booking.Money { return t.UnitFare.Sub(t.Discount) }

// Line aggregates one requested item.
type Line struct {
	Item     Item
	UnitFare booking.Money
	Gross    booking.Money
	Discount booking.Money
}

// Breakdown is the full pricing result for a purchase.
type Breakdown struct {
	Lines   []Line
	Tickets []TicketPrice

	Gross    booking.Money
	Discount booking.Money
	Total    booking.Money

	// DiscountPercent = discount / (discount + total), as a percentage
	// rounded to two significant digits for display.
	DiscountPercent float64

	// Promotion is the applied promotion, nil when none applied.
	Promotion *promotion.Promotion

	// UsageConsumed reports whether this (non-dry) run incremented the
	// promotion's usage counters; the caller must release them if the
	// purchase later aborts.
	UsageConsumed bool
}

// Quote is one row of a bulk-pass quote table.
type Quote struct {
	Quantity        int           `json:"quantity"`
	UnitFare        booking.Money `json:"-"`
	Gross           booking.Money `json:"-"`
	Discount        booking.Money `json:"-"`
	Total           booking.Money `json:"-"`
	DiscountPercent float64       `json:"discountPercent"`
}

// =============================================================================
// CALCULATOR
// =============================================================================

type Calculator struct {
	promotions booking.PromotionStore
	engine     *promotion.Engine
}

func NewCalculator(promotions booking.PromotionStore, engine *promotion.Engine) *Calculator {
	return &Calculator{promotions: promotions, engine: engine}
}

// Price computes the breakdown for the requested items.
func (c *Calculator) Price(ctx context.Context, items []Item, opts Options) (*Breakdown, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	totalQty := opts.Quantity
	if totalQty <= 0 {
		for _, it := range items {
			totalQty += it.Quantity
		}
	}

	// Expand to one TicketPrice per seat. Unit fare is the trip's base
	// fare, or the bulk-pass per-unit fare when the purchase quantity
	// matches a configured pass size.
	b := &Breakdown{Gross: booking.Zero(), Discount: booking.Zero(), Total: booking.Zero()}
	var evalTickets []promotion.TicketContext
	for i, it := range items {
		unit := it.Trip.BaseFare
		if passFare, ok := it.Trip.PassUnitFare(totalQty); ok {
			unit = passFare
		}
		line := Line{Item: it, UnitFare: unit, Gross: unit.MulInt(it.Quantity), Discount: booking.Zero()}
		b.Lines = append(b.Lines, line)
		b.Gross = b.Gross.Add(line.Gross)

		for q := 0; q < it.Quantity; q++ {
			b.Tickets = append(b.Tickets, TicketPrice{
				ItemIndex:  i,
				TripID:     it.Trip.ID,
				BoardStop:  it.BoardStop,
				AlightStop: it.AlightStop,
				Class:      it.Class,
				UnitFare:   unit,
				Discount:   booking.Zero(),
			})
			evalTickets = append(evalTickets, promotion.TicketContext{
				Trip:       it.Trip,
				Class:      it.Class,
				BoardStop:  it.BoardStop,
				AlightStop: it.AlightStop,
				UnitFare:   unit,
			})
		}
	}

	if opts.PromoCode != "" {
		if err := c.applyPromotion(ctx, b, evalTickets, opts); err != nil {
			return nil, err
		}
	}

	b.Total = b.Gross.Sub(b.Discount)
	b.DiscountPercent = discountPercent(b.Discount, b.Total)
	return b, nil
}

// applyPromotion looks up, parses, and evaluates the promo code, honoring
// the permissive-miss and best-effort policies.
func (c *Calculator) applyPromotion(ctx context.Context, b *Breakdown, evalTickets []promotion.TicketContext, opts Options) error {
	rec, err := c.promotions.GetPromotionByCode(ctx, opts.PromoCode)
	if errors.Is(err, booking.ErrPromotionNotFound) {
		if opts.RequireCode {
			return fmt.Errorf("%w: unknown promotion code %q", booking.ErrInvalidArgument, opts.PromoCode)
		}
		return nil
	}
	if err != nil {
		return err
	}

	promo, err := factory.Parse(rec.ConfigJSON)
	if err != nil {
		return err
	}

	result, err := c.engine.Evaluate(ctx, promo, &promotion.Context{
		UserKey: opts.UserKey,
		Tickets: evalTickets,
	}, opts.DryRun)
	switch {
	case errors.Is(err, booking.ErrCriteriaNotMet):
		return nil // permissive miss
	case errors.Is(err, booking.ErrUsageLimitExceeded):
		if opts.BestEffort {
			return nil
		}
		return err
	case err != nil:
		return err
	}

	for i, d := range result.PerTicket {
		if d.IsZero() {
			continue
		}
		b.Tickets[i].Discount = d
		b.Tickets[i].DiscountCodes = []string{promo.Code}
		b.Lines[b.Tickets[i].ItemIndex].Discount = b.Lines[b.Tickets[i].ItemIndex].Discount.Add(d)
	}
	b.Discount = result.Discount
	b.Promotion = promo
	b.UsageConsumed = !opts.DryRun
	return nil
}

// QuoteTable prices each configured pass size of a trip (plus a single
// ticket) in dry-run mode, for preview tables.
func (c *Calculator) QuoteTable(ctx context.Context, trip *booking.Trip, promoCode, userKey string) (map[int]Quote, error) {
	sizes := []int{1}
	for size := range trip.PassFares {
		if size > 1 {
			sizes = append(sizes, size)
		}
	}
	sort.Ints(sizes)

	table := make(map[int]Quote, len(sizes))
	for _, size := range sizes {
		b, err := c.Price(ctx, []Item{{
			Trip:     trip,
			Class:    booking.ClassAdult,
			Quantity: size,
		}}, Options{
			PromoCode: promoCode,
			DryRun:    true,
			UserKey:   userKey,
			// Quote path never requires the code (permissive miss).
			BestEffort: true,
		})
		if err != nil {
			return nil, err
		}
		unit := b.Lines[0].UnitFare
		table[size] = Quote{
			Quantity:        size,
			UnitFare:        unit,
			Gross:           b.Gross,
			Discount:        b.Discount,
			Total:           b.Total,
			DiscountPercent: b.DiscountPercent,
		}
	}
	return table, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func validateItems(items []Item) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: no items requested", booking.ErrInvalidArgument)
	}
	for _, it := range items {
		if it.Trip == nil {
			return fmt.Errorf("%w: item without trip", booking.ErrInvalidArgument)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: item quantity must be positive", booking.ErrInvalidArgument)
		}
		if it.Class != booking.ClassAdult && it.Class != booking.ClassChild {
			return fmt.Errorf("%w: unknown ticket class %q", booking.ErrInvalidArgument, it.Class)
		}
		if it.BoardStop != "" && it.BoardStop == it.AlightStop {
			return fmt.Errorf("%w: board and alight stops are identical", booking.ErrInvalidArgument)
		}
	}
	return nil
}

// discountPercent returns discount / (discount + payable) as a percentage
// rounded to two significant digits.
func discountPercent(discount, total booking.Money) float64 {
	gross := discount.Add(total)
	if !discount.IsPositive() || !gross.IsPositive() {
		return 0
	}
	ratio, _ := discount.Value.Div(gross.Value).Float64()
	return roundSignificant(ratio*100, 2)
}

func roundSignificant(v float64, digits int) float64 {
	if v == 0 {
		return 0
	}
	magnitude := math.Floor(math.Log10(math.Abs(v)))
	factor := math.Pow(10, float64(digits-1)-magnitude)
	return math.Round(v*factor) / factor
}
