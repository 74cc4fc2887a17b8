/*
engine.go - Promotion evaluation and atomic usage enforcement

PURPOSE:
  Evaluates one promotion against one candidate purchase: filters tickets
  through the criteria conjunction, computes the per-ticket discount, and
  consumes usage atomically.

USAGE LIMITS:
  One application = one purchase transaction. The check-and-increment is a
  single indivisible step in the UsageStore, so two concurrent purchases
  racing for the last unit of a cap cannot both pass.

DRY RUN:
  dryRun=true performs identical arithmetic and checks the caps against
  the counters as they stand, but never increments them. Given the same
  counters, a dry run and a real run return the same result.

SEE ALSO:
  - booking/store.go: UsageStore.ConsumeUsage contract
  - pricing: the calculator driving evaluation
*/
package promotion

import (
	"context"

	"github.com/transitline/booking-engine/booking"
)

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	usage booking.UsageStore
}

func NewEngine(usage booking.UsageStore) *Engine {
	return &Engine{usage: usage}
}

// Evaluate runs the promotion against the purchase.
//
// Returns booking.ErrCriteriaNotMet when no ticket qualifies (or the
// discount computes to zero), and booking.ErrUsageLimitExceeded when
// applying would exceed a cap. On success the usage counters have been
// incremented unless dryRun was set.
func (e *Engine) Evaluate(ctx context.Context, p *Promotion, pc *Context, dryRun bool) (*Result, error) {
	result := &Result{
		Discount:  booking.Zero(),
		PerTicket: make([]booking.Money, len(pc.Tickets)),
	}
	for i := range result.PerTicket {
		result.PerTicket[i] = booking.Zero()
	}

	for i, t := range pc.Tickets {
		if !e.qualifies(p, t) {
			continue
		}
		d := p.Discount.Discount(t)
		if d.IsNegative() || d.IsZero() {
			continue
		}
		if d.GreaterThan(t.UnitFare) {
			d = t.UnitFare
		}
		result.PerTicket[i] = d
		result.Discount = result.Discount.Add(d)
		result.EligibleCount++
	}

	if result.EligibleCount == 0 || result.Discount.IsZero() {
		return result, booking.ErrCriteriaNotMet
	}
	result.Applicable = true

	if dryRun {
		// Same cap check as a real run, without the increment.
		if err := e.peekUsage(ctx, p, pc.UserKey); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := e.usage.ConsumeUsage(ctx, p.ID, pc.UserKey, 1, p.Limit.PerUser, p.Limit.Global); err != nil {
		return nil, err
	}
	return result, nil
}

// Refund computes the clawback for one ticket that carried this promotion,
// given the amount actually paid for it.
func (e *Engine) Refund(p *Promotion, t TicketContext, paid booking.Money) booking.Money {
	if p.Refund == nil {
		return paid
	}
	r := p.Refund.Refund(t, paid)
	if r.IsNegative() {
		return booking.Zero()
	}
	if r.GreaterThan(paid) {
		return paid
	}
	return r
}

// qualifies applies the criteria conjunction to one ticket.
func (e *Engine) qualifies(p *Promotion, t TicketContext) bool {
	for _, c := range p.Criteria {
		if !c.Matches(t) {
			return false
		}
	}
	return true
}

// peekUsage mirrors ConsumeUsage's cap arithmetic read-only.
func (e *Engine) peekUsage(ctx context.Context, p *Promotion, userKey string) error {
	if p.Limit.PerUser <= 0 && p.Limit.Global <= 0 {
		return nil
	}
	user, global, err := e.usage.Usage(ctx, p.ID, userKey)
	if err != nil {
		return err
	}
	if p.Limit.PerUser > 0 && user+1 > p.Limit.PerUser {
		return &booking.UsageLimitError{PromotionID: p.ID, Scope: "per_user", Cap: p.Limit.PerUser}
	}
	if p.Limit.Global > 0 && global+1 > p.Limit.Global {
		return &booking.UsageLimitError{PromotionID: p.ID, Scope: "global", Cap: p.Limit.Global}
	}
	return nil
}
