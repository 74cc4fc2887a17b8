/*
orchestrator.go - Purchase state machine

PURPOSE:
  Drives a purchase through Reserving -> Pricing -> Charging ->
  Committing -> Done, with compensating actions on every failure exit.
  The orchestrator owns sequencing and cleanup; the arithmetic lives in
  the pricing and promotion engines, the atomicity in the store.

GUARANTEES:
  - Money is never charged without tickets becoming valid, and vice
    versa: a decline releases every reservation and marks tickets failed;
    an internal imbalance after capture triggers a gateway refund.
  - Every attempted purchase leaves a transaction record, committed or
    not. Nothing is silently dropped.
  - Compensation runs on context.WithoutCancel, so cleanup completes even
    when the inbound request context is already dead.

RETRIES:
  No automatic retry of gateway charges - charging twice risks double
  billing. Callers resubmit, which creates a new transaction.

SEE ALSO:
  - inventory: reservation handles held across the gateway call
  - booking/ledger.go: commit and the balance invariant
*/
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/transitline/booking-engine/booking"
	"github.com/transitline/booking-engine/factory"
	"github.com/transitline/booking-engine/inventory"
	"github.com/transitline/booking-engine/pricing"
	"github.com/transitline/booking-engine/promotion"
)

// =============================================================================
// STATES
// =============================================================================

type State string

const (
	StateReserving  State = "reserving"
	StatePricing    State = "pricing"
	StateCharging   State = "charging"
	StateCommitting State = "committing"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// StateError reports which state a purchase failed in. It wraps the
// underlying cause so errors.Is classification still works at the API
// boundary.
type StateError struct {
	State State
	Err   error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("purchase failed while %s: %v", e.State, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }

func failed(state State, err error) error {
	return &StateError{State: state, Err: err}
}

// =============================================================================
// REQUEST / RESULT
// =============================================================================

type PurchaseRequest struct {
	Purchaser booking.Purchaser
	Items     []pricing.Item
	PromoCode string

	// BestEffort prices without the discount when the promotion cap is
	// exhausted instead of rejecting the purchase.
	BestEffort bool

	CardToken string
}

type PurchaseResult struct {
	TransactionID booking.TransactionID
	SessionToken  string
	Tickets       []booking.Ticket
	TotalMinor    int64
}

type RefundResult struct {
	TransactionID booking.TransactionID
	AmountMinor   int64
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

type Orchestrator struct {
	store     booking.Store
	inventory *inventory.Ledger
	pricing   *pricing.Calculator
	ledger    *booking.Ledger
	gateway   Gateway
	broker    *AccessBroker
	notifier  Notifier
}

func NewOrchestrator(store booking.Store, inv *inventory.Ledger, calc *pricing.Calculator, ledger *booking.Ledger, gw Gateway, broker *AccessBroker, notifier Notifier) *Orchestrator {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Orchestrator{
		store:     store,
		inventory: inv,
		pricing:   calc,
		ledger:    ledger,
		gateway:   gw,
		broker:    broker,
		notifier:  notifier,
	}
}

// Purchase executes the full state machine for one purchase request.
func (o *Orchestrator) Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error) {
	// Request validation happens before any reservation or record: a
	// malformed request must have zero side effects.
	if err := o.validate(ctx, req); err != nil {
		return nil, err
	}

	token, err := o.broker.Issue()
	if err != nil {
		return nil, err
	}

	// The transaction shell is the audit record; it exists whether or not
	// the purchase succeeds.
	tx, err := o.ledger.Begin(ctx, req.Purchaser, token)
	if err != nil {
		return nil, err
	}

	// Compensation state. The deferred abort runs on every failure exit,
	// on a context that survives caller cancellation.
	var (
		reservations []*inventory.Reservation
		tickets      []booking.Ticket
		usagePromo   booking.PromotionID
		usageKey     string
		captured     *booking.Payment
		done         bool
	)
	defer func() {
		if done {
			return
		}
		cleanup := context.WithoutCancel(ctx)
		for _, r := range reservations {
			if r.Held() {
				_ = o.inventory.Release(cleanup, r)
			}
		}
		if usagePromo != "" {
			_ = o.store.ReleaseUsage(cleanup, usagePromo, usageKey, 1)
		}
		if len(tickets) > 0 {
			ids := make([]booking.TicketID, len(tickets))
			for i, t := range tickets {
				ids[i] = t.ID
			}
			_ = o.store.UpdateTicketStatus(cleanup, ids, booking.TicketFailed)
		}
	}()

	// --- Reserving ---------------------------------------------------------
	for _, item := range req.Items {
		r, rerr := o.inventory.Reserve(ctx, item.Trip.ID, item.Quantity)
		if rerr != nil {
			// Record failed tickets for audit, then unwind via defer. The
			// reservation failure is the error the caller sees; a lost
			// audit write is only logged.
			var aerr error
			if tickets, aerr = o.auditTickets(ctx, tx, req, booking.TicketFailed); aerr != nil {
				log.Printf("checkout: %v", aerr)
			}
			return nil, failed(StateReserving, rerr)
		}
		reservations = append(reservations, r)
	}

	// Seats are held; tickets exist as pending until commit. A purchase
	// whose tickets cannot be recorded must not proceed to charging.
	if tickets, err = o.auditTickets(ctx, tx, req, booking.TicketPending); err != nil {
		return nil, failed(StateReserving, err)
	}

	// --- Pricing -----------------------------------------------------------
	breakdown, err := o.pricing.Price(ctx, req.Items, pricing.Options{
		PromoCode:   req.PromoCode,
		RequireCode: req.PromoCode != "",
		BestEffort:  req.BestEffort,
		DryRun:      false,
		UserKey:     req.Purchaser.UsageKey(),
	})
	if err != nil {
		return nil, failed(StatePricing, err)
	}
	if breakdown.UsageConsumed {
		usagePromo = breakdown.Promotion.ID
		usageKey = req.Purchaser.UsageKey()
	}

	// --- Charging ----------------------------------------------------------
	totalMinor := breakdown.Total.MinorUnits()
	charge, err := o.gateway.Charge(ctx, totalMinor, req.CardToken)
	if err != nil {
		var decline *DeclineError
		if errors.As(err, &decline) {
			o.recordPayment(ctx, tx, totalMinor, "", booking.PaymentDeclined, decline.Code)
			return nil, failed(StateCharging, fmt.Errorf("%w: %s", booking.ErrPaymentDeclined, decline.Message()))
		}
		return nil, failed(StateCharging, err)
	}
	captured = o.recordPayment(ctx, tx, totalMinor, charge.Ref, booking.PaymentCaptured, "")

	// --- Committing --------------------------------------------------------
	err = o.writeItems(ctx, tx, breakdown, tickets, captured)
	if err == nil {
		err = o.ledger.Commit(ctx, tx)
	}
	if err != nil {
		// The charge was captured but the ledger cannot balance: refund
		// so money is never held without valid tickets. The uncommitted
		// transaction remains as the reconciliation record.
		_ = o.gateway.Refund(context.WithoutCancel(ctx), captured.GatewayRef, totalMinor)
		return nil, failed(StateCommitting, err)
	}

	// The purchase is committed. Nothing below may unwind it: the charge
	// stands, the usage stays consumed, and the caller gets a success.
	done = true

	// Reservations are consumed, tickets become valid and carry the
	// discount codes plus the exact promotion record they were sold under.
	for _, r := range reservations {
		_ = o.inventory.Finalize(ctx, r)
	}
	for i := range tickets {
		tickets[i].Status = booking.TicketValid
		tickets[i].Notes.DiscountCodes = breakdown.Tickets[i].DiscountCodes
		if len(breakdown.Tickets[i].DiscountCodes) > 0 && breakdown.Promotion != nil {
			tickets[i].Notes.PromotionID = breakdown.Promotion.ID
		}
	}
	if serr := o.store.SaveTickets(ctx, tickets); serr != nil {
		// Post-commit persistence failure. Retry once off the request
		// context; if that also fails the committed transaction is the
		// source of truth and reconciliation revalidates the tickets.
		if rerr := o.store.SaveTickets(context.WithoutCancel(ctx), tickets); rerr != nil {
			log.Printf("checkout: reconciliation needed: transaction %s committed but tickets not marked valid: %v", tx.ID, rerr)
		}
	}

	// --- Done --------------------------------------------------------------
	_ = o.notifier.PurchaseConfirmed(ctx, &Receipt{
		Transaction: tx,
		Tickets:     tickets,
		AmountMinor: totalMinor,
	})

	return &PurchaseResult{
		TransactionID: tx.ID,
		SessionToken:  token,
		Tickets:       tickets,
		TotalMinor:    totalMinor,
	}, nil
}

// Refund cancels one valid ticket: computes the clawback through the
// promotion's refund function, refunds the gateway, records a balanced
// refund transaction, and restores the seat.
func (o *Orchestrator) Refund(ctx context.Context, ticketID booking.TicketID) (*RefundResult, error) {
	ticket, err := o.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != booking.TicketValid {
		return nil, fmt.Errorf("%w: ticket %s is %s, only valid tickets can be refunded",
			booking.ErrInvalidArgument, ticketID, ticket.Status)
	}

	tx, err := o.store.GetTransaction(ctx, ticket.TransactionID)
	if err != nil {
		return nil, err
	}
	if !tx.Committed {
		return nil, fmt.Errorf("%w: owning transaction is not committed", booking.ErrInvalidArgument)
	}

	paid, err := o.amountPaid(tx, ticketID)
	if err != nil {
		return nil, err
	}
	amount, err := o.clawback(ctx, ticket, paid)
	if err != nil {
		return nil, err
	}

	var gatewayRef string
	if amount.IsPositive() {
		payments, perr := o.store.PaymentsByTransaction(ctx, tx.ID)
		if perr != nil {
			return nil, perr
		}
		for _, p := range payments {
			if p.Status == booking.PaymentCaptured {
				gatewayRef = p.GatewayRef
				break
			}
		}
		if gatewayRef == "" {
			return nil, fmt.Errorf("%w: no captured payment on transaction %s", booking.ErrInvalidArgument, tx.ID)
		}
		if err := o.gateway.Refund(ctx, gatewayRef, amount.MinorUnits()); err != nil {
			return nil, err
		}
	}

	rtx, err := o.ledger.Begin(ctx, tx.Purchaser, "")
	if err != nil {
		return nil, err
	}
	if amount.IsPositive() {
		refundPayment := booking.Payment{
			ID:            booking.PaymentID(uuid.NewString()),
			TransactionID: rtx.ID,
			AmountMinor:   amount.MinorUnits(),
			GatewayRef:    gatewayRef,
			Status:        booking.PaymentRefunded,
			CreatedAt:     time.Now().UTC(),
		}
		if err := o.store.SavePayment(ctx, refundPayment); err != nil {
			return nil, err
		}
		if err := o.ledger.AddItem(ctx, rtx, booking.ItemRefund, string(ticketID), amount, booking.Zero()); err != nil {
			return nil, err
		}
		if err := o.ledger.AddItem(ctx, rtx, booking.ItemPayment, string(refundPayment.ID), booking.Zero(), amount); err != nil {
			return nil, err
		}
	}
	if err := o.ledger.Commit(ctx, rtx); err != nil {
		return nil, err
	}

	if err := o.store.UpdateTicketStatus(ctx, []booking.TicketID{ticketID}, booking.TicketCancelled); err != nil {
		return nil, err
	}
	if err := o.store.RestoreSeats(ctx, ticket.TripID, 1); err != nil {
		return nil, err
	}

	return &RefundResult{TransactionID: rtx.ID, AmountMinor: amount.MinorUnits()}, nil
}

// =============================================================================
// INTERNALS
// =============================================================================

// validate rejects malformed requests before any side effect, including
// an unknown promo code (the purchase path requires supplied codes to
// exist).
func (o *Orchestrator) validate(ctx context.Context, req PurchaseRequest) error {
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: no items requested", booking.ErrInvalidArgument)
	}
	for _, it := range req.Items {
		if it.Trip == nil || it.Quantity <= 0 {
			return fmt.Errorf("%w: malformed item", booking.ErrInvalidArgument)
		}
	}
	if req.CardToken == "" {
		return fmt.Errorf("%w: missing payment token", booking.ErrInvalidArgument)
	}
	if req.Purchaser.IsGuest() && req.Purchaser.GuestContact == "" {
		return fmt.Errorf("%w: guest purchase requires contact info", booking.ErrInvalidArgument)
	}
	if req.PromoCode != "" {
		if _, err := o.store.GetPromotionByCode(ctx, req.PromoCode); err != nil {
			if errors.Is(err, booking.ErrPromotionNotFound) {
				return fmt.Errorf("%w: unknown promotion code %q", booking.ErrInvalidArgument, req.PromoCode)
			}
			return err
		}
	}
	return nil
}

// auditTickets creates one ticket row per requested seat in the given
// status. Ticket rows exist for failed purchases too - that is the audit
// trail the reconciliation process reads.
func (o *Orchestrator) auditTickets(ctx context.Context, tx *booking.Transaction, req PurchaseRequest, status booking.TicketStatus) ([]booking.Ticket, error) {
	var tickets []booking.Ticket
	now := time.Now().UTC()
	for _, item := range req.Items {
		for q := 0; q < item.Quantity; q++ {
			tickets = append(tickets, booking.Ticket{
				ID:            booking.TicketID(uuid.NewString()),
				TransactionID: tx.ID,
				UserID:        req.Purchaser.UserID,
				TripID:        item.Trip.ID,
				BoardStop:     item.BoardStop,
				AlightStop:    item.AlightStop,
				Class:         item.Class,
				Status:        status,
				CreatedAt:     now,
			})
			now = now.Add(time.Microsecond) // stable retrieval order
		}
	}
	if err := o.store.SaveTickets(ctx, tickets); err != nil {
		return tickets, fmt.Errorf("persisting %s tickets for transaction %s: %w", status, tx.ID, err)
	}
	return tickets, nil
}

func (o *Orchestrator) recordPayment(ctx context.Context, tx *booking.Transaction, amountMinor int64, ref string, status booking.PaymentStatus, reason string) *booking.Payment {
	p := booking.Payment{
		ID:            booking.PaymentID(uuid.NewString()),
		TransactionID: tx.ID,
		AmountMinor:   amountMinor,
		GatewayRef:    ref,
		Status:        status,
		Reason:        reason,
		CreatedAt:     time.Now().UTC(),
	}
	if err := o.store.SavePayment(ctx, p); err != nil {
		log.Printf("checkout: payment record %s for transaction %s not persisted: %v", p.ID, tx.ID, err)
	}
	return &p
}

// writeItems records the double entry: one ticketSale debit per ticket,
// one discount credit per discounted ticket, one payment credit for the
// capture.
func (o *Orchestrator) writeItems(ctx context.Context, tx *booking.Transaction, b *pricing.Breakdown, tickets []booking.Ticket, payment *booking.Payment) error {
	for i, tp := range b.Tickets {
		if err := o.ledger.AddItem(ctx, tx, booking.ItemTicketSale, string(tickets[i].ID), tp.UnitFare, booking.Zero()); err != nil {
			return err
		}
		if tp.Discount.IsPositive() {
			if err := o.ledger.AddItem(ctx, tx, booking.ItemDiscount, string(tickets[i].ID), booking.Zero(), tp.Discount); err != nil {
				return err
			}
		}
	}
	return o.ledger.AddItem(ctx, tx, booking.ItemPayment, string(payment.ID), booking.Zero(), b.Total)
}

// amountPaid derives a ticket's paid amount from the committed items:
// its ticketSale debit minus its discount credits.
func (o *Orchestrator) amountPaid(tx *booking.Transaction, ticketID booking.TicketID) (booking.Money, error) {
	paid := booking.Zero()
	found := false
	for _, it := range tx.Items {
		if it.ItemID != string(ticketID) {
			continue
		}
		switch it.Type {
		case booking.ItemTicketSale:
			paid = paid.Add(it.Debit)
			found = true
		case booking.ItemDiscount:
			paid = paid.Sub(it.Credit)
		}
	}
	if !found {
		return booking.Zero(), fmt.Errorf("%w: no sale item for ticket %s on transaction %s",
			booking.ErrInvalidArgument, ticketID, tx.ID)
	}
	return paid, nil
}

// clawback runs the promotion's refund function when the ticket carried a
// discount code; undiscounted tickets refund what was paid. The promotion
// is resolved by the record ID stamped on the ticket at sale, so a later
// edit of the code (a new, higher version) never changes the refund of a
// ticket sold under the old version.
func (o *Orchestrator) clawback(ctx context.Context, ticket *booking.Ticket, paid booking.Money) (booking.Money, error) {
	if len(ticket.Notes.DiscountCodes) == 0 {
		return paid, nil
	}
	var (
		rec *booking.PromotionRecord
		err error
	)
	if ticket.Notes.PromotionID != "" {
		rec, err = o.store.GetPromotion(ctx, ticket.Notes.PromotionID)
	} else {
		// Tickets issued before record stamping fall back to the code.
		rec, err = o.store.GetPromotionByCode(ctx, ticket.Notes.DiscountCodes[0])
	}
	if err != nil {
		return booking.Zero(), err
	}
	promo, err := factory.Parse(rec.ConfigJSON)
	if err != nil {
		return booking.Zero(), err
	}
	if promo.Refund == nil {
		return paid, nil
	}
	trip, err := o.store.GetTrip(ctx, ticket.TripID)
	if err != nil {
		return booking.Zero(), err
	}
	amount := promo.Refund.Refund(promotion.TicketContext{
		Trip:       trip,
		Class:      ticket.Class,
		BoardStop:  ticket.BoardStop,
		AlightStop: ticket.AlightStop,
		UnitFare:   paid,
	}, paid)
	if amount.IsNegative() {
		return booking.Zero(), nil
	}
	if amount.GreaterThan(paid) {
		return paid, nil
	}
	return amount, nil
}
