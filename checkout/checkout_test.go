package checkout_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitline/booking-engine/booking"
	"github.com/transitline/booking-engine/booking/store"
	"github.com/transitline/booking-engine/checkout"
	"github.com/transitline/booking-engine/factory"
	"github.com/transitline/booking-engine/inventory"
	"github.com/transitline/booking-engine/pricing"
	"github.com/transitline/booking-engine/promotion"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type harness struct {
	store  *store.Memory
	orch   *checkout.Orchestrator
	broker *checkout.AccessBroker
}

func newHarness(t *testing.T) *harness {
	mem := store.NewMemory()
	inv := inventory.NewLedger(mem)
	engine := promotion.NewEngine(mem)
	calc := pricing.NewCalculator(mem, engine)
	ledger := booking.NewLedger(mem)
	broker := checkout.NewAccessBroker(mem)
	orch := checkout.NewOrchestrator(mem, inv, calc, ledger, checkout.NewSandboxGateway(), broker, nil)
	return &harness{store: mem, orch: orch, broker: broker}
}

// flakyStore fails chosen SaveTickets calls (1-based), simulating a store
// outage at a precise point in the purchase flow.
type flakyStore struct {
	*store.Memory
	mu        sync.Mutex
	failSaves map[int]bool
	saveCalls int
}

func (s *flakyStore) SaveTickets(ctx context.Context, tickets []booking.Ticket) error {
	s.mu.Lock()
	s.saveCalls++
	fail := s.failSaves[s.saveCalls]
	s.mu.Unlock()
	if fail {
		return errors.New("store unavailable")
	}
	return s.Memory.SaveTickets(ctx, tickets)
}

func newFlakyHarness(t *testing.T, failSaves ...int) *harness {
	mem := store.NewMemory()
	flaky := &flakyStore{Memory: mem, failSaves: make(map[int]bool)}
	for _, n := range failSaves {
		flaky.failSaves[n] = true
	}
	inv := inventory.NewLedger(flaky)
	engine := promotion.NewEngine(flaky)
	calc := pricing.NewCalculator(flaky, engine)
	ledger := booking.NewLedger(flaky)
	broker := checkout.NewAccessBroker(flaky)
	orch := checkout.NewOrchestrator(flaky, inv, calc, ledger, checkout.NewSandboxGateway(), broker, nil)
	return &harness{store: mem, orch: orch, broker: broker}
}

func (h *harness) addTrip(t *testing.T, id string, seats int, fare, childFare string, tags ...string) *booking.Trip {
	trip := booking.Trip{
		ID:             booking.TripID(id),
		RouteID:        "route-wrs",
		RouteTags:      tags,
		DepartureDate:  time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC),
		BaseFare:       booking.MustParseMoney(fare),
		ChildFare:      booking.MustParseMoney(childFare),
		TotalSeats:     seats,
		AvailableSeats: seats,
	}
	require.NoError(t, h.store.SaveTrip(context.Background(), trip))
	return &trip
}

func (h *harness) addPromo(t *testing.T, jsonStr string) {
	rec, err := factory.Record(jsonStr)
	require.NoError(t, err)
	require.NoError(t, h.store.SavePromotion(context.Background(), *rec))
}

func (h *harness) seats(t *testing.T, id string) int {
	trip, err := h.store.GetTrip(context.Background(), booking.TripID(id))
	require.NoError(t, err)
	return trip.AvailableSeats
}

// =============================================================================
// HAPPY PATH
// =============================================================================

func TestPurchase_FamilyWithChildFares_CommitsBalanced(t *testing.T) {
	// GIVEN: Two wrs trips and the child-fare promotion
	// WHEN: Buying 3 adult + 2 child seats on each with a valid card
	// THEN: 50.00 charged, 10 valid tickets, balanced committed transaction,
	//       child tickets carry the discount code

	h := newHarness(t)
	tripA := h.addTrip(t, "trip-a", 40, "5.00", "3.00", "wrs")
	tripB := h.addTrip(t, "trip-b", 40, "7.00", "4.00", "wrs")
	h.addPromo(t, factory.ChildFareJSON("promo-1", "WRS-CHILDREN", "Child fares", []string{"wrs"}))

	result, err := h.orch.Purchase(context.Background(), checkout.PurchaseRequest{
		Purchaser: booking.UserPurchaser("user-1"),
		Items: []pricing.Item{
			{Trip: tripA, Class: booking.ClassAdult, Quantity: 3},
			{Trip: tripA, Class: booking.ClassChild, Quantity: 2},
			{Trip: tripB, Class: booking.ClassAdult, Quantity: 3},
			{Trip: tripB, Class: booking.ClassChild, Quantity: 2},
		},
		PromoCode: "WRS-CHILDREN",
		CardToken: "tok_visa",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5000), result.TotalMinor)
	assert.NotEmpty(t, result.SessionToken)
	require.Len(t, result.Tickets, 10)

	discounted := 0
	for _, ticket := range result.Tickets {
		assert.Equal(t, booking.TicketValid, ticket.Status)
		if len(ticket.Notes.DiscountCodes) > 0 {
			discounted++
			assert.Equal(t, booking.ClassChild, ticket.Class)
		}
	}
	assert.Equal(t, 4, discounted)

	// Seats consumed on both trips.
	assert.Equal(t, 35, h.seats(t, "trip-a"))
	assert.Equal(t, 35, h.seats(t, "trip-b"))

	// The transaction committed and balances to the minor unit.
	tx, err := h.store.GetTransaction(context.Background(), result.TransactionID)
	require.NoError(t, err)
	assert.True(t, tx.Committed)
	assert.True(t, tx.Balanced())
	assert.Equal(t, "60.00", tx.TotalDebit().String())

	payments, err := h.store.PaymentsByTransaction(context.Background(), result.TransactionID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, booking.PaymentCaptured, payments[0].Status)
	assert.Equal(t, int64(5000), payments[0].AmountMinor)
}

// =============================================================================
// FAILURE CLEANUP
// =============================================================================

func TestPurchase_Declined_ReleasesEverything(t *testing.T) {
	// GIVEN: A 10-seat trip and a card that declines
	// WHEN: Purchasing 4 seats
	// THEN: Seats restored, tickets failed, transaction uncommitted but
	//       preserved with the declined payment as the audit record

	h := newHarness(t)
	trip := h.addTrip(t, "trip-a", 10, "5.00", "3.00", "wrs")

	_, err := h.orch.Purchase(context.Background(), checkout.PurchaseRequest{
		Purchaser: booking.UserPurchaser("user-1"),
		Items:     []pricing.Item{{Trip: trip, Class: booking.ClassAdult, Quantity: 4}},
		CardToken: "tok_declined_insufficient_funds",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, booking.ErrPaymentDeclined)
	assert.Contains(t, err.Error(), "insufficient funds")
	// The gateway's internal code never surfaces in the user-facing error.
	assert.NotContains(t, err.Error(), "tok_declined")

	assert.Equal(t, 10, h.seats(t, "trip-a"))

	txs := h.allTransactions(t)
	require.Len(t, txs, 1)
	assert.False(t, txs[0].Committed)

	tickets, err := h.store.TicketsByTransaction(context.Background(), txs[0].ID)
	require.NoError(t, err)
	require.Len(t, tickets, 4)
	for _, ticket := range tickets {
		assert.Equal(t, booking.TicketFailed, ticket.Status)
	}

	payments, err := h.store.PaymentsByTransaction(context.Background(), txs[0].ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, booking.PaymentDeclined, payments[0].Status)
}

func TestPurchase_Declined_ReleasesPromoUsage(t *testing.T) {
	// GIVEN: A promotion capped at 1 per user and a declining card
	// WHEN: The purchase fails after pricing consumed the usage
	// THEN: The usage is released so the user can retry with the same code

	h := newHarness(t)
	trip := h.addTrip(t, "trip-a", 10, "5.00", "3.00", "wrs")
	h.addPromo(t, factory.FlatCodeJSON("promo-1", "ONCE", "Once", "1.00", []string{"wrs"}, 1))

	req := checkout.PurchaseRequest{
		Purchaser: booking.UserPurchaser("user-1"),
		Items:     []pricing.Item{{Trip: trip, Class: booking.ClassAdult, Quantity: 1}},
		PromoCode: "ONCE",
		CardToken: "tok_declined_card_declined",
	}
	_, err := h.orch.Purchase(context.Background(), req)
	require.ErrorIs(t, err, booking.ErrPaymentDeclined)

	// Retry with a working card: the discount must still apply.
	req.CardToken = "tok_visa"
	result, err := h.orch.Purchase(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(400), result.TotalMinor)
}

func TestPurchase_InsufficientCapacity_NoPartialReservations(t *testing.T) {
	// GIVEN: Trip A with seats, trip B already full
	// WHEN: Purchasing seats on both
	// THEN: The purchase fails and trip A's partial reservation is released

	h := newHarness(t)
	tripA := h.addTrip(t, "trip-a", 10, "5.00", "3.00", "wrs")
	tripB := h.addTrip(t, "trip-b", 2, "7.00", "4.00", "wrs")

	_, err := h.orch.Purchase(context.Background(), checkout.PurchaseRequest{
		Purchaser: booking.UserPurchaser("user-1"),
		Items: []pricing.Item{
			{Trip: tripA, Class: booking.ClassAdult, Quantity: 3},
			{Trip: tripB, Class: booking.ClassAdult, Quantity: 5},
		},
		CardToken: "tok_visa",
	})
	assert.ErrorIs(t, err, booking.ErrInsufficientCapacity)

	assert.Equal(t, 10, h.seats(t, "trip-a"))
	assert.Equal(t, 2, h.seats(t, "trip-b"))
}

func TestPurchase_UnknownPromoCode_RejectedBeforeReserving(t *testing.T) {
	// GIVEN: A promo code that does not exist
	// WHEN: Purchasing with it
	// THEN: ErrInvalidArgument with zero side effects - no seats held,
	//       no transaction, no tickets

	h := newHarness(t)
	trip := h.addTrip(t, "trip-a", 10, "5.00", "3.00", "wrs")

	_, err := h.orch.Purchase(context.Background(), checkout.PurchaseRequest{
		Purchaser: booking.UserPurchaser("user-1"),
		Items:     []pricing.Item{{Trip: trip, Class: booking.ClassAdult, Quantity: 2}},
		PromoCode: "NOPE",
		CardToken: "tok_visa",
	})
	assert.ErrorIs(t, err, booking.ErrInvalidArgument)

	assert.Equal(t, 10, h.seats(t, "trip-a"))
	assert.Empty(t, h.allTransactions(t))
}

func TestPurchase_GuestWithoutContact_Rejected(t *testing.T) {
	h := newHarness(t)
	trip := h.addTrip(t, "trip-a", 10, "5.00", "3.00", "wrs")

	_, err := h.orch.Purchase(context.Background(), checkout.PurchaseRequest{
		Purchaser: booking.Purchaser{},
		Items:     []pricing.Item{{Trip: trip, Class: booking.ClassAdult, Quantity: 1}},
		CardToken: "tok_visa",
	})
	assert.ErrorIs(t, err, booking.ErrInvalidArgument)
}

func TestPurchase_PostCommitSaveFails_CommittedPurchaseStands(t *testing.T) {
	// GIVEN: A store that fails the post-commit ticket save once
	// WHEN: A capped-promo purchase completes its ledger commit
	// THEN: The retry persists the valid tickets; nothing is compensated -
	//       the transaction stays committed, the usage stays consumed, and
	//       the caller gets a success

	// Call 1 is the pending-ticket save, call 2 the post-commit save.
	h := newFlakyHarness(t, 2)
	trip := h.addTrip(t, "trip-a", 10, "5.00", "3.00", "wrs")
	h.addPromo(t, factory.FlatCodeJSON("promo-1", "ONCE", "Once", "1.00", []string{"wrs"}, 1))

	result, err := h.orch.Purchase(context.Background(), checkout.PurchaseRequest{
		Purchaser: booking.UserPurchaser("user-1"),
		Items:     []pricing.Item{{Trip: trip, Class: booking.ClassAdult, Quantity: 1}},
		PromoCode: "ONCE",
		CardToken: "tok_visa",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(400), result.TotalMinor)

	tx, err := h.store.GetTransaction(context.Background(), result.TransactionID)
	require.NoError(t, err)
	assert.True(t, tx.Committed)

	ticket, err := h.store.GetTicket(context.Background(), result.Tickets[0].ID)
	require.NoError(t, err)
	assert.Equal(t, booking.TicketValid, ticket.Status)

	user, _, err := h.store.Usage(context.Background(), "promo-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, user)
	assert.Equal(t, 9, h.seats(t, "trip-a"))
}

func TestPurchase_PostCommitSavePersistentlyFails_NoCompensation(t *testing.T) {
	// GIVEN: A store where every post-commit ticket save fails
	// WHEN: The ledger commit has succeeded
	// THEN: The purchase still reports success and no cleanup runs: seats
	//       stay consumed, usage stays at 1, and no ticket is marked failed.
	//       Reconciliation picks the pending tickets up from the committed
	//       transaction later.

	h := newFlakyHarness(t, 2, 3)
	trip := h.addTrip(t, "trip-a", 10, "5.00", "3.00", "wrs")
	h.addPromo(t, factory.FlatCodeJSON("promo-1", "ONCE", "Once", "1.00", []string{"wrs"}, 1))

	result, err := h.orch.Purchase(context.Background(), checkout.PurchaseRequest{
		Purchaser: booking.UserPurchaser("user-1"),
		Items:     []pricing.Item{{Trip: trip, Class: booking.ClassAdult, Quantity: 1}},
		PromoCode: "ONCE",
		CardToken: "tok_visa",
	})
	require.NoError(t, err)

	tx, err := h.store.GetTransaction(context.Background(), result.TransactionID)
	require.NoError(t, err)
	assert.True(t, tx.Committed)
	assert.True(t, tx.Balanced())

	// The valid save never landed, but compensation must not have marked
	// the ticket failed on a committed transaction.
	ticket, err := h.store.GetTicket(context.Background(), result.Tickets[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, booking.TicketFailed, ticket.Status)

	user, _, err := h.store.Usage(context.Background(), "promo-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, user)
	assert.Equal(t, 9, h.seats(t, "trip-a"))
}

func TestPurchase_PendingTicketSaveFails_AbortsBeforeCharging(t *testing.T) {
	// GIVEN: A store that fails the pending-ticket save
	// WHEN: Purchasing
	// THEN: The purchase fails before any charge and the seats are released

	h := newFlakyHarness(t, 1)
	trip := h.addTrip(t, "trip-a", 10, "5.00", "3.00", "wrs")

	_, err := h.orch.Purchase(context.Background(), checkout.PurchaseRequest{
		Purchaser: booking.UserPurchaser("user-1"),
		Items:     []pricing.Item{{Trip: trip, Class: booking.ClassAdult, Quantity: 2}},
		CardToken: "tok_visa",
	})
	require.Error(t, err)
	assert.Equal(t, 10, h.seats(t, "trip-a"))

	txs := h.allTransactions(t)
	require.Len(t, txs, 1)
	assert.False(t, txs[0].Committed)

	payments, err := h.store.PaymentsByTransaction(context.Background(), txs[0].ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestPurchase_ConcurrentGroups_NeverOversell(t *testing.T) {
	// GIVEN: A 10-seat trip and groups of 3, 3 and 5 buying concurrently
	// WHEN: All purchases race
	// THEN: Valid tickets never exceed 10 and every group is all-or-nothing

	h := newHarness(t)
	h.addTrip(t, "trip-a", 10, "5.00", "3.00", "wrs")

	quantities := []int{3, 3, 5}
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		issued int
	)
	for i, q := range quantities {
		wg.Add(1)
		go func(i, q int) {
			defer wg.Done()
			trip, terr := h.store.GetTrip(context.Background(), "trip-a")
			if terr != nil {
				return
			}
			result, perr := h.orch.Purchase(context.Background(), checkout.PurchaseRequest{
				Purchaser: booking.UserPurchaser(booking.UserID(string(rune('a' + i)))),
				Items:     []pricing.Item{{Trip: trip, Class: booking.ClassAdult, Quantity: q}},
				CardToken: "tok_visa",
			})
			if perr == nil {
				mu.Lock()
				issued += len(result.Tickets)
				mu.Unlock()
			}
		}(i, q)
	}
	wg.Wait()

	assert.LessOrEqual(t, issued, 10)
	assert.Equal(t, 10-issued, h.seats(t, "trip-a"))
}

// =============================================================================
// TICKET ACCESS
// =============================================================================

func TestBroker_TruncatedToken_Forbidden(t *testing.T) {
	// GIVEN: A completed purchase with its session token
	// WHEN: Verifying with the full, truncated, empty, and wrong tokens
	// THEN: Only the exact token grants access

	h := newHarness(t)
	trip := h.addTrip(t, "trip-a", 10, "5.00", "3.00", "wrs")

	result, err := h.orch.Purchase(context.Background(), checkout.PurchaseRequest{
		Purchaser: booking.GuestPurchaser("guest@example.com"),
		Items:     []pricing.Item{{Trip: trip, Class: booking.ClassAdult, Quantity: 1}},
		CardToken: "tok_visa",
	})
	require.NoError(t, err)

	ctx := context.Background()
	assert.NoError(t, h.broker.Verify(ctx, result.TransactionID, result.SessionToken))

	truncated := result.SessionToken[:len(result.SessionToken)-2]
	assert.ErrorIs(t, h.broker.Verify(ctx, result.TransactionID, truncated), booking.ErrForbidden)
	assert.ErrorIs(t, h.broker.Verify(ctx, result.TransactionID, ""), booking.ErrForbidden)

	wrong := make([]byte, len(result.SessionToken))
	for i := range wrong {
		wrong[i] = 'f'
	}
	assert.ErrorIs(t, h.broker.Verify(ctx, result.TransactionID, string(wrong)), booking.ErrForbidden)
}

// =============================================================================
// REFUNDS
// =============================================================================

func TestRefund_DiscountedTicket_RefundsPaidAmount(t *testing.T) {
	// GIVEN: A committed purchase with one child ticket paid at 3.00
	// WHEN: Refunding that ticket
	// THEN: 3.00 comes back in a balanced refund transaction, the ticket is
	//       cancelled, and the seat is restored

	h := newHarness(t)
	trip := h.addTrip(t, "trip-a", 10, "5.00", "3.00", "wrs")
	h.addPromo(t, factory.ChildFareJSON("promo-1", "WRS-CHILDREN", "Child fares", []string{"wrs"}))

	result, err := h.orch.Purchase(context.Background(), checkout.PurchaseRequest{
		Purchaser: booking.UserPurchaser("user-1"),
		Items: []pricing.Item{
			{Trip: trip, Class: booking.ClassAdult, Quantity: 1},
			{Trip: trip, Class: booking.ClassChild, Quantity: 1},
		},
		PromoCode: "WRS-CHILDREN",
		CardToken: "tok_visa",
	})
	require.NoError(t, err)
	require.Equal(t, 8, h.seats(t, "trip-a"))

	var childTicket booking.Ticket
	for _, ticket := range result.Tickets {
		if ticket.Class == booking.ClassChild {
			childTicket = ticket
		}
	}
	require.NotEmpty(t, childTicket.ID)

	refund, err := h.orch.Refund(context.Background(), childTicket.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), refund.AmountMinor)

	updated, err := h.store.GetTicket(context.Background(), childTicket.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.TicketCancelled, updated.Status)
	assert.Equal(t, 9, h.seats(t, "trip-a"))

	rtx, err := h.store.GetTransaction(context.Background(), refund.TransactionID)
	require.NoError(t, err)
	assert.True(t, rtx.Committed)
	assert.True(t, rtx.Balanced())
}

func TestRefund_PromotionEdit_DoesNotChangeSoldTicketsRefund(t *testing.T) {
	// GIVEN: A child ticket sold under version 1 of a code (refundable),
	//        then the code edited to version 2 with a no-refund policy
	// WHEN: Refunding the ticket
	// THEN: Version 1's refund function applies - the paid 3.00 comes back

	h := newHarness(t)
	trip := h.addTrip(t, "trip-a", 10, "5.00", "3.00", "wrs")
	h.addPromo(t, factory.ChildFareJSON("promo-1", "WRS-CHILDREN", "Child fares", []string{"wrs"}))

	result, err := h.orch.Purchase(context.Background(), checkout.PurchaseRequest{
		Purchaser: booking.UserPurchaser("user-1"),
		Items:     []pricing.Item{{Trip: trip, Class: booking.ClassChild, Quantity: 1}},
		PromoCode: "WRS-CHILDREN",
		CardToken: "tok_visa",
	})
	require.NoError(t, err)

	// The ticket is pinned to the record it was sold under.
	sold, err := h.store.GetTicket(context.Background(), result.Tickets[0].ID)
	require.NoError(t, err)
	assert.Equal(t, booking.PromotionID("promo-1"), sold.Notes.PromotionID)

	// Edit: a new record, same code, higher version, non-refundable.
	h.addPromo(t, `{
		"id": "promo-1-v2",
		"code": "WRS-CHILDREN",
		"name": "Child fares, final sale",
		"version": 2,
		"criteria": [
			{"type": "route_tag", "params": {"tags": ["wrs"]}},
			{"type": "ticket_class", "params": {"class": "child"}}
		],
		"discount": {"type": "child_rate"},
		"refund": {"type": "no_refund"}
	}`)

	refund, err := h.orch.Refund(context.Background(), result.Tickets[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), refund.AmountMinor)
}

func TestRefund_NonRefundablePromo_ZeroClawback(t *testing.T) {
	// GIVEN: A ticket discounted by a no-refund promotion
	// WHEN: Refunding it
	// THEN: Zero comes back, but the ticket is still cancelled and the seat restored

	h := newHarness(t)
	trip := h.addTrip(t, "trip-a", 10, "5.00", "3.00", "wrs")
	h.addPromo(t, factory.FlatCodeJSON("promo-1", "FINAL", "Final sale", "1.00", []string{"wrs"}, 0))

	result, err := h.orch.Purchase(context.Background(), checkout.PurchaseRequest{
		Purchaser: booking.UserPurchaser("user-1"),
		Items:     []pricing.Item{{Trip: trip, Class: booking.ClassAdult, Quantity: 1}},
		PromoCode: "FINAL",
		CardToken: "tok_visa",
	})
	require.NoError(t, err)

	refund, err := h.orch.Refund(context.Background(), result.Tickets[0].ID)
	require.NoError(t, err)
	assert.Zero(t, refund.AmountMinor)

	updated, err := h.store.GetTicket(context.Background(), result.Tickets[0].ID)
	require.NoError(t, err)
	assert.Equal(t, booking.TicketCancelled, updated.Status)
	assert.Equal(t, 10, h.seats(t, "trip-a"))
}

func TestRefund_PendingTicket_Rejected(t *testing.T) {
	h := newHarness(t)
	trip := h.addTrip(t, "trip-a", 10, "5.00", "3.00", "wrs")

	// A declined purchase leaves failed tickets behind.
	_, err := h.orch.Purchase(context.Background(), checkout.PurchaseRequest{
		Purchaser: booking.UserPurchaser("user-1"),
		Items:     []pricing.Item{{Trip: trip, Class: booking.ClassAdult, Quantity: 1}},
		CardToken: "tok_declined_card_declined",
	})
	require.Error(t, err)

	txs := h.allTransactions(t)
	require.Len(t, txs, 1)
	tickets, err := h.store.TicketsByTransaction(context.Background(), txs[0].ID)
	require.NoError(t, err)
	require.Len(t, tickets, 1)

	_, err = h.orch.Refund(context.Background(), tickets[0].ID)
	assert.ErrorIs(t, err, booking.ErrInvalidArgument)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *harness) allTransactions(t *testing.T) []booking.Transaction {
	txs, err := h.store.ListTransactions(context.Background())
	require.NoError(t, err)
	return txs
}
