package booking_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitline/booking-engine/booking"
	"github.com/transitline/booking-engine/booking/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger() (*booking.Ledger, *store.Memory) {
	mem := store.NewMemory()
	return booking.NewLedger(mem), mem
}

// =============================================================================
// BALANCE INVARIANT TESTS
// =============================================================================

func TestLedger_BalancedTransaction_Commits(t *testing.T) {
	// GIVEN: A transaction whose debits equal its credits
	// WHEN: Committing
	// THEN: The transaction is marked committed

	ledger, mem := newTestLedger()
	ctx := context.Background()

	tx, err := ledger.Begin(ctx, booking.UserPurchaser("user-1"), "token-1")
	require.NoError(t, err)

	fare := booking.MustParseMoney("12.50")
	require.NoError(t, ledger.AddItem(ctx, tx, booking.ItemTicketSale, "ticket-1", fare, booking.Zero()))
	require.NoError(t, ledger.AddItem(ctx, tx, booking.ItemPayment, "payment-1", booking.Zero(), fare))

	err = ledger.Commit(ctx, tx)
	assert.NoError(t, err)
	assert.True(t, tx.Committed)

	stored, err := mem.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, stored.Committed)
	assert.Len(t, stored.Items, 2)
}

func TestLedger_ImbalancedTransaction_Rejected(t *testing.T) {
	// GIVEN: A transaction where debits exceed credits
	// WHEN: Committing
	// THEN: Commit fails with ImbalancedError and the transaction stays uncommitted

	ledger, mem := newTestLedger()
	ctx := context.Background()

	tx, err := ledger.Begin(ctx, booking.UserPurchaser("user-1"), "token-1")
	require.NoError(t, err)

	require.NoError(t, ledger.AddItem(ctx, tx, booking.ItemTicketSale, "ticket-1",
		booking.MustParseMoney("12.50"), booking.Zero()))
	require.NoError(t, ledger.AddItem(ctx, tx, booking.ItemPayment, "payment-1",
		booking.Zero(), booking.MustParseMoney("10.00")))

	err = ledger.Commit(ctx, tx)
	assert.Error(t, err)
	assert.ErrorIs(t, err, booking.ErrImbalancedTransaction)

	var imbalance *booking.ImbalancedError
	require.ErrorAs(t, err, &imbalance)
	assert.Equal(t, "12.50", imbalance.Debit.String())
	assert.Equal(t, "10.00", imbalance.Credit.String())

	// The failed transaction and its items remain as the audit record.
	stored, err := mem.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.False(t, stored.Committed)
	assert.Len(t, stored.Items, 2)
}

func TestLedger_DiscountBalancesAgainstGrossFare(t *testing.T) {
	// GIVEN: A sale at gross fare with a discount credit
	// WHEN: The payment credits only the discounted amount
	// THEN: The transaction balances (sale debit = discount + payment credits)

	ledger, _ := newTestLedger()
	ctx := context.Background()

	tx, err := ledger.Begin(ctx, booking.GuestPurchaser("guest@example.com"), "token-1")
	require.NoError(t, err)

	require.NoError(t, ledger.AddItem(ctx, tx, booking.ItemTicketSale, "ticket-1",
		booking.MustParseMoney("5.00"), booking.Zero()))
	require.NoError(t, ledger.AddItem(ctx, tx, booking.ItemDiscount, "ticket-1",
		booking.Zero(), booking.MustParseMoney("2.00")))
	require.NoError(t, ledger.AddItem(ctx, tx, booking.ItemPayment, "payment-1",
		booking.Zero(), booking.MustParseMoney("3.00")))

	assert.NoError(t, ledger.Commit(ctx, tx))
	assert.Equal(t, "5.00", tx.TotalDebit().String())
	assert.Equal(t, "5.00", tx.TotalCredit().String())
}

// =============================================================================
// MONOTONIC COMMIT TESTS
// =============================================================================

func TestLedger_CommitIsMonotonic(t *testing.T) {
	// GIVEN: A committed transaction
	// WHEN: Committing again or appending items
	// THEN: Both are rejected with ErrAlreadyCommitted

	ledger, _ := newTestLedger()
	ctx := context.Background()

	tx, err := ledger.Begin(ctx, booking.UserPurchaser("user-1"), "token-1")
	require.NoError(t, err)
	require.NoError(t, ledger.Commit(ctx, tx)) // empty transaction balances at zero

	err = ledger.Commit(ctx, tx)
	assert.ErrorIs(t, err, booking.ErrAlreadyCommitted)

	err = ledger.AddItem(ctx, tx, booking.ItemTicketSale, "ticket-1",
		booking.MustParseMoney("1.00"), booking.Zero())
	assert.ErrorIs(t, err, booking.ErrAlreadyCommitted)
}

func TestLedger_ItemsOfType(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	tx, err := ledger.Begin(ctx, booking.UserPurchaser("user-1"), "token-1")
	require.NoError(t, err)

	require.NoError(t, ledger.AddItem(ctx, tx, booking.ItemTicketSale, "t1", booking.MustParseMoney("5.00"), booking.Zero()))
	require.NoError(t, ledger.AddItem(ctx, tx, booking.ItemTicketSale, "t2", booking.MustParseMoney("5.00"), booking.Zero()))
	require.NoError(t, ledger.AddItem(ctx, tx, booking.ItemPayment, "p1", booking.Zero(), booking.MustParseMoney("10.00")))

	assert.Len(t, tx.ItemsOfType(booking.ItemTicketSale), 2)
	assert.Len(t, tx.ItemsOfType(booking.ItemPayment), 1)
	assert.Empty(t, tx.ItemsOfType(booking.ItemDiscount))
}

// =============================================================================
// MONEY TESTS
// =============================================================================

func TestMoney_MinorUnits(t *testing.T) {
	assert.Equal(t, int64(1250), booking.MustParseMoney("12.50").MinorUnits())
	assert.Equal(t, int64(0), booking.Zero().MinorUnits())
	assert.Equal(t, int64(300), booking.MoneyFromMinor(300).MinorUnits())
	assert.Equal(t, "3.00", booking.MoneyFromMinor(300).String())
}

func TestMoney_Parse(t *testing.T) {
	m, err := booking.ParseMoney("12.50")
	require.NoError(t, err)
	assert.Equal(t, "12.50", m.String())

	_, err = booking.ParseMoney("12,50")
	assert.ErrorIs(t, err, booking.ErrInvalidArgument)
	_, err = booking.ParseMoney("")
	assert.ErrorIs(t, err, booking.ErrInvalidArgument)

	// Must is for literals only: a malformed amount fails loudly instead
	// of silently becoming zero.
	assert.Panics(t, func() { booking.MustParseMoney("not-money") })
}

func TestPurchaser_UsageKey(t *testing.T) {
	// Guests are keyed by contact so per-user caps apply to them too.
	assert.Equal(t, "user-1", booking.UserPurchaser("user-1").UsageKey())
	assert.Equal(t, "guest:a@b.c", booking.GuestPurchaser("a@b.c").UsageKey())
	assert.True(t, booking.GuestPurchaser("a@b.c").IsGuest())
	assert.False(t, booking.UserPurchaser("user-1").IsGuest())
}

func TestErrorClassification(t *testing.T) {
	capErr := &booking.CapacityError{TripID: "trip-1", Requested: 5, Available: 2}
	assert.True(t, errors.Is(capErr, booking.ErrInsufficientCapacity))
	assert.True(t, booking.IsClientError(capErr))
	assert.False(t, booking.IsFatal(capErr))

	imbalance := &booking.ImbalancedError{TransactionID: "tx-1"}
	assert.True(t, booking.IsFatal(imbalance))
	assert.False(t, booking.IsClientError(imbalance))

	assert.True(t, booking.IsNotFound(booking.ErrTripNotFound))
	assert.False(t, booking.IsNotFound(capErr))
}
