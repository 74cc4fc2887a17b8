/*
ledger.go - Transaction ledger with the balance invariant

PURPOSE:
  The Ledger owns the lifecycle of a purchase transaction: begin an
  uncommitted shell, append typed line items, and commit only when the
  double-entry arithmetic balances.

CRITICAL INVARIANTS:
  1. AUDITABLE: transactions and items are never deleted on failure -
     an uncommitted transaction with failed tickets IS the audit record.
  2. BALANCED: commit requires total debits == total credits exactly.
  3. MONOTONIC: committed goes false -> true once and never back.

BALANCE CONVENTION:
  ticketSale lines are debits (gross fare). discount and payment lines are
  credits. A refund transaction debits refund and credits payment (the
  gateway refund), so it balances the same way.

SEE ALSO:
  - store.go: TransactionStore interface
  - checkout: the orchestrator driving begin/addItem/commit
*/
package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	store TransactionStore
}

func NewLedger(store TransactionStore) *Ledger {
	return &Ledger{store: store}
}

// Begin creates and persists an uncommitted transaction with no items.
// The session token is stored against the transaction at creation so the
// access broker can verify guest retrieval later.
func (l *Ledger) Begin(ctx context.Context, purchaser Purchaser, sessionToken string) (*Transaction, error) {
	tx := &Transaction{
		ID:           TransactionID(uuid.NewString()),
		Purchaser:    purchaser,
		SessionToken: sessionToken,
		Committed:    false,
		CreatedAt:    time.Now().UTC(),
	}
	if err := l.store.SaveTransaction(ctx, *tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// AddItem appends one typed line item to an uncommitted transaction.
func (l *Ledger) AddItem(ctx context.Context, tx *Transaction, itemType ItemType, itemID string, debit, credit Money) error {
	if tx.Committed {
		return ErrAlreadyCommitted
	}
	item := TransactionItem{
		ID:            uuid.NewString(),
		TransactionID: tx.ID,
		Type:          itemType,
		ItemID:        itemID,
		Debit:         debit,
		Credit:        credit,
		CreatedAt:     time.Now().UTC(),
	}
	if err := l.store.AppendItems(ctx, tx.ID, []TransactionItem{item}); err != nil {
		return err
	}
	tx.Items = append(tx.Items, item)
	return nil
}

// Commit marks the transaction committed if and only if the balance
// invariant holds. On imbalance the transaction is left uncommitted -
// together with its items it persists as the audit trail - and an
// ImbalancedError is returned.
func (l *Ledger) Commit(ctx context.Context, tx *Transaction) error {
	if tx.Committed {
		return ErrAlreadyCommitted
	}
	if !tx.Balanced() {
		return &ImbalancedError{
			TransactionID: tx.ID,
			Debit:         tx.TotalDebit(),
			Credit:        tx.TotalCredit(),
		}
	}
	if err := l.store.MarkCommitted(ctx, tx.ID); err != nil {
		return err
	}
	tx.Committed = true
	return nil
}
