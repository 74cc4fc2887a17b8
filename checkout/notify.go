/*
notify.go - Post-commit notification capability

Notification dispatch is an injected interface, not a swappable module
function: tests and deployments choose the implementation at construction
time. Delivery is best-effort and runs only after commit - a notification
failure never unwinds a purchase.
*/
package checkout

import (
	"context"
	"log"

	"github.com/transitline/booking-engine/booking"
)

// Receipt is everything a confirmation message needs.
type Receipt struct {
	Transaction *booking.Transaction
	Tickets     []booking.Ticket
	AmountMinor int64
}

// Notifier delivers purchase confirmations.
type Notifier interface {
	PurchaseConfirmed(ctx context.Context, r *Receipt) error
}

// LogNotifier writes confirmations to the process log.
type LogNotifier struct{}

func (LogNotifier) PurchaseConfirmed(_ context.Context, r *Receipt) error {
	log.Printf("purchase confirmed: transaction=%s tickets=%d amount_minor=%d",
		r.Transaction.ID, len(r.Tickets), r.AmountMinor)
	return nil
}

// NopNotifier drops confirmations. Useful in tests.
type NopNotifier struct{}

func (NopNotifier) PurchaseConfirmed(context.Context, *Receipt) error { return nil }
