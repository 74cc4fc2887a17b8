/*
broker.go - Ticket access broker

PURPOSE:
  Issues the retrieval credential bound to a transaction at creation, and
  verifies it on ticket retrieval. The token is the uniform access path
  for both logged-in and guest purchasers.

SECURITY:
  Tokens are 32 bytes of crypto/rand, hex-encoded. Verification is a
  constant-time comparison; any mismatch - including truncated or
  near-miss tokens - yields booking.ErrForbidden, never a partial grant.
*/
package checkout

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/transitline/booking-engine/booking"
)

// AccessBroker issues and verifies transaction session tokens.
type AccessBroker struct {
	store booking.TransactionStore
}

func NewAccessBroker(store booking.TransactionStore) *AccessBroker {
	return &AccessBroker{store: store}
}

// Issue generates a fresh high-entropy session token. The caller stores
// it against the transaction at creation time (booking.Ledger.Begin).
func (b *AccessBroker) Issue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token generation: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Verify grants access when the supplied token matches the one stored
// against the transaction exactly.
func (b *AccessBroker) Verify(ctx context.Context, id booking.TransactionID, token string) error {
	tx, err := b.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if tx.SessionToken == "" || token == "" {
		return booking.ErrForbidden
	}
	if len(token) != len(tx.SessionToken) {
		return booking.ErrForbidden
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(tx.SessionToken)) != 1 {
		return booking.ErrForbidden
	}
	return nil
}
