/*
gateway.go - External payment gateway contract

PURPOSE:
  The gateway is an external collaborator; only its charge/decline
  semantics matter here. Implementations are injected into the
  orchestrator - never reached through ambient globals - so tests swap in
  fakes and deployments swap in real clients.

DECLINE SANITIZATION:
  Gateway reason codes map to a small set of user-facing strings. The
  internal code never reaches the client.
*/
package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/transitline/booking-engine/booking"
)

// =============================================================================
// CONTRACT
// =============================================================================

// ChargeResult is a successful capture.
type ChargeResult struct {
	Ref string // gateway transaction reference
}

// Gateway is the external payment processor.
type Gateway interface {
	// Charge captures amountMinor against the card token. A decline is
	// returned as a *DeclineError.
	Charge(ctx context.Context, amountMinor int64, cardToken string) (*ChargeResult, error)

	// Refund returns amountMinor of a previous capture.
	Refund(ctx context.Context, gatewayRef string, amountMinor int64) error
}

// DeclineError carries the gateway's internal reason code. Code is for
// logs and reconciliation; Message() is the only text shown to users.
type DeclineError struct {
	Code string
}

func (e *DeclineError) Error() string {
	return fmt.Sprintf("gateway declined charge: %s", e.Code)
}

func (e *DeclineError) Unwrap() error { return booking.ErrPaymentDeclined }

// declineMessages maps gateway reason codes to user-facing strings.
var declineMessages = map[string]string{
	"card_declined":      "card declined",
	"insufficient_funds": "insufficient funds",
	"expired_card":       "card expired",
	"invalid_token":      "card declined",
}

// Message returns the sanitized, user-facing decline text.
func (e *DeclineError) Message() string {
	if msg, ok := declineMessages[e.Code]; ok {
		return msg
	}
	return "payment was declined"
}

// =============================================================================
// SANDBOX GATEWAY - Deterministic implementation for dev and tests
// =============================================================================

// SandboxGateway approves every charge except tokens that encode a
// decline: "tok_declined_<code>" declines with that code, and anything
// not prefixed with "tok_" declines as an invalid token.
type SandboxGateway struct{}

func NewSandboxGateway() *SandboxGateway { return &SandboxGateway{} }

func (g *SandboxGateway) Charge(_ context.Context, amountMinor int64, cardToken string) (*ChargeResult, error) {
	if amountMinor <= 0 {
		return nil, fmt.Errorf("%w: non-positive charge amount", booking.ErrInvalidArgument)
	}
	if code, ok := strings.CutPrefix(cardToken, "tok_declined_"); ok {
		return nil, &DeclineError{Code: code}
	}
	if !strings.HasPrefix(cardToken, "tok_") {
		return nil, &DeclineError{Code: "invalid_token"}
	}
	return &ChargeResult{Ref: "sbx_" + uuid.NewString()}, nil
}

func (g *SandboxGateway) Refund(_ context.Context, gatewayRef string, amountMinor int64) error {
	if gatewayRef == "" || amountMinor <= 0 {
		return fmt.Errorf("%w: refund requires a gateway ref and positive amount", booking.ErrInvalidArgument)
	}
	return nil
}
