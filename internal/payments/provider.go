// Package payments wraps the external payment provider. Order creation is
// a fallible network call with at-most-once semantics; callback
// verification is pure HMAC arithmetic and never leaves the process.
package payments

import (
	"context"
	"errors"
)

// Order is the provider-side payment intent returned to the client for
// checkout.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// ErrNotConfigured indicates provider credentials are absent.
var ErrNotConfigured = errors.New("payments: provider is not configured")

// Provider creates orders and verifies callback signatures.
type Provider interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (Order, error)
	// VerifySignature recomputes the callback HMAC over
	// "orderID|paymentID" and compares it in constant time.
	VerifySignature(orderID, paymentID, signature string) bool
}
