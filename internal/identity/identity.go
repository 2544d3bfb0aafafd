// Package identity verifies tokens minted by external identity providers.
package identity

import (
	"context"
	"errors"
)

// Identity is the subset of provider claims the session layer needs. Both
// Subject and Email are mandatory; a token lacking either is rejected.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// ErrInvalidToken indicates the provider token failed verification.
var ErrInvalidToken = errors.New("identity: invalid token")

// Verifier validates a provider-issued ID token against the configured
// audience and returns the embedded identity.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (Identity, error)
}
