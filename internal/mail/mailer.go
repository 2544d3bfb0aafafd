// Package mail is the outbound mail collaborator. The core treats it as a
// simple send contract; delivery failure is surfaced, never swallowed.
package mail

import (
	"context"
	"errors"
)

// ErrDisabled indicates no mail transport is configured.
var ErrDisabled = errors.New("mail: service is not configured")

// Mailer dispatches plain-text mail. Enabled lets callers refuse work
// up-front (the reset flow must not issue an OTP it cannot deliver).
type Mailer interface {
	Enabled() bool
	Send(ctx context.Context, to, subject, body string) error
}

// Disabled is the null mailer used when no credentials are present.
type Disabled struct{}

func (Disabled) Enabled() bool { return false }

func (Disabled) Send(context.Context, string, string, string) error { return ErrDisabled }
