package credits

import "errors"

var (
	ErrInsufficientCredits = errors.New("credits: insufficient credits")
	ErrInvalidCreditValue  = errors.New("credits: invalid credit value")
	ErrIncompletePayload   = errors.New("credits: incomplete payment details")
	ErrInvalidSignature    = errors.New("credits: invalid transaction signature")
	ErrUserNotFound        = errors.New("credits: user not found")
	ErrNotConfigured       = errors.New("credits: payments are not configured")
)
