// Package credits is the credit ledger: it debits credits for gated
// actions and reconciles provider payment callbacks into balance credits.
package credits

import (
	"context"
	"fmt"
	"sync"
	"time"

	"splitmint.org/internal/obs"
	"splitmint.org/internal/payments"
)

// Store is the balance persistence contract. Both mutations are single
// conditional statements so concurrent requests cannot race past a stale
// read of the counter.
type Store interface {
	// Balance resolves the stored counter; an unset balance counts as
	// one implicit free credit.
	Balance(ctx context.Context, email string) (int64, error)
	// DebitCredit atomically decrements by one, guarded by balance > 0.
	// Fails with ErrInsufficientCredits when the guard does not hold and
	// ErrUserNotFound when no such user exists.
	DebitCredit(ctx context.Context, email string) error
	// AddCredits atomically increments the balance and returns the new
	// value, or ErrUserNotFound.
	AddCredits(ctx context.Context, userID string, quantity int64) (int64, error)
}

// Receipts for retried order creation fall into 15-minute buckets; a
// retry within the bucket replays the original order instead of creating
// a duplicate at the provider.
const receiptBucket = 15 * time.Minute

// Callback is the payload the client relays from the provider after
// checkout. Entirely untrusted until the signature verifies.
type Callback struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
	Credits   int64  `json:"credits"`
}

// Service implements the credit ledger and payment reconciliation.
type Service struct {
	store    Store
	provider payments.Provider
	now      func() time.Time

	mu     sync.Mutex
	recent map[string]payments.Order
}

// Option configures Service.
type Option func(*Service)

// WithProvider enables order creation and callback verification.
func WithProvider(p payments.Provider) Option {
	return func(s *Service) { s.provider = p }
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// New constructs the credit ledger service.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		now:    time.Now,
		recent: make(map[string]payments.Order),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Balance reports the user's effective credit balance.
func (s *Service) Balance(ctx context.Context, email string) (int64, error) {
	return s.store.Balance(ctx, email)
}

// Charge consumes one credit. Callers invoke it only after the gated
// action itself succeeded: a failed action must never consume a credit.
func (s *Service) Charge(ctx context.Context, email string) error {
	if err := s.store.DebitCredit(ctx, email); err != nil {
		return err
	}
	obs.CreditsDebitedTotal.Inc()
	return nil
}

// CreateOrder registers a payment intent for a credit package. The receipt
// is derived deterministically from (user, quantity, time bucket), and an
// in-process replay of a recent identical request returns the original
// order rather than creating a duplicate.
func (s *Service) CreateOrder(ctx context.Context, userID string, quantity int64) (payments.Order, error) {
	price, err := PriceFor(quantity)
	if err != nil {
		return payments.Order{}, err
	}
	if s.provider == nil {
		return payments.Order{}, ErrNotConfigured
	}

	bucket := s.now().UTC().Unix() / int64(receiptBucket.Seconds())
	receipt := fmt.Sprintf("rcpt_%s_%d_%d", userID, quantity, bucket)

	s.mu.Lock()
	if order, ok := s.recent[receipt]; ok {
		s.mu.Unlock()
		return order, nil
	}
	s.mu.Unlock()

	order, err := s.provider.CreateOrder(ctx, price, Currency, receipt)
	if err != nil {
		return payments.Order{}, err
	}

	s.mu.Lock()
	s.recent[receipt] = order
	s.pruneRecentLocked(bucket)
	s.mu.Unlock()

	return order, nil
}

// VerifyAndCredit reconciles a payment callback. The signature check
// short-circuits before any state change, and the credit quantity is
// re-validated against the price table rather than trusted from the
// client.
func (s *Service) VerifyAndCredit(ctx context.Context, userID string, cb Callback) (int64, error) {
	if s.provider == nil {
		return 0, ErrNotConfigured
	}
	if cb.OrderID == "" || cb.PaymentID == "" || cb.Signature == "" {
		return 0, ErrIncompletePayload
	}
	if !s.provider.VerifySignature(cb.OrderID, cb.PaymentID, cb.Signature) {
		return 0, ErrInvalidSignature
	}
	if _, err := PriceFor(cb.Credits); err != nil {
		return 0, err
	}

	balance, err := s.store.AddCredits(ctx, userID, cb.Credits)
	if err != nil {
		return 0, err
	}
	obs.PaymentsVerifiedTotal.Inc()
	return balance, nil
}

// pruneRecentLocked drops replay entries from earlier buckets. Receipts
// embed their bucket, so anything not suffixed with the current one is
// stale.
func (s *Service) pruneRecentLocked(bucket int64) {
	suffix := fmt.Sprintf("_%d", bucket)
	for receipt := range s.recent {
		if len(receipt) < len(suffix) || receipt[len(receipt)-len(suffix):] != suffix {
			delete(s.recent, receipt)
		}
	}
}
