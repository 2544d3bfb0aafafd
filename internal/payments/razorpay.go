package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.razorpay.com"

// Razorpay is the HTTP client for the Razorpay orders API. Amounts are in
// minor currency units (paise for INR).
type Razorpay struct {
	keyID     string
	keySecret []byte
	baseURL   string
	client    *http.Client
}

// RazorpayOption configures the client.
type RazorpayOption func(*Razorpay)

// WithBaseURL overrides the API endpoint (used in tests).
func WithBaseURL(url string) RazorpayOption {
	return func(r *Razorpay) {
		if url != "" {
			r.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) RazorpayOption {
	return func(r *Razorpay) {
		if c != nil {
			r.client = c
		}
	}
}

// NewRazorpay constructs the provider client from key credentials.
func NewRazorpay(keyID, keySecret string, opts ...RazorpayOption) (*Razorpay, error) {
	keyID = strings.TrimSpace(keyID)
	keySecret = strings.TrimSpace(keySecret)
	if keyID == "" || keySecret == "" {
		return nil, ErrNotConfigured
	}
	r := &Razorpay{
		keyID:     keyID,
		keySecret: []byte(keySecret),
		baseURL:   defaultBaseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder registers a payment intent with the provider. No automatic
// retry: a failure surfaces immediately to the caller.
func (r *Razorpay) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (Order, error) {
	if amount <= 0 {
		return Order{}, errors.New("payments: amount must be positive")
	}
	payload, err := json.Marshal(createOrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return Order{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return Order{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(r.keyID, string(r.keySecret))

	resp, err := r.client.Do(req)
	if err != nil {
		return Order{}, fmt.Errorf("payments: create order: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Order{}, fmt.Errorf("payments: read order response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Order{}, fmt.Errorf("payments: create order: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return Order{}, fmt.Errorf("payments: decode order response: %w", err)
	}
	if order.ID == "" {
		return Order{}, errors.New("payments: order response missing id")
	}
	return order, nil
}

// VerifySignature checks the hex-encoded HMAC-SHA256 the provider computes
// over "orderID|paymentID" with the shared key secret.
func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, r.keySecret)
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
