package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewRazorpayRequiresCredentials(t *testing.T) {
	if _, err := NewRazorpay("", "secret"); err != ErrNotConfigured {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
	if _, err := NewRazorpay("key", ""); err != ErrNotConfigured {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/orders" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key_id" || pass != "key_secret" {
			t.Error("missing or wrong basic auth")
		}
		var req struct {
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
			Receipt  string `json:"receipt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Amount != 39900 || req.Currency != "INR" {
			t.Errorf("request = %+v", req)
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(Order{
			ID:       "order_abc",
			Amount:   req.Amount,
			Currency: req.Currency,
			Receipt:  req.Receipt,
		})
	}))
	defer srv.Close()

	client, err := NewRazorpay("key_id", "key_secret", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	order, err := client.CreateOrder(context.Background(), 39900, "INR", "rcpt_1")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.ID != "order_abc" || order.Receipt != "rcpt_1" {
		t.Fatalf("order = %+v", order)
	}
}

func TestCreateOrderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewRazorpay("key_id", "key_secret", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.CreateOrder(context.Background(), 100, "INR", "rcpt"); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestVerifySignature(t *testing.T) {
	client, err := NewRazorpay("key_id", "key_secret")
	if err != nil {
		t.Fatal(err)
	}

	mac := hmac.New(sha256.New, []byte("key_secret"))
	mac.Write([]byte("order_1|pay_1"))
	valid := hex.EncodeToString(mac.Sum(nil))

	if !client.VerifySignature("order_1", "pay_1", valid) {
		t.Fatal("valid signature rejected")
	}

	// Any single flipped byte must fail.
	flipped := []byte(valid)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}
	if client.VerifySignature("order_1", "pay_1", string(flipped)) {
		t.Fatal("tampered signature accepted")
	}

	if client.VerifySignature("order_1", "pay_2", valid) {
		t.Fatal("signature bound to a different payment accepted")
	}
	if client.VerifySignature("", "pay_1", valid) || client.VerifySignature("order_1", "", valid) || client.VerifySignature("order_1", "pay_1", "") {
		t.Fatal("empty fields must never verify")
	}
}
