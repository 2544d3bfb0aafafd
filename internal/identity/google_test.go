package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type testIssuer struct {
	key     *rsa.PrivateKey
	kid     string
	jwksURL string
}

func newTestIssuer(t *testing.T) *testIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	iss := &testIssuer{key: key, kid: "test-key-1"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pub := key.Public().(*rsa.PublicKey)
		doc := map[string]any{
			"keys": []map[string]string{{
				"kid": iss.kid,
				"kty": "RSA",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			}},
		}
		json.NewEncoder(w).Encode(doc)
	}))
	t.Cleanup(srv.Close)
	iss.jwksURL = srv.URL
	return iss
}

type tokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

func (i *testIssuer) mint(t *testing.T, mutate func(*tokenClaims)) string {
	t.Helper()
	claims := tokenClaims{
		Email: "ada@example.com",
		Name:  "Ada",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://accounts.google.com",
			Subject:   "sub-123",
			Audience:  jwt.ClaimStrings{"client-id"},
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	if mutate != nil {
		mutate(&claims)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = i.kid
	signed, err := token.SignedString(i.key)
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func newTestVerifier(t *testing.T, iss *testIssuer) *GoogleVerifier {
	t.Helper()
	v, err := NewGoogleVerifier("client-id", WithCertsURL(iss.jwksURL))
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestGoogleVerify(t *testing.T) {
	iss := newTestIssuer(t)
	v := newTestVerifier(t, iss)

	ident, err := v.Verify(context.Background(), iss.mint(t, nil))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ident.Subject != "sub-123" || ident.Email != "ada@example.com" || ident.Name != "Ada" {
		t.Fatalf("identity = %+v", ident)
	}
}

func TestGoogleVerifyNormalizesEmail(t *testing.T) {
	iss := newTestIssuer(t)
	v := newTestVerifier(t, iss)

	ident, err := v.Verify(context.Background(), iss.mint(t, func(c *tokenClaims) {
		c.Email = " Ada@Example.COM "
	}))
	if err != nil {
		t.Fatal(err)
	}
	if ident.Email != "ada@example.com" {
		t.Fatalf("email = %q", ident.Email)
	}
}

func TestGoogleVerifyRejections(t *testing.T) {
	iss := newTestIssuer(t)
	v := newTestVerifier(t, iss)

	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"wrong audience", iss.mint(t, func(c *tokenClaims) { c.Audience = jwt.ClaimStrings{"other-client"} })},
		{"wrong issuer", iss.mint(t, func(c *tokenClaims) { c.Issuer = "https://evil.example.com" })},
		{"expired", iss.mint(t, func(c *tokenClaims) { c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour)) })},
		{"missing subject", iss.mint(t, func(c *tokenClaims) { c.Subject = "" })},
		{"missing email", iss.mint(t, func(c *tokenClaims) { c.Email = "" })},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := v.Verify(context.Background(), tc.token); err != ErrInvalidToken {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestGoogleVerifyUnknownKey(t *testing.T) {
	iss := newTestIssuer(t)
	v := newTestVerifier(t, iss)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	other := &testIssuer{key: otherKey, kid: "unknown-kid"}
	if _, err := v.Verify(context.Background(), other.mint(t, nil)); err != ErrInvalidToken {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}
