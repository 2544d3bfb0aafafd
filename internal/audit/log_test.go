package audit

import (
	"context"
	"testing"

	"splitmint.org/internal/auth"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("request id = %q", got)
	}
}

func TestRequestIDEmptyIgnored(t *testing.T) {
	ctx := WithRequestID(context.Background(), "   ")
	if got := RequestIDFromContext(ctx); got != "" {
		t.Fatalf("request id = %q, want empty", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("bare context id = %q, want empty", got)
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for empty event name")
	}
}

func TestLogEventWithPrincipal(t *testing.T) {
	ctx := auth.ContextWithPrincipal(context.Background(), auth.Principal{
		UserID: "u1", Role: auth.RoleAdmin,
	})
	ctx = WithRequestID(ctx, "req-2")
	if err := LogEvent(ctx, "auth.login", map[string]any{"email": "ada@example.com"}); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}
}
