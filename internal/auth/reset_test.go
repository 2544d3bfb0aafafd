package auth

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"
)

var otpPattern = regexp.MustCompile(`\b(\d{6})\b`)

func lastOTP(t *testing.T, m *recordingMailer) string {
	t.Helper()
	if len(m.sent) == 0 {
		t.Fatal("no mail sent")
	}
	match := otpPattern.FindStringSubmatch(m.sent[len(m.sent)-1])
	if match == nil {
		t.Fatalf("no OTP in mail body %q", m.sent[len(m.sent)-1])
	}
	return match[1]
}

func TestRequestResetRequiresMailer(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	registerUser(t, svc, "Ada", "ada@example.com", "s3cret")

	if err := svc.RequestReset(context.Background(), "ada@example.com"); !errors.Is(err, ErrMailNotConfigured) {
		t.Fatalf("err = %v, want ErrMailNotConfigured", err)
	}
	// No code may be generated when it cannot be delivered.
	u, _ := store.FindByEmail(context.Background(), "ada@example.com")
	if u.ResetOTP != "" {
		t.Fatal("OTP must not be stored when mail is unavailable")
	}
}

func TestResetFlow(t *testing.T) {
	current := time.Now()
	mailer := &recordingMailer{enabled: true}
	store := newMemStore()
	svc := newTestService(t, store, WithMailer(mailer), WithClock(func() time.Time { return current }))
	registerUser(t, svc, "Ada", "ada@example.com", "s3cret")

	if err := svc.RequestReset(context.Background(), "ada@example.com"); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	otp := lastOTP(t, mailer)

	if err := svc.ConfirmReset(context.Background(), "ada@example.com", otp, "newpw"); err != nil {
		t.Fatalf("ConfirmReset: %v", err)
	}
	if _, err := svc.Login(context.Background(), "ada@example.com", "newpw"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := svc.Login(context.Background(), "ada@example.com", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("old password must stop working")
	}

	// Single use: the consumed code is gone.
	if err := svc.ConfirmReset(context.Background(), "ada@example.com", otp, "again"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("reused OTP: err = %v", err)
	}
}

func TestRequestResetCooldown(t *testing.T) {
	current := time.Now()
	mailer := &recordingMailer{enabled: true}
	svc := newTestService(t, newMemStore(), WithMailer(mailer), WithClock(func() time.Time { return current }))
	registerUser(t, svc, "Ada", "ada@example.com", "s3cret")

	if err := svc.RequestReset(context.Background(), "ada@example.com"); err != nil {
		t.Fatal(err)
	}
	if err := svc.RequestReset(context.Background(), "ada@example.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("within cooldown: err = %v", err)
	}

	current = current.Add(resetCooldown + time.Second)
	if err := svc.RequestReset(context.Background(), "ada@example.com"); err != nil {
		t.Fatalf("after cooldown: %v", err)
	}
}

func TestConfirmResetRejectsExpiredOTP(t *testing.T) {
	current := time.Now()
	mailer := &recordingMailer{enabled: true}
	svc := newTestService(t, newMemStore(), WithMailer(mailer), WithClock(func() time.Time { return current }))
	registerUser(t, svc, "Ada", "ada@example.com", "s3cret")

	if err := svc.RequestReset(context.Background(), "ada@example.com"); err != nil {
		t.Fatal(err)
	}
	otp := lastOTP(t, mailer)

	current = current.Add(resetOTPExpiry + time.Second)
	if err := svc.ConfirmReset(context.Background(), "ada@example.com", otp, "newpw"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expired OTP: err = %v", err)
	}
}

func TestConfirmResetRejectsWrongOTP(t *testing.T) {
	mailer := &recordingMailer{enabled: true}
	svc := newTestService(t, newMemStore(), WithMailer(mailer))
	registerUser(t, svc, "Ada", "ada@example.com", "s3cret")

	if err := svc.RequestReset(context.Background(), "ada@example.com"); err != nil {
		t.Fatal(err)
	}
	if err := svc.ConfirmReset(context.Background(), "ada@example.com", "000000", "newpw"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("wrong OTP: err = %v", err)
	}
	// Without any pending request there is nothing to match.
	if err := svc.ConfirmReset(context.Background(), "ada@example.com", "", "newpw"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("empty OTP: err = %v", err)
	}
}

func TestRequestResetMailDeliveryFailure(t *testing.T) {
	mailer := &recordingMailer{enabled: true, sendErr: errors.New("smtp down")}
	svc := newTestService(t, newMemStore(), WithMailer(mailer))
	registerUser(t, svc, "Ada", "ada@example.com", "s3cret")

	err := svc.RequestReset(context.Background(), "ada@example.com")
	if !errors.Is(err, ErrMailUnavailable) {
		t.Fatalf("err = %v, want ErrMailUnavailable", err)
	}
}

func TestGenerateOTPRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		otp, err := generateOTP()
		if err != nil {
			t.Fatal(err)
		}
		if len(otp) != 6 || otp[0] == '0' {
			t.Fatalf("otp %q out of range", otp)
		}
	}
}
