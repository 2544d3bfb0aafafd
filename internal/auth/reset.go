package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"
)

const (
	resetCooldown  = 2 * time.Minute
	resetOTPExpiry = 10 * time.Minute
)

// RequestReset generates a one-time code and mails it to the account
// owner. The cooldown is enforced before anything else mutates, and no
// code is generated when the mail collaborator cannot deliver it.
func (s *Service) RequestReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return ErrMissingFields
	}
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	if !user.ResetLastRequestedAt.IsZero() && now.Sub(user.ResetLastRequestedAt) < resetCooldown {
		return ErrRateLimited
	}
	if !s.mailer.Enabled() {
		return ErrMailNotConfigured
	}

	otp, err := generateOTP()
	if err != nil {
		return err
	}
	user.ResetOTP = otp
	user.ResetOTPExpiry = now.Add(resetOTPExpiry)
	user.ResetLastRequestedAt = now
	if err := s.store.Save(ctx, user); err != nil {
		return err
	}

	body := fmt.Sprintf("Your OTP is %s", otp)
	if err := s.mailer.Send(ctx, user.Email, "Password Reset OTP", body); err != nil {
		return errors.Join(ErrMailUnavailable, err)
	}
	return nil
}

// ConfirmReset consumes a one-time code and replaces the password hash.
// The stored code must match exactly and be unexpired; success clears all
// OTP state so a code can never be reused.
func (s *Service) ConfirmReset(ctx context.Context, email, otp, newPassword string) error {
	email = NormalizeEmail(email)
	if email == "" || otp == "" || newPassword == "" {
		return ErrMissingFields
	}
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	if user.ResetOTP == "" || user.ResetOTPExpiry.IsZero() {
		return ErrInvalidOTP
	}
	if subtle.ConstantTimeCompare([]byte(user.ResetOTP), []byte(otp)) != 1 {
		return ErrInvalidOTP
	}
	if s.now().UTC().After(user.ResetOTPExpiry) {
		return ErrInvalidOTP
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.ResetOTP = ""
	user.ResetOTPExpiry = time.Time{}
	return s.store.Save(ctx, user)
}

// generateOTP returns a uniformly random 6-digit numeric code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
