package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"splitmint.org/internal/identity"
	"splitmint.org/internal/ids"
	"splitmint.org/internal/mail"
)

// Service orchestrates the session lifecycle: credential and federated
// login, registration, silent renewal and the password-reset flow. It is
// stateless per request; all session state lives in the signed tokens plus
// a durable read of the user store.
type Service struct {
	store    UserStore
	tokens   *TokenService
	verifier identity.Verifier
	mailer   mail.Mailer
	now      func() time.Time
}

// ServiceOption configures Service.
type ServiceOption func(*Service)

// WithIdentityVerifier enables federated (Google) login.
func WithIdentityVerifier(v identity.Verifier) ServiceOption {
	return func(s *Service) { s.verifier = v }
}

// WithMailer sets the outbound mail collaborator used by the reset flow
// and managed-user invitations.
func WithMailer(m mail.Mailer) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.mailer = m
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the session service.
func NewService(store UserStore, tokens *TokenService, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: user store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token service is required")
	}
	s := &Service{
		store:  store,
		tokens: tokens,
		mailer: mail.Disabled{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Tokens exposes the underlying token service (cookie max-ages in the HTTP
// layer must match the token lifetimes).
func (s *Service) Tokens() *TokenService { return s.tokens }

// Session is the result of a successful login or federated login.
type Session struct {
	User             *User
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Login authenticates an email/password pair and issues both tokens.
// A missing user and a wrong password produce the same error so the
// response never reveals whether the email exists.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.FederatedOnly() {
		return nil, ErrFederatedOnly
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	s.applyDefaults(user)
	return s.mintSession(user)
}

// Register creates a password account with the default role and one free
// credit.
func (s *Service) Register(ctx context.Context, name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	credits := int64(1)
	user := &User{
		ID:           ids.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         DefaultRole,
		Credits:      &credits,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GoogleLogin verifies a Google ID token and signs the user in, creating
// the account on first sight of the email.
func (s *Service) GoogleLogin(ctx context.Context, idToken string) (*Session, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, ErrMissingToken
	}
	if s.verifier == nil {
		return nil, ErrNotConfigured
	}
	ident, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	user, err := s.store.FindByEmail(ctx, ident.Email)
	switch {
	case errors.Is(err, ErrNotFound):
		credits := int64(1)
		user = &User{
			ID:       ids.New(),
			Name:     ident.Name,
			Email:    ident.Email,
			GoogleID: ident.Subject,
			Role:     DefaultRole,
			Credits:  &credits,
		}
		if err := s.store.Create(ctx, user); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	s.applyDefaults(user)
	return s.mintSession(user)
}

// RenewResult reports the outcome of the silent-renewal state machine.
// AccessToken is empty when the presented access token was still valid and
// no new cookie needs to be set.
type RenewResult struct {
	User            *User
	AccessToken     string
	AccessExpiresAt time.Time
}

// Renew implements the per-request session state machine: a valid access
// token authorizes directly; otherwise a valid refresh token forces a
// fresh read of the user and mints a new access token. An expired access
// token is never surfaced as an error unless the refresh path also fails.
func (s *Service) Renew(ctx context.Context, accessToken, refreshToken string) (*RenewResult, error) {
	if accessToken != "" {
		if claims, err := s.tokens.VerifyAccess(accessToken); err == nil {
			return &RenewResult{User: &User{
				ID:      claims.UserID,
				Name:    claims.Name,
				Email:   claims.Email,
				Role:    claims.Role,
				AdminID: claims.AdminID,
			}}, nil
		}
		// Invalid or expired: fall through to the refresh path.
	}

	if refreshToken == "" {
		return nil, ErrNotAuthenticated
	}
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, ErrNotAuthenticated
	}
	user, err := s.store.FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.applyDefaults(user)

	token, exp, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	return &RenewResult{User: user, AccessToken: token, AccessExpiresAt: exp}, nil
}

func (s *Service) mintSession(user *User) (*Session, error) {
	access, accessExp, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, err
	}
	return &Session{
		User:             user,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// applyDefaults backfills role and adminId for records created before
// those fields existed. Deliberately lazy: the defaults take effect at
// login rather than registration, and are not persisted here.
func (s *Service) applyDefaults(u *User) {
	if u.Role == "" {
		u.Role = DefaultRole
	}
	if u.AdminID == "" {
		u.AdminID = u.ID
	}
}

// NormalizeEmail lower-cases and trims the immutable lookup key.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
