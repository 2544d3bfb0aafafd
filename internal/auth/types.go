package auth

import "time"

// Roles form a closed enum; every user carries exactly one.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleViewer  = "viewer"
)

// DefaultRole is assigned at registration and backfilled on first login
// for legacy records that predate role support.
const DefaultRole = RoleAdmin

// User is the identity and security state persisted per account.
//
// PasswordHash is empty for Google-only accounts; such accounts must carry
// a GoogleID. Credits is a pointer: nil marks a legacy record whose unset
// balance counts as one implicit free credit.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	GoogleID     string `json:"-"`

	Role    string `json:"role"`
	AdminID string `json:"adminId"`

	Credits *int64 `json:"credits,omitempty"`

	// Ephemeral password-reset state. ResetOTP and ResetOTPExpiry are
	// both set or both cleared; never one without the other.
	ResetOTP             string    `json:"-"`
	ResetOTPExpiry       time.Time `json:"-"`
	ResetLastRequestedAt time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreditBalance resolves the stored counter, treating an unset balance as
// the single free trial credit granted to legacy accounts.
func (u *User) CreditBalance() int64 {
	if u.Credits == nil {
		return 1
	}
	return *u.Credits
}

// FederatedOnly reports whether the account can only sign in through its
// external identity provider.
func (u *User) FederatedOnly() bool {
	return u.GoogleID != "" && u.PasswordHash == ""
}
