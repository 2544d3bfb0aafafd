package auth

import "context"

// UserStore describes the persistence contract required by the session,
// reset and managed-user flows. Implementations live in internal/store/pg.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	// Save persists every mutable field of an existing user.
	Save(ctx context.Context, u *User) error
	ListByAdmin(ctx context.Context, adminID string) ([]*User, error)
	Delete(ctx context.Context, id string) error
}
