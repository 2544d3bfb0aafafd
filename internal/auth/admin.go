package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"splitmint.org/internal/ids"
	"splitmint.org/internal/obs"
)

const tempPasswordLength = 8

// CreateManagedUser provisions an account under the caller's tenant. The
// new user receives a generated temporary password, mailed when the mail
// collaborator is available.
func (s *Service) CreateManagedUser(ctx context.Context, adminID, name, email, role string) (*User, error) {
	adminID = strings.TrimSpace(adminID)
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if adminID == "" || name == "" || email == "" || role == "" {
		return nil, ErrMissingFields
	}
	if !ValidRole(role) {
		return nil, ErrInvalidRole
	}
	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	tempPassword, err := generateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(tempPassword)
	if err != nil {
		return nil, err
	}
	credits := int64(1)
	user := &User{
		ID:           ids.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		AdminID:      adminID,
		Credits:      &credits,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.mailer.Enabled() {
		body := fmt.Sprintf("You have been invited to Splitmint.\nTemporary password: %s", tempPassword)
		if err := s.mailer.Send(ctx, email, "Your Splitmint account", body); err != nil {
			obs.LogRequest(map[string]any{
				"level": "warn",
				"msg":   "invite mail delivery failed",
				"email": email,
				"error": err.Error(),
			})
		}
	}
	return user, nil
}

// UpdateManagedUser changes name and/or role of a user in the caller's
// tenant.
func (s *Service) UpdateManagedUser(ctx context.Context, adminID, userID string, name, role *string) (*User, error) {
	user, err := s.managedUser(ctx, adminID, userID)
	if err != nil {
		return nil, err
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, ErrMissingFields
		}
		user.Name = trimmed
	}
	if role != nil {
		if !ValidRole(*role) {
			return nil, ErrInvalidRole
		}
		user.Role = *role
	}
	if err := s.store.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteManagedUser removes a user from the caller's tenant. An admin
// cannot delete itself through this path.
func (s *Service) DeleteManagedUser(ctx context.Context, adminID, userID string) error {
	if adminID == strings.TrimSpace(userID) {
		return ErrUnauthorized
	}
	user, err := s.managedUser(ctx, adminID, userID)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, user.ID)
}

// ListManagedUsers returns every account in the caller's tenant.
func (s *Service) ListManagedUsers(ctx context.Context, adminID string) ([]*User, error) {
	adminID = strings.TrimSpace(adminID)
	if adminID == "" {
		return nil, ErrMissingFields
	}
	return s.store.ListByAdmin(ctx, adminID)
}

// managedUser loads a user and checks it belongs to the caller's tenant.
func (s *Service) managedUser(ctx context.Context, adminID, userID string) (*User, error) {
	adminID = strings.TrimSpace(adminID)
	userID = strings.TrimSpace(userID)
	if adminID == "" || userID == "" {
		return nil, ErrMissingFields
	}
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.AdminID != adminID && user.ID != adminID {
		return nil, ErrUnauthorized
	}
	return user, nil
}

const tempPasswordCharset = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"

func generateTempPassword(length int) (string, error) {
	out := make([]byte, length)
	max := big.NewInt(int64(len(tempPasswordCharset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = tempPasswordCharset[n.Int64()]
	}
	return string(out), nil
}
