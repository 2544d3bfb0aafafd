package groups

import (
	"context"
	"errors"
	"strings"
	"time"

	"splitmint.org/internal/credits"
	"splitmint.org/internal/ids"
)

// CreditLedger is the slice of the credit service that group creation
// needs: a balance read for the pre-check and a guarded debit afterwards.
type CreditLedger interface {
	Balance(ctx context.Context, email string) (int64, error)
	Charge(ctx context.Context, email string) error
}

// Service owns group lifecycle. Creation is the gated action: it consumes
// one credit from the acting user, debited only after the insert has
// succeeded.
type Service struct {
	store  Store
	ledger CreditLedger
}

// NewService constructs the group service.
func NewService(store Store, ledger CreditLedger) (*Service, error) {
	if store == nil {
		return nil, errors.New("groups: store is required")
	}
	if ledger == nil {
		return nil, errors.New("groups: credit ledger is required")
	}
	return &Service{store: store, ledger: ledger}, nil
}

// CreateInput is the caller-supplied part of a new group.
type CreateInput struct {
	Name         string
	Description  string
	MembersEmail []string
	Thumbnail    string
}

// Create inserts the group and then debits one credit. The balance
// pre-check keeps a broke user from creating the group at all; the debit
// itself is a guarded single-statement update, so two concurrent creates
// cannot both spend the last credit.
func (s *Service) Create(ctx context.Context, adminEmail string, in CreateInput) (*Group, error) {
	adminEmail = strings.TrimSpace(strings.ToLower(adminEmail))
	if adminEmail == "" || strings.TrimSpace(in.Name) == "" {
		return nil, ErrMissingFields
	}

	balance, err := s.ledger.Balance(ctx, adminEmail)
	if err != nil {
		return nil, err
	}
	if balance <= 0 {
		return nil, credits.ErrInsufficientCredits
	}

	group := &Group{
		ID:           ids.New(),
		Name:         strings.TrimSpace(in.Name),
		Description:  strings.TrimSpace(in.Description),
		AdminEmail:   adminEmail,
		MembersEmail: mergeMembers(adminEmail, in.MembersEmail),
		Thumbnail:    in.Thumbnail,
		PaymentStatus: PaymentStatus{
			Amount:   0,
			Currency: credits.Currency,
			Date:     time.Now().UTC(),
			IsPaid:   false,
		},
	}
	if err := s.store.Create(ctx, group); err != nil {
		return nil, err
	}

	// Debit only on confirmed success of the gated action.
	if err := s.ledger.Charge(ctx, adminEmail); err != nil {
		return nil, err
	}
	return group, nil
}

// UpdateInput carries the mutable fields of a group.
type UpdateInput struct {
	GroupID       string
	Name          *string
	Description   *string
	Thumbnail     *string
	PaymentStatus *PaymentStatus
}

// Update applies the provided fields.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*Group, error) {
	if strings.TrimSpace(in.GroupID) == "" {
		return nil, ErrMissingFields
	}
	group, err := s.store.Find(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, ErrMissingFields
		}
		group.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		group.Description = strings.TrimSpace(*in.Description)
	}
	if in.Thumbnail != nil {
		group.Thumbnail = *in.Thumbnail
	}
	if in.PaymentStatus != nil {
		group.PaymentStatus = *in.PaymentStatus
		if in.PaymentStatus.IsPaid {
			settled := time.Now().UTC()
			group.LastSettled = &settled
		}
	}
	if err := s.store.Update(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// AddMembers merges new member emails into the group, deduplicated.
func (s *Service) AddMembers(ctx context.Context, groupID string, emails []string) (*Group, error) {
	group, err := s.store.Find(ctx, groupID)
	if err != nil {
		return nil, err
	}
	group.MembersEmail = mergeMembers(group.AdminEmail, append(group.MembersEmail, emails...))
	if err := s.store.Update(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// RemoveMembers drops member emails from the group. The admin cannot be
// removed.
func (s *Service) RemoveMembers(ctx context.Context, groupID string, emails []string) (*Group, error) {
	group, err := s.store.Find(ctx, groupID)
	if err != nil {
		return nil, err
	}
	drop := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		drop[strings.TrimSpace(strings.ToLower(e))] = struct{}{}
	}
	kept := group.MembersEmail[:0]
	for _, m := range group.MembersEmail {
		if _, gone := drop[m]; gone && m != group.AdminEmail {
			continue
		}
		kept = append(kept, m)
	}
	group.MembersEmail = kept
	if err := s.store.Update(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// ListByMember returns every group the email participates in.
func (s *Service) ListByMember(ctx context.Context, email string) ([]*Group, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, ErrMissingFields
	}
	return s.store.ListByMember(ctx, email)
}

// ListByAdmin returns one page of the admin's groups with pagination
// metadata.
func (s *Service) ListByAdmin(ctx context.Context, adminEmail string, page, limit int) ([]*Group, Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	items, total, err := s.store.ListByAdmin(ctx, strings.TrimSpace(strings.ToLower(adminEmail)), limit, (page-1)*limit)
	if err != nil {
		return nil, Page{}, err
	}
	totalPages := (total + limit - 1) / limit
	return items, Page{
		TotalItems:   total,
		TotalPages:   totalPages,
		CurrentPage:  page,
		ItemsPerPage: limit,
	}, nil
}

// ListByPaymentStatus filters groups by settlement state.
func (s *Service) ListByPaymentStatus(ctx context.Context, isPaid bool) ([]*Group, error) {
	return s.store.ListByPaymentStatus(ctx, isPaid)
}

// LastSettled returns the group's most recent settlement time, if any.
func (s *Service) LastSettled(ctx context.Context, groupID string) (*time.Time, error) {
	group, err := s.store.Find(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return group.LastSettled, nil
}

// mergeMembers dedupes and normalizes member emails, keeping the admin
// first.
func mergeMembers(adminEmail string, emails []string) []string {
	seen := map[string]struct{}{adminEmail: {}}
	out := []string{adminEmail}
	for _, e := range emails {
		e = strings.TrimSpace(strings.ToLower(e))
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
