package groups

import (
	"context"
	"errors"
	"testing"

	"splitmint.org/internal/credits"
)

// memGroupStore is an in-memory Store for service tests.
type memGroupStore struct {
	groups map[string]*Group
}

func newMemGroupStore() *memGroupStore {
	return &memGroupStore{groups: map[string]*Group{}}
}

func (s *memGroupStore) Create(_ context.Context, g *Group) error {
	cp := *g
	s.groups[g.ID] = &cp
	return nil
}

func (s *memGroupStore) Find(_ context.Context, id string) (*Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *memGroupStore) Update(_ context.Context, g *Group) error {
	if _, ok := s.groups[g.ID]; !ok {
		return ErrNotFound
	}
	cp := *g
	s.groups[g.ID] = &cp
	return nil
}

func (s *memGroupStore) ListByMember(_ context.Context, email string) ([]*Group, error) {
	var out []*Group
	for _, g := range s.groups {
		for _, m := range g.MembersEmail {
			if m == email {
				cp := *g
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (s *memGroupStore) ListByAdmin(_ context.Context, adminEmail string, limit, offset int) ([]*Group, int, error) {
	var all []*Group
	for _, g := range s.groups {
		if g.AdminEmail == adminEmail {
			cp := *g
			all = append(all, &cp)
		}
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *memGroupStore) ListByPaymentStatus(_ context.Context, isPaid bool) ([]*Group, error) {
	var out []*Group
	for _, g := range s.groups {
		if g.PaymentStatus.IsPaid == isPaid {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

// stubLedger counts debits against a single balance.
type stubLedger struct {
	balance int64
	charges int
}

func (l *stubLedger) Balance(context.Context, string) (int64, error) {
	return l.balance, nil
}

func (l *stubLedger) Charge(context.Context, string) error {
	if l.balance <= 0 {
		return credits.ErrInsufficientCredits
	}
	l.balance--
	l.charges++
	return nil
}

func newTestGroupService(t *testing.T, store Store, ledger CreditLedger) *Service {
	t.Helper()
	svc, err := NewService(store, ledger)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreateConsumesOneCredit(t *testing.T) {
	ledger := &stubLedger{balance: 1}
	svc := newTestGroupService(t, newMemGroupStore(), ledger)

	g, err := svc.Create(context.Background(), "Ada@Example.com", CreateInput{
		Name:         "Trip",
		MembersEmail: []string{"bob@example.com", "ADA@example.com", "bob@example.com"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ledger.charges != 1 || ledger.balance != 0 {
		t.Fatalf("charges = %d balance = %d", ledger.charges, ledger.balance)
	}
	if g.AdminEmail != "ada@example.com" {
		t.Fatalf("admin email = %q", g.AdminEmail)
	}
	// Admin first, deduped, lowercased.
	want := []string{"ada@example.com", "bob@example.com"}
	if len(g.MembersEmail) != len(want) || g.MembersEmail[0] != want[0] || g.MembersEmail[1] != want[1] {
		t.Fatalf("members = %v", g.MembersEmail)
	}
	if g.PaymentStatus.IsPaid || g.PaymentStatus.Currency != credits.Currency {
		t.Fatalf("payment status = %+v", g.PaymentStatus)
	}

	// The credit is spent: the next create must be rejected up-front.
	if _, err := svc.Create(context.Background(), "ada@example.com", CreateInput{Name: "Second"}); !errors.Is(err, credits.ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}
	if ledger.charges != 1 {
		t.Fatal("rejected create must not charge")
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestGroupService(t, newMemGroupStore(), &stubLedger{balance: 5})
	if _, err := svc.Create(context.Background(), "", CreateInput{Name: "X"}); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("empty admin: err = %v", err)
	}
	if _, err := svc.Create(context.Background(), "a@example.com", CreateInput{Name: "  "}); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("empty name: err = %v", err)
	}
}

func TestUpdateSettlement(t *testing.T) {
	store := newMemGroupStore()
	svc := newTestGroupService(t, store, &stubLedger{balance: 5})
	g, err := svc.Create(context.Background(), "ada@example.com", CreateInput{Name: "Trip"})
	if err != nil {
		t.Fatal(err)
	}

	paid := PaymentStatus{Amount: 4200, Currency: credits.Currency, IsPaid: true}
	updated, err := svc.Update(context.Background(), UpdateInput{GroupID: g.ID, PaymentStatus: &paid})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.PaymentStatus.IsPaid {
		t.Fatal("payment status not applied")
	}
	if updated.LastSettled == nil {
		t.Fatal("settling must stamp LastSettled")
	}

	settled, err := svc.LastSettled(context.Background(), g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if settled == nil || !settled.Equal(*updated.LastSettled) {
		t.Fatalf("LastSettled = %v", settled)
	}
}

func TestUpdateUnknownGroup(t *testing.T) {
	svc := newTestGroupService(t, newMemGroupStore(), &stubLedger{balance: 5})
	name := "New"
	if _, err := svc.Update(context.Background(), UpdateInput{GroupID: "ghost", Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMembershipMutations(t *testing.T) {
	store := newMemGroupStore()
	svc := newTestGroupService(t, store, &stubLedger{balance: 5})
	g, err := svc.Create(context.Background(), "ada@example.com", CreateInput{Name: "Trip"})
	if err != nil {
		t.Fatal(err)
	}

	g, err = svc.AddMembers(context.Background(), g.ID, []string{"Bob@Example.com", "carol@example.com", "bob@example.com"})
	if err != nil {
		t.Fatalf("AddMembers: %v", err)
	}
	if len(g.MembersEmail) != 3 {
		t.Fatalf("members = %v", g.MembersEmail)
	}

	g, err = svc.RemoveMembers(context.Background(), g.ID, []string{"bob@example.com", "ada@example.com"})
	if err != nil {
		t.Fatalf("RemoveMembers: %v", err)
	}
	// The admin is never removed.
	if len(g.MembersEmail) != 2 || g.MembersEmail[0] != "ada@example.com" {
		t.Fatalf("members = %v", g.MembersEmail)
	}
}

func TestListByAdminPagination(t *testing.T) {
	store := newMemGroupStore()
	svc := newTestGroupService(t, store, &stubLedger{balance: 100})
	for i := 0; i < 25; i++ {
		if _, err := svc.Create(context.Background(), "ada@example.com", CreateInput{Name: "G"}); err != nil {
			t.Fatal(err)
		}
	}

	items, page, err := svc.ListByAdmin(context.Background(), "ada@example.com", 2, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 10 {
		t.Fatalf("len = %d, want 10", len(items))
	}
	if page.TotalItems != 25 || page.TotalPages != 3 || page.CurrentPage != 2 || page.ItemsPerPage != 10 {
		t.Fatalf("page = %+v", page)
	}

	// Out-of-range inputs fall back to defaults.
	items, page, err = svc.ListByAdmin(context.Background(), "ada@example.com", 0, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if page.CurrentPage != 1 || page.ItemsPerPage != 10 || len(items) != 10 {
		t.Fatalf("defaults not applied: %+v len=%d", page, len(items))
	}
}
