package groups

import "context"

// Store is the group persistence contract implemented in
// internal/store/pg.
type Store interface {
	Create(ctx context.Context, g *Group) error
	Find(ctx context.Context, id string) (*Group, error)
	Update(ctx context.Context, g *Group) error
	ListByMember(ctx context.Context, email string) ([]*Group, error)
	// ListByAdmin returns one page of the admin's groups plus the total
	// count.
	ListByAdmin(ctx context.Context, adminEmail string, limit, offset int) ([]*Group, int, error)
	ListByPaymentStatus(ctx context.Context, isPaid bool) ([]*Group, error)
}
