package pg

import (
	"context"
	"database/sql"
	"encoding/json"

	"splitmint.org/internal/groups"
	"splitmint.org/internal/ids"
)

var _ groups.Store = (*Groups)(nil)

// Groups persists shared-expense groups. Membership is stored as a jsonb
// array of emails.
type Groups struct {
	db *sql.DB
}

// NewGroups constructs the group repository.
func NewGroups(db *sql.DB) *Groups {
	return &Groups{db: db}
}

const groupColumns = `id, name, description, admin_email, members_email, thumbnail,
	payment_amount, payment_currency, payment_date, payment_is_paid, last_settled,
	created_at, updated_at`

func (s *Groups) Create(ctx context.Context, g *groups.Group) error {
	if g.ID == "" {
		g.ID = ids.New()
	}
	members, err := json.Marshal(g.MembersEmail)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`insert into groups(id, name, description, admin_email, members_email, thumbnail,
		                    payment_amount, payment_currency, payment_date, payment_is_paid)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		g.ID, g.Name, g.Description, g.AdminEmail, members, g.Thumbnail,
		g.PaymentStatus.Amount, g.PaymentStatus.Currency, g.PaymentStatus.Date, g.PaymentStatus.IsPaid,
	)
	return err
}

func (s *Groups) Find(ctx context.Context, id string) (*groups.Group, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+groupColumns+` from groups where id=$1`, id)
	return scanGroup(row)
}

func (s *Groups) Update(ctx context.Context, g *groups.Group) error {
	members, err := json.Marshal(g.MembersEmail)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`update groups
		    set name=$2, description=$3, members_email=$4, thumbnail=$5,
		        payment_amount=$6, payment_currency=$7, payment_date=$8, payment_is_paid=$9,
		        last_settled=$10, updated_at=now()
		  where id=$1`,
		g.ID, g.Name, g.Description, members, g.Thumbnail,
		g.PaymentStatus.Amount, g.PaymentStatus.Currency, g.PaymentStatus.Date, g.PaymentStatus.IsPaid,
		g.LastSettled,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return groups.ErrNotFound
	}
	return nil
}

func (s *Groups) ListByMember(ctx context.Context, email string) ([]*groups.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+groupColumns+` from groups where members_email @> to_jsonb(array[$1::text]) order by created_at desc`,
		email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGroups(rows)
}

func (s *Groups) ListByAdmin(ctx context.Context, adminEmail string, limit, offset int) ([]*groups.Group, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from groups where admin_email=$1`, adminEmail).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`select `+groupColumns+` from groups where admin_email=$1 order by created_at desc limit $2 offset $3`,
		adminEmail, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := collectGroups(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Groups) ListByPaymentStatus(ctx context.Context, isPaid bool) ([]*groups.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+groupColumns+` from groups where payment_is_paid=$1 order by created_at desc`,
		isPaid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGroups(rows)
}

func collectGroups(rows *sql.Rows) ([]*groups.Group, error) {
	var res []*groups.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, g)
	}
	return res, rows.Err()
}

func scanGroup(row rowScanner) (*groups.Group, error) {
	var (
		g           groups.Group
		members     []byte
		lastSettled sql.NullTime
	)
	err := row.Scan(
		&g.ID, &g.Name, &g.Description, &g.AdminEmail, &members, &g.Thumbnail,
		&g.PaymentStatus.Amount, &g.PaymentStatus.Currency, &g.PaymentStatus.Date, &g.PaymentStatus.IsPaid,
		&lastSettled, &g.CreatedAt, &g.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, groups.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(members, &g.MembersEmail); err != nil {
		return nil, err
	}
	if lastSettled.Valid {
		t := lastSettled.Time
		g.LastSettled = &t
	}
	return &g, nil
}
