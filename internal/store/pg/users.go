// Package pg implements the persistence contracts on PostgreSQL through
// database/sql with the pgx stdlib driver.
package pg

import (
	"context"
	"database/sql"
	"time"

	"splitmint.org/internal/auth"
	"splitmint.org/internal/credits"
	"splitmint.org/internal/ids"
)

var _ auth.UserStore = (*Users)(nil)
var _ credits.Store = (*Users)(nil)

// Users persists user records and implements both the auth store and the
// credit ledger store.
type Users struct {
	db *sql.DB
}

// NewUsers constructs the user repository.
func NewUsers(db *sql.DB) *Users {
	return &Users{db: db}
}

const userColumns = `id, name, email, password_hash, google_id, role, admin_id, credits,
	reset_otp, reset_otp_expiry, reset_last_requested_at, created_at, updated_at`

func (s *Users) Create(ctx context.Context, u *auth.User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, name, email, password_hash, google_id, role, admin_id, credits)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		u.ID, u.Name, u.Email,
		nullString(u.PasswordHash), nullString(u.GoogleID),
		u.Role, nullString(u.AdminID), nullInt(u.Credits),
	)
	return err
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email=$1`, email)
	return scanUser(row)
}

func (s *Users) FindByID(ctx context.Context, id string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id)
	return scanUser(row)
}

// Save persists every mutable field. Reset-flow columns are written as
// NULL when cleared so "both set or both absent" holds in storage too.
func (s *Users) Save(ctx context.Context, u *auth.User) error {
	res, err := s.db.ExecContext(ctx,
		`update users
		    set name=$2, password_hash=$3, google_id=$4, role=$5, admin_id=$6, credits=$7,
		        reset_otp=$8, reset_otp_expiry=$9, reset_last_requested_at=$10, updated_at=now()
		  where id=$1`,
		u.ID, u.Name,
		nullString(u.PasswordHash), nullString(u.GoogleID),
		u.Role, nullString(u.AdminID), nullInt(u.Credits),
		nullString(u.ResetOTP), nullTime(u.ResetOTPExpiry), nullTime(u.ResetLastRequestedAt),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *Users) ListByAdmin(ctx context.Context, adminID string) ([]*auth.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+` from users where admin_id=$1 or id=$1 order by created_at`, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Users) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

// Balance resolves the credit counter; a NULL column is the implicit free
// trial credit of legacy rows.
func (s *Users) Balance(ctx context.Context, email string) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
		`select coalesce(credits, 1) from users where email=$1`, email).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, credits.ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// DebitCredit is a single guarded decrement: the predicate and the write
// happen in one statement, so two concurrent debits cannot both pass a
// stale balance read.
func (s *Users) DebitCredit(ctx context.Context, email string) error {
	res, err := s.db.ExecContext(ctx,
		`update users
		    set credits = coalesce(credits, 1) - 1, updated_at = now()
		  where email = $1 and coalesce(credits, 1) > 0`,
		email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from users where email=$1)`, email).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return credits.ErrUserNotFound
	}
	return credits.ErrInsufficientCredits
}

// AddCredits is a single atomic increment returning the new balance.
func (s *Users) AddCredits(ctx context.Context, userID string, quantity int64) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
		`update users
		    set credits = coalesce(credits, 1) + $2, updated_at = now()
		  where id = $1
		returning credits`,
		userID, quantity).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, credits.ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*auth.User, error) {
	var (
		u                auth.User
		passwordHash     sql.NullString
		googleID         sql.NullString
		adminID          sql.NullString
		creditsVal       sql.NullInt64
		resetOTP         sql.NullString
		resetOTPExpiry   sql.NullTime
		resetRequestedAt sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &passwordHash, &googleID, &u.Role, &adminID, &creditsVal,
		&resetOTP, &resetOTPExpiry, &resetRequestedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.PasswordHash = passwordHash.String
	u.GoogleID = googleID.String
	u.AdminID = adminID.String
	if creditsVal.Valid {
		v := creditsVal.Int64
		u.Credits = &v
	}
	u.ResetOTP = resetOTP.String
	if resetOTPExpiry.Valid {
		u.ResetOTPExpiry = resetOTPExpiry.Time
	}
	if resetRequestedAt.Valid {
		u.ResetLastRequestedAt = resetRequestedAt.Time
	}
	return &u, nil
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(v time.Time) any {
	if v.IsZero() {
		return nil
	}
	return v
}
