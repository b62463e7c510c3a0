package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/ingatatech/e-learning-sub003/internal/auth"
)

// Repository is the read side the session subsystem needs from user storage.
type Repository interface {
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
}

// PGRepo reads the users table through database/sql on the pgx stdlib driver.
type PGRepo struct {
	db *sql.DB
}

func NewPGRepo(db *sql.DB) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) FindByID(ctx context.Context, id string) (User, error) {
	const q = `
SELECT id, email, name, role, password_hash, created_at
FROM users
WHERE id = $1
`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

func (r *PGRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	const q = `
SELECT id, email, name, role, password_hash, created_at
FROM users
WHERE lower(email) = lower($1)
`
	return scanUser(r.db.QueryRowContext(ctx, q, strings.TrimSpace(email)))
}

func scanUser(row *sql.Row) (User, error) {
	var (
		u    User
		role string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	// Unknown roles are kept verbatim; the gate fails closed on them.
	u.Role = auth.Role(role)
	return u, nil
}
