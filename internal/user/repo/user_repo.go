package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/safesite/service-compliance-core/internal/user/entity"
	"github.com/safesite/service-compliance-core/pkg/database"
)

const userColumns = `id, email, username, password_hash, first_name, last_name, created_at, updated_at`

// UserRepo provides data access for the users table.
type UserRepo struct {
	q database.Queryer
}

func NewUserRepo(q database.Queryer) *UserRepo { return &UserRepo{q: q} }

// Insert writes a new user row. Unique violations on email/username bubble
// up as driver errors for the service to translate.
func (r *UserRepo) Insert(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id, email, username, password_hash, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.ExecContext(ctx, q,
		u.ID, u.Email, u.Username, u.PasswordHash, u.FirstName, u.LastName, u.CreatedAt, u.UpdatedAt)
	return err
}

// GetByUsername returns the user or sql.ErrNoRows.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	var u entity.User
	if err := sqlx.GetContext(ctx, r.q, &u, q, username); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns the user or sql.ErrNoRows.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	var u entity.User
	if err := sqlx.GetContext(ctx, r.q, &u, q, id); err != nil {
		return nil, err
	}
	return &u, nil
}
