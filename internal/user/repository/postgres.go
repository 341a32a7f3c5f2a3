package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tenantadmin/internal/db"
	"tenantadmin/internal/user/domain"
)

// ErrDuplicateEmail is returned by Create and Update when the email is
// already taken by another user.
var ErrDuplicateEmail = errors.New("email already taken")

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(dbtx db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: dbtx}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `SELECT id, email, name, password_hash, created_at, updated_at FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// GetByEmail returns the user with the given email, or nil if not found.
// Lookup is exact: email is stored and matched case-sensitively.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT id, email, name, password_hash, created_at, updated_at FROM users WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, q, email))
}

// ListByOrg returns users holding a membership in the org, ordered by the
// membership's creation time.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string) ([]*domain.User, error) {
	const q = `
		SELECT u.id, u.email, u.name, u.password_hash, u.created_at, u.updated_at
		FROM users u
		JOIN memberships m ON m.user_id = u.id
		WHERE m.org_id = $1
		ORDER BY m.created_at`
	rows, err := r.db.QueryContext(ctx, q, orgID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var out []*domain.User
	for rows.Next() {
		var u domain.User
		var name sql.NullString
		if err := rows.Scan(&u.ID, &u.Email, &name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Name = name.String
		out = append(out, &u)
	}
	return out, rows.Err()
}

// Create persists the user. The user must have ID set.
// Returns ErrDuplicateEmail when the email is already registered.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	const q = `INSERT INTO users (id, email, name, password_hash, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`
	name := sql.NullString{String: u.Name, Valid: u.Name != ""}
	_, err := r.db.ExecContext(ctx, q, u.ID, u.Email, name, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "users_email_key") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update writes the user's mutable fields. Callers resolve partial updates
// before calling; this persists the full record.
func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) error {
	const q = `UPDATE users SET email = $2, name = $3, password_hash = $4, updated_at = $5 WHERE id = $1`
	name := sql.NullString{String: u.Name, Valid: u.Name != ""}
	_, err := r.db.ExecContext(ctx, q, u.ID, u.Email, name, u.PasswordHash, u.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "users_email_key") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var name sql.NullString
	err := row.Scan(&u.ID, &u.Email, &name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Name = name.String
	return &u, nil
}
