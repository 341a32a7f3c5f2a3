package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tenantadmin/internal/db"
	"tenantadmin/internal/organization/domain"
)

// ErrDuplicateSlug is returned by Create and Update when the slug is already
// taken by another organization.
var ErrDuplicateSlug = errors.New("slug already taken")

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns an organization repository that uses the given db for persistence.
func NewPostgresRepository(dbtx db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: dbtx}
}

// GetByID returns the organization for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Org, error) {
	const q = `SELECT id, name, slug, logo_url, created_at, updated_at FROM organizations WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// GetBySlug returns the organization with the given slug, or nil if not found.
func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*domain.Org, error) {
	const q = `SELECT id, name, slug, logo_url, created_at, updated_at FROM organizations WHERE slug = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, q, slug))
}

// Create persists the organization. The organization must have ID set.
// Returns ErrDuplicateSlug when the slug is already taken.
func (r *PostgresRepository) Create(ctx context.Context, o *domain.Org) error {
	const q = `INSERT INTO organizations (id, name, slug, logo_url, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`
	logo := sql.NullString{String: o.LogoURL, Valid: o.LogoURL != ""}
	_, err := r.db.ExecContext(ctx, q, o.ID, o.Name, o.Slug, logo, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "organizations_slug_key") {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("create organization: %w", err)
	}
	return nil
}

// Update writes name, slug, and logo for the organization.
// Returns ErrDuplicateSlug when the slug is taken by a different organization.
func (r *PostgresRepository) Update(ctx context.Context, o *domain.Org) error {
	const q = `UPDATE organizations SET name = $2, slug = $3, logo_url = $4, updated_at = $5 WHERE id = $1`
	logo := sql.NullString{String: o.LogoURL, Valid: o.LogoURL != ""}
	_, err := r.db.ExecContext(ctx, q, o.ID, o.Name, o.Slug, logo, o.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "organizations_slug_key") {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("update organization: %w", err)
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*domain.Org, error) {
	var o domain.Org
	var logo sql.NullString
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &logo, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	o.LogoURL = logo.String
	return &o, nil
}
