package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tenantadmin/internal/db"
	"tenantadmin/internal/membership/domain"
	sessiondomain "tenantadmin/internal/session/domain"
)

// ErrDuplicateMembership is returned by Create when a membership for the same
// (user, org) pair already exists.
var ErrDuplicateMembership = errors.New("membership already exists")

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a membership repository that uses the given db for persistence.
func NewPostgresRepository(dbtx db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: dbtx}
}

// GetByUserAndOrg returns the membership for the given user and org, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error) {
	const q = `SELECT id, user_id, org_id, role, created_at FROM memberships WHERE user_id = $1 AND org_id = $2`
	var m domain.Membership
	err := r.db.QueryRowContext(ctx, q, userID, orgID).Scan(&m.ID, &m.UserID, &m.OrgID, &m.Role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &m, nil
}

// ListByOrg returns all memberships for the given org ordered by creation time.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error) {
	const q = `SELECT id, user_id, org_id, role, created_at FROM memberships WHERE org_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, q, orgID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()
	var out []*domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.ID, &m.UserID, &m.OrgID, &m.Role, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// ListInfoByUser returns the user's memberships joined with organization slug
// and name, in the shape embedded into session snapshots.
func (r *PostgresRepository) ListInfoByUser(ctx context.Context, userID string) ([]sessiondomain.MembershipInfo, error) {
	const q = `
		SELECT m.org_id, o.slug, o.name, m.role
		FROM memberships m
		JOIN organizations o ON o.id = m.org_id
		WHERE m.user_id = $1
		ORDER BY m.created_at`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list membership info: %w", err)
	}
	defer rows.Close()
	var out []sessiondomain.MembershipInfo
	for rows.Next() {
		var mi sessiondomain.MembershipInfo
		if err := rows.Scan(&mi.OrgID, &mi.OrgSlug, &mi.OrgName, &mi.Role); err != nil {
			return nil, fmt.Errorf("scan membership info: %w", err)
		}
		out = append(out, mi)
	}
	return out, rows.Err()
}

// Create persists the membership. The membership must have ID set.
// Returns ErrDuplicateMembership when the (user, org) pair already exists.
func (r *PostgresRepository) Create(ctx context.Context, m *domain.Membership) error {
	const q = `INSERT INTO memberships (id, user_id, org_id, role, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, q, m.ID, m.UserID, m.OrgID, m.Role, m.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "memberships_user_org_key") {
			return ErrDuplicateMembership
		}
		return fmt.Errorf("create membership: %w", err)
	}
	return nil
}

// UpdateRole sets the role on the (user, org) membership.
func (r *PostgresRepository) UpdateRole(ctx context.Context, userID, orgID string, role domain.Role) error {
	const q = `UPDATE memberships SET role = $3 WHERE user_id = $1 AND org_id = $2`
	_, err := r.db.ExecContext(ctx, q, userID, orgID, role)
	if err != nil {
		return fmt.Errorf("update membership role: %w", err)
	}
	return nil
}

// DeleteByUserAndOrg removes the (user, org) membership. The user row is untouched.
func (r *PostgresRepository) DeleteByUserAndOrg(ctx context.Context, userID, orgID string) error {
	const q = `DELETE FROM memberships WHERE user_id = $1 AND org_id = $2`
	_, err := r.db.ExecContext(ctx, q, userID, orgID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

// CountOwnersByOrgForUpdate counts OWNER memberships in the org while taking
// row locks on them, so a concurrent owner removal in another transaction
// blocks until this transaction finishes. Must run inside a transaction for
// the locks to mean anything.
func (r *PostgresRepository) CountOwnersByOrgForUpdate(ctx context.Context, orgID string) (int64, error) {
	const q = `SELECT id FROM memberships WHERE org_id = $1 AND role = 'OWNER' FOR UPDATE`
	rows, err := r.db.QueryContext(ctx, q, orgID)
	if err != nil {
		return 0, fmt.Errorf("count owners: %w", err)
	}
	defer rows.Close()
	var n int64
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("scan owner row: %w", err)
		}
		n++
	}
	return n, rows.Err()
}
