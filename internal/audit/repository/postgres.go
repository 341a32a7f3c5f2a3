package repository

import (
	"context"
	"fmt"

	"tenantadmin/internal/audit/domain"
	"tenantadmin/internal/db"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(dbtx db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: dbtx}
}

// Create persists the audit log entry. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, l *domain.AuditLog) error {
	const q = `
		INSERT INTO audit_logs (id, org_id, user_id, action, resource, ip, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, q, l.ID, l.OrgID, l.UserID, l.Action, l.Resource, l.IP, l.Metadata, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// ListByOrg returns the org's most recent audit log entries, newest first.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, limit int) ([]*domain.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
		SELECT id, org_id, user_id, action, resource, ip, metadata, created_at
		FROM audit_logs WHERE org_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()
	var out []*domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(&l.ID, &l.OrgID, &l.UserID, &l.Action, &l.Resource, &l.IP, &l.Metadata, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}
