package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tenantadmin/internal/db"
	"tenantadmin/internal/session/domain"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(dbtx db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: dbtx}
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	const q = `
		SELECT id, user_id, expires_at, revoked_at, last_seen_at, ip_address, refresh_jti, refresh_token_hash, created_at
		FROM sessions WHERE id = $1`
	var s domain.Session
	var revokedAt, lastSeenAt sql.NullTime
	var ip sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.UserID, &s.ExpiresAt, &revokedAt, &lastSeenAt, &ip, &s.RefreshJti, &s.RefreshTokenHash, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if revokedAt.Valid {
		s.RevokedAt = &revokedAt.Time
	}
	if lastSeenAt.Valid {
		s.LastSeenAt = &lastSeenAt.Time
	}
	s.IPAddress = ip.String
	return &s, nil
}

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	const q = `
		INSERT INTO sessions (id, user_id, expires_at, ip_address, refresh_jti, refresh_token_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	ip := sql.NullString{String: s.IPAddress, Valid: s.IPAddress != ""}
	_, err := r.db.ExecContext(ctx, q, s.ID, s.UserID, s.ExpiresAt, ip, s.RefreshJti, s.RefreshTokenHash, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Revoke marks the session revoked. Revoking an already-revoked session is a no-op.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	const q = `UPDATE sessions SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeAllByUser revokes every live session of the user. Used on refresh
// token reuse detection.
func (r *PostgresRepository) RevokeAllByUser(ctx context.Context, userID string) error {
	const q = `UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, userID)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}

// UpdateRefreshToken stores the rotated refresh token's jti and hash on the session.
func (r *PostgresRepository) UpdateRefreshToken(ctx context.Context, sessionID, jti, refreshTokenHash string) error {
	const q = `UPDATE sessions SET refresh_jti = $2, refresh_token_hash = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, sessionID, jti, refreshTokenHash)
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	return nil
}

// UpdateLastSeen records session activity.
func (r *PostgresRepository) UpdateLastSeen(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE sessions SET last_seen_at = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, at)
	if err != nil {
		return fmt.Errorf("update last seen: %w", err)
	}
	return nil
}
