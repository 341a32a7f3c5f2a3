// Package authctx carries the resolved session through request contexts. It
// sits below both the authorization guards and the HTTP middleware so either
// side can read the session without importing the other.
package authctx

import (
	"context"

	sessiondomain "tenantadmin/internal/session/domain"
)

type contextKey struct{ name string }

var (
	snapshotKey  = contextKey{"session_snapshot"}
	sessionIDKey = contextKey{"session_id"}
)

// WithSession returns a context carrying the session id and the resolved
// snapshot. Guards and handlers read these via GetSnapshot and GetSessionID.
func WithSession(ctx context.Context, sessionID string, snap *sessiondomain.Snapshot) context.Context {
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	ctx = context.WithValue(ctx, snapshotKey, snap)
	return ctx
}

// GetSnapshot returns the session snapshot from context and true if set; otherwise nil, false.
func GetSnapshot(ctx context.Context) (*sessiondomain.Snapshot, bool) {
	v, ok := ctx.Value(snapshotKey).(*sessiondomain.Snapshot)
	return v, ok && v != nil
}

// GetSessionID returns the session id from context and true if set; otherwise "", false.
func GetSessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionIDKey).(string)
	return v, ok
}
