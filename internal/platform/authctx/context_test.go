package authctx

import (
	"context"
	"testing"

	sessiondomain "tenantadmin/internal/session/domain"
)

func TestSessionContext(t *testing.T) {
	ctx := context.Background()

	if _, ok := GetSnapshot(ctx); ok {
		t.Error("GetSnapshot on empty context = ok")
	}
	if _, ok := GetSessionID(ctx); ok {
		t.Error("GetSessionID on empty context = ok")
	}

	snap := &sessiondomain.Snapshot{UserID: "user-1"}
	ctx = WithSession(ctx, "sess-1", snap)

	got, ok := GetSnapshot(ctx)
	if !ok || got.UserID != "user-1" {
		t.Errorf("GetSnapshot = %+v, %v", got, ok)
	}
	id, ok := GetSessionID(ctx)
	if !ok || id != "sess-1" {
		t.Errorf("GetSessionID = %q, %v", id, ok)
	}
}

func TestGetSnapshotNilValue(t *testing.T) {
	ctx := WithSession(context.Background(), "sess-1", nil)
	if _, ok := GetSnapshot(ctx); ok {
		t.Error("GetSnapshot with nil snapshot = ok")
	}
}
