// Package audit records administrative actions per organization. Writes are
// best-effort: an audit failure never fails the request that caused it.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tenantadmin/internal/audit/domain"
	auditrepo "tenantadmin/internal/audit/repository"
)

// Recorder writes a single audit event with explicit action/resource.
type Recorder interface {
	Record(ctx context.Context, orgID, userID, action, resource, ip, metadata string)
}

// Logger implements Recorder using the audit repository.
type Logger struct {
	repo auditrepo.Repository
	log  *zap.Logger
}

// NewLogger returns a Recorder that persists to repo and reports failures on log.
func NewLogger(repo auditrepo.Repository, log *zap.Logger) *Logger {
	return &Logger{repo: repo, log: log}
}

// Record writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) Record(ctx context.Context, orgID, userID, action, resource, ip, metadata string) {
	if l.repo == nil || orgID == "" {
		return
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.log.Warn("audit write failed",
			zap.String("action", action),
			zap.String("resource", resource),
			zap.Error(err))
	}
}
