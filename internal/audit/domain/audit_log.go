package domain

import "time"

// AuditLog is one recorded administrative action within an organization.
type AuditLog struct {
	ID        string
	OrgID     string
	UserID    string
	Action    string // e.g. "create", "update", "delete"
	Resource  string // e.g. "user", "organization"
	IP        string
	Metadata  string // free-form JSON; empty when there is nothing to add
	CreatedAt time.Time
}
