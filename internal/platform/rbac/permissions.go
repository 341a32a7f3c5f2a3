// Package rbac holds the role-permission table and the tenant-scoped
// authorization guards. Caller checks run against the session snapshot;
// checks about a different user hit current storage.
package rbac

import (
	"tenantadmin/internal/membership/domain"
)

// Permission is a named capability checked before an operation.
type Permission string

const (
	PermUsersRead     Permission = "users:read"
	PermUsersWrite    Permission = "users:write"
	PermUsersDelete   Permission = "users:delete"
	PermSettingsRead  Permission = "settings:read"
	PermSettingsWrite Permission = "settings:write"
)

// rolePermissions is the fixed role → permission assignment. OWNER holds all
// five permissions; ADMIN manages users but not settings writes; MEMBER is
// read-only.
var rolePermissions = map[domain.Role][]Permission{
	domain.RoleOwner:  {PermUsersRead, PermUsersWrite, PermUsersDelete, PermSettingsRead, PermSettingsWrite},
	domain.RoleAdmin:  {PermUsersRead, PermUsersWrite, PermSettingsRead},
	domain.RoleMember: {PermUsersRead, PermSettingsRead},
}

// RolePermissions returns the permission set for role. Unknown roles get an
// empty set.
func RolePermissions(role domain.Role) []Permission {
	return rolePermissions[role]
}

// HasPermission reports whether role grants permission. Unknown roles and
// unknown permissions yield false (fail closed).
func HasPermission(role domain.Role, permission Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}
