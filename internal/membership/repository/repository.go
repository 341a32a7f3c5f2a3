package repository

import (
	"context"

	"tenantadmin/internal/membership/domain"
	sessiondomain "tenantadmin/internal/session/domain"
)

// Repository defines persistence for memberships.
type Repository interface {
	GetByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error)
	ListInfoByUser(ctx context.Context, userID string) ([]sessiondomain.MembershipInfo, error)
	Create(ctx context.Context, m *domain.Membership) error
	UpdateRole(ctx context.Context, userID, orgID string, role domain.Role) error
	DeleteByUserAndOrg(ctx context.Context, userID, orgID string) error
	CountOwnersByOrgForUpdate(ctx context.Context, orgID string) (int64, error)
}
