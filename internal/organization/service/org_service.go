package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	orgdomain "tenantadmin/internal/organization/domain"
	orgrepo "tenantadmin/internal/organization/repository"
	"tenantadmin/internal/platform/rbac"
)

// Sentinel errors for the organization service; handlers map them to HTTP codes.
var (
	ErrValidation = errors.New("invalid input")
	ErrSlugTaken  = errors.New("this slug is already taken by another organization")
	ErrNotFound   = errors.New("organization not found")
)

// OrgRepo is the minimal organization repository needed by the org service.
type OrgRepo interface {
	GetByID(ctx context.Context, id string) (*orgdomain.Org, error)
	GetBySlug(ctx context.Context, slug string) (*orgdomain.Org, error)
	Update(ctx context.Context, o *orgdomain.Org) error
}

// OrgService implements organization settings reads and updates, gated by
// the settings permissions.
type OrgService struct {
	orgRepo OrgRepo
}

// NewOrgService returns an OrgService with the given dependencies.
func NewOrgService(orgRepo OrgRepo) *OrgService {
	return &OrgService{orgRepo: orgRepo}
}

// Get returns the organization. Requires settings:read.
func (s *OrgService) Get(ctx context.Context, orgID string) (*orgdomain.Org, error) {
	if _, err := rbac.RequirePermission(ctx, orgID, rbac.PermSettingsRead); err != nil {
		return nil, err
	}
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrNotFound
	}
	return org, nil
}

// Update sets name, slug, and logo. Requires settings:write. A slug held by a
// different organization is rejected with ErrSlugTaken; keeping the org's own
// slug is always allowed.
func (s *OrgService) Update(ctx context.Context, orgID, name, slug, logoURL string) (*orgdomain.Org, error) {
	if _, err := rbac.RequirePermission(ctx, orgID, rbac.PermSettingsWrite); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	slug = strings.TrimSpace(slug)

	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrNotFound
	}

	existing, err := s.orgRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != orgID {
		return nil, ErrSlugTaken
	}

	org.Name = name
	org.Slug = slug
	org.LogoURL = strings.TrimSpace(logoURL)
	org.UpdatedAt = time.Now().UTC()
	if err := org.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.orgRepo.Update(ctx, org); err != nil {
		if errors.Is(err, orgrepo.ErrDuplicateSlug) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return org, nil
}
