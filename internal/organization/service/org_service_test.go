package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	membershipdomain "tenantadmin/internal/membership/domain"
	orgdomain "tenantadmin/internal/organization/domain"
	"tenantadmin/internal/platform/authctx"
	"tenantadmin/internal/platform/rbac"
	sessiondomain "tenantadmin/internal/session/domain"
)

type memOrgRepo struct {
	mu     sync.Mutex
	byID   map[string]*orgdomain.Org
	bySlug map[string]*orgdomain.Org
}

func newMemOrgRepo() *memOrgRepo {
	return &memOrgRepo{byID: map[string]*orgdomain.Org{}, bySlug: map[string]*orgdomain.Org{}}
}

func (r *memOrgRepo) add(o *orgdomain.Org) {
	r.byID[o.ID] = o
	r.bySlug[o.Slug] = o
}

func (r *memOrgRepo) GetByID(ctx context.Context, id string) (*orgdomain.Org, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memOrgRepo) GetBySlug(ctx context.Context, slug string) (*orgdomain.Org, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bySlug[slug], nil
}

func (r *memOrgRepo) Update(ctx context.Context, o *orgdomain.Org) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.byID[o.ID]
	if old != nil && old.Slug != o.Slug {
		delete(r.bySlug, old.Slug)
	}
	r.byID[o.ID] = o
	r.bySlug[o.Slug] = o
	return nil
}

func ctxAs(role membershipdomain.Role) context.Context {
	snap := &sessiondomain.Snapshot{
		UserID: "user-1",
		Memberships: []sessiondomain.MembershipInfo{
			{OrgID: "org-1", OrgSlug: "acme-corp", Role: role},
		},
	}
	return authctx.WithSession(context.Background(), "sess-1", snap)
}

func newTestOrgService() (*OrgService, *memOrgRepo) {
	repo := newMemOrgRepo()
	repo.add(&orgdomain.Org{ID: "org-1", Name: "Acme Corporation", Slug: "acme-corp"})
	repo.add(&orgdomain.Org{ID: "org-2", Name: "Tech Startup", Slug: "tech-startup"})
	return NewOrgService(repo), repo
}

func TestGet(t *testing.T) {
	svc, _ := newTestOrgService()

	// settings:read is granted to every role.
	for _, role := range []membershipdomain.Role{membershipdomain.RoleOwner, membershipdomain.RoleAdmin, membershipdomain.RoleMember} {
		org, err := svc.Get(ctxAs(role), "org-1")
		if err != nil {
			t.Errorf("%s Get: %v", role, err)
			continue
		}
		if org.Slug != "acme-corp" {
			t.Errorf("%s Get Slug = %q", role, org.Slug)
		}
	}

	if _, err := svc.Get(ctxAs(membershipdomain.RoleOwner), "org-2"); !errors.Is(err, rbac.ErrForbidden) {
		t.Errorf("foreign org: err = %v, want ErrForbidden", err)
	}
	if _, err := svc.Get(context.Background(), "org-1"); !errors.Is(err, rbac.ErrUnauthenticated) {
		t.Errorf("no session: err = %v, want ErrUnauthenticated", err)
	}
}

func TestUpdateRequiresSettingsWrite(t *testing.T) {
	svc, repo := newTestOrgService()

	for _, role := range []membershipdomain.Role{membershipdomain.RoleAdmin, membershipdomain.RoleMember} {
		if _, err := svc.Update(ctxAs(role), "org-1", "New Name", "acme-corp", ""); !errors.Is(err, rbac.ErrForbidden) {
			t.Errorf("%s Update: err = %v, want ErrForbidden", role, err)
		}
	}
	if repo.byID["org-1"].Name != "Acme Corporation" {
		t.Error("org mutated by forbidden update")
	}

	org, err := svc.Update(ctxAs(membershipdomain.RoleOwner), "org-1", "Acme Inc", "acme-inc", "https://acme.example/logo.png")
	if err != nil {
		t.Fatalf("OWNER Update: %v", err)
	}
	if org.Name != "Acme Inc" || org.Slug != "acme-inc" || org.LogoURL != "https://acme.example/logo.png" {
		t.Errorf("updated org = %+v", org)
	}
}

func TestUpdateSlugConflict(t *testing.T) {
	svc, repo := newTestOrgService()
	ctx := ctxAs(membershipdomain.RoleOwner)

	// Slug held by a different org is rejected.
	if _, err := svc.Update(ctx, "org-1", "Acme", "tech-startup", ""); !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("err = %v, want ErrSlugTaken", err)
	}
	if repo.byID["org-1"].Slug != "acme-corp" {
		t.Error("slug changed despite conflict")
	}

	// Keeping the org's own slug is fine.
	if _, err := svc.Update(ctx, "org-1", "Acme Renamed", "acme-corp", ""); err != nil {
		t.Fatalf("own slug: %v", err)
	}
}

func TestUpdateValidation(t *testing.T) {
	svc, _ := newTestOrgService()
	ctx := ctxAs(membershipdomain.RoleOwner)

	if _, err := svc.Update(ctx, "org-1", "", "acme-corp", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("empty name: err = %v, want ErrValidation", err)
	}
	if _, err := svc.Update(ctx, "org-1", "Acme", "", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("empty slug: err = %v, want ErrValidation", err)
	}
}
