// seed inserts development sample data for local testing.
// Idempotent: orgs are matched by slug and users by email, so re-runs only
// fill in what is missing.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"tenantadmin/internal/config"
	"tenantadmin/internal/db"
	membershipdomain "tenantadmin/internal/membership/domain"
	membershiprepo "tenantadmin/internal/membership/repository"
	orgdomain "tenantadmin/internal/organization/domain"
	orgrepo "tenantadmin/internal/organization/repository"
	"tenantadmin/internal/security"
	userdomain "tenantadmin/internal/user/domain"
	userrepo "tenantadmin/internal/user/repository"
)

const seedPassword = "password123"

type seedOrg struct {
	name string
	slug string
}

type seedUser struct {
	email string
	name  string
}

type seedMembership struct {
	email string
	slug  string
	role  membershipdomain.Role
}

var (
	seedOrgs = []seedOrg{
		{name: "Acme Corporation", slug: "acme-corp"},
		{name: "Tech Startup", slug: "tech-startup"},
	}
	seedUsers = []seedUser{
		{email: "owner@acme.com", name: "John Owner"},
		{email: "admin@acme.com", name: "Jane Admin"},
		{email: "member@acme.com", name: "Bob Member"},
		{email: "owner@tech.com", name: "Alice Owner"},
		{email: "admin@tech.com", name: "Charlie Admin"},
		{email: "multi@example.com", name: "Multi Tenant User"},
	}
	seedMemberships = []seedMembership{
		{email: "owner@acme.com", slug: "acme-corp", role: membershipdomain.RoleOwner},
		{email: "admin@acme.com", slug: "acme-corp", role: membershipdomain.RoleAdmin},
		{email: "member@acme.com", slug: "acme-corp", role: membershipdomain.RoleMember},
		{email: "owner@tech.com", slug: "tech-startup", role: membershipdomain.RoleOwner},
		{email: "admin@tech.com", slug: "tech-startup", role: membershipdomain.RoleAdmin},
		{email: "multi@example.com", slug: "acme-corp", role: membershipdomain.RoleMember},
		{email: "multi@example.com", slug: "tech-startup", role: membershipdomain.RoleMember},
	}
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer sqlDB.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(sqlDB)
	orgs := orgrepo.NewPostgresRepository(sqlDB)
	memberships := membershiprepo.NewPostgresRepository(sqlDB)
	hasher := security.NewHasher(cfg.BcryptCost)

	hashed, err := hasher.Hash([]byte(seedPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()

	orgIDs := make(map[string]string, len(seedOrgs))
	for _, o := range seedOrgs {
		existing, err := orgs.GetBySlug(ctx, o.slug)
		if err != nil {
			log.Fatalf("look up org %s: %v", o.slug, err)
		}
		if existing != nil {
			orgIDs[o.slug] = existing.ID
			continue
		}
		org := &orgdomain.Org{
			ID:        uuid.New().String(),
			Name:      o.name,
			Slug:      o.slug,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := orgs.Create(ctx, org); err != nil {
			log.Fatalf("create org %s: %v", o.slug, err)
		}
		orgIDs[o.slug] = org.ID
	}

	userIDs := make(map[string]string, len(seedUsers))
	for _, u := range seedUsers {
		existing, err := users.GetByEmail(ctx, u.email)
		if err != nil {
			log.Fatalf("look up user %s: %v", u.email, err)
		}
		if existing != nil {
			userIDs[u.email] = existing.ID
			continue
		}
		user := &userdomain.User{
			ID:           uuid.New().String(),
			Email:        u.email,
			Name:         u.name,
			PasswordHash: hashed,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := users.Create(ctx, user); err != nil {
			log.Fatalf("create user %s: %v", u.email, err)
		}
		userIDs[u.email] = user.ID
	}

	for _, m := range seedMemberships {
		userID, orgID := userIDs[m.email], orgIDs[m.slug]
		existing, err := memberships.GetByUserAndOrg(ctx, userID, orgID)
		if err != nil {
			log.Fatalf("look up membership %s/%s: %v", m.email, m.slug, err)
		}
		if existing != nil {
			continue
		}
		err = memberships.Create(ctx, &membershipdomain.Membership{
			ID:        uuid.New().String(),
			UserID:    userID,
			OrgID:     orgID,
			Role:      m.role,
			CreatedAt: now,
		})
		if err != nil {
			log.Fatalf("create membership %s/%s: %v", m.email, m.slug, err)
		}
	}

	fmt.Println("Seed data created.")
	fmt.Println("Test accounts (password: " + seedPassword + "):")
	fmt.Println("  - owner@acme.com   (OWNER of Acme Corporation)")
	fmt.Println("  - admin@acme.com   (ADMIN of Acme Corporation)")
	fmt.Println("  - member@acme.com  (MEMBER of Acme Corporation)")
	fmt.Println("  - owner@tech.com   (OWNER of Tech Startup)")
	fmt.Println("  - admin@tech.com   (ADMIN of Tech Startup)")
	fmt.Println("  - multi@example.com (MEMBER of both orgs)")
}
