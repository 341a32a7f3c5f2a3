package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	membershipdomain "tenantadmin/internal/membership/domain"
	membershiprepo "tenantadmin/internal/membership/repository"
	"tenantadmin/internal/platform/rbac"
	"tenantadmin/internal/security"
	userdomain "tenantadmin/internal/user/domain"
	userrepo "tenantadmin/internal/user/repository"
)

// Sentinel errors for the user service; handlers map them to HTTP codes.
var (
	ErrValidation    = errors.New("invalid input")
	ErrAlreadyMember = errors.New("user is already a member of this organization")
	ErrEmailTaken    = errors.New("user with this email already exists")
	ErrLastOwner     = errors.New("cannot remove the last owner of the organization")
	ErrNotFound      = errors.New("user not found")
)

// UserRepo is the minimal user repository needed by the user service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	ListByOrg(ctx context.Context, orgID string) ([]*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	Update(ctx context.Context, u *userdomain.User) error
}

// MembershipRepo is the minimal membership repository needed by the user service.
type MembershipRepo interface {
	GetByUserAndOrg(ctx context.Context, userID, orgID string) (*membershipdomain.Membership, error)
	ListByOrg(ctx context.Context, orgID string) ([]*membershipdomain.Membership, error)
	Create(ctx context.Context, m *membershipdomain.Membership) error
	UpdateRole(ctx context.Context, userID, orgID string, role membershipdomain.Role) error
	DeleteByUserAndOrg(ctx context.Context, userID, orgID string) error
	CountOwnersByOrgForUpdate(ctx context.Context, orgID string) (int64, error)
}

// TxRepos groups the repositories bound to one storage transaction.
type TxRepos struct {
	Users       UserRepo
	Memberships MembershipRepo
}

// TxRunner executes fn inside a single all-or-nothing storage transaction.
// Owner-count checks and the write they guard run through it so the
// check-then-act sequence holds under concurrent requests.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(TxRepos) error) error
}

// Member is a user joined with their role in the listed organization.
type Member struct {
	User *userdomain.User
	Role membershipdomain.Role
}

// UpdateUserParams carries a partial update: nil fields are left untouched.
type UpdateUserParams struct {
	Name  *string
	Email *string
	Role  *membershipdomain.Role
}

// UserService implements tenant-scoped user administration. Every mutation
// checks the caller's permission from the session snapshot, cross-checks the
// target's org membership against current storage, then applies domain
// invariants before writing.
type UserService struct {
	userRepo       UserRepo
	membershipRepo MembershipRepo
	tx             TxRunner
	hasher         *security.Hasher
}

// NewUserService returns a UserService with the given dependencies.
func NewUserService(userRepo UserRepo, membershipRepo MembershipRepo, tx TxRunner, hasher *security.Hasher) *UserService {
	return &UserService{userRepo: userRepo, membershipRepo: membershipRepo, tx: tx, hasher: hasher}
}

// ListUsers returns the org's members with roles. Requires users:read.
func (s *UserService) ListUsers(ctx context.Context, orgID string) ([]Member, error) {
	if _, err := rbac.RequirePermission(ctx, orgID, rbac.PermUsersRead); err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	memberships, err := s.membershipRepo.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	roles := make(map[string]membershipdomain.Role, len(memberships))
	for _, m := range memberships {
		roles[m.UserID] = m.Role
	}
	out := make([]Member, 0, len(users))
	for _, u := range users {
		out = append(out, Member{User: u, Role: roles[u.ID]})
	}
	return out, nil
}

// CreateUser adds a user to the org with the given role. Requires users:write.
// Three outcomes: an email unknown to the system creates user + membership
// atomically; an existing user who is not a member gets a membership only
// (never a duplicate user row); an existing member yields ErrAlreadyMember
// with no mutation.
func (s *UserService) CreateUser(ctx context.Context, orgID, email, password, name string, role membershipdomain.Role) error {
	if _, err := rbac.RequirePermission(ctx, orgID, rbac.PermUsersWrite); err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if _, err := membershipdomain.ParseRole(string(role)); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := time.Now().UTC()
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		m, err := s.membershipRepo.GetByUserAndOrg(ctx, existing.ID, orgID)
		if err != nil {
			return err
		}
		if m != nil {
			return ErrAlreadyMember
		}
		err = s.membershipRepo.Create(ctx, &membershipdomain.Membership{
			ID:        uuid.New().String(),
			UserID:    existing.ID,
			OrgID:     orgID,
			Role:      role,
			CreatedAt: now,
		})
		if errors.Is(err, membershiprepo.ErrDuplicateMembership) {
			return ErrAlreadyMember
		}
		return err
	}

	if password == "" {
		return fmt.Errorf("%w: password is required for a new user", ErrValidation)
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return err
	}
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	membership := &membershipdomain.Membership{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		OrgID:     orgID,
		Role:      role,
		CreatedAt: now,
	}
	err = s.tx.WithinTx(ctx, func(repos TxRepos) error {
		if err := repos.Users.Create(ctx, user); err != nil {
			return err
		}
		return repos.Memberships.Create(ctx, membership)
	})
	if errors.Is(err, userrepo.ErrDuplicateEmail) {
		return ErrEmailTaken
	}
	return err
}

// UpdateUser applies a partial update to a member's profile and role.
// Requires users:write plus a fresh storage check that the target belongs to
// the org. Nil fields stay untouched. Downgrading an OWNER goes through the
// last-owner guard inside a transaction.
func (s *UserService) UpdateUser(ctx context.Context, orgID, userID string, params UpdateUserParams) error {
	if _, err := rbac.RequirePermission(ctx, orgID, rbac.PermUsersWrite); err != nil {
		return err
	}
	target, err := rbac.RequireTenantMember(ctx, s.membershipRepo, orgID, userID)
	if err != nil {
		return err
	}

	if params.Name != nil || params.Email != nil {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrNotFound
		}
		if params.Name != nil {
			user.Name = strings.TrimSpace(*params.Name)
		}
		if params.Email != nil {
			email := strings.TrimSpace(*params.Email)
			if email == "" {
				return fmt.Errorf("%w: email cannot be empty", ErrValidation)
			}
			user.Email = email
		}
		user.UpdatedAt = time.Now().UTC()
		if err := s.userRepo.Update(ctx, user); err != nil {
			if errors.Is(err, userrepo.ErrDuplicateEmail) {
				return ErrEmailTaken
			}
			return err
		}
	}

	if params.Role == nil || *params.Role == target.Role {
		return nil
	}
	newRole, err := membershipdomain.ParseRole(string(*params.Role))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if target.Role != membershipdomain.RoleOwner {
		return s.membershipRepo.UpdateRole(ctx, userID, orgID, newRole)
	}
	// Demoting an owner loses an OWNER membership, same as removing one.
	return s.tx.WithinTx(ctx, func(repos TxRepos) error {
		owners, err := repos.Memberships.CountOwnersByOrgForUpdate(ctx, orgID)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return ErrLastOwner
		}
		return repos.Memberships.UpdateRole(ctx, userID, orgID, newRole)
	})
}

// RemoveUser deletes the target's membership in the org. Requires
// users:delete plus the fresh tenant cross-check. Removing the last OWNER is
// rejected with ErrLastOwner and performs no mutation; the owner count and
// the delete run in one transaction over locked rows. The user row survives.
func (s *UserService) RemoveUser(ctx context.Context, orgID, userID string) error {
	if _, err := rbac.RequirePermission(ctx, orgID, rbac.PermUsersDelete); err != nil {
		return err
	}
	target, err := rbac.RequireTenantMember(ctx, s.membershipRepo, orgID, userID)
	if err != nil {
		return err
	}
	if target.Role != membershipdomain.RoleOwner {
		return s.membershipRepo.DeleteByUserAndOrg(ctx, userID, orgID)
	}
	return s.tx.WithinTx(ctx, func(repos TxRepos) error {
		owners, err := repos.Memberships.CountOwnersByOrgForUpdate(ctx, orgID)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return ErrLastOwner
		}
		return repos.Memberships.DeleteByUserAndOrg(ctx, userID, orgID)
	})
}
