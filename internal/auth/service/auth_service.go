package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	membershipdomain "tenantadmin/internal/membership/domain"
	orgdomain "tenantadmin/internal/organization/domain"
	orgrepo "tenantadmin/internal/organization/repository"
	"tenantadmin/internal/platform/authctx"
	"tenantadmin/internal/security"
	sessiondomain "tenantadmin/internal/session/domain"
	userdomain "tenantadmin/internal/user/domain"
	userrepo "tenantadmin/internal/user/repository"
)

// Sentinel errors for the auth service; handlers map them to HTTP codes.
var (
	ErrValidation             = errors.New("invalid input")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrOrgNameTaken           = errors.New("organization with this name already exists")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidRefreshToken    = errors.New("invalid or expired refresh token")
	ErrRefreshTokenReuse      = errors.New("refresh token reuse detected; all sessions revoked")
)

// AuthResult holds tokens and the session snapshot returned by Authenticate and Refresh.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Snapshot     *sessiondomain.Snapshot
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// OrgRepo is the minimal organization repository needed by the auth service.
type OrgRepo interface {
	GetBySlug(ctx context.Context, slug string) (*orgdomain.Org, error)
	Create(ctx context.Context, o *orgdomain.Org) error
}

// MembershipRepo is the minimal membership repository needed by the auth service.
type MembershipRepo interface {
	ListInfoByUser(ctx context.Context, userID string) ([]sessiondomain.MembershipInfo, error)
	Create(ctx context.Context, m *membershipdomain.Membership) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Revoke(ctx context.Context, id string) error
	RevokeAllByUser(ctx context.Context, userID string) error
	UpdateRefreshToken(ctx context.Context, sessionID, jti, refreshTokenHash string) error
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
}

// TxRepos groups the repositories bound to one storage transaction.
type TxRepos struct {
	Users       UserRepo
	Orgs        OrgRepo
	Memberships MembershipRepo
}

// TxRunner executes fn inside a single all-or-nothing storage transaction.
// Signup creates user, organization, and membership through it so a failure
// part-way leaves no orphaned records.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(TxRepos) error) error
}

// AuthService implements signup, password authentication, token refresh, and logout.
type AuthService struct {
	userRepo       UserRepo
	orgRepo        OrgRepo
	membershipRepo MembershipRepo
	sessionRepo    SessionRepo
	tx             TxRunner
	hasher         *security.Hasher
	tokens         *security.TokenProvider
	refreshTTL     time.Duration
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	userRepo UserRepo,
	orgRepo OrgRepo,
	membershipRepo MembershipRepo,
	sessionRepo SessionRepo,
	tx TxRunner,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		orgRepo:        orgRepo,
		membershipRepo: membershipRepo,
		sessionRepo:    sessionRepo,
		tx:             tx,
		hasher:         hasher,
		tokens:         tokens,
		refreshTTL:     refreshTTL,
	}
}

// SignUp creates a user, their organization, and an OWNER membership in one
// transaction. Email is matched exactly as stored; only surrounding
// whitespace is trimmed. The org slug is derived from the organization name;
// a slug collision fails the whole signup with ErrOrgNameTaken.
func (s *AuthService) SignUp(ctx context.Context, email, password, name, orgName string) error {
	email = strings.TrimSpace(email)
	orgName = strings.TrimSpace(orgName)
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := validatePassword(password); err != nil {
		return err
	}
	if orgName == "" {
		return fmt.Errorf("%w: organization name is required", ErrValidation)
	}
	slug := orgdomain.Slugify(orgName)
	if slug == "" {
		return fmt.Errorf("%w: organization name must contain letters or digits", ErrValidation)
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailAlreadyRegistered
	}
	existingOrg, err := s.orgRepo.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if existingOrg != nil {
		return ErrOrgNameTaken
	}

	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	org := &orgdomain.Org{
		ID:        uuid.New().String(),
		Name:      orgName,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	membership := &membershipdomain.Membership{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		OrgID:     org.ID,
		Role:      membershipdomain.RoleOwner,
		CreatedAt: now,
	}

	err = s.tx.WithinTx(ctx, func(repos TxRepos) error {
		if err := repos.Users.Create(ctx, user); err != nil {
			return err
		}
		if err := repos.Orgs.Create(ctx, org); err != nil {
			return err
		}
		return repos.Memberships.Create(ctx, membership)
	})
	// A concurrent signup can win the race between the pre-checks above and
	// the inserts; the unique violations still mean conflict, not failure.
	if errors.Is(err, userrepo.ErrDuplicateEmail) {
		return ErrEmailAlreadyRegistered
	}
	if errors.Is(err, orgrepo.ErrDuplicateSlug) {
		return ErrOrgNameTaken
	}
	return err
}

// Authenticate verifies email/password, captures the membership snapshot,
// creates a session, and returns tokens. Unknown email and wrong password
// both yield ErrInvalidCredentials so callers cannot probe for accounts.
func (s *AuthService) Authenticate(ctx context.Context, email, password, clientIP string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	snap, err := s.snapshotFor(ctx, user)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.New().String()
	now := time.Now().UTC()
	refreshToken, jti, _, err := s.tokens.IssueRefresh(sessionID, user.ID)
	if err != nil {
		return nil, err
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(sessionID, snap)
	if err != nil {
		return nil, err
	}
	sess := &sessiondomain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		ExpiresAt:        now.Add(s.refreshTTL),
		IPAddress:        clientIP,
		RefreshJti:       jti,
		RefreshTokenHash: security.HashRefreshToken(refreshToken),
		CreatedAt:        now,
	}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
		Snapshot:     snap,
	}, nil
}

// Refresh validates the refresh token, rotates it, and returns new tokens.
// The membership snapshot is re-read from storage, so an explicit refresh is
// the one place a live session picks up membership changes.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	sessionID, jti, userID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	sess, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.RevokedAt != nil {
		return nil, ErrInvalidRefreshToken
	}
	if sess.RefreshJti != jti {
		_ = s.sessionRepo.RevokeAllByUser(ctx, userID)
		return nil, ErrRefreshTokenReuse
	}
	if sess.RefreshTokenHash != "" && !security.RefreshTokenHashEqual(refreshToken, sess.RefreshTokenHash) {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidRefreshToken
	}
	snap, err := s.snapshotFor(ctx, user)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	_ = s.sessionRepo.UpdateLastSeen(ctx, sessionID, now)
	newRefresh, newJti, _, err := s.tokens.IssueRefresh(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.UpdateRefreshToken(ctx, sessionID, newJti, security.HashRefreshToken(newRefresh)); err != nil {
		return nil, err
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(sessionID, snap)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    accessExp,
		Snapshot:     snap,
	}, nil
}

// Logout revokes the session identified by the refresh token or by the
// session id the auth middleware put in context. Invalid tokens are a no-op:
// logout never fails towards the client.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken != "" {
		sessionID, _, _, err := s.tokens.ValidateRefresh(refreshToken)
		if err != nil {
			return nil
		}
		return s.sessionRepo.Revoke(ctx, sessionID)
	}
	sessionID, ok := authctx.GetSessionID(ctx)
	if !ok {
		return nil
	}
	return s.sessionRepo.Revoke(ctx, sessionID)
}

func (s *AuthService) snapshotFor(ctx context.Context, user *userdomain.User) (*sessiondomain.Snapshot, error) {
	memberships, err := s.membershipRepo.ListInfoByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load memberships: %w", err)
	}
	return &sessiondomain.Snapshot{
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Memberships: memberships,
	}, nil
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	return nil
}
