package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	membershipdomain "tenantadmin/internal/membership/domain"
	orgdomain "tenantadmin/internal/organization/domain"
	orgrepo "tenantadmin/internal/organization/repository"
	"tenantadmin/internal/security"
	sessiondomain "tenantadmin/internal/session/domain"
	userdomain "tenantadmin/internal/user/domain"
	userrepo "tenantadmin/internal/user/repository"
)

// memStore is an in-memory implementation of the repositories the auth
// service depends on.
type memStore struct {
	mu           sync.Mutex
	usersByID    map[string]*userdomain.User
	usersByEmail map[string]*userdomain.User
	orgsByID     map[string]*orgdomain.Org
	orgsBySlug   map[string]*orgdomain.Org
	memberships  map[string]*membershipdomain.Membership
	sessions     map[string]*sessiondomain.Session

	failMembershipCreate bool

	// Simulate a concurrent signup winning the race between the service's
	// pre-checks and the transactional inserts: lookups still miss, but the
	// insert hits the unique constraint.
	raceDuplicateEmail bool
	raceDuplicateSlug  bool
}

func newMemStore() *memStore {
	return &memStore{
		usersByID:    map[string]*userdomain.User{},
		usersByEmail: map[string]*userdomain.User{},
		orgsByID:     map[string]*orgdomain.Org{},
		orgsBySlug:   map[string]*orgdomain.Org{},
		memberships:  map[string]*membershipdomain.Membership{},
		sessions:     map[string]*sessiondomain.Session{},
	}
}

func (s *memStore) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usersByID[id], nil
}

func (s *memStore) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usersByEmail[email], nil
}

func (s *memStore) Create(ctx context.Context, u *userdomain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raceDuplicateEmail {
		return userrepo.ErrDuplicateEmail
	}
	s.usersByID[u.ID] = u
	s.usersByEmail[u.Email] = u
	return nil
}

// orgStore adapts memStore to the OrgRepo interface; Create would otherwise
// collide with UserRepo.Create.
type orgStore struct{ *memStore }

func (s orgStore) GetBySlug(ctx context.Context, slug string) (*orgdomain.Org, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orgsBySlug[slug], nil
}

func (s orgStore) Create(ctx context.Context, o *orgdomain.Org) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raceDuplicateSlug {
		return orgrepo.ErrDuplicateSlug
	}
	s.orgsByID[o.ID] = o
	s.orgsBySlug[o.Slug] = o
	return nil
}

type membershipStore struct{ *memStore }

func (s membershipStore) ListInfoByUser(ctx context.Context, userID string) ([]sessiondomain.MembershipInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sessiondomain.MembershipInfo
	for _, m := range s.memberships {
		if m.UserID != userID {
			continue
		}
		info := sessiondomain.MembershipInfo{OrgID: m.OrgID, Role: m.Role}
		if org := s.orgsByID[m.OrgID]; org != nil {
			info.OrgSlug = org.Slug
			info.OrgName = org.Name
		}
		out = append(out, info)
	}
	return out, nil
}

func (s membershipStore) Create(ctx context.Context, m *membershipdomain.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMembershipCreate {
		return errors.New("membership insert failed")
	}
	s.memberships[m.ID] = m
	return nil
}

type sessionStore struct{ *memStore }

func (s sessionStore) GetByID(ctx context.Context, id string) (*sessiondomain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id], nil
}

func (s sessionStore) Create(ctx context.Context, sess *sessiondomain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s sessionStore) Revoke(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok && sess.RevokedAt == nil {
		now := time.Now().UTC()
		sess.RevokedAt = &now
	}
	return nil
}

func (s sessionStore) RevokeAllByUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.RevokedAt == nil {
			sess.RevokedAt = &now
		}
	}
	return nil
}

func (s sessionStore) UpdateRefreshToken(ctx context.Context, sessionID, jti, refreshTokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		sess.RefreshJti = jti
		sess.RefreshTokenHash = refreshTokenHash
	}
	return nil
}

func (s sessionStore) UpdateLastSeen(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.LastSeenAt = &at
	}
	return nil
}

// memTx runs fn against the live store and restores a snapshot of the maps on
// error, so failed "transactions" leave no partial writes behind.
type memTx struct{ store *memStore }

func (t *memTx) WithinTx(ctx context.Context, fn func(TxRepos) error) error {
	t.store.mu.Lock()
	savedUsersByID := copyMap(t.store.usersByID)
	savedUsersByEmail := copyMap(t.store.usersByEmail)
	savedOrgsByID := copyMap(t.store.orgsByID)
	savedOrgsBySlug := copyMap(t.store.orgsBySlug)
	savedMemberships := copyMap(t.store.memberships)
	t.store.mu.Unlock()

	err := fn(TxRepos{
		Users:       t.store,
		Orgs:        orgStore{t.store},
		Memberships: membershipStore{t.store},
	})
	if err != nil {
		t.store.mu.Lock()
		t.store.usersByID = savedUsersByID
		t.store.usersByEmail = savedUsersByEmail
		t.store.orgsByID = savedOrgsByID
		t.store.orgsBySlug = savedOrgsBySlug
		t.store.memberships = savedMemberships
		t.store.mu.Unlock()
	}
	return err
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func newTestAuthService(t *testing.T, store *memStore) *AuthService {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	return NewAuthService(
		store,
		orgStore{store},
		membershipStore{store},
		sessionStore{store},
		&memTx{store: store},
		security.NewHasher(4),
		tokens,
		24*time.Hour,
	)
}

func TestSignUp(t *testing.T) {
	store := newMemStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	if err := svc.SignUp(ctx, "owner@acme.com", "password123", "John Owner", "Acme Corporation"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	user := store.usersByEmail["owner@acme.com"]
	if user == nil {
		t.Fatal("user not created")
	}
	if user.PasswordHash == "" || user.PasswordHash == "password123" {
		t.Errorf("PasswordHash = %q", user.PasswordHash)
	}
	org := store.orgsBySlug["acme-corporation"]
	if org == nil {
		t.Fatal("org not created under derived slug")
	}
	if org.Name != "Acme Corporation" {
		t.Errorf("org Name = %q", org.Name)
	}
	var owner bool
	for _, m := range store.memberships {
		if m.UserID == user.ID && m.OrgID == org.ID && m.Role == membershipdomain.RoleOwner {
			owner = true
		}
	}
	if !owner {
		t.Error("OWNER membership not created")
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	store := newMemStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	if err := svc.SignUp(ctx, "owner@acme.com", "password123", "John", "Acme"); err != nil {
		t.Fatalf("first SignUp: %v", err)
	}
	err := svc.SignUp(ctx, "owner@acme.com", "password123", "John", "Other Org")
	if !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Fatalf("err = %v, want ErrEmailAlreadyRegistered", err)
	}
}

func TestSignUpOrgNameTaken(t *testing.T) {
	store := newMemStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	if err := svc.SignUp(ctx, "a@acme.com", "password123", "A", "Acme Corp"); err != nil {
		t.Fatalf("first SignUp: %v", err)
	}
	// "Acme!!Corp" slugifies to the same "acme-corp".
	err := svc.SignUp(ctx, "b@acme.com", "password123", "B", "Acme!!Corp")
	if !errors.Is(err, ErrOrgNameTaken) {
		t.Fatalf("err = %v, want ErrOrgNameTaken", err)
	}
	if store.usersByEmail["b@acme.com"] != nil {
		t.Error("second user created despite failed signup")
	}
}

func TestSignUpValidation(t *testing.T) {
	store := newMemStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
		orgName  string
	}{
		{"bad email", "not-an-email", "password123", "Acme"},
		{"empty email", "", "password123", "Acme"},
		{"short password", "a@acme.com", "short", "Acme"},
		{"empty org name", "a@acme.com", "password123", ""},
		{"org name without alphanumerics", "a@acme.com", "password123", "!!!"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := svc.SignUp(ctx, c.email, c.password, "Name", c.orgName)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
	if len(store.usersByID) != 0 {
		t.Errorf("users created by invalid signups: %d", len(store.usersByID))
	}
}

func TestSignUpAtomicity(t *testing.T) {
	store := newMemStore()
	store.failMembershipCreate = true
	svc := newTestAuthService(t, store)

	err := svc.SignUp(context.Background(), "owner@acme.com", "password123", "John", "Acme")
	if err == nil {
		t.Fatal("SignUp succeeded despite membership failure")
	}
	if len(store.usersByID) != 0 {
		t.Error("user row survived the failed transaction")
	}
	if len(store.orgsByID) != 0 {
		t.Error("org row survived the failed transaction")
	}
}

func TestSignUpConcurrentDuplicate(t *testing.T) {
	store := newMemStore()
	store.raceDuplicateEmail = true
	svc := newTestAuthService(t, store)

	err := svc.SignUp(context.Background(), "owner@acme.com", "password123", "John", "Acme")
	if !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Errorf("SignUp after email race = %v, want ErrEmailAlreadyRegistered", err)
	}

	store = newMemStore()
	store.raceDuplicateSlug = true
	svc = newTestAuthService(t, store)

	err = svc.SignUp(context.Background(), "owner@acme.com", "password123", "John", "Acme")
	if !errors.Is(err, ErrOrgNameTaken) {
		t.Errorf("SignUp after slug race = %v, want ErrOrgNameTaken", err)
	}
	if len(store.usersByID) != 0 {
		t.Error("user row survived the failed transaction")
	}
}

func TestAuthenticate(t *testing.T) {
	store := newMemStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	if err := svc.SignUp(ctx, "owner@acme.com", "password123", "John Owner", "Acme Corporation"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	res, err := svc.Authenticate(ctx, "owner@acme.com", "password123", "127.0.0.1")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatal("tokens missing")
	}
	if len(res.Snapshot.Memberships) != 1 {
		t.Fatalf("snapshot memberships = %d, want 1", len(res.Snapshot.Memberships))
	}
	m := res.Snapshot.Memberships[0]
	if m.Role != membershipdomain.RoleOwner || m.OrgSlug != "acme-corporation" || m.OrgName != "Acme Corporation" {
		t.Errorf("snapshot membership = %+v", m)
	}
	if len(store.sessions) != 1 {
		t.Errorf("sessions = %d, want 1", len(store.sessions))
	}
}

func TestAuthenticateInvalidCredentials(t *testing.T) {
	store := newMemStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	if err := svc.SignUp(ctx, "owner@acme.com", "password123", "John", "Acme"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	// Unknown email and wrong password are indistinguishable.
	if _, err := svc.Authenticate(ctx, "nobody@acme.com", "password123", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Authenticate(ctx, "owner@acme.com", "wrong-password", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	// Email is matched case-sensitively against the stored value.
	if _, err := svc.Authenticate(ctx, "OWNER@ACME.COM", "password123", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("case-variant email: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	store := newMemStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	if err := svc.SignUp(ctx, "owner@acme.com", "password123", "John", "Acme"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	login, err := svc.Authenticate(ctx, "owner@acme.com", "password123", "")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	first, err := svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if first.RefreshToken == login.RefreshToken {
		t.Fatal("refresh token not rotated")
	}

	// Replaying the pre-rotation token is reuse: the session's jti has moved
	// on, and every session of the user gets revoked.
	if _, err := svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrRefreshTokenReuse) {
		t.Fatalf("replay err = %v, want ErrRefreshTokenReuse", err)
	}
	for _, sess := range store.sessions {
		if sess.RevokedAt == nil {
			t.Error("session not revoked after reuse detection")
		}
	}

	// The rotated token is dead too once the session is revoked.
	if _, err := svc.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("post-revocation err = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestRefreshReloadsSnapshot(t *testing.T) {
	store := newMemStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	if err := svc.SignUp(ctx, "owner@acme.com", "password123", "John", "Acme"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	login, err := svc.Authenticate(ctx, "owner@acme.com", "password123", "")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	// Grant a second membership after login; the login snapshot cannot see it.
	org2 := &orgdomain.Org{ID: "org-2", Name: "Tech Startup", Slug: "tech-startup"}
	store.orgsByID[org2.ID] = org2
	store.orgsBySlug[org2.Slug] = org2
	store.memberships["m2"] = &membershipdomain.Membership{
		ID: "m2", UserID: login.Snapshot.UserID, OrgID: org2.ID, Role: membershipdomain.RoleMember,
	}
	if len(login.Snapshot.Memberships) != 1 {
		t.Fatalf("login snapshot memberships = %d, want 1", len(login.Snapshot.Memberships))
	}

	res, err := svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(res.Snapshot.Memberships) != 2 {
		t.Errorf("refresh snapshot memberships = %d, want 2", len(res.Snapshot.Memberships))
	}
}

func TestLogout(t *testing.T) {
	store := newMemStore()
	svc := newTestAuthService(t, store)
	ctx := context.Background()

	if err := svc.SignUp(ctx, "owner@acme.com", "password123", "John", "Acme"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	login, err := svc.Authenticate(ctx, "owner@acme.com", "password123", "")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	if err := svc.Logout(ctx, login.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("refresh after logout: err = %v, want ErrInvalidRefreshToken", err)
	}

	// Logout with a garbage token is a no-op, not an error.
	if err := svc.Logout(ctx, "garbage"); err != nil {
		t.Errorf("Logout(garbage): %v", err)
	}
}
