package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	membershipdomain "tenantadmin/internal/membership/domain"
	sessiondomain "tenantadmin/internal/session/domain"
)

var (
	// ErrInvalidToken is returned when a token is malformed or invalid.
	ErrInvalidToken = errors.New("invalid token")
)

// MembershipClaim is one membership entry embedded in the access token.
type MembershipClaim struct {
	OrgID   string `json:"org_id"`
	OrgSlug string `json:"org_slug"`
	OrgName string `json:"org_name"`
	Role    string `json:"role"`
}

// AccessClaims holds JWT claims for the access token. The membership list is
// the snapshot captured at issue time; it goes stale until the next login or
// refresh, which is a documented property of the session model.
type AccessClaims struct {
	jwt.RegisteredClaims
	SessionID   string            `json:"session_id"`
	Email       string            `json:"email"`
	Name        string            `json:"name,omitempty"`
	Memberships []MembershipClaim `json:"memberships"`
}

// RefreshClaims holds JWT claims for the refresh token (includes jti for rotation).
type RefreshClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"session_id"`
}

// TokenProvider issues and validates JWT access and refresh tokens using RS256 or ES256 (private/public key).
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenProvider returns a TokenProvider that signs with the given private key (RS256 or ES256).
// issuer and audience are set on claims and validated on parse.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccess issues a short-lived access JWT carrying the session snapshot.
// Returns the token string, its jti, and expiration time.
func (p *TokenProvider) IssueAccess(sessionID string, snap *sessiondomain.Snapshot) (token string, jti string, expiresAt time.Time, err error) {
	jti, err = generateJTI()
	if err != nil {
		return "", "", time.Time{}, err
	}
	now := time.Now().UTC()
	expiresAt = now.Add(p.accessTTL)
	memberships := make([]MembershipClaim, len(snap.Memberships))
	for i, m := range snap.Memberships {
		memberships[i] = MembershipClaim{
			OrgID:   m.OrgID,
			OrgSlug: m.OrgSlug,
			OrgName: m.OrgName,
			Role:    string(m.Role),
		}
	}
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   snap.UserID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SessionID:   sessionID,
		Email:       snap.Email,
		Name:        snap.Name,
		Memberships: memberships,
	}
	token, err = p.sign(claims)
	return token, jti, expiresAt, err
}

// IssueRefresh issues a long-lived refresh JWT and returns the token, its jti
// (for rotation binding), and expiration time. Caller should store jti on the session.
func (p *TokenProvider) IssueRefresh(sessionID, userID string) (token, jti string, expiresAt time.Time, err error) {
	jti, err = generateJTI()
	if err != nil {
		return "", "", time.Time{}, err
	}
	now := time.Now().UTC()
	expiresAt = now.Add(p.refreshTTL)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SessionID: sessionID,
	}
	token, err = p.sign(claims)
	return token, jti, expiresAt, err
}

func (p *TokenProvider) sign(claims jwt.Claims) (string, error) {
	var method jwt.SigningMethod
	switch p.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrInvalidToken
	}
	t := jwt.NewWithClaims(method, claims)
	return t.SignedString(p.privateKey)
}

func (p *TokenProvider) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); ok {
		return p.publicKey, nil
	}
	if _, ok := token.Method.(*jwt.SigningMethodECDSA); ok {
		return p.publicKey, nil
	}
	return nil, ErrInvalidToken
}

// ValidateAccess parses and validates the access token (signature, exp, iss, aud)
// and reconstructs the session snapshot from its claims.
// Any role outside the closed set fails validation rather than passing through.
func (p *TokenProvider) ValidateAccess(tokenString string) (sessionID string, snap *sessiondomain.Snapshot, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, p.keyFunc)
	if err != nil {
		return "", nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return "", nil, ErrInvalidToken
	}
	if err := p.checkIssuerAudience(claims.Issuer, claims.Audience); err != nil {
		return "", nil, err
	}
	memberships := make([]sessiondomain.MembershipInfo, len(claims.Memberships))
	for i, m := range claims.Memberships {
		role, err := membershipdomain.ParseRole(m.Role)
		if err != nil {
			return "", nil, ErrInvalidToken
		}
		memberships[i] = sessiondomain.MembershipInfo{
			OrgID:   m.OrgID,
			OrgSlug: m.OrgSlug,
			OrgName: m.OrgName,
			Role:    role,
		}
	}
	snap = &sessiondomain.Snapshot{
		UserID:      claims.Subject,
		Email:       claims.Email,
		Name:        claims.Name,
		Memberships: memberships,
	}
	return claims.SessionID, snap, nil
}

// ValidateRefresh parses and validates the refresh token (signature, exp, iss, aud).
// Returns sessionID, jti, userID, or error.
func (p *TokenProvider) ValidateRefresh(tokenString string) (sessionID, jti, userID string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &RefreshClaims{}, p.keyFunc)
	if err != nil {
		return "", "", "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*RefreshClaims)
	if !ok || !token.Valid {
		return "", "", "", ErrInvalidToken
	}
	if err := p.checkIssuerAudience(claims.Issuer, claims.Audience); err != nil {
		return "", "", "", err
	}
	return claims.SessionID, claims.ID, claims.Subject, nil
}

func (p *TokenProvider) checkIssuerAudience(issuer string, audience jwt.ClaimStrings) error {
	if issuer != p.issuer {
		return ErrInvalidToken
	}
	for _, a := range audience {
		if a == p.audience {
			return nil
		}
	}
	return ErrInvalidToken
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
