package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

// Claims is the bearer token payload. The impersonation block is present only
// while a super-admin acts inside a tenant.
type Claims struct {
	Role          domain.RoleName     `json:"role"`
	TenantID      string              `json:"tenant_id,omitempty"`
	BranchID      string              `json:"branch_id,omitempty"`
	Impersonation *ImpersonationClaim `json:"impersonation,omitempty"`
	jwt.RegisteredClaims
}

// ImpersonationClaim carries the tenant a super-admin is impersonating.
type ImpersonationClaim struct {
	TenantID   string `json:"tenant_id"`
	TenantSlug string `json:"tenant_slug"`
	StartedAt  int64  `json:"started_at"`
}

// Tokens signs and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokens creates a token codec keyed by secret.
func NewTokens(secret, issuer string) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &Tokens{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Sign encodes s into a token valid for ttl.
func (t *Tokens) Sign(s domain.Session, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		Role:     s.Identity.Role,
		TenantID: s.Identity.TenantID,
		BranchID: s.Identity.BranchID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.Identity.UserID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if imp := s.Impersonation; imp != nil {
		claims.Impersonation = &ImpersonationClaim{
			TenantID:   imp.TenantID,
			TenantSlug: imp.TenantSlug,
			StartedAt:  imp.StartedAt.Unix(),
		}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify decodes a token into a session. Any failure maps onto
// domain.ErrUnauthenticated.
func (t *Tokens) Verify(raw string) (domain.Session, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return domain.Session{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}
	if _, err := domain.ParseRole(claims.Role); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	s := domain.Session{Identity: domain.Identity{
		UserID:   claims.Subject,
		Role:     claims.Role,
		TenantID: claims.TenantID,
		BranchID: claims.BranchID,
	}}
	if imp := claims.Impersonation; imp != nil {
		s.Impersonation = &domain.Impersonation{
			TenantID:   imp.TenantID,
			TenantSlug: imp.TenantSlug,
			StartedAt:  time.Unix(imp.StartedAt, 0).UTC(),
		}
	}
	return s, nil
}
