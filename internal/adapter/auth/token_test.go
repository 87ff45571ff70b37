package auth_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/neomorfeo/tenantpos/internal/adapter/auth"
	"github.com/neomorfeo/tenantpos/internal/domain"
)

func newTokens(t *testing.T) *auth.Tokens {
	t.Helper()
	tokens, err := auth.NewTokens("test-secret", "tenantpos")
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	return tokens
}

func TestTokens_RoundTrip(t *testing.T) {
	tokens := newTokens(t)
	want := domain.Session{Identity: domain.Identity{
		UserID:   "u-1",
		Role:     domain.RoleCashier,
		TenantID: "t-1",
		BranchID: "b-1",
	}}

	raw, err := tokens.Sign(want, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	got, err := tokens.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if got.Identity != want.Identity {
		t.Errorf("identity = %+v, want %+v", got.Identity, want.Identity)
	}
	if got.Impersonating() {
		t.Error("session should not be impersonating")
	}
}

func TestTokens_RoundTrip_Impersonation(t *testing.T) {
	tokens := newTokens(t)
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := domain.Session{
		Identity:      domain.Identity{UserID: "admin", Role: domain.RoleSuperAdmin},
		Impersonation: &domain.Impersonation{TenantID: "t-1", TenantSlug: "acme", StartedAt: started},
	}

	raw, err := tokens.Sign(s, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	got, err := tokens.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if !got.Impersonating() {
		t.Fatal("impersonation lost")
	}
	if *got.Impersonation != *s.Impersonation {
		t.Errorf("impersonation = %+v, want %+v", *got.Impersonation, *s.Impersonation)
	}
	if got.EndImpersonation().Identity != s.Identity {
		t.Error("ending impersonation changed the identity")
	}
}

func TestTokens_Verify_Rejects(t *testing.T) {
	tokens := newTokens(t)
	valid := domain.Session{Identity: domain.Identity{UserID: "u-1", Role: domain.RoleOwner, TenantID: "t-1"}}

	expired, err := tokens.Sign(valid, -time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	other, _ := auth.NewTokens("other-secret", "tenantpos")
	foreign, err := other.Sign(valid, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	badRole, err := tokens.Sign(domain.Session{Identity: domain.Identity{UserID: "u-1", Role: "janitor"}}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	noSubject, err := tokens.Sign(domain.Session{Identity: domain.Identity{Role: domain.RoleOwner}}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u-1", "role": "owner"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing none token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong secret", foreign},
		{"unknown role", badRole},
		{"missing subject", noSubject},
		{"unsigned", none},
		{"garbage", "not-a-token"},
		{"truncated", expired[:strings.LastIndex(expired, ".")]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Verify(tt.token)
			if !errors.Is(err, domain.ErrUnauthenticated) {
				t.Errorf("got error %v, want ErrUnauthenticated", err)
			}
		})
	}
}

func TestNewTokens_EmptySecret(t *testing.T) {
	if _, err := auth.NewTokens("", "tenantpos"); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
