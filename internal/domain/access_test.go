package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

var acme = domain.Tenant{ID: "t-1", Slug: "acme", Active: true}

func mustScope(t *testing.T, role domain.Role) domain.Scope {
	t.Helper()
	s, err := domain.NewTenantScope(role, "u-1", acme, "b-1")
	require.NoError(t, err)
	return s
}

func TestParseRole(t *testing.T) {
	for _, name := range []domain.RoleName{domain.RoleOwner, domain.RoleManager, domain.RoleCashier, domain.RoleKitchen, domain.RoleSuperAdmin} {
		role, err := domain.ParseRole(name)
		require.NoError(t, err)
		assert.Equal(t, name, role.Name())
	}

	_, err := domain.ParseRole("janitor")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestScope_Decide_Owner(t *testing.T) {
	s := mustScope(t, domain.Owner{})

	assert.Equal(t, domain.Decision{Allowed: true}, s.Decide("/acme/branches"))
	assert.Equal(t, domain.Decision{Allowed: true}, s.Decide("/acme/reports/daily"))
	assert.Equal(t, domain.Decision{Allowed: true}, s.Decide("/login"))
	assert.Equal(t, domain.Decision{Redirect: "/acme/dashboard"}, s.Decide("/acme"))
	assert.Equal(t, domain.Decision{Redirect: "/acme/dashboard"}, s.Decide("/acme/branchesx"))
}

func TestScope_Decide_CrossTenantRedirectsHome(t *testing.T) {
	for _, role := range []domain.Role{domain.Owner{}, domain.Manager{}, domain.Cashier{}, domain.Kitchen{}} {
		s := mustScope(t, role)
		got := s.Decide("/globex/dashboard")
		assert.False(t, got.Allowed, "role %s", role.Name())
		assert.Equal(t, "/acme", got.Redirect, "role %s", role.Name())
	}
}

func TestScope_Decide_SuperAdminSurface(t *testing.T) {
	tenantScope := mustScope(t, domain.Owner{})
	assert.Equal(t, domain.Decision{Redirect: "/acme"}, tenantScope.Decide("/super-admin/tenants"))

	platform := domain.NewPlatformScope("admin-1")
	assert.Equal(t, domain.Decision{Allowed: true}, platform.Decide("/super-admin/tenants"))
	assert.Equal(t, domain.Decision{Redirect: "/super-admin"}, platform.Decide("/acme/dashboard"))
}

func TestScope_Decide_KitchenPinnedToOneRoute(t *testing.T) {
	s := mustScope(t, domain.Kitchen{})

	assert.Equal(t, domain.Decision{Allowed: true}, s.Decide("/acme/kitchen"))
	for _, p := range []string{"/acme/kitchen/orders", "/acme/pos", "/acme/dashboard", "/acme"} {
		assert.Equal(t, domain.Decision{Redirect: "/acme/kitchen"}, s.Decide(p), p)
	}
}

func TestScope_Decide_CashierAndManager(t *testing.T) {
	cashier := mustScope(t, domain.Cashier{})
	assert.True(t, cashier.Decide("/acme/pos").Allowed)
	assert.Equal(t, domain.Decision{Redirect: "/acme/pos"}, cashier.Decide("/acme/reports"))
	assert.Equal(t, "b-1", cashier.BranchID)

	manager := mustScope(t, domain.Manager{})
	assert.True(t, manager.Decide("/acme/reports").Allowed)
	assert.Equal(t, domain.Decision{Redirect: "/acme/dashboard"}, manager.Decide("/acme/settings"))
	assert.Empty(t, manager.BranchID)
}

func TestScope_Decide_CleansPath(t *testing.T) {
	s := mustScope(t, domain.Cashier{})
	assert.Equal(t, domain.Decision{Redirect: "/acme"}, s.Decide("/acme/pos/../../globex/pos"))
}

func TestNewTenantScope_RejectsUnroutableTenants(t *testing.T) {
	_, err := domain.NewTenantScope(domain.Owner{}, "u", domain.Tenant{ID: "t", Active: true}, "")
	assert.ErrorIs(t, err, domain.ErrTenantNotRoutable)

	_, err = domain.NewTenantScope(domain.Owner{}, "u", domain.Tenant{ID: "t", Slug: "acme"}, "")
	assert.ErrorIs(t, err, domain.ErrTenantInactive)

	_, err = domain.NewTenantScope(domain.SuperAdmin{}, "u", acme, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestNewTenantScope_BranchBoundRolesNeedBranch(t *testing.T) {
	for _, role := range []domain.Role{domain.Cashier{}, domain.Kitchen{}} {
		_, err := domain.NewTenantScope(role, "u-1", acme, "")
		assert.ErrorIs(t, err, domain.ErrForbidden, "role %s", role.Name())
	}

	for _, role := range []domain.Role{domain.Owner{}, domain.Manager{}} {
		s, err := domain.NewTenantScope(role, "u-1", acme, "")
		require.NoError(t, err, "role %s", role.Name())
		assert.Empty(t, s.BranchID)
	}
}

func TestSession_Impersonation(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	admin := domain.Session{Identity: domain.Identity{UserID: "admin-1", Role: domain.RoleSuperAdmin}}

	imp, err := admin.Impersonate(acme, now)
	require.NoError(t, err)
	assert.True(t, imp.Impersonating())
	assert.Equal(t, "acme", imp.Impersonation.TenantSlug)
	assert.False(t, admin.Impersonating(), "original session must stay untouched")

	_, err = imp.Impersonate(acme, now)
	assert.ErrorIs(t, err, domain.ErrForbidden, "nested impersonation")

	back := imp.EndImpersonation()
	assert.Equal(t, admin, back)

	owner := domain.Session{Identity: domain.Identity{UserID: "u", Role: domain.RoleOwner, TenantID: "t-1"}}
	_, err = owner.Impersonate(acme, now)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = admin.Impersonate(domain.Tenant{ID: "t-2", Active: true}, now)
	assert.ErrorIs(t, err, domain.ErrTenantNotRoutable)
}

func TestBranchSelection(t *testing.T) {
	assert.True(t, domain.AllBranches().All())
	assert.True(t, domain.BranchSelection{}.All())
	assert.False(t, domain.SelectBranch("b-1").All())
}
