package domain

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// RoleName is the wire form of a role.
type RoleName string

const (
	RoleOwner      RoleName = "owner"
	RoleManager    RoleName = "manager"
	RoleCashier    RoleName = "cashier"
	RoleKitchen    RoleName = "kitchen"
	RoleSuperAdmin RoleName = "super_admin"
)

// PlatformRoot is the governance surface reachable only by super-admins.
const PlatformRoot = "/super-admin"

// Role is a closed set of variants. Each variant carries the tenant sections it
// may reach; the set is fixed when a Scope is resolved.
type Role interface {
	Name() RoleName
	sections() []string
}

type (
	Owner      struct{}
	Manager    struct{}
	Cashier    struct{}
	Kitchen    struct{}
	SuperAdmin struct{}
)

func (Owner) Name() RoleName      { return RoleOwner }
func (Manager) Name() RoleName    { return RoleManager }
func (Cashier) Name() RoleName    { return RoleCashier }
func (Kitchen) Name() RoleName    { return RoleKitchen }
func (SuperAdmin) Name() RoleName { return RoleSuperAdmin }

func (Owner) sections() []string {
	return []string{"dashboard", "pos", "kitchen", "sales", "products", "inventory", "branches", "users", "reports", "settings"}
}

func (Manager) sections() []string {
	return []string{"dashboard", "pos", "kitchen", "sales", "products", "inventory", "reports"}
}

func (Cashier) sections() []string { return []string{"pos", "sales"} }
func (Kitchen) sections() []string { return []string{"kitchen"} }
func (SuperAdmin) sections() []string { return nil }

// ParseRole maps a wire role name onto its variant.
func ParseRole(name RoleName) (Role, error) {
	switch name {
	case RoleOwner:
		return Owner{}, nil
	case RoleManager:
		return Manager{}, nil
	case RoleCashier:
		return Cashier{}, nil
	case RoleKitchen:
		return Kitchen{}, nil
	case RoleSuperAdmin:
		return SuperAdmin{}, nil
	}
	return nil, fmt.Errorf("unknown role %q: %w", name, ErrForbidden)
}

// Identity is an authenticated principal as carried by its credential.
type Identity struct {
	UserID   string
	Role     RoleName
	TenantID string
	BranchID string
}

// Impersonation marks a super-admin acting inside one tenant.
type Impersonation struct {
	TenantID   string
	TenantSlug string
	StartedAt  time.Time
}

// Session pairs an identity with an optional impersonation. Ending the
// impersonation leaves the identity untouched.
type Session struct {
	Identity      Identity
	Impersonation *Impersonation
}

// Impersonating reports whether the session acts on behalf of a tenant.
func (s Session) Impersonating() bool {
	return s.Impersonation != nil
}

// Impersonate returns a session acting inside tenant t. Only a super-admin
// session that is not already impersonating may start one.
func (s Session) Impersonate(t Tenant, now time.Time) (Session, error) {
	if s.Identity.Role != RoleSuperAdmin || s.Impersonating() {
		return Session{}, ErrForbidden
	}
	if !t.Routable() {
		return Session{}, ErrTenantNotRoutable
	}
	s.Impersonation = &Impersonation{TenantID: t.ID, TenantSlug: t.Slug, StartedAt: now}
	return s, nil
}

// EndImpersonation drops the impersonation and returns the super-admin session.
func (s Session) EndImpersonation() Session {
	s.Impersonation = nil
	return s
}

// Scope is the set of routes an identity may reach, resolved once per session.
type Scope struct {
	Role           Role
	UserID         string
	TenantID       string
	TenantSlug     string
	BranchID       string
	Prefixes       []string
	Home           string
	Impersonating  bool
	ImpersonatorID string
	Health         *Health
}

// NewPlatformScope builds the scope of a super-admin acting as themselves.
func NewPlatformScope(userID string) Scope {
	return Scope{
		Role:     SuperAdmin{},
		UserID:   userID,
		Prefixes: []string{PlatformRoot},
		Home:     PlatformRoot,
	}
}

// NewTenantScope builds the scope of a tenant-bound role. Cashier and kitchen
// scopes are pinned to branchID and cannot exist without one.
func NewTenantScope(role Role, userID string, t Tenant, branchID string) (Scope, error) {
	switch role.(type) {
	case SuperAdmin:
		return Scope{}, ErrForbidden
	case Cashier, Kitchen:
		if branchID == "" {
			return Scope{}, ErrForbidden
		}
	}
	if !t.Active {
		return Scope{}, ErrTenantInactive
	}
	if t.Slug == "" {
		return Scope{}, ErrTenantNotRoutable
	}

	root := "/" + t.Slug
	sections := role.sections()
	prefixes := make([]string, len(sections))
	for i, s := range sections {
		prefixes[i] = root + "/" + s
	}

	scope := Scope{
		Role:       role,
		UserID:     userID,
		TenantID:   t.ID,
		TenantSlug: t.Slug,
		Prefixes:   prefixes,
		Home:       prefixes[0],
	}
	switch role.(type) {
	case Cashier, Kitchen:
		scope.BranchID = branchID
	}
	return scope, nil
}

// Root is the tenant root route, or the platform root for super-admins.
func (s Scope) Root() string {
	if s.TenantSlug == "" {
		return PlatformRoot
	}
	return "/" + s.TenantSlug
}

// Decision is the outcome of a route check: allowed, or redirected.
type Decision struct {
	Allowed  bool
	Redirect string
}

var publicPaths = map[string]struct{}{
	"/":       {},
	"/login":  {},
	"/signup": {},
	"/apply":  {},
}

// Decide checks a requested route against the scope. It never grants access to
// another tenant's routes; those redirect to the scope's own root.
func (s Scope) Decide(requested string) Decision {
	p := path.Clean("/" + strings.TrimSpace(requested))
	if _, ok := publicPaths[p]; ok {
		return Decision{Allowed: true}
	}

	first := strings.SplitN(strings.TrimPrefix(p, "/"), "/", 2)[0]

	if s.TenantSlug == "" {
		if first == strings.TrimPrefix(PlatformRoot, "/") {
			return Decision{Allowed: true}
		}
		return Decision{Redirect: s.Home}
	}

	if first != s.TenantSlug {
		return Decision{Redirect: s.Root()}
	}

	if _, ok := s.Role.(Kitchen); ok {
		if p == s.Home {
			return Decision{Allowed: true}
		}
		return Decision{Redirect: s.Home}
	}

	for _, prefix := range s.Prefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return Decision{Allowed: true}
		}
	}
	return Decision{Redirect: s.Home}
}

// BranchSelection is the branch a tenant-scoped query runs against. The zero
// value selects all branches.
type BranchSelection struct {
	BranchID string
}

// AllBranches selects the aggregate view.
func AllBranches() BranchSelection { return BranchSelection{} }

// SelectBranch selects one branch.
func SelectBranch(id string) BranchSelection { return BranchSelection{BranchID: id} }

// All reports whether the selection is the aggregate view.
func (b BranchSelection) All() bool { return b.BranchID == "" }
