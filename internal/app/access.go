package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

// AccessResolver turns an authenticated session into a route scope.
type AccessResolver struct {
	repos domain.Repositories
	clock domain.Clock
	audit auditor
}

// NewAccessResolver creates a resolver reading from repos.
func NewAccessResolver(repos domain.Repositories, publisher domain.EventPublisher, clock domain.Clock) *AccessResolver {
	return &AccessResolver{
		repos: repos,
		clock: clock,
		audit: auditor{publisher: publisher, clock: clock},
	}
}

// Resolve builds the session's scope once. Tenant scopes carry the tenant's
// current subscription health; access itself is revoked only by the active flag.
func (r *AccessResolver) Resolve(ctx context.Context, s domain.Session) (domain.Scope, error) {
	role, err := domain.ParseRole(s.Identity.Role)
	if err != nil {
		return domain.Scope{}, err
	}

	if _, ok := role.(domain.SuperAdmin); ok {
		if !s.Impersonating() {
			return domain.NewPlatformScope(s.Identity.UserID), nil
		}
		scope, err := r.tenantScope(ctx, domain.Owner{}, s.Identity.UserID, s.Impersonation.TenantID, "")
		if err != nil {
			return domain.Scope{}, err
		}
		scope.Impersonating = true
		scope.ImpersonatorID = s.Identity.UserID
		return scope, nil
	}

	if s.Impersonating() {
		return domain.Scope{}, domain.ErrForbidden
	}
	if s.Identity.TenantID == "" {
		return domain.Scope{}, fmt.Errorf("identity has no tenant: %w", domain.ErrForbidden)
	}
	return r.tenantScope(ctx, role, s.Identity.UserID, s.Identity.TenantID, s.Identity.BranchID)
}

func (r *AccessResolver) tenantScope(ctx context.Context, role domain.Role, userID, tenantID, branchID string) (domain.Scope, error) {
	tenant, err := r.repos.Tenants().GetByID(ctx, tenantID)
	if errors.Is(err, domain.ErrTenantNotFound) {
		return domain.Scope{}, fmt.Errorf("tenant %s: %w", tenantID, domain.ErrForbidden)
	}
	if err != nil {
		return domain.Scope{}, err
	}

	scope, err := domain.NewTenantScope(role, userID, tenant, branchID)
	if err != nil {
		return domain.Scope{}, err
	}

	if scope.BranchID != "" {
		b, err := r.repos.Branches().GetByID(ctx, scope.BranchID)
		if err != nil || b.TenantID != tenant.ID || !b.IsActive {
			return domain.Scope{}, fmt.Errorf("branch %s unavailable: %w", scope.BranchID, domain.ErrForbidden)
		}
	}

	h := tenant.Health(r.clock.Now())
	scope.Health = &h
	return scope, nil
}

// StartImpersonation lets a super-admin act inside a tenant. The returned
// session carries the impersonation; the caller's own session is unchanged.
func (r *AccessResolver) StartImpersonation(ctx context.Context, s domain.Session, tenantID string) (domain.Session, domain.Scope, error) {
	tenant, err := r.repos.Tenants().GetByID(ctx, tenantID)
	if err != nil {
		return domain.Session{}, domain.Scope{}, err
	}

	impersonated, err := s.Impersonate(tenant, r.clock.Now())
	if err != nil {
		return domain.Session{}, domain.Scope{}, err
	}

	scope, err := r.Resolve(ctx, impersonated)
	if err != nil {
		return domain.Session{}, domain.Scope{}, err
	}

	r.audit.record(ctx, domain.AuditEvent{
		Action:     domain.ActionImpersonationStarted,
		TenantID:   tenant.ID,
		TenantSlug: tenant.Slug,
		EntityID:   s.Identity.UserID,
	})
	return impersonated, scope, nil
}

// SelectBranch validates the branch a tenant-scoped query should run against.
// An empty branchID selects all branches, except for scopes pinned to one
// branch, which always select their own.
func (r *AccessResolver) SelectBranch(ctx context.Context, scope domain.Scope, branchID string) (domain.BranchSelection, error) {
	if scope.TenantID == "" {
		return domain.BranchSelection{}, domain.ErrForbidden
	}

	if scope.BranchID != "" {
		if branchID != "" && branchID != scope.BranchID {
			return domain.BranchSelection{}, domain.ErrForbidden
		}
		return domain.SelectBranch(scope.BranchID), nil
	}

	if branchID == "" {
		return domain.AllBranches(), nil
	}

	b, err := tenantBranch(ctx, r.repos, scope.TenantID, branchID)
	if err != nil {
		return domain.BranchSelection{}, err
	}
	if !b.IsActive {
		return domain.BranchSelection{}, &domain.ValidationError{Field: "branch_id", Reason: domain.ReasonBranchInactive,
			Message: "branch is inactive"}
	}
	return domain.SelectBranch(b.ID), nil
}
