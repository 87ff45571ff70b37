package domain

import (
	"context"
	"time"
)

// TenantRepository defines the persistence contract for tenants.
type TenantRepository interface {
	Create(ctx context.Context, tenant Tenant) error
	GetByID(ctx context.Context, id string) (Tenant, error)
	GetBySlug(ctx context.Context, slug string) (Tenant, error)
	GetByBusinessName(ctx context.Context, name string) (Tenant, error)
	List(ctx context.Context, filter TenantFilter) ([]Tenant, error)
	Update(ctx context.Context, tenant Tenant) error
	UpdateSlug(ctx context.Context, id, slug string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// BranchRepository defines the persistence contract for branches.
type BranchRepository interface {
	Create(ctx context.Context, branch Branch) error
	GetByID(ctx context.Context, id string) (Branch, error)
	// ListByTenant returns branches oldest first.
	ListByTenant(ctx context.Context, tenantID string, activeOnly bool) ([]Branch, error)
	Update(ctx context.Context, branch Branch) error
	// SetMain demotes the tenant's current main branch and promotes branchID
	// in one write unit.
	SetMain(ctx context.Context, tenantID, branchID string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// ApplicationRepository defines the persistence contract for tenant applications.
type ApplicationRepository interface {
	Create(ctx context.Context, app Application) error
	GetByID(ctx context.Context, id string) (Application, error)
	FindPendingByBusinessName(ctx context.Context, name string) (Application, error)
	List(ctx context.Context, filter RequestFilter) ([]Application, error)
	Update(ctx context.Context, app Application) error
}

// BranchRequestRepository defines the persistence contract for branch requests.
type BranchRequestRepository interface {
	Create(ctx context.Context, req BranchRequest) error
	GetByID(ctx context.Context, id string) (BranchRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]BranchRequest, error)
	Update(ctx context.Context, req BranchRequest) error
}

// UserRepository creates staff logins.
type UserRepository interface {
	Create(ctx context.Context, user User) error
}

// DependentRepository counts and moves the records that weakly reference a branch.
type DependentRepository interface {
	Count(ctx context.Context, branchID string) (Dependents, error)
	Reassign(ctx context.Context, fromBranchID, toBranchID string) (Dependents, error)
}

// Repositories groups the repositories that share one connection or transaction.
type Repositories interface {
	Tenants() TenantRepository
	Branches() BranchRepository
	Applications() ApplicationRepository
	BranchRequests() BranchRequestRepository
	Users() UserRepository
	Dependents() DependentRepository
}

// Store exposes the repositories and runs units of work atomically. When fn
// returns an error nothing it wrote persists.
type Store interface {
	Repositories
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
}

// EventPublisher defines the contract for the audit sink. It is invoked after
// every committed mutation.
type EventPublisher interface {
	Publish(ctx context.Context, event AuditEvent) error
}

// TransitionValidator checks request workflow transitions.
type TransitionValidator interface {
	Apply(ctx context.Context, machine Machine, current Status, event Event) (Status, error)
}

// PasswordHasher turns a plaintext credential into a storable hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
