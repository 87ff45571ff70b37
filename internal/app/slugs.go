package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

// SlugAllocator validates, checks and assigns tenant routing keys.
type SlugAllocator struct {
	store domain.Store
	clock domain.Clock
	audit auditor
}

// NewSlugAllocator creates an allocator over the given store.
func NewSlugAllocator(store domain.Store, publisher domain.EventPublisher, clock domain.Clock) *SlugAllocator {
	return &SlugAllocator{
		store: store,
		clock: clock,
		audit: auditor{publisher: publisher, clock: clock},
	}
}

// Validate checks a candidate against the routing key rules only.
func (a *SlugAllocator) Validate(candidate string) error {
	return domain.ValidateSlug(candidate)
}

// Suggest derives an advisory candidate from a business name. It never
// assigns anything.
func (a *SlugAllocator) Suggest(businessName string) string {
	return domain.SuggestSlug(businessName)
}

// CheckAvailability reports whether candidate is free. When excludeTenantID is
// set, that tenant's own current slug counts as available. The answer is
// advisory: only the storage constraint decides between concurrent writers.
func (a *SlugAllocator) CheckAvailability(ctx context.Context, candidate, excludeTenantID string) (bool, error) {
	if err := domain.ValidateSlug(candidate); err != nil {
		return false, err
	}
	return slugAvailable(ctx, a.store.Tenants(), candidate, excludeTenantID)
}

// Assign gives tenantID the candidate slug. It is the only write path that
// changes a tenant's routing key after creation.
func (a *SlugAllocator) Assign(ctx context.Context, tenantID, candidate string) (domain.Tenant, error) {
	if err := domain.ValidateSlug(candidate); err != nil {
		return domain.Tenant{}, err
	}

	var previous string
	var tenant domain.Tenant
	err := a.store.Atomic(ctx, func(ctx context.Context, tx domain.Repositories) error {
		current, err := tx.Tenants().GetByID(ctx, tenantID)
		if err != nil {
			return err
		}
		previous = current.Slug
		if current.Slug == candidate {
			tenant = current
			return nil
		}

		free, err := slugAvailable(ctx, tx.Tenants(), candidate, tenantID)
		if err != nil {
			return err
		}
		if !free {
			return &domain.SlugConflictError{Slug: candidate}
		}

		if err := tx.Tenants().UpdateSlug(ctx, tenantID, candidate, a.clock.Now()); err != nil {
			return err
		}
		tenant, err = tx.Tenants().GetByID(ctx, tenantID)
		return err
	})
	if err != nil {
		return domain.Tenant{}, err
	}

	if previous != candidate {
		a.audit.record(ctx, domain.AuditEvent{
			Action:     domain.ActionTenantSlugChanged,
			TenantID:   tenant.ID,
			TenantSlug: tenant.Slug,
			EntityID:   tenant.ID,
			Detail:     fmt.Sprintf("%q -> %q", previous, candidate),
		})
	}

	return tenant, nil
}

func slugAvailable(ctx context.Context, tenants domain.TenantRepository, candidate, excludeTenantID string) (bool, error) {
	owner, err := tenants.GetBySlug(ctx, candidate)
	if errors.Is(err, domain.ErrTenantNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up slug: %w", err)
	}
	return excludeTenantID != "" && owner.ID == excludeTenantID, nil
}
