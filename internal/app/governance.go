package app

import (
	"context"
	"strings"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

// TenantSummary is a tenant with its subscription health as of the read.
type TenantSummary struct {
	Tenant domain.Tenant
	Health domain.Health
}

// TenantDetail is a tenant summary with its branches.
type TenantDetail struct {
	TenantSummary
	Branches []domain.Branch
}

// Governance is the super-admin facade over tenant lifecycle operations.
type Governance struct {
	store   domain.Store
	slugs   *SlugAllocator
	retirer *RetirementCoordinator
	clock   domain.Clock
	audit   auditor
}

// NewGovernance creates the facade.
func NewGovernance(store domain.Store, slugs *SlugAllocator, retirer *RetirementCoordinator, publisher domain.EventPublisher, clock domain.Clock) *Governance {
	return &Governance{
		store:   store,
		slugs:   slugs,
		retirer: retirer,
		clock:   clock,
		audit:   auditor{publisher: publisher, clock: clock},
	}
}

// ListTenants returns tenants annotated with freshly computed health. Tier is
// derived, so a tier filter pages over the filtered result.
func (g *Governance) ListTenants(ctx context.Context, filter domain.TenantFilter) ([]TenantSummary, error) {
	query := filter
	if filter.Tier != nil {
		query.Limit, query.Offset = 0, 0
	}

	tenants, err := g.store.Tenants().List(ctx, query)
	if err != nil {
		return nil, err
	}

	now := g.clock.Now()
	out := make([]TenantSummary, 0, len(tenants))
	for _, t := range tenants {
		h := t.Health(now)
		if filter.Tier != nil && h.Tier != *filter.Tier {
			continue
		}
		out = append(out, TenantSummary{Tenant: t, Health: h})
	}

	if filter.Tier != nil {
		out = paginate(out, filter.Limit, filter.Offset)
	}
	return out, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// GetTenant returns a tenant with its health and branches.
func (g *Governance) GetTenant(ctx context.Context, tenantID string) (TenantDetail, error) {
	t, err := g.store.Tenants().GetByID(ctx, tenantID)
	if err != nil {
		return TenantDetail{}, err
	}
	branches, err := g.store.Branches().ListByTenant(ctx, tenantID, false)
	if err != nil {
		return TenantDetail{}, err
	}
	return TenantDetail{
		TenantSummary: TenantSummary{Tenant: t, Health: t.Health(g.clock.Now())},
		Branches:      branches,
	}, nil
}

// UpdateSlug reassigns a tenant's routing key.
func (g *Governance) UpdateSlug(ctx context.Context, tenantID, slug string) (domain.Tenant, error) {
	return g.slugs.Assign(ctx, tenantID, slug)
}

// ExtendSubscription pushes the subscription end out by months, counting from
// the later of now and the current end.
func (g *Governance) ExtendSubscription(ctx context.Context, tenantID string, months int) (TenantSummary, error) {
	if err := domain.ValidateMonths(months); err != nil {
		return TenantSummary{}, err
	}

	now := g.clock.Now()
	var tenant domain.Tenant
	err := g.store.Atomic(ctx, func(ctx context.Context, tx domain.Repositories) error {
		var err error
		tenant, err = tx.Tenants().GetByID(ctx, tenantID)
		if err != nil {
			return err
		}
		tenant.SubscriptionEnd = domain.ExtendEnd(tenant.SubscriptionEnd, now, months)
		tenant.UpdatedAt = now
		return tx.Tenants().Update(ctx, tenant)
	})
	if err != nil {
		return TenantSummary{}, err
	}

	g.audit.record(ctx, domain.AuditEvent{
		Action:     domain.ActionSubscriptionExtended,
		TenantID:   tenant.ID,
		TenantSlug: tenant.Slug,
		EntityID:   tenant.ID,
		Detail:     "until " + tenant.SubscriptionEnd.Format("2006-01-02"),
	})
	return TenantSummary{Tenant: tenant, Health: tenant.Health(now)}, nil
}

// SetStatus activates or deactivates a tenant. It is independent of the
// subscription window.
func (g *Governance) SetStatus(ctx context.Context, tenantID string, active bool) (domain.Tenant, error) {
	var tenant domain.Tenant
	changed := false
	err := g.store.Atomic(ctx, func(ctx context.Context, tx domain.Repositories) error {
		var err error
		tenant, err = tx.Tenants().GetByID(ctx, tenantID)
		if err != nil {
			return err
		}
		if tenant.Active == active {
			return nil
		}
		tenant.Active = active
		tenant.UpdatedAt = g.clock.Now()
		changed = true
		return tx.Tenants().Update(ctx, tenant)
	})
	if err != nil {
		return domain.Tenant{}, err
	}

	if changed {
		detail := "deactivated"
		if active {
			detail = "activated"
		}
		g.audit.record(ctx, domain.AuditEvent{
			Action:     domain.ActionTenantStatusChanged,
			TenantID:   tenant.ID,
			TenantSlug: tenant.Slug,
			EntityID:   tenant.ID,
			Detail:     detail,
		})
	}
	return tenant, nil
}

// DeleteTenant irreversibly removes a tenant and everything it owns. The
// confirmation must equal the business name, ignoring case.
func (g *Governance) DeleteTenant(ctx context.Context, tenantID, confirmName string) error {
	if strings.TrimSpace(confirmName) == "" {
		return &domain.ValidationError{Field: "confirm_name", Reason: domain.ReasonRequired,
			Message: "type the business name to confirm deletion"}
	}

	var tenant domain.Tenant
	err := g.store.Atomic(ctx, func(ctx context.Context, tx domain.Repositories) error {
		var err error
		tenant, err = tx.Tenants().GetByID(ctx, tenantID)
		if err != nil {
			return err
		}
		if !strings.EqualFold(strings.TrimSpace(confirmName), strings.TrimSpace(tenant.BusinessName)) {
			return &domain.ValidationError{Field: "confirm_name", Reason: domain.ReasonNameMismatch,
				Message: "confirmation does not match the business name"}
		}
		return tx.Tenants().Delete(ctx, tenantID)
	})
	if err != nil {
		return err
	}

	g.audit.record(ctx, domain.AuditEvent{
		Action:     domain.ActionTenantDeleted,
		TenantID:   tenant.ID,
		TenantSlug: tenant.Slug,
		EntityID:   tenant.ID,
		Detail:     tenant.BusinessName,
	})
	return nil
}

// RetireBranch removes a branch through the retirement coordinator.
func (g *Governance) RetireBranch(ctx context.Context, req RetireRequest) (RetirementResult, error) {
	return g.retirer.Retire(ctx, req)
}
