package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/tenantpos/internal/app"
	"github.com/neomorfeo/tenantpos/internal/domain"
)

func TestExtendSubscription_ExpiredRestartsFromNow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.provision(t, "Acme Shop", "acme")

	// Three months plus ten days later the subscription is ten days overdue.
	now := p.Tenant.SubscriptionEnd.Add(10 * 24 * time.Hour)
	h.clock.now = now

	got, err := h.gov.ExtendSubscription(ctx, p.Tenant.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 1, 0), got.Tenant.SubscriptionEnd)
	assert.NotEqual(t, p.Tenant.SubscriptionEnd.AddDate(0, 1, 0), got.Tenant.SubscriptionEnd)

	stored, err := h.store.Tenants().GetByID(ctx, p.Tenant.ID)
	require.NoError(t, err)
	assert.True(t, stored.SubscriptionEnd.Equal(now.AddDate(0, 1, 0)))
	assert.Equal(t, domain.ActionSubscriptionExtended, h.pub.last().Action)
}

func TestExtendSubscription_ActiveExtendsFromCurrentEnd(t *testing.T) {
	h := newHarness(t)
	p := h.provision(t, "Acme Shop", "acme")

	got, err := h.gov.ExtendSubscription(context.Background(), p.Tenant.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, p.Tenant.SubscriptionEnd.AddDate(0, 12, 0), got.Tenant.SubscriptionEnd)
	assert.Equal(t, domain.TierHealthy, got.Health.Tier)
	assert.False(t, got.Tenant.SubscriptionEnd.Before(p.Tenant.SubscriptionEnd))
}

func TestExtendSubscription_InvalidMonths(t *testing.T) {
	h := newHarness(t)
	p := h.provision(t, "Acme Shop", "acme")

	for _, months := range []int{0, -1, 121} {
		_, err := h.gov.ExtendSubscription(context.Background(), p.Tenant.ID, months)
		var vErr *domain.ValidationError
		assert.ErrorAs(t, err, &vErr, "months=%d", months)
	}
}

func TestSetStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.provision(t, "Acme Shop", "acme")
	h.pub.reset()

	got, err := h.gov.SetStatus(ctx, p.Tenant.ID, false)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, p.Tenant.SubscriptionEnd, got.SubscriptionEnd, "status is independent of the subscription")

	_, err = h.gov.SetStatus(ctx, p.Tenant.ID, false)
	require.NoError(t, err)
	assert.Len(t, h.pub.actions(), 1, "an unchanged status is not audited")

	_, err = h.gov.SetStatus(ctx, "missing", true)
	assert.ErrorIs(t, err, domain.ErrTenantNotFound)
}

func TestDeleteTenant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.provision(t, "Acme Shop", "acme")
	b := h.addBranch(t, p.Tenant.ID, "Harbor")
	h.seedSale(t, "s-1", p.Tenant.ID, b.ID)

	err := h.gov.DeleteTenant(ctx, p.Tenant.ID, "Acme")
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, domain.ReasonNameMismatch, vErr.Reason)
	_, err = h.store.Tenants().GetByID(ctx, p.Tenant.ID)
	require.NoError(t, err)

	require.NoError(t, h.gov.DeleteTenant(ctx, p.Tenant.ID, "acme shop"))

	_, err = h.store.Tenants().GetByID(ctx, p.Tenant.ID)
	assert.ErrorIs(t, err, domain.ErrTenantNotFound)
	assert.Empty(t, h.branches(t, p.Tenant.ID))

	stored, err := h.apps.Get(ctx, p.Application.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.TenantID, "the application outlives its tenant")

	assert.Equal(t, domain.ActionTenantDeleted, h.pub.last().Action)
	assert.Equal(t, "acme", h.pub.last().TenantSlug)
}

func TestDeleteTenant_RequiresConfirmation(t *testing.T) {
	h := newHarness(t)
	p := h.provision(t, "Acme Shop", "acme")

	err := h.gov.DeleteTenant(context.Background(), p.Tenant.ID, " ")
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, domain.ReasonRequired, vErr.Reason)
}

func TestListTenants_HealthAndTierFilter(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	healthy := h.provision(t, "Healthy Co", "healthy-co")
	warning := h.provision(t, "Warning Co", "warning-co")
	expired := h.provision(t, "Expired Co", "expired-co")

	setEnd := func(p app.Provisioned, end time.Time) {
		tenant := p.Tenant
		tenant.SubscriptionEnd = end
		require.NoError(t, h.store.Tenants().Update(ctx, tenant))
	}
	setEnd(warning, start.Add(20*24*time.Hour))
	setEnd(expired, start.Add(-time.Hour))

	all, err := h.gov.ListTenants(ctx, domain.TenantFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	tiers := map[string]domain.Tier{}
	for _, s := range all {
		tiers[s.Tenant.ID] = s.Health.Tier
	}
	assert.Equal(t, domain.TierHealthy, tiers[healthy.Tenant.ID])
	assert.Equal(t, domain.TierWarning, tiers[warning.Tenant.ID])
	assert.Equal(t, domain.TierExpired, tiers[expired.Tenant.ID])

	tier := domain.TierExpired
	filtered, err := h.gov.ListTenants(ctx, domain.TenantFilter{Tier: &tier, Limit: 10})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, expired.Tenant.ID, filtered[0].Tenant.ID)

	filtered, err = h.gov.ListTenants(ctx, domain.TenantFilter{Tier: &tier, Offset: 1})
	require.NoError(t, err)
	assert.Empty(t, filtered)
}

func TestListTenants_HealthIsRecomputedOnEveryRead(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.provision(t, "Acme Shop", "acme")

	first, err := h.gov.ListTenants(ctx, domain.TenantFilter{})
	require.NoError(t, err)
	assert.Equal(t, domain.TierHealthy, first[0].Health.Tier)

	h.clock.advance(85 * 24 * time.Hour)

	second, err := h.gov.ListTenants(ctx, domain.TenantFilter{})
	require.NoError(t, err)
	assert.Equal(t, domain.TierCritical, second[0].Health.Tier)
	assert.Equal(t, 5, second[0].Health.DaysRemaining)
}

func TestGetTenant(t *testing.T) {
	h := newHarness(t)
	p := h.provision(t, "Acme Shop", "acme")
	h.addBranch(t, p.Tenant.ID, "Harbor")

	detail, err := h.gov.GetTenant(context.Background(), p.Tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", detail.Tenant.Slug)
	assert.Len(t, detail.Branches, 2)
	assert.Equal(t, domain.TierHealthy, detail.Health.Tier)

	_, err = h.gov.GetTenant(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrTenantNotFound)
}

func TestUpdateSlug_GoesThroughAllocator(t *testing.T) {
	h := newHarness(t)
	h.provision(t, "Acme Shop", "acme")
	other := h.provision(t, "Globex", "globex")

	_, err := h.gov.UpdateSlug(context.Background(), other.Tenant.ID, "acme")
	var conflict *domain.SlugConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestAuditFailureDoesNotFailMutation(t *testing.T) {
	h := newHarness(t)
	p := h.provision(t, "Acme Shop", "acme")
	h.pub.err = errors.New("queue unavailable")

	got, err := h.gov.SetStatus(context.Background(), p.Tenant.ID, false)
	require.NoError(t, err)
	assert.False(t, got.Active)

	stored, err := h.store.Tenants().GetByID(context.Background(), p.Tenant.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestAuditEventsCarryActor(t *testing.T) {
	h := newHarness(t)
	p := h.provision(t, "Acme Shop", "acme")

	ctx := domain.ContextWithSession(context.Background(), domain.Session{
		Identity: domain.Identity{UserID: "admin-1", Role: domain.RoleSuperAdmin},
	})
	_, err := h.gov.SetStatus(ctx, p.Tenant.ID, false)
	require.NoError(t, err)

	last := h.pub.last()
	assert.Equal(t, "admin-1", last.ActorID)
	assert.Equal(t, start, last.OccurredAt)
}

func TestMutationsStampUpdatedAtFromClock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.provision(t, "Acme Shop", "acme")
	b := h.addBranch(t, p.Tenant.ID, "Harbor")
	h.clock.advance(2 * time.Hour)
	want := h.clock.Now()

	_, err := h.ledger.SetMain(ctx, p.Tenant.ID, b.ID)
	require.NoError(t, err)
	_, err = h.gov.UpdateSlug(ctx, p.Tenant.ID, "acme-shop")
	require.NoError(t, err)

	for _, id := range []string{p.Branch.ID, b.ID} {
		got, err := h.store.Branches().GetByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.UpdatedAt.Equal(want), "branch %s updated_at = %v, want %v", got.Name, got.UpdatedAt, want)
		assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
	}

	tenant, err := h.store.Tenants().GetByID(ctx, p.Tenant.ID)
	require.NoError(t, err)
	assert.True(t, tenant.UpdatedAt.Equal(want), "tenant updated_at = %v, want %v", tenant.UpdatedAt, want)

	h.clock.advance(time.Hour)
	_, err = h.gov.SetStatus(ctx, p.Tenant.ID, false)
	require.NoError(t, err)
	tenant, err = h.store.Tenants().GetByID(ctx, p.Tenant.ID)
	require.NoError(t, err)
	assert.True(t, tenant.UpdatedAt.Equal(h.clock.Now()))
}
