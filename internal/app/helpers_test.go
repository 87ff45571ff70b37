package app_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/tenantpos/internal/adapter/fsm"
	"github.com/neomorfeo/tenantpos/internal/adapter/sqlite"
	"github.com/neomorfeo/tenantpos/internal/app"
	"github.com/neomorfeo/tenantpos/internal/domain"
)

// --- Test doubles ---

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.AuditEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) actions() []domain.Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Action, len(p.events))
	for i, e := range p.events {
		out[i] = e.Action
	}
	return out
}

func (p *recordingPublisher) last() domain.AuditEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

type prefixHasher struct{}

func (prefixHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

// --- Harness ---

var start = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

type harness struct {
	store   *sqlite.Store
	clock   *fixedClock
	pub     *recordingPublisher
	slugs   *app.SlugAllocator
	apps    *app.ApplicationWorkflow
	ledger  *app.BranchLedger
	retirer *app.RetirementCoordinator
	gov     *app.Governance
	access  *app.AccessResolver
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := &fixedClock{now: start}
	pub := &recordingPublisher{}
	validator := fsm.New()

	slugs := app.NewSlugAllocator(store, pub, clock)
	retirer := app.NewRetirementCoordinator(store, pub, clock)

	return &harness{
		store: store,
		clock: clock,
		pub:   pub,
		slugs: slugs,
		apps: app.NewApplicationWorkflow(store, validator, prefixHasher{}, pub, clock, app.TenantDefaults{
			CurrencyCode:   "USD",
			CurrencySymbol: "$",
			TaxRate:        0.1,
		}),
		ledger:  app.NewBranchLedger(store, validator, pub, clock),
		retirer: retirer,
		gov:     app.NewGovernance(store, slugs, retirer, pub, clock),
		access:  app.NewAccessResolver(store, pub, clock),
	}
}

func validForm(business string) domain.ApplicationForm {
	return domain.ApplicationForm{
		BusinessName:     business,
		BusinessCategory: "restaurant",
		OwnerName:        "Jo Doe",
		Email:            "jo@example.com",
		Phone:            "555-0100",
		Address:          "1 Main St",
		Username:         "jodoe",
		Password:         "correct-horse",
	}
}

// provision submits and approves an application for three months.
func (h *harness) provision(t *testing.T, business, slug string) app.Provisioned {
	t.Helper()
	ctx := context.Background()

	a, err := h.apps.Submit(ctx, validForm(business))
	require.NoError(t, err)

	p, err := h.apps.Approve(ctx, a.ID, slug, 3)
	require.NoError(t, err)
	return p
}

// addBranch creates a branch one minute after the previous one so that
// "oldest first" ordering is unambiguous.
func (h *harness) addBranch(t *testing.T, tenantID, name string) domain.Branch {
	t.Helper()
	h.clock.advance(time.Minute)
	b, err := h.ledger.Create(context.Background(), tenantID, domain.BranchAttrs{Name: name})
	require.NoError(t, err)
	return b
}

func (h *harness) seedUsers(t *testing.T, tenantID, branchID string, n int) {
	t.Helper()
	for i := range n {
		err := h.store.Users().Create(context.Background(), domain.User{
			ID:           fmt.Sprintf("%s-u%d", branchID, i),
			TenantID:     tenantID,
			BranchID:     branchID,
			Username:     fmt.Sprintf("%s-staff%d", branchID, i),
			PasswordHash: "x",
			Role:         domain.RoleCashier,
			Active:       true,
			CreatedAt:    start,
		})
		require.NoError(t, err)
	}
}

func (h *harness) seedSale(t *testing.T, id, tenantID, branchID string) {
	t.Helper()
	_, err := h.store.DB().Exec(
		`INSERT INTO sales (id, tenant_id, branch_id, total_cents, created_at) VALUES (?, ?, ?, 1500, '')`,
		id, tenantID, branchID)
	require.NoError(t, err)
}

func (h *harness) seedProduct(t *testing.T, id, tenantID, branchID string) {
	t.Helper()
	_, err := h.store.DB().Exec(
		`INSERT INTO products (id, tenant_id, branch_id, name, created_at) VALUES (?, ?, ?, 'Coffee', '')`,
		id, tenantID, branchID)
	require.NoError(t, err)
}

func (h *harness) branches(t *testing.T, tenantID string) []domain.Branch {
	t.Helper()
	bs, err := h.store.Branches().ListByTenant(context.Background(), tenantID, false)
	require.NoError(t, err)
	return bs
}

// mainCount counts active main branches of a tenant.
func mainCount(branches []domain.Branch) int {
	n := 0
	for _, b := range branches {
		if b.IsMain && b.IsActive {
			n++
		}
	}
	return n
}
