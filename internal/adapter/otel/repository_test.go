package otel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	adapter "github.com/neomorfeo/tenantpos/internal/adapter/otel"
	"github.com/neomorfeo/tenantpos/internal/adapter/sqlite"
	"github.com/neomorfeo/tenantpos/internal/domain"
)

var epoch = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

// --- Test tracer setup ---

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter
}

func newTracedStore(t *testing.T) (*adapter.TracingStore, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := setupTestTracer(t)
	inner, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { inner.Close() })
	return adapter.NewTracingStore(inner), exporter
}

func testTenant(id, slug string) domain.Tenant {
	return domain.Tenant{
		ID:                id,
		BusinessName:      "Business " + id,
		Slug:              slug,
		CurrencyCode:      "USD",
		CurrencySymbol:    "$",
		SubscriptionStart: epoch,
		SubscriptionEnd:   epoch.AddDate(0, 1, 0),
		Active:            true,
		CreatedAt:         epoch,
		UpdatedAt:         epoch,
	}
}

// --- Tests ---

func TestTracingStore_TenantCreate_RecordsSpan(t *testing.T) {
	store, exporter := newTracedStore(t)

	if err := store.Tenants().Create(context.Background(), testTenant("t-1", "acme")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	span := findSpan(t, exporter, "TenantRepository.Create")
	assertAttribute(t, span, "tenant.id", "t-1")
	assertAttribute(t, span, "tenant.slug", "acme")
}

func TestTracingStore_GetByID_NotFound_RecordsError(t *testing.T) {
	store, exporter := newTracedStore(t)

	_, err := store.Tenants().GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrTenantNotFound) {
		t.Fatalf("got error %v, want ErrTenantNotFound", err)
	}

	span := findSpan(t, exporter, "TenantRepository.GetByID")
	if span.Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", span.Status.Code, codes.Error)
	}
	if len(span.Events) == 0 {
		t.Error("expected an exception event on the span")
	}
}

func TestTracingStore_List_RecordsResultCount(t *testing.T) {
	store, exporter := newTracedStore(t)
	ctx := context.Background()

	for _, tn := range []domain.Tenant{testTenant("t-1", "a"), testTenant("t-2", "b")} {
		if err := store.Tenants().Create(ctx, tn); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	active := true
	if _, err := store.Tenants().List(ctx, domain.TenantFilter{Active: &active, Limit: 10}); err != nil {
		t.Fatalf("list: %v", err)
	}

	span := findSpan(t, exporter, "TenantRepository.List")
	assertAttribute(t, span, "result.count", "2")
	assertAttribute(t, span, "filter.active", "true")
	assertAttribute(t, span, "filter.limit", "10")
}

func TestTracingStore_Atomic_WrapsTransactionRepositories(t *testing.T) {
	store, exporter := newTracedStore(t)
	ctx := context.Background()

	err := store.Atomic(ctx, func(ctx context.Context, tx domain.Repositories) error {
		if err := tx.Tenants().Create(ctx, testTenant("t-1", "acme")); err != nil {
			return err
		}
		return tx.Branches().Create(ctx, domain.NewBranch("b-1", "t-1", domain.BranchAttrs{Name: "Main"}, true, epoch))
	})
	if err != nil {
		t.Fatalf("atomic: %v", err)
	}

	atomic := findSpan(t, exporter, "Store.Atomic")
	create := findSpan(t, exporter, "BranchRepository.Create")
	if create.Parent.SpanID() != atomic.SpanContext.SpanID() {
		t.Error("branch create span is not a child of the transaction span")
	}
	assertAttribute(t, create, "branch.is_main", "true")
}

func TestTracingStore_Atomic_RecordsRollback(t *testing.T) {
	store, exporter := newTracedStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Atomic(ctx, func(ctx context.Context, tx domain.Repositories) error {
		if err := tx.Tenants().Create(ctx, testTenant("t-1", "acme")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got error %v, want boom", err)
	}

	if span := findSpan(t, exporter, "Store.Atomic"); span.Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", span.Status.Code, codes.Error)
	}
	if _, err := store.Tenants().GetByID(ctx, "t-1"); !errors.Is(err, domain.ErrTenantNotFound) {
		t.Errorf("tenant survived rollback: %v", err)
	}
}

func TestTracingStore_Reassign_RecordsMovedCounts(t *testing.T) {
	store, exporter := newTracedStore(t)
	ctx := context.Background()

	if err := store.Tenants().Create(ctx, testTenant("t-1", "acme")); err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	for i, id := range []string{"b-1", "b-2"} {
		b := domain.NewBranch(id, "t-1", domain.BranchAttrs{Name: id}, i == 0, epoch.Add(time.Duration(i)*time.Minute))
		if err := store.Branches().Create(ctx, b); err != nil {
			t.Fatalf("create branch: %v", err)
		}
	}

	moved, err := store.Dependents().Reassign(ctx, "b-2", "b-1")
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if moved.Total() != 0 {
		t.Errorf("moved = %+v, want nothing", moved)
	}

	span := findSpan(t, exporter, "DependentRepository.Reassign")
	assertAttribute(t, span, "branch.from", "b-2")
	assertAttribute(t, span, "branch.to", "b-1")
	assertAttribute(t, span, "moved.users", "0")
}

func TestTracingStore_UntracedRepositoriesPassThrough(t *testing.T) {
	store, exporter := newTracedStore(t)

	if _, err := store.Applications().List(context.Background(), domain.RequestFilter{}); err != nil {
		t.Fatalf("list applications: %v", err)
	}
	if n := len(exporter.GetSpans()); n != 0 {
		t.Errorf("got %d spans, want 0", n)
	}
}

// --- Helpers ---

func findSpan(t *testing.T, exporter *tracetest.InMemoryExporter, name string) tracetest.SpanStub {
	t.Helper()
	for _, span := range exporter.GetSpans() {
		if span.Name == name {
			return span
		}
	}
	t.Fatalf("span %q not recorded", name)
	return tracetest.SpanStub{}
}

func assertAttribute(t *testing.T, span tracetest.SpanStub, key, want string) {
	t.Helper()
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			got := attr.Value.Emit()
			if got != want {
				t.Errorf("attribute %q = %q, want %q", key, got, want)
			}
			return
		}
	}
	t.Errorf("attribute %q not found on span %q", key, span.Name)
}
