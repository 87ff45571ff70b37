package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

const tracerName = "github.com/neomorfeo/tenantpos/internal/adapter/otel"

// TracingStore wraps a domain.Store with OpenTelemetry tracing. Transactions,
// tenant, branch and dependent operations get their own spans; the remaining
// repositories are traced at the SQL level by otelsql only.
type TracingStore struct {
	tracingRepositories
	next domain.Store
}

// Compile-time check: TracingStore implements domain.Store.
var _ domain.Store = (*TracingStore)(nil)

// NewTracingStore creates a tracing decorator around the given store.
func NewTracingStore(next domain.Store) *TracingStore {
	tracer := otel.Tracer(tracerName)
	return &TracingStore{
		tracingRepositories: tracingRepositories{next: next, tracer: tracer},
		next:                next,
	}
}

// Atomic traces the whole unit of work; repositories handed to fn stay traced.
func (s *TracingStore) Atomic(ctx context.Context, fn func(ctx context.Context, tx domain.Repositories) error) error {
	ctx, span := s.tracer.Start(ctx, "Store.Atomic")
	defer span.End()

	err := s.next.Atomic(ctx, func(ctx context.Context, tx domain.Repositories) error {
		return fn(ctx, tracingRepositories{next: tx, tracer: s.tracer})
	})
	finish(span, err)
	return err
}

type tracingRepositories struct {
	next   domain.Repositories
	tracer trace.Tracer
}

func (r tracingRepositories) Tenants() domain.TenantRepository {
	return &TracingTenantRepository{next: r.next.Tenants(), tracer: r.tracer}
}

func (r tracingRepositories) Branches() domain.BranchRepository {
	return &TracingBranchRepository{next: r.next.Branches(), tracer: r.tracer}
}

func (r tracingRepositories) Dependents() domain.DependentRepository {
	return &TracingDependentRepository{next: r.next.Dependents(), tracer: r.tracer}
}

func (r tracingRepositories) Applications() domain.ApplicationRepository {
	return r.next.Applications()
}

func (r tracingRepositories) BranchRequests() domain.BranchRequestRepository {
	return r.next.BranchRequests()
}

func (r tracingRepositories) Users() domain.UserRepository { return r.next.Users() }

// finish records err on span, if any.
func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// TracingTenantRepository wraps a domain.TenantRepository with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingTenantRepository struct {
	next   domain.TenantRepository
	tracer trace.Tracer
}

// Compile-time check: TracingTenantRepository implements domain.TenantRepository.
var _ domain.TenantRepository = (*TracingTenantRepository)(nil)

func (r *TracingTenantRepository) Create(ctx context.Context, tenant domain.Tenant) error {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.Create",
		trace.WithAttributes(
			attribute.String("tenant.id", tenant.ID),
			attribute.String("tenant.slug", tenant.Slug),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, tenant)
	finish(span, err)
	return err
}

func (r *TracingTenantRepository) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.GetByID",
		trace.WithAttributes(attribute.String("tenant.id", id)),
	)
	defer span.End()

	tenant, err := r.next.GetByID(ctx, id)
	finish(span, err)
	return tenant, err
}

func (r *TracingTenantRepository) GetBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.GetBySlug",
		trace.WithAttributes(attribute.String("tenant.slug", slug)),
	)
	defer span.End()

	tenant, err := r.next.GetBySlug(ctx, slug)
	finish(span, err)
	return tenant, err
}

func (r *TracingTenantRepository) GetByBusinessName(ctx context.Context, name string) (domain.Tenant, error) {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.GetByBusinessName")
	defer span.End()

	tenant, err := r.next.GetByBusinessName(ctx, name)
	finish(span, err)
	return tenant, err
}

func (r *TracingTenantRepository) List(ctx context.Context, filter domain.TenantFilter) ([]domain.Tenant, error) {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Active != nil {
		span.SetAttributes(attribute.Bool("filter.active", *filter.Active))
	}

	tenants, err := r.next.List(ctx, filter)
	if err != nil {
		finish(span, err)
	} else {
		span.SetAttributes(attribute.Int("result.count", len(tenants)))
	}
	return tenants, err
}

func (r *TracingTenantRepository) Update(ctx context.Context, tenant domain.Tenant) error {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.Update",
		trace.WithAttributes(
			attribute.String("tenant.id", tenant.ID),
			attribute.Bool("tenant.active", tenant.Active),
		),
	)
	defer span.End()

	err := r.next.Update(ctx, tenant)
	finish(span, err)
	return err
}

func (r *TracingTenantRepository) UpdateSlug(ctx context.Context, id, slug string, at time.Time) error {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.UpdateSlug",
		trace.WithAttributes(
			attribute.String("tenant.id", id),
			attribute.String("tenant.slug", slug),
		),
	)
	defer span.End()

	err := r.next.UpdateSlug(ctx, id, slug, at)
	finish(span, err)
	return err
}

func (r *TracingTenantRepository) Delete(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "TenantRepository.Delete",
		trace.WithAttributes(attribute.String("tenant.id", id)),
	)
	defer span.End()

	err := r.next.Delete(ctx, id)
	finish(span, err)
	return err
}

// TracingBranchRepository wraps a domain.BranchRepository with OpenTelemetry tracing.
type TracingBranchRepository struct {
	next   domain.BranchRepository
	tracer trace.Tracer
}

// Compile-time check: TracingBranchRepository implements domain.BranchRepository.
var _ domain.BranchRepository = (*TracingBranchRepository)(nil)

func (r *TracingBranchRepository) Create(ctx context.Context, branch domain.Branch) error {
	ctx, span := r.tracer.Start(ctx, "BranchRepository.Create",
		trace.WithAttributes(
			attribute.String("tenant.id", branch.TenantID),
			attribute.String("branch.id", branch.ID),
			attribute.Bool("branch.is_main", branch.IsMain),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, branch)
	finish(span, err)
	return err
}

func (r *TracingBranchRepository) GetByID(ctx context.Context, id string) (domain.Branch, error) {
	ctx, span := r.tracer.Start(ctx, "BranchRepository.GetByID",
		trace.WithAttributes(attribute.String("branch.id", id)),
	)
	defer span.End()

	branch, err := r.next.GetByID(ctx, id)
	finish(span, err)
	return branch, err
}

func (r *TracingBranchRepository) ListByTenant(ctx context.Context, tenantID string, activeOnly bool) ([]domain.Branch, error) {
	ctx, span := r.tracer.Start(ctx, "BranchRepository.ListByTenant",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.Bool("filter.active_only", activeOnly),
		),
	)
	defer span.End()

	branches, err := r.next.ListByTenant(ctx, tenantID, activeOnly)
	if err != nil {
		finish(span, err)
	} else {
		span.SetAttributes(attribute.Int("result.count", len(branches)))
	}
	return branches, err
}

func (r *TracingBranchRepository) Update(ctx context.Context, branch domain.Branch) error {
	ctx, span := r.tracer.Start(ctx, "BranchRepository.Update",
		trace.WithAttributes(
			attribute.String("branch.id", branch.ID),
			attribute.Bool("branch.is_active", branch.IsActive),
		),
	)
	defer span.End()

	err := r.next.Update(ctx, branch)
	finish(span, err)
	return err
}

func (r *TracingBranchRepository) SetMain(ctx context.Context, tenantID, branchID string, at time.Time) error {
	ctx, span := r.tracer.Start(ctx, "BranchRepository.SetMain",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("branch.id", branchID),
		),
	)
	defer span.End()

	err := r.next.SetMain(ctx, tenantID, branchID, at)
	finish(span, err)
	return err
}

func (r *TracingBranchRepository) Delete(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "BranchRepository.Delete",
		trace.WithAttributes(attribute.String("branch.id", id)),
	)
	defer span.End()

	err := r.next.Delete(ctx, id)
	finish(span, err)
	return err
}

// TracingDependentRepository wraps a domain.DependentRepository with OpenTelemetry tracing.
type TracingDependentRepository struct {
	next   domain.DependentRepository
	tracer trace.Tracer
}

// Compile-time check: TracingDependentRepository implements domain.DependentRepository.
var _ domain.DependentRepository = (*TracingDependentRepository)(nil)

func (r *TracingDependentRepository) Count(ctx context.Context, branchID string) (domain.Dependents, error) {
	ctx, span := r.tracer.Start(ctx, "DependentRepository.Count",
		trace.WithAttributes(attribute.String("branch.id", branchID)),
	)
	defer span.End()

	d, err := r.next.Count(ctx, branchID)
	if err != nil {
		finish(span, err)
	} else {
		span.SetAttributes(attribute.Int("result.total", d.Total()))
	}
	return d, err
}

func (r *TracingDependentRepository) Reassign(ctx context.Context, fromBranchID, toBranchID string) (domain.Dependents, error) {
	ctx, span := r.tracer.Start(ctx, "DependentRepository.Reassign",
		trace.WithAttributes(
			attribute.String("branch.from", fromBranchID),
			attribute.String("branch.to", toBranchID),
		),
	)
	defer span.End()

	moved, err := r.next.Reassign(ctx, fromBranchID, toBranchID)
	if err != nil {
		finish(span, err)
	} else {
		span.SetAttributes(
			attribute.Int("moved.users", moved.Users),
			attribute.Int("moved.sales", moved.Sales),
			attribute.Int("moved.products", moved.Products),
		)
	}
	return moved, err
}
