package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

// TracingPublisher wraps a domain.EventPublisher with OpenTelemetry tracing and
// counts published audit events per action and outcome.
type TracingPublisher struct {
	next      domain.EventPublisher
	tracer    trace.Tracer
	published metric.Int64Counter
}

// Compile-time check: TracingPublisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*TracingPublisher)(nil)

// NewTracingPublisher creates a tracing decorator around the given publisher.
func NewTracingPublisher(next domain.EventPublisher) *TracingPublisher {
	counter, err := otel.Meter(tracerName).Int64Counter("tenantpos.audit.published",
		metric.WithDescription("Audit events handed to the audit sink."),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		otel.Handle(err)
	}

	return &TracingPublisher{
		next:      next,
		tracer:    otel.Tracer(tracerName),
		published: counter,
	}
}

func (p *TracingPublisher) Publish(ctx context.Context, event domain.AuditEvent) error {
	ctx, span := p.tracer.Start(ctx, "EventPublisher.Publish",
		trace.WithAttributes(
			attribute.String("audit.action", string(event.Action)),
			attribute.String("tenant.id", event.TenantID),
			attribute.String("tenant.slug", event.TenantSlug),
			attribute.String("entity.id", event.EntityID),
		),
	)
	defer span.End()

	err := p.next.Publish(ctx, event)
	finish(span, err)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.published.Add(ctx, 1, metric.WithAttributes(
		attribute.String("audit.action", string(event.Action)),
		attribute.String("outcome", outcome),
	))
	return err
}
