package app

import (
	"context"
	"log/slog"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

// auditor hands committed mutations to the audit sink. The mutation has
// already persisted, so a sink failure is logged and never returned.
type auditor struct {
	publisher domain.EventPublisher
	clock     domain.Clock
}

func (a auditor) record(ctx context.Context, event domain.AuditEvent) {
	event.ActorID = domain.ActorFromContext(ctx)
	event.OccurredAt = a.clock.Now()

	if err := a.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "audit event not published",
			"action", event.Action,
			"tenant_id", event.TenantID,
			"entity_id", event.EntityID,
			"error", err,
		)
	}
}
