package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// AuditJobArgs carries one committed governance action to the audit worker.
// River serializes this as JSON into its job queue table. It is a snapshot taken
// when the action committed, so the worker never needs to query the database.
type AuditJobArgs struct {
	Action     string    `json:"action"`
	ActorID    string    `json:"actor_id"`
	TenantID   string    `json:"tenant_id,omitempty"`
	TenantSlug string    `json:"tenant_slug,omitempty"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (AuditJobArgs) Kind() string { return "audit.recorded" }

// InsertOpts sends audit jobs to their own queue so they never starve other work.
func (AuditJobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueAudit, MaxAttempts: 5}
}

// QueueAudit is the queue audit jobs are inserted into.
const QueueAudit = "audit"

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues an audit event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, event domain.AuditEvent) error {
	_, err := p.client.Insert(ctx, AuditJobArgs{
		Action:     string(event.Action),
		ActorID:    event.ActorID,
		TenantID:   event.TenantID,
		TenantSlug: event.TenantSlug,
		EntityID:   event.EntityID,
		Detail:     event.Detail,
		OccurredAt: event.OccurredAt,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing audit job: %w", err)
	}
	return nil
}
