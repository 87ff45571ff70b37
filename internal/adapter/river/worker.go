package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// AuditWorker writes audit jobs to the structured log, which is the audit sink.
type AuditWorker struct {
	river.WorkerDefaults[AuditJobArgs]
	logger *slog.Logger
}

// NewAuditWorker creates a worker logging through logger, or slog.Default when nil.
func NewAuditWorker(logger *slog.Logger) *AuditWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditWorker{logger: logger}
}

// Work records a single audit job.
func (w *AuditWorker) Work(ctx context.Context, job *river.Job[AuditJobArgs]) error {
	w.logger.InfoContext(ctx, "audit",
		"action", job.Args.Action,
		"actor_id", job.Args.ActorID,
		"tenant_id", job.Args.TenantID,
		"tenant_slug", job.Args.TenantSlug,
		"entity_id", job.Args.EntityID,
		"detail", job.Args.Detail,
		"occurred_at", job.Args.OccurredAt,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
