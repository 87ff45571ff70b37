package river

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"
)

// Options tunes the audit queue. Zero values fall back to the defaults below.
type Options struct {
	Logger *slog.Logger
	// Workers caps concurrent audit jobs.
	Workers int
	// MaxAttempts bounds retries of a failing audit job.
	MaxAttempts int
	// Retention is how long completed audit jobs stay in river_job.
	Retention time.Duration
}

const (
	defaultWorkers     = 2
	defaultMaxAttempts = 5
	defaultRetention   = 24 * time.Hour
)

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Workers <= 0 {
		o.Workers = defaultWorkers
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.Retention <= 0 {
		o.Retention = defaultRetention
	}
	return o
}

// Setup migrates River's tables on db and returns a client with the audit
// worker registered. River's schema is versioned by rivermigrate, apart from
// the lifecycle tables goose manages. The caller starts and stops the client.
func Setup(ctx context.Context, db *sql.DB, opts Options) (*Client, error) {
	opts = opts.withDefaults()
	driver := riversqlite.New(db)

	migrator, err := rivermigrate.New(driver, &rivermigrate.Config{Logger: opts.Logger})
	if err != nil {
		return nil, fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, fmt.Errorf("running river migrations: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewAuditWorker(opts.Logger))

	client, err := river.NewClient(driver, &river.Config{
		Logger:                      opts.Logger,
		MaxAttempts:                 opts.MaxAttempts,
		CompletedJobRetentionPeriod: opts.Retention,
		Queues: map[string]river.QueueConfig{
			QueueAudit: {MaxWorkers: opts.Workers},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}

	return client, nil
}
