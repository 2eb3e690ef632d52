// Package app builds saldo-certo components from configuration. It is shared
// by the bot server and the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/saldo-certo/internal/config"
	"github.com/dvloznov/saldo-certo/internal/export"
	"github.com/dvloznov/saldo-certo/internal/jobs"
	"github.com/dvloznov/saldo-certo/internal/jobs/inmemory"
	"github.com/dvloznov/saldo-certo/internal/metrics"
	"github.com/dvloznov/saldo-certo/internal/session"
	"github.com/dvloznov/saldo-certo/internal/store"
	bqstore "github.com/dvloznov/saldo-certo/internal/store/bigquery"
	"github.com/dvloznov/saldo-certo/internal/store/sqlite"
)

const retryBackoff = 5 * time.Second

// OpenStore opens the configured storage backend.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		return s, nil
	case config.DriverBigQuery:
		s, err := bqstore.New(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("OpenStore: unknown driver %q", cfg.Driver)
	}
}

// Archive owns the export job store and, when a bucket is configured, the
// queue that uploads CSV snapshots to it.
type Archive struct {
	Jobs    *inmemory.Store
	queue   *inmemory.Queue
	storage *export.GCSStorage
	log     zerolog.Logger
}

// NewArchive creates the job store and, if cfg.Bucket is set, starts the
// archive workers. Workers stop when ctx is cancelled or on Shutdown.
func NewArchive(ctx context.Context, cfg config.ExportConfig, ledger store.Ledger, log zerolog.Logger, m *metrics.Metrics) (*Archive, error) {
	a := &Archive{
		Jobs: inmemory.NewStore(),
		log:  log,
	}
	if cfg.Bucket == "" {
		log.Info().Msg("export bucket not configured, CSV archiving disabled")
		return a, nil
	}

	gcs, err := export.NewGCSStorage(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewArchive: %w", err)
	}
	a.storage = gcs

	a.queue = inmemory.NewQueue(inmemory.QueueConfig{
		BufferSize: cfg.QueueSize,
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		Backoff:    retryBackoff,
	}, a.Jobs, log, m)

	archiver := export.NewArchiver(ledger, gcs, cfg.Bucket, log)
	if err := a.queue.Start(ctx, archiver.Handle); err != nil {
		gcs.Close()
		return nil, fmt.Errorf("NewArchive: start workers: %w", err)
	}

	log.Info().Str("bucket", cfg.Bucket).Int("workers", cfg.Workers).Msg("CSV archiving enabled")
	return a, nil
}

// Publisher returns the archive queue, or nil when archiving is disabled.
func (a *Archive) Publisher() jobs.Publisher {
	if a.queue == nil {
		return nil
	}
	return a.queue
}

// Storage returns the object store holding archived exports, or nil when
// archiving is disabled.
func (a *Archive) Storage() export.Storage {
	if a.storage == nil {
		return nil
	}
	return a.storage
}

// Shutdown waits for in-flight jobs and releases the storage client.
func (a *Archive) Shutdown(ctx context.Context) error {
	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			return fmt.Errorf("Shutdown: stop queue: %w", err)
		}
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			return fmt.Errorf("Shutdown: close storage: %w", err)
		}
	}
	return nil
}

// SweepPending drops expired pending prompts every interval until ctx is
// cancelled.
func SweepPending(ctx context.Context, pending *session.Store, interval time.Duration, log zerolog.Logger, m *metrics.Metrics) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := pending.Sweep()
			if n == 0 {
				continue
			}
			if m != nil {
				m.PendingPromptsTotal.WithLabelValues("expired").Add(float64(n))
			}
			log.Debug().Int("expired", n).Msg("swept pending prompts")
		}
	}
}
