// Package gc removes archive blobs that no clip references any more.
//
// Blobs become orphaned when a clip is replaced with a different payload or
// deleted: the clip key moves on but the old blob is left behind, since other
// clips may share it. The collector computes the orphaned set and deletes it
// in batches.
package gc

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/storage/cas"
)

// BlobStore is what the collector needs from an archive.
type BlobStore interface {
	ReferencedBlobs(ctx context.Context) ([]cas.Hash, error)
	ListBlobs(ctx context.Context) ([]cas.Hash, error)
	DeleteBlobs(ctx context.Context, hashes []cas.Hash) (map[cas.Hash]error, error)
}

// Collector performs garbage collection on a blob store, either on demand
// with RunNow or periodically between Start and Stop.
//
// Thread Safety: Safe for concurrent use.
type Collector struct {
	store  BlobStore
	config Config
	stopCh chan struct{}
	doneCh chan struct{}
}

// Config contains configuration for the garbage collector.
type Config struct {
	// Enabled controls whether Start launches the periodic worker
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Interval is how often to run garbage collection (default: 24h)
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`

	// BatchSize is how many blobs are deleted per transaction (default: 1000)
	BatchSize int `mapstructure:"batch_size" validate:"omitempty,min=1" yaml:"batch_size"`

	// DryRun logs what would be deleted without deleting
	DryRun bool `mapstructure:"dry_run" yaml:"dry_run"`
}

// NewCollector creates a collector for store.
//
// The collector is not started. Call Start for periodic collection or RunNow
// for a single pass.
func NewCollector(store BlobStore, config Config) (*Collector, error) {
	if store == nil {
		return nil, fmt.Errorf("gc: blob store is required")
	}

	if config.Interval == 0 {
		config.Interval = 24 * time.Hour
	}
	if config.BatchSize == 0 {
		config.BatchSize = 1000
	}

	return &Collector{
		store:  store,
		config: config,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// Start begins background garbage collection at the configured interval.
// It does nothing when the collector is disabled.
func (c *Collector) Start() {
	if !c.config.Enabled {
		logger.Info("Garbage collection disabled")
		return
	}

	logger.Info("Starting garbage collector: interval=%s batch_size=%d dry_run=%v",
		c.config.Interval, c.config.BatchSize, c.config.DryRun)

	go c.worker()
}

// Stop signals the worker and waits for it to finish.
//
// Parameters:
//   - ctx: Context bounding the wait
//
// Returns:
//   - error: ctx.Err() if the worker did not stop in time
func (c *Collector) Stop(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	logger.Info("Stopping garbage collector...")
	close(c.stopCh)

	select {
	case <-c.doneCh:
		logger.Info("Garbage collector stopped")
		return nil
	case <-ctx.Done():
		logger.Warn("Garbage collector shutdown timeout")
		return ctx.Err()
	}
}

// RunNow runs one collection pass and blocks until it completes.
func (c *Collector) RunNow(ctx context.Context) (*Stats, error) {
	logger.Info("Running garbage collection (manual trigger)...")
	return c.collect(ctx)
}

func (c *Collector) worker() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			stats, err := c.collect(ctx)
			cancel()

			if err != nil {
				logger.Error("Garbage collection failed: %v", err)
			} else {
				logger.Info("Garbage collection completed: %s", stats.Summary())
			}

		case <-c.stopCh:
			return
		}
	}
}

// collect performs a single pass:
//  1. Get every blob referenced by a clip
//  2. Get every stored blob
//  3. orphaned = stored - referenced
//  4. Delete orphaned blobs in batches
func (c *Collector) collect(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	referenced, err := c.store.ReferencedBlobs(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to get referenced blobs: %w", err)
	}
	stats.ReferencedCount = uint64(len(referenced))

	referencedSet := make(map[cas.Hash]struct{}, len(referenced))
	for _, h := range referenced {
		referencedSet[h] = struct{}{}
	}

	existing, err := c.store.ListBlobs(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list blobs: %w", err)
	}
	stats.ExistingCount = uint64(len(existing))

	var orphaned []cas.Hash
	for _, h := range existing {
		if _, ok := referencedSet[h]; !ok {
			orphaned = append(orphaned, h)
		}
	}
	stats.OrphanedCount = uint64(len(orphaned))

	logger.Debug("GC: referenced=%d existing=%d orphaned=%d",
		stats.ReferencedCount, stats.ExistingCount, stats.OrphanedCount)

	if len(orphaned) == 0 || c.config.DryRun {
		if c.config.DryRun {
			for i, h := range orphaned {
				if i == 10 {
					logger.Info("GC: DRY RUN ... and %d more", len(orphaned)-10)
					break
				}
				logger.Info("GC: DRY RUN would delete %s", h)
			}
		}
		stats.EndTime = time.Now()
		return stats, nil
	}

	for i := 0; i < len(orphaned); i += c.config.BatchSize {
		if err := ctx.Err(); err != nil {
			stats.EndTime = time.Now()
			return stats, err
		}

		end := min(i+c.config.BatchSize, len(orphaned))
		batch := orphaned[i:end]

		failures, err := c.store.DeleteBlobs(ctx, batch)
		if err != nil {
			logger.Warn("GC: Batch delete failed: %v", err)
			stats.FailedCount += uint64(len(batch))
			continue
		}

		stats.DeletedCount += uint64(len(batch) - len(failures))
		stats.FailedCount += uint64(len(failures))

		for h, ferr := range failures {
			logger.Debug("GC: Failed to delete %s: %v", h, ferr)
		}
	}

	stats.EndTime = time.Now()
	logger.Info("GC: Completed - deleted %d blobs, %d failed, duration=%s",
		stats.DeletedCount, stats.FailedCount, stats.Duration())

	return stats, nil
}

// Stats contains statistics from a garbage collection run.
type Stats struct {
	StartTime       time.Time
	EndTime         time.Time
	ReferencedCount uint64 // Blobs referenced by at least one clip
	ExistingCount   uint64 // Blobs stored
	OrphanedCount   uint64 // Blobs no clip references
	DeletedCount    uint64
	FailedCount     uint64
}

// Duration returns the total collection duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable summary of the collection.
func (s *Stats) Summary() string {
	return fmt.Sprintf("referenced=%d existing=%d orphaned=%d deleted=%d failed=%d duration=%s",
		s.ReferencedCount, s.ExistingCount, s.OrphanedCount,
		s.DeletedCount, s.FailedCount, s.Duration())
}
