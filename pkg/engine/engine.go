// Package engine drives objects from a source through a filter chain with a
// pool of workers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/internal/ratelimiter"
	"github.com/marmos91/dittosync/pkg/filter"
	"github.com/marmos91/dittosync/pkg/model"
	"github.com/marmos91/dittosync/pkg/timefmt"
)

// Config controls the worker pool.
type Config struct {
	// Workers is the number of objects processed concurrently.
	Workers int `mapstructure:"workers" yaml:"workers" validate:"min=1"`

	// FailFast stops the run at the first failed object.
	FailFast bool `mapstructure:"fail_fast" yaml:"fail_fast"`

	// FormatCacheSize bounds the compiled date layouts each worker keeps.
	FormatCacheSize int `mapstructure:"format_cache_size" yaml:"format_cache_size" validate:"min=1"`

	// RateLimit caps how many objects start per second across all workers.
	// Zero means unlimited.
	RateLimit uint `mapstructure:"rate_limit" yaml:"rate_limit"`

	// RateBurst is how many objects may start back to back under RateLimit.
	// Zero means one second worth of objects.
	RateBurst uint `mapstructure:"rate_burst" yaml:"rate_burst"`

	// Verify reads every object back through the chain after it is written
	// and compares path, modification time and ACL.
	Verify bool `mapstructure:"verify" yaml:"verify"`
}

// Metrics observes the objects of a run. Implementations must be safe for
// concurrent use.
type Metrics interface {
	// RecordObject records a finished object, failed when err is not nil.
	RecordObject(duration time.Duration, err error)

	// RecordInFlight adjusts the number of objects being processed.
	RecordInFlight(delta int)
}

type noopMetrics struct{}

func (noopMetrics) RecordObject(time.Duration, error) {}
func (noopMetrics) RecordInFlight(int)                {}

// Summaries yields the objects of a run. Next returns io.EOF when exhausted.
type Summaries interface {
	Next() (*model.ObjectSummary, error)
}

// SliceSummaries iterates over a fixed list.
type SliceSummaries struct {
	items []*model.ObjectSummary
	pos   int
}

// FromSlice returns Summaries over items.
func FromSlice(items []*model.ObjectSummary) *SliceSummaries {
	return &SliceSummaries{items: items}
}

func (s *SliceSummaries) Next() (*model.ObjectSummary, error) {
	if s.pos >= len(s.items) {
		return nil, io.EOF
	}
	item := s.items[s.pos]
	s.pos++
	return item, nil
}

// Stats summarizes a run. Mismatched objects are also counted as failed.
type Stats struct {
	Processed  int64
	Failed     int64
	Verified   int64
	Mismatched int64
}

// Engine runs objects through a chain.
type Engine struct {
	config  Config
	chain   *filter.Chain
	limiter *ratelimiter.RateLimiter
	metrics Metrics
}

// New creates an Engine. Zero values in config fall back to one worker and
// the default cache size.
func New(config Config, chain *filter.Chain) *Engine {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.FormatCacheSize < 1 {
		config.FormatCacheSize = timefmt.DefaultCacheSize
	}
	return &Engine{
		config:  config,
		chain:   chain,
		limiter: ratelimiter.New(config.RateLimit, config.RateBurst),
		metrics: noopMetrics{},
	}
}

// SetMetrics installs m. A nil m disables metrics.
func (e *Engine) SetMetrics(m Metrics) {
	if m == nil {
		m = noopMetrics{}
	}
	e.metrics = m
}

// Run processes every summary and returns once all workers have finished.
//
// A failed object is logged and counted; the run continues unless FailFast
// is set, in which case the first failure is returned and pending objects
// are abandoned. Errors from the summary iterator and context cancellation
// always end the run.
func (e *Engine) Run(ctx context.Context, summaries Summaries) (Stats, error) {
	var processed, failed, verified, mismatched atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	queue := make(chan *model.ObjectSummary, e.config.Workers)

	g.Go(func() error {
		defer close(queue)
		for {
			summary, err := summaries.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read summaries: %w", err)
			}

			select {
			case queue <- summary:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	for i := 0; i < e.config.Workers; i++ {
		worker := i
		g.Go(func() error {
			formats := timefmt.NewCache(e.config.FormatCacheSize)
			logger.Debug("Engine: worker %d started", worker)

			for summary := range queue {
				if err := e.limiter.Wait(gctx); err != nil {
					return err
				}

				err := e.process(gctx, formats, summary)
				if e.config.Verify {
					switch {
					case err == nil:
						verified.Add(1)
					case errors.Is(err, ErrVerifyMismatch):
						mismatched.Add(1)
					}
				}
				if err != nil {
					failed.Add(1)
					logger.Error("Failed to sync %s: %v", summary.Identifier, err)
					if e.config.FailFast {
						return err
					}
					continue
				}
				processed.Add(1)
			}
			logger.Debug("Engine: worker %d done, %d date layouts compiled", worker, formats.Compiles())
			return nil
		})
	}

	err := g.Wait()
	stats := Stats{
		Processed:  processed.Load(),
		Failed:     failed.Load(),
		Verified:   verified.Load(),
		Mismatched: mismatched.Load(),
	}

	logger.Info("Engine: %d objects processed, %d failed", stats.Processed, stats.Failed)
	if e.config.Verify {
		logger.Info("Engine: %d objects verified, %d mismatched", stats.Verified, stats.Mismatched)
	}
	return stats, err
}

// process loads one object and runs it through the chain, then through the
// reverse direction when verification is on. Whatever object the context
// holds when the chain returns is closed, whether or not the chain succeeded.
func (e *Engine) process(ctx context.Context, formats *timefmt.Cache, summary *model.ObjectSummary) (err error) {
	start := time.Now()
	e.metrics.RecordInFlight(1)
	defer func() {
		e.metrics.RecordInFlight(-1)
		e.metrics.RecordObject(time.Since(start), err)
	}()

	source := e.chain.Source()

	obj, err := source.LoadObject(ctx, summary)
	if err != nil {
		return fmt.Errorf("source %s: load %s: %w", source.Name(), summary.Identifier, err)
	}

	oc := &model.ObjectContext{
		SourceSummary: summary,
		Object:        obj,
		Formats:       formats,
	}

	defer func() {
		if cerr := oc.Object.Close(); cerr != nil {
			logger.Warn("Failed to release %s: %v", summary.Identifier, cerr)
		}
	}()

	if err := e.chain.Filter(ctx, oc); err != nil {
		return err
	}

	if !e.config.Verify {
		return nil
	}
	return e.verify(ctx, oc)
}

// verify reads the object back from the target and compares it with the one
// the chain wrote.
func (e *Engine) verify(ctx context.Context, oc *model.ObjectContext) error {
	stored, err := e.chain.ReverseFilter(ctx, oc)
	if err != nil {
		return fmt.Errorf("verify %s: %w", oc.Object.RelativePath(), err)
	}
	if stored != oc.Object {
		defer func() {
			if cerr := stored.Close(); cerr != nil {
				logger.Warn("Failed to release verified %s: %v", stored.RelativePath(), cerr)
			}
		}()
	}

	if err := compareObjects(oc.Object, stored); err != nil {
		return err
	}
	logger.Debug("Engine: verified %s", oc.Object.RelativePath())
	return nil
}
