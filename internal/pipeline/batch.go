package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// BatchProcessor runs per-site work concurrently with a concurrency limit.
// A failing site does not stop the others; all errors are joined.
type BatchProcessor struct {
	// concurrency is the maximum number of sites processed at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent sites.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessSites calls fn for every site. Only cancellation of ctx stops
// sites that have not started yet; site errors are joined in site order.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool.
// Each site gets its own goroutine, but only 'concurrency' goroutines copy
// files at once, which bounds open file descriptors on large sources.
func (bp *BatchProcessor) ProcessSites(ctx context.Context, sites []*Site, fn func(ctx context.Context, site *Site) error) error {
	bp.logger.Debug("starting batch processing",
		"total_sites", len(sites),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	// Indexed by site so the joined error keeps configuration order.
	errs := make([]error, len(sites))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, site := range sites {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			if err := fn(gctx, site); err != nil {
				bp.logger.Warn("site processing failed",
					"domain", site.Config.Domain,
					"error", err,
				)
				errs[i] = err
			}
			return nil
		})
	}

	// Only cancellation reaches the group error.
	if err := g.Wait(); err != nil {
		return err
	}

	bp.logger.Debug("batch processing complete",
		"total_sites", len(sites),
		"elapsed", time.Since(startTime),
	)
	return errors.Join(errs...)
}
