// Package pipeline publishes dashboard interaction events off the request path.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/gull-survey-dashboard/internal/domain"
	"github.com/couchcryptid/gull-survey-dashboard/internal/observability"
)

// BatchExtractor reads up to batchSize queued events.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.InteractionEvent, error)
}

// BatchLoader writes multiple events to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.InteractionEvent) error
}

const (
	initialBackoff  = 200 * time.Millisecond
	maxBackoff      = 5 * time.Second
	maxLoadAttempts = 5
)

// Pipeline moves batches from the extractor to the loader.
type Pipeline struct {
	extractor BatchExtractor
	loader    BatchLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	running   atomic.Bool
	batchSize int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor: e,
		loader:    l,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// CheckReadiness returns nil while Run is active.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.running.Load() {
		return errors.New("event publisher is not running")
	}
	return nil
}

// Run publishes batches until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("event publisher started", "batch_size", p.batchSize)
	p.running.Store(true)
	p.metrics.PublishRunning.Set(1)
	defer func() {
		p.running.Store(false)
		p.metrics.PublishRunning.Set(0)
	}()

	for {
		batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("event publisher stopping", "reason", ctx.Err())
				return nil
			}
			p.logger.Error("extract batch failed", "error", err)
			continue
		}
		if len(batch) > 0 {
			p.publish(ctx, batch)
		}
		if ctx.Err() != nil {
			p.logger.Info("event publisher stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// Flush loads events in a single attempt. It is used at shutdown to hand the
// remaining queue to the sink.
func (p *Pipeline) Flush(ctx context.Context, events []domain.InteractionEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := p.load(ctx, events); err != nil {
		p.metrics.EventsDropped.Add(float64(len(events)))
		return err
	}
	return nil
}

// publish retries a failed batch with exponential backoff: start at 200ms,
// double each retry, cap at 5s. After maxLoadAttempts the batch is dropped.
// A write already in flight is not cut short by cancellation; only the
// retries are.
func (p *Pipeline) publish(ctx context.Context, batch []domain.InteractionEvent) {
	loadCtx := context.WithoutCancel(ctx)
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err := p.load(loadCtx, batch)
		if err == nil {
			return
		}
		p.logger.Error("load batch failed", "error", err, "batch_size", len(batch), "attempt", attempt)

		if attempt == maxLoadAttempts || !sleepWithContext(ctx, backoff) {
			p.logger.Warn("dropping interaction events", "count", len(batch))
			p.metrics.EventsDropped.Add(float64(len(batch)))
			return
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

func (p *Pipeline) load(ctx context.Context, batch []domain.InteractionEvent) error {
	start := time.Now()
	if err := p.loader.LoadBatch(ctx, batch); err != nil {
		p.metrics.PublishErrors.Inc()
		return err
	}
	p.metrics.PublishDuration.Observe(time.Since(start).Seconds())
	p.metrics.PublishBatchSize.Observe(float64(len(batch)))
	p.metrics.EventsPublished.Add(float64(len(batch)))
	return nil
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
