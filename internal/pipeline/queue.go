package pipeline

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/gull-survey-dashboard/internal/domain"
	"github.com/couchcryptid/gull-survey-dashboard/internal/observability"
)

// Queue is the bounded hand-off between interaction handlers and the
// publisher. Enqueue never blocks; ExtractBatch implements BatchExtractor.
type Queue struct {
	events        chan domain.InteractionEvent
	flushInterval time.Duration
	clock         clockwork.Clock
	metrics       *observability.Metrics
}

// NewQueue creates a queue holding up to size events. A batch is emitted once
// it is full or flushInterval after its first event, whichever comes first.
func NewQueue(size int, flushInterval time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *Queue {
	return &Queue{
		events:        make(chan domain.InteractionEvent, size),
		flushInterval: flushInterval,
		clock:         clock,
		metrics:       metrics,
	}
}

// Enqueue offers ev to the publisher. It reports false, and counts a drop,
// when the queue is full.
func (q *Queue) Enqueue(ev domain.InteractionEvent) bool {
	select {
	case q.events <- ev:
		q.metrics.EventsEnqueued.Inc()
		return true
	default:
		q.metrics.EventsDropped.Inc()
		return false
	}
}

// Len reports the number of queued events.
func (q *Queue) Len() int { return len(q.events) }

// ExtractBatch blocks until at least one event is queued, then collects up to
// batchSize events within the flush interval. It returns ctx.Err() only when
// cancelled before the first event arrives.
func (q *Queue) ExtractBatch(ctx context.Context, batchSize int) ([]domain.InteractionEvent, error) {
	var first domain.InteractionEvent
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case first = <-q.events:
	}

	batch := make([]domain.InteractionEvent, 0, batchSize)
	batch = append(batch, first)

	timer := q.clock.NewTimer(q.flushInterval)
	defer timer.Stop()

	for len(batch) < batchSize {
		select {
		case ev := <-q.events:
			batch = append(batch, ev)
		case <-timer.Chan():
			return batch, nil
		case <-ctx.Done():
			return batch, nil
		}
	}
	return batch, nil
}

// Drain removes every queued event without blocking.
func (q *Queue) Drain() []domain.InteractionEvent {
	var out []domain.InteractionEvent
	for {
		select {
		case ev := <-q.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}
