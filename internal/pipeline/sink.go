package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/gull-survey-dashboard/internal/domain"
)

// LogSink is the BatchLoader used when no Kafka broker is configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink that writes each event as a debug log line.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) LoadBatch(ctx context.Context, events []domain.InteractionEvent) error {
	for _, ev := range events {
		s.logger.DebugContext(ctx, "interaction event",
			"event_id", ev.ID,
			"session_id", ev.SessionID,
			"kind", ev.Kind,
			"location", ev.Location,
			"metric", ev.Metric,
			"version", ev.Version,
		)
	}
	return nil
}
