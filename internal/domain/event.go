package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventKind names the user gesture behind an InteractionEvent.
type EventKind string

const (
	EventClick  EventKind = "click"
	EventHover  EventKind = "hover"
	EventReset  EventKind = "reset"
	EventMetric EventKind = "metric"
)

// InteractionEvent records one dashboard gesture for the analytics stream.
type InteractionEvent struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Kind       EventKind `json:"kind"`
	Location   string    `json:"location,omitempty"`
	Metric     Metric    `json:"metric,omitempty"`
	Version    uint64    `json:"version"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewInteractionEvent stamps an event with a fresh ID and the package clock.
func NewInteractionEvent(sessionID string, kind EventKind, state ViewState) InteractionEvent {
	ev := InteractionEvent{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Kind:       kind,
		Metric:     state.Metric,
		Version:    state.Version,
		OccurredAt: clock.Now().UTC(),
	}
	if loc, ok := state.Selection.Location(); ok {
		ev.Location = loc
	}
	return ev
}
