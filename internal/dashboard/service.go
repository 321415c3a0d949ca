// Package dashboard wires the survey data, per-session selection state and
// the interaction-event stream into the operations the UI drives.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/gull-survey-dashboard/internal/domain"
	"github.com/couchcryptid/gull-survey-dashboard/internal/observability"
	"github.com/couchcryptid/gull-survey-dashboard/internal/session"
	"github.com/couchcryptid/gull-survey-dashboard/internal/sse"
)

// EventQueue accepts interaction events without blocking.
type EventQueue interface {
	Enqueue(ev domain.InteractionEvent) bool
}

// Notifier pushes a message to every open page of a session.
type Notifier interface {
	Publish(sessionID string, msg sse.Message)
}

// ReadinessChecker is satisfied by background workers such as the event publisher.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Service exposes the dashboard operations. The dataset, markers and the
// aggregate figure are fixed at construction; only session state changes.
type Service struct {
	dataset   domain.Dataset
	markers   *domain.MarkerIndex
	aggregate domain.Figure

	sessions *session.Store
	events   EventQueue
	notifier Notifier
	checks   []ReadinessChecker

	metrics *observability.Metrics
	logger  *slog.Logger
}

// New builds the service. markers should come from domain.BuildMarkers on ds,
// optionally labeled by domain.LabelMarkers.
func New(ds domain.Dataset, markers []domain.Marker, sessions *session.Store, events EventQueue, notifier Notifier, metrics *observability.Metrics, logger *slog.Logger) *Service {
	s := &Service{
		dataset:   ds,
		markers:   domain.NewMarkerIndex(markers),
		aggregate: domain.AggregateChart(domain.Aggregate(ds, domain.MetricTotal)),
		sessions:  sessions,
		events:    events,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
	}
	metrics.DatasetRows.Set(float64(ds.Len()))
	metrics.Colonies.Set(float64(len(markers)))
	return s
}

// AddReadinessCheck registers a dependency consulted by CheckReadiness.
func (s *Service) AddReadinessCheck(c ReadinessChecker) {
	s.checks = append(s.checks, c)
}

// CheckReadiness reports the first failing dependency.
func (s *Service) CheckReadiness(ctx context.Context) error {
	for _, c := range s.checks {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Session resolves id to a live session, creating a fresh one when needed.
func (s *Service) Session(id string) (*session.Session, bool) {
	sess, created := s.sessions.GetOrCreate(id)
	if created {
		s.logger.Debug("session created", "session_id", sess.ID())
	}
	return sess, created
}

// Markers returns the static colony markers.
func (s *Service) Markers() []domain.Marker { return s.markers.All() }

// State returns the session's committed state.
func (s *Service) State(sess *session.Session) State {
	return stateOf(sess.ID(), sess.Snapshot())
}

// Click selects the colony behind markerID. An unknown marker leaves the
// state untouched.
func (s *Service) Click(_ context.Context, sess *session.Session, markerID string) (State, error) {
	m, err := s.markers.Get(markerID)
	if err != nil {
		return State{}, fmt.Errorf("click %q: %w", markerID, err)
	}
	return s.apply(sess, domain.EventClick, func(v domain.ViewState) domain.ViewState { return v.Click(m) }), nil
}

// Hover updates the status line for markerID.
func (s *Service) Hover(_ context.Context, sess *session.Session, markerID string) (State, error) {
	m, err := s.markers.Get(markerID)
	if err != nil {
		return State{}, fmt.Errorf("hover %q: %w", markerID, err)
	}
	return s.apply(sess, domain.EventHover, func(v domain.ViewState) domain.ViewState { return v.Hover(m) }), nil
}

// Reset clears the selection and restores the reset map view.
func (s *Service) Reset(_ context.Context, sess *session.Session) State {
	return s.apply(sess, domain.EventReset, domain.ViewState.Reset)
}

// SelectMetric changes the plotted metric by its column name.
func (s *Service) SelectMetric(_ context.Context, sess *session.Session, name string) (State, error) {
	m, err := domain.ParseMetric(name)
	if err != nil {
		return State{}, fmt.Errorf("select metric: %w", err)
	}
	return s.apply(sess, domain.EventMetric, func(v domain.ViewState) domain.ViewState { return v.WithMetric(m) }), nil
}

// ColonyChart returns the per-colony figure for the session, or false while
// nothing is selected.
func (s *Service) ColonyChart(sess *session.Session) (domain.Figure, bool) {
	v := sess.Snapshot()
	fig, ok := domain.ColonyChart(s.dataset, v.Selection, v.Metric)
	if !ok {
		s.metrics.ChartRenders.WithLabelValues("colony", "suspended").Inc()
		return domain.Figure{}, false
	}
	s.metrics.ChartRenders.WithLabelValues("colony", "rendered").Inc()
	return fig, true
}

// AggregateChart returns the all-colonies figure computed at startup.
func (s *Service) AggregateChart() domain.Figure {
	s.metrics.ChartRenders.WithLabelValues("aggregate", "rendered").Inc()
	return s.aggregate
}

// RecordChartError counts a chart that was derived but failed to render.
func (s *Service) RecordChartError(chart string) {
	s.metrics.ChartRenders.WithLabelValues(chart, "error").Inc()
}

// apply commits fn under the session lock, then announces the change. The
// event and the push happen after the lock is released and never block.
func (s *Service) apply(sess *session.Session, kind domain.EventKind, fn func(domain.ViewState) domain.ViewState) State {
	v := sess.Update(fn)
	s.metrics.Interactions.WithLabelValues(string(kind)).Inc()

	if !s.events.Enqueue(domain.NewInteractionEvent(sess.ID(), kind, v)) {
		s.logger.Warn("interaction event dropped", "session_id", sess.ID(), "kind", kind)
	}

	st := stateOf(sess.ID(), v)
	s.notifier.Publish(sess.ID(), sse.Message{Type: "state", Data: st})
	return st
}

// IsNotFound reports whether err came from an unknown colony.
func IsNotFound(err error) bool { return errors.Is(err, domain.ErrUnknownColony) }

// IsInvalid reports whether err came from a bad metric name.
func IsInvalid(err error) bool { return errors.Is(err, domain.ErrUnknownMetric) }
