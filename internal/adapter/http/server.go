package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/couchcryptid/gull-survey-dashboard/internal/dashboard"
	"github.com/couchcryptid/gull-survey-dashboard/internal/domain"
	"github.com/couchcryptid/gull-survey-dashboard/internal/render"
	"github.com/couchcryptid/gull-survey-dashboard/internal/session"
	"github.com/couchcryptid/gull-survey-dashboard/internal/sse"
	"github.com/couchcryptid/gull-survey-dashboard/internal/web"
)

// SessionCookie carries the browser's session ID.
const SessionCookie = "gull_session"

// Server exposes the dashboard page, its JSON API, chart images, the event
// stream, and the health, readiness and metrics endpoints.
type Server struct {
	httpServer *http.Server
	svc        *dashboard.Service
	broker     *sse.Broker
	logger     *slog.Logger
	logoURL    string
}

// NewServer creates an HTTP server with every dashboard route registered.
func NewServer(addr string, svc *dashboard.Service, broker *sse.Broker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     otelhttp.NewHandler(mux, "gull-dashboard"),
			ReadTimeout: 10 * time.Second,
			// No WriteTimeout: /events streams for as long as the page is open.
			IdleTimeout: 60 * time.Second,
		},
		svc:    svc,
		broker: broker,
		logger: logger,
	}
	// Shutdown does not cancel request contexts, so open streams are ended here.
	s.httpServer.RegisterOnShutdown(broker.Close)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(svc))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /events", s.handleEvents)

	mux.HandleFunc("GET /api/colonies", s.handleColonies)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/colonies/{id}/click", s.handleClick)
	mux.HandleFunc("POST /api/colonies/{id}/hover", s.handleHover)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("PUT /api/metric", s.handleSelectMetric)

	mux.HandleFunc("GET /api/chart/colony", s.handleColonyChart)
	mux.HandleFunc("GET /api/chart/colony.svg", s.handleColonyChartSVG)
	mux.HandleFunc("GET /api/chart/aggregate", s.handleAggregateChart)
	mux.HandleFunc("GET /api/chart/aggregate.svg", s.handleAggregateChartSVG)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// session returns the caller's session, issuing a cookie for a new one.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}
	sess, created := s.svc.Session(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID(),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   r.TLS != nil,
		})
	}
	return sess
}

// SetLogoURL sets the image shown in the page header. Empty hides it.
func (s *Server) SetLogoURL(url string) { s.logoURL = url }

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	page := web.Page(web.PageData{
		Markers: s.svc.Markers(),
		Metrics: domain.Metrics,
		State:   s.svc.State(sess),
		LogoURL: s.logoURL,
	})

	var buf bytes.Buffer
	if err := page.Render(r.Context(), &buf); err != nil {
		s.logger.Error("render page failed", "error", err)
		writeError(w, http.StatusInternalServerError, "render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		s.logger.Debug("clear write deadline failed", "error", err)
	}
	s.broker.Serve(w, r, sess.ID(), s.svc.State(sess))
}

func (s *Server) handleColonies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Markers())
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"metrics": domain.Metrics,
		"default": domain.DefaultMetric,
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.State(s.session(w, r)))
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Click(r.Context(), s.session(w, r), r.PathValue("id"))
	s.respond(w, st, err)
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Hover(r.Context(), s.session(w, r), r.PathValue("id"))
	s.respond(w, st, err)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Reset(r.Context(), s.session(w, r)))
}

type metricRequest struct {
	Metric string `json:"metric"`
}

// handleSelectMetric accepts {"metric": "..."} or a form field named metric.
func (s *Server) handleSelectMetric(w http.ResponseWriter, r *http.Request) {
	var name string
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var req metricRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		name = req.Metric
	} else {
		name = r.FormValue("metric")
	}

	st, err := s.svc.SelectMetric(r.Context(), s.session(w, r), name)
	s.respond(w, st, err)
}

func (s *Server) handleColonyChart(w http.ResponseWriter, r *http.Request) {
	fig, ok := s.svc.ColonyChart(s.session(w, r))
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, fig)
}

func (s *Server) handleColonyChartSVG(w http.ResponseWriter, r *http.Request) {
	fig, ok := s.svc.ColonyChart(s.session(w, r))
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeSVG(w, "colony", fig)
}

func (s *Server) handleAggregateChart(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.AggregateChart())
}

func (s *Server) handleAggregateChartSVG(w http.ResponseWriter, _ *http.Request) {
	s.writeSVG(w, "aggregate", s.svc.AggregateChart())
}

func (s *Server) writeSVG(w http.ResponseWriter, chart string, fig domain.Figure) {
	var buf bytes.Buffer
	err := render.SVG(&buf, fig, render.DefaultOptions)
	switch {
	case errors.Is(err, render.ErrNothingToPlot):
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		s.svc.RecordChartError(chart)
		s.logger.Error("render chart failed", "chart", chart, "error", err)
		writeError(w, http.StatusInternalServerError, "render chart")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) respond(w http.ResponseWriter, st dashboard.State, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, st)
	case dashboard.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case dashboard.IsInvalid(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("interaction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}
