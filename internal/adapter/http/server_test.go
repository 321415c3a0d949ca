package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/gull-survey-dashboard/internal/adapter/http"
	"github.com/couchcryptid/gull-survey-dashboard/internal/dashboard"
	"github.com/couchcryptid/gull-survey-dashboard/internal/domain"
	"github.com/couchcryptid/gull-survey-dashboard/internal/observability"
	"github.com/couchcryptid/gull-survey-dashboard/internal/render"
	"github.com/couchcryptid/gull-survey-dashboard/internal/session"
	"github.com/couchcryptid/gull-survey-dashboard/internal/sse"
	"github.com/couchcryptid/gull-survey-dashboard/internal/web"
)

type discardQueue struct{}

func (discardQueue) Enqueue(domain.InteractionEvent) bool { return true }

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func intp(v int) *int { return &v }

func testRows() []domain.SurveyRow {
	row := func(location string, lat, lon float64, year int, total *int) domain.SurveyRow {
		return domain.SurveyRow{
			Location: location,
			Coords:   domain.LatLon{Lat: lat, Lon: lon},
			Year:     year,
			Counts:   map[domain.Metric]*int{domain.MetricTotal: total, domain.MetricEmpty: intp(1)},
		}
	}
	return []domain.SurveyRow{
		row("Colony A", 37.5, -122.1, 2019, intp(10)),
		row("Colony A", 37.5, -122.1, 2021, intp(15)),
		row("Colony B", 37.4, -122.0, 2019, intp(20)),
	}
}

func newTestServer(t *testing.T, readyErr error) *httpadapter.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	ds := domain.NewDataset(testRows())
	store := session.NewStore(clockwork.NewFakeClock(), time.Hour, 100, metrics)
	broker := sse.NewBroker(logger)

	svc := dashboard.New(ds, domain.BuildMarkers(ds), store, discardQueue{}, broker, metrics, logger)
	svc.AddReadinessCheck(&mockReadiness{err: readyErr})
	return httpadapter.NewServer(":0", svc, broker, logger)
}

// browser is an HTTP client with its own cookie jar, i.e. one session.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, ts *httptest.Server) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{t: t, base: ts.URL, client: &http.Client{Jar: jar, Timeout: 5 * time.Second}}
}

func (b *browser) do(method, path, contentType, body string) (*http.Response, []byte) {
	b.t.Helper()
	req, err := http.NewRequest(method, b.base+path, strings.NewReader(body))
	require.NoError(b.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, data
}

func (b *browser) state() dashboard.State {
	b.t.Helper()
	resp, body := b.do(http.MethodGet, "/api/state", "", "")
	require.Equal(b.t, http.StatusOK, resp.StatusCode)
	var st dashboard.State
	require.NoError(b.t, json.Unmarshal(body, &st))
	return st
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(t, errors.New("event publisher is not running"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestPage_SetsSessionCookie(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), web.Title)
	assert.NotContains(t, rec.Body.String(), `id="logo"`)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, httpadapter.SessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestPage_RendersConfiguredLogo(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.SetLogoURL("/static/gull.png")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<img id="logo" alt="Logo" src="/static/gull.png">`)
}

func TestUnknownPathIs404(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestColonies(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/colonies", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var markers []domain.Marker
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &markers))
	require.Len(t, markers, 2)
	assert.Equal(t, "colony-a", markers[0].ID)
	assert.Equal(t, "Colony B", markers[1].Title)
}

func TestMetricsList(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Metrics []string `json:"metrics"`
		Default string   `json:"default"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Metrics, 6)
	assert.Equal(t, "Total number of nests", body.Default)
}

func TestColonyChart_ClickFlow(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, nil))
	defer ts.Close()
	b := newBrowser(t, ts)

	resp, _ := b.do(http.MethodGet, "/api/chart/colony", "", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode, "no selection yet")
	resp, _ = b.do(http.MethodGet, "/api/chart/colony.svg", "", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := b.do(http.MethodPost, "/api/colonies/colony-a/click", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st dashboard.State
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, "Colony A", st.Selection.Location)
	assert.Equal(t, domain.FocusZoom, st.View.Zoom)

	resp, body = b.do(http.MethodGet, "/api/chart/colony", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fig domain.Figure
	require.NoError(t, json.Unmarshal(body, &fig))
	require.Len(t, fig.Segments, 2, "2019 and 2021 must not be joined")
	assert.Equal(t, 2019, fig.Segments[0][0].Year)
	assert.Equal(t, 2021, fig.Segments[1][0].Year)

	resp, body = b.do(http.MethodGet, "/api/chart/colony.svg", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "<svg")

	resp, body = b.do(http.MethodPost, "/api/reset", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &st))
	assert.False(t, st.Selection.Selected)
	assert.Equal(t, domain.ResetView, st.View)

	resp, _ = b.do(http.MethodGet, "/api/chart/colony", "", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestColonyChart_MetricWithoutValuesStillRenders(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, nil))
	defer ts.Close()
	b := newBrowser(t, ts)

	resp, _ := b.do(http.MethodPost, "/api/colonies/colony-a/click", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = b.do(http.MethodPut, "/api/metric", "application/json", `{"metric":"1 egg nests"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := b.do(http.MethodGet, "/api/chart/colony.svg", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, "a selected colony is never suspended")
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), render.NoValuesLabel)
}

func TestClickUnknownColony(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, nil))
	defer ts.Close()
	b := newBrowser(t, ts)

	resp, body := b.do(http.MethodPost, "/api/colonies/atlantis/click", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var e map[string]string
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Contains(t, e["error"], "unknown colony")

	assert.False(t, b.state().Selection.Selected)
}

func TestHover(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, nil))
	defer ts.Close()
	b := newBrowser(t, ts)

	resp, _ := b.do(http.MethodPost, "/api/colonies/colony-b/hover", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	st := b.state()
	assert.Equal(t, "Hover over Colony B", st.Status)
	assert.False(t, st.Selection.Selected)
}

func TestSelectMetric(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, nil))
	defer ts.Close()
	b := newBrowser(t, ts)

	resp, _ := b.do(http.MethodPut, "/api/metric", "application/json", `{"metric":"empty nests"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.MetricEmpty, b.state().Metric)

	form := url.Values{"metric": {"4 egg nests"}}.Encode()
	resp, _ = b.do(http.MethodPut, "/api/metric", "application/x-www-form-urlencoded", form)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.MetricFourEgg, b.state().Metric)

	resp, _ = b.do(http.MethodPut, "/api/metric", "application/json", `{"metric":"5 egg nests"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = b.do(http.MethodPut, "/api/metric", "application/json", `{`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, domain.MetricFourEgg, b.state().Metric)
}

func TestAggregateChart(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chart/aggregate", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var fig domain.Figure
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fig))
	require.Len(t, fig.Points, 3)
	assert.Equal(t, 30, *fig.Points[0].Value)
	assert.Equal(t, 2020, fig.Points[1].Year)
	assert.Nil(t, fig.Points[1].Value)
	assert.Equal(t, 15, *fig.Points[2].Value)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chart/aggregate.svg", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestSessionsAreIsolated(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, nil))
	defer ts.Close()
	alice, bob := newBrowser(t, ts), newBrowser(t, ts)

	resp, _ := alice.do(http.MethodPost, "/api/colonies/colony-a/click", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.True(t, alice.state().Selection.Selected)
	assert.False(t, bob.state().Selection.Selected)
	resp, _ = bob.do(http.MethodGet, "/api/chart/colony", "", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestEvents_StreamsStateChanges(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, nil))
	defer ts.Close()
	b := newBrowser(t, ts)
	b.state() // establish the session cookie

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	require.NoError(t, err)
	stream, err := (&http.Client{Jar: b.client.Jar}).Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	require.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	reader := bufio.NewReader(stream.Body)
	assert.Contains(t, readEvent(t, reader), "event: connected")

	resp, _ := b.do(http.MethodPost, "/api/colonies/colony-b/click", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ev := readEvent(t, reader)
	assert.Contains(t, ev, "event: state")
	assert.Contains(t, ev, `"location":"Colony B"`)
}

func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	var lines []string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" {
			return strings.Join(lines, "\n")
		}
		lines = append(lines, line)
	}
}
