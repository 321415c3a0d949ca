// Package web renders the dashboard page. The markup lives in page.templ;
// run `templ generate` after editing it.
package web

//go:generate templ generate

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/couchcryptid/gull-survey-dashboard/internal/dashboard"
	"github.com/couchcryptid/gull-survey-dashboard/internal/domain"
)

const (
	// Title is the page title and heading.
	Title = "California Gull Nest Surveys in SF Bay Area"
	// Instructions sits above the map.
	Instructions = "Click on any gull colony location to see the graph below"
)

// PageData is everything the page needs for its first paint. Later updates
// arrive over /events.
type PageData struct {
	Markers []domain.Marker
	Metrics []domain.Metric
	State   dashboard.State
	// LogoURL is optional; the header renders without a logo when empty.
	LogoURL string
}

type mapConfig struct {
	Markers []domain.Marker `json:"markers"`
	State   dashboard.State `json:"state"`
	MinZoom int             `json:"min_zoom"`
	MaxZoom int             `json:"max_zoom"`
}

func newMapConfig(data PageData) mapConfig {
	return mapConfig{
		Markers: data.Markers,
		State:   data.State,
		MinZoom: domain.MinZoom,
		MaxZoom: domain.MaxZoom,
	}
}

// logo renders the header image, or nothing for an empty url. Unsafe
// schemes are replaced by templ.URL.
func logo(url string) templ.Component {
	if url == "" {
		return templ.NopComponent
	}
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<img id="logo" alt="Logo" src="`+
			templ.EscapeString(string(templ.URL(url)))+`">`)
		return err
	})
}
