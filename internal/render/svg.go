// Package render draws domain figures as SVG line charts.
package render

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/couchcryptid/gull-survey-dashboard/internal/domain"
)

// ErrNothingToPlot is returned for a figure without any points.
var ErrNothingToPlot = errors.New("figure has no points to plot")

// NoValuesLabel marks a chart whose years are all gaps.
const NoValuesLabel = "No recorded values"

// Options sizes the output image in pixels.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions fits the dashboard's chart panels.
var DefaultOptions = Options{Width: 640, Height: 360}

var lineColor = drawing.ColorFromHex("2c7fb8")

// SVG writes fig to w. Each segment becomes its own series, so no line is
// ever drawn across a gap. A figure whose points are all gaps is drawn as
// empty axes carrying NoValuesLabel.
func SVG(w io.Writer, fig domain.Figure, opts Options) error {
	if len(fig.Points) == 0 {
		return ErrNothingToPlot
	}
	series := seriesFor(fig)
	if len(series) == 0 {
		series = []chart.Series{noValues(fig)}
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts = DefaultOptions
	}

	ch := chart.Chart{
		Title:      fig.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 12}},
		XAxis:      xAxis(fig),
		YAxis:      yAxis(fig),
		Series:     series,
	}

	if err := ch.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("render %q: %w", fig.Title, err)
	}
	return nil
}

func seriesFor(fig domain.Figure) []chart.Series {
	style := chart.Style{
		StrokeColor: lineColor,
		StrokeWidth: 2,
		DotColor:    lineColor,
		DotWidth:    4,
	}

	out := make([]chart.Series, 0, len(fig.Segments))
	for i, seg := range fig.Segments {
		xs := make([]float64, 0, len(seg))
		ys := make([]float64, 0, len(seg))
		for _, p := range seg {
			if p.Value == nil {
				continue
			}
			xs = append(xs, float64(p.Year))
			ys = append(ys, float64(*p.Value))
		}
		switch len(xs) {
		case 0:
			continue
		case 1:
			// A lone point still needs two values; draw it as a zero-length line.
			xs = append(xs, xs[0])
			ys = append(ys, ys[0])
		}
		out = append(out, chart.ContinuousSeries{
			Name:    "segment-" + strconv.Itoa(i),
			XValues: xs,
			YValues: ys,
			Style:   style,
		})
	}
	return out
}

func noValues(fig domain.Figure) chart.AnnotationSeries {
	first, last := fig.Points[0].Year, fig.Points[len(fig.Points)-1].Year
	return chart.AnnotationSeries{
		Name: "no-values",
		Annotations: []chart.Value2{{
			XValue: float64(first+last) / 2,
			YValue: 0.5,
			Label:  NoValuesLabel,
		}},
	}
}

// xAxis spans every year in the figure, including gaps, with one tick per year.
func xAxis(fig domain.Figure) chart.XAxis {
	minYear, maxYear := fig.Points[0].Year, fig.Points[0].Year
	for _, p := range fig.Points {
		minYear = min(minYear, p.Year)
		maxYear = max(maxYear, p.Year)
	}

	ticks := make([]chart.Tick, 0, maxYear-minYear+1)
	for y := minYear; y <= maxYear; y++ {
		ticks = append(ticks, chart.Tick{Value: float64(y), Label: strconv.Itoa(y)})
	}

	lo, hi := float64(minYear), float64(maxYear)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	return chart.XAxis{
		Name:  fig.XLabel,
		Range: &chart.ContinuousRange{Min: lo, Max: hi},
		Ticks: ticks,
	}
}

// yAxis starts at zero so counts are never visually exaggerated.
func yAxis(fig domain.Figure) chart.YAxis {
	top := 0
	for _, p := range fig.Points {
		if p.Value != nil {
			top = max(top, *p.Value)
		}
	}
	if top == 0 {
		top = 1
	}
	return chart.YAxis{
		Name:           fig.YLabel,
		Range:          &chart.ContinuousRange{Min: 0, Max: float64(top) * 1.1},
		ValueFormatter: func(v any) string { return strconv.Itoa(int(v.(float64))) },
	}
}
