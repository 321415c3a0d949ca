package domain

import "fmt"

// AggregateTitle is the title of the all-colonies chart.
const AggregateTitle = "Total number of nests across all colonies"

// Point is one (year, value) sample. A nil Value is a gap.
type Point struct {
	Year  int  `json:"year"`
	Value *int `json:"value"`
}

// Figure is a renderer-neutral line chart. Segments are the runs of points
// that may be joined by a line; a renderer must never connect two segments.
type Figure struct {
	Title    string    `json:"title"`
	XLabel   string    `json:"x_label"`
	YLabel   string    `json:"y_label"`
	Points   []Point   `json:"points"`
	Segments [][]Point `json:"segments"`
}

// ColonyChart derives the per-colony figure for the session's selection and
// metric. It returns false while nothing is selected: rendering is suspended,
// not defaulted.
func ColonyChart(ds Dataset, sel Selection, m Metric) (Figure, bool) {
	location, ok := sel.Location()
	if !ok {
		return Figure{}, false
	}

	rows := ds.ForLocation(location)
	points := make([]Point, 0, len(rows))
	for _, r := range rows {
		p := Point{Year: r.Year}
		if v, ok := r.Count(m); ok {
			p.Value = &v
		}
		points = append(points, p)
	}

	return Figure{
		Title:    fmt.Sprintf("%s in %s colony", m, location),
		XLabel:   "Year",
		YLabel:   m.String(),
		Points:   points,
		Segments: Segments(points),
	}, true
}

// AggregateChart turns the aggregate series into a figure.
func AggregateChart(series AggregateSeries) Figure {
	points := make([]Point, len(series))
	for i, yt := range series {
		points[i] = Point{Year: yt.Year, Value: yt.Total}
	}
	return Figure{
		Title:    AggregateTitle,
		XLabel:   "Year",
		YLabel:   MetricTotal.String(),
		Points:   points,
		Segments: Segments(points),
	}
}

// Segments splits year-ordered points into joinable runs. A run ends at a nil
// value or when the next point is not the following calendar year, so a line
// never bridges a missing survey.
func Segments(points []Point) [][]Point {
	segments := [][]Point{}
	var cur []Point
	for _, p := range points {
		if p.Value == nil {
			if len(cur) > 0 {
				segments = append(segments, cur)
			}
			cur = nil
			continue
		}
		if len(cur) > 0 && p.Year != cur[len(cur)-1].Year+1 {
			segments = append(segments, cur)
			cur = nil
		}
		cur = append(cur, p)
	}
	if len(cur) > 0 {
		segments = append(segments, cur)
	}
	return segments
}
