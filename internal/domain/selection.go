package domain

import "fmt"

// Map view constants for the SF Bay survey area.
var (
	DefaultCenter = LatLon{Lat: 37.495605832194876, Lon: -122.08810091916739}

	InitialView = MapView{Center: DefaultCenter, Zoom: 12}
	ResetView   = MapView{Center: DefaultCenter, Zoom: 11}
)

const (
	MinZoom   = 11
	MaxZoom   = 16
	FocusZoom = 16
)

// MapView is the map's center and zoom level.
type MapView struct {
	Center LatLon `json:"center"`
	Zoom   int    `json:"zoom"`
}

// Selection is either no colony or exactly one. The zero value is unselected.
type Selection struct {
	location string
	selected bool
}

// Unselected returns the empty selection.
func Unselected() Selection { return Selection{} }

// Selected returns a selection of location.
func Selected(location string) Selection {
	return Selection{location: location, selected: true}
}

// Location returns the selected colony and whether one is selected.
func (s Selection) Location() (string, bool) { return s.location, s.selected }

// IsSelected reports whether a colony is selected.
func (s Selection) IsSelected() bool { return s.selected }

func (s Selection) String() string {
	if !s.selected {
		return "Unselected"
	}
	return fmt.Sprintf("Selected(%s)", s.location)
}

// ViewState is everything one session's UI depends on. Transitions return a
// new value; the receiver is never modified.
type ViewState struct {
	Selection Selection
	View      MapView
	Status    string
	Metric    Metric
	Version   uint64
}

// NewViewState is the state of a fresh session.
func NewViewState() ViewState {
	return ViewState{
		Selection: Unselected(),
		View:      InitialView,
		Metric:    DefaultMetric,
	}
}

// Click selects m's colony from any state and focuses the map on it.
// Re-clicking the selected marker is not special-cased.
func (s ViewState) Click(m Marker) ViewState {
	s.Selection = Selected(m.Location)
	s.View = MapView{Center: m.Coords, Zoom: FocusZoom}
	s.Status = "Clicked on " + m.Title
	s.Version++
	return s
}

// Hover updates the status line only.
func (s ViewState) Hover(m Marker) ViewState {
	s.Status = "Hover over " + m.Title
	s.Version++
	return s
}

// Reset clears the selection and restores ResetView. It is idempotent apart
// from the version bump.
func (s ViewState) Reset() ViewState {
	s.Selection = Unselected()
	s.View = ResetView
	s.Version++
	return s
}

// WithMetric changes the plotted metric. It is allowed while unselected.
func (s ViewState) WithMetric(m Metric) ViewState {
	s.Metric = m
	s.Version++
	return s
}
