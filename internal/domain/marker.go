package domain

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// ErrUnknownColony is returned for a marker ID that was never built.
var ErrUnknownColony = errors.New("unknown colony")

// Marker is a static map pin for one colony location.
type Marker struct {
	ID       string `json:"id"`
	Location string `json:"location"`
	Coords   LatLon `json:"coords"`
	Title    string `json:"title"`
	Place    string `json:"place,omitempty"` // reverse-geocoded label, when enabled
}

// BuildMarkers returns one marker per distinct (location, coordinates) pair in
// first-seen order. IDs are URL-safe slugs of the location name. A slug that
// is already taken gets the lowest free numeric suffix, so IDs stay unique
// even when a colony's own name ends in a number.
func BuildMarkers(ds Dataset) []Marker {
	type key struct {
		location string
		coords   LatLon
	}

	seen := make(map[key]bool)
	used := make(map[string]bool)
	var out []Marker
	for _, r := range ds.Rows() {
		k := key{location: r.Location, coords: r.Coords}
		if seen[k] {
			continue
		}
		seen[k] = true

		id := uniqueID(slugify(r.Location), used)
		used[id] = true
		out = append(out, Marker{
			ID:       id,
			Location: r.Location,
			Coords:   r.Coords,
			Title:    r.Location,
		})
	}
	return out
}

// MarkerIndex looks markers up by ID.
type MarkerIndex struct {
	markers []Marker
	byID    map[string]int
}

// NewMarkerIndex indexes markers; the slice is kept as given.
func NewMarkerIndex(markers []Marker) *MarkerIndex {
	byID := make(map[string]int, len(markers))
	for i, m := range markers {
		byID[m.ID] = i
	}
	return &MarkerIndex{markers: markers, byID: byID}
}

// Get returns the marker with the given ID.
func (x *MarkerIndex) Get(id string) (Marker, error) {
	i, ok := x.byID[id]
	if !ok {
		return Marker{}, ErrUnknownColony
	}
	return x.markers[i], nil
}

// All returns every marker in construction order.
func (x *MarkerIndex) All() []Marker { return x.markers }

func uniqueID(slug string, used map[string]bool) string {
	if !used[slug] {
		return slug
	}
	for n := 2; ; n++ {
		if id := slug + "-" + strconv.Itoa(n); !used[id] {
			return id
		}
	}
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "colony"
	}
	return out
}
