package domain

import (
	"context"
	"log/slog"
)

// LabelMarkers fills each marker's Place from a reverse geocode of its
// coordinates. A nil geocoder returns the markers unchanged; a failed or empty
// lookup leaves that marker unlabeled. The input slice is not modified.
func LabelMarkers(ctx context.Context, markers []Marker, geocoder Geocoder, logger *slog.Logger) []Marker {
	out := make([]Marker, len(markers))
	copy(out, markers)
	if geocoder == nil {
		return out
	}

	for i := range out {
		m := &out[i]
		result, err := geocoder.ReverseGeocode(ctx, m.Coords.Lat, m.Coords.Lon)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"marker_id", m.ID,
				"lat", m.Coords.Lat,
				"lon", m.Coords.Lon,
				"error", err,
			)
			continue
		}
		switch {
		case result.PlaceName != "":
			m.Place = result.PlaceName
		case result.FormattedAddress != "":
			m.Place = result.FormattedAddress
		}
	}
	return out
}
