package domain

import (
	"io"
	"log/slog"
)

const (
	colonyA = "Colony A"
	colonyB = "Colony B"
)

func intp(v int) *int { return &v }

func row(location string, year int, total *int) SurveyRow {
	return SurveyRow{
		Location: location,
		Coords:   LatLon{Lat: 37.5, Lon: -122.1},
		Year:     year,
		Counts:   map[Metric]*int{MetricTotal: total},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
