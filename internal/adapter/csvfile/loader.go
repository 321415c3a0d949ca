// Package csvfile loads the colony survey table from a delimited file.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/gull-survey-dashboard/internal/domain"
)

// Column headers that are not nest metrics.
const (
	ColLocation  = "Survey Location"
	ColLatitude  = "Latitude"
	ColLongitude = "Longitude"
	ColYear      = "Year"
)

// Header returns the canonical column order, as written by cmd/genmock.
func Header() []string {
	h := []string{ColLocation, ColLatitude, ColLongitude, ColYear}
	for _, m := range domain.Metrics {
		h = append(h, m.String())
	}
	return h
}

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// RowError locates a malformed cell.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d, column %q: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Load reads and parses the survey file at path.
func Load(path string) (domain.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("open survey file: %w", err)
	}
	defer f.Close()

	ds, err := Parse(f)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return ds, nil
}

// Parse reads a survey table. Columns are found by header name, so order and
// extra columns do not matter. Empty, "NA" and "NaN" metric cells become
// missing values.
func Parse(r io.Reader) (domain.Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Dataset{}, errors.New("empty survey file")
		}
		return domain.Dataset{}, fmt.Errorf("read header: %w", err)
	}

	idx, err := indexHeader(header)
	if err != nil {
		return domain.Dataset{}, err
	}

	var rows []domain.SurveyRow
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return domain.Dataset{}, fmt.Errorf("read line %d: %w", line, err)
		}
		if blank(rec) {
			continue
		}

		row, err := parseRow(rec, idx, line)
		if err != nil {
			return domain.Dataset{}, err
		}
		rows = append(rows, row)
	}

	return domain.NewDataset(rows), nil
}

type columnIndex struct {
	location, lat, lon, year int
	metrics                  map[domain.Metric]int
}

func indexHeader(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		pos[h] = i
	}

	lookup := func(name string) (int, error) {
		i, ok := pos[name]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		return i, nil
	}

	var (
		idx columnIndex
		err error
	)
	if idx.location, err = lookup(ColLocation); err != nil {
		return idx, err
	}
	if idx.lat, err = lookup(ColLatitude); err != nil {
		return idx, err
	}
	if idx.lon, err = lookup(ColLongitude); err != nil {
		return idx, err
	}
	if idx.year, err = lookup(ColYear); err != nil {
		return idx, err
	}

	idx.metrics = make(map[domain.Metric]int, len(domain.Metrics))
	for _, m := range domain.Metrics {
		i, err := lookup(string(m))
		if err != nil {
			return idx, err
		}
		idx.metrics[m] = i
	}
	return idx, nil
}

func parseRow(rec []string, idx columnIndex, line int) (domain.SurveyRow, error) {
	cell := func(i int) string {
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	location := cell(idx.location)
	if location == "" {
		return domain.SurveyRow{}, &RowError{Line: line, Column: ColLocation, Err: errors.New("empty location")}
	}

	lat, err := parseCoordinate(cell(idx.lat), 90)
	if err != nil {
		return domain.SurveyRow{}, &RowError{Line: line, Column: ColLatitude, Err: err}
	}
	lon, err := parseCoordinate(cell(idx.lon), 180)
	if err != nil {
		return domain.SurveyRow{}, &RowError{Line: line, Column: ColLongitude, Err: err}
	}

	year, missing, err := parseCount(cell(idx.year))
	if err == nil && missing {
		err = errors.New("empty year")
	}
	if err != nil {
		return domain.SurveyRow{}, &RowError{Line: line, Column: ColYear, Err: err}
	}

	counts := make(map[domain.Metric]*int, len(idx.metrics))
	for m, i := range idx.metrics {
		v, missing, err := parseCount(cell(i))
		if err != nil {
			return domain.SurveyRow{}, &RowError{Line: line, Column: string(m), Err: err}
		}
		if missing {
			counts[m] = nil
			continue
		}
		counts[m] = &v
	}

	return domain.SurveyRow{
		Location: location,
		Coords:   domain.LatLon{Lat: lat, Lon: lon},
		Year:     year,
		Counts:   counts,
	}, nil
}

// parseCoordinate accepts a finite degree value within ±limit.
func parseCoordinate(s string, limit float64) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite coordinate: %q", s)
	}
	if math.Abs(f) > limit {
		return 0, fmt.Errorf("coordinate %q outside ±%g", s, limit)
	}
	return f, nil
}

// parseCount accepts integers and integral floats ("12.0", as written by
// dataframe exports of columns that contain gaps).
func parseCount(s string) (value int, missing bool, err error) {
	switch strings.ToLower(s) {
	case "", "na", "nan", "null":
		return 0, true, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, false, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("not a number: %q", s)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false, fmt.Errorf("not a whole number: %q", s)
	}
	return int(f), false, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
