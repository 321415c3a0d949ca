package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/gull-survey-dashboard/internal/domain"
)

func intp(v int) *int { return &v }

func full(location string, year int, total, empty, one, two, three, four int) domain.SurveyRow {
	return domain.SurveyRow{
		Location: location,
		Coords:   domain.LatLon{Lat: 37.5, Lon: -122.1},
		Year:     year,
		Counts: map[domain.Metric]*int{
			domain.MetricTotal:    intp(total),
			domain.MetricEmpty:    intp(empty),
			domain.MetricOneEgg:   intp(one),
			domain.MetricTwoEgg:   intp(two),
			domain.MetricThreeEgg: intp(three),
			domain.MetricFourEgg:  intp(four),
		},
	}
}

func TestValidateRows(t *testing.T) {
	assert.False(t, validateRows(domain.NewDataset(nil)).passed())
	assert.True(t, validateRows(domain.NewDataset([]domain.SurveyRow{full("A", 2019, 1, 1, 0, 0, 0, 0)})).passed())
}

func TestValidateCoordinates(t *testing.T) {
	moved := full("A", 2020, 1, 1, 0, 0, 0, 0)
	moved.Coords = domain.LatLon{Lat: 37.6, Lon: -122.1}
	bad := full("B", 2019, 1, 1, 0, 0, 0, 0)
	bad.Coords = domain.LatLon{Lat: 137.6, Lon: -122.1}

	p := validateCoordinates(domain.NewDataset([]domain.SurveyRow{full("A", 2019, 1, 1, 0, 0, 0, 0), moved, bad}))
	assert.Len(t, p.warnings, 1)
	assert.Len(t, p.errors, 1)
}

func TestValidateDuplicates(t *testing.T) {
	p := validateDuplicates(domain.NewDataset([]domain.SurveyRow{
		full("A", 2019, 1, 1, 0, 0, 0, 0),
		full("A", 2019, 1, 1, 0, 0, 0, 0),
		full("A", 2021, 1, 1, 0, 0, 0, 0),
	}))
	assert.Equal(t, []string{"A 2019 appears 2 times"}, p.errors)
}

func TestValidateBreakdown(t *testing.T) {
	partial := full("A", 2021, 10, 1, 1, 1, 1, 1)
	partial.Counts[domain.MetricEmpty] = nil

	p := validateBreakdown(domain.NewDataset([]domain.SurveyRow{
		full("A", 2019, 10, 1, 2, 3, 3, 1),
		full("A", 2020, 10, 1, 1, 1, 1, 1),
		partial,
	}))
	assert.True(t, p.passed())
	assert.Equal(t, []string{"A 2020: breakdown sums to 5, total is 10"}, p.warnings)
}

func TestValidateUnsurveyedYear(t *testing.T) {
	p := validateUnsurveyedYear(domain.NewDataset([]domain.SurveyRow{full("A", domain.UnsurveyedYear, 4, 4, 0, 0, 0, 0)}))
	assert.True(t, p.passed())
	assert.Len(t, p.warnings, 1)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	content := "Survey Location,Latitude,Longitude,Year,Total number of nests,empty nests,1 egg nests,2 egg nests,3 egg nests,4 egg nests\n" +
		"Colony A,37.5,-122.1,2019,10,1,2,3,3,1\n" +
		"Colony A,37.5,-122.1,2020,,,,,,\n"
	assert.NoError(t, os.WriteFile(good, []byte(content), 0o600))
	assert.Equal(t, 0, run(good))

	assert.Equal(t, 1, run(filepath.Join(dir, "missing.csv")))
}
