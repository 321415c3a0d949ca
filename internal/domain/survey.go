package domain

import "sort"

// LatLon is a WGS-84 coordinate pair.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// SurveyRow is one (colony, year) observation. A nil count means the column
// was empty in the source table.
type SurveyRow struct {
	Location string
	Coords   LatLon
	Year     int
	Counts   map[Metric]*int
}

// Count returns the value recorded for m and whether one was recorded.
func (r SurveyRow) Count(m Metric) (int, bool) {
	v := r.Counts[m]
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Dataset is the survey table in file order. It is never mutated after load.
type Dataset struct {
	rows []SurveyRow
}

// NewDataset copies rows, including each row's count map, so later changes
// by the caller cannot leak into the dataset.
func NewDataset(rows []SurveyRow) Dataset {
	out := make([]SurveyRow, len(rows))
	for i, r := range rows {
		counts := make(map[Metric]*int, len(r.Counts))
		for m, v := range r.Counts {
			if v == nil {
				counts[m] = nil
				continue
			}
			n := *v
			counts[m] = &n
		}
		r.Counts = counts
		out[i] = r
	}
	return Dataset{rows: out}
}

// Len reports the number of rows.
func (d Dataset) Len() int { return len(d.rows) }

// Rows returns the rows in file order. Callers must not modify them.
func (d Dataset) Rows() []SurveyRow { return d.rows }

// ForLocation returns the rows for one colony ordered by year ascending.
// Rows sharing a year keep their file order.
func (d Dataset) ForLocation(location string) []SurveyRow {
	var out []SurveyRow
	for _, r := range d.rows {
		if r.Location == location {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// Locations returns the distinct colony names in first-seen order.
func (d Dataset) Locations() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.rows {
		if seen[r.Location] {
			continue
		}
		seen[r.Location] = true
		out = append(out, r.Location)
	}
	return out
}

// Years returns the distinct survey years in ascending order.
func (d Dataset) Years() []int {
	seen := make(map[int]bool)
	var out []int
	for _, r := range d.rows {
		if seen[r.Year] {
			continue
		}
		seen[r.Year] = true
		out = append(out, r.Year)
	}
	sort.Ints(out)
	return out
}
