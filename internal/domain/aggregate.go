package domain

import "sort"

// UnsurveyedYear had no colony survey. Its aggregate total is always blanked,
// even if rows for it exist, so the chart shows a gap instead of a dip.
const UnsurveyedYear = 2020

// YearTotal is one point of the aggregate series. Total is nil when the year
// has no data.
type YearTotal struct {
	Year  int  `json:"year"`
	Total *int `json:"total"`
}

// AggregateSeries holds the per-year totals across all colonies in year order.
type AggregateSeries []YearTotal

// Lookup returns the entry for year. found reports whether the series has an
// entry at all; value is meaningful only when present is true.
func (s AggregateSeries) Lookup(year int) (value int, present, found bool) {
	for _, yt := range s {
		if yt.Year != year {
			continue
		}
		if yt.Total == nil {
			return 0, false, true
		}
		return *yt.Total, true, true
	}
	return 0, false, false
}

// Aggregate sums metric m per year across every colony. Missing values count
// as zero. The UnsurveyedYear entry is then forced to nil. An empty dataset
// yields an empty series.
func Aggregate(ds Dataset, m Metric) AggregateSeries {
	if ds.Len() == 0 {
		return AggregateSeries{}
	}

	sums := make(map[int]int)
	for _, r := range ds.Rows() {
		v, _ := r.Count(m)
		sums[r.Year] += v
	}

	out := make(AggregateSeries, 0, len(sums)+1)
	for year, total := range sums {
		if year == UnsurveyedYear {
			continue
		}
		t := total
		out = append(out, YearTotal{Year: year, Total: &t})
	}
	out = append(out, YearTotal{Year: UnsurveyedYear})

	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
