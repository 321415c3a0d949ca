// Package domain models the California gull nest surveys of the SF Bay Area
// and the selection state that ties the colony map to the charts.
//
// # Data Source
//
// One CSV row per (colony, year) observation with the columns
//
//	Survey Location, Latitude, Longitude, Year,
//	Total number of nests, empty nests, 1 egg nests, 2 egg nests, 3 egg nests, 4 egg nests
//
// Nest-count cells may be empty when a colony was not counted that year.
// Empty cells are kept as missing values (nil), never as zero, so a chart can
// break its line instead of dipping to zero.
//
// # Aggregation
//
// The all-colonies series sums total nests per year with missing values
// counted as zero. No survey ran in 2020 ([UnsurveyedYear]); that year's
// total is always reported as missing, whatever the table says.
//
// # Selection
//
// Each browser session owns one [ViewState]: a [Selection] (no colony or one
// colony), the map view, the status line and the chosen [Metric]. Marker
// clicks select a colony and zoom to it, hovering only changes the status
// line, and reset clears the selection and restores [ResetView]. The
// per-colony chart is a pure function of (dataset, selection, metric) and is
// suspended while nothing is selected; see [ColonyChart].
package domain
