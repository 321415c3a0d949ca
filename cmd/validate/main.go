// Command validate checks a colony survey CSV before it is deployed. It loads
// the file with the same loader the dashboard uses, then runs consistency
// phases over the parsed rows.
//
// Usage:
//
//	go run ./cmd/validate -file data/bird_surveys.csv
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/couchcryptid/gull-survey-dashboard/internal/adapter/csvfile"
	"github.com/couchcryptid/gull-survey-dashboard/internal/domain"
)

// phase tracks pass/fail for a validation phase. Warnings are reported but
// do not fail the run.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	file := flag.String("file", "data/bird_surveys.csv", "path to the survey CSV")
	flag.Parse()

	os.Exit(run(*file))
}

func run(path string) int {
	fmt.Println("=== Colony Survey Validation ===")
	fmt.Println()

	ds, err := csvfile.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	fmt.Printf("Loaded %s: %d rows, %d colonies, %d years\n",
		path, ds.Len(), len(ds.Locations()), len(ds.Years()))

	phases := []*phase{
		validateRows(ds),
		validateCoordinates(ds),
		validateDuplicates(ds),
		validateBreakdown(ds),
		validateUnsurveyedYear(ds),
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		} else if len(p.warnings) > 0 {
			status = fmt.Sprintf("\033[33mPASS (%d warnings)\033[0m", len(p.warnings))
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if len(p.errors)+len(p.warnings) == 0 {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [E%d] %s\n", i+1, e)
		}
		for i, w := range p.warnings {
			fmt.Printf("  [W%d] %s\n", i+1, w)
		}
	}

	printMissing(ds)
	printAggregate(ds)

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phases ──

func validateRows(ds domain.Dataset) *phase {
	p := &phase{name: "Rows present"}
	if ds.Len() == 0 {
		p.errorf("file has a header but no data rows")
	}
	return p
}

// validateCoordinates flags colonies recorded at more than one position; each
// pair becomes its own map marker.
func validateCoordinates(ds domain.Dataset) *phase {
	p := &phase{name: "One coordinate pair per colony"}
	coords := make(map[string]map[domain.LatLon]bool)
	for _, r := range ds.Rows() {
		if coords[r.Location] == nil {
			coords[r.Location] = make(map[domain.LatLon]bool)
		}
		coords[r.Location][r.Coords] = true
	}
	for _, loc := range ds.Locations() {
		if n := len(coords[loc]); n > 1 {
			p.warnf("%s appears at %d coordinate pairs", loc, n)
		}
	}
	for _, r := range ds.Rows() {
		if r.Coords.Lat < -90 || r.Coords.Lat > 90 || r.Coords.Lon < -180 || r.Coords.Lon > 180 {
			p.errorf("%s %d: coordinates (%g, %g) out of range", r.Location, r.Year, r.Coords.Lat, r.Coords.Lon)
		}
	}
	return p
}

func validateDuplicates(ds domain.Dataset) *phase {
	p := &phase{name: "Unique (colony, year) rows"}
	type key struct {
		location string
		year     int
	}
	seen := make(map[key]int)
	for _, r := range ds.Rows() {
		seen[key{r.Location, r.Year}]++
	}
	keys := make([]key, 0, len(seen))
	for k, n := range seen {
		if n > 1 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].location != keys[j].location {
			return keys[i].location < keys[j].location
		}
		return keys[i].year < keys[j].year
	})
	for _, k := range keys {
		p.errorf("%s %d appears %d times", k.location, k.year, seen[k])
	}
	return p
}

// validateBreakdown checks that empty plus 1..4 egg nests add up to the total
// wherever all six values are present.
func validateBreakdown(ds domain.Dataset) *phase {
	p := &phase{name: "Nest breakdown matches total"}
	for _, r := range ds.Rows() {
		total, ok := r.Count(domain.MetricTotal)
		if !ok {
			continue
		}
		sum, complete := 0, true
		for _, m := range domain.Metrics[1:] {
			v, ok := r.Count(m)
			if !ok {
				complete = false
				break
			}
			if v < 0 {
				p.errorf("%s %d: negative %s (%d)", r.Location, r.Year, m, v)
			}
			sum += v
		}
		if complete && sum != total {
			p.warnf("%s %d: breakdown sums to %d, total is %d", r.Location, r.Year, sum, total)
		}
	}
	return p
}

func validateUnsurveyedYear(ds domain.Dataset) *phase {
	p := &phase{name: fmt.Sprintf("No values in %d", domain.UnsurveyedYear)}
	for _, r := range ds.Rows() {
		if r.Year != domain.UnsurveyedYear {
			continue
		}
		if v, ok := r.Count(domain.MetricTotal); ok {
			p.warnf("%s has %d total nests in %d; the aggregate chart blanks this year", r.Location, v, r.Year)
		}
	}
	return p
}

// ── Reports ──

func printMissing(ds domain.Dataset) {
	fmt.Println("\nMissing values by metric:")
	for _, m := range domain.Metrics {
		missing := 0
		for _, r := range ds.Rows() {
			if _, ok := r.Count(m); !ok {
				missing++
			}
		}
		fmt.Printf("  %-24s %d/%d\n", m, missing, ds.Len())
	}
}

func printAggregate(ds domain.Dataset) {
	fmt.Println("\nAggregate total nests:")
	for _, yt := range domain.Aggregate(ds, domain.MetricTotal) {
		if yt.Total == nil {
			fmt.Printf("  %d  -\n", yt.Year)
			continue
		}
		fmt.Printf("  %d  %d\n", yt.Year, *yt.Total)
	}
}
