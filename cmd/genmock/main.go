// Command genmock writes a deterministic mock colony survey table. The output
// is read back through the real loader so it is guaranteed to parse.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/bird_surveys.csv \
//	  -colonies 6 -from 2012 -to 2023 -seed 1
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/gull-survey-dashboard/internal/adapter/csvfile"
	"github.com/couchcryptid/gull-survey-dashboard/internal/domain"
)

// colonySite is a South Bay salt-pond location used for mock data.
type colonySite struct {
	name     string
	lat, lon float64
	base     int // typical total nest count
}

var sites = []colonySite{
	{name: "Alviso Pond A12", lat: 37.4380, lon: -121.9790, base: 420},
	{name: "Mowry Slough", lat: 37.4930, lon: -122.0420, base: 260},
	{name: "Ravenswood Pond R1", lat: 37.4960, lon: -122.1290, base: 180},
	{name: "Eden Landing", lat: 37.6010, lon: -122.1200, base: 310},
	{name: "Coyote Hills", lat: 37.5500, lon: -122.0920, base: 140},
	{name: "Moffett Field Pond", lat: 37.4240, lon: -122.0640, base: 90},
	{name: "Newark Pond N4", lat: 37.5190, lon: -122.0600, base: 220},
	{name: "Dumbarton Marsh", lat: 37.5040, lon: -122.1090, base: 75},
}

// missingRate is the share of metric cells left blank outside the unsurveyed year.
const missingRate = 0.04

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/bird_surveys.csv", "output path for the survey CSV")
	colonies := flag.Int("colonies", 6, "number of colonies to generate (max 8)")
	from := flag.Int("from", 2012, "first survey year")
	to := flag.Int("to", 2023, "last survey year")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *colonies < 1 || *colonies > len(sites) {
		return fmt.Errorf("-colonies must be between 1 and %d", len(sites))
	}
	if *from > *to {
		return fmt.Errorf("-from (%d) is after -to (%d)", *from, *to)
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	records := generate(rng, sites[:*colonies], *from, *to)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}

	ds, err := csvfile.Parse(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return fmt.Errorf("generated table does not load: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(*out, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	log.Printf("wrote %s: %d rows, %d colonies", *out, ds.Len(), len(ds.Locations()))

	printStats(ds)
	return nil
}

// generate returns the header plus one row per (site, year). Rows for the
// unsurveyed year are present with every metric blank.
func generate(rng *rand.Rand, sites []colonySite, from, to int) [][]string {
	records := [][]string{csvfile.Header()}
	for _, s := range sites {
		trend := rng.Float64()*0.1 - 0.04 // yearly growth between -4% and +6%
		for year := from; year <= to; year++ {
			row := []string{
				s.name,
				strconv.FormatFloat(s.lat, 'f', 4, 64),
				strconv.FormatFloat(s.lon, 'f', 4, 64),
				strconv.Itoa(year),
			}
			if year == domain.UnsurveyedYear {
				for range domain.Metrics {
					row = append(row, "")
				}
				records = append(records, row)
				continue
			}

			growth := 1 + trend*float64(year-from)
			total := max(0, int(float64(s.base)*growth*(0.85+rng.Float64()*0.3)))
			for _, cell := range splitNests(rng, total) {
				if rng.Float64() < missingRate {
					row = append(row, "NA")
					continue
				}
				row = append(row, strconv.Itoa(cell))
			}
			records = append(records, row)
		}
	}
	return records
}

// splitNests divides total into total, empty, 1..4 egg counts in metric order.
func splitNests(rng *rand.Rand, total int) []int {
	weights := []float64{0.12, 0.18, 0.34, 0.30, 0.06}
	counts := []int{total}
	remaining := total
	for i, w := range weights {
		if i == len(weights)-1 {
			counts = append(counts, remaining)
			break
		}
		n := min(remaining, int(float64(total)*w*(0.8+rng.Float64()*0.4)))
		counts = append(counts, n)
		remaining -= n
	}
	return counts
}

func printStats(ds domain.Dataset) {
	fmt.Println("\n=== Aggregate total nests ===")
	for _, yt := range domain.Aggregate(ds, domain.MetricTotal) {
		if yt.Total == nil {
			fmt.Printf("  %d: (no survey)\n", yt.Year)
			continue
		}
		fmt.Printf("  %d: %d\n", yt.Year, *yt.Total)
	}

	fmt.Println("\n=== Colonies ===")
	for _, m := range domain.BuildMarkers(ds) {
		fmt.Printf("  %-22s id=%-20s (%.4f, %.4f)\n", m.Location, m.ID, m.Coords.Lat, m.Coords.Lon)
	}
}
