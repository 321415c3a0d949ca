package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownMetric is returned when a metric name is not one of the survey columns.
var ErrUnknownMetric = errors.New("unknown metric")

// Metric names one of the nest-count columns of the survey table. The string
// value is the exact CSV header.
type Metric string

const (
	MetricTotal    Metric = "Total number of nests"
	MetricEmpty    Metric = "empty nests"
	MetricOneEgg   Metric = "1 egg nests"
	MetricTwoEgg   Metric = "2 egg nests"
	MetricThreeEgg Metric = "3 egg nests"
	MetricFourEgg  Metric = "4 egg nests"
)

// DefaultMetric is plotted until a session picks another one.
const DefaultMetric = MetricTotal

// Metrics lists every metric in selector order.
var Metrics = []Metric{
	MetricTotal,
	MetricEmpty,
	MetricOneEgg,
	MetricTwoEgg,
	MetricThreeEgg,
	MetricFourEgg,
}

// ParseMetric matches name exactly against the known column headers.
func ParseMetric(name string) (Metric, error) {
	for _, m := range Metrics {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

func (m Metric) String() string { return string(m) }
