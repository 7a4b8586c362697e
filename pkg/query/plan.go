package query

import (
	"github.com/occusense/occusense/pkg/filter"
)

// Shape is the query plan chosen for one execution pass. Exactly one shape
// runs per pass; aggregated and sustained passes narrow the filter and hand
// off to a detail pass.
type Shape int

const (
	// ShapeDetail fetches raw matching rows. Terminal.
	ShapeDetail Shape = iota
	// ShapeAggregated ranks (room, floor, area, metric) groups by an
	// aggregate and keeps the top N.
	ShapeAggregated
	// ShapeSustained ranks groups by how many readings exceed a per-metric
	// threshold.
	ShapeSustained
)

func (s Shape) String() string {
	switch s {
	case ShapeAggregated:
		return "aggregated"
	case ShapeSustained:
		return "sustained-high"
	default:
		return "detail"
	}
}

// DecideShape picks the query shape for a filter, first match wins:
//
//  1. Aggregated: an aggregation is requested for at least one metric and no
//     rooms are named. A room-targeted aggregation degenerates to a detail
//     fetch, since the room already is the constraint.
//  2. Sustained-high: the continuous check is requested without any
//     aggregation or limit.
//  3. Detail: everything else.
//
// The precedence makes aggregation and the continuous check mutually
// exclusive per pass, and WithRooms clears both before a replan, so a
// narrowed filter always decides to Detail.
func DecideShape(f filter.Filter) Shape {
	if f.Aggregation != filter.AggNone && len(f.Metrics) > 0 && len(f.Rooms) == 0 {
		return ShapeAggregated
	}
	if f.RequireContinuous && f.Aggregation == filter.AggNone && f.Limit == 0 {
		return ShapeSustained
	}
	return ShapeDetail
}

// sustainedThresholds are the fixed per-metric bounds for the continuous
// check. Unknown metrics fall back to the co2 threshold.
var sustainedThresholds = map[string]float64{
	"co2":       1000,
	"Occupancy": 100,
	"humidity":  70,
	"temp":      27,
}

const defaultThreshold = 1000

// Threshold returns the sustained-high threshold for a metric.
func Threshold(metric string) float64 {
	if t, ok := sustainedThresholds[metric]; ok {
		return t
	}
	return defaultThreshold
}
