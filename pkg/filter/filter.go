package filter

import (
	"strings"
	"time"
)

// Aggregation selects how matching usage rows are reduced per group.
type Aggregation string

const (
	AggNone Aggregation = ""
	AggMax  Aggregation = "max"
	AggMin  Aggregation = "min"
	AggAvg  Aggregation = "avg"
	AggSum  Aggregation = "sum"
)

// Valid reports whether a is one of the supported aggregation functions.
func (a Aggregation) Valid() bool {
	switch a {
	case AggMax, AggMin, AggAvg, AggSum:
		return true
	}
	return false
}

// Descending reports whether groups ranked by this aggregation are ordered
// highest-first. max and sum rank descending, min and avg ascending.
func (a Aggregation) Descending() bool {
	return a == AggMax || a == AggSum
}

// DateRange is a closed calendar-date interval. Matching is inclusive of the
// whole end date: a record at End 23:59:59 is in range, End+1day 00:00:00 is
// not.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Window returns the timestamp bounds covered by the range.
func (d DateRange) Window() (time.Time, time.Time) {
	start := time.Date(d.Start.Year(), d.Start.Month(), d.Start.Day(), 0, 0, 0, 0, d.Start.Location())
	end := time.Date(d.End.Year(), d.End.Month(), d.End.Day(), 23, 59, 59, 0, d.End.Location())
	return start, end
}

// Filter is the canonical query constraint object. Every field is optional;
// the zero value constrains nothing. Values within a field are OR-combined,
// fields are AND-combined.
type Filter struct {
	// Rooms are room-name substrings, matched case-insensitively.
	Rooms []string
	// Floors are exact floor numbers.
	Floors []int
	// Areas are area-name substrings, matched case-insensitively.
	Areas []string
	// DateRange bounds record start times when non-nil.
	DateRange *DateRange
	// IsHoliday and IsWorking are tri-state: nil means unconstrained.
	IsHoliday *bool
	IsWorking *bool
	// Metrics are canonical metric names (after alias resolution).
	Metrics []string
	// RequireContinuous requests the sustained-above-threshold analysis.
	RequireContinuous bool
	// Aggregation requests the best-matching groups instead of raw rows.
	Aggregation Aggregation
	// Limit caps the number of groups an aggregation keeps. 0 means unset;
	// the executor defaults to 1 when Aggregation is set.
	Limit int
}

// HasSpatial reports whether any room/floor/area constraint is present.
func (f Filter) HasSpatial() bool {
	return len(f.Rooms) > 0 || len(f.Floors) > 0 || len(f.Areas) > 0
}

// WithRooms returns a copy narrowed to the given rooms with the ranking
// intents cleared. This is the replan step after an aggregation or sustained
// query resolves its winning rooms: clearing the flags guarantees the next
// plan is a plain detail fetch.
func (f Filter) WithRooms(rooms []string) Filter {
	f.Rooms = rooms
	f.Aggregation = AggNone
	f.Limit = 0
	f.RequireContinuous = false
	return f
}

// TargetMetric returns the metric a sustained-high query inspects: the first
// requested metric, or co2 when none was requested.
func (f Filter) TargetMetric() string {
	if len(f.Metrics) > 0 {
		return f.Metrics[0]
	}
	return "co2"
}

// metricAliases maps common metric synonyms to their canonical names.
// Lookups are lower-cased; unknown names pass through unchanged.
var metricAliases = map[string]string{
	"temperature": "temp",
	"co₂":         "co2",
	"co_2":        "co2",
	"humid":       "humidity",
	"occupants":   "Occupancy",
	"people":      "Occupancy",
	"air quality": "co2",
	"busiest":     "Occupancy",
}

// CanonicalMetric resolves a metric synonym to its canonical name. Names
// without an alias are returned as given, so the mapping is idempotent on
// already-canonical names.
func CanonicalMetric(name string) string {
	if canonical, ok := metricAliases[strings.ToLower(name)]; ok {
		return canonical
	}
	return name
}
