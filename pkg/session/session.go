// Package session accumulates query filters across conversational turns.
// Each turn's extraction only carries the constraints the user just voiced;
// the session merges them over what earlier turns established so follow-ups
// like "and on floor 2?" keep the metric and date range already in play.
package session

import (
	"github.com/occusense/occusense/pkg/filter"
)

// Session owns the accumulated filter for one conversation. The zero value
// is an empty session ready for use. Sessions are not safe for concurrent
// use; each conversation gets its own.
type Session struct {
	current filter.Filter
	turns   int
}

// New returns an empty session.
func New() *Session {
	return &Session{}
}

// Merge folds a freshly extracted filter into the session and returns the
// combined filter. A field the new filter constrains replaces the stored
// value outright; a field it leaves unconstrained keeps what earlier turns
// established. Aggregation, limit, and the continuous flag travel together:
// they describe the current question's intent, so any new ranking intent
// replaces the old one wholesale.
func (s *Session) Merge(f filter.Filter) filter.Filter {
	s.turns++

	if len(f.Rooms) > 0 {
		s.current.Rooms = f.Rooms
	}
	if len(f.Floors) > 0 {
		s.current.Floors = f.Floors
	}
	if len(f.Areas) > 0 {
		s.current.Areas = f.Areas
	}
	if f.DateRange != nil {
		s.current.DateRange = f.DateRange
	}
	if f.IsHoliday != nil {
		s.current.IsHoliday = f.IsHoliday
	}
	if f.IsWorking != nil {
		s.current.IsWorking = f.IsWorking
	}
	if len(f.Metrics) > 0 {
		s.current.Metrics = f.Metrics
	}
	if f.Aggregation != filter.AggNone || f.Limit > 0 || f.RequireContinuous {
		s.current.Aggregation = f.Aggregation
		s.current.Limit = f.Limit
		s.current.RequireContinuous = f.RequireContinuous
	}

	return s.current
}

// Filter returns the accumulated filter as of the last Merge.
func (s *Session) Filter() filter.Filter {
	return s.current
}

// Turns reports how many extractions have been merged since the last Reset.
func (s *Session) Turns() int {
	return s.turns
}

// Missing lists the filter fields a complete query still needs. A query
// wants at least a metric and a date range before results are meaningful;
// callers use the list to ask the user for the rest instead of querying.
func (s *Session) Missing() []string {
	var missing []string
	if len(s.current.Metrics) == 0 {
		missing = append(missing, "metric")
	}
	if s.current.DateRange == nil {
		missing = append(missing, "date range")
	}
	return missing
}

// Reset clears the accumulated filter, starting a fresh conversation.
func (s *Session) Reset() {
	s.current = filter.Filter{}
	s.turns = 0
}
