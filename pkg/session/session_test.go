package session

import (
	"testing"
	"time"

	"github.com/occusense/occusense/pkg/filter"
)

func dr(start, end string) *filter.DateRange {
	s, _ := time.Parse("2006-01-02", start)
	e, _ := time.Parse("2006-01-02", end)
	return &filter.DateRange{Start: s, End: e}
}

func TestMerge_FollowUpKeepsEarlierConstraints(t *testing.T) {
	s := New()

	s.Merge(filter.Filter{
		Metrics:   []string{"co2"},
		DateRange: dr("2025-06-01", "2025-06-07"),
	})
	got := s.Merge(filter.Filter{Floors: []int{2}})

	if len(got.Metrics) != 1 || got.Metrics[0] != "co2" {
		t.Errorf("metrics = %v, want co2 carried over", got.Metrics)
	}
	if got.DateRange == nil {
		t.Error("date range should carry over")
	}
	if len(got.Floors) != 1 || got.Floors[0] != 2 {
		t.Errorf("floors = %v, want [2]", got.Floors)
	}
}

func TestMerge_NewConstraintReplacesOld(t *testing.T) {
	s := New()

	s.Merge(filter.Filter{Rooms: []string{"Library"}, Metrics: []string{"co2"}})
	got := s.Merge(filter.Filter{Rooms: []string{"Seminar-51"}})

	if len(got.Rooms) != 1 || got.Rooms[0] != "Seminar-51" {
		t.Errorf("rooms = %v, want replacement, not union", got.Rooms)
	}
}

func TestMerge_RankingIntentReplacedWholesale(t *testing.T) {
	s := New()

	s.Merge(filter.Filter{
		Metrics:     []string{"Occupancy"},
		Aggregation: filter.AggMax,
		Limit:       5,
	})
	got := s.Merge(filter.Filter{RequireContinuous: true, Metrics: []string{"co2"}})

	if got.Aggregation != filter.AggNone || got.Limit != 0 {
		t.Errorf("aggregation = %q limit = %d, want previous ranking intent dropped", got.Aggregation, got.Limit)
	}
	if !got.RequireContinuous {
		t.Error("continuous flag should be set")
	}
}

func TestMerge_PlainFollowUpKeepsRankingIntent(t *testing.T) {
	s := New()

	s.Merge(filter.Filter{
		Metrics:     []string{"co2"},
		Aggregation: filter.AggMax,
	})
	got := s.Merge(filter.Filter{Floors: []int{1}})

	if got.Aggregation != filter.AggMax {
		t.Errorf("aggregation = %q, want max kept when no new intent voiced", got.Aggregation)
	}
}

func TestMissing(t *testing.T) {
	s := New()

	missing := s.Missing()
	if len(missing) != 2 {
		t.Fatalf("missing = %v, want metric and date range", missing)
	}

	s.Merge(filter.Filter{Metrics: []string{"temp"}})
	missing = s.Missing()
	if len(missing) != 1 || missing[0] != "date range" {
		t.Errorf("missing = %v, want [date range]", missing)
	}

	s.Merge(filter.Filter{DateRange: dr("2025-06-01", "2025-06-07")})
	if missing = s.Missing(); missing != nil {
		t.Errorf("missing = %v, want none", missing)
	}
}

func TestReset(t *testing.T) {
	s := New()
	s.Merge(filter.Filter{Metrics: []string{"co2"}})
	s.Reset()

	if got := s.Filter(); len(got.Metrics) != 0 {
		t.Errorf("filter after reset = %+v, want zero", got)
	}
	if s.Turns() != 0 {
		t.Errorf("turns = %d, want 0", s.Turns())
	}
}
