package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/occusense/occusense/pkg/filter"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedSpaces(t *testing.T, s *Store) {
	t.Helper()
	require.NoError(t, s.InsertSpaces(context.Background(), []Space{
		{ID: "g-01", Area: "sbs", Floor: 1, RoomName: "Seminar-51"},
		{ID: "g-02", Area: "sbs", Floor: 1, RoomName: "Seminar-64"},
		{ID: "g-03", Area: "sbs", Floor: 2, RoomName: "Library"},
		{ID: "g-04", Area: "west-wing", Floor: 3, RoomName: "Lecture Theatre-4"},
	}))
}

func at(day, hour int) time.Time {
	return time.Date(2025, 6, day, hour, 0, 0, 0, time.UTC)
}

func usageRow(spaceID, metric string, value float64, ts time.Time) UsageRecord {
	return UsageRecord{
		SpaceID:    spaceID,
		MetricName: metric,
		Value:      value,
		StartTime:  ts,
		EndTime:    ts.Add(time.Hour),
		IsWorking:  true,
		Hour:       ts.Hour(),
		DayOfWeek:  int(ts.Weekday()),
		Month:      int(ts.Month()),
	}
}

func TestCandidateSpaceIDs(t *testing.T) {
	s := testStore(t)
	seedSpaces(t, s)
	ctx := context.Background()

	t.Run("no spatial constraints matches all spaces", func(t *testing.T) {
		ids, err := s.CandidateSpaceIDs(ctx, filter.Filter{})
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"g-01", "g-02", "g-03", "g-04"}, ids)
	})

	t.Run("room substring match is case-insensitive", func(t *testing.T) {
		ids, err := s.CandidateSpaceIDs(ctx, filter.Filter{Rooms: []string{"seminar"}})
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"g-01", "g-02"}, ids)
	})

	t.Run("multiple rooms OR-combine", func(t *testing.T) {
		ids, err := s.CandidateSpaceIDs(ctx, filter.Filter{Rooms: []string{"library", "theatre"}})
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"g-03", "g-04"}, ids)
	})

	t.Run("floors match exactly and OR-combine", func(t *testing.T) {
		ids, err := s.CandidateSpaceIDs(ctx, filter.Filter{Floors: []int{1, 2}})
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"g-01", "g-02", "g-03"}, ids)
	})

	t.Run("fields AND-combine", func(t *testing.T) {
		ids, err := s.CandidateSpaceIDs(ctx, filter.Filter{
			Rooms:  []string{"seminar"},
			Floors: []int{1},
			Areas:  []string{"SBS"},
		})
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"g-01", "g-02"}, ids)
	})

	t.Run("no match returns empty", func(t *testing.T) {
		ids, err := s.CandidateSpaceIDs(ctx, filter.Filter{Rooms: []string{"Nonexistent-Room"}})
		require.NoError(t, err)
		require.Empty(t, ids)
	})
}

func TestFetchDetail_DateRangeBoundaries(t *testing.T) {
	s := testStore(t)
	seedSpaces(t, s)
	ctx := context.Background()

	endOfWindow := time.Date(2025, 6, 7, 23, 59, 59, 0, time.UTC)
	dayAfter := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.InsertUsage(ctx, []UsageRecord{
		usageRow("g-01", "co2", 800, at(1, 9)),
		usageRow("g-01", "co2", 850, endOfWindow),
		usageRow("g-01", "co2", 900, dayAfter),
	}))

	f := filter.Filter{
		DateRange: &filter.DateRange{
			Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC),
		},
	}
	_, rows, err := s.FetchDetail(ctx, []string{"g-01"}, f)
	require.NoError(t, err)
	require.Len(t, rows, 2, "row at end 23:59:59 included, end+1day 00:00:00 excluded")
}

func TestFetchDetail_ColumnsAndFlags(t *testing.T) {
	s := testStore(t)
	seedSpaces(t, s)
	ctx := context.Background()

	holiday := usageRow("g-03", "temp", 21, at(2, 10))
	holiday.IsHoliday = true
	holiday.IsWorking = false
	require.NoError(t, s.InsertUsage(ctx, []UsageRecord{
		usageRow("g-03", "temp", 22, at(1, 10)),
		holiday,
	}))

	hol := true
	cols, rows, err := s.FetchDetail(ctx, []string{"g-03"}, filter.Filter{IsHoliday: &hol})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Contains(t, cols, "room_name")
	require.Contains(t, cols, "value")
	require.Contains(t, cols, "start_time")
	require.Equal(t, "Library", rows[0]["room_name"])
	require.Equal(t, true, rows[0]["is_holiday"])
}

func TestAggregateTopN(t *testing.T) {
	s := testStore(t)
	seedSpaces(t, s)
	ctx := context.Background()

	require.NoError(t, s.InsertUsage(ctx, []UsageRecord{
		usageRow("g-01", "co2", 900, at(1, 9)),
		usageRow("g-01", "co2", 950, at(1, 10)),
		usageRow("g-03", "co2", 1200, at(1, 9)),
		usageRow("g-03", "co2", 1100, at(1, 10)),
		usageRow("g-04", "co2", 400, at(1, 9)),
	}))
	all := []string{"g-01", "g-02", "g-03", "g-04"}

	t.Run("max keeps the highest group", func(t *testing.T) {
		cols, rows, err := s.AggregateTopN(ctx, all, filter.Filter{
			Metrics:     []string{"co2"},
			Aggregation: filter.AggMax,
		})
		require.NoError(t, err)
		require.Len(t, rows, 1, "limit defaults to 1")
		require.Equal(t, "Library", rows[0]["room_name"])
		require.Contains(t, cols, "value")
	})

	t.Run("min ranks ascending", func(t *testing.T) {
		_, rows, err := s.AggregateTopN(ctx, all, filter.Filter{
			Metrics:     []string{"co2"},
			Aggregation: filter.AggMin,
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.Equal(t, "Lecture Theatre-4", rows[0]["room_name"])
	})

	t.Run("limit keeps top N groups", func(t *testing.T) {
		_, rows, err := s.AggregateTopN(ctx, all, filter.Filter{
			Metrics:     []string{"co2"},
			Aggregation: filter.AggMax,
			Limit:       2,
		})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		require.Equal(t, "Library", rows[0]["room_name"])
		require.Equal(t, "Seminar-51", rows[1]["room_name"])
	})

	t.Run("no matching rows returns empty", func(t *testing.T) {
		_, rows, err := s.AggregateTopN(ctx, all, filter.Filter{
			Metrics:     []string{"preservationIndex"},
			Aggregation: filter.AggMax,
		})
		require.NoError(t, err)
		require.Empty(t, rows)
	})
}

func TestSustainedCounts(t *testing.T) {
	s := testStore(t)
	seedSpaces(t, s)
	ctx := context.Background()

	// Room Seminar-51: five readings above 27; Library: none above.
	var recs []UsageRecord
	for i := 0; i < 5; i++ {
		recs = append(recs, usageRow("g-01", "temp", 28+float64(i), at(1, 9+i)))
	}
	recs = append(recs,
		usageRow("g-01", "temp", 20, at(1, 15)),
		usageRow("g-03", "temp", 24, at(1, 9)),
		usageRow("g-03", "temp", 25, at(1, 10)),
	)
	require.NoError(t, s.InsertUsage(ctx, recs))

	cols, rows, err := s.SustainedCounts(ctx, []string{"g-01", "g-03"}, filter.Filter{}, "temp", 27)
	require.NoError(t, err)
	require.Len(t, rows, 1, "rooms with no readings above threshold are dropped")
	require.Equal(t, "Seminar-51", rows[0]["room_name"])
	require.Contains(t, cols, "continuous_high_count")
	require.EqualValues(t, 5, rows[0]["continuous_high_count"])
}
