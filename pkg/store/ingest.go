package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadSpacesCSV ingests space metadata from a CSV file. Expected columns (by
// header name, order-independent): space_id, area, floor, room_name,
// parent_id. parent_id is optional.
func (s *Store) LoadSpacesCSV(ctx context.Context, path string) (int, error) {
	records, headers, err := readCSV(path)
	if err != nil {
		return 0, err
	}
	col := headerIndex(headers)

	var spaces []Space
	for i, rec := range records {
		floor, err := strconv.Atoi(field(rec, col, "floor"))
		if err != nil {
			return 0, fmt.Errorf("row %d: invalid floor: %w", i+2, err)
		}
		sp := Space{
			ID:       field(rec, col, "space_id"),
			Area:     field(rec, col, "area"),
			Floor:    floor,
			RoomName: field(rec, col, "room_name"),
			ParentID: field(rec, col, "parent_id"),
		}
		if sp.ID == "" {
			return 0, fmt.Errorf("row %d: missing space_id", i+2)
		}
		spaces = append(spaces, sp)
	}

	if err := s.InsertSpaces(ctx, spaces); err != nil {
		return 0, err
	}
	return len(spaces), nil
}

// LoadUsageCSV ingests usage facts from a CSV file. Expected columns:
// space_id, metric_name, value, start_time, end_time, is_holiday, is_working,
// and optionally hour, dayofweek, month. The derived time columns are
// computed from start_time when absent.
func (s *Store) LoadUsageCSV(ctx context.Context, path string) (int, error) {
	records, headers, err := readCSV(path)
	if err != nil {
		return 0, err
	}
	col := headerIndex(headers)

	var usage []UsageRecord
	for i, rec := range records {
		value, err := strconv.ParseFloat(field(rec, col, "value"), 64)
		if err != nil {
			return 0, fmt.Errorf("row %d: invalid value: %w", i+2, err)
		}
		start, err := parseTimestamp(field(rec, col, "start_time"))
		if err != nil {
			return 0, fmt.Errorf("row %d: invalid start_time: %w", i+2, err)
		}
		end, err := parseTimestamp(field(rec, col, "end_time"))
		if err != nil {
			end = start
		}

		r := UsageRecord{
			SpaceID:    field(rec, col, "space_id"),
			MetricName: field(rec, col, "metric_name"),
			Value:      value,
			StartTime:  start,
			EndTime:    end,
			IsHoliday:  parseBool(field(rec, col, "is_holiday")),
			IsWorking:  parseBool(field(rec, col, "is_working")),
			Hour:       derivedInt(field(rec, col, "hour"), start.Hour()),
			DayOfWeek:  derivedInt(field(rec, col, "dayofweek"), int(start.Weekday())),
			Month:      derivedInt(field(rec, col, "month"), int(start.Month())),
		}
		if r.SpaceID == "" {
			return 0, fmt.Errorf("row %d: missing space_id", i+2)
		}
		usage = append(usage, r)
	}

	if err := s.InsertUsage(ctx, usage); err != nil {
		return 0, err
	}
	return len(usage), nil
}

func readCSV(path string) ([][]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	headers, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		records = append(records, rec)
	}
	return records, headers, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func field(rec []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "t", "1", "yes":
		return true
	}
	return false
}

func derivedInt(s string, fallback int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return fallback
}
