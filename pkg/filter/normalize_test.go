package filter

import (
	"testing"
	"time"
)

func TestNormalize_WellFormedPayload(t *testing.T) {
	raw := map[string]any{
		"rooms":                    []any{"Seminar-64", "Lecture Theatre-4"},
		"floor":                    []any{float64(1), float64(2)},
		"area":                     []any{"sbs"},
		"date_range":               []any{"2025-06-15", "2025-06-21"},
		"is_holiday":               false,
		"is_working":               true,
		"metric_name":              []any{"temperature", "co2"},
		"require_continuous_check": true,
		"aggregation":              "max",
		"limit":                    float64(5),
	}

	f := Normalize(raw)

	if len(f.Rooms) != 2 || f.Rooms[0] != "Seminar-64" {
		t.Errorf("rooms = %v", f.Rooms)
	}
	if len(f.Floors) != 2 || f.Floors[0] != 1 || f.Floors[1] != 2 {
		t.Errorf("floors = %v", f.Floors)
	}
	if len(f.Areas) != 1 || f.Areas[0] != "sbs" {
		t.Errorf("areas = %v", f.Areas)
	}
	if f.DateRange == nil {
		t.Fatal("date range not parsed")
	}
	if !f.DateRange.Start.Equal(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date range start = %v", f.DateRange.Start)
	}
	if f.IsHoliday == nil || *f.IsHoliday {
		t.Errorf("is_holiday = %v, want false", f.IsHoliday)
	}
	if f.IsWorking == nil || !*f.IsWorking {
		t.Errorf("is_working = %v, want true", f.IsWorking)
	}
	if len(f.Metrics) != 2 || f.Metrics[0] != "temp" || f.Metrics[1] != "co2" {
		t.Errorf("metrics = %v, want aliases resolved", f.Metrics)
	}
	if !f.RequireContinuous {
		t.Error("require_continuous_check not set")
	}
	if f.Aggregation != AggMax || f.Limit != 5 {
		t.Errorf("aggregation = %q limit = %d", f.Aggregation, f.Limit)
	}
}

func TestNormalize_MalformedFieldsCoerceToDefaults(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{
			name: "nil payload",
			raw:  nil,
		},
		{
			name: "wrong types everywhere",
			raw: map[string]any{
				"rooms":                    "Seminar-64",
				"floor":                    "one",
				"area":                     42,
				"date_range":               "last week",
				"is_holiday":               "yes",
				"is_working":               1,
				"metric_name":              "co2",
				"require_continuous_check": "true",
				"aggregation":              "median",
				"limit":                    "five",
			},
		},
		{
			name: "partially valid lists drop bad entries only",
			raw: map[string]any{
				"rooms": []any{"Library", 7, ""},
				"floor": []any{"two", float64(3)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Normalize(tt.raw)

			if f.DateRange != nil {
				t.Error("malformed date_range should be unconstrained")
			}
			if f.IsHoliday != nil && tt.raw["is_holiday"] != nil {
				switch tt.raw["is_holiday"].(type) {
				case bool:
				default:
					t.Error("non-bool is_holiday should be unconstrained")
				}
			}
			if f.Aggregation != AggNone && tt.raw["aggregation"] != "max" {
				switch tt.raw["aggregation"] {
				case "max", "min", "avg", "sum":
				default:
					t.Errorf("invalid aggregation coerced to %q, want none", f.Aggregation)
				}
			}
		})
	}
}

func TestNormalize_ListEdgeCases(t *testing.T) {
	f := Normalize(map[string]any{
		"rooms": []any{"Library", 7, ""},
		"floor": []any{"two", float64(3)},
	})

	if len(f.Rooms) != 1 || f.Rooms[0] != "Library" {
		t.Errorf("rooms = %v, want non-string and empty entries dropped", f.Rooms)
	}
	if len(f.Floors) != 1 || f.Floors[0] != 3 {
		t.Errorf("floors = %v, want only numeric entries kept", f.Floors)
	}
}

func TestNormalize_DateRangeValidation(t *testing.T) {
	tests := []struct {
		name  string
		dates any
		want  bool
	}{
		{name: "two ISO dates", dates: []any{"2025-06-01", "2025-06-07"}, want: true},
		{name: "same day", dates: []any{"2025-06-01", "2025-06-01"}, want: true},
		{name: "single date", dates: []any{"2025-06-01"}, want: false},
		{name: "three dates", dates: []any{"2025-06-01", "2025-06-02", "2025-06-03"}, want: false},
		{name: "inverted interval", dates: []any{"2025-06-07", "2025-06-01"}, want: false},
		{name: "unparseable", dates: []any{"June 1st", "June 7th"}, want: false},
		{name: "empty list", dates: []any{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Normalize(map[string]any{"date_range": tt.dates})
			if got := f.DateRange != nil; got != tt.want {
				t.Errorf("DateRange presence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize_LimitRejectsNonPositive(t *testing.T) {
	for _, limit := range []any{float64(0), float64(-2), float64(2.5), "3"} {
		f := Normalize(map[string]any{"limit": limit})
		if f.Limit != 0 {
			t.Errorf("limit %v coerced to %d, want unset", limit, f.Limit)
		}
	}
}

func TestParsePayload(t *testing.T) {
	raw := ParsePayload("```json\n{\"rooms\": [\"Library\"], \"limit\": 2}\n```")
	if raw == nil {
		t.Fatal("fenced JSON should parse")
	}
	f := Normalize(raw)
	if len(f.Rooms) != 1 || f.Limit != 2 {
		t.Errorf("normalized = %+v", f)
	}

	if ParsePayload("not json at all") != nil {
		t.Error("invalid JSON should return nil")
	}
}
