package filter

import (
	"encoding/json"
	"strings"
	"time"
)

// Normalize converts a loosely-typed payload, typically parsed from an LLM
// response or produced by the fallback extractor, into a Filter. It is total:
// malformed or wrong-typed fields coerce to their unconstrained defaults
// rather than failing.
func Normalize(raw map[string]any) Filter {
	f := Filter{
		Rooms:             stringList(raw["rooms"]),
		Floors:            intList(raw["floor"]),
		Areas:             stringList(raw["area"]),
		DateRange:         dateRange(raw["date_range"]),
		IsHoliday:         boolPtr(raw["is_holiday"]),
		IsWorking:         boolPtr(raw["is_working"]),
		RequireContinuous: boolValue(raw["require_continuous_check"]),
		Limit:             positiveInt(raw["limit"]),
	}

	if agg := Aggregation(stringValue(raw["aggregation"])); agg.Valid() {
		f.Aggregation = agg
	}

	for _, m := range stringList(raw["metric_name"]) {
		f.Metrics = append(f.Metrics, CanonicalMetric(m))
	}

	return f
}

// ParsePayload unmarshals a JSON object into the loose payload map Normalize
// accepts, stripping markdown code fences first. A parse failure returns nil,
// which normalizes to an unconstrained Filter.
func ParsePayload(text string) map[string]any {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil
	}
	return raw
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if typed, ok := v.([]string); ok {
			out := make([]string, 0, len(typed))
			for _, s := range typed {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
			return out
		}
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func intList(v any) []int {
	items, ok := v.([]any)
	if !ok {
		if typed, ok := v.([]int); ok {
			return append([]int(nil), typed...)
		}
		return nil
	}
	var out []int
	for _, item := range items {
		switch n := item.(type) {
		case float64:
			out = append(out, int(n))
		case int:
			out = append(out, n)
		case json.Number:
			if i, err := n.Int64(); err == nil {
				out = append(out, int(i))
			}
		}
	}
	return out
}

// dateRange accepts a list of exactly two ISO dates. Anything else, including
// unparseable dates or an inverted interval, is treated as unconstrained.
func dateRange(v any) *DateRange {
	dates := stringList(v)
	if len(dates) != 2 {
		return nil
	}
	start, err := time.Parse("2006-01-02", dates[0])
	if err != nil {
		return nil
	}
	end, err := time.Parse("2006-01-02", dates[1])
	if err != nil {
		return nil
	}
	if end.Before(start) {
		return nil
	}
	return &DateRange{Start: start, End: end}
}

func boolPtr(v any) *bool {
	if b, ok := v.(bool); ok {
		return &b
	}
	return nil
}

func boolValue(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func positiveInt(v any) int {
	switch n := v.(type) {
	case float64:
		if n > 0 && n == float64(int(n)) {
			return int(n)
		}
	case int:
		if n > 0 {
			return n
		}
	case json.Number:
		if i, err := n.Int64(); err == nil && i > 0 {
			return int(i)
		}
	}
	return 0
}
