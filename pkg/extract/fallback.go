package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The deterministic fallback extractor. It populates the same payload shape
// the LLM produces, from keyword and pattern scans alone, so extraction still
// works when no provider is configured or the provider response is unusable.

var (
	roomPattern  = regexp.MustCompile(`(?i)(Seminar[-\s]?\d+|Library|Lecture Theatre-\d+|Café|Dining-room|Founders-room|Reception|Rhodes-Trust|Nelson-Mandela|Edmund-Safra)`)
	floorPattern = regexp.MustCompile(`(?i)floor[- ]?(\d+)`)
	areaPattern  = regexp.MustCompile(`(?i)\b(sbs)\b`)
	limitPattern = regexp.MustCompile(`(?i)\b(?:top|bottom)\s*(\d+)\b`)

	continuousPattern = regexp.MustCompile(`(?i)\b(continuous|persistently|consistently|constantly|sustained|prolonged)\b`)

	aggMaxPattern = regexp.MustCompile(`(?i)\b(highest|max|most|busiest|hottest|top)\b`)
	aggMinPattern = regexp.MustCompile(`(?i)\b(lowest|min|least|coldest)\b`)
	aggAvgPattern = regexp.MustCompile(`(?i)\b(average|avg|typical)\b`)
	aggSumPattern = regexp.MustCompile(`(?i)\b(sum|total)\b`)
)

// metricVocabulary lists every metric name the store knows about.
var metricVocabulary = []string{
	"batteryLevel", "cloudcover", "co2", "daysToMold", "equilibriumMoistureContent",
	"extHumidity", "extTemp", "feelslike", "humidity", "inCount", "inCountTotal",
	"mechanicalDamage", "metalCorrosion", "Occupancy", "outCount", "outCountTotal",
	"peopleCount", "peopleMotion", "peopleMotionTotal", "precip", "preservationIndex",
	"temp", "winddir", "windgust", "windspeed",
}

// metricKeywords maps descriptive words to a metric when no metric name
// appears literally. Scanned in order; first hit wins.
var metricKeywords = []struct {
	keyword string
	metric  string
}{
	{"hottest", "temp"},
	{"cold", "temp"},
	{"humid", "humidity"},
	{"busiest", "Occupancy"},
	{"busy", "Occupancy"},
	{"occupied", "Occupancy"},
	{"dry", "humidity"},
	{"co2", "co2"},
	{"air quality", "co2"},
}

// Fallback extracts a filter payload from the raw question text using fixed
// vocabularies and patterns. now anchors relative date phrases.
func Fallback(query string, now time.Time) map[string]any {
	lower := strings.ToLower(query)

	var rooms []any
	for _, m := range roomPattern.FindAllString(query, -1) {
		rooms = append(rooms, strings.TrimSpace(m))
	}

	var floors []any
	for _, m := range floorPattern.FindAllStringSubmatch(query, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			floors = append(floors, n)
		}
	}

	var areas []any
	for _, m := range areaPattern.FindAllString(query, -1) {
		areas = append(areas, strings.TrimSpace(m))
	}

	var dateRange []any
	if strings.Contains(lower, "last week") {
		dateRange = []any{
			now.AddDate(0, 0, -7).Format("2006-01-02"),
			now.Format("2006-01-02"),
		}
	}

	var isHoliday, isWorking any
	if strings.Contains(lower, "holiday") {
		isHoliday = true
	}
	if strings.Contains(lower, "working day") {
		isWorking = true
	}

	metrics := matchMetrics(query)

	var aggregation any
	switch {
	case aggMaxPattern.MatchString(query):
		aggregation = "max"
	case aggMinPattern.MatchString(query):
		aggregation = "min"
	case aggAvgPattern.MatchString(query):
		aggregation = "avg"
	case aggSumPattern.MatchString(query):
		aggregation = "sum"
	}

	var limit any
	if m := limitPattern.FindStringSubmatch(query); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			limit = n
		}
	}

	return map[string]any{
		"rooms":                    rooms,
		"floor":                    floors,
		"area":                     areas,
		"date_range":               dateRange,
		"is_holiday":               isHoliday,
		"is_working":               isWorking,
		"metric_name":              metrics,
		"require_continuous_check": continuousPattern.MatchString(query),
		"aggregation":              aggregation,
		"limit":                    limit,
	}
}

// matchMetrics scans for literal metric names first, then falls back to the
// keyword map.
func matchMetrics(query string) []any {
	var metrics []any
	for _, name := range metricVocabulary {
		if wordPattern(name).MatchString(query) {
			metrics = append(metrics, name)
		}
	}
	if len(metrics) > 0 {
		return metrics
	}

	for _, kw := range metricKeywords {
		if wordPattern(kw.keyword).MatchString(query) {
			return []any{kw.metric}
		}
	}
	return nil
}

func wordPattern(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
}
