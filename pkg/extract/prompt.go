package extract

import (
	"fmt"
	"strings"
	"time"
)

// buildExtractionPrompt asks the model to turn a user question into the
// filter payload contract. Today's date is included so the model can resolve
// relative phrases like "last week" itself.
func buildExtractionPrompt(query string, today time.Time) string {
	var sb strings.Builder
	sb.WriteString("You extract query filters from questions about building sensor data.\n")
	sb.WriteString("Return ONLY a JSON object like:\n")
	sb.WriteString(`{
  "rooms": ["Seminar-64", "Lecture Theatre-4"],
  "floor": [1],
  "area": ["sbs"],
  "date_range": ["2025-06-15", "2025-06-21"],
  "is_holiday": false,
  "is_working": true,
  "metric_name": ["co2", "humidity"],
  "require_continuous_check": true,
  "aggregation": "max",
  "limit": 5
}`)
	sb.WriteString("\n\n")
	sb.WriteString("Set \"aggregation\" (max, min, avg, or sum) when the question uses words like highest, lowest, most, least, top, max, min, or average.\n")
	sb.WriteString("If the question says \"busiest\" or \"most occupied\", set metric_name = [\"Occupancy\"].\n")
	sb.WriteString("Set \"require_continuous_check\" when the question asks about sustained or continuously high values.\n")
	sb.WriteString("Dates use YYYY-MM-DD. For fields the question does not constrain, return an empty list or null.\n")
	sb.WriteString(fmt.Sprintf("Today is %s.\n\n", today.Format("2006-01-02")))
	sb.WriteString("Question:\n")
	sb.WriteString(query)
	return sb.String()
}
