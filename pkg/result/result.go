package result

import (
	"fmt"
	"strconv"
	"time"
)

// Row is one result row, keyed by column name. Values keep the store's types:
// strings, numbers, bools, timestamps, or nil.
type Row map[string]any

// QueryResult is the pipeline's output contract. An empty Rows slice is a
// valid, successful "no data matched" result; a failed query never produces a
// QueryResult at all.
type QueryResult struct {
	// Columns preserves the column order of the query shape that produced
	// the rows.
	Columns []string
	Rows    []Row
	// Source tags where the rows came from.
	Source string
	// ExportPath is the persisted CSV artifact, empty when the result is
	// empty or the export write failed.
	ExportPath string
}

// Empty reports whether the query matched nothing.
func (r *QueryResult) Empty() bool {
	return len(r.Rows) == 0
}

// FormatValue renders a single cell for export or terminal display.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", val)
	}
}
