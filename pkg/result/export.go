package result

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Exporter persists non-empty results as a CSV artifact at a fixed path,
// overwriting the previous export each time.
type Exporter struct {
	log  *slog.Logger
	path string
}

// NewExporter creates an exporter writing to path.
func NewExporter(log *slog.Logger, path string) *Exporter {
	return &Exporter{log: log, path: path}
}

// Export writes the result's rows to the export path and records the path on
// the result. Empty results produce no artifact. A write failure is non-fatal:
// it is logged, the path stays empty, and the rows are still usable.
func (e *Exporter) Export(res *QueryResult) {
	if res == nil || res.Empty() {
		return
	}

	if err := e.write(res); err != nil {
		e.log.Warn("export artifact write failed", "path", e.path, "error", err)
		return
	}

	res.ExportPath = e.path
	e.log.Debug("exported query result", "path", e.path, "rows", len(res.Rows))
}

func (e *Exporter) write(res *QueryResult) error {
	if err := os.MkdirAll(filepath.Dir(e.path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	f, err := os.Create(e.path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(res.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(res.Columns))
	for _, row := range res.Rows {
		for i, col := range res.Columns {
			record[i] = FormatValue(row[col])
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush export: %w", err)
	}
	return f.Close()
}
