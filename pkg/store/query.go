package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/occusense/occusense/pkg/filter"
	"github.com/occusense/occusense/pkg/result"
)

// CandidateSpaceIDs resolves the spatial filters to matching space
// identifiers. Constraint fields are AND-combined, values within a field
// OR-combined; room and area match as case-insensitive substrings, floors
// exactly. A filter with no spatial constraints matches every space.
func (s *Store) CandidateSpaceIDs(ctx context.Context, f filter.Filter) ([]string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var conds []string
	var args []any

	if len(f.Rooms) > 0 {
		var ors []string
		for _, room := range f.Rooms {
			ors = append(ors, "room_name ILIKE ?")
			args = append(args, "%"+room+"%")
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}
	if len(f.Floors) > 0 {
		conds = append(conds, "floor IN ("+placeholders(len(f.Floors))+")")
		for _, fl := range f.Floors {
			args = append(args, fl)
		}
	}
	if len(f.Areas) > 0 {
		var ors []string
		for _, area := range f.Areas {
			ors = append(ors, "area ILIKE ?")
			args = append(args, "%"+area+"%")
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	q := "SELECT space_id FROM spaces"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("candidate query failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan candidate id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AggregateTopN groups matching usage rows by (room, floor, area, metric),
// reduces each group with the filter's aggregation, and keeps the best
// filter.Limit groups (default 1). max and sum rank descending, min and avg
// ascending.
func (s *Store) AggregateTopN(ctx context.Context, candidates []string, f filter.Filter) ([]string, []result.Row, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	where, args := usageWhere(candidates, f)
	order := "ASC"
	if f.Aggregation.Descending() {
		order = "DESC"
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 1
	}

	// Aggregation is a closed enum, never user text, so it is safe to splice.
	q := fmt.Sprintf(`
		SELECT m.room_name, m.floor, m.area, u.metric_name, %s(u.value) AS value
		FROM space_usage u
		JOIN spaces m ON u.space_id = m.space_id
		WHERE %s
		GROUP BY m.room_name, m.floor, m.area, u.metric_name
		ORDER BY value %s
		LIMIT ?`, f.Aggregation, where, order)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("aggregation query failed: %w", err)
	}
	defer rows.Close()

	cols, data, err := scanRows(rows)
	if err != nil {
		return nil, nil, fmt.Errorf("aggregation query failed: %w", err)
	}
	return cols, data, nil
}

// SustainedCounts counts, per (room, space, metric) group, how many matching
// rows of the target metric exceed threshold, ordered worst-first. Groups
// with no rows above the threshold are dropped.
func (s *Store) SustainedCounts(ctx context.Context, candidates []string, f filter.Filter, metric string, threshold float64) ([]string, []result.Row, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	where, args := usageWhere(candidates, f)
	q := `
		SELECT m.room_name, u.space_id, u.metric_name,
		       count(*) FILTER (WHERE u.value > ?) AS continuous_high_count
		FROM space_usage u
		JOIN spaces m ON u.space_id = m.space_id
		WHERE ` + where + ` AND u.metric_name = ?
		GROUP BY m.room_name, u.space_id, u.metric_name
		HAVING count(*) FILTER (WHERE u.value > ?) > 0
		ORDER BY continuous_high_count DESC`
	args = append([]any{threshold}, args...)
	args = append(args, metric, threshold)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("sustained-high query failed: %w", err)
	}
	defer rows.Close()

	cols, data, err := scanRows(rows)
	if err != nil {
		return nil, nil, fmt.Errorf("sustained-high query failed: %w", err)
	}
	return cols, data, nil
}

// FetchDetail returns every usage row joined with its space metadata that
// satisfies the full conjunction of active filters. This is the terminal
// query shape: no grouping, no ranking.
func (s *Store) FetchDetail(ctx context.Context, candidates []string, f filter.Filter) ([]string, []result.Row, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	where, args := usageWhere(candidates, f)
	q := `
		SELECT u.space_id, u.metric_name, u.value, u.start_time, u.end_time,
		       u.is_holiday, u.is_working, u.hour, u.dayofweek, u.month,
		       m.area, m.floor, m.room_name
		FROM space_usage u
		JOIN spaces m ON u.space_id = m.space_id
		WHERE ` + where + `
		ORDER BY u.start_time`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("detail query failed: %w", err)
	}
	defer rows.Close()

	cols, data, err := scanRows(rows)
	if err != nil {
		return nil, nil, fmt.Errorf("detail query failed: %w", err)
	}
	return cols, data, nil
}

// usageWhere builds the shared fact-table predicate: candidate membership
// plus date-range, holiday/working, and metric constraints.
func usageWhere(candidates []string, f filter.Filter) (string, []any) {
	conds := []string{"u.space_id IN (" + placeholders(len(candidates)) + ")"}
	var args []any
	for _, id := range candidates {
		args = append(args, id)
	}

	if f.DateRange != nil {
		start, end := f.DateRange.Window()
		conds = append(conds, "u.start_time BETWEEN ? AND ?")
		args = append(args, start, end)
	}
	if f.IsHoliday != nil {
		conds = append(conds, "u.is_holiday = ?")
		args = append(args, *f.IsHoliday)
	}
	if f.IsWorking != nil {
		conds = append(conds, "u.is_working = ?")
		args = append(args, *f.IsWorking)
	}
	if len(f.Metrics) > 0 {
		conds = append(conds, "u.metric_name IN ("+placeholders(len(f.Metrics))+")")
		for _, m := range f.Metrics {
			args = append(args, m)
		}
	}

	return strings.Join(conds, " AND "), args
}

func placeholders(n int) string {
	if n <= 0 {
		return "NULL"
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// scanRows converts sql rows into ordered column names and generic row maps,
// preserving whatever columns the query shape produced.
func scanRows(rows *sql.Rows) ([]string, []result.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var data []result.Row
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(result.Row, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		data = append(data, row)
	}
	return cols, data, rows.Err()
}
