package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
)

const defaultQueryTimeout = 30 * time.Second

// Space is a physical location: a room within an area on a floor. Reference
// data, written only by ingestion and read-only to the query pipeline.
type Space struct {
	ID       string
	Area     string
	Floor    int
	RoomName string
	ParentID string
}

// UsageRecord is one timestamped metric observation for a Space.
type UsageRecord struct {
	SpaceID    string
	MetricName string
	Value      float64
	StartTime  time.Time
	EndTime    time.Time
	IsHoliday  bool
	IsWorking  bool
	Hour       int
	DayOfWeek  int
	Month      int
}

// Config configures a Store.
type Config struct {
	Logger *slog.Logger
	// Path is the duckdb database file. Empty opens an in-memory database.
	Path string
	// QueryTimeout bounds each store round-trip. Zero uses the default.
	QueryTimeout time.Duration
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Store is the relational store holding space metadata and usage facts,
// backed by an embedded duckdb database.
type Store struct {
	log     *slog.Logger
	db      *sql.DB
	timeout time.Duration
}

// Open opens the database and ensures the schema exists.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}

	s := &Store{log: cfg.Logger, db: db, timeout: timeout}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS spaces (
			space_id  VARCHAR PRIMARY KEY,
			area      VARCHAR,
			floor     INTEGER,
			room_name VARCHAR,
			parent_id VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS space_usage (
			space_id    VARCHAR,
			metric_name VARCHAR,
			value       DOUBLE,
			start_time  TIMESTAMP,
			end_time    TIMESTAMP,
			is_holiday  BOOLEAN,
			is_working  BOOLEAN,
			hour        INTEGER,
			dayofweek   INTEGER,
			month       INTEGER
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// InsertSpaces appends space metadata rows.
func (s *Store) InsertSpaces(ctx context.Context, spaces []Space) error {
	if len(spaces) == 0 {
		return nil
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(s.log, tx)

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO spaces (space_id, area, floor, room_name, parent_id) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare spaces insert: %w", err)
	}
	defer stmt.Close()

	for _, sp := range spaces {
		if _, err := stmt.ExecContext(ctx, sp.ID, sp.Area, sp.Floor, sp.RoomName, sp.ParentID); err != nil {
			return fmt.Errorf("failed to insert space %s: %w", sp.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit spaces: %w", err)
	}
	s.log.Debug("inserted spaces", "count", len(spaces))
	return nil
}

// InsertUsage appends usage fact rows.
func (s *Store) InsertUsage(ctx context.Context, records []UsageRecord) error {
	if len(records) == 0 {
		return nil
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(s.log, tx)

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO space_usage
		 (space_id, metric_name, value, start_time, end_time, is_holiday, is_working, hour, dayofweek, month)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare usage insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.SpaceID, r.MetricName, r.Value, r.StartTime, r.EndTime,
			r.IsHoliday, r.IsWorking, r.Hour, r.DayOfWeek, r.Month); err != nil {
			return fmt.Errorf("failed to insert usage row for %s: %w", r.SpaceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit usage rows: %w", err)
	}
	s.log.Debug("inserted usage rows", "count", len(records))
	return nil
}

// Spaces returns all space metadata, ordered by room name.
func (s *Store) Spaces(ctx context.Context) ([]Space, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT space_id, area, floor, room_name, coalesce(parent_id, '') FROM spaces ORDER BY room_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query spaces: %w", err)
	}
	defer rows.Close()

	var spaces []Space
	for rows.Next() {
		var sp Space
		if err := rows.Scan(&sp.ID, &sp.Area, &sp.Floor, &sp.RoomName, &sp.ParentID); err != nil {
			return nil, fmt.Errorf("failed to scan space: %w", err)
		}
		spaces = append(spaces, sp)
	}
	return spaces, rows.Err()
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func rollback(log *slog.Logger, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Error("failed to rollback transaction", "error", err)
	}
}
