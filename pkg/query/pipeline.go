package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/occusense/occusense/pkg/filter"
	"github.com/occusense/occusense/pkg/result"
	"github.com/occusense/occusense/pkg/store"
)

// SourceTag marks results produced by the relational store.
const SourceTag = "store"

// maxPasses bounds the replan loop. An aggregated or sustained pass narrows
// the filter to its winning rooms and clears the flag that selected it, so
// the second pass is always a detail fetch.
const maxPasses = 2

// Config configures a Pipeline.
type Config struct {
	Logger   *slog.Logger
	Store    *store.Store
	Exporter *result.Exporter
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Store == nil {
		return errors.New("store is required")
	}
	return nil
}

// Pipeline turns a Filter into a QueryResult: it resolves spatial candidates,
// decides a query shape, executes it, replans at most once, and packages the
// rows. Pipelines hold no per-request state and are safe to reuse across
// requests.
type Pipeline struct {
	log      *slog.Logger
	store    *store.Store
	exporter *result.Exporter
}

// New creates a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{log: cfg.Logger, store: cfg.Store, exporter: cfg.Exporter}, nil
}

// Run executes the filter against the store. An empty result is success, not
// an error; store failures propagate wrapped with the failing query shape.
func (p *Pipeline) Run(ctx context.Context, f filter.Filter) (*result.QueryResult, error) {
	for pass := 1; pass <= maxPasses; pass++ {
		candidates, err := p.store.CandidateSpaceIDs(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("candidate resolution: %w", err)
		}
		if len(candidates) == 0 {
			p.log.Info("no spaces matched spatial filters", "rooms", f.Rooms, "floors", f.Floors, "areas", f.Areas)
			return p.empty(), nil
		}

		shape := DecideShape(f)
		p.log.Debug("executing query shape", "shape", shape.String(), "pass", pass, "candidates", len(candidates))

		switch shape {
		case ShapeAggregated:
			rooms, err := p.runAggregated(ctx, candidates, f)
			if err != nil {
				return nil, err
			}
			if len(rooms) == 0 {
				return p.empty(), nil
			}
			f = f.WithRooms(rooms)

		case ShapeSustained:
			rooms, err := p.runSustained(ctx, candidates, f)
			if err != nil {
				return nil, err
			}
			if len(rooms) == 0 {
				return p.empty(), nil
			}
			f = f.WithRooms(rooms)

		case ShapeDetail:
			cols, rows, err := p.store.FetchDetail(ctx, candidates, f)
			if err != nil {
				return nil, fmt.Errorf("%s query: %w", shape, err)
			}
			return p.pack(cols, rows), nil
		}
	}

	// Unreachable: a narrowed filter always decides to ShapeDetail.
	return nil, fmt.Errorf("query replan did not terminate after %d passes", maxPasses)
}

// runAggregated executes the top-N aggregation and returns the winning room
// names for the detail replan.
func (p *Pipeline) runAggregated(ctx context.Context, candidates []string, f filter.Filter) ([]string, error) {
	_, rows, err := p.store.AggregateTopN(ctx, candidates, f)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", ShapeAggregated, err)
	}
	rooms := roomNames(rows)
	p.log.Debug("aggregation resolved rooms", "aggregation", string(f.Aggregation), "rooms", rooms)
	return rooms, nil
}

// runSustained executes the above-threshold count and returns the room names
// with at least one reading over the metric's threshold, worst first.
func (p *Pipeline) runSustained(ctx context.Context, candidates []string, f filter.Filter) ([]string, error) {
	metric := f.TargetMetric()
	threshold := Threshold(metric)
	_, rows, err := p.store.SustainedCounts(ctx, candidates, f, metric, threshold)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", ShapeSustained, err)
	}
	rooms := roomNames(rows)
	p.log.Debug("sustained check resolved rooms", "metric", metric, "threshold", threshold, "rooms", rooms)
	return rooms, nil
}

func (p *Pipeline) pack(cols []string, rows []result.Row) *result.QueryResult {
	res := &result.QueryResult{Columns: cols, Rows: rows, Source: SourceTag}
	if p.exporter != nil {
		p.exporter.Export(res)
	}
	return res
}

func (p *Pipeline) empty() *result.QueryResult {
	return &result.QueryResult{Source: SourceTag}
}

// roomNames collects distinct room names from ranked group rows, preserving
// rank order.
func roomNames(rows []result.Row) []string {
	seen := make(map[string]bool, len(rows))
	var rooms []string
	for _, row := range rows {
		name, _ := row["room_name"].(string)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		rooms = append(rooms, name)
	}
	return rooms
}
