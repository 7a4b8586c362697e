package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/occusense/occusense/pkg/adapter"
	"github.com/occusense/occusense/pkg/config"
	"github.com/occusense/occusense/pkg/extract"
	"github.com/occusense/occusense/pkg/filter"
	"github.com/occusense/occusense/pkg/query"
	"github.com/occusense/occusense/pkg/result"
	"github.com/occusense/occusense/pkg/session"
	"github.com/occusense/occusense/pkg/store"
)

var (
	adapterFlag string
	modelFlag   string
	dbFlag      string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "occusense",
		Short: "Query building occupancy and environmental sensor data in plain language",
		Long: `Occusense answers questions about building sensor data. It extracts
	query filters from a natural-language question, plans a query against the
	usage store, and prints the matching readings as a table plus a CSV export.`,
	}

	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "path to the duckdb database (overrides config)")

	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(spacesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about the sensor data",
		Long: `Extracts query filters from the question using the configured LLM
	adapter (with a deterministic keyword fallback), runs the query, and prints
	the matching readings.

	Use --adapter and --model to override the extraction provider.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := args[0]

			cfg, log, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			extractor, err := createExtractor(cfg, log)
			if err != nil {
				return err
			}

			sess := session.New()
			f := sess.Merge(extractor.Extract(cmd.Context(), question))

			if missing := sess.Missing(); len(missing) > 0 {
				fmt.Fprintf(os.Stderr, "Note: no %s given; querying without it.\n", strings.Join(missing, " or "))
			}

			return runQuery(cmd.Context(), cfg, log, f)
		},
	}

	cmd.Flags().StringVar(&adapterFlag, "adapter", "", "override adapter (anthropic, openai, google, mock)")
	cmd.Flags().StringVar(&modelFlag, "model", "", "override model")

	return cmd
}

func queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query [filters-json]",
		Short: "Run a query from a raw filter payload",
		Long: `Runs a query from a JSON filter payload, skipping extraction.
	Useful for scripting and for inspecting planner behavior, e.g.:

	occusense query '{"rooms": ["Library"], "metric_name": ["co2"]}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := filter.ParsePayload(args[0])
			if raw == nil {
				return fmt.Errorf("filter payload is not a JSON object")
			}

			cfg, log, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			return runQuery(cmd.Context(), cfg, log, filter.Normalize(raw))
		},
	}
}

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [question]",
		Short: "Show the filters extracted from a question",
		Long:  "Extracts query filters from the question and prints them as JSON without running the query.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			extractor, err := createExtractor(cfg, log)
			if err != nil {
				return err
			}

			f := extractor.Extract(cmd.Context(), args[0])
			data, err := json.MarshalIndent(filterView(f), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&adapterFlag, "adapter", "", "override adapter (anthropic, openai, google, mock)")
	cmd.Flags().StringVar(&modelFlag, "model", "", "override model")

	return cmd
}

func ingestCmd() *cobra.Command {
	var spacesFile string
	var usageFile string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load spaces and usage records from CSV files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if spacesFile == "" && usageFile == "" {
				return fmt.Errorf("--spaces or --usage is required")
			}

			cfg, log, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			st, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			if spacesFile != "" {
				n, err := st.LoadSpacesCSV(cmd.Context(), spacesFile)
				if err != nil {
					return fmt.Errorf("failed to load spaces: %w", err)
				}
				fmt.Printf("Loaded %d spaces from %s\n", n, spacesFile)
			}
			if usageFile != "" {
				n, err := st.LoadUsageCSV(cmd.Context(), usageFile)
				if err != nil {
					return fmt.Errorf("failed to load usage records: %w", err)
				}
				fmt.Printf("Loaded %d usage records from %s\n", n, usageFile)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&spacesFile, "spaces", "", "spaces CSV file")
	cmd.Flags().StringVar(&usageFile, "usage", "", "usage records CSV file")

	return cmd
}

func spacesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spaces",
		Short: "List known spaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			st, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			spaces, err := st.Spaces(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ROOM\tFLOOR\tAREA\tID")
			for _, sp := range spaces {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", sp.RoomName, sp.Floor, sp.Area, sp.ID)
			}
			return w.Flush()
		},
	}
}

// runQuery opens the store, executes the filter, and prints the result.
func runQuery(ctx context.Context, cfg *config.Config, log *slog.Logger, f filter.Filter) error {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	pipeline, err := query.New(query.Config{
		Logger:   log,
		Store:    st,
		Exporter: result.NewExporter(log, cfg.ExportPath),
	})
	if err != nil {
		return err
	}

	res, err := pipeline.Run(ctx, f)
	if err != nil {
		return err
	}

	if res.Empty() {
		fmt.Println("No matching readings.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(res.Columns, "\t")))
	for _, row := range res.Rows {
		cells := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			cells[i] = result.FormatValue(row[col])
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "%d rows", len(res.Rows))
	if res.ExportPath != "" {
		fmt.Fprintf(os.Stderr, ", exported to %s", res.ExportPath)
	}
	fmt.Fprintln(os.Stderr)
	return nil
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if dbFlag != "" {
		cfg.DatabasePath = dbFlag
	}

	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel(cfg.LogLevel),
		TimeFormat: time.Kitchen,
	}))
	return cfg, log, nil
}

func logLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*store.Store, error) {
	st, err := store.Open(ctx, store.Config{Logger: log, Path: cfg.DatabasePath})
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", cfg.DatabasePath, err)
	}
	return st, nil
}

// createExtractor picks the extraction adapter and builds the extractor.
// No usable adapter is not an error: extraction degrades to the keyword
// fallback.
func createExtractor(cfg *config.Config, log *slog.Logger) (*extract.Extractor, error) {
	adapters, err := createAdapters(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create adapters: %w", err)
	}

	name := adapterFlag
	if name == "" {
		name = cfg.Adapter
	}

	var chosen adapter.Adapter
	if name != "" {
		a, ok := adapters[name]
		if !ok {
			return nil, fmt.Errorf("adapter %q not available", name)
		}
		chosen = a
	} else {
		for _, candidate := range []string{"anthropic", "openai", "google"} {
			if a, ok := adapters[candidate]; ok {
				chosen = a
				break
			}
		}
		if chosen == nil {
			log.Warn("no LLM adapter configured, extraction uses keyword fallback only")
		}
	}

	model := modelFlag
	if model == "" {
		model = cfg.Model
	}

	return extract.New(extract.Config{
		Logger:  log,
		Adapter: chosen,
		Model:   model,
	})
}

func createAdapters(cfg *config.Config) (map[string]adapter.Adapter, error) {
	adapters := make(map[string]adapter.Adapter)

	if cfg.AnthropicAPIKey != "" {
		a, err := adapter.NewAnthropicAdapter(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic adapter: %w", err)
		}
		adapters["anthropic"] = a
	}

	if cfg.OpenAIAPIKey != "" {
		a, err := adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai adapter: %w", err)
		}
		adapters["openai"] = a
	}

	if cfg.GoogleAPIKey != "" {
		a, err := adapter.NewGoogleAdapter(cfg.GoogleAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create google adapter: %w", err)
		}
		adapters["google"] = a
	}

	adapters["mock"] = adapter.NewMockAdapter()

	return adapters, nil
}

// filterView renders a Filter for the extract subcommand.
func filterView(f filter.Filter) map[string]any {
	view := map[string]any{
		"rooms":                    f.Rooms,
		"floor":                    f.Floors,
		"area":                     f.Areas,
		"metric_name":              f.Metrics,
		"require_continuous_check": f.RequireContinuous,
		"aggregation":              string(f.Aggregation),
		"limit":                    f.Limit,
	}
	if f.DateRange != nil {
		view["date_range"] = []string{
			f.DateRange.Start.Format("2006-01-02"),
			f.DateRange.End.Format("2006-01-02"),
		}
	}
	if f.IsHoliday != nil {
		view["is_holiday"] = *f.IsHoliday
	}
	if f.IsWorking != nil {
		view["is_working"] = *f.IsWorking
	}
	return view
}
