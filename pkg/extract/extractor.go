package extract

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/occusense/occusense/pkg/adapter"
	"github.com/occusense/occusense/pkg/filter"
)

// Config configures an Extractor.
type Config struct {
	Logger *slog.Logger
	// Adapter is the LLM provider used for structured extraction. Nil means
	// fallback-only extraction.
	Adapter adapter.Adapter
	// Model overrides the adapter's preferred model.
	Model string
	// Clock anchors relative date phrases. Nil uses the real clock.
	Clock clockwork.Clock
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Extractor turns a natural-language question into a canonical Filter. It
// asks the configured LLM adapter for a structured payload and falls back to
// the deterministic keyword extractor whenever the provider fails, returns
// unusable JSON, or extracts no metric.
type Extractor struct {
	log     *slog.Logger
	adapter adapter.Adapter
	model   string
	clock   clockwork.Clock
}

// New creates an Extractor.
func New(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	model := cfg.Model
	if model == "" && cfg.Adapter != nil {
		model = adapter.DefaultModel(cfg.Adapter)
	}
	return &Extractor{
		log:     cfg.Logger,
		adapter: cfg.Adapter,
		model:   model,
		clock:   clock,
	}, nil
}

// Extract produces a Filter for the question. It never fails: every error
// path degrades to the deterministic fallback.
func (e *Extractor) Extract(ctx context.Context, query string) filter.Filter {
	raw := e.viaLLM(ctx, query)

	if raw != nil {
		f := filter.Normalize(raw)
		if len(f.Metrics) > 0 {
			e.log.Debug("extracted filters via provider", "adapter", e.adapter.Name(), "metrics", f.Metrics)
			return f
		}
		e.log.Debug("provider extracted no metric, using fallback")
	}

	f := filter.Normalize(Fallback(query, e.clock.Now()))
	e.log.Debug("extracted filters via fallback", "metrics", f.Metrics)
	return f
}

func (e *Extractor) viaLLM(ctx context.Context, query string) map[string]any {
	if e.adapter == nil {
		return nil
	}

	prompt := buildExtractionPrompt(query, e.clock.Now())
	resp, err := e.adapter.Generate(ctx, e.model, prompt)
	if err != nil {
		e.log.Warn("provider extraction failed, using fallback", "adapter", e.adapter.Name(), "error", err)
		return nil
	}

	raw := filter.ParsePayload(resp)
	if raw == nil {
		e.log.Warn("provider returned unparseable filters, using fallback", "adapter", e.adapter.Name())
	}
	return raw
}
