package adapter

import (
	"context"
)

// Adapter defines the interface for LLM provider adapters. The extraction
// pipeline treats providers as interchangeable text-in, text-out services.
type Adapter interface {
	// Generate sends a prompt to the model and returns the response text.
	Generate(ctx context.Context, model string, prompt string) (string, error)

	// Name returns the adapter's identifier.
	Name() string

	// Models returns the list of supported models, preferred first.
	Models() []string
}

// DefaultModel returns the adapter's preferred model, or the empty string
// when it advertises none.
func DefaultModel(a Adapter) string {
	models := a.Models()
	if len(models) == 0 {
		return ""
	}
	return models[0]
}
