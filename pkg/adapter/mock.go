package adapter

import (
	"context"
	"errors"
)

// MockAdapter returns deterministic responses for local runs and tests.
type MockAdapter struct {
	responses       map[string]string
	defaultResponse string
	err             error
}

// NewMockAdapter creates a mock adapter with a default response.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		responses:       make(map[string]string),
		defaultResponse: "{}",
	}
}

// NewMockAdapterWithResponses creates a mock adapter with predefined
// responses keyed by exact prompt.
func NewMockAdapterWithResponses(responses map[string]string, defaultResponse string) *MockAdapter {
	if defaultResponse == "" {
		defaultResponse = "{}"
	}
	return &MockAdapter{responses: responses, defaultResponse: defaultResponse}
}

// NewFailingMockAdapter creates a mock adapter whose Generate always fails.
func NewFailingMockAdapter(message string) *MockAdapter {
	return &MockAdapter{err: errors.New(message)}
}

// Name returns the adapter identifier.
func (a *MockAdapter) Name() string {
	return "mock"
}

// Models returns the list of supported mock models.
func (a *MockAdapter) Models() []string {
	return []string{"mock-1"}
}

// Generate returns the canned response for the prompt.
func (a *MockAdapter) Generate(_ context.Context, _ string, prompt string) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	if response, ok := a.responses[prompt]; ok {
		return response, nil
	}
	return a.defaultResponse, nil
}
