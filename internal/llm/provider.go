// Package llm provides the completion provider interface and implementation
// backing the relay's assistant hook.
package llm

import "context"

// CompletionRequest holds parameters for a single completion call.
type CompletionRequest struct {
	Prompt      string
	System      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// CompletionResponse holds the provider's reply.
type CompletionResponse struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
	StopReason   string
}

// Provider is the interface for completion providers. A provider is treated
// as unreliable: callers get exactly one attempt per request and are expected
// to degrade gracefully on error.
type Provider interface {
	// Name returns the provider identifier (e.g., "anthropic").
	Name() string

	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// ProviderError represents a completion provider error.
type ProviderError struct {
	Message    string
	StatusCode int
	Provider   string
}

func (e *ProviderError) Error() string {
	if e.Provider != "" {
		return e.Provider + ": " + e.Message
	}
	return e.Message
}
