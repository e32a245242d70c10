// Package transport abstracts the upstream generative-text API behind a
// narrow interface so the gateway can be exercised against a mock.
package transport

import "context"

// Request is a single completion request.
type Request struct {
	Model       string
	Prompt      string
	System      string // empty means the upstream call carries no system prompt
	MaxTokens   int
	Temperature float64
}

// Completion is the normalized upstream result.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
	Model        string
}

// Transport sends completion requests to an upstream provider.
type Transport interface {
	// Complete sends one request and returns the completion.
	Complete(ctx context.Context, req Request) (*Completion, error)

	// Name returns the provider identifier.
	Name() string
}
