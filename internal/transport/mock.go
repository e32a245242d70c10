package transport

import (
	"context"
	"fmt"
	"sync"
)

// Mock returns deterministic completions for local runs and tests.
type Mock struct {
	mu        sync.Mutex
	responses map[string]string
	calls     []Request
	err       error

	// Token counts reported on every completion.
	InputTokens  int
	OutputTokens int
}

// NewMock creates a mock transport reporting the given token counts.
func NewMock(inputTokens, outputTokens int) *Mock {
	return &Mock{
		responses:    make(map[string]string),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
	}
}

// Respond sets the canned response text for a prompt.
func (m *Mock) Respond(prompt, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = text
}

// Fail makes every subsequent call return err.
func (m *Mock) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Name returns the provider identifier.
func (m *Mock) Name() string {
	return "mock"
}

// Complete records the request and returns the canned response, or an echo of
// the prompt when none is registered.
func (m *Mock) Complete(_ context.Context, req Request) (*Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}

	text, ok := m.responses[req.Prompt]
	if !ok {
		text = fmt.Sprintf("mock response:\n%s", req.Prompt)
	}
	return &Completion{
		Text:         text,
		InputTokens:  m.InputTokens,
		OutputTokens: m.OutputTokens,
		Model:        req.Model,
	}, nil
}

// Calls returns a snapshot of every request seen so far.
func (m *Mock) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times Complete was invoked.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
