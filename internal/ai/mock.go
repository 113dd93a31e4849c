package ai

import (
	"context"
	"sync"
)

// MockProvider answers with canned JSON. It replaces a real model in tests and
// in offline demos (driver "mock").
type MockProvider struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []string
}

// NewMockProvider returns a provider that answers every prompt with an empty
// JSON object until replies are queued.
func NewMockProvider(replies ...string) *MockProvider {
	return &MockProvider{replies: replies}
}

// Queue appends replies; they are consumed in order and the last one repeats.
func (m *MockProvider) Queue(replies ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, replies...)
}

// Fail makes every following call return err.
func (m *MockProvider) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Prompts returns the prompts received so far.
func (m *MockProvider) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

func (m *MockProvider) Name() string  { return "mock" }
func (m *MockProvider) Model() string { return "mock" }
func (m *MockProvider) Close() error  { return nil }

func (m *MockProvider) GenerateJSON(ctx context.Context, prompt string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return nil, m.err
	}

	text := "{}"
	switch len(m.replies) {
	case 0:
	case 1:
		text = m.replies[0]
	default:
		text = m.replies[0]
		m.replies = m.replies[1:]
	}
	return &Response{Text: text, Usage: Usage{PromptTokens: len(prompt) / 4, CompletionTokens: len(text) / 4, TotalTokens: (len(prompt) + len(text)) / 4}}, nil
}
