package llm

import (
	"context"
	"sync"
)

// MockProvider is an in-memory CompletionProvider for tests and local
// development. Responses are dequeued in order; when the queue is empty
// the static Response is returned.
type MockProvider struct {
	mu       sync.Mutex
	queue    []string
	Response string
	Err      error
	Calls    []CompletionRequest
}

func NewMockProvider(response string) *MockProvider {
	return &MockProvider{Response: response}
}

// Enqueue adds responses returned before the static Response
func (m *MockProvider) Enqueue(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, responses...)
}

func (m *MockProvider) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if m.Err != nil {
		return nil, m.Err
	}

	content := m.Response
	if len(m.queue) > 0 {
		content = m.queue[0]
		m.queue = m.queue[1:]
	}

	return &CompletionResponse{Content: content, Model: req.Model}, nil
}
