package agent

import (
	"context"
	"sync"

	"appforge/pkg/agent/llm"
)

// MockClient is a scripted llm.Client for tests. Responses are played
// back in order; the final entry repeats once the script is exhausted.
type MockClient struct {
	mu        sync.Mutex
	responses []MockResponse
	calls     []llm.CompletionRequest
	index     int
}

// MockResponse is one scripted turn.
type MockResponse struct {
	Response llm.CompletionResponse
	Err      error
}

// NewMockClient creates a mock client with the given script.
func NewMockClient(responses ...MockResponse) *MockClient {
	return &MockClient{responses: responses}
}

// Complete implements llm.Client by replaying the script.
func (m *MockClient) Complete(_ context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)
	if len(m.responses) == 0 {
		return llm.CompletionResponse{Content: "ok"}, nil
	}
	entry := m.responses[m.index]
	if m.index < len(m.responses)-1 {
		m.index++
	}
	return entry.Response, entry.Err
}

// ModelName implements llm.Client.
func (m *MockClient) ModelName() string {
	return "mock"
}

// Calls returns the requests seen so far.
func (m *MockClient) Calls() []llm.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]llm.CompletionRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Complete invocations.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
