package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockClient implements Client for tests and keyless startup. Responses are
// scripted: each Complete call consumes the next queued reply, repeating the
// last one once the queue is exhausted.
type MockClient struct {
	mu        sync.Mutex
	model     string
	responses []mockReply
	calls     []CompletionRequest
}

type mockReply struct {
	content string
	err     error
}

// NewMockClient returns a mock with a single canned reply.
func NewMockClient() *MockClient {
	return &MockClient{
		model:     "mock",
		responses: []mockReply{{content: `{"intent": null}`}},
	}
}

// QueueResponse appends a successful reply to the script.
func (m *MockClient) QueueResponse(content string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockReply{content: content})
	return m
}

// QueueError appends a failing reply to the script.
func (m *MockClient) QueueError(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockReply{err: err})
	return m
}

// SetResponse replaces the whole script with a single reply.
func (m *MockClient) SetResponse(content string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = []mockReply{{content: content}}
	return m
}

// SetError replaces the whole script with a single failure.
func (m *MockClient) SetError(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = []mockReply{{err: err}}
	return m
}

// Calls returns a copy of every request seen so far.
func (m *MockClient) Calls() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)

	if len(m.responses) == 0 {
		return nil, fmt.Errorf("mock client has no scripted responses")
	}

	reply := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	if reply.err != nil {
		return nil, reply.err
	}
	return &CompletionResponse{
		Content:    reply.content,
		StopReason: "stop",
		Usage:      TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}, nil
}

func (m *MockClient) Model() string {
	return m.model
}
