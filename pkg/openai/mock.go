package openai

import (
	"context"
	"sync"

	"github.com/digitaldoctors/dda-assistant/pkg/llm"
)

// MockClient implements llm.Client for testing
type MockClient struct {
	mu sync.Mutex

	// ChatFunc allows customizing the completion behavior
	ChatFunc func(context.Context, llm.ChatRequest) (*llm.ChatResponse, error)

	ChatCalls []llm.ChatRequest
}

var _ llm.Client = (*MockClient)(nil)

// NewMockClient creates a new mock client with default behavior
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Reply builds a single-choice assistant response
func Reply(content string) *llm.ChatResponse {
	return &llm.ChatResponse{
		ID:     "mock-response-1",
		Object: "chat.completion",
		Model:  "gpt-5",
		Choices: []llm.Choice{{
			Message:      llm.ChatMessage{Role: llm.RoleAssistant, Content: content},
			FinishReason: "stop",
		}},
		Usage: llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

// ChatCompletion implements llm.Client.ChatCompletion
func (m *MockClient) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	m.ChatCalls = append(m.ChatCalls, req)
	fn := m.ChatFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return Reply("Dr. Tega mock response."), nil
}

// Reset clears the call history
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatCalls = nil
}

// GetChatCallCount returns the number of completion calls made
func (m *MockClient) GetChatCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ChatCalls)
}

// LastRequest returns the most recent request, if any
func (m *MockClient) LastRequest() (llm.ChatRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ChatCalls) == 0 {
		return llm.ChatRequest{}, false
	}
	return m.ChatCalls[len(m.ChatCalls)-1], true
}
