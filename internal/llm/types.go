package llm

import "context"

// Config carries the connection settings for an HTTP-based completion client.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    int // seconds
	MaxRetries int
	Headers    map[string]string
}

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes one chat-completion call.
type CompletionRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
	// ReasoningEffort, when non-empty, asks the provider for a deeper
	// (slower) inference pass. Providers that do not understand the field
	// ignore it.
	ReasoningEffort string
	Metadata        map[string]any
}

// TokenUsage reports token accounting as returned by the provider.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is the aggregated result of a completion call.
type CompletionResponse struct {
	Content    string
	StopReason string
	Usage      TokenUsage
	Metadata   map[string]any
}

// Client is the chat-completion contract consumed by the interpreter.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Model() string
}
