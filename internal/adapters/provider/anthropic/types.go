// Package anthropic provides a chat transport for the Anthropic Claude API.
package anthropic

import "time"

// MessageRole represents the role of a message participant.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ContentBlock represents a content block in a message.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// MessageContent can be either a string or an array of content blocks.
// For simplicity, we use content blocks array format.
type MessageContent []ContentBlock

// Message represents a single message in the conversation.
type Message struct {
	Role    MessageRole    `json:"role"`
	Content MessageContent `json:"content"`
}

// MessagesRequest is the request body for the Anthropic Messages API.
type MessagesRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Temperature *float32  `json:"temperature,omitempty"`
}

// Usage contains token usage information from the response.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// MessagesResponse is the response body from the Anthropic Messages API.
type MessagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       MessageRole    `json:"role"`
	Content    []ContentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Usage      Usage          `json:"usage"`
}

// ErrorResponse represents an error from the Anthropic API.
type ErrorResponse struct {
	Type  string    `json:"type"`
	Error ErrorInfo `json:"error"`
}

// ErrorInfo contains detailed error information.
type ErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Config contains configuration for the Anthropic client.
type Config struct {
	APIKey  string
	BaseURL string
	Version string
	Timeout time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:  apiKey,
		BaseURL: "https://api.anthropic.com/v1",
		Version: "2023-06-01",
		Timeout: 5 * time.Minute,
	}
}
