package openai

import (
	"context"
	"time"

	"github.com/jbctechsolutions/ctxprobe/internal/application/ports"
)

// Transport implements the ports.ChatTransport interface for OpenAI
// models and OpenAI-compatible endpoints.
type Transport struct {
	client *Client
	config Config
}

// Ensure Transport implements ChatTransport at compile time.
var _ ports.ChatTransport = (*Transport)(nil)

// NewTransport creates a new OpenAI transport with the given configuration.
func NewTransport(config Config) *Transport {
	return &Transport{
		client: NewClient(config),
		config: config,
	}
}

// NewTransportWithAPIKey creates a new OpenAI transport with default configuration.
func NewTransportWithAPIKey(apiKey string) *Transport {
	return NewTransport(DefaultConfig(apiKey))
}

// Send delivers a chat request and returns the reply with the provider's
// token accounting.
func (t *Transport) Send(ctx context.Context, req ports.SendRequest) (*ports.SendResult, error) {
	startTime := time.Now()

	messages := make([]Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, Message{Role: msg.Role, Content: msg.Content})
	}

	resp, err := t.client.CreateChatCompletion(ctx, &ChatRequest{
		Model:               req.ModelID,
		Messages:            messages,
		MaxCompletionTokens: req.MaxOutputTokens,
	})
	if err != nil {
		return nil, err
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return &ports.SendResult{
		Content:      content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Duration:     time.Since(startTime),
	}, nil
}
