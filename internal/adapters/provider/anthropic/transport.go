package anthropic

import (
	"context"
	"strings"
	"time"

	"github.com/jbctechsolutions/ctxprobe/internal/application/ports"
)

// Transport implements the ports.ChatTransport interface for Anthropic
// Claude models.
type Transport struct {
	client *Client
	config Config
}

// Ensure Transport implements ChatTransport at compile time.
var _ ports.ChatTransport = (*Transport)(nil)

// NewTransport creates a new Anthropic transport with the given configuration.
func NewTransport(config Config) *Transport {
	return &Transport{
		client: NewClient(config),
		config: config,
	}
}

// NewTransportWithAPIKey creates a new Anthropic transport with default configuration.
func NewTransportWithAPIKey(apiKey string) *Transport {
	return NewTransport(DefaultConfig(apiKey))
}

// Send delivers a chat request and returns the reply with the provider's
// token accounting.
func (t *Transport) Send(ctx context.Context, req ports.SendRequest) (*ports.SendResult, error) {
	startTime := time.Now()

	resp, err := t.client.SendMessage(ctx, t.buildRequest(req))
	if err != nil {
		return nil, err
	}

	return t.buildResult(resp, startTime), nil
}

// buildRequest converts a ports.SendRequest to an Anthropic MessagesRequest.
// System messages move to the dedicated system field.
func (t *Transport) buildRequest(req ports.SendRequest) *MessagesRequest {
	messages := make([]Message, 0, len(req.Messages))
	system := ""
	for _, msg := range req.Messages {
		if msg.Role == ports.RoleSystem {
			system = msg.Content
			continue
		}
		messages = append(messages, Message{
			Role: MessageRole(msg.Role),
			Content: MessageContent{
				{Type: "text", Text: msg.Content},
			},
		})
	}

	return &MessagesRequest{
		Model:     req.ModelID,
		MaxTokens: req.MaxOutputTokens,
		System:    system,
		Messages:  messages,
	}
}

// buildResult converts an Anthropic MessagesResponse to a ports.SendResult.
func (t *Transport) buildResult(resp *MessagesResponse, startTime time.Time) *ports.SendResult {
	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	return &ports.SendResult{
		Content:      content.String(),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		Duration:     time.Since(startTime),
	}
}
