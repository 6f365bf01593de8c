package ollama

import (
	"context"
	"time"

	"github.com/jbctechsolutions/ctxprobe/internal/application/ports"
)

// Transport implements the ports.ChatTransport interface for models
// served by a local Ollama instance.
//
// Ollama truncates oversized prompts instead of rejecting them unless
// num_ctx is pinned, so the transport always sends its configured
// context size. Probing past that size then produces an allocation
// error the classifier can recognize rather than a silent success.
type Transport struct {
	client *Client
	numCtx int
}

// Ensure Transport implements ChatTransport at compile time.
var _ ports.ChatTransport = (*Transport)(nil)

// TransportOption is a functional option for configuring a Transport.
type TransportOption func(*Transport)

// WithNumCtx pins the server-side context size used for every request.
func WithNumCtx(numCtx int) TransportOption {
	return func(t *Transport) {
		t.numCtx = numCtx
	}
}

// WithClientOptions forwards options to the underlying client.
func WithClientOptions(opts ...ClientOption) TransportOption {
	return func(t *Transport) {
		t.client = NewClient(opts...)
	}
}

// NewTransport creates a new Ollama transport.
func NewTransport(opts ...TransportOption) *Transport {
	t := &Transport{
		client: NewClient(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send delivers a chat request and returns the reply with the server's
// token accounting.
func (t *Transport) Send(ctx context.Context, req ports.SendRequest) (*ports.SendResult, error) {
	startTime := time.Now()

	messages := make([]ChatMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, ChatMessage{Role: msg.Role, Content: msg.Content})
	}

	options := &Options{NumPredict: req.MaxOutputTokens}
	if t.numCtx > 0 {
		options.NumCtx = t.numCtx
	}

	resp, err := t.client.Chat(ctx, &ChatRequest{
		Model:    req.ModelID,
		Messages: messages,
		Options:  options,
	})
	if err != nil {
		return nil, err
	}

	return &ports.SendResult{
		Content:      resp.Message.Content,
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
		Duration:     time.Since(startTime),
	}, nil
}

// ListModels returns the model names installed on the server.
func (t *Transport) ListModels(ctx context.Context) ([]string, error) {
	tags, err := t.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
