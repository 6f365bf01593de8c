// Package ports defines the interfaces between the probe engine and
// its external collaborators: the chat transport, the token counter,
// and the history storage backend.
package ports

import (
	"context"
	"fmt"
	"time"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// SendRequest is the input for a single chat completion.
type SendRequest struct {
	ModelID         string
	Messages        []Message
	MaxOutputTokens int
}

// SendResult is the output of a successful chat completion.
type SendResult struct {
	Content      string        // reply text
	InputTokens  int           // input tokens reported by the provider (0 if not reported)
	OutputTokens int           // output tokens reported by the provider
	Duration     time.Duration // provider-side duration when reported
}

// ChatTransport delivers a prompt to a model endpoint and returns the
// reply. The engine assumes a ready transport handle is injected; it
// does not manage connection setup. Implementations must honor context
// cancellation and must not retry internally; retry policy belongs to
// the probe executor.
type ChatTransport interface {
	Send(ctx context.Context, req SendRequest) (*SendResult, error)
}

// TransportError carries the provider's failure signal so the outcome
// classifier can distinguish context-limit rejections from transient
// faults. Adapters preserve the provider's error code and message
// verbatim.
type TransportError struct {
	StatusCode int    // HTTP status, 0 if the request never completed
	Code       string // provider error code (e.g. "context_length_exceeded")
	Message    string // provider error message
}

// Error returns a formatted error string.
func (e *TransportError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("transport error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("transport error %d: %s", e.StatusCode, e.Message)
}
