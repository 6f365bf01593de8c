package testutil

import (
	"github.com/jbctechsolutions/ctxprobe/internal/application/ports"
	"github.com/jbctechsolutions/ctxprobe/internal/domain/model"
	"github.com/jbctechsolutions/ctxprobe/internal/domain/probe"
)

// NewTestDescriptor creates a model descriptor for testing.
func NewTestDescriptor(id string) *model.Descriptor {
	return model.NewDescriptor(id, "Test "+id, model.ProviderAnthropic).
		WithContextWindow(200000).
		WithMaxOutput(8192).
		WithCosts(0.003, 0.015).
		WithEncoding(model.EncodingCL100K)
}

// NewTestRegistry creates a registry holding a single test descriptor.
func NewTestRegistry(id string) *model.Registry {
	registry := model.NewRegistry()
	registry.Register(NewTestDescriptor(id))
	return registry
}

// NewTestConfig creates a probe configuration for testing.
func NewTestConfig(modelID string, strategy probe.Strategy) probe.Config {
	cfg := probe.DefaultConfig(modelID)
	cfg.Strategy = strategy
	return cfg
}

// NewUserMessage creates a user message for testing.
func NewUserMessage(content string) ports.Message {
	return ports.Message{Role: ports.RoleUser, Content: content}
}

// NewBoundaryError creates a transport error the default classifier
// recognizes as a context-limit rejection.
func NewBoundaryError() *ports.TransportError {
	return &ports.TransportError{
		StatusCode: 400,
		Code:       "context_length_exceeded",
		Message:    "This model's maximum context length is exceeded",
	}
}

// NewRateLimitError creates a transient transport error.
func NewRateLimitError() *ports.TransportError {
	return &ports.TransportError{
		StatusCode: 429,
		Code:       "rate_limit_error",
		Message:    "Number of requests has exceeded your rate limit",
	}
}
