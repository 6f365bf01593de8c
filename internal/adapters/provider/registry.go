// Package provider provides the transport registry mapping provider
// names to their chat transports.
package provider

import (
	"sync"

	"github.com/jbctechsolutions/ctxprobe/internal/application/ports"
	"github.com/jbctechsolutions/ctxprobe/internal/domain/errors"
)

// Registry manages the registration and lookup of chat transports by
// provider name.
type Registry struct {
	mu         sync.RWMutex
	transports map[string]ports.ChatTransport
	order      []string // maintains registration order
}

// NewRegistry creates a new empty transport registry.
func NewRegistry() *Registry {
	return &Registry{
		transports: make(map[string]ports.ChatTransport),
		order:      make([]string, 0),
	}
}

// Register adds a transport under a provider name. Registering the same
// name again replaces the previous transport.
func (r *Registry) Register(name string, transport ports.ChatTransport) error {
	if transport == nil {
		return errors.NewError(errors.CodeValidation, "transport cannot be nil", nil)
	}
	if name == "" {
		return errors.NewError(errors.CodeValidation, "provider name cannot be empty", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.transports[name]; !exists {
		r.order = append(r.order, name)
	}

	r.transports[name] = transport
	return nil
}

// Get retrieves a transport by provider name.
// Returns nil if the provider is not registered.
func (r *Registry) Get(name string) ports.ChatTransport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.transports[name]
}

// GetRequired retrieves a transport by provider name, returning an
// error if not registered.
func (r *Registry) GetRequired(name string) (ports.ChatTransport, error) {
	transport := r.Get(name)
	if transport == nil {
		return nil, errors.NewError(errors.CodeNotFound,
			"no transport registered for provider "+name, nil)
	}
	return transport, nil
}

// List returns all registered provider names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, len(r.order))
	copy(result, r.order)
	return result
}
