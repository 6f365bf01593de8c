// Package model contains domain types for target model metadata and pricing.
package model

import (
	"sort"
	"sync"

	"github.com/jbctechsolutions/ctxprobe/internal/domain/errors"
)

// Registry manages model descriptors for probe runs. It maintains a
// thread-safe mapping from model ID to descriptor and serves as the
// price table and context-window lookup consumed by the probe engine.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*Descriptor
}

// NewRegistry creates a new Registry with an empty descriptor map.
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]*Descriptor),
	}
}

// NewDefaultRegistry creates a Registry pre-populated with the default
// model descriptors.
func NewDefaultRegistry() *Registry {
	reg := NewRegistry()
	PopulateRegistry(reg)
	return reg
}

// Register adds a descriptor to the registry. If a descriptor with the
// same ID already exists, it is replaced.
func (r *Registry) Register(d *Descriptor) {
	if d == nil || d.ID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[d.ID] = d.Clone()
}

// Get retrieves the descriptor for a model ID.
// Returns ErrModelNotFound if the model is not registered.
func (r *Registry) Get(modelID string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.models[modelID]
	if !exists {
		return nil, errors.ErrModelNotFound
	}

	// Return a copy to prevent external modification
	return d.Clone(), nil
}

// Has checks if a model is registered.
func (r *Registry) Has(modelID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.models[modelID]
	return exists
}

// Unregister removes a model from the registry.
// Returns true if the model was found and removed, false otherwise.
func (r *Registry) Unregister(modelID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[modelID]; exists {
		delete(r.models, modelID)
		return true
	}
	return false
}

// List returns all registered descriptors sorted by model ID.
func (r *Registry) List() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Descriptor, 0, len(r.models))
	for _, d := range r.models {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// ListByProvider returns all descriptors registered for a specific provider,
// sorted by model ID.
func (r *Registry) ListByProvider(provider string) []*Descriptor {
	all := r.List()
	out := make([]*Descriptor, 0, len(all))
	for _, d := range all {
		if d.Provider == provider {
			out = append(out, d)
		}
	}
	return out
}

// Count returns the number of registered descriptors.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}
