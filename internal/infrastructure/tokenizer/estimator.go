// Package tokenizer provides token counting infrastructure using tiktoken.
// It implements the ports.TokenCounter interface for deterministic token
// counts, which the probe engine requires for convergent search.
package tokenizer

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/jbctechsolutions/ctxprobe/internal/application/ports"
	"github.com/jbctechsolutions/ctxprobe/internal/domain/errors"
)

// Estimator provides token counting using tiktoken-go for a single
// encoding. Identical input always yields the same count.
type Estimator struct {
	encoding *tiktoken.Tiktoken
	mu       sync.RWMutex
}

// Ensure Estimator implements ports.TokenCounter.
var _ ports.TokenCounter = (*Estimator)(nil)

// NewEstimator creates a token estimator for the given encoding
// identifier (e.g. "cl100k_base", "o200k_base").
func NewEstimator(encoding string) (*Estimator, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, errors.NewError(errors.CodeConfiguration,
			"could not load encoding "+encoding, errors.ErrEncodingNotFound)
	}

	return &Estimator{
		encoding: enc,
	}, nil
}

// CountTokens returns the token count for the given text.
// This method is thread-safe.
func (e *Estimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	tokens := e.encoding.Encode(text, nil, nil)
	return len(tokens)
}

// Provider resolves estimators by encoding identifier and caches them,
// since loading an encoding parses its BPE table.
type Provider struct {
	mu    sync.Mutex
	cache map[string]*Estimator
}

// Ensure Provider implements ports.TokenCounterProvider.
var _ ports.TokenCounterProvider = (*Provider)(nil)

// NewProvider creates an estimator provider with an empty cache.
func NewProvider() *Provider {
	return &Provider{
		cache: make(map[string]*Estimator),
	}
}

// ForEncoding returns a cached counter for the encoding, creating one
// on first use.
func (p *Provider) ForEncoding(encoding string) (ports.TokenCounter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if est, ok := p.cache[encoding]; ok {
		return est, nil
	}

	est, err := NewEstimator(encoding)
	if err != nil {
		return nil, err
	}
	p.cache[encoding] = est
	return est, nil
}

// SimpleEstimator provides a heuristic-based token counter that doesn't
// require BPE data. Uses ~4 characters per token. Useful for tests and
// for environments where the tiktoken data files are unavailable.
type SimpleEstimator struct{}

// Ensure SimpleEstimator implements ports.TokenCounter.
var _ ports.TokenCounter = (*SimpleEstimator)(nil)

// NewSimpleEstimator creates a new simple token estimator.
func NewSimpleEstimator() *SimpleEstimator {
	return &SimpleEstimator{}
}

// CountTokens returns an estimated token count using a ~4 characters
// per token heuristic.
func (e *SimpleEstimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// SimpleProvider resolves every encoding to the heuristic estimator.
type SimpleProvider struct{}

// Ensure SimpleProvider implements ports.TokenCounterProvider.
var _ ports.TokenCounterProvider = (*SimpleProvider)(nil)

// NewSimpleProvider creates a provider backed by the heuristic estimator.
func NewSimpleProvider() *SimpleProvider {
	return &SimpleProvider{}
}

// ForEncoding returns the heuristic estimator regardless of encoding.
func (p *SimpleProvider) ForEncoding(encoding string) (ports.TokenCounter, error) {
	return NewSimpleEstimator(), nil
}
