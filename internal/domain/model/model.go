// Package model contains domain types for target model metadata and pricing.
package model

// Provider names
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
)

// Encoding identifiers for token counting.
const (
	EncodingCL100K = "cl100k_base"
	EncodingO200K  = "o200k_base"
)

// Descriptor represents static facts about a target model endpoint:
// its advertised context window, output ceiling, pricing, and the
// encoding used to count tokens against it. Descriptors are loaded
// once per probe run and never mutated afterwards.
type Descriptor struct {
	ID              string  // unique identifier for the model
	Name            string  // human-readable name
	Provider        string  // anthropic, openai, ollama
	ContextWindow   int     // advertised maximum context tokens
	MaxOutputTokens int     // maximum output tokens per request
	InputCostPer1K  float64 // cost per 1000 input tokens in USD
	OutputCostPer1K float64 // cost per 1000 output tokens in USD
	Encoding        string  // encoding identifier for token counting
}

// NewDescriptor creates a new Descriptor with the required fields.
// The descriptor defaults to cl100k_base encoding.
func NewDescriptor(id, name, provider string) *Descriptor {
	return &Descriptor{
		ID:       id,
		Name:     name,
		Provider: provider,
		Encoding: EncodingCL100K,
	}
}

// WithContextWindow sets the advertised context window size.
// Returns the descriptor for fluent chaining.
func (d *Descriptor) WithContextWindow(size int) *Descriptor {
	d.ContextWindow = size
	return d
}

// WithMaxOutput sets the maximum output tokens per request.
// Returns the descriptor for fluent chaining.
func (d *Descriptor) WithMaxOutput(tokens int) *Descriptor {
	d.MaxOutputTokens = tokens
	return d
}

// WithCosts sets the input and output token costs per 1000 tokens.
// Returns the descriptor for fluent chaining.
func (d *Descriptor) WithCosts(inputCost, outputCost float64) *Descriptor {
	d.InputCostPer1K = inputCost
	d.OutputCostPer1K = outputCost
	return d
}

// WithEncoding sets the encoding identifier used for token counting.
// Returns the descriptor for fluent chaining.
func (d *Descriptor) WithEncoding(encoding string) *Descriptor {
	d.Encoding = encoding
	return d
}

// EstimateCost calculates the estimated cost for a given number of
// input and output tokens based on the per-1K pricing.
func (d *Descriptor) EstimateCost(inputTokens, outputTokens int) float64 {
	inputCost := (float64(inputTokens) / 1000.0) * d.InputCostPer1K
	outputCost := (float64(outputTokens) / 1000.0) * d.OutputCostPer1K
	return inputCost + outputCost
}

// IsLocal returns true if the model runs locally (i.e., provider is ollama).
func (d *Descriptor) IsLocal() bool {
	return d.Provider == ProviderOllama
}

// Clone returns a copy of the descriptor.
func (d *Descriptor) Clone() *Descriptor {
	clone := *d
	return &clone
}
