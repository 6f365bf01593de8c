// Package model contains domain types for target model metadata and pricing.
package model

// DefaultDescriptors returns descriptors for well-known models, including
// advertised context windows, output ceilings, and per-1000-token pricing
// in USD. To convert from provider pricing (typically per million tokens):
//
//	rate_per_1k = price_per_million / 1000
//
// Example: Claude Sonnet at $3/MTok input = 0.003 per 1K tokens
// Last updated: August 2026
// Sources:
//   - Anthropic: https://docs.anthropic.com/en/docs/about-claude/models
//   - OpenAI: https://openai.com/api/pricing/
func DefaultDescriptors() []*Descriptor {
	return []*Descriptor{
		// ============================================
		// Anthropic Claude models
		// https://docs.anthropic.com/en/docs/about-claude/models
		// ============================================

		NewDescriptor("claude-opus-4-20250514", "Claude Opus 4", ProviderAnthropic).
			WithContextWindow(200000).WithMaxOutput(32000).WithCosts(0.015, 0.075),
		NewDescriptor("claude-sonnet-4-20250514", "Claude Sonnet 4", ProviderAnthropic).
			WithContextWindow(200000).WithMaxOutput(64000).WithCosts(0.003, 0.015),
		NewDescriptor("claude-3-5-sonnet-20241022", "Claude 3.5 Sonnet", ProviderAnthropic).
			WithContextWindow(200000).WithMaxOutput(8192).WithCosts(0.003, 0.015),
		NewDescriptor("claude-3-5-haiku-20241022", "Claude 3.5 Haiku", ProviderAnthropic).
			WithContextWindow(200000).WithMaxOutput(8192).WithCosts(0.0008, 0.004),
		NewDescriptor("claude-3-haiku-20240307", "Claude 3 Haiku", ProviderAnthropic).
			WithContextWindow(200000).WithMaxOutput(4096).WithCosts(0.00025, 0.00125),

		// ============================================
		// OpenAI GPT models
		// https://openai.com/api/pricing/
		// ============================================

		NewDescriptor("gpt-4o", "GPT-4o", ProviderOpenAI).
			WithContextWindow(128000).WithMaxOutput(16384).WithCosts(0.0025, 0.01).
			WithEncoding(EncodingO200K),
		NewDescriptor("gpt-4o-mini", "GPT-4o mini", ProviderOpenAI).
			WithContextWindow(128000).WithMaxOutput(16384).WithCosts(0.00015, 0.0006).
			WithEncoding(EncodingO200K),
		NewDescriptor("gpt-4-turbo", "GPT-4 Turbo", ProviderOpenAI).
			WithContextWindow(128000).WithMaxOutput(4096).WithCosts(0.01, 0.03),
		NewDescriptor("gpt-4", "GPT-4", ProviderOpenAI).
			WithContextWindow(8192).WithMaxOutput(8192).WithCosts(0.03, 0.06),
		NewDescriptor("gpt-3.5-turbo", "GPT-3.5 Turbo", ProviderOpenAI).
			WithContextWindow(16385).WithMaxOutput(4096).WithCosts(0.0005, 0.0015),

		// ============================================
		// Ollama models (local, zero cost)
		// ============================================

		NewDescriptor("llama3.1:8b", "Llama 3.1 8B", ProviderOllama).
			WithContextWindow(131072).WithMaxOutput(8192).WithCosts(0, 0),
		NewDescriptor("llama3.1:70b", "Llama 3.1 70B", ProviderOllama).
			WithContextWindow(131072).WithMaxOutput(8192).WithCosts(0, 0),
		NewDescriptor("qwen2.5:7b", "Qwen 2.5 7B", ProviderOllama).
			WithContextWindow(32768).WithMaxOutput(8192).WithCosts(0, 0),
		NewDescriptor("mistral:7b", "Mistral 7B", ProviderOllama).
			WithContextWindow(32768).WithMaxOutput(8192).WithCosts(0, 0),
	}
}

// PopulateRegistry adds the default descriptors to a Registry.
func PopulateRegistry(reg *Registry) {
	if reg == nil {
		return
	}

	for _, d := range DefaultDescriptors() {
		reg.Register(d)
	}
}
