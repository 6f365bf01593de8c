package ports

// TokenCounter provides token count estimation for text content against
// a single encoding. Counts must be deterministic for identical input to
// keep the search convergent.
type TokenCounter interface {
	// CountTokens returns the token count for the given text.
	CountTokens(text string) int
}

// TokenCounterProvider resolves a TokenCounter for an encoding
// identifier (e.g. "cl100k_base"). This keeps the engine decoupled from
// the tokenizer implementation.
type TokenCounterProvider interface {
	// ForEncoding returns a counter for the given encoding identifier.
	ForEncoding(encoding string) (TokenCounter, error)
}
