package tokenizer

import (
	"testing"
)

func TestNewEstimator(t *testing.T) {
	estimator, err := NewEstimator("cl100k_base")
	if err != nil {
		t.Fatalf("NewEstimator() error: %v", err)
	}
	if estimator == nil {
		t.Fatal("expected non-nil Estimator")
	}
}

func TestNewEstimator_UnknownEncoding(t *testing.T) {
	_, err := NewEstimator("not_a_real_encoding")
	if err == nil {
		t.Fatal("expected error for unknown encoding")
	}
}

func TestEstimator_CountTokens(t *testing.T) {
	estimator, err := NewEstimator("cl100k_base")
	if err != nil {
		t.Fatalf("NewEstimator() error: %v", err)
	}

	tests := []struct {
		name      string
		text      string
		minTokens int
		maxTokens int
	}{
		{
			name:      "empty string",
			text:      "",
			minTokens: 0,
			maxTokens: 0,
		},
		{
			name:      "single word",
			text:      "hello",
			minTokens: 1,
			maxTokens: 2,
		},
		{
			name:      "simple sentence",
			text:      "Hello, world!",
			minTokens: 3,
			maxTokens: 6,
		},
		{
			name:      "longer text",
			text:      "The quick brown fox jumps over the lazy dog.",
			minTokens: 8,
			maxTokens: 15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count := estimator.CountTokens(tt.text)
			if count < tt.minTokens || count > tt.maxTokens {
				t.Errorf("CountTokens(%q) = %d, expected between %d and %d",
					tt.text, count, tt.minTokens, tt.maxTokens)
			}
		})
	}
}

func TestEstimator_CountTokens_Deterministic(t *testing.T) {
	estimator, err := NewEstimator("cl100k_base")
	if err != nil {
		t.Fatalf("NewEstimator() error: %v", err)
	}

	text := "Determinism is required for convergent search."
	first := estimator.CountTokens(text)
	for i := 0; i < 5; i++ {
		if got := estimator.CountTokens(text); got != first {
			t.Fatalf("CountTokens not deterministic: %d != %d", got, first)
		}
	}
}

func TestProvider_CachesEstimators(t *testing.T) {
	provider := NewProvider()

	first, err := provider.ForEncoding("cl100k_base")
	if err != nil {
		t.Fatalf("ForEncoding() error: %v", err)
	}
	second, err := provider.ForEncoding("cl100k_base")
	if err != nil {
		t.Fatalf("ForEncoding() error: %v", err)
	}
	if first != second {
		t.Error("expected the same cached estimator instance")
	}
}

func TestSimpleEstimator_CountTokens(t *testing.T) {
	estimator := NewSimpleEstimator()

	if got := estimator.CountTokens(""); got != 0 {
		t.Errorf("CountTokens(empty) = %d, want 0", got)
	}
	// 8 characters at ~4 chars/token -> 2 tokens
	if got := estimator.CountTokens("12345678"); got != 2 {
		t.Errorf("CountTokens(8 chars) = %d, want 2", got)
	}
}
