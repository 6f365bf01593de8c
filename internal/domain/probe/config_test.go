package probe

import (
	"testing"
	"time"

	"github.com/jbctechsolutions/ctxprobe/internal/domain/errors"
)

func validConfig() Config {
	cfg := DefaultConfig("claude-sonnet-4-20250514")
	return cfg
}

func TestConfig_ValidateDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestConfig_ValidateRejections(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		sentinel error
	}{
		{
			name:   "empty model",
			mutate: func(c *Config) { c.ModelID = "" },
		},
		{
			name:     "unknown strategy",
			mutate:   func(c *Config) { c.Strategy = "quantum" },
			sentinel: errors.ErrUnknownStrategy,
		},
		{
			name:     "min greater than max",
			mutate:   func(c *Config) { c.MinTokens = 100000; c.MaxTokens = 1000 },
			sentinel: errors.ErrInvalidRange,
		},
		{
			name:   "negative min",
			mutate: func(c *Config) { c.MinTokens = -1 },
		},
		{
			name:     "zero precision",
			mutate:   func(c *Config) { c.Precision = 0 },
			sentinel: errors.ErrInvalidPrecision,
		},
		{
			name:     "zero attempts",
			mutate:   func(c *Config) { c.MaxAttempts = 0 },
			sentinel: errors.ErrInvalidAttempts,
		},
		{
			name:   "linear without step size",
			mutate: func(c *Config) { c.Strategy = StrategyLinear; c.StepSize = 0 },
		},
		{
			name:   "negative retries",
			mutate: func(c *Config) { c.RetryCount = -1 },
		},
		{
			name:   "zero timeout",
			mutate: func(c *Config) { c.RequestTimeout = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}

			var probeErr *errors.ProbeError
			if !errors.As(err, &probeErr) {
				t.Fatalf("expected *ProbeError, got %T", err)
			}
			if probeErr.Code != errors.CodeConfiguration {
				t.Errorf("Code = %s, want %s", probeErr.Code, errors.CodeConfiguration)
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("expected error chain to include %v", tt.sentinel)
			}
		})
	}
}

func TestStrategy_IsValid(t *testing.T) {
	for _, s := range ValidStrategies {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Strategy("random").IsValid() {
		t.Error("unknown strategy should be invalid")
	}
}

func TestConfig_EffectiveTarget(t *testing.T) {
	cfg := validConfig()
	cfg.OutputBudget = 500

	if got := cfg.EffectiveTarget(10000); got != 10000 {
		t.Errorf("EffectiveTarget without output budget = %d, want 10000", got)
	}

	cfg.IncludeOutputBudget = true
	if got := cfg.EffectiveTarget(10000); got != 9500 {
		t.Errorf("EffectiveTarget with output budget = %d, want 9500", got)
	}
	if got := cfg.EffectiveTarget(100); got != 0 {
		t.Errorf("EffectiveTarget clamps at zero, got %d", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("gpt-4o")
	if cfg.ModelID != "gpt-4o" {
		t.Errorf("ModelID = %s, want gpt-4o", cfg.ModelID)
	}
	if cfg.Strategy != StrategyBinary {
		t.Errorf("default strategy = %s, want binary", cfg.Strategy)
	}
	if cfg.RequestTimeout != 2*time.Minute {
		t.Errorf("default timeout = %s, want 2m", cfg.RequestTimeout)
	}
}
