// Package probe contains domain types for context-limit probe runs:
// run configuration, executed step records, final results, and the
// statistics computed over a completed step log.
package probe

import (
	"fmt"
	"time"

	"github.com/jbctechsolutions/ctxprobe/internal/domain/errors"
)

// Strategy identifies the search algorithm used to converge on the
// largest token count that still succeeds.
type Strategy string

const (
	// StrategyLinear scans upward from the minimum in fixed steps.
	StrategyLinear Strategy = "linear"
	// StrategyBinary bisects the candidate range until the uncertainty
	// window is below the configured precision.
	StrategyBinary Strategy = "binary"
	// StrategyAdaptive runs a relaxed-precision binary search to localize
	// the boundary region, then a fine linear scan to refine it.
	StrategyAdaptive Strategy = "adaptive"
)

// ValidStrategies lists the supported search strategies.
var ValidStrategies = []Strategy{StrategyLinear, StrategyBinary, StrategyAdaptive}

// IsValid returns true if the strategy is one of the supported algorithms.
func (s Strategy) IsValid() bool {
	for _, v := range ValidStrategies {
		if s == v {
			return true
		}
	}
	return false
}

// Config holds the parameters for a single probe run. A Config is
// supplied by the caller and validated once at run start; the engine
// never mutates it afterwards.
type Config struct {
	ModelID             string        `yaml:"model"`                 // target model identifier
	Strategy            Strategy      `yaml:"strategy"`              // linear, binary, adaptive
	MinTokens           int           `yaml:"min_tokens"`            // smallest candidate token count
	MaxTokens           int           `yaml:"max_tokens"`            // largest candidate token count
	StepSize            int           `yaml:"step_size"`             // linear scan increment
	Precision           int           `yaml:"precision"`             // acceptable uncertainty width (binary/adaptive)
	MaxAttempts         int           `yaml:"max_attempts"`          // attempt budget across the whole run
	RequestTimeout      time.Duration `yaml:"request_timeout"`       // per-request wall-clock ceiling
	IncludeOutputBudget bool          `yaml:"include_output_budget"` // count the output budget against the target
	OutputBudget        int           `yaml:"output_budget"`         // max output tokens requested per probe
	RetryCount          int           `yaml:"retry_count"`           // transient-failure retries per step
}

// DefaultConfig returns a probe configuration with sensible defaults
// for the given model. Callers typically adjust MaxTokens to the
// model's advertised context window before running.
func DefaultConfig(modelID string) Config {
	return Config{
		ModelID:        modelID,
		Strategy:       StrategyBinary,
		MinTokens:      1000,
		MaxTokens:      200000,
		StepSize:       10000,
		Precision:      500,
		MaxAttempts:    25,
		RequestTimeout: 2 * time.Minute,
		OutputBudget:   256,
		RetryCount:     2,
	}
}

// Validate checks the configuration invariants. It returns a
// configuration error describing the first violation found; the run
// controller surfaces this synchronously before any network call.
func (c Config) Validate() error {
	if c.ModelID == "" {
		return errors.NewError(errors.CodeConfiguration, "model ID is required", nil)
	}
	if !c.Strategy.IsValid() {
		return errors.NewError(errors.CodeConfiguration,
			fmt.Sprintf("strategy %q is not supported", c.Strategy), errors.ErrUnknownStrategy)
	}
	if c.MinTokens < 0 {
		return errors.NewError(errors.CodeConfiguration, "min tokens must not be negative", nil)
	}
	if c.MinTokens > c.MaxTokens {
		return errors.NewError(errors.CodeConfiguration,
			fmt.Sprintf("min tokens %d exceeds max tokens %d", c.MinTokens, c.MaxTokens),
			errors.ErrInvalidRange)
	}
	if c.Precision <= 0 {
		return errors.NewError(errors.CodeConfiguration, "precision must be positive", errors.ErrInvalidPrecision)
	}
	if c.MaxAttempts <= 0 {
		return errors.NewError(errors.CodeConfiguration, "max attempts must be positive", errors.ErrInvalidAttempts)
	}
	if c.Strategy == StrategyLinear && c.StepSize <= 0 {
		return errors.NewError(errors.CodeConfiguration, "step size must be positive for linear strategy", nil)
	}
	if c.RetryCount < 0 {
		return errors.NewError(errors.CodeConfiguration, "retry count must not be negative", nil)
	}
	if c.RequestTimeout <= 0 {
		return errors.NewError(errors.CodeConfiguration, "request timeout must be positive", nil)
	}
	return nil
}

// EffectiveTarget returns the input-token target for a candidate size,
// subtracting the output budget when the configuration counts output
// tokens against the candidate.
func (c Config) EffectiveTarget(candidate int) int {
	if !c.IncludeOutputBudget {
		return candidate
	}
	target := candidate - c.OutputBudget
	if target < 0 {
		return 0
	}
	return target
}
