package probe

import (
	"context"
	"time"

	"github.com/jbctechsolutions/ctxprobe/internal/application/ports"
	"github.com/jbctechsolutions/ctxprobe/internal/application/synth"
	"github.com/jbctechsolutions/ctxprobe/internal/domain/model"
	"github.com/jbctechsolutions/ctxprobe/internal/domain/probe"
	"github.com/jbctechsolutions/ctxprobe/internal/infrastructure/logging"
)

// defaultBaseRetryDelay is the initial backoff delay for transient
// failures; it doubles per attempt (500ms, 1s, 2s, 4s...).
const defaultBaseRetryDelay = 500 * time.Millisecond

// Executor runs a single probe trial: it synthesizes a payload for the
// candidate size, sends it through the transport, measures latency, and
// classifies the outcome. Boundary rejections are never retried;
// transient failures are retried with exponential backoff up to the
// configured ceiling.
type Executor struct {
	transport   ports.ChatTransport
	synthesizer *synth.Synthesizer
	counter     ports.TokenCounter
	descriptor  *model.Descriptor
	classifier  Classifier
	logger      *logging.Logger
	baseDelay   time.Duration
}

// ExecutorOption is a functional option for configuring an Executor.
type ExecutorOption func(*Executor)

// WithExecutorLogger sets the logger used for step-level diagnostics.
func WithExecutorLogger(logger *logging.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithBaseRetryDelay overrides the initial backoff delay. Tests use
// this to avoid waiting on real backoff intervals.
func WithBaseRetryDelay(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.baseDelay = d
		}
	}
}

// NewExecutor creates an Executor for one probe run.
func NewExecutor(
	transport ports.ChatTransport,
	synthesizer *synth.Synthesizer,
	counter ports.TokenCounter,
	descriptor *model.Descriptor,
	classifier Classifier,
	opts ...ExecutorOption,
) *Executor {
	e := &Executor{
		transport:   transport,
		synthesizer: synthesizer,
		counter:     counter,
		descriptor:  descriptor,
		classifier:  classifier,
		logger:      logging.Discard(),
		baseDelay:   defaultBaseRetryDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute performs one probe trial at the candidate token count and
// returns the recorded step. The returned error is non-nil only when
// the parent context is done or payload synthesis fails; every
// transport outcome, including exhausted retries, is expressed as a
// step outcome instead.
func (e *Executor) Execute(ctx context.Context, targetTokens int, cfg probe.Config) (probe.Step, error) {
	text, err := e.synthesizer.Synthesize(cfg.EffectiveTarget(targetTokens))
	if err != nil {
		return probe.Step{}, err
	}
	inputTokens := e.counter.CountTokens(text)

	req := ports.SendRequest{
		ModelID: cfg.ModelID,
		Messages: []ports.Message{
			{Role: ports.RoleUser, Content: text},
		},
		MaxOutputTokens: cfg.OutputBudget,
	}

	step := probe.Step{
		TargetTokens: targetTokens,
		InputTokens:  inputTokens,
		OutputBudget: cfg.OutputBudget,
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.RetryCount; attempt++ {
		if attempt > 0 {
			delay := e.baseDelay * time.Duration(1<<(attempt-1))
			logging.LogStepRetry(ctx, e.logger, attempt, delay, lastErr)
			select {
			case <-ctx.Done():
				return probe.Step{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
		start := time.Now()
		res, sendErr := e.transport.Send(reqCtx, req)
		latency := time.Since(start)
		cancel()

		if sendErr == nil {
			step.Outcome = probe.OutcomeSuccess
			step.Latency = latency
			step.OutputTokens = res.OutputTokens
			if res.InputTokens > 0 {
				// Prefer the provider's own accounting when reported.
				step.InputTokens = res.InputTokens
			}
			step.Cost = e.descriptor.EstimateCost(step.InputTokens, step.OutputTokens)
			step.Timestamp = time.Now()
			return step, nil
		}

		// A done parent context means the run was cancelled, not that the
		// endpoint failed; surface it so the controller returns a partial
		// result.
		if ctx.Err() != nil {
			return probe.Step{}, ctx.Err()
		}

		if e.classifier.IsBoundaryError(sendErr) {
			// Rejected requests are not billed; no cost is recorded.
			step.Outcome = probe.OutcomeBoundaryExceeded
			step.Latency = latency
			step.ErrorDetail = sendErr.Error()
			step.Timestamp = time.Now()
			return step, nil
		}

		// Transient: timeout, rate limit, network fault. Retry.
		step.Latency = latency
		lastErr = sendErr
	}

	step.Outcome = probe.OutcomeTransientError
	step.ErrorDetail = lastErr.Error()
	step.Timestamp = time.Now()
	return step, nil
}
