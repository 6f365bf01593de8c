package probe

import "time"

// RunStatus represents the terminal state of a probe run.
type RunStatus string

const (
	// StatusCompleted indicates the strategy terminated on its own terms.
	StatusCompleted RunStatus = "completed"
	// StatusPartial indicates the run was cancelled or aborted before the
	// strategy converged; the result covers only the steps that completed.
	StatusPartial RunStatus = "partial"
	// StatusFailed indicates the run could not determine anything useful,
	// for instance when repeated transient failures exhausted the search.
	StatusFailed RunStatus = "failed"
)

// Result is the final or partial outcome of a probe run. It is owned
// exclusively by the run controller while the run executes and handed
// to the caller as a snapshot on completion or cancellation.
type Result struct {
	RunID          string    // unique run identifier
	ModelID        string    // target model identifier
	Strategy       Strategy  // search strategy used
	ConfiguredMax  int       // MaxTokens from the configuration
	TheoreticalMax int       // advertised context window of the model
	Boundary       int       // largest confirmed-successful token count; 0 if none succeeded
	Steps          []Step    // ordered, append-only step log
	Stats          Stats     // statistics over the step log
	Status         RunStatus // completed, partial, failed
	StartedAt      time.Time // when the run began
	CompletedAt    time.Time // when the run finalized
}

// NewResult creates an empty result for a run about to start.
func NewResult(runID string, cfg Config, theoreticalMax int) *Result {
	return &Result{
		RunID:          runID,
		ModelID:        cfg.ModelID,
		Strategy:       cfg.Strategy,
		ConfiguredMax:  cfg.MaxTokens,
		TheoreticalMax: theoreticalMax,
		Steps:          make([]Step, 0),
		StartedAt:      time.Now(),
	}
}

// AppendStep adds a completed step to the log and assigns its number.
func (r *Result) AppendStep(step Step) Step {
	step.Number = len(r.Steps) + 1
	r.Steps = append(r.Steps, step)
	return step
}

// Finalize computes statistics over the step log and marks the run
// terminal with the given status.
func (r *Result) Finalize(status RunStatus, precision int) {
	r.Status = status
	r.CompletedAt = time.Now()
	r.Stats = ComputeStats(r.Steps, r.Boundary, r.TheoreticalMax, precision, r.CompletedAt.Sub(r.StartedAt))
}

// StepCount returns the number of executed steps.
func (r *Result) StepCount() int {
	return len(r.Steps)
}

// Duration returns the elapsed wall-clock time of the run.
func (r *Result) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Clone returns a deep copy of the result. The run controller hands
// clones to callers and the history store so the live result stays
// isolated.
func (r *Result) Clone() *Result {
	clone := *r
	clone.Steps = make([]Step, len(r.Steps))
	copy(clone.Steps, r.Steps)
	return &clone
}
