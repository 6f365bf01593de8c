package probe

import "time"

// Outcome classifies the result of a single executed probe step.
type Outcome string

const (
	// OutcomeSuccess indicates the endpoint accepted the payload and
	// returned a reply.
	OutcomeSuccess Outcome = "success"
	// OutcomeBoundaryExceeded indicates the endpoint rejected the payload
	// because it exceeded the model's context limit. This is a meaningful
	// negative data point that drives the search direction.
	OutcomeBoundaryExceeded Outcome = "boundary_exceeded"
	// OutcomeTransientError indicates a failure unrelated to context size
	// (network, auth, rate limiting). Transient steps are inconclusive and
	// never move the search boundary.
	OutcomeTransientError Outcome = "transient_error"
)

// Step records one executed probe trial. Steps are created by the
// executor, appended to the run's ordered step log, and never mutated
// after creation.
type Step struct {
	Number       int           // 1-based, monotonic within a run
	TargetTokens int           // requested candidate token count
	InputTokens  int           // measured tokens of the synthesized payload
	OutputBudget int           // output-token budget sent with the request
	Outcome      Outcome       // success, boundary_exceeded, transient_error
	Latency      time.Duration // send to full response or error
	OutputTokens int           // tokens observed in the reply (success only)
	Cost         float64       // estimated cost of this step in USD
	ErrorDetail  string        // provider error detail (failure only)
	Timestamp    time.Time     // when the step completed
}

// IsConclusive returns true if the step outcome provides evidence about
// the boundary location. Transient errors are inconclusive.
func (s Step) IsConclusive() bool {
	return s.Outcome != OutcomeTransientError
}

// TotalTokens returns the input plus observed output tokens of the step.
func (s Step) TotalTokens() int {
	return s.InputTokens + s.OutputTokens
}
