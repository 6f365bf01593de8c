package probe

import (
	"context"
	"errors"

	"github.com/jbctechsolutions/ctxprobe/internal/domain/probe"
)

// maxConsecutiveTransient is the number of consecutive inconclusive
// steps after which a search aborts rather than burn the attempt
// budget against a failing transport.
const maxConsecutiveTransient = 3

// ErrInconclusive is returned by a search that aborted after repeated
// transient failures. The boundary reported alongside it reflects only
// confirmed successes up to that point.
var ErrInconclusive = errors.New("search aborted: repeated transient failures")

// errBudgetExhausted stops a search when the run's attempt budget is
// spent. The run controller treats this as normal termination.
var errBudgetExhausted = errors.New("attempt budget exhausted")

// StepExecutor executes one probe at a candidate token count and
// records the step in the run's log. The run controller provides the
// implementation; strategies only consume it.
type StepExecutor interface {
	ExecuteStep(ctx context.Context, targetTokens int) (probe.Step, error)
}

// SearchStrategy converges on the largest token count that still
// succeeds against the endpoint. Search returns the boundary confirmed
// so far; a non-nil error explains early termination (cancellation,
// exhausted budget, repeated transient failures).
//
// All strategies assume monotonicity: a boundary rejection at size X
// implies rejection at every size above X. This is a documented
// precondition inherited from the domain, not verified at runtime; a
// provider with load-dependent limits can produce a misplaced boundary.
type SearchStrategy interface {
	Name() probe.Strategy
	Search(ctx context.Context, exec StepExecutor, cfg probe.Config) (int, error)
}

// ForConfig returns the strategy implementation selected by the
// configuration. The configuration must already be validated.
func ForConfig(cfg probe.Config) (SearchStrategy, error) {
	switch cfg.Strategy {
	case probe.StrategyLinear:
		return &LinearStrategy{}, nil
	case probe.StrategyBinary:
		return &BinaryStrategy{}, nil
	case probe.StrategyAdaptive:
		return &AdaptiveStrategy{}, nil
	default:
		return nil, errors.New("unknown strategy: " + string(cfg.Strategy))
	}
}

// transientTracker counts consecutive inconclusive steps. Any
// conclusive step resets the count.
type transientTracker struct {
	consecutive int
}

// observe records a step outcome and reports whether the consecutive
// transient limit has been reached.
func (t *transientTracker) observe(step probe.Step) bool {
	if step.IsConclusive() {
		t.consecutive = 0
		return false
	}
	t.consecutive++
	return t.consecutive >= maxConsecutiveTransient
}
