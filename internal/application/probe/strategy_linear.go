package probe

import (
	"context"

	"github.com/jbctechsolutions/ctxprobe/internal/domain/probe"
)

// LinearStrategy scans upward from the configured minimum in fixed
// steps. Each success raises the confirmed boundary; the first boundary
// rejection ends the scan under the monotonicity precondition. If the
// very first probe at the minimum is rejected, the boundary is 0 and
// the search concludes immediately rather than probing below the
// minimum.
type LinearStrategy struct{}

// Name returns the strategy identifier.
func (s *LinearStrategy) Name() probe.Strategy {
	return probe.StrategyLinear
}

// Search scans candidates min, min+step, ... up to max.
func (s *LinearStrategy) Search(ctx context.Context, exec StepExecutor, cfg probe.Config) (int, error) {
	boundary := 0
	candidate := cfg.MinTokens
	tracker := &transientTracker{}

	for {
		step, err := exec.ExecuteStep(ctx, candidate)
		if err != nil {
			return boundary, err
		}

		switch step.Outcome {
		case probe.OutcomeSuccess:
			tracker.observe(step)
			boundary = candidate
			if candidate >= cfg.MaxTokens {
				return boundary, nil
			}
			candidate += cfg.StepSize
			if candidate > cfg.MaxTokens {
				candidate = cfg.MaxTokens
			}

		case probe.OutcomeBoundaryExceeded:
			// Monotonicity: rejection here implies rejection everywhere above.
			return boundary, nil

		case probe.OutcomeTransientError:
			// Inconclusive: retry the same candidate unless the transport
			// keeps failing.
			if tracker.observe(step) {
				return boundary, ErrInconclusive
			}
		}
	}
}
