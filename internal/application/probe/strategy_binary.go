package probe

import (
	"context"

	"github.com/jbctechsolutions/ctxprobe/internal/domain/probe"
)

// BinaryStrategy bisects the candidate range until the remaining
// uncertainty window is narrower than the configured precision. A
// success at the midpoint moves the lower bound up and raises the
// confirmed boundary; a boundary rejection moves the upper bound down.
// At most ceil(log2((max-min)/precision)) conclusive probes are needed.
type BinaryStrategy struct{}

// Name returns the strategy identifier.
func (s *BinaryStrategy) Name() probe.Strategy {
	return probe.StrategyBinary
}

// Search bisects [min, max] down to the configured precision.
func (s *BinaryStrategy) Search(ctx context.Context, exec StepExecutor, cfg probe.Config) (int, error) {
	return binarySearch(ctx, exec, cfg, cfg.MinTokens, cfg.MaxTokens, cfg.Precision, &transientTracker{})
}

// binarySearch is shared between the binary and adaptive strategies.
// It returns the largest confirmed-successful candidate in [low, high].
func binarySearch(ctx context.Context, exec StepExecutor, cfg probe.Config, low, high, precision int, tracker *transientTracker) (int, error) {
	boundary := 0

	for low <= high && high-low >= precision {
		mid := (low + high) / 2

		step, err := exec.ExecuteStep(ctx, mid)
		if err != nil {
			return boundary, err
		}

		switch step.Outcome {
		case probe.OutcomeSuccess:
			tracker.observe(step)
			boundary = mid
			low = mid + 1

		case probe.OutcomeBoundaryExceeded:
			tracker.observe(step)
			// A rejection at the range minimum means no candidate can
			// succeed; conclude with whatever was confirmed instead of
			// searching below the configured floor.
			if mid <= cfg.MinTokens {
				return boundary, nil
			}
			high = mid - 1

		case probe.OutcomeTransientError:
			// Inconclusive: the midpoint is probed again next iteration
			// unless the transport keeps failing.
			if tracker.observe(step) {
				return boundary, ErrInconclusive
			}
		}
	}

	return boundary, nil
}
