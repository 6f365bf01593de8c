package probe

import (
	"context"

	"github.com/jbctechsolutions/ctxprobe/internal/domain/probe"
)

// coarseFactor widens the binary phase's precision relative to the
// configured one, trading localization accuracy for fewer probes.
const coarseFactor = 8

// coarseRangeDivisor caps how fine the coarse precision can be relative
// to the candidate range.
const coarseRangeDivisor = 16

// AdaptiveStrategy localizes the boundary region with a relaxed-precision
// binary search, then refines it with a fine-grained linear scan confined
// to a window around the coarse result. Total probes stay within
// O(log(range/coarsePrecision) + window/precision). Binary search alone
// can bisect onto a flaky failure point; the linear refinement confirms
// the best success near it.
type AdaptiveStrategy struct{}

// Name returns the strategy identifier.
func (s *AdaptiveStrategy) Name() probe.Strategy {
	return probe.StrategyAdaptive
}

// Search runs the coarse then fine phase.
func (s *AdaptiveStrategy) Search(ctx context.Context, exec StepExecutor, cfg probe.Config) (int, error) {
	coarse := coarsePrecision(cfg)
	tracker := &transientTracker{}

	boundary, err := binarySearch(ctx, exec, cfg, cfg.MinTokens, cfg.MaxTokens, coarse, tracker)
	if err != nil {
		return boundary, err
	}

	if boundary == 0 {
		// Nothing succeeded in the coarse phase; confirm the floor itself
		// before concluding a zero boundary.
		step, err := exec.ExecuteStep(ctx, cfg.MinTokens)
		if err != nil {
			return 0, err
		}
		if step.Outcome != probe.OutcomeSuccess {
			return 0, nil
		}
		boundary = cfg.MinTokens
	}

	// Fine phase: scan the unexplored window above the coarse boundary.
	windowEnd := boundary + coarse
	if windowEnd > cfg.MaxTokens {
		windowEnd = cfg.MaxTokens
	}

	for candidate := boundary + cfg.Precision; candidate <= windowEnd; candidate += cfg.Precision {
		step, err := exec.ExecuteStep(ctx, candidate)
		if err != nil {
			return boundary, err
		}

		switch step.Outcome {
		case probe.OutcomeSuccess:
			tracker.observe(step)
			boundary = candidate

		case probe.OutcomeBoundaryExceeded:
			return boundary, nil

		case probe.OutcomeTransientError:
			if tracker.observe(step) {
				return boundary, ErrInconclusive
			}
			// Retry the same candidate.
			candidate -= cfg.Precision
		}
	}

	return boundary, nil
}

// coarsePrecision derives the relaxed precision for the binary phase.
func coarsePrecision(cfg probe.Config) int {
	coarse := cfg.Precision * coarseFactor
	if byRange := (cfg.MaxTokens - cfg.MinTokens) / coarseRangeDivisor; coarse < byRange {
		coarse = byRange
	}
	if coarse < cfg.Precision {
		coarse = cfg.Precision
	}
	return coarse
}
