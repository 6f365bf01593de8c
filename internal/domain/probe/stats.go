package probe

import (
	"math"
	"sort"
	"time"
)

// Stats holds the statistics computed over a completed step log.
type Stats struct {
	TotalSteps      int           // executed steps
	SuccessfulSteps int           // steps with a success outcome
	SuccessRate     float64       // successful / total (0.0 to 1.0)
	MeanLatency     time.Duration // arithmetic mean over all steps
	P50Latency      time.Duration // median latency
	P90Latency      time.Duration
	P95Latency      time.Duration
	P99Latency      time.Duration
	TotalCost       float64       // summed step costs in USD
	Throughput      float64       // tokens per second over successful steps
	IsPrecise       bool          // boundary within precision of the theoretical max
	PrecisionPct    float64       // closeness of the boundary to the theoretical max
	ConfidenceLow   int           // lower bound of the boundary confidence interval
	ConfidenceHigh  int           // upper bound of the boundary confidence interval
}

// ComputeStats aggregates a step log into run statistics. The precision
// assessment compares the discovered boundary against the model's
// advertised context window: the confidence interval is the boundary
// plus/minus the configured precision threshold.
func ComputeStats(steps []Step, boundary, theoreticalMax, precision int, elapsed time.Duration) Stats {
	stats := Stats{
		TotalSteps:     len(steps),
		ConfidenceLow:  boundary - precision,
		ConfidenceHigh: boundary + precision,
	}
	if stats.ConfidenceLow < 0 {
		stats.ConfidenceLow = 0
	}

	if len(steps) == 0 {
		return stats
	}

	latencies := make([]time.Duration, 0, len(steps))
	var latencySum time.Duration
	var totalTokens int

	for _, step := range steps {
		latencies = append(latencies, step.Latency)
		latencySum += step.Latency
		stats.TotalCost += step.Cost
		if step.Outcome == OutcomeSuccess {
			stats.SuccessfulSteps++
			totalTokens += step.TotalTokens()
		}
	}

	stats.SuccessRate = float64(stats.SuccessfulSteps) / float64(stats.TotalSteps)
	stats.MeanLatency = latencySum / time.Duration(len(steps))

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	stats.P50Latency = percentile(latencies, 50)
	stats.P90Latency = percentile(latencies, 90)
	stats.P95Latency = percentile(latencies, 95)
	stats.P99Latency = percentile(latencies, 99)

	if seconds := elapsed.Seconds(); seconds > 0 {
		stats.Throughput = float64(totalTokens) / seconds
	}

	if theoreticalMax > 0 {
		difference := math.Abs(float64(boundary - theoreticalMax))
		stats.PrecisionPct = math.Max(0, 100-difference/float64(theoreticalMax)*100)
		stats.IsPrecise = difference <= float64(precision)
	}

	return stats
}

// percentile returns the value at the given percentile of a sorted
// latency slice, indexing at ceil(p/100 * n) - 1.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
