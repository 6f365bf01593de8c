package ports

import (
	"context"
	"time"

	"github.com/jbctechsolutions/ctxprobe/internal/domain/probe"
)

// HistoryFilter defines criteria for querying persisted probe runs.
type HistoryFilter struct {
	ModelID string    // filter by model (empty for all)
	Since   time.Time // include runs started after this time (zero for no bound)
	Limit   int       // maximum number of runs (0 for no limit)
}

// HistoryStorage persists completed probe results for cross-run
// comparison. Implementations must be safe for concurrent use.
type HistoryStorage interface {
	// SaveRun persists a finalized probe result and its step log.
	SaveRun(ctx context.Context, result *probe.Result) error

	// GetRun retrieves a persisted run by its ID, including steps.
	GetRun(ctx context.Context, runID string) (*probe.Result, error)

	// ListRuns retrieves persisted runs matching the filter, newest
	// first, without step logs.
	ListRuns(ctx context.Context, filter HistoryFilter) ([]*probe.Result, error)

	// LatestForModel returns the most recent completed run for a model,
	// or nil if none exists.
	LatestForModel(ctx context.Context, modelID string) (*probe.Result, error)

	// Close releases the underlying storage handle.
	Close() error
}
