package probe

import (
	"sync"

	"github.com/jbctechsolutions/ctxprobe/internal/domain/probe"
)

// DefaultHistoryCapacity is the number of completed runs retained in
// memory for cross-run comparison.
const DefaultHistoryCapacity = 50

// History retains the latest completed probe results in memory. It is
// owned by a single Runner instance and injected where needed, never a
// process-wide singleton, so concurrent runs in tests do not interfere.
// Appends are serialized; everything else about a run is single-owner.
type History struct {
	mu       sync.Mutex
	capacity int
	runs     []*probe.Result
}

// NewHistory creates a history log retaining up to capacity runs.
// A non-positive capacity falls back to the default.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{
		capacity: capacity,
		runs:     make([]*probe.Result, 0, capacity),
	}
}

// Add appends a completed result, evicting the oldest entry when the
// capacity is exceeded.
func (h *History) Add(result *probe.Result) {
	if result == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.runs = append(h.runs, result.Clone())
	if len(h.runs) > h.capacity {
		h.runs = h.runs[len(h.runs)-h.capacity:]
	}
}

// List returns the retained results, newest first.
func (h *History) List() []*probe.Result {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*probe.Result, 0, len(h.runs))
	for i := len(h.runs) - 1; i >= 0; i-- {
		out = append(out, h.runs[i].Clone())
	}
	return out
}

// LatestForModel returns the most recent result for a model, or nil if
// none is retained.
func (h *History) LatestForModel(modelID string) *probe.Result {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := len(h.runs) - 1; i >= 0; i-- {
		if h.runs[i].ModelID == modelID {
			return h.runs[i].Clone()
		}
	}
	return nil
}

// Len returns the number of retained results.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.runs)
}
