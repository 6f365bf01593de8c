package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jbctechsolutions/ctxprobe/internal/application/ports"
	domainErrors "github.com/jbctechsolutions/ctxprobe/internal/domain/errors"
	"github.com/jbctechsolutions/ctxprobe/internal/domain/probe"
	"github.com/jbctechsolutions/ctxprobe/internal/infrastructure/testutil"
)

func setupHistoryRepo(t *testing.T) *HistoryRepository {
	t.Helper()

	path := filepath.Join(testutil.TempDir(t), "history.db")
	repo, err := OpenHistory(path)
	if err != nil {
		t.Fatalf("failed to open history database: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return repo
}

func newStoredResult(t *testing.T, runID, modelID string, startedAt time.Time) *probe.Result {
	t.Helper()

	cfg := testutil.NewTestConfig(modelID, probe.StrategyBinary)
	result := probe.NewResult(runID, cfg, 200000)
	result.StartedAt = startedAt

	result.AppendStep(probe.Step{
		TargetTokens: 100000,
		InputTokens:  99980,
		OutputBudget: 256,
		Outcome:      probe.OutcomeSuccess,
		Latency:      1200 * time.Millisecond,
		OutputTokens: 42,
		Cost:         0.31,
		Timestamp:    startedAt.Add(2 * time.Second),
	})
	result.AppendStep(probe.Step{
		TargetTokens: 150000,
		InputTokens:  150012,
		OutputBudget: 256,
		Outcome:      probe.OutcomeBoundaryExceeded,
		Latency:      300 * time.Millisecond,
		ErrorDetail:  "context_length_exceeded: prompt is too long",
		Timestamp:    startedAt.Add(4 * time.Second),
	})

	result.Boundary = 100000
	result.Finalize(probe.StatusCompleted, cfg.Precision)
	return result
}

func TestSaveAndGetRun(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	saved := newStoredResult(t, "run-1", "claude-sonnet-4", time.Now().Add(-time.Minute))
	testutil.AssertNoError(t, repo.SaveRun(ctx, saved))

	got, err := repo.GetRun(ctx, "run-1")
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, got.RunID, saved.RunID)
	testutil.AssertEqual(t, got.ModelID, saved.ModelID)
	testutil.AssertEqual(t, got.Strategy, saved.Strategy)
	testutil.AssertEqual(t, got.ConfiguredMax, saved.ConfiguredMax)
	testutil.AssertEqual(t, got.TheoreticalMax, saved.TheoreticalMax)
	testutil.AssertEqual(t, got.Boundary, saved.Boundary)
	testutil.AssertEqual(t, got.Status, probe.StatusCompleted)
	testutil.AssertEqual(t, got.StepCount(), 2)

	step := got.Steps[1]
	testutil.AssertEqual(t, step.Number, 2)
	testutil.AssertEqual(t, step.Outcome, probe.OutcomeBoundaryExceeded)
	testutil.AssertEqual(t, step.TargetTokens, 150000)
	testutil.AssertEqual(t, step.Latency, 300*time.Millisecond)
	testutil.AssertEqual(t, step.ErrorDetail, "context_length_exceeded: prompt is too long")

	testutil.AssertEqual(t, got.Stats.TotalSteps, saved.Stats.TotalSteps)
	testutil.AssertEqual(t, got.Stats.SuccessfulSteps, saved.Stats.SuccessfulSteps)
	testutil.AssertEqual(t, got.Stats.TotalCost, saved.Stats.TotalCost)
}

func TestGetRunNotFound(t *testing.T) {
	repo := setupHistoryRepo(t)

	_, err := repo.GetRun(context.Background(), "missing")
	testutil.AssertError(t, err)

	var probeErr *domainErrors.ProbeError
	if !errors.As(err, &probeErr) {
		t.Fatalf("expected ProbeError, got %T", err)
	}
	testutil.AssertEqual(t, probeErr.Code, domainErrors.CodeNotFound)
}

func TestSaveRunDuplicate(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	result := newStoredResult(t, "run-dup", "gpt-4o", time.Now())
	testutil.AssertNoError(t, repo.SaveRun(ctx, result))
	testutil.AssertError(t, repo.SaveRun(ctx, result))
}

func TestListRunsNewestFirst(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		result := newStoredResult(t, id, "claude-sonnet-4", base.Add(time.Duration(i)*time.Minute))
		testutil.AssertNoError(t, repo.SaveRun(ctx, result))
	}

	runs, err := repo.ListRuns(ctx, ports.HistoryFilter{})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(runs), 3)
	testutil.AssertEqual(t, runs[0].RunID, "run-c")
	testutil.AssertEqual(t, runs[2].RunID, "run-a")

	// Listing omits step logs.
	testutil.AssertEqual(t, runs[0].StepCount(), 0)
}

func TestListRunsFilters(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	testutil.AssertNoError(t, repo.SaveRun(ctx, newStoredResult(t, "run-old", "gpt-4o", base)))
	testutil.AssertNoError(t, repo.SaveRun(ctx, newStoredResult(t, "run-mid", "claude-sonnet-4", base.Add(10*time.Minute))))
	testutil.AssertNoError(t, repo.SaveRun(ctx, newStoredResult(t, "run-new", "claude-sonnet-4", base.Add(20*time.Minute))))

	byModel, err := repo.ListRuns(ctx, ports.HistoryFilter{ModelID: "gpt-4o"})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(byModel), 1)
	testutil.AssertEqual(t, byModel[0].RunID, "run-old")

	since, err := repo.ListRuns(ctx, ports.HistoryFilter{Since: base.Add(5 * time.Minute)})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(since), 2)

	limited, err := repo.ListRuns(ctx, ports.HistoryFilter{Limit: 1})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(limited), 1)
	testutil.AssertEqual(t, limited[0].RunID, "run-new")
}

func TestLatestForModel(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	testutil.AssertNoError(t, repo.SaveRun(ctx, newStoredResult(t, "run-1", "claude-sonnet-4", base)))
	testutil.AssertNoError(t, repo.SaveRun(ctx, newStoredResult(t, "run-2", "claude-sonnet-4", base.Add(time.Minute))))

	// Partial runs do not count as the latest completed run.
	partial := newStoredResult(t, "run-3", "claude-sonnet-4", base.Add(2*time.Minute))
	partial.Status = probe.StatusPartial
	testutil.AssertNoError(t, repo.SaveRun(ctx, partial))

	latest, err := repo.LatestForModel(ctx, "claude-sonnet-4")
	testutil.AssertNoError(t, err)
	if latest == nil {
		t.Fatal("expected a latest run")
	}
	testutil.AssertEqual(t, latest.RunID, "run-2")
	testutil.AssertEqual(t, latest.StepCount(), 2)
}

func TestLatestForModelNone(t *testing.T) {
	repo := setupHistoryRepo(t)

	latest, err := repo.LatestForModel(context.Background(), "unknown")
	testutil.AssertNoError(t, err)
	if latest != nil {
		t.Fatalf("expected nil, got run %s", latest.RunID)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(testutil.TempDir(t), "history.db")

	repo, err := OpenHistory(path)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, repo.SaveRun(context.Background(), newStoredResult(t, "run-1", "gpt-4o", time.Now())))
	testutil.AssertNoError(t, repo.Close())

	// Reopening the same file replays no migrations and keeps the data.
	reopened, err := OpenHistory(path)
	testutil.AssertNoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetRun(context.Background(), "run-1")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got.RunID, "run-1")
}

func TestConnectionCloseIdempotent(t *testing.T) {
	conn, err := NewConnection(filepath.Join(testutil.TempDir(t), "history.db"))
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, conn.Open())
	testutil.AssertNoError(t, conn.Close())
	testutil.AssertNoError(t, conn.Close())
}
