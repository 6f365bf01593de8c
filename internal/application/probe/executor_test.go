package probe

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jbctechsolutions/ctxprobe/internal/application/ports"
	"github.com/jbctechsolutions/ctxprobe/internal/application/synth"
	domainerrors "github.com/jbctechsolutions/ctxprobe/internal/domain/errors"
	"github.com/jbctechsolutions/ctxprobe/internal/domain/probe"
	"github.com/jbctechsolutions/ctxprobe/internal/infrastructure/testutil"
)

// charCounter approximates tokens at four characters each, matching the
// block-sizing estimate so synthesis converges in one pass.
type charCounter struct{}

func (charCounter) CountTokens(text string) int {
	return (len(text) + 3) / 4
}

type charCounterProvider struct{}

func (charCounterProvider) ForEncoding(string) (ports.TokenCounter, error) {
	return charCounter{}, nil
}

// thresholdTransport accepts requests whose counted input tokens stay at
// or below the limit and rejects larger ones with a context-limit error.
// Scripted errors, when present, are returned first regardless of size.
type thresholdTransport struct {
	mu       sync.Mutex
	limit    int
	scripted []error
	calls    int
}

func (tr *thresholdTransport) Send(_ context.Context, req ports.SendRequest) (*ports.SendResult, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	tr.calls++
	if len(tr.scripted) > 0 {
		err := tr.scripted[0]
		tr.scripted = tr.scripted[1:]
		if err != nil {
			return nil, err
		}
	}

	tokens := charCounter{}.CountTokens(req.Messages[0].Content)
	if tokens > tr.limit {
		return nil, testutil.NewBoundaryError()
	}
	return &ports.SendResult{
		Content:      "The document contains many sections.",
		InputTokens:  tokens,
		OutputTokens: 9,
	}, nil
}

func (tr *thresholdTransport) callCount() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.calls
}

func newTestExecutor(transport ports.ChatTransport) *Executor {
	return NewExecutor(
		transport,
		synth.New(charCounter{}),
		charCounter{},
		testutil.NewTestDescriptor("test-model"),
		NewMarkerClassifier(),
		WithBaseRetryDelay(time.Microsecond),
	)
}

func executorConfig() probe.Config {
	cfg := probe.DefaultConfig("test-model")
	cfg.RetryCount = 2
	cfg.RequestTimeout = 5 * time.Second
	return cfg
}

func TestExecuteSuccess(t *testing.T) {
	transport := &thresholdTransport{limit: 100000}
	exec := newTestExecutor(transport)

	step, err := exec.Execute(context.Background(), 5000, executorConfig())

	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, step.Outcome, probe.OutcomeSuccess)
	testutil.AssertEqual(t, step.TargetTokens, 5000)
	testutil.AssertInRange(t, step.InputTokens, 5000-synth.DefaultTolerance, 5000+synth.DefaultTolerance)
	testutil.AssertEqual(t, step.OutputTokens, 9)
	if step.Cost <= 0 {
		t.Fatalf("cost = %f, want positive", step.Cost)
	}
	if step.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}
	testutil.AssertEqual(t, transport.callCount(), 1)
}

func TestExecuteBoundaryNotRetried(t *testing.T) {
	transport := &thresholdTransport{limit: 1000}
	exec := newTestExecutor(transport)

	step, err := exec.Execute(context.Background(), 5000, executorConfig())

	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, step.Outcome, probe.OutcomeBoundaryExceeded)
	if step.ErrorDetail == "" {
		t.Fatal("error detail not recorded")
	}
	if !strings.Contains(step.ErrorDetail, "context") {
		t.Fatalf("error detail %q lost the provider message", step.ErrorDetail)
	}
	// Rejected requests carry no cost and are never retried.
	testutil.AssertEqual(t, step.Cost, 0.0)
	testutil.AssertEqual(t, transport.callCount(), 1)
}

func TestExecuteTransientThenSuccess(t *testing.T) {
	transport := &thresholdTransport{
		limit:    100000,
		scripted: []error{testutil.NewRateLimitError()},
	}
	exec := newTestExecutor(transport)

	step, err := exec.Execute(context.Background(), 5000, executorConfig())

	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, step.Outcome, probe.OutcomeSuccess)
	testutil.AssertEqual(t, transport.callCount(), 2)
}

func TestExecuteRetriesExhausted(t *testing.T) {
	transport := &thresholdTransport{
		limit: 100000,
		scripted: []error{
			testutil.NewRateLimitError(),
			testutil.NewRateLimitError(),
			testutil.NewRateLimitError(),
		},
	}
	exec := newTestExecutor(transport)

	cfg := executorConfig()
	step, err := exec.Execute(context.Background(), 5000, cfg)

	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, step.Outcome, probe.OutcomeTransientError)
	if step.ErrorDetail == "" {
		t.Fatal("error detail not recorded")
	}
	// Initial attempt plus RetryCount retries.
	testutil.AssertEqual(t, transport.callCount(), cfg.RetryCount+1)
}

func TestExecuteCancelledContext(t *testing.T) {
	transport := &thresholdTransport{
		limit:    100000,
		scripted: []error{testutil.NewRateLimitError()},
	}
	exec := newTestExecutor(transport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Execute(ctx, 5000, executorConfig())

	testutil.AssertErrorIs(t, err, context.Canceled)
}

func TestExecuteTargetBelowPreamble(t *testing.T) {
	transport := &thresholdTransport{limit: 100000}
	exec := newTestExecutor(transport)

	_, err := exec.Execute(context.Background(), 5, executorConfig())

	testutil.AssertErrorIs(t, err, domainerrors.ErrTargetBelowPreamble)
	testutil.AssertEqual(t, transport.callCount(), 0)
}
