package probe

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jbctechsolutions/ctxprobe/internal/application/ports"
	"github.com/jbctechsolutions/ctxprobe/internal/application/synth"
	domainerrors "github.com/jbctechsolutions/ctxprobe/internal/domain/errors"
	"github.com/jbctechsolutions/ctxprobe/internal/domain/model"
	"github.com/jbctechsolutions/ctxprobe/internal/domain/probe"
	"github.com/jbctechsolutions/ctxprobe/internal/infrastructure/logging"
	"github.com/jbctechsolutions/ctxprobe/internal/infrastructure/tracing"
)

// ProgressFunc is invoked once per completed probe step, in step order.
// Hosts use it to render live progress; the engine makes no assumption
// about how or whether it is rendered.
type ProgressFunc func(step probe.Step)

// Runner is the top-level probe controller. It validates configuration,
// drives the selected search strategy, owns the run's append-only step
// log, and maintains the history of completed results. A single Runner
// may serve concurrent runs; runs share nothing but the history log.
type Runner struct {
	registry   *model.Registry
	transport  ports.ChatTransport
	counters   ports.TokenCounterProvider
	classifier Classifier
	logger     *logging.Logger
	tracer     *tracing.Tracer
	history    *History
	store      ports.HistoryStorage
	synthOpts  []synth.Option
	execOpts   []ExecutorOption
}

// RunnerOption is a functional option for configuring a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the structured logger for run and step events.
func WithLogger(logger *logging.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithTracer sets the tracer used for run and step spans.
func WithTracer(tracer *tracing.Tracer) RunnerOption {
	return func(r *Runner) {
		r.tracer = tracer
	}
}

// WithClassifier replaces the default boundary-error classifier,
// allowing new providers' error vocabularies to be plugged in.
func WithClassifier(c Classifier) RunnerOption {
	return func(r *Runner) {
		r.classifier = c
	}
}

// WithHistoryCapacity sets the in-memory history retention.
func WithHistoryCapacity(capacity int) RunnerOption {
	return func(r *Runner) {
		r.history = NewHistory(capacity)
	}
}

// WithHistoryStorage sets a persistent store that completed results are
// written to in addition to the in-memory history.
func WithHistoryStorage(store ports.HistoryStorage) RunnerOption {
	return func(r *Runner) {
		r.store = store
	}
}

// WithSynthOptions forwards options to the per-run payload synthesizer.
func WithSynthOptions(opts ...synth.Option) RunnerOption {
	return func(r *Runner) {
		r.synthOpts = opts
	}
}

// WithExecutorOptions forwards options to the per-run step executor.
func WithExecutorOptions(opts ...ExecutorOption) RunnerOption {
	return func(r *Runner) {
		r.execOpts = opts
	}
}

// NewRunner creates a probe run controller.
func NewRunner(registry *model.Registry, transport ports.ChatTransport, counters ports.TokenCounterProvider, opts ...RunnerOption) *Runner {
	r := &Runner{
		registry:   registry,
		transport:  transport,
		counters:   counters,
		classifier: NewMarkerClassifier(),
		logger:     logging.Discard(),
		tracer:     tracing.Noop(),
		history:    NewHistory(DefaultHistoryCapacity),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// History returns the runner's in-memory history log.
func (r *Runner) History() *History {
	return r.history
}

// Run executes a probe run to completion or cancellation and returns
// the result snapshot. The only synchronous error is an invalid
// configuration or unknown model; every other condition, including
// cancellation mid-run, is expressed in the returned result.
func (r *Runner) Run(ctx context.Context, cfg probe.Config, progress ProgressFunc) (*probe.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	descriptor, err := r.registry.Get(cfg.ModelID)
	if err != nil {
		return nil, domainerrors.NewError(domainerrors.CodeConfiguration,
			"unknown model "+cfg.ModelID, err)
	}

	counter, err := r.counters.ForEncoding(descriptor.Encoding)
	if err != nil {
		return nil, domainerrors.NewError(domainerrors.CodeConfiguration,
			"no token counter for encoding "+descriptor.Encoding, err)
	}

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	ctx = logging.WithModel(ctx, cfg.ModelID)
	ctx = logging.WithStrategy(ctx, string(cfg.Strategy))

	ctx, runSpan := r.tracer.StartRunSpan(ctx, runID, cfg.ModelID, string(cfg.Strategy))
	logging.LogRunStart(ctx, r.logger, cfg.ModelID, string(cfg.Strategy), cfg.MinTokens, cfg.MaxTokens)

	synthesizer := synth.New(counter, r.synthOpts...)
	executor := NewExecutor(r.transport, synthesizer, counter, descriptor, r.classifier,
		append([]ExecutorOption{WithExecutorLogger(r.logger)}, r.execOpts...)...)

	result := probe.NewResult(runID, cfg, descriptor.ContextWindow)
	recorder := &stepRecorder{
		runner:   r,
		executor: executor,
		cfg:      cfg,
		result:   result,
		progress: progress,
	}

	strategy, err := ForConfig(cfg)
	if err != nil {
		runSpan.EndWithError(err)
		return nil, domainerrors.NewError(domainerrors.CodeConfiguration, "strategy selection failed", err)
	}

	boundary, searchErr := strategy.Search(ctx, recorder, cfg)
	result.Boundary = boundary
	result.Finalize(r.statusFor(result, searchErr), cfg.Precision)

	runSpan.SetBoundary(result.Boundary)
	runSpan.SetStepCount(result.StepCount())
	runSpan.SetCost(result.Stats.TotalCost)
	if searchErr != nil && !errors.Is(searchErr, errBudgetExhausted) {
		runSpan.EndWithError(searchErr)
	} else {
		runSpan.End()
	}
	logging.LogRunComplete(ctx, r.logger, result.Boundary, result.StepCount(),
		string(result.Status), result.Stats.TotalCost, result.Duration())

	r.history.Add(result)
	r.persist(ctx, result)

	return result.Clone(), nil
}

// statusFor maps a search termination to the run status. Budget
// exhaustion is a normal strategy terminal state; cancellation and
// transient aborts leave the result partial; a run with no conclusive
// evidence at all is failed.
func (r *Runner) statusFor(result *probe.Result, searchErr error) probe.RunStatus {
	switch {
	case searchErr == nil, errors.Is(searchErr, errBudgetExhausted):
		return probe.StatusCompleted
	case errors.Is(searchErr, context.Canceled), errors.Is(searchErr, context.DeadlineExceeded):
		return probe.StatusPartial
	case errors.Is(searchErr, ErrInconclusive):
		for _, step := range result.Steps {
			if step.IsConclusive() {
				return probe.StatusPartial
			}
		}
		return probe.StatusFailed
	default:
		return probe.StatusFailed
	}
}

// persist writes the finalized result to the optional persistent store.
// The write must survive run cancellation, so it detaches from the
// run's context.
func (r *Runner) persist(ctx context.Context, result *probe.Result) {
	if r.store == nil {
		return
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := r.store.SaveRun(saveCtx, result.Clone()); err != nil {
		r.logger.ErrorContext(ctx, "could not persist probe result", "error", err.Error())
	}
}

// stepRecorder adapts the executor into the StepExecutor consumed by
// strategies. It enforces cooperative cancellation and the attempt
// budget, appends each completed step to the result, and fans out
// progress callbacks.
type stepRecorder struct {
	runner   *Runner
	executor *Executor
	cfg      probe.Config
	result   *probe.Result
	progress ProgressFunc
}

// ExecuteStep runs one probe and records it.
func (sr *stepRecorder) ExecuteStep(ctx context.Context, targetTokens int) (probe.Step, error) {
	// The cancellation signal is checked before each new probe; the
	// executor propagates it into any in-flight wait.
	if err := ctx.Err(); err != nil {
		return probe.Step{}, err
	}

	if sr.result.StepCount() >= sr.cfg.MaxAttempts {
		return probe.Step{}, errBudgetExhausted
	}

	stepCtx, stepSpan := sr.runner.tracer.StartStepSpan(ctx, targetTokens)
	step, err := sr.executor.Execute(stepCtx, targetTokens, sr.cfg)
	if err != nil {
		stepSpan.EndWithError(err)
		return probe.Step{}, err
	}

	step = sr.result.AppendStep(step)
	stepSpan.SetOutcome(string(step.Outcome), step.InputTokens, step.OutputTokens, step.Latency)
	stepSpan.End()

	logging.LogStepComplete(ctx, sr.runner.logger, step.Number, step.TargetTokens,
		step.InputTokens, string(step.Outcome), step.Latency)

	if sr.progress != nil {
		sr.progress(step)
	}
	return step, nil
}
