package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	appprobe "github.com/jbctechsolutions/ctxprobe/internal/application/probe"
	"github.com/jbctechsolutions/ctxprobe/internal/domain/probe"
	"github.com/jbctechsolutions/ctxprobe/internal/presentation/cli/output"
)

// probeFlags holds the flags for the probe command.
type probeFlags struct {
	Model        string
	Strategy     string
	Preset       string
	MinTokens    int
	MaxTokens    int
	StepSize     int
	Precision    int
	MaxAttempts  int
	Timeout      time.Duration
	OutputBudget int
	Retries      int
	CountOutput  bool
	NoCompare    bool
}

var probeOpts probeFlags

// NewProbeCmd creates the probe command.
func NewProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Discover a model's real context-window boundary",
		Long: `Probe a model endpoint with synthesized payloads of exact token counts
to find the largest context it actually accepts.

The search strategy controls the probing pattern:
  linear    scan upward from the minimum in fixed steps
  binary    bisect the candidate range down to the configured precision
  adaptive  coarse binary search followed by a fine linear scan

Press Ctrl-C to stop early; a partial result covering the completed
steps is still reported.`,
		Example: `  ctxprobe probe --model claude-sonnet-4
  ctxprobe probe --model llama3.1:8b --strategy linear --step 8000
  ctxprobe probe --model gpt-4o --preset thorough`,
		RunE: runProbe,
	}

	cmd.Flags().StringVarP(&probeOpts.Model, "model", "m", "", "target model identifier (required)")
	cmd.Flags().StringVarP(&probeOpts.Strategy, "strategy", "s", "", "search strategy: linear, binary, adaptive")
	cmd.Flags().StringVarP(&probeOpts.Preset, "preset", "p", "", "named probe preset to start from")
	cmd.Flags().IntVar(&probeOpts.MinTokens, "min", 0, "smallest candidate token count")
	cmd.Flags().IntVar(&probeOpts.MaxTokens, "max", 0, "largest candidate token count (default: the model's advertised window)")
	cmd.Flags().IntVar(&probeOpts.StepSize, "step", 0, "linear scan increment in tokens")
	cmd.Flags().IntVar(&probeOpts.Precision, "precision", 0, "acceptable uncertainty in tokens (binary/adaptive)")
	cmd.Flags().IntVar(&probeOpts.MaxAttempts, "attempts", 0, "attempt budget for the whole run")
	cmd.Flags().DurationVar(&probeOpts.Timeout, "timeout", 0, "per-request timeout")
	cmd.Flags().IntVar(&probeOpts.OutputBudget, "output-budget", 0, "output tokens requested per probe")
	cmd.Flags().IntVar(&probeOpts.Retries, "retries", -1, "transient-failure retries per step")
	cmd.Flags().BoolVar(&probeOpts.CountOutput, "count-output", false, "count the output budget against the target")
	cmd.Flags().BoolVar(&probeOpts.NoCompare, "no-compare", false, "skip comparison against the previous run")

	cmd.MarkFlagRequired("model")

	return cmd
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := buildProbeConfig(cmd)
	if err != nil {
		return err
	}

	return executeProbe(cmd.Context(), cfg, !probeOpts.NoCompare)
}

// executeProbe wires a runner for the config's model and drives the
// run to completion, rendering progress and the final report.
func executeProbe(ctx context.Context, cfg probe.Config, compare bool) error {
	app := GetAppContext()
	f := app.Formatter

	descriptor, err := app.Models.Get(cfg.ModelID)
	if err != nil {
		return err
	}

	transport, err := app.Transports.GetRequired(descriptor.Provider)
	if err != nil {
		return fmt.Errorf("provider %s is not configured: %w", descriptor.Provider, err)
	}

	runnerOpts := []appprobe.RunnerOption{
		appprobe.WithLogger(app.Logger),
		appprobe.WithTracer(app.Tracer),
	}
	if app.History != nil {
		runnerOpts = append(runnerOpts, appprobe.WithHistoryStorage(app.History))
	}
	if app.Config.History.MemoryCapacity > 0 {
		runnerOpts = append(runnerOpts, appprobe.WithHistoryCapacity(app.Config.History.MemoryCapacity))
	}

	runner := appprobe.NewRunner(app.Models, transport, app.Counters, runnerOpts...)

	// Look up the previous boundary before the run records a new one.
	var previous *probe.Result
	if app.History != nil && compare {
		previous, _ = app.History.LatestForModel(ctx, cfg.ModelID)
	}

	var progress appprobe.ProgressFunc
	var spinner *output.Spinner
	if f.Format() != output.FormatJSON {
		f.Info("Probing %s (%s strategy, %s-%s tokens)",
			cfg.ModelID, cfg.Strategy,
			output.FormatTokens(cfg.MinTokens), output.FormatTokens(cfg.MaxTokens))
		spinner = output.NewSpinner("sending probe 1", output.WithSpinnerColor(f.ColorEnabled()))
		spinner.Start()
		progress = func(step probe.Step) {
			spinner.Stop()
			f.StepProgress(step)
			spinner.UpdateMessage(fmt.Sprintf("sending probe %d", step.Number+1))
			spinner.Start()
		}
	}

	result, err := runner.Run(ctx, cfg, progress)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	if f.Format() != output.FormatJSON {
		f.Println("")
	}
	if err := f.ProbeReport(result); err != nil {
		return err
	}

	if f.Format() != output.FormatJSON {
		return f.Comparison(result, previous)
	}
	return nil
}

// buildProbeConfig assembles the run configuration: preset or config
// defaults first, then explicit flag overrides.
func buildProbeConfig(cmd *cobra.Command) (probe.Config, error) {
	app := GetAppContext()

	var cfg probe.Config
	if probeOpts.Preset != "" {
		preset, err := app.Presets.Get(probeOpts.Preset)
		if err != nil {
			return probe.Config{}, err
		}
		cfg = preset.Apply(probeOpts.Model)
	} else {
		cfg = app.Config.Defaults
		cfg.ModelID = probeOpts.Model
	}

	flags := cmd.Flags()
	if flags.Changed("strategy") {
		cfg.Strategy = probe.Strategy(probeOpts.Strategy)
	}
	if flags.Changed("min") {
		cfg.MinTokens = probeOpts.MinTokens
	}
	if flags.Changed("max") {
		cfg.MaxTokens = probeOpts.MaxTokens
	}
	if flags.Changed("step") {
		cfg.StepSize = probeOpts.StepSize
	}
	if flags.Changed("precision") {
		cfg.Precision = probeOpts.Precision
	}
	if flags.Changed("attempts") {
		cfg.MaxAttempts = probeOpts.MaxAttempts
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = probeOpts.Timeout
	}
	if flags.Changed("output-budget") {
		cfg.OutputBudget = probeOpts.OutputBudget
	}
	if flags.Changed("retries") {
		cfg.RetryCount = probeOpts.Retries
	}
	if flags.Changed("count-output") {
		cfg.IncludeOutputBudget = probeOpts.CountOutput
	}

	// Cap the search at the advertised window unless the caller asked
	// for a specific ceiling.
	if !flags.Changed("max") {
		if descriptor, err := app.Models.Get(cfg.ModelID); err == nil && descriptor.ContextWindow > 0 {
			cfg.MaxTokens = descriptor.ContextWindow
		}
	}

	return cfg, nil
}
