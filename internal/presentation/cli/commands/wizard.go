package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/ctxprobe/internal/domain/probe"
	"github.com/jbctechsolutions/ctxprobe/internal/presentation/cli/output"
)

// NewWizardCmd creates the wizard command for interactive probe setup.
func NewWizardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wizard",
		Short: "Interactively build and run a probe configuration",
		Long: `Walk through the probe parameters step by step: target model, search
strategy, token range, and precision. Each prompt shows the current
default; press Enter to accept it.

The wizard validates the configuration before offering to run it.`,
		RunE: runWizard,
	}
}

func runWizard(cmd *cobra.Command, args []string) error {
	app := GetAppContext()
	f := app.Formatter

	rl, err := readline.New("> ")
	if err != nil {
		return fmt.Errorf("could not create readline: %w", err)
	}
	defer rl.Close()

	f.Header("Probe setup")

	cfg, err := collectProbeConfig(rl, f)
	if err == io.EOF {
		f.Warning("Aborted")
		return nil
	}
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	f.Println("")
	f.Item("Model", cfg.ModelID)
	f.Item("Strategy", string(cfg.Strategy))
	f.Item("Range", output.FormatTokens(cfg.MinTokens)+" - "+output.FormatTokens(cfg.MaxTokens))
	f.Item("Precision", output.FormatTokens(cfg.Precision))
	f.Item("Max attempts", output.FormatTokens(cfg.MaxAttempts))
	f.Println("")

	run, err := promptBool(rl, "Run this probe now?", true)
	if err != nil && err != io.EOF {
		return err
	}
	if err == io.EOF || !run {
		f.Info("Equivalent command: %s", equivalentCommand(cfg))
		return nil
	}

	return executeProbe(cmd.Context(), cfg, true)
}

func collectProbeConfig(rl *readline.Instance, f *output.Formatter) (probe.Config, error) {
	app := GetAppContext()
	cfg := app.Config.Defaults

	var modelIDs []string
	for _, d := range app.Models.List() {
		modelIDs = append(modelIDs, d.ID)
	}
	f.Info("Known models: %s", strings.Join(modelIDs, ", "))

	modelID, err := promptString(rl, "Model", "")
	if err != nil {
		return probe.Config{}, err
	}
	cfg.ModelID = modelID

	if descriptor, err := app.Models.Get(modelID); err == nil && descriptor.ContextWindow > 0 {
		cfg.MaxTokens = descriptor.ContextWindow
	}

	strategy, err := promptChoice(rl, "Strategy", []string{"linear", "binary", "adaptive"}, string(cfg.Strategy))
	if err != nil {
		return probe.Config{}, err
	}
	cfg.Strategy = probe.Strategy(strategy)

	if cfg.MinTokens, err = promptInt(rl, "Minimum tokens", cfg.MinTokens); err != nil {
		return probe.Config{}, err
	}
	if cfg.MaxTokens, err = promptInt(rl, "Maximum tokens", cfg.MaxTokens); err != nil {
		return probe.Config{}, err
	}

	if cfg.Strategy == probe.StrategyLinear {
		if cfg.StepSize, err = promptInt(rl, "Step size", cfg.StepSize); err != nil {
			return probe.Config{}, err
		}
	} else {
		if cfg.Precision, err = promptInt(rl, "Precision (tokens)", cfg.Precision); err != nil {
			return probe.Config{}, err
		}
	}

	if cfg.MaxAttempts, err = promptInt(rl, "Attempt budget", cfg.MaxAttempts); err != nil {
		return probe.Config{}, err
	}

	return cfg, nil
}

func promptString(rl *readline.Instance, prompt, defaultValue string) (string, error) {
	for {
		if defaultValue != "" {
			rl.SetPrompt(fmt.Sprintf("%s [%s]: ", prompt, defaultValue))
		} else {
			rl.SetPrompt(prompt + ": ")
		}

		line, err := rl.Readline()
		if err != nil {
			return "", err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			if defaultValue != "" {
				return defaultValue, nil
			}
			continue
		}
		return line, nil
	}
}

func promptInt(rl *readline.Instance, prompt string, defaultValue int) (int, error) {
	for {
		line, err := promptString(rl, prompt, strconv.Itoa(defaultValue))
		if err != nil {
			return 0, err
		}

		value, err := strconv.Atoi(strings.ReplaceAll(line, ",", ""))
		if err != nil {
			fmt.Println("Please enter a number")
			continue
		}
		return value, nil
	}
}

func promptChoice(rl *readline.Instance, prompt string, choices []string, defaultValue string) (string, error) {
	full := fmt.Sprintf("%s (%s)", prompt, strings.Join(choices, "/"))
	for {
		line, err := promptString(rl, full, defaultValue)
		if err != nil {
			return "", err
		}

		line = strings.ToLower(line)
		for _, choice := range choices {
			if line == choice {
				return choice, nil
			}
		}
		fmt.Printf("Please choose one of: %s\n", strings.Join(choices, ", "))
	}
}

func promptBool(rl *readline.Instance, prompt string, defaultValue bool) (bool, error) {
	defaultStr := "y"
	if !defaultValue {
		defaultStr = "n"
	}

	line, err := promptString(rl, prompt+" (y/n)", defaultStr)
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToLower(line), "y"), nil
}

func equivalentCommand(cfg probe.Config) string {
	parts := []string{
		"ctxprobe probe",
		"--model " + cfg.ModelID,
		"--strategy " + string(cfg.Strategy),
		"--min " + strconv.Itoa(cfg.MinTokens),
		"--max " + strconv.Itoa(cfg.MaxTokens),
		"--attempts " + strconv.Itoa(cfg.MaxAttempts),
	}
	if cfg.Strategy == probe.StrategyLinear {
		parts = append(parts, "--step "+strconv.Itoa(cfg.StepSize))
	} else {
		parts = append(parts, "--precision "+strconv.Itoa(cfg.Precision))
	}
	if cfg.RequestTimeout > 0 && cfg.RequestTimeout != 2*time.Minute {
		parts = append(parts, "--timeout "+cfg.RequestTimeout.String())
	}
	return strings.Join(parts, " ")
}
