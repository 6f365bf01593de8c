package commands

import (
	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/ctxprobe/internal/presentation/cli/output"
)

// NewPresetsCmd creates the presets command for listing probe presets.
func NewPresetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List available probe presets",
		Long: `List the built-in probe presets and any user presets loaded from the
preset directory. User presets with the same name shadow built-ins.`,
		RunE: runPresetsList,
	}

	cmd.AddCommand(NewPresetsShowCmd())

	return cmd
}

// NewPresetsShowCmd creates the presets show subcommand.
func NewPresetsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show the configuration of a preset",
		Args:  cobra.ExactArgs(1),
		RunE:  runPresetsShow,
	}
}

func runPresetsList(cmd *cobra.Command, args []string) error {
	app := GetAppContext()
	f := app.Formatter
	presets := app.Presets.List()

	if f.Format() == output.FormatJSON {
		return f.JSON(presets)
	}

	data := output.TableData{
		Columns: []output.TableColumn{
			{Header: "NAME"},
			{Header: "SOURCE"},
			{Header: "STRATEGY"},
			{Header: "PRECISION", Align: output.AlignRight},
			{Header: "ATTEMPTS", Align: output.AlignRight},
			{Header: "DESCRIPTION"},
		},
	}

	for _, preset := range presets {
		source := "user"
		if preset.Builtin {
			source = "builtin"
		}
		data.Rows = append(data.Rows, []string{
			preset.Name,
			source,
			string(preset.Config.Strategy),
			output.FormatTokens(preset.Config.Precision),
			output.FormatTokens(preset.Config.MaxAttempts),
			preset.Description,
		})
	}

	return f.Table(data)
}

func runPresetsShow(cmd *cobra.Command, args []string) error {
	app := GetAppContext()
	f := app.Formatter

	preset, err := app.Presets.Get(args[0])
	if err != nil {
		return err
	}

	if f.Format() == output.FormatJSON {
		return f.JSON(preset)
	}

	f.Header(preset.Name)
	if preset.Description != "" {
		f.Item("Description", preset.Description)
	}
	f.Item("Strategy", string(preset.Config.Strategy))
	f.Item("Range", output.FormatTokens(preset.Config.MinTokens)+" - "+output.FormatTokens(preset.Config.MaxTokens))
	f.Item("Step size", output.FormatTokens(preset.Config.StepSize))
	f.Item("Precision", output.FormatTokens(preset.Config.Precision))
	f.Item("Max attempts", output.FormatTokens(preset.Config.MaxAttempts))
	f.Item("Request timeout", preset.Config.RequestTimeout.String())
	f.Item("Output budget", output.FormatTokens(preset.Config.OutputBudget))
	f.Item("Retries", output.FormatTokens(preset.Config.RetryCount))

	return nil
}
