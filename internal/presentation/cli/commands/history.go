package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/ctxprobe/internal/application/ports"
)

// historyFlags holds the flags for the history command.
type historyFlags struct {
	Model string
	Since time.Duration
	Limit int
}

var historyOpts historyFlags

// NewHistoryCmd creates the history command for inspecting past probe runs.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past probe runs",
		Long: `List probe runs recorded in the history database, newest first.

Requires persistent history to be enabled in the configuration.`,
		RunE: runHistoryList,
	}

	cmd.Flags().StringVarP(&historyOpts.Model, "model", "m", "", "filter by model identifier")
	cmd.Flags().DurationVar(&historyOpts.Since, "since", 0, "only runs started within this duration (e.g. 72h)")
	cmd.Flags().IntVarP(&historyOpts.Limit, "limit", "n", 20, "maximum number of runs to list")

	cmd.AddCommand(NewHistoryShowCmd())

	return cmd
}

// NewHistoryShowCmd creates the history show subcommand.
func NewHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a recorded probe run with its full step log",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	}
}

func historyStorage() (ports.HistoryStorage, error) {
	app := GetAppContext()
	if app.History == nil {
		return nil, fmt.Errorf("persistent history is disabled; enable it in %s", "~/.ctxprobe/config.yaml")
	}
	return app.History, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := historyStorage()
	if err != nil {
		return err
	}

	filter := ports.HistoryFilter{
		ModelID: historyOpts.Model,
		Limit:   historyOpts.Limit,
	}
	if historyOpts.Since > 0 {
		filter.Since = time.Now().Add(-historyOpts.Since)
	}

	runs, err := store.ListRuns(cmd.Context(), filter)
	if err != nil {
		return err
	}

	return GetFormatter().HistoryReport(runs)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := historyStorage()
	if err != nil {
		return err
	}

	result, err := store.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return GetFormatter().ProbeReport(result)
}
