package output

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jbctechsolutions/ctxprobe/internal/domain/model"
	"github.com/jbctechsolutions/ctxprobe/internal/domain/probe"
)

// resultView is the JSON shape of a probe result report.
type resultView struct {
	RunID          string     `json:"run_id"`
	ModelID        string     `json:"model_id"`
	Strategy       string     `json:"strategy"`
	Status         string     `json:"status"`
	Boundary       int        `json:"boundary"`
	TheoreticalMax int        `json:"theoretical_max"`
	ConfiguredMax  int        `json:"configured_max"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    time.Time  `json:"completed_at"`
	Stats          statsView  `json:"stats"`
	Steps          []stepView `json:"steps,omitempty"`
}

type statsView struct {
	TotalSteps      int     `json:"total_steps"`
	SuccessfulSteps int     `json:"successful_steps"`
	SuccessRate     float64 `json:"success_rate"`
	MeanLatencyMS   int64   `json:"mean_latency_ms"`
	P50LatencyMS    int64   `json:"p50_latency_ms"`
	P90LatencyMS    int64   `json:"p90_latency_ms"`
	P95LatencyMS    int64   `json:"p95_latency_ms"`
	P99LatencyMS    int64   `json:"p99_latency_ms"`
	TotalCostUSD    float64 `json:"total_cost_usd"`
	Throughput      float64 `json:"throughput_tokens_per_sec"`
	IsPrecise       bool    `json:"is_precise"`
	PrecisionPct    float64 `json:"precision_pct"`
	ConfidenceLow   int     `json:"confidence_low"`
	ConfidenceHigh  int     `json:"confidence_high"`
}

type stepView struct {
	Number       int     `json:"number"`
	TargetTokens int     `json:"target_tokens"`
	InputTokens  int     `json:"input_tokens"`
	Outcome      string  `json:"outcome"`
	LatencyMS    int64   `json:"latency_ms"`
	OutputTokens int     `json:"output_tokens,omitempty"`
	CostUSD      float64 `json:"cost_usd"`
	ErrorDetail  string  `json:"error_detail,omitempty"`
}

func newResultView(result *probe.Result, withSteps bool) resultView {
	view := resultView{
		RunID:          result.RunID,
		ModelID:        result.ModelID,
		Strategy:       string(result.Strategy),
		Status:         string(result.Status),
		Boundary:       result.Boundary,
		TheoreticalMax: result.TheoreticalMax,
		ConfiguredMax:  result.ConfiguredMax,
		StartedAt:      result.StartedAt,
		CompletedAt:    result.CompletedAt,
		Stats: statsView{
			TotalSteps:      result.Stats.TotalSteps,
			SuccessfulSteps: result.Stats.SuccessfulSteps,
			SuccessRate:     result.Stats.SuccessRate,
			MeanLatencyMS:   result.Stats.MeanLatency.Milliseconds(),
			P50LatencyMS:    result.Stats.P50Latency.Milliseconds(),
			P90LatencyMS:    result.Stats.P90Latency.Milliseconds(),
			P95LatencyMS:    result.Stats.P95Latency.Milliseconds(),
			P99LatencyMS:    result.Stats.P99Latency.Milliseconds(),
			TotalCostUSD:    result.Stats.TotalCost,
			Throughput:      result.Stats.Throughput,
			IsPrecise:       result.Stats.IsPrecise,
			PrecisionPct:    result.Stats.PrecisionPct,
			ConfidenceLow:   result.Stats.ConfidenceLow,
			ConfidenceHigh:  result.Stats.ConfidenceHigh,
		},
	}

	if withSteps {
		for _, step := range result.Steps {
			view.Steps = append(view.Steps, stepView{
				Number:       step.Number,
				TargetTokens: step.TargetTokens,
				InputTokens:  step.InputTokens,
				Outcome:      string(step.Outcome),
				LatencyMS:    step.Latency.Milliseconds(),
				OutputTokens: step.OutputTokens,
				CostUSD:      step.Cost,
				ErrorDetail:  step.ErrorDetail,
			})
		}
	}

	return view
}

// ProbeReport renders a completed probe result in the current format.
func (f *Formatter) ProbeReport(result *probe.Result) error {
	switch f.Format() {
	case FormatJSON:
		return f.JSON(newResultView(result, true))
	case FormatTable:
		if err := f.stepTable(result); err != nil {
			return err
		}
		return f.resultSummary(result)
	default:
		return f.resultSummary(result)
	}
}

func (f *Formatter) resultSummary(result *probe.Result) error {
	if err := f.Header(fmt.Sprintf("Probe result: %s", result.ModelID)); err != nil {
		return err
	}

	boundary := FormatTokens(result.Boundary)
	if result.Boundary == 0 {
		boundary = "none (every probe rejected)"
	}

	f.Item("Status", f.statusText(result.Status))
	f.Item("Strategy", string(result.Strategy))
	f.Item("Boundary", f.Bold(boundary))
	f.Item("Confidence", fmt.Sprintf("%s - %s",
		FormatTokens(result.Stats.ConfidenceLow), FormatTokens(result.Stats.ConfidenceHigh)))
	f.Item("Advertised window", FormatTokens(result.TheoreticalMax))
	f.Item("Precision", fmt.Sprintf("%.1f%%", result.Stats.PrecisionPct))
	f.Item("Steps", fmt.Sprintf("%d (%d successful, %.0f%%)",
		result.Stats.TotalSteps, result.Stats.SuccessfulSteps, result.Stats.SuccessRate*100))
	f.Item("Mean latency", formatLatency(result.Stats.MeanLatency))
	f.Item("P95 latency", formatLatency(result.Stats.P95Latency))
	f.Item("Total cost", FormatUSD(result.Stats.TotalCost))
	f.Item("Duration", result.Duration().Round(time.Second).String())

	return nil
}

func (f *Formatter) statusText(status probe.RunStatus) string {
	switch status {
	case probe.StatusCompleted:
		return f.Colorize(string(status), ColorGreen)
	case probe.StatusPartial:
		return f.Colorize(string(status), ColorYellow)
	default:
		return f.Colorize(string(status), ColorRed)
	}
}

func (f *Formatter) stepTable(result *probe.Result) error {
	data := TableData{
		Columns: []TableColumn{
			{Header: "#", Align: AlignRight},
			{Header: "TARGET", Align: AlignRight},
			{Header: "INPUT", Align: AlignRight},
			{Header: "OUTCOME"},
			{Header: "LATENCY", Align: AlignRight},
			{Header: "COST", Align: AlignRight},
			{Header: "DETAIL"},
		},
	}

	for _, step := range result.Steps {
		data.Rows = append(data.Rows, []string{
			strconv.Itoa(step.Number),
			FormatTokens(step.TargetTokens),
			FormatTokens(step.InputTokens),
			string(step.Outcome),
			formatLatency(step.Latency),
			FormatUSD(step.Cost),
			truncate(step.ErrorDetail, 48),
		})
	}

	if err := f.Table(data); err != nil {
		return err
	}
	return f.Println("")
}

// StepProgress renders a single live progress line for an executed step.
func (f *Formatter) StepProgress(step probe.Step) error {
	marker := f.Colorize("✓", ColorGreen)
	switch step.Outcome {
	case probe.OutcomeBoundaryExceeded:
		marker = f.Colorize("✗", ColorRed)
	case probe.OutcomeTransientError:
		marker = f.Colorize("~", ColorYellow)
	}

	return f.Println("%s step %d: %s tokens → %s (%s)",
		marker, step.Number, FormatTokens(step.TargetTokens), step.Outcome, formatLatency(step.Latency))
}

// Comparison renders the boundary delta between the current run and the
// previous persisted run for the same model.
func (f *Formatter) Comparison(current, previous *probe.Result) error {
	if previous == nil {
		return nil
	}

	delta := current.Boundary - previous.Boundary
	when := previous.CompletedAt.Format("2006-01-02 15:04")

	switch {
	case delta == 0:
		return f.Info("Boundary unchanged since previous run (%s)", when)
	case delta > 0:
		return f.Info("Boundary up %s tokens since previous run (%s)", FormatTokens(delta), when)
	default:
		return f.Warning("Boundary down %s tokens since previous run (%s)", FormatTokens(-delta), when)
	}
}

// ModelsReport renders the model registry in the current format.
func (f *Formatter) ModelsReport(descriptors []*model.Descriptor) error {
	if f.Format() == FormatJSON {
		type modelView struct {
			ID              string  `json:"id"`
			Name            string  `json:"name"`
			Provider        string  `json:"provider"`
			ContextWindow   int     `json:"context_window"`
			MaxOutputTokens int     `json:"max_output_tokens"`
			InputCostPer1K  float64 `json:"input_cost_per_1k"`
			OutputCostPer1K float64 `json:"output_cost_per_1k"`
			Encoding        string  `json:"encoding"`
		}
		views := make([]modelView, 0, len(descriptors))
		for _, d := range descriptors {
			views = append(views, modelView(*d))
		}
		return f.JSON(views)
	}

	data := TableData{
		Columns: []TableColumn{
			{Header: "MODEL"},
			{Header: "PROVIDER"},
			{Header: "CONTEXT", Align: AlignRight},
			{Header: "MAX OUT", Align: AlignRight},
			{Header: "IN $/1K", Align: AlignRight},
			{Header: "OUT $/1K", Align: AlignRight},
		},
	}

	for _, d := range descriptors {
		data.Rows = append(data.Rows, []string{
			d.ID,
			d.Provider,
			FormatTokens(d.ContextWindow),
			FormatTokens(d.MaxOutputTokens),
			fmt.Sprintf("%.4f", d.InputCostPer1K),
			fmt.Sprintf("%.4f", d.OutputCostPer1K),
		})
	}

	return f.Table(data)
}

// HistoryReport renders a list of persisted runs in the current format.
func (f *Formatter) HistoryReport(runs []*probe.Result) error {
	if f.Format() == FormatJSON {
		views := make([]resultView, 0, len(runs))
		for _, run := range runs {
			views = append(views, newResultView(run, false))
		}
		return f.JSON(views)
	}

	if len(runs) == 0 {
		return f.Info("No probe runs recorded")
	}

	data := TableData{
		Columns: []TableColumn{
			{Header: "RUN"},
			{Header: "MODEL"},
			{Header: "STRATEGY"},
			{Header: "BOUNDARY", Align: AlignRight},
			{Header: "STEPS", Align: AlignRight},
			{Header: "STATUS"},
			{Header: "STARTED"},
		},
	}

	for _, run := range runs {
		data.Rows = append(data.Rows, []string{
			truncate(run.RunID, 8),
			run.ModelID,
			string(run.Strategy),
			FormatTokens(run.Boundary),
			strconv.Itoa(run.Stats.TotalSteps),
			string(run.Status),
			run.StartedAt.Format("2006-01-02 15:04"),
		})
	}

	return f.Table(data)
}

// FormatTokens renders a token count with thousands separators.
func FormatTokens(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		s = s[1:]
	}

	var out []byte
	for i, digit := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digit)
	}

	if n < 0 {
		return "-" + string(out)
	}
	return string(out)
}

// FormatUSD renders a dollar amount with enough precision for small
// per-step costs.
func FormatUSD(amount float64) string {
	if amount == 0 {
		return "$0.00"
	}
	if amount < 0.01 {
		return fmt.Sprintf("$%.4f", amount)
	}
	return fmt.Sprintf("$%.2f", amount)
}

func formatLatency(d time.Duration) string {
	if d >= time.Second {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
