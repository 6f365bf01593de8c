package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jbctechsolutions/ctxprobe/internal/domain/model"
	"github.com/jbctechsolutions/ctxprobe/internal/domain/probe"
)

func sampleResult() *probe.Result {
	cfg := probe.DefaultConfig("claude-sonnet-4")
	result := probe.NewResult("run-abc123", cfg, 200000)
	result.AppendStep(probe.Step{
		TargetTokens: 100000,
		InputTokens:  99990,
		Outcome:      probe.OutcomeSuccess,
		Latency:      2 * time.Second,
		OutputTokens: 40,
		Cost:         0.3,
		Timestamp:    time.Now(),
	})
	result.AppendStep(probe.Step{
		TargetTokens: 150000,
		InputTokens:  150020,
		Outcome:      probe.OutcomeBoundaryExceeded,
		Latency:      400 * time.Millisecond,
		ErrorDetail:  "prompt is too long",
		Timestamp:    time.Now(),
	})
	result.Boundary = 100000
	result.Finalize(probe.StatusCompleted, cfg.Precision)
	return result
}

func TestProbeReportText(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(WithWriter(&buf), WithColor(false), WithFormat(FormatText))

	if err := f.ProbeReport(sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := buf.String()
	for _, want := range []string{"claude-sonnet-4", "100,000", "completed", "binary"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected report to contain %q, got:\n%s", want, got)
		}
	}
}

func TestProbeReportJSON(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(WithWriter(&buf), WithFormat(FormatJSON))

	if err := f.ProbeReport(sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var view resultView
	if err := json.Unmarshal(buf.Bytes(), &view); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if view.Boundary != 100000 {
		t.Errorf("expected boundary 100000, got %d", view.Boundary)
	}
	if len(view.Steps) != 2 {
		t.Errorf("expected 2 steps, got %d", len(view.Steps))
	}
	if view.Steps[1].ErrorDetail != "prompt is too long" {
		t.Errorf("expected error detail preserved, got %q", view.Steps[1].ErrorDetail)
	}
}

func TestProbeReportTable(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(WithWriter(&buf), WithColor(false), WithFormat(FormatTable))

	if err := f.ProbeReport(sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := buf.String()
	for _, want := range []string{"TARGET", "boundary_exceeded", "150,020"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected table to contain %q, got:\n%s", want, got)
		}
	}
}

func TestStepProgress(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(WithWriter(&buf), WithColor(false))

	step := probe.Step{
		Number:       3,
		TargetTokens: 50000,
		Outcome:      probe.OutcomeTransientError,
		Latency:      120 * time.Millisecond,
	}
	if err := f.StepProgress(step); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "step 3") || !strings.Contains(got, "50,000") || !strings.Contains(got, "transient_error") {
		t.Errorf("unexpected progress line: %q", got)
	}
}

func TestComparison(t *testing.T) {
	current := sampleResult()

	t.Run("nil previous", func(t *testing.T) {
		var buf bytes.Buffer
		f := NewFormatter(WithWriter(&buf), WithColor(false))
		if err := f.Comparison(current, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})

	t.Run("boundary regressed", func(t *testing.T) {
		previous := sampleResult()
		previous.Boundary = 120000

		var buf bytes.Buffer
		f := NewFormatter(WithWriter(&buf), WithColor(false))
		if err := f.Comparison(current, previous); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "down 20,000") {
			t.Errorf("expected regression message, got %q", buf.String())
		}
	})

	t.Run("boundary unchanged", func(t *testing.T) {
		previous := sampleResult()

		var buf bytes.Buffer
		f := NewFormatter(WithWriter(&buf), WithColor(false))
		if err := f.Comparison(current, previous); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "unchanged") {
			t.Errorf("expected unchanged message, got %q", buf.String())
		}
	})
}

func TestModelsReport(t *testing.T) {
	descriptors := []*model.Descriptor{
		model.NewDescriptor("claude-sonnet-4", "Claude Sonnet 4", model.ProviderAnthropic).
			WithContextWindow(200000).WithMaxOutput(64000).WithCosts(0.003, 0.015),
	}

	var buf bytes.Buffer
	f := NewFormatter(WithWriter(&buf), WithColor(false), WithFormat(FormatTable))

	if err := f.ModelsReport(descriptors); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := buf.String()
	for _, want := range []string{"claude-sonnet-4", "anthropic", "200,000"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected models table to contain %q, got:\n%s", want, got)
		}
	}
}

func TestHistoryReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(WithWriter(&buf), WithColor(false))

	if err := f.HistoryReport(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No probe runs") {
		t.Errorf("expected empty message, got %q", buf.String())
	}
}

func TestFormatTokens(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{200000, "200,000"},
		{1048576, "1,048,576"},
		{-5000, "-5,000"},
	}

	for _, tt := range tests {
		if got := FormatTokens(tt.in); got != tt.want {
			t.Errorf("FormatTokens(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{0.0042, "$0.0042"},
		{1.5, "$1.50"},
	}

	for _, tt := range tests {
		if got := FormatUSD(tt.in); got != tt.want {
			t.Errorf("FormatUSD(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
