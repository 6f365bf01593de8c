package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNewFormatter(t *testing.T) {
	t.Run("default options", func(t *testing.T) {
		f := NewFormatter()
		if f.format != FormatText {
			t.Errorf("expected format %v, got %v", FormatText, f.format)
		}
		if !f.colorEnabled {
			t.Error("expected color to be enabled by default")
		}
	})

	t.Run("with custom options", func(t *testing.T) {
		var buf bytes.Buffer
		f := NewFormatter(
			WithWriter(&buf),
			WithFormat(FormatJSON),
			WithColor(false),
		)

		if f.format != FormatJSON {
			t.Errorf("expected format %v, got %v", FormatJSON, f.format)
		}
		if f.colorEnabled {
			t.Error("expected color to be disabled")
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"table", FormatTable, false},
		{"TABLE", FormatTable, false},
		{"", FormatText, false},
		{"xml", FormatText, true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q): unexpected error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFormatter_Println(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(WithWriter(&buf))

	if err := f.Println("hello %s", "world"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := buf.String(); got != "hello world\n" {
		t.Errorf("expected 'hello world\\n', got %q", got)
	}
}

func TestFormatter_Colorize(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		f := NewFormatter(WithColor(true))
		got := f.Colorize("text", ColorGreen)
		if got != "\033[32mtext\033[0m" {
			t.Errorf("expected colored text, got %q", got)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		f := NewFormatter(WithColor(false))
		got := f.Colorize("text", ColorGreen)
		if got != "text" {
			t.Errorf("expected plain text, got %q", got)
		}
	})
}

func TestFormatter_Table(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(WithWriter(&buf), WithColor(false))

	err := f.Table(TableData{
		Columns: []TableColumn{
			{Header: "MODEL"},
			{Header: "TOKENS", Align: AlignRight},
		},
		Rows: [][]string{
			{"claude-sonnet-4", "200,000"},
			{"gpt-4o", "128,000"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "MODEL") {
		t.Errorf("expected header line, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "-") {
		t.Errorf("expected separator line, got %q", lines[1])
	}
	// Right-aligned numeric column
	if !strings.HasSuffix(lines[2], "200,000") {
		t.Errorf("expected right-aligned tokens, got %q", lines[2])
	}
}

func TestFormatter_JSON(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(WithWriter(&buf))

	if err := f.JSON(map[string]int{"boundary": 100000}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]int
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["boundary"] != 100000 {
		t.Errorf("expected boundary 100000, got %d", decoded["boundary"])
	}
}

func TestFormatter_StatusMessages(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(WithWriter(&buf), WithColor(false))

	f.Success("done")
	f.Error("broken")
	f.Warning("careful")
	f.Info("note")

	got := buf.String()
	for _, want := range []string{"✓ done", "✗ broken", "⚠ careful", "ℹ note"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q, got %q", want, got)
		}
	}
}

func TestFormatter_Header(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(WithWriter(&buf), WithColor(false))

	if err := f.Header("Results"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "Results" {
		t.Errorf("expected 'Results', got %q", lines[0])
	}
	if lines[1] != strings.Repeat("─", len("Results")) {
		t.Errorf("expected underline, got %q", lines[1])
	}
}

func TestSpinner_StartStop(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner("sending probe 1", WithSpinnerWriter(&buf), WithSpinnerColor(false))

	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.UpdateMessage("sending probe 2")
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "sending probe 1") {
		t.Errorf("expected initial message in output, got %q", out)
	}
	if !strings.Contains(out, "sending probe 2") {
		t.Errorf("expected updated message in output, got %q", out)
	}
	if !strings.HasSuffix(out, "\r\033[K") {
		t.Error("expected Stop to clear the spinner line")
	}

	// Stop again is a no-op, and a stopped spinner can be restarted.
	s.Stop()
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()
}
