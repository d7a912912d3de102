package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jenian/atfcheck/internal/analyzer"
)

func failing() analyzer.Result {
	return analyzer.Result{
		Name:     "Skip Element Analyzer",
		Errors:   []string{"first", "second", "third"},
		Warnings: []string{"careful"},
		Metadata: map[string]any{"execution_time": 0.01, "files_processed": 2},
	}
}

func TestConsole_PlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, 0, true)

	if c.color {
		t.Fatal("Expected colors to be disabled for a buffer")
	}

	c.OnStart([]string{"A", "B"})
	out := buf.String()
	for _, want := range []string{"--- Static Analysis Starting ---", "Running 2 checks:", "  - A\n", "  - B\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected start block to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("Expected no escape sequences, got %q", out)
	}
}

func TestConsole_CheckResult(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, 2, true)

	c.OnCheckResult(failing())

	expected := "  Skip Element Analyzer: FAILED\n" +
		"    Errors (3):\n" +
		"      - first\n" +
		"      - second\n" +
		"      ... and 1 more errors\n" +
		"    Warnings (1):\n" +
		"      - careful\n"
	if buf.String() != expected {
		t.Errorf("Expected:\n%s\ngot:\n%s", expected, buf.String())
	}
}

func TestConsole_HidesWarnings(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, 0, false)

	c.OnCheckResult(analyzer.Result{Name: "README Documentation Analyzer", Success: true, Warnings: []string{"w"}})

	if buf.String() != "  README Documentation Analyzer: PASSED\n" {
		t.Errorf("Expected only the status line, got %q", buf.String())
	}
}

func TestConsole_Summary(t *testing.T) {
	tests := []struct {
		name     string
		results  []analyzer.Result
		expected []string
	}{
		{
			name:    "failed",
			results: []analyzer.Result{failing(), {Name: "ok", Success: true}},
			expected: []string{
				"Total checks: 2", "Passed: 1", "Failed: 1", "Total errors: 3", "Total warnings: 1",
				"Execution time: 1.50s", "Analysis failed with 3 errors",
			},
		},
		{
			name:     "passed",
			results:  []analyzer.Result{{Name: "ok", Success: true}},
			expected: []string{"Total checks: 1", "Failed: 0", "All checks passed!"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewConsole(&buf, 0, true).Summary(analyzer.NewReport(tt.results, 1500*time.Millisecond))

			for _, want := range tt.expected {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("Expected summary to contain %q, got:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	report := analyzer.NewReport([]analyzer.Result{failing()}, 2*time.Second)

	if err := WriteJSON(&buf, report); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var decoded struct {
		Success       bool    `json:"success"`
		TotalErrors   int     `json:"total_errors"`
		ExecutionTime float64 `json:"execution_time"`
		Results       []struct {
			Name   string   `json:"check_name"`
			Errors []string `json:"errors"`
		} `json:"results"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Invalid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Success || decoded.TotalErrors != 3 || decoded.ExecutionTime != 2 {
		t.Errorf("Unexpected report header: %+v", decoded)
	}
	if len(decoded.Results) != 1 || decoded.Results[0].Name != "Skip Element Analyzer" || len(decoded.Results[0].Errors) != 3 {
		t.Errorf("Unexpected results: %+v", decoded.Results)
	}
}
