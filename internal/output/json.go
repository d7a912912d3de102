package output

import (
	"encoding/json"
	"io"

	"github.com/jenian/atfcheck/internal/analyzer"
)

// WriteJSON writes the report as indented JSON
func WriteJSON(w io.Writer, report *analyzer.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// Quiet discards progress events. Used with --json so stdout only carries the report.
type Quiet struct{}

func (Quiet) OnStart([]string) {}
func (Quiet) OnCheckStart(string) {}
func (Quiet) OnCheckResult(analyzer.Result) {}
