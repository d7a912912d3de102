package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jenian/atfcheck/internal/config"
)

// Result is the outcome of one analyzer
type Result struct {
	Name     string         `json:"check_name"`
	Success  bool           `json:"success"` // True iff there are no errors
	Errors   []string       `json:"errors"`
	Warnings []string       `json:"warnings"`
	Metadata map[string]any `json:"metadata"` // Always has execution_time and files_processed
}

// Report aggregates the results of a full run
type Report struct {
	Results       []Result      // In registration order
	TotalErrors   int
	TotalWarnings int
	ExecutionTime time.Duration
}

// NewReport builds a report from results
func NewReport(results []Result, elapsed time.Duration) *Report {
	r := &Report{Results: results, ExecutionTime: elapsed}
	for _, res := range results {
		r.TotalErrors += len(res.Errors)
		r.TotalWarnings += len(res.Warnings)
	}
	return r
}

// Success reports whether the run found no errors
func (r *Report) Success() bool {
	return r.TotalErrors == 0
}

// Passed returns the number of successful checks
func (r *Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

// Failed returns the number of failed checks
func (r *Report) Failed() int {
	return len(r.Results) - r.Passed()
}

// Result returns the result of the named analyzer
func (r *Report) Result(name string) (Result, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return Result{}, false
}

func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Success       bool     `json:"success"`
		TotalChecks   int      `json:"total_checks"`
		Passed        int      `json:"passed"`
		Failed        int      `json:"failed"`
		TotalErrors   int      `json:"total_errors"`
		TotalWarnings int      `json:"total_warnings"`
		ExecutionTime float64  `json:"execution_time"`
		Results       []Result `json:"results"`
	}{
		Success:       r.Success(),
		TotalChecks:   len(r.Results),
		Passed:        r.Passed(),
		Failed:        r.Failed(),
		TotalErrors:   r.TotalErrors,
		TotalWarnings: r.TotalWarnings,
		ExecutionTime: r.ExecutionTime.Seconds(),
		Results:       r.Results,
	})
}

// Observer is told about progress while Run executes
type Observer interface {
	OnStart(names []string)
	OnCheckStart(name string)
	OnCheckResult(result Result)
}

// Run executes analyzers one after another in the given order and builds the report.
// An analyzer that fails is recorded as a failed result and the run continues.
func Run(analyzers []Analyzer, cfg *config.Config, log *slog.Logger, obs Observer) *Report {
	if log == nil {
		log = slog.Default()
	}

	names := make([]string, len(analyzers))
	for i, a := range analyzers {
		names[i] = a.Name()
	}
	if obs != nil {
		obs.OnStart(names)
	}

	log.Info("starting static analysis", "checks", len(analyzers))
	start := time.Now()
	results := make([]Result, 0, len(analyzers))

	for _, a := range analyzers {
		if obs != nil {
			obs.OnCheckStart(a.Name())
		}

		result, err := Analyze(a, cfg, log)
		if err != nil {
			result = failedResult(a.Name(), err)
		}
		results = append(results, result)

		if obs != nil {
			obs.OnCheckResult(result)
		}
	}

	report := NewReport(results, time.Since(start))
	log.Info("static analysis completed",
		"duration", report.ExecutionTime.Round(time.Millisecond),
		"errors", report.TotalErrors,
		"warnings", report.TotalWarnings,
	)
	return report
}

func failedResult(name string, err error) Result {
	msg := err.Error()
	elapsed := 0.0
	var ae *AnalyzerError
	if errors.As(err, &ae) {
		msg = ae.Message
		elapsed = ae.Elapsed.Seconds()
	}
	return Result{
		Name:     name,
		Success:  false,
		Errors:   []string{fmt.Sprintf("Analysis failed for %s: %s", name, msg)},
		Warnings: []string{},
		Metadata: map[string]any{"execution_time": elapsed, "files_processed": 0},
	}
}
