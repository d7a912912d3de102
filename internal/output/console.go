package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/jenian/atfcheck/internal/analyzer"
	"golang.org/x/term"
)

// Console renders analysis progress and the final summary as text.
// It implements analyzer.Observer.
type Console struct {
	w            io.Writer
	maxErrors    int // 0 shows every error
	showWarnings bool
	color        bool
	styles       styles
}

type styles struct {
	header lipgloss.Style
	pass   lipgloss.Style
	fail   lipgloss.Style
	warn   lipgloss.Style
	dim    lipgloss.Style
}

// NewConsole creates a console reporter writing to w.
// Colors are used only when w is a terminal that accepts ANSI sequences.
func NewConsole(w io.Writer, maxErrors int, showWarnings bool) *Console {
	c := &Console{
		w:            w,
		maxErrors:    maxErrors,
		showWarnings: showWarnings,
		color:        colorSupported(w),
	}
	if c.color {
		r := lipgloss.NewRenderer(w)
		c.styles = styles{
			header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
			pass:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
			fail:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
			warn:   r.NewStyle().Foreground(lipgloss.Color("214")),
			dim:    r.NewStyle().Foreground(lipgloss.Color("240")),
		}
	}
	return c
}

func colorSupported(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false
	}
	return enableANSI(f)
}

func (c *Console) paint(style lipgloss.Style, s string) string {
	if !c.color {
		return s
	}
	return style.Render(s)
}

func (c *Console) OnStart(names []string) {
	fmt.Fprintf(c.w, "\n%s\n", c.paint(c.styles.header, "--- Static Analysis Starting ---"))
	fmt.Fprintf(c.w, "Running %d checks:\n", len(names))
	for _, name := range names {
		fmt.Fprintf(c.w, "  - %s\n", name)
	}
	fmt.Fprintln(c.w)
}

func (c *Console) OnCheckStart(name string) {
	fmt.Fprintln(c.w, c.paint(c.styles.dim, "Running "+name+"..."))
}

func (c *Console) OnCheckResult(result analyzer.Result) {
	if result.Success {
		fmt.Fprintf(c.w, "  %s: %s\n", result.Name, c.paint(c.styles.pass, "PASSED"))
	} else {
		fmt.Fprintf(c.w, "  %s: %s\n", result.Name, c.paint(c.styles.fail, "FAILED"))
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(c.w, "    Errors (%d):\n", len(result.Errors))
		shown := result.Errors
		if c.maxErrors > 0 && len(shown) > c.maxErrors {
			shown = shown[:c.maxErrors]
		}
		for _, e := range shown {
			fmt.Fprintf(c.w, "      - %s\n", c.paint(c.styles.fail, e))
		}
		if hidden := len(result.Errors) - len(shown); hidden > 0 {
			fmt.Fprintf(c.w, "      %s\n", c.paint(c.styles.dim, fmt.Sprintf("... and %d more errors", hidden)))
		}
	}

	if c.showWarnings && len(result.Warnings) > 0 {
		fmt.Fprintf(c.w, "    Warnings (%d):\n", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Fprintf(c.w, "      - %s\n", c.paint(c.styles.warn, w))
		}
	}
}

// Summary prints totals and the overall verdict
func (c *Console) Summary(report *analyzer.Report) {
	fmt.Fprintf(c.w, "\n%s\n", c.paint(c.styles.header, "--- Analysis Summary ---"))
	fmt.Fprintf(c.w, "Total checks: %d\n", len(report.Results))
	fmt.Fprintf(c.w, "Passed: %d\n", report.Passed())
	fmt.Fprintf(c.w, "Failed: %d\n", report.Failed())
	fmt.Fprintf(c.w, "Total errors: %d\n", report.TotalErrors)
	fmt.Fprintf(c.w, "Total warnings: %d\n", report.TotalWarnings)
	fmt.Fprintf(c.w, "Execution time: %.2fs\n", report.ExecutionTime.Seconds())

	if report.Success() {
		fmt.Fprintf(c.w, "\n%s\n", c.paint(c.styles.pass, "✓ All checks passed!"))
	} else {
		fmt.Fprintf(c.w, "\n%s\n", c.paint(c.styles.fail, fmt.Sprintf("✗ Analysis failed with %d errors", report.TotalErrors)))
	}
}

// Error prints a driver failure that prevented the analysis from running
func (c *Console) Error(err error) {
	fmt.Fprintf(c.w, "%s %v\n", c.paint(c.styles.fail, "Error:"), err)
}
