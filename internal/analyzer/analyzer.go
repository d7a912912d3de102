package analyzer

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/jenian/atfcheck/internal/config"
)

// Analyzer is one pluggable check. Implementations supply the three hooks;
// callers never invoke them directly but go through Analyze.
type Analyzer interface {
	Name() string
	Description() string

	// Prepare runs before PerformAnalysis
	Prepare(ctx *Context) error
	// PerformAnalysis returns the violations found. A non-nil error means the
	// analyzer itself broke, not that violations were found.
	PerformAnalysis(ctx *Context) (errs []string, warnings []string, err error)
	// Finalize returns extra metadata for the result
	Finalize(ctx *Context) (map[string]any, error)
}

// Base provides no-op Prepare and Finalize hooks for embedding
type Base struct{}

func (Base) Prepare(*Context) error { return nil }

func (Base) Finalize(*Context) (map[string]any, error) { return nil, nil }

// Context carries per-run state through the hooks of one analyzer.
// It is created fresh for every Analyze call.
type Context struct {
	Config         *config.Config
	Log            *slog.Logger
	StartTime      time.Time
	FilesProcessed int
	TotalFiles     int
	Metadata       map[string]any
}

// AnalyzerError is returned by Analyze when a hook fails or panics
type AnalyzerError struct {
	Analyzer string
	Message  string
	Err      error
	Elapsed  time.Duration // time spent before the failure
}

func (e *AnalyzerError) Error() string {
	return fmt.Sprintf("%s analysis failed: %s", e.Analyzer, e.Message)
}

func (e *AnalyzerError) Unwrap() error {
	return e.Err
}

// Analyze runs the hooks of a in order and assembles its Result. Hook errors and
// panics are returned as *AnalyzerError so one broken check cannot take down a run.
func Analyze(a Analyzer, cfg *config.Config, log *slog.Logger) (result Result, err error) {
	if log == nil {
		log = slog.Default()
	}
	name := a.Name()
	log = log.With("analyzer", name)

	ctx := &Context{
		Config:    cfg,
		Log:       log,
		StartTime: time.Now(),
		Metadata:  make(map[string]any),
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("analyzer panicked", "panic", r, "stack", string(debug.Stack()))
			result = Result{}
			err = &AnalyzerError{Analyzer: name, Message: fmt.Sprint(r), Elapsed: time.Since(ctx.StartTime)}
		}
	}()

	log.Info("starting analysis")

	if err := a.Prepare(ctx); err != nil {
		return Result{}, hookError(ctx, name, "prepare", err)
	}

	errs, warnings, err := a.PerformAnalysis(ctx)
	if err != nil {
		return Result{}, hookError(ctx, name, "analysis", err)
	}

	extra, err := a.Finalize(ctx)
	if err != nil {
		return Result{}, hookError(ctx, name, "finalize", err)
	}

	elapsed := time.Since(ctx.StartTime)

	metadata := make(map[string]any, len(ctx.Metadata)+len(extra)+2)
	for k, v := range ctx.Metadata {
		metadata[k] = v
	}
	for k, v := range extra {
		metadata[k] = v
	}
	metadata["execution_time"] = elapsed.Seconds()
	metadata["files_processed"] = ctx.FilesProcessed

	if errs == nil {
		errs = []string{}
	}
	if warnings == nil {
		warnings = []string{}
	}

	log.Info("completed analysis",
		"errors", len(errs),
		"warnings", len(warnings),
		"duration", elapsed.Round(time.Millisecond),
	)

	return Result{
		Name:     name,
		Success:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
		Metadata: metadata,
	}, nil
}

func hookError(ctx *Context, name, stage string, err error) error {
	ctx.Log.Error("analysis failed", "stage", stage, "error", err)
	return &AnalyzerError{Analyzer: name, Message: err.Error(), Err: err, Elapsed: time.Since(ctx.StartTime)}
}
