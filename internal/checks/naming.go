package checks

import (
	"fmt"
	"strings"

	"github.com/jenian/atfcheck/internal/analyzer"
	"github.com/jenian/atfcheck/internal/parser"
	"github.com/jenian/atfcheck/internal/scanner"
)

// sourcePatterns are the custom method files the naming check reads
var sourcePatterns = []string{"*.py", "*.go", "*.js", "*.jsx", "*.mjs", "*.ts", "*.tsx", "*.java", "*.rs"}

// Naming flags function parameters that misspell the expected parameter name
type Naming struct {
	analyzer.Base
	source *parser.Parser
}

// finding is one function declaring misspelled parameters
type finding struct {
	file     string
	function string
	params   []string
}

func NewNaming(source *parser.Parser) *Naming {
	return &Naming{source: source}
}

func (n *Naming) Name() string { return "Engagement ID Spelling" }

func (n *Naming) Description() string {
	return "Validates that function parameters use correct 'engagement_id' spelling"
}

func (n *Naming) PerformAnalysis(ctx *analyzer.Context) ([]string, []string, error) {
	cfg := ctx.Config
	dir := cfg.Resolve(cfg.Directories.CustomMethods)
	if msg := analyzer.ValidateDirectory(dir, "custom methods"); msg != "" {
		return []string{msg}, nil, nil
	}

	files, err := ctx.ListFiles(dir, sourcePatterns...)
	if err != nil {
		return nil, nil, err
	}
	ctx.TotalFiles = len(files)
	ctx.Log.Info("checking parameter spelling", "files", len(files), "expected", cfg.Naming.Expected)

	suspicious := make(map[string]bool, len(cfg.Naming.Suspicious))
	for _, s := range cfg.Naming.Suspicious {
		suspicious[strings.ToLower(s)] = true
	}

	var errs []string
	var findings []finding
	for _, file := range files {
		lang := scanner.DetectLanguage(file)
		sigs, err := n.source.ParseFile(file, string(lang))
		if err != nil {
			ctx.Log.Error("failed to parse source file", "file", file, "error", err)
			errs = append(errs, fmt.Sprintf("Failed to analyze %s: %v", ctx.Rel(file), err))
			continue
		}
		ctx.FilesProcessed++

		for _, sig := range sigs {
			var bad []string
			for _, p := range sig.Params {
				if p.Name != cfg.Naming.Expected && suspicious[strings.ToLower(p.Name)] {
					bad = append(bad, p.Name)
				}
			}
			if len(bad) > 0 {
				findings = append(findings, finding{file: ctx.Rel(file), function: sig.Name, params: bad})
				ctx.Log.Debug("suspicious parameter", "file", file, "line", sig.Line, "function", sig.Name, "params", bad)
			}
		}
	}

	if msg := analyzer.CheckThreshold(len(findings), "max_invalid_engagement_params",
		cfg.Thresholds.MaxInvalidEngagementParams, "invalid engagement parameter usages"); msg != "" {
		errs = append(errs, msg)
	}
	for _, f := range findings {
		errs = append(errs, fmt.Sprintf("Invalid engagement parameter in %s, function '%s': [%s]",
			f.file, f.function, strings.Join(f.params, ", ")))
	}

	var warnings []string
	if len(findings) > 0 {
		warnings = append(warnings, fmt.Sprintf("Found %d functions with incorrect engagement parameter spelling", len(findings)))
	}
	return errs, warnings, nil
}

func (n *Naming) Finalize(ctx *analyzer.Context) (map[string]any, error) {
	cfg := ctx.Config
	return map[string]any{
		"directory_scanned":   cfg.Resolve(cfg.Directories.CustomMethods),
		"expected_parameter":  cfg.Naming.Expected,
		"suspicious_patterns": cfg.Naming.Suspicious,
		"threshold":           cfg.Thresholds.MaxInvalidEngagementParams,
	}, nil
}
