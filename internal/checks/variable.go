package checks

import (
	"fmt"
	"strings"

	"github.com/jenian/atfcheck/internal/analyzer"
	"github.com/jenian/atfcheck/internal/xmltree"
)

// Variable validates the variable definitions file
type Variable struct {
	analyzer.Base
	xml *xmltree.Parser
}

func NewVariable(xml *xmltree.Parser) *Variable {
	return &Variable{xml: xml}
}

func (v *Variable) Name() string { return "Variable Definition Analyzer" }

func (v *Variable) Description() string {
	return "Validates XML variable definitions to ensure proper format and checks for empty or missing variable values"
}

func (v *Variable) PerformAnalysis(ctx *analyzer.Context) ([]string, []string, error) {
	cfg := ctx.Config
	path := cfg.Resolve(cfg.Directories.VariablesFile)
	if msg := analyzer.ValidateFile(path, "variables file"); msg != "" {
		return []string{msg}, nil, nil
	}

	elements, err := v.xml.ExtractByTag(path, "variable")
	if err != nil {
		return []string{fmt.Sprintf("Failed to parse variables file %s: %v", base(path), cause(err))}, nil, nil
	}
	ctx.FilesProcessed++

	if len(elements) == 0 {
		return nil, []string{fmt.Sprintf("No variable elements found in %s", base(path))}, nil
	}

	var errs, warnings []string
	complete, empty, invalid := 0, 0, 0
	for _, el := range elements {
		name, _ := el.Attr("name")
		if name == "" {
			invalid++
			errs = append(errs, fmt.Sprintf("Invalid variable in %s: Variable with missing 'name' attribute", base(path)))
			continue
		}

		var issues []string
		if value, _ := el.Attr("value"); strings.TrimSpace(value) == "" {
			issues = append(issues, "empty value")
		}
		if vtype, _ := el.Attr("vtype"); strings.TrimSpace(vtype) == "" {
			issues = append(issues, "empty vtype")
		}
		if len(issues) == 0 {
			complete++
			continue
		}
		empty++
		warnings = append(warnings, fmt.Sprintf("Variable '%s' in %s has %s", name, base(path), strings.Join(issues, ", ")))
	}

	ctx.Log.Info("variables analyzed", "complete", complete, "empty", empty, "invalid", invalid)
	ctx.Metadata["variables_file_analyzed"] = path
	ctx.Metadata["total_variables"] = len(elements)
	ctx.Metadata["non_empty_variables"] = complete
	ctx.Metadata["empty_variables"] = empty
	ctx.Metadata["invalid_variables"] = invalid
	return errs, warnings, nil
}

func (v *Variable) Finalize(ctx *analyzer.Context) (map[string]any, error) {
	return map[string]any{
		"total_files_analyzed": ctx.FilesProcessed,
		"analysis_type":        "variable_definitions",
	}, nil
}
