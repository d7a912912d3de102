package checks

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jenian/atfcheck/internal/analyzer"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const minReadmeLength = 100

// requirement is something the README must mention, found by any of its patterns
type requirement struct {
	name        string
	description string
	patterns    []*regexp.Regexp
}

func (r requirement) foundIn(content string) bool {
	for _, p := range r.patterns {
		if p.MatchString(content) {
			return true
		}
	}
	return false
}

func mustPatterns(exprs ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		patterns[i] = regexp.MustCompile(`(?i)` + expr)
	}
	return patterns
}

var readmeSections = []requirement{
	{"description", "Project description section", mustPatterns(`#\s*description`, `#.*canvas.*automation`, `description`)},
	{"features", "Key features or functionalities section", mustPatterns(`#\s*key\s*features`, `#\s*features`, `functionalities`)},
	{"requirements", "Requirements and dependencies section", mustPatterns(`#\s*requirements`, `#\s*getting\s*started`, `python.*version`, `java.*version`)},
	{"installation", "Installation instructions section", mustPatterns(`#\s*fresh\s*install`, `#\s*install`, `clone.*repo`, `pip.*install`, `venv`)},
	{"contribute", "Contribution guidelines section", mustPatterns(`#\s*contribute`, `#\s*contributing`, `pull.*request`)},
}

var readmeLinks = []requirement{
	{"contributing_guidelines", "Link to CONTRIBUTING.md or Contributing Guidelines", mustPatterns(`contributing.*guidelines`, `CONTRIBUTING\.md`)},
	{"conventional_commits", "Link to Conventional Commits documentation", mustPatterns(`conventional.*commits`, `conventional-commits`)},
	{"branch_strategy", "Link to Branch Strategy and git Flow documentation", mustPatterns(`branch.*strategy`, `git.*flow`, `branching.*strategy`)},
}

var readmeInfo = []requirement{
	{"python_version", "Python version specification", mustPatterns(`python.*version.*\d+\.\d+`, `python.*\d+\.\d+`)},
	{"framework_info", "Information about automation framework used", mustPatterns(`scriptless`, `robot.*framework`, `selenium`)},
	{"execution_info", "Test execution instructions", mustPatterns(`execution`, `run.*test`, `execute.*test`, `test.*script`)},
}

const maxStructureWarnings = 3

// Readme checks that README.md exists and documents the project
type Readme struct {
	analyzer.Base
}

// outline is what the markdown AST says about a README
type outline struct {
	headings   int
	codeBlocks int
	codeSpans  int
	links      int
	badges     int
}

func NewReadme() *Readme {
	return &Readme{}
}

func (r *Readme) Name() string { return "README Documentation Analyzer" }

func (r *Readme) Description() string {
	return "Validates that README.md file exists and contains required information for automation framework projects"
}

func (r *Readme) PerformAnalysis(ctx *analyzer.Context) ([]string, []string, error) {
	path := ctx.Config.Resolve("README.md")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []string{"CRITICAL: README.md file is missing from repository root. " +
			"This file is essential for documenting the project, its purpose, " +
			"installation steps, and usage instructions."}, nil, nil
	}
	if err != nil {
		return []string{fmt.Sprintf("Failed to read README.md file: %v", err)}, nil, nil
	}

	content := string(data)
	if utf8.RuneCountInString(strings.TrimSpace(content)) < minReadmeLength {
		return []string{fmt.Sprintf("CRITICAL: README.md file is too short (less than %d characters). "+
			"The README should contain comprehensive project documentation.", minReadmeLength)}, nil, nil
	}
	ctx.FilesProcessed = 1

	var errs, warnings []string
	for _, s := range readmeSections {
		if !s.foundIn(content) {
			errs = append(errs, fmt.Sprintf("MISSING SECTION: README.md lacks required '%s' section. "+
				"This section should contain: %s", s.name, s.description))
		}
	}
	for _, l := range readmeLinks {
		if !l.foundIn(content) {
			warnings = append(warnings, fmt.Sprintf("MISSING LINK: README.md should include %s. "+
				"This helps contributors understand project guidelines.", l.description))
		}
	}
	for _, i := range readmeInfo {
		if !i.foundIn(content) {
			warnings = append(warnings, fmt.Sprintf("MISSING INFO: README.md should specify %s. "+
				"This helps users understand technical requirements.", i.description))
		}
	}

	warnings = append(warnings, structureWarnings(content, parseOutline(data))...)
	return errs, warnings, nil
}

func (r *Readme) Finalize(ctx *analyzer.Context) (map[string]any, error) {
	metadata := map[string]any{
		"required_sections_checked": len(readmeSections),
		"required_links_checked":    len(readmeLinks),
		"required_info_checked":     len(readmeInfo),
	}

	data, err := os.ReadFile(ctx.Config.Resolve("README.md"))
	metadata["readme_exists"] = err == nil
	if err != nil {
		return metadata, nil
	}

	o := parseOutline(data)
	metadata["readme_lines"] = len(strings.Split(strings.TrimSuffix(string(data), "\n"), "\n"))
	metadata["readme_size_bytes"] = len(data)
	metadata["readme_characters"] = utf8.RuneCount(data)
	metadata["headings_count"] = o.headings
	metadata["code_blocks_count"] = o.codeBlocks
	metadata["links_count"] = o.links
	return metadata, nil
}

// parseOutline walks the markdown AST of src
func parseOutline(src []byte) outline {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var o outline
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			o.headings++
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			o.codeBlocks++
		case *ast.CodeSpan:
			o.codeSpans++
		case *ast.Link:
			o.links++
			if _, ok := node.FirstChild().(*ast.Image); ok {
				o.badges++
			}
		}
		return ast.WalkContinue, nil
	})
	return o
}

func structureWarnings(content string, o outline) []string {
	lower := strings.ToLower(content)

	var warnings []string
	if o.headings < 3 {
		warnings = append(warnings, "STRUCTURE: README.md should have more section headings for better organization. "+
			"Consider adding clear sections for different topics.")
	}
	if strings.Contains(lower, "install") && o.codeBlocks == 0 && o.codeSpans == 0 {
		warnings = append(warnings, "FORMATTING: Consider using code blocks (```) for installation commands "+
			"to improve readability.")
	}
	if strings.Count(content, "\n")+1 > 50 && !strings.Contains(lower, "table of contents") && !strings.Contains(lower, "toc") {
		warnings = append(warnings, "NAVIGATION: Consider adding a Table of Contents for this long README "+
			"to improve navigation.")
	}
	if o.badges == 0 && !strings.Contains(lower, "badge") {
		warnings = append(warnings, "ENHANCEMENT: Consider adding status badges (build status, version, etc.) "+
			"to provide quick project health indicators.")
	}
	return capped(warnings, maxStructureWarnings)
}
