package checks

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/jenian/atfcheck/internal/analyzer"
)

var criticalIgnores = []string{
	"__pycache__/",
	"*.pyc",
	"venv/",
	"env/",
	".env",
	".vscode/",
	".idea/",
	".DS_Store",
	"*.log",
}

var recommendedIgnores = []string{
	"*.py[cod]",
	"*$py.class",
	".venv/",
	"venv*",
	".pytest_cache/",
	".coverage",
	"htmlcov/",
	".tox/",
	"build/",
	"dist/",
	"*.egg-info/",
	"Thumbs.db",
	"*.tmp",
	"*.temp",
	"*.bak",
	"*~",
	"reports/",
	"test-results/",
	"screenshots/",
	"local.properties",
	".local",
	"node_modules/",
	"*.db",
	"*.sqlite",
	"*.sqlite3",
}

var frameworkIgnores = []string{"Screenshots/", "TestResults/", "logs/", "temp/", "output/"}

const (
	maxRecommendedWarnings = 5
	maxFrameworkWarnings   = 3
)

// Gitignore checks that the repository ignores build, editor and run artifacts
type Gitignore struct {
	analyzer.Base
}

func NewGitignore() *Gitignore {
	return &Gitignore{}
}

func (g *Gitignore) Name() string { return "Gitignore Validation Analyzer" }

func (g *Gitignore) Description() string {
	return "Validates that .gitignore file exists and contains critical entries for Python automation framework projects"
}

func (g *Gitignore) PerformAnalysis(ctx *analyzer.Context) ([]string, []string, error) {
	path := ctx.Config.Resolve(".gitignore")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []string{"CRITICAL: .gitignore file is missing from repository root. " +
			"This file is essential for maintaining a clean repository and " +
			"preventing sensitive or temporary files from being tracked."}, nil, nil
	}
	if err != nil {
		return []string{fmt.Sprintf("Failed to read .gitignore file: %v", err)}, nil, nil
	}
	ctx.FilesProcessed = 1

	lines := ignoreLines(data)

	var errs, warnings []string
	for _, entry := range criticalIgnores {
		if !entryCovered(entry, lines) {
			errs = append(errs, fmt.Sprintf("CRITICAL: Missing essential .gitignore entry: %s. "+
				"This entry is required for Python automation projects.", entry))
		}
	}

	var recommended []string
	for _, entry := range recommendedIgnores {
		if !entryCovered(entry, lines) {
			recommended = append(recommended, fmt.Sprintf("RECOMMENDED: Consider adding .gitignore entry: %s. "+
				"This entry helps maintain a cleaner repository.", entry))
		}
	}
	warnings = append(warnings, capped(recommended, maxRecommendedWarnings)...)

	var framework []string
	for _, entry := range frameworkIgnores {
		if !entryCovered(strings.ToLower(entry), lines) {
			framework = append(framework, fmt.Sprintf("FRAMEWORK: Consider adding '%s' for automation artifacts", entry))
		}
	}
	warnings = append(warnings, capped(framework, maxFrameworkWarnings)...)

	return errs, warnings, nil
}

func (g *Gitignore) Finalize(ctx *analyzer.Context) (map[string]any, error) {
	path := ctx.Config.Resolve(".gitignore")
	metadata := map[string]any{
		"critical_entries_checked":    len(criticalIgnores),
		"recommended_entries_checked": len(recommendedIgnores),
	}

	data, err := os.ReadFile(path)
	metadata["gitignore_exists"] = err == nil
	if err == nil {
		metadata["gitignore_lines"] = len(strings.Split(strings.TrimSuffix(string(data), "\n"), "\n"))
		metadata["gitignore_size_bytes"] = len(data)
	}
	return metadata, nil
}

// ignoreLines returns the trimmed, non-empty, non-comment lines of a .gitignore
func ignoreLines(data []byte) []string {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// entryCovered reports whether entry is listed literally or covered by a wildcard line
func entryCovered(entry string, lines []string) bool {
	entry = strings.ToLower(entry)
	for _, line := range lines {
		line = strings.ToLower(line)
		if line == entry {
			return true
		}

		if strings.Contains(line, "*") {
			if strings.HasSuffix(entry, "/") && line == strings.TrimRight(entry, "/")+"*" {
				return true
			}
			if stem := strings.Trim(strings.ReplaceAll(line, "*", ""), "/"); strings.Contains(entry, stem) {
				return true
			}
			if strings.Contains(strings.ReplaceAll(line, "*", ""), strings.ReplaceAll(entry, "/", "")) {
				return true
			}
		}

		if strings.HasSuffix(entry, "/") && strings.HasSuffix(line, "*") {
			entryBase := strings.TrimRight(entry, "/")
			lineBase := strings.TrimRight(line, "*")
			if strings.HasPrefix(entryBase, lineBase) || strings.HasPrefix(lineBase, entryBase) {
				return true
			}
		}

		if strings.HasSuffix(entry, "/") && strings.HasSuffix(line, "/") &&
			strings.TrimRight(entry, "/") == strings.TrimRight(line, "/") {
			return true
		}
	}
	return false
}

func capped(items []string, limit int) []string {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
