package checks

import (
	"fmt"

	"github.com/jenian/atfcheck/internal/analyzer"
	"github.com/jenian/atfcheck/internal/xmltree"
)

// Skip counts elements carrying skip="true" in each XML artifact category
type Skip struct {
	analyzer.Base
	xml *xmltree.Parser
}

func NewSkip(xml *xmltree.Parser) *Skip {
	return &Skip{xml: xml}
}

func (s *Skip) Name() string { return "Skip Element Analyzer" }

func (s *Skip) Description() string {
	return "Detects XML elements with skip='true' attributes in test cases, app modules, and test suites, ensuring skip counts stay within thresholds"
}

func (s *Skip) PerformAnalysis(ctx *analyzer.Context) ([]string, []string, error) {
	cfg := ctx.Config
	categories := []struct {
		dir       artifactDir
		max       int
		threshold string
	}{
		{artifactDir{cfg.Resolve(cfg.Directories.TestCases), "test cases"}, cfg.Thresholds.MaxSkipsTestCases, "max_skips_test_cases"},
		{artifactDir{cfg.Resolve(cfg.Directories.AppModules), "app modules"}, cfg.Thresholds.MaxSkipsAppModules, "max_skips_app_modules"},
		{artifactDir{cfg.Resolve(cfg.Directories.TestSuites), "test suites"}, cfg.Thresholds.MaxSkipsTestSuites, "max_skips_test_suites"},
	}

	var errs, warnings []string
	totals := make(map[string]int)
	filesWithSkips := make(map[string]map[string]int)
	all := 0

	for _, c := range categories {
		if msg := analyzer.ValidateDirectory(c.dir.path, c.dir.category+" directory"); msg != "" {
			warnings = append(warnings, msg)
			continue
		}

		files, err := ctx.ListFiles(c.dir.path, cfg.XMLFilePatterns...)
		if err != nil {
			errs = append(errs, fmt.Sprintf("Skip analysis failed for %s: %v", c.dir.category, err))
			continue
		}

		total := 0
		perFile := make(map[string]int)
		for _, file := range files {
			root, err := s.xml.Parse(file)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("Failed to parse %s file %s: %v", c.dir.category, base(file), cause(err)))
				continue
			}
			ctx.FilesProcessed++

			n := CountSkips(root)
			if n > 0 {
				ctx.Log.Debug("found skipped elements", "file", base(file), "count", n)
				perFile[base(file)] = n
				total += n
			}
		}

		totals[c.dir.category] = total
		filesWithSkips[c.dir.category] = perFile
		all += total

		if msg := analyzer.CheckThreshold(total, c.threshold, c.max, "skipped elements in "+c.dir.category); msg != "" {
			errs = append(errs, msg)
		}
	}

	ctx.Metadata["skip_totals_by_category"] = totals
	ctx.Metadata["files_with_skips_by_category"] = filesWithSkips
	ctx.Metadata["total_skips_all_categories"] = all
	return errs, warnings, nil
}

func (s *Skip) Finalize(ctx *analyzer.Context) (map[string]any, error) {
	return map[string]any{
		"total_files_analyzed": ctx.FilesProcessed,
		"analysis_type":        "skip_elements",
	}, nil
}

// CountSkips returns the number of elements in the tree whose skip attribute is exactly "true"
func CountSkips(root *xmltree.Element) int {
	return root.Count(func(el *xmltree.Element) bool {
		v, _ := el.Attr("skip")
		return v == "true"
	})
}
