package checks

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jenian/atfcheck/internal/analyzer"
	"github.com/jenian/atfcheck/internal/endpoint"
	"github.com/jenian/atfcheck/internal/xmltree"
)

// Duplicate detects API endpoint values defined under several names, XML
// elements sharing a name within one file and repeated dataset keys.
type Duplicate struct {
	analyzer.Base
	xml       *xmltree.Parser
	endpoints *endpoint.Parser
}

func NewDuplicate(xml *xmltree.Parser, endpoints *endpoint.Parser) *Duplicate {
	return &Duplicate{xml: xml, endpoints: endpoints}
}

func (d *Duplicate) Name() string { return "Duplicate Content Analyzer" }

func (d *Duplicate) Description() string {
	return "Detects duplicate API endpoints, XML elements, and dataset keys across the automation framework"
}

func (d *Duplicate) PerformAnalysis(ctx *analyzer.Context) ([]string, []string, error) {
	var errs, warnings []string

	e, w := d.checkEndpoints(ctx)
	errs = append(errs, e...)
	warnings = append(warnings, w...)

	e, w = d.checkXMLElements(ctx)
	errs = append(errs, e...)
	warnings = append(warnings, w...)

	e, w = d.checkDataset(ctx)
	errs = append(errs, e...)
	warnings = append(warnings, w...)

	return errs, warnings, nil
}

func (d *Duplicate) Finalize(ctx *analyzer.Context) (map[string]any, error) {
	return map[string]any{
		"total_files_analyzed": ctx.FilesProcessed,
		"analysis_type":        "duplicate_content",
	}, nil
}

func (d *Duplicate) checkEndpoints(ctx *analyzer.Context) (errs, warnings []string) {
	cfg := ctx.Config
	dir := cfg.Resolve(cfg.Directories.APIConstants)
	if msg := analyzer.ValidateDirectory(dir, "API constants directory"); msg != "" {
		return []string{msg}, nil
	}

	skip := func(path string, err error) {
		ctx.Log.Warn("failed to read endpoint file", "file", path, "error", err)
		warnings = append(warnings, fmt.Sprintf("Failed to parse endpoint file %s: %v", base(path), err))
	}

	seen := make(map[string]bool)
	var groups []*endpoint.Group
	for _, pattern := range cfg.PythonFilePatterns {
		found, err := d.endpoints.ParseDirectory(dir, pattern, skip)
		if err != nil {
			return append(errs, fmt.Sprintf("Failed to scan API constants: %v", err)), warnings
		}
		for _, g := range found {
			if seen[g.Path] || cfg.IsExcludedFile(g.Path) {
				continue
			}
			seen[g.Path] = true
			groups = append(groups, g)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Path < groups[j].Path })
	ctx.FilesProcessed += len(groups)

	total := 0
	for _, g := range groups {
		for _, value := range g.DuplicateValues() {
			errs = append(errs, fmt.Sprintf("Duplicate endpoint value '%s' found in %s: %s",
				value, base(g.Path), strings.Join(g.Duplicates[value], ", ")))
			total++
		}
	}

	global := endpoint.FindGlobalDuplicates(groups)
	values := make([]string, 0, len(global))
	for v := range global {
		values = append(values, v)
	}
	sort.Strings(values)

	for _, value := range values {
		eps := global[value]
		// Repeats inside a single file were reported above
		if len(endpoint.Files(eps)) < 2 {
			continue
		}
		locations := make([]string, len(eps))
		for i, ep := range eps {
			locations[i] = fmt.Sprintf("%s(%s)", ep.Name, base(ep.Path))
		}
		errs = append(errs, fmt.Sprintf("Endpoint value '%s' duplicated across files: %s",
			value, strings.Join(locations, ", ")))
		total++
	}

	if msg := analyzer.CheckThreshold(total, "max_duplicate_endpoints",
		cfg.Thresholds.MaxDuplicateEndpoints, "duplicate endpoints"); msg != "" {
		errs = append(errs, msg)
	}

	ctx.Metadata["endpoint_files_processed"] = len(groups)
	ctx.Metadata["total_endpoint_duplicates"] = total
	return errs, warnings
}

func (d *Duplicate) checkXMLElements(ctx *analyzer.Context) (errs, warnings []string) {
	cfg := ctx.Config
	checks := []struct {
		dir artifactDir
		tag string
	}{
		{artifactDir{cfg.Resolve(cfg.Directories.TestCases), "test cases"}, "test-case"},
		{artifactDir{cfg.Resolve(cfg.Directories.TestSuites), "test suites"}, "test-suite"},
		{artifactDir{cfg.Resolve(cfg.Directories.AppModules), "app modules"}, "app-module"},
	}

	filesWithDuplicates := 0
	for _, c := range checks {
		if msg := analyzer.ValidateDirectory(c.dir.path, c.dir.category+" directory"); msg != "" {
			warnings = append(warnings, msg)
			continue
		}

		files, err := ctx.ListFiles(c.dir.path, cfg.XMLFilePatterns...)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}

		for _, file := range files {
			names, err := d.xml.ExtractAttributeValues(file, c.tag, "name")
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("Failed to parse XML file %s: %v", ctx.Rel(file), cause(err)))
				continue
			}
			ctx.FilesProcessed++

			dups := repeated(names)
			for _, dup := range dups {
				errs = append(errs, fmt.Sprintf("Duplicate %s name '%s' found %d times in %s",
					c.tag, dup.value, dup.count, base(file)))
			}
			if len(dups) > 0 {
				filesWithDuplicates++
			}
		}
	}

	if msg := analyzer.CheckThreshold(filesWithDuplicates, "max_duplicate_xml_elements",
		cfg.Thresholds.MaxDuplicateXMLElements, "files with duplicate XML elements"); msg != "" {
		errs = append(errs, msg)
	}

	ctx.Metadata["xml_duplicate_files"] = filesWithDuplicates
	return errs, warnings
}

func (d *Duplicate) checkDataset(ctx *analyzer.Context) (errs, warnings []string) {
	cfg := ctx.Config
	dir := cfg.Resolve(cfg.Directories.Dataset)
	if msg := analyzer.ValidateDirectory(dir, "dataset directory"); msg != "" {
		return nil, []string{msg}
	}

	files, err := ctx.ListFiles(dir, cfg.XMLFilePatterns...)
	if err != nil {
		return nil, []string{err.Error()}
	}

	analyzed := 0
	for _, file := range files {
		if cfg.IsDatasetExcluded(file) {
			ctx.Log.Debug("skipping excluded dataset file", "file", file)
			continue
		}

		records, err := d.xml.Records(file)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to parse dataset file %s: %v", ctx.Rel(file), cause(err)))
			continue
		}
		ctx.FilesProcessed++
		analyzed++

		for _, key := range cfg.DatasetKeys {
			values := make([]string, 0, len(records))
			for _, record := range records {
				values = append(values, record[key])
			}
			for _, dup := range repeated(values) {
				errs = append(errs, fmt.Sprintf("Duplicate %s '%s' found %d times in %s",
					key, dup.value, dup.count, base(file)))
			}
		}
	}

	ctx.Metadata["dataset_files_analyzed"] = analyzed
	return errs, warnings
}
