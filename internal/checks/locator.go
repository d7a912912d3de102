package checks

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jenian/atfcheck/internal/analyzer"
	"github.com/jenian/atfcheck/internal/xmltree"
)

var locatorParameterNames = map[string]bool{
	"locator":         true,
	"css":             true,
	"xpath":           true,
	"element_locator": true,
	"selector":        true,
	"element_xpath":   true,
	"element_css":     true,
	"locator_path":    true,
}

var locatorKeywords = []string{"locator", "xpath", "css", "selector", "element"}

var directLocatorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^//`),       // XPath from document root
	regexp.MustCompile(`^/`),        // Absolute XPath
	regexp.MustCompile(`^xpath:`),   // Prefixed XPath
	regexp.MustCompile(`^css:`),     // Prefixed CSS
	regexp.MustCompile(`^id:`),      // Prefixed id
	regexp.MustCompile(`^name:`),    // Prefixed name
	regexp.MustCompile(`^\[.*\]$`),  // CSS attribute selector
	regexp.MustCompile(`^\.[\w-]+`), // CSS class selector
	regexp.MustCompile(`^#[\w-]+`),  // CSS id selector
	regexp.MustCompile(`\[@.*\]`),   // XPath attribute predicate
}

// pageObjectReference matches <%elm:PageObjectFile:ElementName%>, decoded or still escaped
var pageObjectReference = regexp.MustCompile(`^(<|&lt;)%elm:.*%(>|&gt;)$`)

// Locator flags raw XPath and CSS locators used outside page object files
type Locator struct {
	analyzer.Base
	xml *xmltree.Parser
}

func NewLocator(xml *xmltree.Parser) *Locator {
	return &Locator{xml: xml}
}

func (l *Locator) Name() string { return "Locator Validation Analyzer" }

func (l *Locator) Description() string {
	return "Validates that locators (XPATH, CSS, etc.) are only defined in page object files and not directly in app modules or test cases"
}

func (l *Locator) PerformAnalysis(ctx *analyzer.Context) ([]string, []string, error) {
	cfg := ctx.Config
	dirs := []artifactDir{
		{cfg.Resolve(cfg.Directories.AppModules), "app modules"},
		{cfg.Resolve(cfg.Directories.TestCases), "test cases"},
	}

	var errs, warnings []string
	for _, dir := range dirs {
		dirErrs, dirWarnings := l.checkDirectory(ctx, dir)
		errs = append(errs, dirErrs...)
		warnings = append(warnings, dirWarnings...)
	}

	if msg := analyzer.CheckThreshold(len(errs), "max_direct_locators",
		cfg.Thresholds.MaxDirectLocators, "direct locator violations"); msg != "" {
		errs = append(errs, msg)
	}
	return errs, warnings, nil
}

func (l *Locator) Finalize(ctx *analyzer.Context) (map[string]any, error) {
	cfg := ctx.Config
	names := make([]string, 0, len(locatorParameterNames))
	for name := range locatorParameterNames {
		names = append(names, name)
	}
	sort.Strings(names)

	return map[string]any{
		"directories_analyzed": []string{
			cfg.Resolve(cfg.Directories.AppModules),
			cfg.Resolve(cfg.Directories.TestCases),
		},
		"locator_parameter_names": names,
		"pattern_count":           len(directLocatorPatterns),
	}, nil
}

// checkDirectory returns the violations found in dir. Files that fail to parse
// become warnings and never count toward the threshold.
func (l *Locator) checkDirectory(ctx *analyzer.Context, dir artifactDir) (errs, warnings []string) {
	if msg := analyzer.ValidateDirectory(dir.path, dir.category+" directory"); msg != "" {
		return []string{msg}, nil
	}

	files, err := ctx.ListFiles(dir.path, ctx.Config.XMLFilePatterns...)
	if err != nil {
		return []string{err.Error()}, nil
	}
	ctx.Log.Info("checking locators", "category", dir.category, "files", len(files))

	for _, file := range files {
		root, err := l.xml.Parse(file)
		if err != nil {
			ctx.Log.Warn("failed to parse XML file", "file", file, "error", err)
			warnings = append(warnings, fmt.Sprintf("Failed to parse XML file %s: %v", ctx.Rel(file), cause(err)))
			continue
		}
		ctx.FilesProcessed++

		root.Walk(func(el *xmltree.Element) {
			if el.Tag != "parameter" {
				return
			}
			name, hasName := el.Attr("name")
			value, hasValue := el.Attr("value")
			if !hasName || !hasValue {
				return
			}
			if IsLocatorParameter(name) && IsDirectLocator(value) {
				errs = append(errs, fmt.Sprintf("Direct locator found in %s file '%s': parameter '%s' contains '%s'. "+
					"Use <%%elm:PageObjectFile:ElementName%%> reference instead.", dir.category, base(file), name, value))
			}
		})
	}
	return errs, warnings
}

// IsLocatorParameter reports whether a parameter name suggests it holds a locator
func IsLocatorParameter(name string) bool {
	name = strings.ToLower(name)
	if locatorParameterNames[name] {
		return true
	}
	for _, keyword := range locatorKeywords {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}

// IsDirectLocator reports whether value is a raw locator rather than a page object reference
func IsDirectLocator(value string) bool {
	if strings.TrimSpace(value) == "" || pageObjectReference.MatchString(value) {
		return false
	}
	for _, p := range directLocatorPatterns {
		if p.MatchString(value) {
			return true
		}
	}
	return false
}
