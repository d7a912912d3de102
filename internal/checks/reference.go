package checks

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/jenian/atfcheck/internal/analyzer"
	"github.com/jenian/atfcheck/internal/xmltree"
)

// Status is the outcome of resolving one test case reference
type Status string

const (
	StatusFound        Status = "Found"
	StatusNotFound     Status = "Test Not Found"
	StatusFileNotFound Status = "Test File Not Found"
	StatusParseError   Status = "XML Parse Error"
)

// Resolution is one test case reference from a suite and how it resolved
type Resolution struct {
	Suite  string
	File   string
	Case   string
	Status Status
}

// caseSet holds the test case names of one referenced file, loaded once
type caseSet struct {
	once   sync.Once
	names  map[string]bool
	status Status
}

// suiteResult is what a worker reports for one suite file
type suiteResult struct {
	index       int
	suite       string
	resolutions []Resolution
	err         error
}

// workerPanic is a panic recovered while a worker validated one suite
type workerPanic struct {
	suite string
	value any
	stack []byte
}

func (p *workerPanic) Error() string {
	return fmt.Sprintf("panic while validating %s: %v", base(p.suite), p.value)
}

// Reference checks that every test case referenced by a suite exists
type Reference struct {
	xml *xmltree.Parser

	mu    sync.Mutex
	cases map[string]*caseSet
}

func NewReference(xml *xmltree.Parser) *Reference {
	return &Reference{xml: xml, cases: make(map[string]*caseSet)}
}

func (r *Reference) Name() string { return "Test Reference Analyzer" }

func (r *Reference) Description() string {
	return "Validates that all test case references in test suites point to existing test cases and checks for broken dependencies"
}

func (r *Reference) Prepare(ctx *analyzer.Context) error {
	r.mu.Lock()
	r.cases = make(map[string]*caseSet)
	r.mu.Unlock()
	return nil
}

func (r *Reference) PerformAnalysis(ctx *analyzer.Context) ([]string, []string, error) {
	cfg := ctx.Config
	suitesDir := cfg.Resolve(cfg.Directories.TestSuites)
	casesDir := cfg.Resolve(cfg.Directories.TestCases)

	var errs, warnings []string
	if msg := analyzer.ValidateDirectory(suitesDir, "test suites directory"); msg != "" {
		errs = append(errs, msg)
	}
	if msg := analyzer.ValidateDirectory(casesDir, "test cases directory"); msg != "" {
		errs = append(errs, msg)
	}
	if len(errs) > 0 {
		return errs, warnings, nil
	}

	suites, err := ctx.ListFiles(suitesDir, cfg.XMLFilePatterns...)
	if err != nil {
		return nil, nil, err
	}
	if len(suites) == 0 {
		return nil, []string{"No test suite files found to analyze"}, nil
	}
	ctx.TotalFiles = len(suites)

	results, err := r.validateSuites(suites, casesDir, cfg.Workers)
	if err != nil {
		var wp *workerPanic
		if errors.As(err, &wp) {
			ctx.Log.Error("validation worker panicked", "file", wp.suite, "panic", wp.value, "stack", string(wp.stack))
		}
		return nil, nil, err
	}

	var all []Resolution
	notFound, failures := 0, 0
	for _, res := range results {
		if res.err != nil {
			ctx.Log.Warn("failed to parse test suite", "file", res.suite, "error", res.err)
			errs = append(errs, fmt.Sprintf("Failed to parse test suite %s: %v", base(res.suite), cause(res.err)))
			failures++
			continue
		}
		ctx.FilesProcessed++

		for _, ref := range res.resolutions {
			all = append(all, ref)
			switch ref.Status {
			case StatusNotFound:
				notFound++
				errs = append(errs, fmt.Sprintf("Test case '%s' not found in file '%s' (referenced in %s)",
					ref.Case, ref.File, base(ref.Suite)))
			case StatusFileNotFound:
				failures++
				errs = append(errs, fmt.Sprintf("Test case file '%s' not found (referenced in %s)",
					ref.File, base(ref.Suite)))
			case StatusParseError:
				failures++
				warnings = append(warnings, fmt.Sprintf("Failed to parse test file '%s' (referenced in %s)",
					ref.File, base(ref.Suite)))
			}
		}
	}

	if msg := analyzer.CheckThreshold(notFound, "max_validation_not_found",
		cfg.Thresholds.MaxValidationNotFound, "missing test case references"); msg != "" {
		errs = append(errs, msg)
	}
	if msg := analyzer.CheckThreshold(failures, "max_validation_errors",
		cfg.Thresholds.MaxValidationErrors, "test reference validation errors"); msg != "" {
		errs = append(errs, msg)
	}

	ctx.Metadata["suite_files_analyzed"] = len(suites)
	ctx.Metadata["total_references_checked"] = len(all)
	ctx.Metadata["validation_results"] = summarize(all)
	return errs, warnings, nil
}

// Finalize drops the case name cache so the next run sees fresh files
func (r *Reference) Finalize(ctx *analyzer.Context) (map[string]any, error) {
	r.mu.Lock()
	cleared := len(r.cases)
	r.cases = make(map[string]*caseSet)
	r.mu.Unlock()

	return map[string]any{
		"total_files_analyzed":  ctx.FilesProcessed,
		"analysis_type":         "test_references",
		"cache_entries_cleared": cleared,
	}, nil
}

// validateSuites resolves the references of every suite on a pool of workers.
// Results come back in suite order. A panic in any worker is returned as an
// error once every suite has been handled.
func (r *Reference) validateSuites(suites []string, casesDir string, workers int) ([]suiteResult, error) {
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	out := make(chan suiteResult, len(suites))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out <- r.runJob(i, suites[i], casesDir)
			}
		}()
	}

	for i := range suites {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(out)

	results := make([]suiteResult, len(suites))
	for res := range out {
		results[res.index] = res
	}
	for _, res := range results {
		var wp *workerPanic
		if errors.As(res.err, &wp) {
			return nil, wp
		}
	}
	return results, nil
}

func (r *Reference) runJob(i int, suite, casesDir string) (res suiteResult) {
	res = suiteResult{index: i, suite: suite}
	defer func() {
		if v := recover(); v != nil {
			res.resolutions = nil
			res.err = &workerPanic{suite: suite, value: v, stack: debug.Stack()}
		}
	}()
	res.resolutions, res.err = r.validateSuite(suite, casesDir)
	return res
}

func (r *Reference) validateSuite(suite, casesDir string) ([]Resolution, error) {
	refs, err := r.xml.ExtractByTag(suite, "test-case")
	if err != nil {
		return nil, err
	}

	var resolutions []Resolution
	for _, ref := range refs {
		file, _ := ref.Attr("test-case-file")
		name, _ := ref.Attr("test-case-name")
		if file == "" || name == "" {
			continue
		}
		resolutions = append(resolutions, Resolution{
			Suite:  suite,
			File:   file,
			Case:   name,
			Status: r.Resolve(casesDir, file, name),
		})
	}
	return resolutions, nil
}

// Resolve reports whether test case name exists in file under casesDir.
// A file name without the .xml extension is retried with it.
func (r *Reference) Resolve(casesDir, file, name string) Status {
	set := r.load(resolveCaseFile(casesDir, file))
	if set.status != StatusFound {
		return set.status
	}
	if set.names[name] {
		return StatusFound
	}
	return StatusNotFound
}

func resolveCaseFile(casesDir, file string) string {
	path := filepath.Join(casesDir, file)
	if _, err := os.Stat(path); err != nil && !strings.HasSuffix(strings.ToLower(file), ".xml") {
		return path + ".xml"
	}
	return path
}

// load returns the case names of path, parsing it at most once per run
func (r *Reference) load(path string) *caseSet {
	r.mu.Lock()
	set, ok := r.cases[path]
	if !ok {
		set = &caseSet{}
		r.cases[path] = set
	}
	r.mu.Unlock()

	set.once.Do(func() {
		names, err := r.xml.ExtractAttributeValues(path, "test-case", "name")
		if err != nil {
			var nf *xmltree.NotFoundError
			if errors.As(err, &nf) {
				set.status = StatusFileNotFound
			} else {
				set.status = StatusParseError
			}
			return
		}
		set.names = make(map[string]bool, len(names))
		for _, n := range names {
			set.names[n] = true
		}
		set.status = StatusFound
	})
	return set
}

func summarize(all []Resolution) map[string]int {
	summary := map[string]int{
		"total_references": len(all),
		"found":            0,
		"not_found":        0,
		"file_not_found":   0,
		"parse_errors":     0,
	}
	for _, ref := range all {
		switch ref.Status {
		case StatusFound:
			summary["found"]++
		case StatusNotFound:
			summary["not_found"]++
		case StatusFileNotFound:
			summary["file_not_found"]++
		case StatusParseError:
			summary["parse_errors"]++
		}
	}
	return summary
}
