package checks

import (
	"strings"
	"testing"

	"github.com/jenian/atfcheck/internal/parser"
	"github.com/jenian/atfcheck/internal/xmltree"
)

func TestSkip_CountsPerCategory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Tests/test_cases/a.xml", `<test-cases skip="true">
  <test-case name="A" skip="true"><step skip="false"/><step skip="true"/></test-case>
</test-cases>`)
	writeFile(t, root, "Tests/test_cases/bad.xml", `<test-cases>`)
	writeFile(t, root, "Tests/test_suites/s.xml", `<test-suite><test-case skip="TRUE"/></test-suite>`)
	cfg := loadConfig(t, root)
	cfg.Thresholds.MaxSkipsTestCases = 2

	result := analyze(t, NewSkip(xmltree.NewParser()), cfg)

	expected := "Too many skipped elements in test cases found (3 > 2). Threshold: max_skips_test_cases"
	if len(result.Errors) != 1 || result.Errors[0] != expected {
		t.Errorf("Expected [%s], got %v", expected, result.Errors)
	}

	totals := result.Metadata["skip_totals_by_category"].(map[string]int)
	if totals["test cases"] != 3 || totals["test suites"] != 0 {
		t.Errorf("Unexpected totals %v", totals)
	}
	if _, ok := totals["app modules"]; ok {
		t.Error("Expected missing app modules directory to be left out of totals")
	}

	var parseWarning, dirWarning bool
	for _, w := range result.Warnings {
		parseWarning = parseWarning || strings.HasPrefix(w, "Failed to parse test cases file bad.xml")
		dirWarning = dirWarning || strings.HasPrefix(w, "Required directory does not exist")
	}
	if !parseWarning || !dirWarning {
		t.Errorf("Expected parse and directory warnings, got %v", result.Warnings)
	}
}

func TestVariable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Tests/resources/variable/var.xml", `<variables>
  <variable name="url" value="https://qa" vtype="string"/>
  <variable value="orphan" vtype="string"/>
  <variable name="user" value="  " vtype=""/>
  <variable name="pass" value="secret"/>
</variables>`)
	cfg := loadConfig(t, root)

	result := analyze(t, NewVariable(xmltree.NewParser()), cfg)

	if len(result.Errors) != 1 || result.Errors[0] != "Invalid variable in var.xml: Variable with missing 'name' attribute" {
		t.Errorf("Unexpected errors %v", result.Errors)
	}
	expected := []string{
		"Variable 'user' in var.xml has empty value, empty vtype",
		"Variable 'pass' in var.xml has empty vtype",
	}
	if strings.Join(result.Warnings, "\n") != strings.Join(expected, "\n") {
		t.Errorf("Expected warnings %v, got %v", expected, result.Warnings)
	}
	if result.Metadata["total_variables"] != 4 || result.Metadata["non_empty_variables"] != 1 {
		t.Errorf("Unexpected metadata %v", result.Metadata)
	}
}

func TestVariable_MissingAndEmpty(t *testing.T) {
	root := t.TempDir()
	cfg := loadConfig(t, root)

	result := analyze(t, NewVariable(xmltree.NewParser()), cfg)
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "Required file does not exist") {
		t.Errorf("Expected missing file error, got %v", result.Errors)
	}

	writeFile(t, root, "Tests/resources/variable/var.xml", `<variables/>`)
	result = analyze(t, NewVariable(xmltree.NewParser()), cfg)
	if !result.Success || len(result.Warnings) != 1 || result.Warnings[0] != "No variable elements found in var.xml" {
		t.Errorf("Expected a single warning, got errors %v warnings %v", result.Errors, result.Warnings)
	}
}

func TestNaming(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Tests/custom_methods/python_methods.py", `def good(engagement_id):
    pass

def bad(engagementId, eid, name):
    pass

class Helper:
    def method(self, Eng_ID):
        pass
`)
	writeFile(t, root, "Tests/custom_methods/helpers.go", `package helpers

func Lookup(engid string) {}
`)
	writeFile(t, root, "Tests/custom_methods/notes.txt", "def ignored(eid): pass")
	cfg := loadConfig(t, root)
	cfg.Thresholds.MaxInvalidEngagementParams = 2

	result := analyze(t, NewNaming(parser.NewParser()), cfg)

	expected := []string{
		"Too many invalid engagement parameter usages found (3 > 2). Threshold: max_invalid_engagement_params",
		"Invalid engagement parameter in Tests/custom_methods/helpers.go, function 'Lookup': [engid]",
		"Invalid engagement parameter in Tests/custom_methods/python_methods.py, function 'bad': [engagementId, eid]",
		"Invalid engagement parameter in Tests/custom_methods/python_methods.py, function 'method': [Eng_ID]",
	}
	if strings.Join(result.Errors, "\n") != strings.Join(expected, "\n") {
		t.Errorf("Expected %v, got %v", expected, result.Errors)
	}
	if len(result.Warnings) != 1 || result.Warnings[0] != "Found 3 functions with incorrect engagement parameter spelling" {
		t.Errorf("Unexpected warnings %v", result.Warnings)
	}
	if result.Metadata["files_processed"] != 2 {
		t.Errorf("Expected 2 source files processed, got %v", result.Metadata["files_processed"])
	}
	if result.Metadata["expected_parameter"] != "engagement_id" {
		t.Errorf("Unexpected expected_parameter %v", result.Metadata["expected_parameter"])
	}
}

func TestNaming_SyntaxErrorFailsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Tests/custom_methods/good.py", "def good(engagement_id):\n    pass\n")
	writeFile(t, root, "Tests/custom_methods/broken.py", "def broken(eid:\n    return (\n")

	result := analyze(t, NewNaming(parser.NewParser()), loadConfig(t, root))

	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "Failed to analyze Tests/custom_methods/broken.py: syntax error at line ") {
		t.Errorf("Expected a single analysis failure for broken.py, got %v", result.Errors)
	}
	if result.Metadata["files_processed"] != 1 {
		t.Errorf("Expected only good.py to be processed, got %v", result.Metadata["files_processed"])
	}
}

func TestNaming_MissingDirectory(t *testing.T) {
	result := analyze(t, NewNaming(parser.NewParser()), loadConfig(t, t.TempDir()))

	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "Required directory does not exist") {
		t.Errorf("Expected missing directory error, got %v", result.Errors)
	}
}

func TestIsLocatorParameter(t *testing.T) {
	tests := map[string]bool{
		"locator":       true,
		"XPath":         true,
		"button_css":    true,
		"ElementName":   true,
		"my_selector":   true,
		"timeout":       false,
		"username":      false,
		"expected_text": false,
	}
	for name, expected := range tests {
		if got := IsLocatorParameter(name); got != expected {
			t.Errorf("IsLocatorParameter(%q) = %v, expected %v", name, got, expected)
		}
	}
}

func TestIsDirectLocator(t *testing.T) {
	tests := map[string]bool{
		"//div[@id='x']":                 true,
		"/html/body":                     true,
		"xpath://a":                      true,
		"css:.btn":                       true,
		"id:submit":                      true,
		"name:q":                         true,
		"[data-test=save]":               true,
		".btn-primary":                   true,
		"#main":                          true,
		"button[@type='submit']":         true,
		"<%elm:LoginPage:Submit%>":       false,
		"&lt;%elm:LoginPage:Submit%&gt;": false,
		"":                               false,
		"   ":                            false,
		"Submit":                         false,
	}
	for value, expected := range tests {
		if got := IsDirectLocator(value); got != expected {
			t.Errorf("IsDirectLocator(%q) = %v, expected %v", value, got, expected)
		}
	}
}

func TestLocator(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Tests/app_modules/login.xml", `<app-module name="Login">
  <action>
    <parameter name="element_xpath" value="//input[@name='user']"/>
    <parameter name="locator" value="&lt;%elm:LoginPage:User%&gt;"/>
    <parameter name="text" value="//not-a-locator-param"/>
    <parameter name="css"/>
  </action>
</app-module>`)
	writeFile(t, root, "Tests/test_cases/case.xml", `<test-cases>
  <test-case name="A"><parameter name="Selector" value="#save"/></test-case>
</test-cases>`)
	cfg := loadConfig(t, root)
	cfg.Thresholds.MaxDirectLocators = 1

	result := analyze(t, NewLocator(xmltree.NewParser()), cfg)

	expected := []string{
		"Direct locator found in app modules file 'login.xml': parameter 'element_xpath' contains '//input[@name='user']'. Use <%elm:PageObjectFile:ElementName%> reference instead.",
		"Direct locator found in test cases file 'case.xml': parameter 'Selector' contains '#save'. Use <%elm:PageObjectFile:ElementName%> reference instead.",
		"Too many direct locator violations found (2 > 1). Threshold: max_direct_locators",
	}
	if strings.Join(result.Errors, "\n") != strings.Join(expected, "\n") {
		t.Errorf("Expected %v, got %v", expected, result.Errors)
	}
}

func TestLocator_ParseFailureIsWarning(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Tests/app_modules/login.xml", `<app-module name="Login"/>`)
	writeFile(t, root, "Tests/test_cases/broken.xml", `<test-cases><test-case name="X">`)

	result := analyze(t, NewLocator(xmltree.NewParser()), loadConfig(t, root))

	if len(result.Errors) != 0 {
		t.Errorf("Expected no errors for an unparseable file, got %v", result.Errors)
	}
	if len(result.Warnings) != 1 || !strings.HasPrefix(result.Warnings[0], "Failed to parse XML file Tests/test_cases/broken.xml") {
		t.Errorf("Expected a parse warning for broken.xml, got %v", result.Warnings)
	}
	if result.Metadata["files_processed"] != 1 {
		t.Errorf("Expected 1 file processed, got %v", result.Metadata["files_processed"])
	}
}

func TestLocator_MissingDirectoryCountsTowardThreshold(t *testing.T) {
	result := analyze(t, NewLocator(xmltree.NewParser()), loadConfig(t, t.TempDir()))

	// Two missing directories plus the threshold violation they cause
	if len(result.Errors) != 3 {
		t.Errorf("Expected 3 errors, got %v", result.Errors)
	}
}

func TestEntryCovered(t *testing.T) {
	tests := []struct {
		entry    string
		lines    []string
		expected bool
	}{
		{"__pycache__/", []string{"__pycache__/"}, true},
		{".DS_Store", []string{".ds_store"}, true},
		{"*.pyc", []string{"*.py[cod]"}, false},
		{"*.pyc", []string{"*.pyc"}, true},
		{"venv/", []string{"venv*"}, true},
		{"logs/", []string{"logs"}, false},
		{"*.log", []string{"*.log*"}, true},
		{"env/", []string{"node_modules/"}, false},
		{".vscode/", []string{}, false},
	}
	for _, tt := range tests {
		if got := entryCovered(tt.entry, tt.lines); got != tt.expected {
			t.Errorf("entryCovered(%q, %v) = %v, expected %v", tt.entry, tt.lines, got, tt.expected)
		}
	}
}

func TestGitignore(t *testing.T) {
	root := t.TempDir()
	cfg := loadConfig(t, root)

	result := analyze(t, NewGitignore(), cfg)
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "CRITICAL: .gitignore file is missing") {
		t.Errorf("Expected missing file error, got %v", result.Errors)
	}
	if result.Metadata["gitignore_exists"] != false {
		t.Errorf("Expected gitignore_exists false, got %v", result.Metadata["gitignore_exists"])
	}

	writeFile(t, root, ".gitignore", "# only python\n__pycache__/\n*.pyc\n")
	result = analyze(t, NewGitignore(), cfg)

	if len(result.Errors) != 7 {
		t.Errorf("Expected 7 missing critical entries, got %v", result.Errors)
	}
	if result.Errors[0] != "CRITICAL: Missing essential .gitignore entry: venv/. This entry is required for Python automation projects." {
		t.Errorf("Unexpected first error %q", result.Errors[0])
	}

	recommended, framework := 0, 0
	for _, w := range result.Warnings {
		switch {
		case strings.HasPrefix(w, "RECOMMENDED:"):
			recommended++
		case strings.HasPrefix(w, "FRAMEWORK:"):
			framework++
		}
	}
	if recommended != 5 || framework != 3 {
		t.Errorf("Expected warnings capped at 5 and 3, got %d and %d", recommended, framework)
	}
	if result.Metadata["gitignore_lines"] != 3 {
		t.Errorf("Expected 3 lines, got %v", result.Metadata["gitignore_lines"])
	}
}

func TestReadme(t *testing.T) {
	root := t.TempDir()
	cfg := loadConfig(t, root)

	result := analyze(t, NewReadme(), cfg)
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "CRITICAL: README.md file is missing") {
		t.Errorf("Expected missing file error, got %v", result.Errors)
	}

	writeFile(t, root, "README.md", "# Tiny\n\nNot much here.\n")
	result = analyze(t, NewReadme(), cfg)
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "too short") {
		t.Errorf("Expected too short error, got %v", result.Errors)
	}

	writeFile(t, root, "README.md", healthyReadme)
	result = analyze(t, NewReadme(), cfg)
	if !result.Success {
		t.Errorf("Expected complete README to pass, got %v", result.Errors)
	}
	for _, w := range result.Warnings {
		if strings.HasPrefix(w, "MISSING") || strings.HasPrefix(w, "STRUCTURE") || strings.HasPrefix(w, "FORMATTING") {
			t.Errorf("Unexpected warning %q", w)
		}
	}
	if result.Metadata["headings_count"] != 6 {
		t.Errorf("Expected 6 headings, got %v", result.Metadata["headings_count"])
	}
}

func TestReadme_MissingSections(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", `Project notes

This repository holds a handful of XML files that nobody has written proper documentation for yet.
Install it however you like.
`)

	result := analyze(t, NewReadme(), loadConfig(t, root))

	if len(result.Errors) != 5 {
		t.Errorf("Expected every section to be missing, got %v", result.Errors)
	}
	if result.Errors[0] != "MISSING SECTION: README.md lacks required 'description' section. This section should contain: Project description section" {
		t.Errorf("Unexpected first error %q", result.Errors[0])
	}

	structure := 0
	for _, w := range result.Warnings {
		if !strings.HasPrefix(w, "MISSING") {
			structure++
		}
	}
	if structure != 3 {
		t.Errorf("Expected structure warnings capped at 3, got %v", result.Warnings)
	}
}
