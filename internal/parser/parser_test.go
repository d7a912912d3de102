package parser

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/jenian/atfcheck/internal/languages"
)

func writeSource(t *testing.T, dir, name, code string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(code), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return path
}

func signatureMap(sigs []FunctionSignature) map[string][]string {
	result := make(map[string][]string)
	for _, sig := range sigs {
		var names []string
		for _, p := range sig.Params {
			names = append(names, p.Name)
		}
		result[sig.Name] = names
	}
	return result
}

func TestParser_Python(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeSource(t, tmpDir, "methods.py", `
class Helpers:
    def open_engagement(self, engagementId, user="admin"):
        pass

    @staticmethod
    async def close(engagement_id, *args, **kwargs):
        pass

def top_level(
    eid,
    flag: bool = False,
):
    def inner(eng):
        return eng
    return inner
`)

	sigs, err := NewParser().ParseFile(path, "python")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	expected := map[string][]string{
		"open_engagement": {"engagementId", "user"},
		"close":           {"engagement_id", "args", "kwargs"},
		"top_level":       {"eid", "flag"},
		"inner":           {"eng"},
	}
	if got := signatureMap(sigs); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}

	for _, sig := range sigs {
		if sig.Name == "top_level" {
			if sig.Line != 10 {
				t.Errorf("Expected top_level on line 10, got %d", sig.Line)
			}
			if sig.Params[0].Line != 11 {
				t.Errorf("Expected eid on line 11, got %d", sig.Params[0].Line)
			}
			if sig.File != path {
				t.Errorf("Expected file %q, got %q", path, sig.File)
			}
		}
	}
}

func TestParser_Go(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeSource(t, tmpDir, "methods.go", `package methods

type Client struct{}

func Open(engID string, retries int) error { return nil }

func (c *Client) Close(eid, reason string) {}
`)

	sigs, err := NewParser().ParseFile(path, "go")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	expected := map[string][]string{
		"Open":  {"engID", "retries"},
		"Close": {"eid", "reason"},
	}
	if got := signatureMap(sigs); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestParser_JavaScript(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeSource(t, tmpDir, "methods.js", `
function open(engagementId, user) {}

class Page {
  close(eng, { force }) {}
}

const submit = (engid, ...rest) => rest;
`)

	sigs, err := NewParser().ParseFile(path, "javascript")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	expected := map[string][]string{
		"open":   {"engagementId", "user"},
		"close":  {"eng"},
		"submit": {"engid", "rest"},
	}
	if got := signatureMap(sigs); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestParser_TypeScript(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeSource(t, tmpDir, "methods.ts", `
export function open(engagement_id: string, opts?: Record<string, number>): void {}
`)

	sigs, err := NewParser().ParseFile(path, "typescript")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	expected := map[string][]string{
		"open": {"engagement_id", "opts"},
	}
	if got := signatureMap(sigs); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestParser_Java(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeSource(t, tmpDir, "Methods.java", `
public class Methods {
    public Methods(String engagementID) {}

    public void open(final String eng_id, java.util.Map<String, Integer> counts) {}
}
`)

	sigs, err := NewParser().ParseFile(path, "java")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	expected := map[string][]string{
		"Methods": {"engagementID"},
		"open":    {"eng_id", "counts"},
	}
	if got := signatureMap(sigs); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestParser_Rust(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeSource(t, tmpDir, "methods.rs", `
struct Client;

impl Client {
    fn open(&self, engid: &str) {}
}

fn close(mut eng: String, count: u32) {}
`)

	sigs, err := NewParser().ParseFile(path, "rust")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	expected := map[string][]string{
		"open":  {"engid"},
		"close": {"eng", "count"},
	}
	if got := signatureMap(sigs); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestParser_Errors(t *testing.T) {
	tmpDir := t.TempDir()
	p := NewParser()

	if _, err := p.ParseFile(filepath.Join(tmpDir, "missing.py"), "python"); err == nil {
		t.Error("Expected error for missing file")
	}

	path := writeSource(t, tmpDir, "notes.txt", "hello")
	if _, err := p.ParseFile(path, "cobol"); err == nil {
		t.Error("Expected error for unsupported language")
	}
}

func TestParser_SyntaxErrorsArePartial(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeSource(t, tmpDir, "broken.py", `
def good(eid):
    pass

def broken(:
`)

	sigs, err := NewParser().ParseFile(path, "python")
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("Expected ErrSyntax for a file with syntax errors, got %v", err)
	}
	if !strings.Contains(err.Error(), "at line ") {
		t.Errorf("Expected the error to carry a position, got %q", err)
	}
	if got := signatureMap(sigs)["good"]; !reflect.DeepEqual(got, []string{"eid"}) {
		t.Errorf("Expected good(eid) to be found, got %v", signatureMap(sigs))
	}
}

func TestParser_CleanFileHasNoSyntaxError(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeSource(t, tmpDir, "clean.py", "def good(eid):\n    pass\n")

	if _, err := NewParser().ParseFile(path, "python"); err != nil {
		t.Errorf("Expected no error for a clean file, got %v", err)
	}
}

func TestGrammars_CoverQueries(t *testing.T) {
	if !reflect.DeepEqual(Grammars(), languages.Supported()) {
		t.Errorf("Expected grammars for %v, got %v", languages.Supported(), Grammars())
	}
}
