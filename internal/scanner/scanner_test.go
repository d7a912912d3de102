package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path     string
		expected Language
	}{
		{"test.js", LanguageJavaScript},
		{"test.jsx", LanguageJavaScript},
		{"test.mjs", LanguageJavaScript},
		{"test.ts", LanguageTypeScript},
		{"test.tsx", LanguageTypeScript},
		{"test.go", LanguageGo},
		{"test.py", LanguagePython},
		{"Test.java", LanguageJava},
		{"lib.rs", LanguageRust},
		{"Login.XML", LanguageXML},
		{"test.txt", LanguageUnknown},
		{"test", LanguageUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			result := DetectLanguage(tt.path)
			if result != tt.expected {
				t.Errorf("DetectLanguage(%q) = %v, want %v", tt.path, result, tt.expected)
			}
		})
	}
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

func TestScanner_Scan(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"b.xml":            "<b/>",
		"a.xml":            "<a/>",
		"notes.txt":        "notes",
		"nested/c.xml":     "<c/>",
		".git/config.xml":  "<git/>",
		"legacy.xml":       "<old/>",
		"__pycache__/x.py": "",
	})

	scanner := NewScanner()
	scanner.SetPatterns([]string{"*.xml"})
	scanner.AddExcludeFiles([]string{"legacy.xml"})

	var skipped []string
	scanner.OnSkip = func(path, reason string) {
		skipped = append(skipped, filepath.Base(path)+": "+reason)
	}

	files, err := scanner.Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	// Non-recursive: only a.xml and b.xml, sorted
	if len(files) != 2 {
		t.Fatalf("Expected 2 files, got %d: %v", len(files), Paths(files))
	}
	if filepath.Base(files[0].Path) != "a.xml" || filepath.Base(files[1].Path) != "b.xml" {
		t.Errorf("Expected [a.xml b.xml], got %v", Paths(files))
	}
	if files[0].Language != LanguageXML {
		t.Errorf("Expected xml language, got %v", files[0].Language)
	}
	if len(skipped) != 1 || !strings.HasPrefix(skipped[0], "legacy.xml") {
		t.Errorf("Expected legacy.xml to be reported as skipped, got %v", skipped)
	}
}

func TestScanner_Recursive(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"a.py":                  "x = 1",
		"pkg/b.py":              "y = 2",
		"__pycache__/c.py":      "z = 3",
		".pytest_cache/d.py":    "w = 4",
		"pkg/__pycache__/e.pyc": "",
	})

	scanner := NewScanner()
	scanner.SetPatterns([]string{"*.py"})
	scanner.SetRecursive(true)

	files, err := scanner.Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(files) != 2 {
		t.Errorf("Expected 2 files, got %d: %v", len(files), Paths(files))
	}
	for _, f := range files {
		if strings.Contains(f.Path, "__pycache__") || strings.Contains(f.Path, ".pytest_cache") {
			t.Errorf("Files in excluded directories should be skipped, got %s", f.Path)
		}
	}
}

func TestScanner_MaxFileSize(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"small.xml": "<a/>",
		"big.xml":   "<a>" + strings.Repeat("x", 2048) + "</a>",
	})

	scanner := NewScanner()
	scanner.SetPatterns([]string{"*.xml"})
	scanner.SetMaxFileSize(1024)

	var skipped int
	scanner.OnSkip = func(path, reason string) { skipped++ }

	files, err := scanner.Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0].Path) != "small.xml" {
		t.Errorf("Expected only small.xml, got %v", Paths(files))
	}
	if skipped != 1 {
		t.Errorf("Expected 1 skipped file, got %d", skipped)
	}
}

func TestScanner_InvalidPattern(t *testing.T) {
	scanner := NewScanner()
	scanner.SetPatterns([]string{"["})
	if _, err := scanner.Scan(t.TempDir()); err == nil {
		t.Error("Expected error for malformed pattern")
	}
}
