package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_NoFile(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Thresholds.MaxSkipsTestSuites != 26 {
		t.Errorf("Expected default max_skips_test_suites 26, got %d", cfg.Thresholds.MaxSkipsTestSuites)
	}
	if cfg.Directories.BasePath != tmpDir {
		t.Errorf("Expected base path %q, got %q", tmpDir, cfg.Directories.BasePath)
	}
	if cfg.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", cfg.Workers)
	}
}

func TestLoadConfig_PartialFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `thresholds:
  max_duplicate_endpoints: 5
directories:
  test_cases: cases
excluded_files:
  - legacy.xml
`
	if err := os.WriteFile(filepath.Join(tmpDir, FileName), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Thresholds.MaxDuplicateEndpoints != 5 {
		t.Errorf("Expected max_duplicate_endpoints 5, got %d", cfg.Thresholds.MaxDuplicateEndpoints)
	}
	if cfg.Thresholds.MaxValidationNotFound != 11 {
		t.Errorf("Expected untouched default 11, got %d", cfg.Thresholds.MaxValidationNotFound)
	}
	if got := cfg.Resolve(cfg.Directories.TestCases); got != filepath.Join(tmpDir, "cases") {
		t.Errorf("Expected resolved test cases dir %q, got %q", filepath.Join(tmpDir, "cases"), got)
	}
	if !cfg.IsExcludedFile("/somewhere/legacy.xml") {
		t.Error("Expected legacy.xml to be excluded")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":           "thresholds: [",
		"negative threshold": "thresholds:\n  max_direct_locators: -1\n",
		"zero workers":       "workers: 0\n",
		"bad log format":     "logging:\n  format: xml\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			tmpDir := t.TempDir()
			if err := os.WriteFile(filepath.Join(tmpDir, FileName), []byte(content), 0644); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}
			if _, err := LoadConfig(tmpDir); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	applied := cfg.ApplyEnv(map[string]string{
		"STATIC_ANALYSIS_THRESHOLDS_MAX_SKIPS_TEST_SUITES": "3",
		"STATIC_ANALYSIS_THRESHOLDS_MAX_DIRECT_LOCATORS":   "lots",
		"STATIC_ANALYSIS_LOG_LEVEL":                        "DEBUG",
		"UNRELATED":                                        "1",
	})

	if cfg.Thresholds.MaxSkipsTestSuites != 3 {
		t.Errorf("Expected max_skips_test_suites 3, got %d", cfg.Thresholds.MaxSkipsTestSuites)
	}
	if cfg.Thresholds.MaxDirectLocators != 0 {
		t.Errorf("Expected invalid override to be ignored, got %d", cfg.Thresholds.MaxDirectLocators)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level 'debug', got %q", cfg.Logging.Level)
	}
	if len(applied) != 2 {
		t.Errorf("Expected 2 applied overrides, got %v", applied)
	}
}

func TestThresholds_GetSet(t *testing.T) {
	cfg := Default()

	if err := cfg.Thresholds.Set("max_duplicate_xml_elements", 9); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, ok := cfg.Thresholds.Get("max_duplicate_xml_elements"); !ok || v != 9 {
		t.Errorf("Expected 9, got %d (ok=%v)", v, ok)
	}
	if err := cfg.Thresholds.Set("max_nothing", 1); err == nil {
		t.Error("Expected error for unknown threshold")
	}
	if len(ThresholdNames()) != 10 {
		t.Errorf("Expected 10 threshold names, got %d", len(ThresholdNames()))
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	data, err := Default().Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	path := filepath.Join(tmpDir, FileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(cfg.Naming.Suspicious) != len(Default().Naming.Suspicious) {
		t.Errorf("Expected %d suspicious names, got %d", len(Default().Naming.Suspicious), len(cfg.Naming.Suspicious))
	}
}
