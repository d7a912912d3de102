package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the scanned root
const FileName = ".atfcheck.yaml"

// EnvPrefix prefixes every environment override
const EnvPrefix = "STATIC_ANALYSIS_"

// Config represents the atfcheck configuration file
type Config struct {
	Directories        Directories `yaml:"directories"`
	Thresholds         Thresholds  `yaml:"thresholds"`
	Logging            Logging     `yaml:"logging"`
	Report             Report      `yaml:"report"`
	Naming             Naming      `yaml:"naming"`
	XMLFilePatterns    []string    `yaml:"xml_file_patterns"`
	PythonFilePatterns []string    `yaml:"python_file_patterns"`
	ExcludedFiles      []string    `yaml:"excluded_files"`
	ExcludedDirs       []string    `yaml:"excluded_dirs"`
	DatasetExclusions  []string    `yaml:"dataset_exclusions"`
	DatasetKeys        []string    `yaml:"dataset_keys"`
	Workers            int         `yaml:"workers"`           // Reference validation pool size
	CacheMaxEntries    int         `yaml:"cache_max_entries"` // Parsed XML documents kept in memory
	Recursive          bool        `yaml:"recursive"`         // Descend into subdirectories of artifact dirs
}

// Directories holds artifact locations. Relative paths are resolved against BasePath.
type Directories struct {
	BasePath      string `yaml:"base_path"`
	TestCases     string `yaml:"test_cases"`
	AppModules    string `yaml:"app_modules"`
	TestSuites    string `yaml:"test_suites"`
	APIConstants  string `yaml:"api_constants"`
	Dataset       string `yaml:"dataset"`
	VariablesFile string `yaml:"variables_file"`
	CustomMethods string `yaml:"custom_methods"`
}

// Thresholds are the maximum allowed counts per check family
type Thresholds struct {
	MaxDuplicateEndpoints      int `yaml:"max_duplicate_endpoints"`
	MaxDuplicateXMLElements    int `yaml:"max_duplicate_xml_elements"`
	MaxSkipsTestCases          int `yaml:"max_skips_test_cases"`
	MaxSkipsAppModules         int `yaml:"max_skips_app_modules"`
	MaxSkipsTestSuites         int `yaml:"max_skips_test_suites"`
	MaxValidationErrors        int `yaml:"max_validation_errors"`
	MaxValidationNotFound      int `yaml:"max_validation_not_found"`
	MaxInvalidEngagementParams int `yaml:"max_invalid_engagement_params"`
	MaxDirectLocators          int `yaml:"max_direct_locators"`
	MaxFileSizeMB              int `yaml:"max_file_size_mb"`
}

// Logging configures the slog handler
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	File   string `yaml:"file"`   // Optional log file, in addition to stderr
}

// Report configures console output
type Report struct {
	MaxErrorsPerCheck int  `yaml:"max_errors_per_check"` // 0 shows everything
	ShowWarnings      bool `yaml:"show_warnings"`
}

// Naming configures the parameter naming check
type Naming struct {
	Expected   string   `yaml:"expected"`
	Suspicious []string `yaml:"suspicious"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Directories: Directories{
			BasePath:      ".",
			TestCases:     "Tests/test_cases",
			AppModules:    "Tests/app_modules",
			TestSuites:    "Tests/test_suites",
			APIConstants:  "Tests/resources/constants/api",
			Dataset:       "Tests/resources/dataset",
			VariablesFile: "Tests/resources/variable/var.xml",
			CustomMethods: "Tests/custom_methods",
		},
		Thresholds: Thresholds{
			MaxDuplicateEndpoints:      0,
			MaxDuplicateXMLElements:    3,
			MaxSkipsTestCases:          0,
			MaxSkipsAppModules:         0,
			MaxSkipsTestSuites:         26,
			MaxValidationErrors:        0,
			MaxValidationNotFound:      11,
			MaxInvalidEngagementParams: 7,
			MaxDirectLocators:          0,
			MaxFileSizeMB:              10,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Report: Report{
			ShowWarnings: true,
		},
		Naming: Naming{
			Expected: "engagement_id",
			Suspicious: []string{
				"engagementid", "engagementId", "engagment_id", "primary_engagement",
				"eng_id", "engagementID", "engagement", "engid", "eng", "eid",
			},
		},
		XMLFilePatterns:    []string{"*.xml"},
		PythonFilePatterns: []string{"*.py"},
		ExcludedFiles:      []string{},
		ExcludedDirs:       []string{".git", "__pycache__", ".pytest_cache"},
		DatasetExclusions: []string{
			"Submit Profile.xml",
			"Complete Independence.xml",
			"Create Submit and Complete Engagement.xml",
			"API Create and complete Engagement.xml",
		},
		DatasetKeys:     []string{"ID", "External_ID"},
		Workers:         4,
		CacheMaxEntries: 100,
	}
}

// LoadConfig loads the .atfcheck.yaml file from the specified directory.
// Values missing from the file keep their defaults. The base path defaults to rootPath.
func LoadConfig(rootPath string) (*Config, error) {
	cfg, err := LoadFile(filepath.Join(rootPath, FileName))
	if err != nil {
		return nil, err
	}
	if cfg.Directories.BasePath == "" || cfg.Directories.BasePath == "." {
		cfg.Directories.BasePath = rootPath
	} else if !filepath.IsAbs(cfg.Directories.BasePath) {
		cfg.Directories.BasePath = filepath.Join(rootPath, cfg.Directories.BasePath)
	}
	return cfg, nil
}

// LoadFile loads a config file from an explicit path. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	// Check if config file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects values the engine cannot run with
func (c *Config) Validate() error {
	for name, v := range c.Thresholds.fields() {
		if *v < 0 {
			return fmt.Errorf("threshold %s must not be negative", name)
		}
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.CacheMaxEntries < 1 {
		return fmt.Errorf("cache_max_entries must be at least 1")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

// Resolve returns the absolute form of a configured directory path
func (c *Config) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	base := c.Directories.BasePath
	if base == "" {
		base = "."
	}
	abs, err := filepath.Abs(filepath.Join(base, path))
	if err != nil {
		return filepath.Join(base, path)
	}
	return abs
}

// Marshal renders the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// ApplyEnv applies STATIC_ANALYSIS_THRESHOLDS_<FIELD> and STATIC_ANALYSIS_LOG_LEVEL
// overrides from env. Values that are not integers are ignored.
// It returns the names of the overrides that were applied.
func (c *Config) ApplyEnv(env map[string]string) []string {
	var applied []string
	for name, field := range c.Thresholds.fields() {
		key := EnvPrefix + "THRESHOLDS_" + strings.ToUpper(name)
		raw, ok := env[key]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 0 {
			continue
		}
		*field = n
		applied = append(applied, key)
	}
	if level := strings.TrimSpace(env[EnvPrefix+"LOG_LEVEL"]); level != "" {
		c.Logging.Level = strings.ToLower(level)
		applied = append(applied, EnvPrefix+"LOG_LEVEL")
	}
	sort.Strings(applied)
	return applied
}

// IsExcludedFile reports whether a file's base name is listed in ExcludedFiles
func (c *Config) IsExcludedFile(name string) bool {
	base := filepath.Base(name)
	for _, excluded := range c.ExcludedFiles {
		if excluded == base {
			return true
		}
	}
	return false
}

// IsDatasetExcluded reports whether a dataset file should be skipped
func (c *Config) IsDatasetExcluded(name string) bool {
	base := filepath.Base(name)
	for _, excluded := range c.DatasetExclusions {
		if excluded == base {
			return true
		}
	}
	return false
}

// ThresholdNames lists every threshold by its YAML name, sorted
func ThresholdNames() []string {
	var t Thresholds
	names := make([]string, 0, 10)
	for name := range t.fields() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the threshold with the given YAML name
func (t *Thresholds) Get(name string) (int, bool) {
	v, ok := t.fields()[name]
	if !ok {
		return 0, false
	}
	return *v, true
}

// Set changes the threshold with the given YAML name
func (t *Thresholds) Set(name string, value int) error {
	v, ok := t.fields()[name]
	if !ok {
		return fmt.Errorf("unknown threshold %q", name)
	}
	if value < 0 {
		return fmt.Errorf("threshold %s must not be negative", name)
	}
	*v = value
	return nil
}

func (t *Thresholds) fields() map[string]*int {
	return map[string]*int{
		"max_duplicate_endpoints":       &t.MaxDuplicateEndpoints,
		"max_duplicate_xml_elements":    &t.MaxDuplicateXMLElements,
		"max_skips_test_cases":          &t.MaxSkipsTestCases,
		"max_skips_app_modules":         &t.MaxSkipsAppModules,
		"max_skips_test_suites":         &t.MaxSkipsTestSuites,
		"max_validation_errors":         &t.MaxValidationErrors,
		"max_validation_not_found":      &t.MaxValidationNotFound,
		"max_invalid_engagement_params": &t.MaxInvalidEngagementParams,
		"max_direct_locators":           &t.MaxDirectLocators,
		"max_file_size_mb":              &t.MaxFileSizeMB,
	}
}
