package analyzer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jenian/atfcheck/internal/scanner"
)

// CheckThreshold returns an error message when observed exceeds max, and "" otherwise.
// Reaching the threshold exactly is allowed.
func CheckThreshold(observed int, name string, max int, description string) string {
	if observed > max {
		return fmt.Sprintf("Too many %s found (%d > %d). Threshold: %s", description, observed, max, name)
	}
	return ""
}

// ValidateDirectory returns an error message when dir is missing or not a directory
func ValidateDirectory(dir, description string) string {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Sprintf("Required directory does not exist: %s (%s)", dir, description)
	}
	if !info.IsDir() {
		return fmt.Sprintf("Path exists but is not a directory: %s (%s)", dir, description)
	}
	return ""
}

// ValidateFile returns an error message when path is missing or not a regular file
func ValidateFile(path, description string) string {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Sprintf("Required file does not exist: %s (%s)", path, description)
	}
	if info.IsDir() {
		return fmt.Sprintf("Path exists but is not a file: %s (%s)", path, description)
	}
	return ""
}

// ListFiles returns the files in dir matching patterns, honoring the configured
// exclusions, size limit and recursion setting. A missing directory yields no files.
func (c *Context) ListFiles(dir string, patterns ...string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		c.Log.Warn("directory does not exist", "dir", dir)
		return nil, nil
	}

	s := scanner.NewScanner()
	s.SetPatterns(patterns)
	if c.Config != nil {
		s.AddExcludeDirs(c.Config.ExcludedDirs)
		s.AddExcludeFiles(c.Config.ExcludedFiles)
		s.SetMaxFileSize(int64(c.Config.Thresholds.MaxFileSizeMB) * 1024 * 1024)
		s.SetRecursive(c.Config.Recursive)
	}
	s.OnSkip = func(path, reason string) {
		c.Log.Warn("skipping file", "file", path, "reason", reason)
	}

	files, err := s.Scan(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list files in %s: %w", dir, err)
	}
	return scanner.Paths(files), nil
}

// Rel returns path relative to the configured base path when possible
func (c *Context) Rel(path string) string {
	if c.Config == nil {
		return path
	}
	base, err := filepath.Abs(c.Config.Directories.BasePath)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || filepath.IsAbs(rel) || len(rel) >= 2 && rel[:2] == ".." {
		return path
	}
	return rel
}
