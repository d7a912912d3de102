package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Language represents the kind of artifact or source file
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageGo         Language = "go"
	LanguagePython     Language = "python"
	LanguageRust       Language = "rust"
	LanguageJava       Language = "java"
	LanguageXML        Language = "xml"
	LanguageUnknown    Language = "unknown"
)

// FileInfo contains information about a file to be analyzed
type FileInfo struct {
	Path     string
	Language Language
	Size     int64
}

// Scanner handles file discovery and filtering inside one artifact directory
type Scanner struct {
	patterns     []string        // Base-name globs a file must match (e.g., "*.xml")
	excludeDirs  map[string]bool // Directory names to exclude (e.g., ".git")
	excludeFiles map[string]bool // File base names to exclude
	maxSize      int64           // Files larger than this are skipped; 0 disables the check
	recursive    bool

	// OnSkip, when set, is told about every matching file that was left out
	OnSkip func(path, reason string)
}

// NewScanner creates a new scanner with default exclusions
func NewScanner() *Scanner {
	return &Scanner{
		patterns: []string{"*"},
		excludeDirs: map[string]bool{
			".git":          true,
			"__pycache__":   true,
			".pytest_cache": true,
		},
		excludeFiles: map[string]bool{},
	}
}

// SetPatterns sets the globs a file name must match
func (s *Scanner) SetPatterns(patterns []string) {
	if len(patterns) > 0 {
		s.patterns = patterns
	}
}

// AddExcludeDirs adds directory names to exclude from scanning
func (s *Scanner) AddExcludeDirs(dirs []string) {
	for _, dir := range dirs {
		s.excludeDirs[dir] = true
	}
}

// AddExcludeFiles adds file base names to exclude from scanning
func (s *Scanner) AddExcludeFiles(files []string) {
	for _, f := range files {
		s.excludeFiles[filepath.Base(f)] = true
	}
}

// SetMaxFileSize sets the largest file size, in bytes, that is returned
func (s *Scanner) SetMaxFileSize(bytes int64) {
	s.maxSize = bytes
}

// SetRecursive controls whether subdirectories are scanned
func (s *Scanner) SetRecursive(recursive bool) {
	s.recursive = recursive
}

// DetectLanguage determines the language from file extension
func DetectLanguage(path string) Language {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".js", ".jsx", ".mjs":
		return LanguageJavaScript
	case ".ts", ".tsx":
		return LanguageTypeScript
	case ".go":
		return LanguageGo
	case ".py":
		return LanguagePython
	case ".rs":
		return LanguageRust
	case ".java":
		return LanguageJava
	case ".xml":
		return LanguageXML
	default:
		return LanguageUnknown
	}
}

// isBinaryFile checks if a file is likely binary
func isBinaryFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	binaryExts := map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
		".pdf": true, ".zip": true, ".tar": true, ".gz": true,
		".exe": true, ".dll": true, ".so": true, ".dylib": true,
		".pyc": true, ".class": true, ".jar": true,
	}
	return binaryExts[ext]
}

// matchesGlob checks if a file's base name matches any of the glob patterns
func matchesGlob(path string, globs []string) bool {
	base := filepath.Base(path)
	for _, glob := range globs {
		if matched, _ := filepath.Match(glob, base); matched {
			return true
		}
	}
	return false
}

// Scan walks a directory and returns the matching files sorted by path.
// Unless recursive is set only the directory's own entries are considered.
func (s *Scanner) Scan(rootPath string) ([]FileInfo, error) {
	for _, p := range s.patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
	}

	var files []FileInfo

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path == rootPath {
				return nil
			}
			if !s.recursive || s.excludeDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		if !matchesGlob(path, s.patterns) || isBinaryFile(path) {
			return nil
		}

		if s.excludeFiles[info.Name()] {
			s.skip(path, "excluded")
			return nil
		}

		if s.maxSize > 0 && info.Size() > s.maxSize {
			s.skip(path, fmt.Sprintf("file too large (%.1fMB)", float64(info.Size())/(1024*1024)))
			return nil
		}

		files = append(files, FileInfo{
			Path:     path,
			Language: DetectLanguage(path),
			Size:     info.Size(),
		})

		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}

// Paths returns the paths of files in order
func Paths(files []FileInfo) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

func (s *Scanner) skip(path, reason string) {
	if s.OnSkip != nil {
		s.OnSkip(path, reason)
	}
}
