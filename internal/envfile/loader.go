package envfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Loader handles loading and parsing environment files that carry
// STATIC_ANALYSIS_* overrides
type Loader struct {
	envFiles []string
	prefix   string
}

// NewLoader creates a new env file loader. Only variables starting with
// prefix are kept; an empty prefix keeps everything.
func NewLoader(prefix string) *Loader {
	return &Loader{
		envFiles: []string{".env", ".env.local", ".envrc"},
		prefix:   prefix,
	}
}

// SetEnvFiles sets the list of env files to load
func (l *Loader) SetEnvFiles(files []string) {
	l.envFiles = files
}

// parseEnvFile parses a single environment file using the appropriate parser
func parseEnvFile(path string) (map[string]string, error) {
	if filepath.Base(path) == ".envrc" {
		return parseEnvrc(path)
	}
	return parseDotEnv(path)
}

// parseDotEnv parses a standard .env file
func parseDotEnv(path string) (map[string]string, error) {
	vars := make(map[string]string)

	file, err := os.Open(path)
	if err != nil {
		// File doesn't exist, return empty map (not an error)
		if os.IsNotExist(err) {
			return vars, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Tolerate `export KEY=value` in plain .env files too
		line = strings.TrimPrefix(line, "export ")

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := trimQuotes(parts[1])
		if key != "" {
			vars[key] = value
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}

	return vars, nil
}

// Load loads all configured env files found in rootPath and merges them.
// Later files override earlier ones. It also returns the files that were read.
func (l *Loader) Load(rootPath string) (map[string]string, []string, error) {
	allVars := make(map[string]string)
	var loaded []string

	for _, envFile := range l.envFiles {
		path := envFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(rootPath, envFile)
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}

		vars, err := parseEnvFile(path)
		if err != nil {
			return nil, loaded, fmt.Errorf("failed to load %s: %w", path, err)
		}
		loaded = append(loaded, path)

		for k, v := range vars {
			if l.keep(k) {
				allVars[k] = v
			}
		}
	}

	return allVars, loaded, nil
}

// LoadWithExportedEnv loads env files and overlays the process environment.
// Exported variables win over values from files.
func (l *Loader) LoadWithExportedEnv(rootPath string) (map[string]string, []string, error) {
	vars, loaded, err := l.Load(rootPath)
	if err != nil {
		return nil, loaded, err
	}

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && l.keep(k) {
			vars[k] = v
		}
	}

	return vars, loaded, nil
}

func (l *Loader) keep(key string) bool {
	return l.prefix == "" || strings.HasPrefix(key, l.prefix)
}
