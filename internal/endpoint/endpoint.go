// Package endpoint extracts string constants from API constant source files
// and finds values defined under more than one name.
package endpoint

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"
)

// assignment matches `NAME = "value"` and `self._name = 'value'` assignments.
var assignment = regexp.MustCompile(`(self\._\w+|\w+)\s*=\s*['"]([^'"]*)['"]`)

// Endpoint is one extracted assignment.
type Endpoint struct {
	Name          string `json:"name"`
	Value         string `json:"value"`
	OriginalValue string `json:"original_value"`
	Path          string `json:"path"`
	Line          int    `json:"line"`
}

// Group holds the endpoints of one file and the values it defines more than once.
type Group struct {
	Path       string
	Endpoints  []Endpoint
	Duplicates map[string][]string
}

// DuplicateValues returns the keys of Duplicates in sorted order.
func (g *Group) DuplicateValues() []string {
	values := make([]string, 0, len(g.Duplicates))
	for v := range g.Duplicates {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// ParseError reports a file that could not be read.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse endpoints from '%s': %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parser extracts endpoints. When Normalize is set values are lower-cased
// before comparison; OriginalValue always keeps the source text.
type Parser struct {
	Normalize bool
}

// NewParser returns a parser that normalizes values.
func NewParser() *Parser {
	return &Parser{Normalize: true}
}

// ParseFile extracts every assignment in path. A file without assignments
// yields an empty group.
func (p *Parser) ParseFile(path string) (*Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	group := &Group{Path: path}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		for _, m := range assignment.FindAllStringSubmatch(scanner.Text(), -1) {
			value := m[2]
			if p.Normalize {
				value = strings.ToLower(value)
			}
			group.Endpoints = append(group.Endpoints, Endpoint{
				Name:          m[1],
				Value:         value,
				OriginalValue: m[2],
				Path:          path,
				Line:          lineNum,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	group.Duplicates = findDuplicates(group.Endpoints)
	return group, nil
}

// ParseDirectory parses every file in dir whose base name matches pattern.
// Unreadable files are passed to skip, when set, and left out of the result.
func (p *Parser) ParseDirectory(dir, pattern string, skip func(path string, err error)) ([]*Group, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("directory not found: %s", dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)

	var groups []*Group
	for _, path := range matches {
		group, err := p.ParseFile(path)
		if err != nil {
			if skip != nil {
				skip(path, err)
			}
			continue
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// FindGlobalDuplicates groups every endpoint of every group by value and
// returns the values that occur more than once. Endpoints in each slice are
// ordered by path, then line, so the result does not depend on group order.
func FindGlobalDuplicates(groups []*Group) map[string][]Endpoint {
	byValue := make(map[string][]Endpoint)
	for _, g := range groups {
		for _, ep := range g.Endpoints {
			byValue[ep.Value] = append(byValue[ep.Value], ep)
		}
	}

	result := make(map[string][]Endpoint)
	for value, eps := range byValue {
		if len(eps) < 2 {
			continue
		}
		sort.SliceStable(eps, func(i, j int) bool {
			if eps[i].Path != eps[j].Path {
				return eps[i].Path < eps[j].Path
			}
			return eps[i].Line < eps[j].Line
		})
		result[value] = eps
	}
	return result
}

// Files returns the distinct paths among eps.
func Files(eps []Endpoint) []string {
	seen := make(map[string]bool)
	var files []string
	for _, ep := range eps {
		if !seen[ep.Path] {
			seen[ep.Path] = true
			files = append(files, ep.Path)
		}
	}
	return files
}

// findDuplicates maps each value claimed by more than one distinct name to those names.
func findDuplicates(eps []Endpoint) map[string][]string {
	byValue := make(map[string][]string)
	for _, ep := range eps {
		if !slices.Contains(byValue[ep.Value], ep.Name) {
			byValue[ep.Value] = append(byValue[ep.Value], ep.Name)
		}
	}
	dups := make(map[string][]string)
	for value, names := range byValue {
		if len(names) > 1 {
			dups[value] = names
		}
	}
	return dups
}
