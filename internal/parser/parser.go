package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/jenian/atfcheck/internal/languages"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Parameter is one declared function parameter
type Parameter struct {
	Name string
	Line int
}

// FunctionSignature is a function definition found in a source file
type FunctionSignature struct {
	Name   string
	File   string
	Line   int
	Params []Parameter
}

// ErrSyntax is returned, wrapped with the position of the first error, when a
// source file does not parse cleanly
var ErrSyntax = errors.New("syntax error")

// Parser handles Tree-Sitter parsing of source files
type Parser struct {
	languages map[string]*sitter.Language
	mu        sync.RWMutex
	log       *slog.Logger
}

// NewParser creates a new parser instance
func NewParser() *Parser {
	return &Parser{
		languages: make(map[string]*sitter.Language),
		log:       slog.Default(),
	}
}

// SetLogger sets the logger used for parse diagnostics
func (p *Parser) SetLogger(log *slog.Logger) {
	if log != nil {
		p.log = log
	}
}

// getLanguage returns a language grammar for the given language, loading it if needed
func (p *Parser) getLanguage(lang string) (*sitter.Language, error) {
	p.mu.RLock()
	if language, ok := p.languages[lang]; ok {
		p.mu.RUnlock()
		return language, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring write lock
	if language, ok := p.languages[lang]; ok {
		return language, nil
	}

	language, err := loadLanguage(lang)
	if err != nil {
		return nil, fmt.Errorf("failed to load language %s: %w", lang, err)
	}

	p.languages[lang] = language
	return language, nil
}

// ParseFile parses a single source file and returns its function signatures in
// source order. A file with syntax errors returns the signatures that could be
// recovered together with an error wrapping ErrSyntax.
func (p *Parser) ParseFile(filePath string, lang string) ([]FunctionSignature, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}
	return p.Parse(content, filePath, lang)
}

// Parse extracts function signatures from source code already in memory
func (p *Parser) Parse(content []byte, filePath string, lang string) ([]FunctionSignature, error) {
	langInfo := languages.GetLanguageInfo(lang)
	if langInfo == nil {
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}

	language, err := p.getLanguage(lang)
	if err != nil {
		p.log.Debug("failed to load grammar", "file", filePath, "language", lang, "error", err)
		return nil, err
	}

	// Create a new parser for each file to avoid CGO concurrency issues
	// Tree-sitter parsers are not thread-safe when used concurrently
	tsParser := sitter.NewParser()
	defer tsParser.Close()
	if err := tsParser.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language %s: %w", lang, err)
	}

	tree := tsParser.Parse(content, nil)
	if tree == nil {
		p.log.Debug("parse returned nil tree", "file", filePath, "language", lang)
		return []FunctionSignature{}, nil
	}
	defer tree.Close()

	rootNode := tree.RootNode()
	if rootNode == nil {
		return []FunctionSignature{}, nil
	}
	var syntaxErr error
	if rootNode.HasError() {
		syntaxErr = syntaxError(rootNode)
		p.log.Debug("syntax errors in file, results may be partial", "file", filePath, "error", syntaxErr)
	}

	queryStr := strings.TrimSpace(langInfo.Query)
	query, queryErr := sitter.NewQuery(language, queryStr)
	if queryErr != nil {
		// Query creation failed - this might be due to grammar compatibility
		// Log the error but return empty results to allow the analysis to continue
		p.log.Debug("query creation failed", "file", filePath, "language", lang, "error", queryErr)
		return []FunctionSignature{}, syntaxErr
	}
	defer query.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	matches := cursor.Matches(query, rootNode, content)

	captureNames := query.CaptureNames()
	var signatures []FunctionSignature
	seen := make(map[string]bool)

	for {
		match := matches.Next()
		if match == nil {
			break
		}

		matchMap := make(map[string]string)
		var nameNode, paramsNode *sitter.Node

		for _, capture := range match.Captures {
			if int(capture.Index) >= len(captureNames) {
				continue
			}
			captureName := captureNames[capture.Index]
			captureNode := capture.Node
			matchMap[captureName] = string(content[captureNode.StartByte():captureNode.EndByte()])

			switch captureName {
			case "name":
				nameNode = &captureNode
			case "params":
				paramsNode = &captureNode
			}
		}
		if nameNode == nil || paramsNode == nil {
			continue
		}

		for _, fn := range langInfo.Extractor([]map[string]string{matchMap}) {
			line := int(nameNode.StartPosition().Row) + 1
			key := fmt.Sprintf("%s:%d", fn.Name, line)
			if seen[key] {
				continue
			}
			seen[key] = true

			paramsRow := int(paramsNode.StartPosition().Row) + 1
			sig := FunctionSignature{Name: fn.Name, File: filePath, Line: line}
			for _, param := range fn.Params {
				sig.Params = append(sig.Params, Parameter{Name: param.Name, Line: paramsRow + param.Row})
			}
			signatures = append(signatures, sig)
		}
	}

	return signatures, syntaxErr
}

// syntaxError locates the first ERROR or MISSING node below n
func syntaxError(n *sitter.Node) error {
	bad := firstErrorNode(n)
	if bad == nil {
		bad = n
	}
	pos := bad.StartPosition()
	return fmt.Errorf("%w at line %d, column %d", ErrSyntax, pos.Row+1, pos.Column+1)
}

func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if bad := firstErrorNode(child); bad != nil {
			return bad
		}
	}
	return nil
}
