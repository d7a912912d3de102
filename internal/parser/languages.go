package parser

import (
	"fmt"
	"sort"
	"unsafe"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// grammars are the tree-sitter grammars compiled into the binary.
// .tsx sources go through the TypeScript grammar.
var grammars = map[string]func() unsafe.Pointer{
	"go":         tree_sitter_go.Language,
	"java":       tree_sitter_java.Language,
	"javascript": tree_sitter_javascript.Language,
	"python":     tree_sitter_python.Language,
	"rust":       tree_sitter_rust.Language,
	"typescript": tree_sitter_typescript.LanguageTypescript,
}

// Grammars lists the languages a grammar is available for
func Grammars() []string {
	names := make([]string, 0, len(grammars))
	for name := range grammars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func loadLanguage(lang string) (*sitter.Language, error) {
	load, ok := grammars[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	ptr := load()
	if ptr == nil {
		return nil, fmt.Errorf("grammar for %s is not available", lang)
	}
	return sitter.NewLanguage(ptr), nil
}
