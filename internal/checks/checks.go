// Package checks holds the concrete analyzers run against a test automation
// repository and the registry that fixes their order.
package checks

import (
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/jenian/atfcheck/internal/analyzer"
	"github.com/jenian/atfcheck/internal/config"
	"github.com/jenian/atfcheck/internal/endpoint"
	"github.com/jenian/atfcheck/internal/parser"
	"github.com/jenian/atfcheck/internal/xmltree"
)

// Deps are the parsers shared by every analyzer of a run
type Deps struct {
	XML       *xmltree.Parser
	Endpoints *endpoint.Parser
	Source    *parser.Parser
}

// NewDeps builds the shared parsers for cfg
func NewDeps(cfg *config.Config, log *slog.Logger) *Deps {
	src := parser.NewParser()
	src.SetLogger(log)
	return &Deps{
		XML:       xmltree.NewParser(xmltree.WithMaxEntries(cfg.CacheMaxEntries)),
		Endpoints: endpoint.NewParser(),
		Source:    src,
	}
}

// Default returns the analyzers in the order they run
func Default(d *Deps) []analyzer.Analyzer {
	return []analyzer.Analyzer{
		NewDuplicate(d.XML, d.Endpoints),
		NewSkip(d.XML),
		NewReference(d.XML),
		NewVariable(d.XML),
		NewNaming(d.Source),
		NewGitignore(),
		NewLocator(d.XML),
		NewReadme(),
	}
}

// artifactDir pairs an artifact directory with the words used to report on it
type artifactDir struct {
	path     string
	category string
}

// counted is a value seen more than once, in order of first appearance
type counted struct {
	value string
	count int
}

// repeated returns the non-empty values that occur more than once
func repeated(values []string) []counted {
	counts := make(map[string]int)
	var order []string
	for _, v := range values {
		if v == "" {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	var result []counted
	for _, v := range order {
		if counts[v] > 1 {
			result = append(result, counted{value: v, count: counts[v]})
		}
	}
	return result
}

// cause strips the path prefix from parse errors so messages name the file once
func cause(err error) error {
	var pe *xmltree.ParseError
	if errors.As(err, &pe) && pe.Err != nil {
		return pe.Err
	}
	return err
}

func base(path string) string {
	return filepath.Base(path)
}
