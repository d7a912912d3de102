package xmltree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultMaxEntries is the cache capacity used when none is configured.
const DefaultMaxEntries = 100

type cacheEntry struct {
	root     *Element
	modTime  time.Time
	inserted uint64
}

// CacheStats describes the current state of the parse cache.
type CacheStats struct {
	Enabled    bool `json:"enabled"`
	Size       int  `json:"size"`
	MaxEntries int  `json:"max_entries"`
	Hits       int  `json:"hits"`
	Misses     int  `json:"misses"`
	Evictions  int  `json:"evictions"`
}

// Parser parses XML files into Element trees and caches the results by path.
// A cached tree is returned only while the file's modification time is not
// newer than the one observed when it was parsed. It is safe for concurrent use;
// all cache bookkeeping happens under a single mutex.
type Parser struct {
	mu         sync.Mutex
	enabled    bool
	maxEntries int
	entries    map[string]*cacheEntry
	seq        uint64
	stats      CacheStats

	readFile func(string) ([]byte, error)
	stat     func(string) (fs.FileInfo, error)
}

// Option configures a Parser.
type Option func(*Parser)

// WithCache enables or disables caching.
func WithCache(enabled bool) Option {
	return func(p *Parser) {
		p.enabled = enabled
	}
}

// WithMaxEntries bounds the number of cached documents.
func WithMaxEntries(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxEntries = n
		}
	}
}

// WithReadFunc replaces the function used to read file contents.
func WithReadFunc(fn func(string) ([]byte, error)) Option {
	return func(p *Parser) {
		if fn != nil {
			p.readFile = fn
		}
	}
}

// NewParser creates a parser with caching enabled.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		enabled:    true,
		maxEntries: DefaultMaxEntries,
		entries:    make(map[string]*cacheEntry),
		readFile:   os.ReadFile,
		stat:       os.Stat,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse returns the document tree for path. It fails with *NotFoundError when
// the path does not exist and *ParseError when the file cannot be decoded.
// Failed parses are never cached.
func (p *Parser) Parse(path string) (*Element, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	info, err := p.stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.evict(abs)
			return nil, &NotFoundError{Path: abs}
		}
		return nil, &ParseError{Path: abs, Err: err}
	}
	if info.IsDir() {
		return nil, &ParseError{Path: abs, Err: fmt.Errorf("is a directory")}
	}

	if root := p.lookup(abs, info.ModTime()); root != nil {
		return root, nil
	}

	data, err := p.readFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: abs}
		}
		return nil, &ParseError{Path: abs, Err: err}
	}

	root, err := decode(data, abs)
	if err != nil {
		return nil, &ParseError{Path: abs, Err: err}
	}

	p.store(abs, root, info.ModTime())
	return root, nil
}

// ExtractByTag returns every element named tag in document order.
func (p *Parser) ExtractByTag(path, tag string) ([]*Element, error) {
	root, err := p.Parse(path)
	if err != nil {
		return nil, err
	}
	return root.FindAll(tag), nil
}

// ExtractAttributeValues returns the value of attr for every element named tag.
// Elements without the attribute are skipped.
func (p *Parser) ExtractAttributeValues(path, tag, attr string) ([]string, error) {
	elements, err := p.ExtractByTag(path, tag)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(elements))
	for _, el := range elements {
		if v, ok := el.Attr(attr); ok {
			values = append(values, v)
		}
	}
	return values, nil
}

// Records treats each child of the root as a record and returns, per record,
// the text of its children keyed by tag. Records without any text are dropped.
func (p *Parser) Records(path string) ([]map[string]string, error) {
	root, err := p.Parse(path)
	if err != nil {
		return nil, err
	}
	var records []map[string]string
	for _, child := range root.Children {
		record := make(map[string]string)
		for _, field := range child.Children {
			if field.Text != "" {
				record[field.Tag] = field.Text
			}
		}
		if len(record) > 0 {
			records = append(records, record)
		}
	}
	return records, nil
}

// ClearCache drops every cached document.
func (p *Parser) ClearCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = make(map[string]*cacheEntry)
}

// Stats returns a snapshot of the cache counters.
func (p *Parser) Stats() CacheStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.Enabled = p.enabled
	s.Size = len(p.entries)
	s.MaxEntries = p.maxEntries
	return s
}

func (p *Parser) lookup(path string, modTime time.Time) *Element {
	if !p.enabled {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[path]
	if !ok {
		p.stats.Misses++
		return nil
	}
	if modTime.After(entry.modTime) {
		delete(p.entries, path)
		p.stats.Misses++
		return nil
	}
	p.stats.Hits++
	return entry.root
}

func (p *Parser) store(path string, root *Element, modTime time.Time) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.entries[path]; !exists && len(p.entries) >= p.maxEntries {
		var (
			oldestPath string
			oldestSeq  uint64
			found      bool
		)
		for k, e := range p.entries {
			if !found || e.inserted < oldestSeq {
				oldestPath, oldestSeq, found = k, e.inserted, true
			}
		}
		if found {
			delete(p.entries, oldestPath)
			p.stats.Evictions++
		}
	}

	p.seq++
	p.entries[path] = &cacheEntry{root: root, modTime: modTime, inserted: p.seq}
}

func (p *Parser) evict(path string) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, path)
}
