// Package inspector selects and implements the scanners and linkers that turn discovered sources into annotations.
package inspector

import (
	"path"
	"strings"

	"github.com/viant/conformance/ingest"
	"github.com/viant/conformance/inspector/code"
	"github.com/viant/conformance/inspector/comment"
	"github.com/viant/conformance/inspector/coverage"
	"github.com/viant/conformance/inspector/golang"
	"github.com/viant/conformance/inspector/java"
	"github.com/viant/conformance/inspector/jsx"
	"github.com/viant/conformance/kind"
	"github.com/viant/conformance/schema"
)

// Option configures a Factory
type Option func(*Factory)

// WithCommentPrefixes sets citation comment prefixes
func WithCommentPrefixes(meta, content string) Option {
	return func(f *Factory) {
		f.tokenizer = comment.NewTokenizer(meta, content)
	}
}

// Factory creates scanners based on file extension and shares linkers across one ingestion
type Factory struct {
	types         *kind.Registry
	tokenizer     *comment.Tokenizer
	requirements  *RequirementScanner
	goInstances   *InstanceScanner
	javaInstances *InstanceScanner
	jsInstances   *InstanceScanner
	citations     *CitationScanner
	coverage      *coverage.Collector
	linker        *CitationLinker
}

// NewFactory creates a factory resolving kinds from types
func NewFactory(types *kind.Registry, opts ...Option) *Factory {
	if types == nil {
		types = kind.NewDefault()
	}
	f := &Factory{types: types, tokenizer: comment.NewTokenizer("", "")}
	for _, opt := range opts {
		opt(f)
	}
	f.requirements = &RequirementScanner{types: types}
	f.goInstances = &InstanceScanner{parse: golang.ParseEntities}
	f.javaInstances = &InstanceScanner{parse: java.ParseEntities}
	f.jsInstances = &InstanceScanner{parse: jsx.ParseEntities}
	f.citations = &CitationScanner{types: types, tokenizer: f.tokenizer}
	f.coverage = coverage.NewCollector(types)
	f.linker = &CitationLinker{types: types}
	return f
}

// Scanners returns scanners for a location; unsupported locations get none
func (f *Factory) Scanners(location string) []ingest.Scanner {
	ext := strings.ToLower(path.Ext(location))
	switch ext {
	case ".go":
		return []ingest.Scanner{f.goInstances, f.citations}
	case ".java":
		return []ingest.Scanner{f.javaInstances, f.citations}
	case ".js", ".jsx", ".mjs", ".cjs":
		return []ingest.Scanner{f.jsInstances, f.citations}
	case ".md", ".markdown", ".txt":
		return []ingest.Scanner{f.requirements}
	case ".out", ".cov", ".coverprofile":
		return []ingest.Scanner{f.coverage}
	}
	return nil
}

// Linkers returns the cross-source linkers in run order
func (f *Factory) Linkers() []ingest.Linker {
	return []ingest.Linker{f.linker, f.coverage}
}

// Coverage returns the coverage collector
func (f *Factory) Coverage() *coverage.Collector {
	return f.coverage
}

// Partition classifies the instance enclosing a region by its location
func (f *Factory) Partition(instance *schema.Instance, location *schema.SourceLocation) string {
	if location == nil {
		return ""
	}
	for _, partition := range partitioners {
		if result := partition(location.Location); result != "" {
			return result
		}
	}
	return ""
}

var partitioners = []code.Partitioner{golang.Partition, java.Partition, jsx.Partition}
