// Package ingest populates a store from discovered sources in parallel, then links across sources.
package ingest

import (
	"context"

	"github.com/viant/conformance/linemap"
	"github.com/viant/conformance/schema"
	"github.com/viant/conformance/store"
)

// Input represents a named source to ingest
type Input struct {
	Location string
	Title    string
	Content  []byte
}

// Document represents an input prepared for scanning
type Document struct {
	Input
	Lines *linemap.Index
}

// Writer applies scan results inside the per-source transaction
type Writer interface {
	Write(tx *store.Tx, location schema.LocationID) error
}

// WriterFunc adapts a function to Writer
type WriterFunc func(tx *store.Tx, location schema.LocationID) error

// Write calls fn
func (fn WriterFunc) Write(tx *store.Tx, location schema.LocationID) error {
	return fn(tx, location)
}

// Scanner extracts facts from one document; it runs outside the write lock and must not touch the store
type Scanner interface {
	Scan(ctx context.Context, doc *Document) (Writer, error)
}

// Linker writes cross-source relations once every source is ingested
type Linker interface {
	Link(ctx context.Context, tx *store.Tx) error
}

// Selector returns the scanners for a location
type Selector func(location string) []Scanner
