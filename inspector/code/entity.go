// Package code defines the named code entities that language scanners turn into instances.
package code

import (
	"context"

	"github.com/viant/conformance/schema"
)

// Entity kinds
const (
	KindPackage  = "package"
	KindModule   = "module"
	KindFunction = "function"
	KindMethod   = "method"
	KindType     = "type"
	KindTest     = "test"
)

// Code partitions
const (
	PartitionTest    = "test"
	PartitionLibrary = "library"
)

// Entity represents a named code entity and its byte range within a file
type Entity struct {
	Name string
	Kind string
	schema.Range
}

// File represents the entities declared by one source file
type File struct {
	Package  string
	Entities []Entity
}

// Parser extracts entities from one source file
type Parser func(ctx context.Context, location string, src []byte) (*File, error)

// Partitioner classifies a location as test or library code, empty when the location is not handled
type Partitioner func(location string) string
