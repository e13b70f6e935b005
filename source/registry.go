// Package source provides a content-addressed registry of raw source bytes.
package source

import (
	"sync"

	"github.com/viant/conformance/linemap"
	"github.com/viant/conformance/schema"
)

// Source represents registered content with its derived line index
type Source struct {
	schema.Source
	Lines *linemap.Index
}

// Registry deduplicates sources by content hash
type Registry struct {
	mu      sync.RWMutex
	sources []*Source // index: id-1
	byHash  map[string]schema.SourceID
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{byHash: make(map[string]schema.SourceID)}
}

// Register returns the id of content, creating a source on first sight
func (r *Registry) Register(content []byte) schema.SourceID {
	hash := Hash(content)
	r.mu.RLock()
	id, ok := r.byHash[hash]
	r.mu.RUnlock()
	if ok {
		return id
	}
	data := make([]byte, len(content))
	copy(data, content)
	lines := linemap.New(data)

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok = r.byHash[hash]; ok {
		return id
	}
	id = schema.SourceID(len(r.sources) + 1)
	r.sources = append(r.sources, &Source{
		Source: schema.Source{ID: id, Hash: hash, Content: data},
		Lines:  lines,
	})
	r.byHash[hash] = id
	return id
}

// Lookup returns a source by id
func (r *Registry) Lookup(id schema.SourceID) (*Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 1 || int(id) > len(r.sources) {
		return nil, false
	}
	return r.sources[id-1], true
}

// LookupHash returns a source id by content hash
func (r *Registry) LookupHash(hash string) (schema.SourceID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byHash[hash]
	return id, ok
}

// Sources returns all registered sources in id order
func (r *Registry) Sources() []*Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Source, len(r.sources))
	copy(result, r.sources)
	return result
}

// Len returns number of sources
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}
