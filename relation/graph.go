// Package relation stores directed typed edges between annotations in a flat arena.
package relation

import (
	"github.com/viant/conformance/schema"
)

// Direction selects outgoing or incoming edges
type Direction int

const (
	Outgoing Direction = iota
	Incoming
)

type key struct {
	source schema.AnnotationID
	target schema.AnnotationID
	typeID schema.TypeID
}

// Graph represents a cyclic, deduplicated edge arena addressed by EdgeID
type Graph struct {
	edges []schema.AnnotationRelation // index: id-1
	byKey map[key]schema.EdgeID
	out   map[schema.AnnotationID][]schema.EdgeID
	in    map[schema.AnnotationID][]schema.EdgeID
}

// New creates an empty graph
func New() *Graph {
	return &Graph{
		byKey: make(map[key]schema.EdgeID),
		out:   make(map[schema.AnnotationID][]schema.EdgeID),
		in:    make(map[schema.AnnotationID][]schema.EdgeID),
	}
}

// Add inserts an edge; an identical triple returns the existing edge and false
func (g *Graph) Add(source, target schema.AnnotationID, typeID schema.TypeID) (schema.EdgeID, bool) {
	k := key{source: source, target: target, typeID: typeID}
	if id, ok := g.byKey[k]; ok {
		return id, false
	}
	id := schema.EdgeID(len(g.edges) + 1)
	g.edges = append(g.edges, schema.AnnotationRelation{ID: id, Source: source, Target: target, TypeID: typeID})
	g.byKey[k] = id
	g.out[source] = append(g.out[source], id)
	g.in[target] = append(g.in[target], id)
	return id, true
}

// Len returns number of edges
func (g *Graph) Len() int {
	return len(g.edges)
}

// Truncate removes every edge with an id greater than n, newest first
func (g *Graph) Truncate(n int) {
	for len(g.edges) > n {
		edge := g.edges[len(g.edges)-1]
		g.edges = g.edges[:len(g.edges)-1]
		delete(g.byKey, key{source: edge.Source, target: edge.Target, typeID: edge.TypeID})
		g.out[edge.Source] = pop(g.out[edge.Source])
		if len(g.out[edge.Source]) == 0 {
			delete(g.out, edge.Source)
		}
		g.in[edge.Target] = pop(g.in[edge.Target])
		if len(g.in[edge.Target]) == 0 {
			delete(g.in, edge.Target)
		}
	}
}

func pop(ids []schema.EdgeID) []schema.EdgeID {
	if len(ids) == 0 {
		return ids
	}
	return ids[:len(ids)-1]
}

// Edge returns an edge by id
func (g *Graph) Edge(id schema.EdgeID) (schema.AnnotationRelation, bool) {
	if id < 1 || int(id) > len(g.edges) {
		return schema.AnnotationRelation{}, false
	}
	return g.edges[id-1], true
}

// Lookup returns the edge id of a triple
func (g *Graph) Lookup(source, target schema.AnnotationID, typeID schema.TypeID) (schema.EdgeID, bool) {
	id, ok := g.byKey[key{source: source, target: target, typeID: typeID}]
	return id, ok
}

// Edges returns all edges in id order
func (g *Graph) Edges() []schema.AnnotationRelation {
	return g.edges
}

// EdgesOf returns edges of an annotation in the given direction, optionally filtered by relation types
func (g *Graph) EdgesOf(id schema.AnnotationID, direction Direction, types ...schema.TypeID) []schema.AnnotationRelation {
	ids := g.out[id]
	if direction == Incoming {
		ids = g.in[id]
	}
	var result []schema.AnnotationRelation
	for _, edgeID := range ids {
		edge := g.edges[edgeID-1]
		if len(types) > 0 && !containsType(types, edge.TypeID) {
			continue
		}
		result = append(result, edge)
	}
	return result
}

// Neighbors returns annotations adjacent to id in the given direction, optionally filtered by relation types
func (g *Graph) Neighbors(id schema.AnnotationID, direction Direction, types ...schema.TypeID) []schema.AnnotationID {
	edges := g.EdgesOf(id, direction, types...)
	result := make([]schema.AnnotationID, 0, len(edges))
	for _, edge := range edges {
		if direction == Incoming {
			result = append(result, edge.Source)
			continue
		}
		result = append(result, edge.Target)
	}
	return result
}

func containsType(types []schema.TypeID, candidate schema.TypeID) bool {
	for _, t := range types {
		if t == candidate {
			return true
		}
	}
	return false
}
