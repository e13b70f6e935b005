package relation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/conformance/relation"
	"github.com/viant/conformance/schema"
)

const (
	reference schema.TypeID = 100
	contains  schema.TypeID = 101
)

func TestGraph_AddIdempotent(t *testing.T) {
	graph := relation.New()
	first, created := graph.Add(1, 2, reference)
	require.True(t, created)
	second, created := graph.Add(1, 2, reference)
	assert.False(t, created)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, graph.Len())

	other, created := graph.Add(1, 2, contains)
	assert.True(t, created)
	assert.NotEqual(t, first, other)
}

func TestGraph_Neighbors(t *testing.T) {
	graph := relation.New()
	graph.Add(1, 2, reference)
	graph.Add(3, 2, reference)
	graph.Add(2, 4, contains)
	graph.Add(2, 2, reference)
	graph.Add(4, 2, contains)

	tests := []struct {
		description string
		direction   relation.Direction
		types       []schema.TypeID
		expect      []schema.AnnotationID
	}{
		{description: "incoming all", direction: relation.Incoming, expect: []schema.AnnotationID{1, 3, 2, 4}},
		{description: "incoming references", direction: relation.Incoming, types: []schema.TypeID{reference}, expect: []schema.AnnotationID{1, 3, 2}},
		{description: "outgoing all", direction: relation.Outgoing, expect: []schema.AnnotationID{4, 2}},
		{description: "outgoing contains", direction: relation.Outgoing, types: []schema.TypeID{contains}, expect: []schema.AnnotationID{4}},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.expect, graph.Neighbors(2, tc.direction, tc.types...))
		})
	}
}

func TestGraph_Truncate(t *testing.T) {
	graph := relation.New()
	graph.Add(1, 2, reference)
	mark := graph.Len()
	graph.Add(2, 1, reference)
	graph.Add(1, 3, reference)

	graph.Truncate(mark)
	assert.Equal(t, 1, graph.Len())
	assert.Equal(t, []schema.AnnotationID{2}, graph.Neighbors(1, relation.Outgoing))
	assert.Empty(t, graph.Neighbors(1, relation.Incoming))
	_, ok := graph.Lookup(2, 1, reference)
	assert.False(t, ok)

	id, created := graph.Add(2, 1, reference)
	assert.True(t, created)
	assert.Equal(t, schema.EdgeID(2), id)
	edge, ok := graph.Edge(id)
	require.True(t, ok)
	assert.Equal(t, schema.AnnotationID(2), edge.Source)
}
