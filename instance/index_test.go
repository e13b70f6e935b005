package instance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/conformance/instance"
	"github.com/viant/conformance/schema"
)

func newIndex(items ...*schema.Instance) *instance.Index {
	index := &instance.Index{}
	for _, item := range items {
		index.Add(item)
	}
	return index
}

func TestIndex_Containing(t *testing.T) {
	module := &schema.Instance{ID: 1, Name: "pkg", Range: schema.Range{Start: 0, End: 100}}
	function := &schema.Instance{ID: 2, Name: "pkg.Run", Range: schema.Range{Start: 20, End: 60}}
	closure := &schema.Instance{ID: 3, Name: "pkg.Run.func1", Range: schema.Range{Start: 30, End: 40}}
	sibling := &schema.Instance{ID: 4, Name: "pkg.Stop", Range: schema.Range{Start: 60, End: 90}}
	index := newIndex(sibling, closure, module, function)

	tests := []struct {
		description string
		offset      int
		expect      []schema.InstanceID
		smallest    schema.InstanceID
	}{
		{description: "module only", offset: 5, expect: []schema.InstanceID{1}, smallest: 1},
		{description: "nested function", offset: 25, expect: []schema.InstanceID{1, 2}, smallest: 2},
		{description: "three levels", offset: 35, expect: []schema.InstanceID{1, 2, 3}, smallest: 3},
		{description: "end is exclusive", offset: 60, expect: []schema.InstanceID{1, 4}, smallest: 4},
		{description: "outside", offset: 100},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			var ids []schema.InstanceID
			for _, item := range index.Containing(tc.offset) {
				ids = append(ids, item.ID)
			}
			assert.Equal(t, tc.expect, ids)
			smallest, ok := index.SmallestContaining(tc.offset)
			if tc.smallest == 0 {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tc.smallest, smallest.ID)
		})
	}
}

func TestIndex_Enclosing(t *testing.T) {
	index := newIndex(
		&schema.Instance{ID: 1, Range: schema.Range{Start: 0, End: 100}},
		&schema.Instance{ID: 2, Range: schema.Range{Start: 20, End: 60}},
	)
	enclosing, ok := index.Enclosing(schema.Range{Start: 25, End: 30})
	require.True(t, ok)
	assert.Equal(t, schema.InstanceID(2), enclosing.ID)
	enclosing, ok = index.Enclosing(schema.Range{Start: 50, End: 70})
	require.True(t, ok)
	assert.Equal(t, schema.InstanceID(1), enclosing.ID)

	assert.True(t, index.Remove(2))
	assert.False(t, index.Remove(2))
	assert.Equal(t, 1, index.Len())
}
