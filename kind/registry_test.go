package kind_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/conformance/kind"
	"github.com/viant/conformance/schema"
)

func TestRegistry_Default(t *testing.T) {
	registry := kind.NewDefault()
	must, ok := registry.Lookup(kind.Must)
	require.True(t, ok)
	todo, _ := registry.Lookup(kind.Todo)
	citation, _ := registry.Lookup(kind.Citation)

	assert.True(t, registry.Group(kind.GroupRequirement).Has(must))
	assert.True(t, registry.In(todo, kind.GroupTodo))
	assert.True(t, registry.In(todo, kind.GroupCitation))
	assert.False(t, registry.In(citation, kind.GroupTodo))
	assert.Equal(t, kind.Must, registry.Name(must))
	assert.Equal(t, "#999", registry.Name(999))
	assert.False(t, registry.Has(999))

	_, err := registry.MustLookup("unknown")
	assert.ErrorIs(t, err, schema.ErrUnknownTypeID)
}

func TestRegistry_DefineMerges(t *testing.T) {
	registry := kind.New(kind.Spec{Name: "MUST", Groups: []string{"requirement"}})
	id := registry.Define(kind.Spec{Name: "MUST", Rule: "compliance", Groups: []string{"requirement", "normative"}})
	assert.Equal(t, schema.TypeID(1), id)
	spec, ok := registry.Spec(id)
	require.True(t, ok)
	assert.Equal(t, kind.Spec{Name: "MUST", Rule: "compliance", Groups: []string{"requirement", "normative"}}, spec)
	assert.Equal(t, []string{"normative", "requirement"}, registry.Groups())
}

func TestLoadSpecs(t *testing.T) {
	specs, err := kind.LoadSpecs([]byte(`
- name: SHALL
  rule: compliance
  groups: [requirement]
- name: waiver
  groups: [exception, citation]
`))
	require.NoError(t, err)
	assert.Equal(t, []kind.Spec{
		{Name: "SHALL", Rule: "compliance", Groups: []string{"requirement"}},
		{Name: "waiver", Groups: []string{"exception", "citation"}},
	}, specs)

	_, err = kind.LoadSpecs([]byte(`- rule: compliance`))
	assert.Error(t, err)
}
