package jsx_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/conformance/inspector/code"
	"github.com/viant/conformance/inspector/jsx"
	"github.com/viant/conformance/schema"
)

func TestParseEntities(t *testing.T) {
	tests := []struct {
		description string
		location    string
		src         string
		expect      []code.Entity
	}{
		{
			description: "library module",
			location:    "web/src/lru.js",
			src:         "export function evict(cache) {}\n\nclass Lru {\n  get(key) { return key; }\n}\n\nconst size = (cache) => 0;\n",
			expect: []code.Entity{
				{Name: "lru", Kind: code.KindModule, Range: schema.Range{Start: 0, End: 102}},
				{Name: "lru.evict", Kind: code.KindFunction, Range: schema.Range{Start: 7, End: 31}},
				{Name: "lru.Lru", Kind: code.KindType, Range: schema.Range{Start: 33, End: 73}},
				{Name: "lru.Lru.get", Kind: code.KindMethod, Range: schema.Range{Start: 47, End: 71}},
				{Name: "lru.size", Kind: code.KindFunction, Range: schema.Range{Start: 81, End: 100}},
			},
		},
		{
			description: "test blocks",
			location:    "web/src/lru.test.js",
			src:         "describe(\"LRU\", () => {\n  it(\"evicts\", () => {});\n});\n",
			expect: []code.Entity{
				{Name: "lru", Kind: code.KindModule, Range: schema.Range{Start: 0, End: 54}},
				{Name: "lru.LRU", Kind: code.KindTest, Range: schema.Range{Start: 0, End: 53}},
				{Name: "lru.LRU.evicts", Kind: code.KindTest, Range: schema.Range{Start: 26, End: 49}},
			},
		},
		{
			description: "test calls outside test files are ignored",
			location:    "web/src/setup.js",
			src:         "describe(\"LRU\", () => {});\n",
			expect: []code.Entity{
				{Name: "setup", Kind: code.KindModule, Range: schema.Range{Start: 0, End: 27}},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			aFile, err := jsx.ParseEntities(context.Background(), tc.location, []byte(tc.src))
			require.NoError(t, err)
			assert.Equal(t, tc.expect, aFile.Entities)
		})
	}

	_, err := jsx.ParseEntities(context.Background(), "broken.js", []byte("function ("))
	assert.Error(t, err)
}

func TestPartition(t *testing.T) {
	assert.Equal(t, code.PartitionTest, jsx.Partition("a/lru.spec.jsx"))
	assert.Equal(t, code.PartitionTest, jsx.Partition("a/__tests__/lru.js"))
	assert.Equal(t, code.PartitionLibrary, jsx.Partition("a/lru.mjs"))
	assert.Equal(t, "", jsx.Partition("a/lru.go"))
}
