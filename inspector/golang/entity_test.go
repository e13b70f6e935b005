package golang_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/conformance/inspector/code"
	"github.com/viant/conformance/inspector/golang"
	"github.com/viant/conformance/schema"
)

func TestParseEntities(t *testing.T) {
	tests := []struct {
		description string
		location    string
		src         string
		expect      []code.Entity
		expectErr   bool
	}{
		{
			description: "library file",
			location:    "example.com/cache/lru.go",
			src:         "package cache\n\ntype LRU[K comparable] struct{}\n\nfunc (c *LRU[K]) Evict() {}\n\nfunc New() *LRU[string] { return nil }\n",
			expect: []code.Entity{
				{Name: "cache", Kind: code.KindPackage, Range: schema.Range{Start: 0, End: 116}},
				{Name: "cache.LRU", Kind: code.KindType, Range: schema.Range{Start: 20, End: 46}},
				{Name: "cache.LRU.Evict", Kind: code.KindMethod, Range: schema.Range{Start: 48, End: 75}},
				{Name: "cache.New", Kind: code.KindFunction, Range: schema.Range{Start: 77, End: 115}},
			},
		},
		{
			description: "test file",
			location:    "example.com/cache/lru_test.go",
			src:         "package cache\n\nimport \"testing\"\n\nfunc TestEvict(t *testing.T) {}\n\nfunc helper() {}\n",
			expect: []code.Entity{
				{Name: "cache", Kind: code.KindPackage, Range: schema.Range{Start: 0, End: 83}},
				{Name: "cache.TestEvict", Kind: code.KindTest, Range: schema.Range{Start: 33, End: 64}},
				{Name: "cache.helper", Kind: code.KindFunction, Range: schema.Range{Start: 66, End: 82}},
			},
		},
		{
			description: "syntax error",
			location:    "broken.go",
			src:         "package cache\n\nfunc (\n",
			expectErr:   true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			aFile, err := golang.ParseEntities(context.Background(), tc.location, []byte(tc.src))
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "cache", aFile.Package)
			assert.Equal(t, tc.expect, aFile.Entities)
		})
	}
}

func TestPartition(t *testing.T) {
	assert.Equal(t, code.PartitionTest, golang.Partition("a/b_test.go"))
	assert.Equal(t, code.PartitionLibrary, golang.Partition("a/b.go"))
	assert.Equal(t, "", golang.Partition("a/spec.md"))
}
