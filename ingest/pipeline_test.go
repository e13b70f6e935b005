package ingest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/conformance/ingest"
	"github.com/viant/conformance/kind"
	"github.com/viant/conformance/relation"
	"github.com/viant/conformance/schema"
	"github.com/viant/conformance/store"
)

// firstLine annotates the first line of every document with the given kind
type firstLine struct {
	typeID schema.TypeID
}

func (s *firstLine) Scan(ctx context.Context, doc *ingest.Document) (ingest.Writer, error) {
	if strings.Contains(string(doc.Content), "unparsable") {
		return nil, errors.New("unparsable content")
	}
	end := doc.Lines.Size()
	if doc.Lines.LineCount() > 1 {
		end, _, _ = doc.Lines.Line(2)
	}
	return ingest.WriterFunc(func(tx *store.Tx, location schema.LocationID) error {
		id, err := tx.CreateAnnotation(s.typeID)
		if err != nil {
			return err
		}
		if err = tx.AttachLabel(id, "location="+doc.Location); err != nil {
			return err
		}
		if strings.Contains(string(doc.Content), "dangling") {
			_, err = tx.AddRelation(id, 999, s.typeID)
			return err
		}
		return tx.AttachSourceRegion(id, location, schema.Range{Start: 0, End: end})
	}), nil
}

// chain references every annotation from the next one
type chain struct {
	reference schema.TypeID
}

func (c *chain) Link(ctx context.Context, tx *store.Tx) error {
	ids := tx.Annotations()
	for i := 1; i < len(ids); i++ {
		if _, err := tx.AddRelation(ids[i], ids[i-1], c.reference); err != nil {
			return err
		}
	}
	return nil
}

func TestPipeline_Run(t *testing.T) {
	types := kind.NewDefault()
	must, _ := types.Lookup(kind.Must)
	reference, _ := types.Lookup(kind.Reference)
	db := store.New(types)
	pipeline := ingest.New(db,
		ingest.WithScanners(&firstLine{typeID: must}),
		ingest.WithLinkers(&chain{reference: reference}),
		ingest.WithWorkers(1))

	snapshot, report, err := pipeline.Run(context.Background(), []ingest.Input{
		{Location: "a.txt", Title: "A", Content: []byte("first\nsecond\n")},
		{Location: "b.txt", Content: []byte("unparsable\n")},
		{Location: "c.txt", Content: []byte("dangling\n")},
		{Location: "d.txt", Content: []byte("only")},
	})
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	assert.Equal(t, []string{"a.txt", "d.txt"}, report.Ingested)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, "b.txt", report.Failures[0].Location)
	assert.Equal(t, ingest.StageScan, report.Failures[0].Stage)
	assert.Equal(t, "c.txt", report.Failures[1].Location)
	assert.Equal(t, ingest.StageWrite, report.Failures[1].Stage)
	assert.True(t, report.Failed())
	require.Len(t, report.Fatal(), 1)
	assert.ErrorIs(t, report.Err(), schema.ErrIntegrityViolation)

	_, ok := snapshot.LookupLocation("c.txt")
	assert.False(t, ok, "failed source is rolled back")
	ids := snapshot.Annotations()
	require.Len(t, ids, 2)

	assert.Equal(t, []schema.AnnotationID{ids[1]}, snapshot.Neighbors(ids[0], relation.Incoming))
	assert.Equal(t, []string{"location=a.txt"}, snapshot.Labels(ids[0]))
	a, _ := snapshot.LookupLocation("a.txt")
	text, err := snapshot.Text(a, snapshot.SourceRegions(ids[0])[0].Range)
	require.NoError(t, err)
	assert.Equal(t, "first\n", text)
	d, _ := snapshot.LookupLocation("d.txt")
	text, err = snapshot.Text(d, snapshot.SourceRegions(ids[1])[0].Range)
	require.NoError(t, err)
	assert.Equal(t, "only", text)
	assert.ErrorIs(t, db.Update(func(tx *store.Tx) error { return nil }), schema.ErrFrozen)
}

func TestPipeline_LinkFailure(t *testing.T) {
	types := kind.NewDefault()
	db := store.New(types)
	pipeline := ingest.New(db, ingest.WithLinkers(&chain{reference: 999}))
	_, report, err := pipeline.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, report.Failed())

	db = store.New(types)
	must, _ := types.Lookup(kind.Must)
	pipeline = ingest.New(db, ingest.WithScanners(&firstLine{typeID: must}), ingest.WithLinkers(&chain{reference: 999}))
	_, report, err = pipeline.Run(context.Background(), []ingest.Input{
		{Location: "a.txt", Content: []byte("a\n")},
		{Location: "b.txt", Content: []byte("b\n")},
	})
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, ingest.StageLink, report.Failures[0].Stage)
	assert.ErrorIs(t, report.Failures[0], schema.ErrUnknownTypeID)
	assert.Equal(t, 0, db.Stats().Relations)
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"go.mod":              "module example.com/cache\n\ngo 1.22\n",
		"cache.go":            "package cache\n",
		"docs/spec.md":        "# Cache\n",
		"docs/notes.bin":      "\x00",
		".git/config":         "[core]\n",
		"internal/lru/lru.go": "package lru\n",
	}
	for name, content := range files {
		target := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
		require.NoError(t, os.WriteFile(target, []byte(content), 0o644))
	}
	fs := afs.New()
	ctx := context.Background()

	module, err := ingest.DetectModule(ctx, fs, root)
	require.NoError(t, err)
	assert.Equal(t, "example.com/cache", module)

	inputs, err := ingest.Discover(ctx, fs, root, []string{"*.go", "*.md"})
	require.NoError(t, err)
	var locations []string
	for _, input := range inputs {
		locations = append(locations, input.Location)
	}
	assert.Equal(t, []string{
		"example.com/cache/cache.go",
		"example.com/cache/docs/spec.md",
		"example.com/cache/internal/lru/lru.go",
	}, locations)
	assert.Equal(t, "package cache\n", string(inputs[0].Content))

	module, err = ingest.DetectModule(ctx, fs, filepath.Join(root, "docs"))
	require.NoError(t, err)
	assert.Empty(t, module)
}
