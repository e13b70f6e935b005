package store_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/conformance/kind"
	"github.com/viant/conformance/relation"
	"github.com/viant/conformance/schema"
	"github.com/viant/conformance/store"
)

const specText = "Section 1\nThe engine MUST hold.\nNothing else.\n"

func typeID(t *testing.T, db *store.Database, name string) schema.TypeID {
	id, err := db.Types().MustLookup(name)
	require.NoError(t, err)
	return id
}

func TestDatabase_ComplianceExampleLayout(t *testing.T) {
	db := store.New(kind.NewDefault())
	var location schema.LocationID
	var requirement, citation schema.AnnotationID
	err := db.Update(func(tx *store.Tx) error {
		sourceID, err := tx.RegisterSource([]byte(specText))
		require.NoError(t, err)
		location, err = tx.BindLocation("spec.txt", "Spec", sourceID)
		require.NoError(t, err)
		requirement, err = tx.CreateAnnotation(typeID(t, db, kind.Must))
		require.NoError(t, err)
		require.NoError(t, tx.AttachSourceRegion(requirement, location, schema.Range{Start: 12, End: 20}))
		citation, err = tx.CreateAnnotation(typeID(t, db, kind.Test))
		require.NoError(t, err)
		_, err = tx.AddRelation(citation, requirement, typeID(t, db, kind.Reference))
		return err
	})
	require.NoError(t, err)

	snapshot := db.Freeze()
	src, err := snapshot.Source(location)
	require.NoError(t, err)
	offset, _, ok := src.Lines.Line(2)
	require.True(t, ok)
	assert.Equal(t, 10, offset)

	line, column, err := snapshot.Position(location, 12)
	require.NoError(t, err)
	assert.Equal(t, 2, line)
	assert.Equal(t, 2, column)

	text, err := snapshot.Text(location, schema.Range{Start: 12, End: 20})
	require.NoError(t, err)
	assert.Equal(t, "e engine", text)
	assert.Equal(t, []schema.AnnotationID{citation}, snapshot.Neighbors(requirement, relation.Incoming))
	assert.Equal(t, []schema.AnnotationID{requirement}, snapshot.AnnotationsAt(location, 15))
}

func TestDatabase_Idempotence(t *testing.T) {
	db := store.New(nil)
	err := db.Update(func(tx *store.Tx) error {
		first, _ := tx.RegisterSource([]byte("abc"))
		second, _ := tx.RegisterSource([]byte("abc"))
		assert.Equal(t, first, second)

		location, err := tx.BindLocation("a.txt", "", first)
		require.NoError(t, err)
		again, err := tx.BindLocation("a.txt", "A", first)
		require.NoError(t, err)
		assert.Equal(t, location, again)

		a, _ := tx.CreateAnnotation(1)
		b, _ := tx.CreateAnnotation(1)
		reference := typeID(t, db, kind.Reference)
		e1, err := tx.AddRelation(a, b, reference)
		require.NoError(t, err)
		e2, err := tx.AddRelation(a, b, reference)
		require.NoError(t, err)
		assert.Equal(t, e1, e2)

		require.NoError(t, tx.AttachLabel(a, "x"))
		require.NoError(t, tx.AttachLabel(a, "x"))
		assert.Equal(t, []string{"x"}, tx.Labels(a))

		require.NoError(t, tx.AttachMetric(a, "hits", 1))
		require.NoError(t, tx.AttachMetric(a, "hits", 3))
		assert.Equal(t, map[string]int64{"hits": 3}, tx.Metrics(a))

		require.NoError(t, tx.AttachSourceRegion(a, location, schema.Range{Start: 0, End: 2}))
		require.NoError(t, tx.AttachSourceRegion(a, location, schema.Range{Start: 0, End: 2}))
		assert.Len(t, tx.SourceRegions(a), 1)
		return nil
	})
	require.NoError(t, err)
	stats := db.Stats()
	assert.Equal(t, store.Stats{Sources: 1, Locations: 1, Annotations: 2, Relations: 1}, stats)
}

func TestDatabase_Errors(t *testing.T) {
	db := store.New(nil)
	var location schema.LocationID
	var instanceID schema.InstanceID
	require.NoError(t, db.Update(func(tx *store.Tx) error {
		sourceID, _ := tx.RegisterSource([]byte("package x\n\nfunc F() {}\n"))
		var err error
		location, err = tx.BindLocation("x.go", "", sourceID)
		if err != nil {
			return err
		}
		instanceID, err = tx.InsertInstance("F", location, schema.Range{Start: 11, End: 23})
		return err
	}))

	tests := []struct {
		description string
		write       func(tx *store.Tx) error
		expect      error
	}{
		{
			description: "rebind location to other content",
			write: func(tx *store.Tx) error {
				other, _ := tx.RegisterSource([]byte("other"))
				_, err := tx.BindLocation("x.go", "", other)
				return err
			},
			expect: schema.ErrDuplicateLocation,
		},
		{
			description: "instance beyond content",
			write: func(tx *store.Tx) error {
				_, err := tx.InsertInstance("G", location, schema.Range{Start: 20, End: 40})
				return err
			},
			expect: schema.ErrOffsetOutOfRange,
		},
		{
			description: "empty instance range",
			write: func(tx *store.Tx) error {
				_, err := tx.InsertInstance("G", location, schema.Range{Start: 5, End: 5})
				return err
			},
			expect: schema.ErrOffsetOutOfRange,
		},
		{
			description: "instance on unknown location",
			write: func(tx *store.Tx) error {
				_, err := tx.InsertInstance("G", 99, schema.Range{Start: 0, End: 1})
				return err
			},
			expect: schema.ErrIntegrityViolation,
		},
		{
			description: "unknown annotation type",
			write: func(tx *store.Tx) error {
				_, err := tx.CreateAnnotation(999)
				return err
			},
			expect: schema.ErrUnknownTypeID,
		},
		{
			description: "label on missing annotation",
			write: func(tx *store.Tx) error {
				return tx.AttachLabel(42, "x")
			},
			expect: schema.ErrIntegrityViolation,
		},
		{
			description: "instance region wider than instance",
			write: func(tx *store.Tx) error {
				id, _ := tx.CreateAnnotation(1)
				return tx.AttachInstanceRegion(id, instanceID, schema.Range{Start: 0, End: 13})
			},
			expect: schema.ErrOffsetOutOfRange,
		},
		{
			description: "relation to missing annotation",
			write: func(tx *store.Tx) error {
				id, _ := tx.CreateAnnotation(1)
				_, err := tx.AddRelation(id, 77, 1)
				return err
			},
			expect: schema.ErrIntegrityViolation,
		},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			err := db.Update(tc.write)
			assert.ErrorIs(t, err, tc.expect)
		})
	}
	assert.Equal(t, 0, db.Stats().Annotations)
	assert.Equal(t, 1, db.Stats().Instances)
}

func TestDatabase_Rollback(t *testing.T) {
	db := store.New(nil)
	require.NoError(t, db.Update(func(tx *store.Tx) error {
		sourceID, _ := tx.RegisterSource([]byte("keep me"))
		location, err := tx.BindLocation("keep.txt", "Keep", sourceID)
		if err != nil {
			return err
		}
		id, _ := tx.CreateAnnotation(1)
		if err = tx.AttachMetric(id, "score", 1); err != nil {
			return err
		}
		return tx.AttachSourceRegion(id, location, schema.Range{Start: 0, End: 4})
	}))

	failure := errors.New("scanner failed")
	err := db.Update(func(tx *store.Tx) error {
		sourceID, _ := tx.RegisterSource([]byte("drop me"))
		location, err := tx.BindLocation("drop.txt", "", sourceID)
		require.NoError(t, err)
		_, err = tx.InsertInstance("drop", location, schema.Range{Start: 0, End: 4})
		require.NoError(t, err)
		keep, _ := tx.LookupLocation("keep.txt")
		_, err = tx.BindLocation("keep.txt", "Renamed", 1)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", mustLocation(t, tx.Reader, keep).Title)
		require.NoError(t, tx.AttachMetric(1, "score", 5))
		id, _ := tx.CreateAnnotation(1)
		_, err = tx.AddRelation(id, 1, 1)
		require.NoError(t, err)
		return failure
	})
	require.ErrorIs(t, err, failure)

	require.NoError(t, db.View(func(reader *store.Reader) error {
		_, ok := reader.LookupLocation("drop.txt")
		assert.False(t, ok)
		keep, ok := reader.LookupLocation("keep.txt")
		require.True(t, ok)
		assert.Equal(t, "Keep", mustLocation(t, reader, keep).Title)
		assert.Equal(t, map[string]int64{"score": 1}, reader.Metrics(1))
		assert.Empty(t, reader.Neighbors(1, relation.Incoming))
		return nil
	}))
	stats := db.Stats()
	assert.Equal(t, 1, stats.Locations)
	assert.Equal(t, 0, stats.Instances)
	assert.Equal(t, 1, stats.Annotations)
	assert.Equal(t, 0, stats.Relations)
	assert.Equal(t, 2, stats.Sources, "content survives rollback")

	assert.Panics(t, func() {
		_ = db.Update(func(tx *store.Tx) error {
			_, _ = tx.CreateAnnotation(1)
			panic("boom")
		})
	})
	assert.Equal(t, 1, db.Stats().Annotations)
}

func mustLocation(t *testing.T, reader *store.Reader, id schema.LocationID) *schema.SourceLocation {
	location, ok := reader.Location(id)
	require.True(t, ok)
	return location
}

func TestDatabase_Phases(t *testing.T) {
	db := store.New(nil)
	assert.Equal(t, store.PhaseIngest, db.Phase())
	require.NoError(t, db.BeginLink())
	assert.Equal(t, store.PhaseLink, db.Phase())
	require.NoError(t, db.Update(func(tx *store.Tx) error {
		_, err := tx.CreateAnnotation(1)
		return err
	}))
	snapshot := db.Freeze()
	assert.Same(t, snapshot, db.Freeze())
	assert.Equal(t, store.PhaseFrozen, db.Phase())

	err := db.Update(func(tx *store.Tx) error { return nil })
	assert.ErrorIs(t, err, schema.ErrFrozen)
	assert.ErrorIs(t, db.BeginLink(), schema.ErrFrozen)
	assert.Equal(t, []schema.AnnotationID{1}, snapshot.Annotations())
}

func TestSnapshot_Regions(t *testing.T) {
	db := store.New(nil)
	content := "package x\n\nfunc F() {\n\treturn\n}\n"
	var a, b, c schema.AnnotationID
	var location schema.LocationID
	var fn schema.InstanceID
	require.NoError(t, db.Update(func(tx *store.Tx) error {
		sourceID, _ := tx.RegisterSource([]byte(content))
		location, _ = tx.BindLocation("x.go", "", sourceID)
		_, err := tx.InsertInstance("x", location, schema.Range{Start: 0, End: len(content)})
		require.NoError(t, err)
		fn, err = tx.InsertInstance("x.F", location, schema.Range{Start: 11, End: len(content) - 1})
		require.NoError(t, err)
		a, _ = tx.CreateAnnotation(1)
		b, _ = tx.CreateAnnotation(1)
		c, _ = tx.CreateAnnotation(1)
		require.NoError(t, tx.AttachSourceRegion(a, location, schema.Range{Start: 11, End: 20}))
		require.NoError(t, tx.AttachInstanceRegion(b, fn, schema.Range{Start: 5, End: 12}))
		return tx.AttachSourceRegion(c, location, schema.Range{Start: 0, End: 7})
	}))
	snapshot := db.Freeze()

	regions := snapshot.Regions(b)
	require.Len(t, regions, 1)
	assert.Equal(t, schema.Range{Start: 16, End: 23}, regions[0].Range)
	assert.Equal(t, fn, regions[0].Instance)

	assert.Equal(t, []schema.AnnotationID{b}, snapshot.Overlapping(a))
	assert.Empty(t, snapshot.Overlapping(c))
	assert.Equal(t, []schema.AnnotationID{a, b}, snapshot.AnnotationsAt(location, 17))

	inner, ok := snapshot.SmallestContaining(location, 17)
	require.True(t, ok)
	assert.Equal(t, "x.F", inner.Name)
	assert.Len(t, snapshot.Containing(location, 17), 2)
	enclosing, ok := snapshot.Enclosing(location, schema.Range{Start: 0, End: 7})
	require.True(t, ok)
	assert.Equal(t, "x", enclosing.Name)
}
