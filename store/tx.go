package store

import (
	"errors"
	"fmt"

	"github.com/viant/conformance/annotation"
	"github.com/viant/conformance/instance"
	"github.com/viant/conformance/relation"
	"github.com/viant/conformance/schema"
	"github.com/viant/conformance/source"
)

var errReadOnly = errors.New("read-only transaction")

// Reader exposes consistent reads of the database
type Reader struct {
	db *Database
}

// Tx represents a unit of work against the database
type Tx struct {
	*Reader
	writable bool
	closed   bool
	undo     []func()
}

func (t *Tx) checkWrite() error {
	if !t.writable || t.closed {
		return errReadOnly
	}
	return nil
}

func (t *Tx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *Tx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

// RegisterSource stores content and returns its id; identical content returns the same id
func (t *Tx) RegisterSource(content []byte) (schema.SourceID, error) {
	if err := t.checkWrite(); err != nil {
		return 0, err
	}
	return t.db.sources.Register(content), nil
}

// BindLocation binds a location string to a source
func (t *Tx) BindLocation(location, title string, sourceID schema.SourceID) (schema.LocationID, error) {
	if err := t.checkWrite(); err != nil {
		return 0, err
	}
	db := t.db
	if _, ok := db.sources.Lookup(sourceID); !ok {
		return 0, fmt.Errorf("bind %q to source %d: %w", location, sourceID, schema.ErrIntegrityViolation)
	}
	if id, ok := db.byLocation[location]; ok {
		existing := db.locations[id-1]
		if existing.SourceID != sourceID {
			return 0, fmt.Errorf("bind %q to source %d, bound to %d: %w", location, sourceID, existing.SourceID, schema.ErrDuplicateLocation)
		}
		if title != "" && title != existing.Title {
			previous := existing.Title
			existing.Title = title
			t.onRollback(func() { existing.Title = previous })
		}
		return id, nil
	}
	id := schema.LocationID(len(db.locations) + 1)
	db.locations = append(db.locations, &schema.SourceLocation{ID: id, Location: location, SourceID: sourceID, Title: title})
	db.byLocation[location] = id
	t.onRollback(func() {
		db.locations = db.locations[:id-1]
		delete(db.byLocation, location)
	})
	return id, nil
}

// InsertInstance creates a named program entity spanning r within a location
func (t *Tx) InsertInstance(name string, locationID schema.LocationID, r schema.Range) (schema.InstanceID, error) {
	if err := t.checkWrite(); err != nil {
		return 0, err
	}
	db := t.db
	src, err := db.content(locationID)
	if err != nil {
		return 0, fmt.Errorf("instance %q: %w", name, err)
	}
	if !r.Valid() || r.End > len(src.Content) {
		return 0, fmt.Errorf("instance %q range %v of %d bytes: %w", name, r, len(src.Content), schema.ErrOffsetOutOfRange)
	}
	id := schema.InstanceID(len(db.instances) + 1)
	item := &schema.Instance{ID: id, Name: name, LocationID: locationID, Range: r}
	db.instances = append(db.instances, item)
	index, ok := db.byInstances[locationID]
	if !ok {
		index = &instance.Index{}
		db.byInstances[locationID] = index
	}
	index.Add(item)
	t.onRollback(func() {
		db.instances = db.instances[:id-1]
		index.Remove(id)
		if index.Len() == 0 {
			delete(db.byInstances, locationID)
		}
	})
	return id, nil
}

// CreateAnnotation creates an annotation of a registered type
func (t *Tx) CreateAnnotation(typeID schema.TypeID) (schema.AnnotationID, error) {
	if err := t.checkWrite(); err != nil {
		return 0, err
	}
	db := t.db
	if !db.types.Has(typeID) {
		return 0, fmt.Errorf("annotation type %d: %w", typeID, schema.ErrUnknownTypeID)
	}
	id := schema.AnnotationID(len(db.annotations) + 1)
	db.annotations = append(db.annotations, &record{row: schema.Annotation{ID: id, TypeID: typeID}})
	t.onRollback(func() { db.annotations = db.annotations[:id-1] })
	return id, nil
}

func (t *Tx) annotationRecord(id schema.AnnotationID) (*record, error) {
	rec, ok := t.db.record(id)
	if !ok {
		return nil, fmt.Errorf("annotation %d: %w", id, schema.ErrIntegrityViolation)
	}
	return rec, nil
}

// AttachLabel adds a label; duplicates collapse
func (t *Tx) AttachLabel(id schema.AnnotationID, label string) error {
	if err := t.checkWrite(); err != nil {
		return err
	}
	rec, err := t.annotationRecord(id)
	if err != nil {
		return fmt.Errorf("label %q: %w", label, err)
	}
	if rec.labelSet[label] {
		return nil
	}
	if rec.labelSet == nil {
		rec.labelSet = map[string]bool{}
	}
	rec.labelSet[label] = true
	rec.labels = append(rec.labels, label)
	t.onRollback(func() {
		delete(rec.labelSet, label)
		rec.labels = rec.labels[:len(rec.labels)-1]
	})
	return nil
}

// AttachMetric sets a named value, overwriting a previous one
func (t *Tx) AttachMetric(id schema.AnnotationID, name string, value int64) error {
	if err := t.checkWrite(); err != nil {
		return err
	}
	rec, err := t.annotationRecord(id)
	if err != nil {
		return fmt.Errorf("metric %q: %w", name, err)
	}
	if rec.metrics == nil {
		rec.metrics = map[string]int64{}
	}
	previous, existed := rec.metrics[name]
	rec.metrics[name] = value
	t.onRollback(func() {
		if existed {
			rec.metrics[name] = previous
			return
		}
		delete(rec.metrics, name)
	})
	return nil
}

// AttachSourceRegion anchors an annotation to raw text of a location
func (t *Tx) AttachSourceRegion(id schema.AnnotationID, locationID schema.LocationID, r schema.Range) error {
	if err := t.checkWrite(); err != nil {
		return err
	}
	rec, err := t.annotationRecord(id)
	if err != nil {
		return fmt.Errorf("source region: %w", err)
	}
	src, err := t.db.content(locationID)
	if err != nil {
		return fmt.Errorf("source region of annotation %d: %w", id, err)
	}
	if !r.Valid() || r.End > len(src.Content) {
		return fmt.Errorf("source region %v of %d bytes: %w", r, len(src.Content), schema.ErrOffsetOutOfRange)
	}
	row := schema.AnnotationSourceRegion{AnnotationID: id, Range: r, LocationID: locationID}
	for _, existing := range rec.sourceRegions {
		if existing == row {
			return nil
		}
	}
	rec.sourceRegions = append(rec.sourceRegions, row)
	t.onRollback(func() { rec.sourceRegions = rec.sourceRegions[:len(rec.sourceRegions)-1] })
	return nil
}

// AttachInstanceRegion anchors an annotation to instance-relative offsets
func (t *Tx) AttachInstanceRegion(id schema.AnnotationID, instanceID schema.InstanceID, r schema.Range) error {
	if err := t.checkWrite(); err != nil {
		return err
	}
	rec, err := t.annotationRecord(id)
	if err != nil {
		return fmt.Errorf("instance region: %w", err)
	}
	owner, ok := t.db.instance(instanceID)
	if !ok {
		return fmt.Errorf("instance region of annotation %d, instance %d: %w", id, instanceID, schema.ErrIntegrityViolation)
	}
	if !r.Valid() || r.End > owner.Width() {
		return fmt.Errorf("instance region %v of %q width %d: %w", r, owner.Name, owner.Width(), schema.ErrOffsetOutOfRange)
	}
	row := schema.AnnotationInstanceRegion{AnnotationID: id, Range: r, InstanceID: instanceID}
	for _, existing := range rec.instanceRegions {
		if existing == row {
			return nil
		}
	}
	rec.instanceRegions = append(rec.instanceRegions, row)
	t.onRollback(func() { rec.instanceRegions = rec.instanceRegions[:len(rec.instanceRegions)-1] })
	return nil
}

// AddRelation adds a directed typed edge; an identical triple returns the existing edge
func (t *Tx) AddRelation(sourceID, targetID schema.AnnotationID, typeID schema.TypeID) (schema.EdgeID, error) {
	if err := t.checkWrite(); err != nil {
		return 0, err
	}
	db := t.db
	if _, err := t.annotationRecord(sourceID); err != nil {
		return 0, fmt.Errorf("relation source: %w", err)
	}
	if _, err := t.annotationRecord(targetID); err != nil {
		return 0, fmt.Errorf("relation target: %w", err)
	}
	if !db.types.Has(typeID) {
		return 0, fmt.Errorf("relation type %d: %w", typeID, schema.ErrUnknownTypeID)
	}
	id, created := db.graph.Add(sourceID, targetID, typeID)
	if created {
		t.onRollback(func() { db.graph.Truncate(int(id) - 1) })
	}
	return id, nil
}

// Location returns a location row
func (rd *Reader) Location(id schema.LocationID) (*schema.SourceLocation, bool) {
	location, ok := rd.db.location(id)
	if !ok {
		return nil, false
	}
	result := *location
	return &result, true
}

// LookupLocation returns the id bound to a location string
func (rd *Reader) LookupLocation(location string) (schema.LocationID, bool) {
	id, ok := rd.db.byLocation[location]
	return id, ok
}

// Locations returns all location rows in id order
func (rd *Reader) Locations() []schema.SourceLocation {
	result := make([]schema.SourceLocation, len(rd.db.locations))
	for i, location := range rd.db.locations {
		result[i] = *location
	}
	return result
}

// Source returns the source bound to a location
func (rd *Reader) Source(locationID schema.LocationID) (*source.Source, error) {
	return rd.db.content(locationID)
}

// Text returns the bytes of r within a location as string
func (rd *Reader) Text(locationID schema.LocationID, r schema.Range) (string, error) {
	return rd.db.text(locationID, r)
}

// Annotation returns an annotation row
func (rd *Reader) Annotation(id schema.AnnotationID) (schema.Annotation, bool) {
	rec, ok := rd.db.record(id)
	if !ok {
		return schema.Annotation{}, false
	}
	return rec.row, true
}

// Annotations returns ids of annotations whose type is one of types, or all when types is empty
func (rd *Reader) Annotations(types ...schema.TypeID) []schema.AnnotationID {
	var result []schema.AnnotationID
	for _, rec := range rd.db.annotations {
		if len(types) > 0 && !hasType(types, rec.row.TypeID) {
			continue
		}
		result = append(result, rec.row.ID)
	}
	return result
}

// AnnotationsIn returns ids of annotations with a source region on a location
func (rd *Reader) AnnotationsIn(locationID schema.LocationID) []schema.AnnotationID {
	var result []schema.AnnotationID
	for _, rec := range rd.db.annotations {
		for _, region := range rec.sourceRegions {
			if region.LocationID == locationID {
				result = append(result, rec.row.ID)
				break
			}
		}
	}
	return result
}

// Labels returns labels of an annotation in attach order
func (rd *Reader) Labels(id schema.AnnotationID) []string {
	rec, ok := rd.db.record(id)
	if !ok {
		return nil
	}
	return append([]string(nil), rec.labels...)
}

// Metrics returns a copy of the metrics of an annotation
func (rd *Reader) Metrics(id schema.AnnotationID) map[string]int64 {
	return rd.db.metrics(id)
}

// SourceRegions returns source regions of an annotation
func (rd *Reader) SourceRegions(id schema.AnnotationID) []schema.AnnotationSourceRegion {
	rec, ok := rd.db.record(id)
	if !ok {
		return nil
	}
	return append([]schema.AnnotationSourceRegion(nil), rec.sourceRegions...)
}

// InstanceRegions returns instance regions of an annotation
func (rd *Reader) InstanceRegions(id schema.AnnotationID) []schema.AnnotationInstanceRegion {
	rec, ok := rd.db.record(id)
	if !ok {
		return nil
	}
	return append([]schema.AnnotationInstanceRegion(nil), rec.instanceRegions...)
}

// Regions returns all regions of an annotation in location coordinates
func (rd *Reader) Regions(id schema.AnnotationID) []annotation.Region {
	return rd.db.regions(id)
}

// Instance returns an instance row
func (rd *Reader) Instance(id schema.InstanceID) (*schema.Instance, bool) {
	return rd.db.instance(id)
}

// Instances returns instances of a location in start order
func (rd *Reader) Instances(locationID schema.LocationID) []*schema.Instance {
	return append([]*schema.Instance(nil), rd.db.instanceIndex(locationID).Instances()...)
}

// Containing returns instances of a location containing offset, outermost first
func (rd *Reader) Containing(locationID schema.LocationID, offset int) []*schema.Instance {
	return rd.db.instanceIndex(locationID).Containing(offset)
}

// SmallestContaining returns the innermost instance of a location containing offset
func (rd *Reader) SmallestContaining(locationID schema.LocationID, offset int) (*schema.Instance, bool) {
	return rd.db.instanceIndex(locationID).SmallestContaining(offset)
}

// Neighbors returns adjacent annotations, optionally filtered by relation type
func (rd *Reader) Neighbors(id schema.AnnotationID, direction relation.Direction, types ...schema.TypeID) []schema.AnnotationID {
	return rd.db.graph.Neighbors(id, direction, types...)
}

func hasType(types []schema.TypeID, candidate schema.TypeID) bool {
	for _, t := range types {
		if t == candidate {
			return true
		}
	}
	return false
}
