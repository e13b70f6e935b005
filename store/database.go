// Package store holds sources, instances, annotations and relations, and freezes them into a snapshot.
package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/viant/conformance/annotation"
	"github.com/viant/conformance/instance"
	"github.com/viant/conformance/kind"
	"github.com/viant/conformance/relation"
	"github.com/viant/conformance/schema"
	"github.com/viant/conformance/source"
)

// Phase represents the ingestion stage of a database
type Phase int

const (
	// PhaseIngest accepts per-source writes
	PhaseIngest Phase = iota
	// PhaseLink accepts deferred cross-source relations
	PhaseLink
	// PhaseFrozen rejects all writes
	PhaseFrozen
)

func (p Phase) String() string {
	switch p {
	case PhaseIngest:
		return "ingest"
	case PhaseLink:
		return "link"
	case PhaseFrozen:
		return "frozen"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

type record struct {
	row             schema.Annotation
	labels          []string
	labelSet        map[string]bool
	metrics         map[string]int64
	sourceRegions   []schema.AnnotationSourceRegion
	instanceRegions []schema.AnnotationInstanceRegion
}

// Database represents the in-memory relational store; every table is a flat arena addressed by id
type Database struct {
	mu          sync.RWMutex
	phase       Phase
	types       *kind.Registry
	sources     *source.Registry
	locations   []*schema.SourceLocation // index: id-1
	byLocation  map[string]schema.LocationID
	instances   []*schema.Instance // index: id-1
	byInstances map[schema.LocationID]*instance.Index
	annotations []*record // index: id-1
	graph       *relation.Graph
	snapshot    *Snapshot
}

// New creates an empty database validating type ids against types
func New(types *kind.Registry) *Database {
	if types == nil {
		types = kind.NewDefault()
	}
	return &Database{
		types:       types,
		sources:     source.NewRegistry(),
		byLocation:  make(map[string]schema.LocationID),
		byInstances: make(map[schema.LocationID]*instance.Index),
		graph:       relation.New(),
	}
}

// Types returns the type registry
func (d *Database) Types() *kind.Registry {
	return d.types
}

// Sources returns the content-addressed source registry
func (d *Database) Sources() *source.Registry {
	return d.sources
}

// Phase returns the current phase
func (d *Database) Phase() Phase {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.phase
}

// Update runs fn as one atomic write unit, any error or panic reverts every write made through tx
func (d *Database) Update(fn func(tx *Tx) error) (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase == PhaseFrozen {
		return fmt.Errorf("update: %w", schema.ErrFrozen)
	}
	tx := &Tx{Reader: &Reader{db: d}, writable: true}
	defer func() {
		tx.closed = true
		if r := recover(); r != nil {
			tx.rollback()
			panic(r)
		}
	}()
	if err = fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// View runs fn with a consistent reader
func (d *Database) View(fn func(reader *Reader) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return fn(&Reader{db: d})
}

// BeginLink moves the database into the deferred cross-source relation phase
func (d *Database) BeginLink() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase == PhaseFrozen {
		return fmt.Errorf("begin link: %w", schema.ErrFrozen)
	}
	d.phase = PhaseLink
	return nil
}

// Freeze ends ingestion and returns the immutable snapshot read by the status engine
func (d *Database) Freeze() *Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snapshot == nil {
		d.phase = PhaseFrozen
		d.snapshot = newSnapshot(d)
	}
	return d.snapshot
}

// Stats represents row counts
type Stats struct {
	Sources     int
	Locations   int
	Instances   int
	Annotations int
	Relations   int
}

// Stats returns row counts
func (d *Database) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Stats{
		Sources:     d.sources.Len(),
		Locations:   len(d.locations),
		Instances:   len(d.instances),
		Annotations: len(d.annotations),
		Relations:   d.graph.Len(),
	}
}

func (d *Database) location(id schema.LocationID) (*schema.SourceLocation, bool) {
	if id < 1 || int(id) > len(d.locations) {
		return nil, false
	}
	return d.locations[id-1], true
}

func (d *Database) content(id schema.LocationID) (*source.Source, error) {
	location, ok := d.location(id)
	if !ok {
		return nil, fmt.Errorf("location %d: %w", id, schema.ErrIntegrityViolation)
	}
	src, ok := d.sources.Lookup(location.SourceID)
	if !ok {
		return nil, fmt.Errorf("location %q source %d: %w", location.Location, location.SourceID, schema.ErrIntegrityViolation)
	}
	return src, nil
}

func (d *Database) instance(id schema.InstanceID) (*schema.Instance, bool) {
	if id < 1 || int(id) > len(d.instances) {
		return nil, false
	}
	return d.instances[id-1], true
}

func (d *Database) record(id schema.AnnotationID) (*record, bool) {
	if id < 1 || int(id) > len(d.annotations) {
		return nil, false
	}
	return d.annotations[id-1], true
}

func (d *Database) instanceIndex(id schema.LocationID) *instance.Index {
	if index, ok := d.byInstances[id]; ok {
		return index
	}
	return &instance.Index{}
}

func (d *Database) text(id schema.LocationID, r schema.Range) (string, error) {
	src, err := d.content(id)
	if err != nil {
		return "", err
	}
	if !r.Valid() || r.End > len(src.Content) {
		return "", fmt.Errorf("range %v of %d bytes: %w", r, len(src.Content), schema.ErrOffsetOutOfRange)
	}
	return string(src.Content[r.Start:r.End]), nil
}

func (d *Database) metrics(id schema.AnnotationID) map[string]int64 {
	rec, ok := d.record(id)
	if !ok {
		return nil
	}
	result := make(map[string]int64, len(rec.metrics))
	for name, value := range rec.metrics {
		result[name] = value
	}
	return result
}

func (d *Database) metricRows(id schema.AnnotationID) []schema.AnnotationMetric {
	rec, ok := d.record(id)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(rec.metrics))
	for name := range rec.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([]schema.AnnotationMetric, len(names))
	for i, name := range names {
		rows[i] = schema.AnnotationMetric{AnnotationID: id, Name: name, Value: rec.metrics[name]}
	}
	return rows
}

func (d *Database) regions(id schema.AnnotationID) []annotation.Region {
	rec, ok := d.record(id)
	if !ok {
		return nil
	}
	result := make([]annotation.Region, 0, len(rec.sourceRegions)+len(rec.instanceRegions))
	for _, region := range rec.sourceRegions {
		result = append(result, annotation.Region{Annotation: id, Location: region.LocationID, Range: region.Range})
	}
	for _, region := range rec.instanceRegions {
		if owner, ok := d.instance(region.InstanceID); ok {
			result = append(result, annotation.Resolve(region, owner))
		}
	}
	return result
}
