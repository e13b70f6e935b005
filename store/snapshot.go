package store

import (
	"sort"

	"github.com/viant/conformance/annotation"
	"github.com/viant/conformance/kind"
	"github.com/viant/conformance/relation"
	"github.com/viant/conformance/schema"
	"github.com/viant/conformance/source"
)

// Snapshot represents the frozen database; it is safe for concurrent reads
type Snapshot struct {
	*Reader
	sweeps map[schema.LocationID]*annotation.Sweep
}

func newSnapshot(d *Database) *Snapshot {
	byLocation := map[schema.LocationID][]annotation.Region{}
	for _, rec := range d.annotations {
		for _, region := range d.regions(rec.row.ID) {
			byLocation[region.Location] = append(byLocation[region.Location], region)
		}
	}
	sweeps := make(map[schema.LocationID]*annotation.Sweep, len(byLocation))
	for id, regions := range byLocation {
		sweeps[id] = annotation.NewSweep(regions)
	}
	return &Snapshot{Reader: &Reader{db: d}, sweeps: sweeps}
}

// Types returns the type registry
func (s *Snapshot) Types() *kind.Registry {
	return s.db.types
}

// Sources returns all sources in id order
func (s *Snapshot) Sources() []*source.Source {
	return s.db.sources.Sources()
}

// Relations returns every edge in id order
func (s *Snapshot) Relations() []schema.AnnotationRelation {
	return append([]schema.AnnotationRelation(nil), s.db.graph.Edges()...)
}

// EdgesOf returns edges of an annotation in the given direction
func (s *Snapshot) EdgesOf(id schema.AnnotationID, direction relation.Direction, types ...schema.TypeID) []schema.AnnotationRelation {
	return s.db.graph.EdgesOf(id, direction, types...)
}

// MetricRows returns metrics of an annotation ordered by name
func (s *Snapshot) MetricRows(id schema.AnnotationID) []schema.AnnotationMetric {
	return s.db.metricRows(id)
}

// AllInstances returns every instance in id order
func (s *Snapshot) AllInstances() []*schema.Instance {
	return append([]*schema.Instance(nil), s.db.instances...)
}

// Enclosing returns the innermost instance covering r
func (s *Snapshot) Enclosing(locationID schema.LocationID, r schema.Range) (*schema.Instance, bool) {
	return s.db.instanceIndex(locationID).Enclosing(r)
}

// Segments returns the consolidated regions of a location
func (s *Snapshot) Segments(locationID schema.LocationID) []annotation.Segment {
	if sweep, ok := s.sweeps[locationID]; ok {
		return sweep.Segments()
	}
	return nil
}

// AnnotationsAt returns annotations with a region covering offset
func (s *Snapshot) AnnotationsAt(locationID schema.LocationID, offset int) []schema.AnnotationID {
	if sweep, ok := s.sweeps[locationID]; ok {
		return sweep.At(offset)
	}
	return nil
}

// Overlapping returns other annotations whose regions collide with any region of id
func (s *Snapshot) Overlapping(id schema.AnnotationID) []schema.AnnotationID {
	seen := map[schema.AnnotationID]bool{id: true}
	var result []schema.AnnotationID
	for _, region := range s.db.regions(id) {
		sweep, ok := s.sweeps[region.Location]
		if !ok {
			continue
		}
		for _, other := range sweep.Overlapping(region.Range) {
			if seen[other] {
				continue
			}
			seen[other] = true
			result = append(result, other)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Position converts a byte offset of a location into a 1-based line and 0-based column
func (s *Snapshot) Position(locationID schema.LocationID, offset int) (int, int, error) {
	src, err := s.db.content(locationID)
	if err != nil {
		return 0, 0, err
	}
	return src.Lines.OffsetToLine(offset)
}
