package status

import (
	"github.com/viant/conformance/annotation"
	"github.com/viant/conformance/kind"
	"github.com/viant/conformance/relation"
	"github.com/viant/conformance/schema"
	"github.com/viant/conformance/store"
)

// Partitioner classifies the instance enclosing a region, e.g. "test" or "library"; empty means unclassified
type Partitioner func(instance *schema.Instance, location *schema.SourceLocation) string

// Region represents an annotation region with its enclosing instance classification
type Region struct {
	annotation.Region
	Enclosing *schema.Instance
	Partition string
}

// Neighbor represents an annotation adjacent through one relation
type Neighbor struct {
	Annotation schema.AnnotationID
	TypeID     schema.TypeID
	Relation   schema.AnnotationRelation
	Regions    []Region
	Labels     []string
	Metrics    map[string]int64
}

// Neighborhood is the resolved input of a rule
type Neighborhood struct {
	Annotation schema.Annotation
	Regions    []Region
	Labels     []string
	Metrics    map[string]int64
	Outgoing   []Neighbor
	Incoming   []Neighbor
	Types      *kind.Registry
}

// Related returns neighbors in a direction whose relation type is one of types, or all when types is empty
func (n *Neighborhood) Related(direction relation.Direction, types ...schema.TypeID) []Neighbor {
	neighbors := n.Outgoing
	if direction == relation.Incoming {
		neighbors = n.Incoming
	}
	if len(types) == 0 {
		return neighbors
	}
	var result []Neighbor
	for _, neighbor := range neighbors {
		for _, t := range types {
			if neighbor.Relation.TypeID == t {
				result = append(result, neighbor)
				break
			}
		}
	}
	return result
}

// ByType groups neighbors in a direction by relation type
func (n *Neighborhood) ByType(direction relation.Direction) map[schema.TypeID][]Neighbor {
	result := map[schema.TypeID][]Neighbor{}
	for _, neighbor := range n.Related(direction) {
		result[neighbor.Relation.TypeID] = append(result[neighbor.Relation.TypeID], neighbor)
	}
	return result
}

type resolver struct {
	snapshot    *store.Snapshot
	partitioner Partitioner
	regions     map[schema.AnnotationID][]Region
}

func (r *resolver) neighborhood(id schema.AnnotationID) *Neighborhood {
	row, _ := r.snapshot.Annotation(id)
	result := &Neighborhood{
		Annotation: row,
		Regions:    r.classify(id),
		Labels:     r.snapshot.Labels(id),
		Metrics:    r.snapshot.Metrics(id),
		Types:      r.snapshot.Types(),
	}
	for _, edge := range r.snapshot.EdgesOf(id, relation.Outgoing) {
		result.Outgoing = append(result.Outgoing, r.neighbor(edge.Target, edge))
	}
	for _, edge := range r.snapshot.EdgesOf(id, relation.Incoming) {
		result.Incoming = append(result.Incoming, r.neighbor(edge.Source, edge))
	}
	return result
}

func (r *resolver) neighbor(id schema.AnnotationID, edge schema.AnnotationRelation) Neighbor {
	row, _ := r.snapshot.Annotation(id)
	return Neighbor{
		Annotation: id,
		TypeID:     row.TypeID,
		Relation:   edge,
		Regions:    r.classify(id),
		Labels:     r.snapshot.Labels(id),
		Metrics:    r.snapshot.Metrics(id),
	}
}

// classify maps every region of id to its smallest enclosing instance; it is called from a single goroutine
func (r *resolver) classify(id schema.AnnotationID) []Region {
	if regions, ok := r.regions[id]; ok {
		return regions
	}
	var result []Region
	for _, region := range r.snapshot.Regions(id) {
		item := Region{Region: region}
		if region.Instance != 0 {
			item.Enclosing, _ = r.snapshot.Instance(region.Instance)
		} else {
			item.Enclosing, _ = r.snapshot.SmallestContaining(region.Location, region.Start)
		}
		if item.Enclosing != nil && r.partitioner != nil {
			location, _ := r.snapshot.Location(region.Location)
			item.Partition = r.partitioner(item.Enclosing, location)
		}
		result = append(result, item)
	}
	r.regions[id] = result
	return result
}
