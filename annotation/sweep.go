package annotation

import (
	"sort"

	"github.com/viant/conformance/schema"
)

// Segment is a maximal byte range over which the set of active annotations does not change
type Segment struct {
	schema.Range
	Annotations []schema.AnnotationID
}

// Sweep holds the consolidated view of all regions of one location
type Sweep struct {
	segments []Segment
}

type marker struct {
	offset int
	id     schema.AnnotationID
	end    int
}

// NewSweep consolidates regions into disjoint segments
func NewSweep(regions []Region) *Sweep {
	markers := make([]marker, 0, 2*len(regions))
	for _, region := range regions {
		if !region.Valid() {
			continue
		}
		markers = append(markers,
			marker{offset: region.Start, id: region.Annotation, end: region.End},
			marker{offset: region.End, id: region.Annotation, end: region.End},
		)
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i].offset < markers[j].offset })

	sweep := &Sweep{}
	active := map[schema.AnnotationID]int{}
	for i := 0; i < len(markers); {
		offset := markers[i].offset
		for ; i < len(markers) && markers[i].offset == offset; i++ {
			m := markers[i]
			if prev, ok := active[m.id]; !ok || m.end > prev {
				active[m.id] = m.end
			}
		}
		var ids []schema.AnnotationID
		for id, end := range active {
			if end > offset {
				ids = append(ids, id)
				continue
			}
			delete(active, id)
		}
		if len(ids) == 0 || i == len(markers) {
			continue
		}
		sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
		sweep.segments = append(sweep.segments, Segment{
			Range:       schema.Range{Start: offset, End: markers[i].offset},
			Annotations: ids,
		})
	}
	return sweep
}

// Segments returns consolidated segments in offset order
func (s *Sweep) Segments() []Segment {
	return s.segments
}

// At returns annotations active at offset
func (s *Sweep) At(offset int) []schema.AnnotationID {
	i := sort.Search(len(s.segments), func(i int) bool { return s.segments[i].End > offset })
	if i == len(s.segments) || !s.segments[i].Contains(offset) {
		return nil
	}
	return s.segments[i].Annotations
}

// Overlapping returns annotations with a region overlapping r, in id order
func (s *Sweep) Overlapping(r schema.Range) []schema.AnnotationID {
	seen := map[schema.AnnotationID]bool{}
	var result []schema.AnnotationID
	i := sort.Search(len(s.segments), func(i int) bool { return s.segments[i].End > r.Start })
	for ; i < len(s.segments) && s.segments[i].Start < r.End; i++ {
		for _, id := range s.segments[i].Annotations {
			if !seen[id] {
				seen[id] = true
				result = append(result, id)
			}
		}
	}
	sort.Slice(result, func(a, b int) bool { return result[a] < result[b] })
	return result
}
