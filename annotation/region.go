// Package annotation provides region geometry for annotation anchors.
package annotation

import (
	"github.com/viant/conformance/schema"
)

// Region represents an annotation anchor resolved to absolute location coordinates
type Region struct {
	Annotation schema.AnnotationID
	Location   schema.LocationID
	Instance   schema.InstanceID // owning instance for instance-relative regions, 0 otherwise
	schema.Range
}

// Overlaps returns true if both regions are on the same location and share a byte
func Overlaps(a, b Region) bool {
	return a.Location == b.Location && a.Range.Overlaps(b.Range)
}

// Resolve converts an instance-relative region into location coordinates
func Resolve(region schema.AnnotationInstanceRegion, owner *schema.Instance) Region {
	return Region{
		Annotation: region.AnnotationID,
		Location:   owner.LocationID,
		Instance:   owner.ID,
		Range:      region.Range.Shift(owner.Start),
	}
}
