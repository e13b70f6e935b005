package schema

// SourceID identifies a content-addressed source
type SourceID int64

// LocationID identifies a named source location (file path, URL)
type LocationID int64

// InstanceID identifies a named program entity
type InstanceID int64

// AnnotationID identifies an annotation
type AnnotationID int64

// TypeID is an opaque identifier assigned by the type registry
type TypeID int64

// EdgeID identifies a relation between two annotations
type EdgeID int64

// Range represents a half-open byte range [Start, End)
type Range struct {
	Start int `yaml:"start" json:"start"`
	End   int `yaml:"end" json:"end"`
}

// Valid returns true if the range is non-empty and non-negative
func (r Range) Valid() bool {
	return r.Start >= 0 && r.Start < r.End
}

// Width returns the number of bytes covered
func (r Range) Width() int {
	return r.End - r.Start
}

// Contains returns true if offset falls inside the range
func (r Range) Contains(offset int) bool {
	return r.Start <= offset && offset < r.End
}

// Covers returns true if other lies entirely within the range
func (r Range) Covers(other Range) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// Overlaps returns true if both ranges share at least one byte
func (r Range) Overlaps(other Range) bool {
	return max(r.Start, other.Start) < min(r.End, other.End)
}

// Shift moves the range by base bytes
func (r Range) Shift(base int) Range {
	return Range{Start: r.Start + base, End: r.End + base}
}
