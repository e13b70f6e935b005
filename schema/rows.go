package schema

// Source represents immutable content registered under its hash
type Source struct {
	ID      SourceID `yaml:"id"`
	Hash    string   `yaml:"hash"`
	Content []byte   `yaml:"-"`
}

// SourceLocation binds a location string to a source
type SourceLocation struct {
	ID       LocationID `yaml:"id"`
	Location string     `yaml:"location"`
	SourceID SourceID   `yaml:"sourceId"`
	Title    string     `yaml:"title,omitempty"`
}

// SourceLine maps a 1-based line to its starting byte offset and code point count
type SourceLine struct {
	SourceID SourceID `yaml:"sourceId"`
	Line     int      `yaml:"line"`
	Offset   int      `yaml:"offset"`
	Columns  int      `yaml:"columns"`
}

// Instance represents a named program entity (function, module, test, ...)
type Instance struct {
	ID         InstanceID `yaml:"id"`
	Name       string     `yaml:"name"`
	LocationID LocationID `yaml:"locationId"`
	Range      `yaml:",inline"`
}

// Annotation represents a typed fact
type Annotation struct {
	ID     AnnotationID `yaml:"id"`
	TypeID TypeID       `yaml:"typeId"`
}

// AnnotationLabel attaches a label to an annotation
type AnnotationLabel struct {
	AnnotationID AnnotationID `yaml:"annotationId"`
	Label        string       `yaml:"label"`
}

// AnnotationSourceRegion anchors an annotation to raw source text
type AnnotationSourceRegion struct {
	AnnotationID AnnotationID `yaml:"annotationId"`
	Range        `yaml:",inline"`
	LocationID   LocationID `yaml:"locationId"`
}

// AnnotationInstanceRegion anchors an annotation inside an instance, offsets are instance relative
type AnnotationInstanceRegion struct {
	AnnotationID AnnotationID `yaml:"annotationId"`
	Range        `yaml:",inline"`
	InstanceID   InstanceID `yaml:"instanceId"`
}

// AnnotationRelation is a directed typed edge
type AnnotationRelation struct {
	ID     EdgeID       `yaml:"id"`
	Source AnnotationID `yaml:"source"`
	Target AnnotationID `yaml:"target"`
	TypeID TypeID       `yaml:"typeId"`
}

// AnnotationMetric attaches a named integer value to an annotation
type AnnotationMetric struct {
	AnnotationID AnnotationID `yaml:"annotationId"`
	Name         string       `yaml:"name"`
	Value        int64        `yaml:"value"`
}
