// Package kind assigns stable integer type identifiers to semantic kinds.
package kind

import (
	"fmt"
	"sort"
	"sync"

	"github.com/viant/conformance/schema"
	"gopkg.in/yaml.v3"
)

// Well known kinds
const (
	Must        = "MUST"
	Should      = "SHOULD"
	May         = "MAY"
	Citation    = "citation"
	Test        = "test"
	Todo        = "todo"
	Exception   = "exception"
	Invariant   = "invariant"
	CodeRegion  = "code-region"
	CoverageHit = "coverage-hit"
	Section     = "section"

	Reference = "reference"
	Contains  = "contains"
	Covers    = "covers"
)

// Well known groups
const (
	GroupRequirement = "requirement"
	GroupCitation    = "citation"
	GroupTodo        = "todo"
	GroupException   = "exception"
	GroupExecuted    = "executed"
	GroupRelation    = "relation"
)

// Spec defines a kind
type Spec struct {
	Name   string   `yaml:"name"`
	Rule   string   `yaml:"rule,omitempty"`
	Groups []string `yaml:"groups,omitempty"`
}

// Set represents a set of type ids
type Set map[schema.TypeID]bool

// Has returns true if id is in the set
func (s Set) Has(id schema.TypeID) bool {
	return s[id]
}

// Registry maps kind names to type ids
type Registry struct {
	mu     sync.RWMutex
	specs  []Spec // index: id-1
	byName map[string]schema.TypeID
	groups map[string]Set
}

// New creates a registry with the given specs defined in order
func New(specs ...Spec) *Registry {
	r := &Registry{byName: make(map[string]schema.TypeID), groups: make(map[string]Set)}
	for _, spec := range specs {
		r.Define(spec)
	}
	return r
}

// NewDefault creates a registry with the well known kinds
func NewDefault() *Registry {
	return New(DefaultSpecs()...)
}

// DefaultSpecs returns the well known kind specs
func DefaultSpecs() []Spec {
	return []Spec{
		{Name: Must, Rule: "compliance", Groups: []string{GroupRequirement}},
		{Name: Should, Rule: "compliance", Groups: []string{GroupRequirement}},
		{Name: May, Rule: "compliance", Groups: []string{GroupRequirement}},
		{Name: Citation, Groups: []string{GroupCitation}},
		{Name: Test, Groups: []string{GroupCitation}},
		{Name: Todo, Groups: []string{GroupCitation, GroupTodo}},
		{Name: Exception, Groups: []string{GroupCitation, GroupException}},
		{Name: Invariant, Rule: "invariant-pairing"},
		{Name: CodeRegion, Rule: "coverage"},
		{Name: CoverageHit, Groups: []string{GroupExecuted}},
		{Name: Section, Rule: "transparent"},
		{Name: Reference, Groups: []string{GroupRelation}},
		{Name: Contains, Groups: []string{GroupRelation}},
		{Name: Covers, Groups: []string{GroupRelation}},
	}
}

// LoadSpecs decodes specs from YAML
func LoadSpecs(data []byte) ([]Spec, error) {
	var specs []Spec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("failed to decode kind specs: %w", err)
	}
	for i, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("kind spec %d: name was empty", i)
		}
	}
	return specs, nil
}

// Define registers a kind; redefining a name merges groups and keeps the id
func (r *Registry) Define(spec Spec) schema.TypeID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byName[spec.Name]
	if !ok {
		id = schema.TypeID(len(r.specs) + 1)
		r.specs = append(r.specs, Spec{Name: spec.Name})
		r.byName[spec.Name] = id
	}
	existing := &r.specs[id-1]
	if spec.Rule != "" {
		existing.Rule = spec.Rule
	}
	for _, group := range spec.Groups {
		if r.groups[group] == nil {
			r.groups[group] = Set{}
		}
		if !r.groups[group][id] {
			existing.Groups = append(existing.Groups, group)
		}
		r.groups[group][id] = true
	}
	return id
}

// Lookup returns type id for a name
func (r *Registry) Lookup(name string) (schema.TypeID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	return id, ok
}

// MustLookup returns type id for a name or an unknown type error
func (r *Registry) MustLookup(name string) (schema.TypeID, error) {
	if id, ok := r.Lookup(name); ok {
		return id, nil
	}
	return 0, fmt.Errorf("kind %q: %w", name, schema.ErrUnknownTypeID)
}

// Has returns true if id was assigned
func (r *Registry) Has(id schema.TypeID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return id >= 1 && int(id) <= len(r.specs)
}

// Spec returns the spec of a type id
func (r *Registry) Spec(id schema.TypeID) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 1 || int(id) > len(r.specs) {
		return Spec{}, false
	}
	return r.specs[id-1], true
}

// Name returns the kind name of id
func (r *Registry) Name(id schema.TypeID) string {
	spec, ok := r.Spec(id)
	if !ok {
		return fmt.Sprintf("#%d", id)
	}
	return spec.Name
}

// Group returns a copy of the type ids in a group
func (r *Registry) Group(name string) Set {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := Set{}
	for id := range r.groups[name] {
		result[id] = true
	}
	return result
}

// In returns true if id belongs to any of the groups
func (r *Registry) In(id schema.TypeID, groups ...string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, group := range groups {
		if r.groups[group][id] {
			return true
		}
	}
	return false
}

// Specs returns all specs in id order
func (r *Registry) Specs() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Spec, len(r.specs))
	copy(result, r.specs)
	return result
}

// Groups returns group names in sorted order
func (r *Registry) Groups() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]string, 0, len(r.groups))
	for name := range r.groups {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}
