package status

import (
	"fmt"
	"sort"
	"sync"

	"github.com/viant/conformance/kind"
	"github.com/viant/conformance/schema"
)

// Lookup returns the status of another annotation from the previous pass; ok is false when it has no rule
type Lookup func(id schema.AnnotationID) (Status, bool)

// Eval maps a neighborhood to a status; it must not retain or mutate its inputs
type Eval func(n *Neighborhood, lookup Lookup) (Status, Evidence)

// Rule represents a named status policy
type Rule struct {
	Name string
	// Dependent rules read other annotations' status and are iterated to a fixed point
	Dependent bool
	Eval      Eval
}

// RegionMark represents a verdict on one region
type RegionMark struct {
	Region
	Status Status
}

// Evidence lists what contributed to a status
type Evidence struct {
	Relations []schema.EdgeID `yaml:"relations,omitempty"`
	Marks     []RegionMark    `yaml:"marks,omitempty"`
}

// Table maps type ids to rules
type Table struct {
	mu    sync.RWMutex
	rules map[schema.TypeID]Rule
}

// NewTable creates an empty rule table
func NewTable() *Table {
	return &Table{rules: map[schema.TypeID]Rule{}}
}

// Register binds a rule to a type id, replacing a previous binding
func (t *Table) Register(typeID schema.TypeID, rule Rule) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules[typeID] = rule
}

// Lookup returns the rule of a type id
func (t *Table) Lookup(typeID schema.TypeID) (Rule, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rule, ok := t.rules[typeID]
	return rule, ok
}

// TypeIDs returns bound type ids in order
func (t *Table) TypeIDs() []schema.TypeID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	result := make([]schema.TypeID, 0, len(t.rules))
	for id := range t.rules {
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Builtins returns the built-in rules by name for a type registry
func Builtins(types *kind.Registry) map[string]Rule {
	return map[string]Rule{
		RuleCompliance:       Compliance(types),
		RuleInvariantPairing: InvariantPairing(types, PartitionTest, PartitionLibrary),
		RuleCoverage:         Coverage(types),
		RuleTransparent:      Transparent(types),
	}
}

// DefaultTable binds every kind whose spec names a rule to the matching built-in
func DefaultTable(types *kind.Registry) (*Table, error) {
	return NewTableFor(types, Builtins(types))
}

// NewTableFor binds kinds of types to rules by the rule name of each kind spec
func NewTableFor(types *kind.Registry, rules map[string]Rule) (*Table, error) {
	table := NewTable()
	for i, spec := range types.Specs() {
		if spec.Rule == "" {
			continue
		}
		rule, ok := rules[spec.Rule]
		if !ok {
			return nil, fmt.Errorf("kind %q: unknown rule %q", spec.Name, spec.Rule)
		}
		table.Register(schema.TypeID(i+1), rule)
	}
	return table, nil
}
