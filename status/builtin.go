package status

import (
	"github.com/viant/conformance/kind"
	"github.com/viant/conformance/relation"
)

// Built-in rule names
const (
	RuleCompliance       = "compliance"
	RuleInvariantPairing = "invariant-pairing"
	RuleCoverage         = "coverage"
	RuleTransparent      = "transparent"
)

// Default partitions
const (
	PartitionTest    = "test"
	PartitionLibrary = "library"
)

// Compliance marks a requirement exception when any incoming relation comes from an exception,
// satisfied when a non-todo annotation references it, missing otherwise
func Compliance(types *kind.Registry) Rule {
	reference, _ := types.Lookup(kind.Reference)
	return Rule{
		Name: RuleCompliance,
		Eval: func(n *Neighborhood, _ Lookup) (Status, Evidence) {
			var exceptions, references Evidence
			for _, neighbor := range n.Incoming {
				if n.Types.In(neighbor.TypeID, kind.GroupException) {
					exceptions.Relations = append(exceptions.Relations, neighbor.Relation.ID)
					continue
				}
				if neighbor.Relation.TypeID == reference && !n.Types.In(neighbor.TypeID, kind.GroupTodo) {
					references.Relations = append(references.Relations, neighbor.Relation.ID)
				}
			}
			switch {
			case len(exceptions.Relations) > 0:
				return Exception, exceptions
			case len(references.Relations) > 0:
				return Satisfied, references
			}
			return Missing, Evidence{}
		},
	}
}

// InvariantPairing requires referencing annotations enclosed by both the first and the second partition;
// when one partition is absent the invariant fails and its own regions are marked failed under the absent partition.
// Regions of present partitions are left unmarked.
func InvariantPairing(types *kind.Registry, first, second string) Rule {
	reference, _ := types.Lookup(kind.Reference)
	return Rule{
		Name: RuleInvariantPairing,
		Eval: func(n *Neighborhood, _ Lookup) (Status, Evidence) {
			var evidence Evidence
			matched := map[string]bool{}
			for _, neighbor := range n.Related(relation.Incoming, reference) {
				evidence.Relations = append(evidence.Relations, neighbor.Relation.ID)
				for _, region := range neighbor.Regions {
					matched[region.Partition] = true
				}
			}
			if len(evidence.Relations) == 0 {
				return Missing, evidence
			}
			result := Satisfied
			for _, partition := range []string{first, second} {
				if matched[partition] {
					continue
				}
				result = Failed
				for _, region := range n.Regions {
					region.Partition = partition
					evidence.Marks = append(evidence.Marks, RegionMark{Region: region, Status: Failed})
				}
			}
			return result, evidence
		},
	}
}

// Coverage marks a code region satisfied when any relation links it to an executed annotation
func Coverage(types *kind.Registry) Rule {
	return Rule{
		Name: RuleCoverage,
		Eval: func(n *Neighborhood, _ Lookup) (Status, Evidence) {
			var evidence Evidence
			for _, neighbors := range [][]Neighbor{n.Incoming, n.Outgoing} {
				for _, neighbor := range neighbors {
					if types.In(neighbor.TypeID, kind.GroupExecuted) {
						evidence.Relations = append(evidence.Relations, neighbor.Relation.ID)
					}
				}
			}
			if len(evidence.Relations) == 0 {
				return Failed, evidence
			}
			return Satisfied, evidence
		},
	}
}

// Transparent takes the worst status of the annotations it contains; annotations without a rule are skipped
func Transparent(types *kind.Registry) Rule {
	contains, _ := types.Lookup(kind.Contains)
	return Rule{
		Name:      RuleTransparent,
		Dependent: true,
		Eval: func(n *Neighborhood, lookup Lookup) (Status, Evidence) {
			var evidence Evidence
			var statuses []Status
			for _, neighbor := range n.Related(relation.Outgoing, contains) {
				child, ok := lookup(neighbor.Annotation)
				if !ok {
					continue
				}
				statuses = append(statuses, child)
				evidence.Relations = append(evidence.Relations, neighbor.Relation.ID)
			}
			return Worst(statuses...), evidence
		},
	}
}
