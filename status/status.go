// Package status derives per-annotation verdicts from a frozen snapshot.
package status

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Status represents a derived verdict
type Status int

const (
	Undetermined Status = iota
	Satisfied
	Missing
	Exception
	Failed
)

var names = [...]string{
	Undetermined: "undetermined",
	Satisfied:    "satisfied",
	Missing:      "missing",
	Exception:    "exception",
	Failed:       "failed",
}

// All returns every status in declaration order
func All() []Status {
	return []Status{Undetermined, Satisfied, Missing, Exception, Failed}
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(names) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return names[s]
}

// Parse returns the status of a name
func Parse(name string) (Status, error) {
	for i, candidate := range names {
		if candidate == name {
			return Status(i), nil
		}
	}
	return Undetermined, fmt.Errorf("unknown status: %q", name)
}

// MarshalText implements encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (s Status) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (s *Status) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("status: expected scalar, got kind %d at line %d", node.Kind, node.Line)
	}
	return s.UnmarshalText([]byte(node.Value))
}

// severity orders statuses for aggregation, higher is worse
func (s Status) severity() int {
	switch s {
	case Failed:
		return 4
	case Missing:
		return 3
	case Undetermined:
		return 2
	case Exception:
		return 1
	}
	return 0
}

// Worst returns the most severe of statuses; no statuses yields Undetermined
func Worst(statuses ...Status) Status {
	if len(statuses) == 0 {
		return Undetermined
	}
	result := statuses[0]
	for _, candidate := range statuses[1:] {
		if candidate.severity() > result.severity() {
			result = candidate
		}
	}
	return result
}
