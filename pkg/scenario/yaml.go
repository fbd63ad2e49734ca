package scenario

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseYAML parses the YAML encoding. The processes and resources fields are
// optional; when present they must agree with the matrices.
func ParseYAML(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if sc.Allocation == nil && sc.Maximum == nil && sc.Available == nil {
		return nil, ErrEmpty
	}

	if sc.Processes == 0 {
		sc.Processes = len(sc.Allocation)
	} else if sc.Processes != len(sc.Allocation) {
		return nil, fmt.Errorf("processes is %d but allocation has %d rows", sc.Processes, len(sc.Allocation))
	}
	if sc.Resources == 0 {
		sc.Resources = len(sc.Available)
	} else if sc.Resources != len(sc.Available) {
		return nil, fmt.Errorf("resources is %d but available has %d entries", sc.Resources, len(sc.Available))
	}

	return &sc, nil
}
