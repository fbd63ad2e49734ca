package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mercator-hq/banker/pkg/banker/evaluate"
	"mercator-hq/banker/pkg/banker/state"
)

// ErrEmpty is returned when a document holds no header line.
var ErrEmpty = errors.New("scenario is empty")

// Scenario is a parsed scenario document.
type Scenario struct {
	// Source is the file the scenario was loaded from, if any.
	Source string `json:"source,omitempty" yaml:"-"`

	Processes  int                `json:"processes" yaml:"processes"`
	Resources  int                `json:"resources" yaml:"resources"`
	Allocation [][]int            `json:"allocation" yaml:"allocation"`
	Maximum    [][]int            `json:"maximum" yaml:"maximum"`
	Available  []int              `json:"available" yaml:"available"`
	Requests   []evaluate.Request `json:"requests,omitempty" yaml:"requests,omitempty"`
}

// ParseError reports a problem at a specific line of a text scenario.
type ParseError struct {
	Source string
	Line   int
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s:%d: %s", e.Source, e.Line, e.Msg)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// State builds the initial resource state described by the scenario.
func (s *Scenario) State() (*state.State, error) {
	st, err := state.New(s.Allocation, s.Maximum, s.Available)
	if err != nil {
		if s.Source != "" {
			return nil, fmt.Errorf("%s: %w", s.Source, err)
		}
		return nil, err
	}
	return st, nil
}

// Load reads and parses the scenario at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var sc *Scenario
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		sc, err = ParseYAML(data)
	default:
		sc, err = ParseText(data)
	}
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Source = path
			return nil, perr
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	sc.Source = path
	return sc, nil
}
