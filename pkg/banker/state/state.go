package state

import (
	"fmt"
)

// State holds the allocation, maximum, need and available quantities of a
// fixed set of P processes over R resource types.
//
// The process count and resource-type count are set by New and never change.
// Need is derived as Maximum - Allocation and re-derived for a process
// whenever its allocation changes. State is not safe for concurrent use; see
// banker.Bank for a guarded wrapper.
type State struct {
	processes int
	resources int

	allocation matrix
	maximum    matrix
	need       matrix
	available  Vector

	// total is Available + sum of Allocation per resource type, fixed at construction.
	total Vector
}

// Snapshot is a plain-data copy of a State, suitable for reporting and JSON.
type Snapshot struct {
	Processes  int     `json:"processes" yaml:"processes"`
	Resources  int     `json:"resources" yaml:"resources"`
	Allocation [][]int `json:"allocation" yaml:"allocation"`
	Maximum    [][]int `json:"maximum" yaml:"maximum"`
	Need       [][]int `json:"need" yaml:"need"`
	Available  []int   `json:"available" yaml:"available"`
	Total      []int   `json:"total" yaml:"total"`
}

// New builds a State from the initial allocation and maximum matrices and
// the available vector.
//
// The process count P is len(allocation) and the resource-type count R is
// len(available). It fails with ErrDimensionMismatch when maximum does not
// have P rows or any row does not have R entries, and with
// ErrNegativeQuantity when an entry is negative or a maximum entry is below
// the matching allocation entry.
func New(allocation, maximum [][]int, available []int) (*State, error) {
	p := len(allocation)
	r := len(available)

	if len(maximum) != p {
		return nil, fmt.Errorf("%w: maximum has %d rows, allocation has %d", ErrDimensionMismatch, len(maximum), p)
	}

	if err := Vector(available).validate(r, "available"); err != nil {
		return nil, err
	}

	s := &State{
		processes:  p,
		resources:  r,
		allocation: newMatrix(p, r),
		maximum:    newMatrix(p, r),
		need:       newMatrix(p, r),
		available:  Vector(available).Clone(),
		total:      Vector(available).Clone(),
	}

	for i := 0; i < p; i++ {
		if err := Vector(allocation[i]).validate(r, fmt.Sprintf("allocation[%d]", i)); err != nil {
			return nil, err
		}
		if err := Vector(maximum[i]).validate(r, fmt.Sprintf("maximum[%d]", i)); err != nil {
			return nil, err
		}
		copy(s.allocation.row(i), allocation[i])
		copy(s.maximum.row(i), maximum[i])

		if j := Vector(allocation[i]).FirstExceeding(maximum[i]); j >= 0 {
			return nil, fmt.Errorf("%w: need[%d][%d] = maximum %d - allocation %d",
				ErrNegativeQuantity, i, j, maximum[i][j], allocation[i][j])
		}
		s.deriveNeed(i)
		s.total.Add(s.allocation.row(i))
	}

	return s, nil
}

// Processes returns the process count P.
func (s *State) Processes() int {
	return s.processes
}

// Resources returns the resource-type count R.
func (s *State) Resources() int {
	return s.resources
}

// Need returns Maximum[i] - Allocation[i].
func (s *State) Need(i int) (Vector, error) {
	if err := s.checkIndex(i); err != nil {
		return nil, err
	}
	return s.need.row(i).Clone(), nil
}

// Allocation returns a copy of the units currently held by process i.
func (s *State) Allocation(i int) (Vector, error) {
	if err := s.checkIndex(i); err != nil {
		return nil, err
	}
	return s.allocation.row(i).Clone(), nil
}

// Maximum returns a copy of the declared maximum demand of process i.
func (s *State) Maximum(i int) (Vector, error) {
	if err := s.checkIndex(i); err != nil {
		return nil, err
	}
	return s.maximum.row(i).Clone(), nil
}

// Available returns a copy of the currently unallocated units.
func (s *State) Available() Vector {
	return s.available.Clone()
}

// Total returns a copy of the system-wide supply of each resource type.
func (s *State) Total() Vector {
	return s.total.Clone()
}

// NeedRow returns the live need row of process i, without an index check or
// a copy. It is meant for read-only analysis and must not be mutated.
func (s *State) NeedRow(i int) Vector {
	return s.need.row(i)
}

// AllocationRow returns the live allocation row of process i. Same rules as NeedRow.
func (s *State) AllocationRow(i int) Vector {
	return s.allocation.row(i)
}

// ApplyGrant adds req to Allocation[i] and subtracts it from Available,
// then re-derives Need[i]. It performs no validation; deciding whether a
// request may be granted belongs to the evaluator.
func (s *State) ApplyGrant(i int, req Vector) {
	s.allocation.row(i).Add(req)
	s.available.Sub(req)
	s.deriveNeed(i)
}

// Release returns units held by process i to Available. Unlike ApplyGrant it
// validates its input, since a release is never preceded by a policy check.
func (s *State) Release(i int, units Vector) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if err := units.validate(s.resources, "release"); err != nil {
		return err
	}
	held := s.allocation.row(i)
	if j := units.FirstExceeding(held); j >= 0 {
		return fmt.Errorf("%w: process %d holds %d of resource %d, release asks %d",
			ErrReleaseExceedsAllocation, i, held[j], j, units[j])
	}
	held.Sub(units)
	s.available.Add(units)
	s.deriveNeed(i)
	return nil
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	return &State{
		processes:  s.processes,
		resources:  s.resources,
		allocation: s.allocation.clone(),
		maximum:    s.maximum.clone(),
		need:       s.need.clone(),
		available:  s.available.Clone(),
		total:      s.total.Clone(),
	}
}

// Equal reports whether s and other hold identical quantities.
func (s *State) Equal(other *State) bool {
	if other == nil {
		return false
	}
	return s.processes == other.processes &&
		s.resources == other.resources &&
		s.allocation.equal(other.allocation) &&
		s.maximum.equal(other.maximum) &&
		s.need.equal(other.need) &&
		s.available.Equal(other.available) &&
		s.total.Equal(other.total)
}

// Snapshot returns a plain-data copy of s.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Processes:  s.processes,
		Resources:  s.resources,
		Allocation: s.allocation.rowsCopy(),
		Maximum:    s.maximum.rowsCopy(),
		Need:       s.need.rowsCopy(),
		Available:  []int(s.available.Clone()),
		Total:      []int(s.total.Clone()),
	}
}

// Verify checks that no allocation, need or available entry is negative and
// that Available + sum of Allocation still equals the supply captured at
// construction for every resource type.
func (s *State) Verify() error {
	sum := s.available.Clone()
	for j, q := range s.available {
		if q < 0 {
			return fmt.Errorf("%w: available[%d] = %d", ErrInvariantViolated, j, q)
		}
	}
	for i := 0; i < s.processes; i++ {
		for j := 0; j < s.resources; j++ {
			if a := s.allocation.at(i, j); a < 0 {
				return fmt.Errorf("%w: allocation[%d][%d] = %d", ErrInvariantViolated, i, j, a)
			}
			if n := s.need.at(i, j); n < 0 {
				return fmt.Errorf("%w: need[%d][%d] = %d", ErrInvariantViolated, i, j, n)
			}
		}
		sum.Add(s.allocation.row(i))
	}
	if !sum.Equal(s.total) {
		return fmt.Errorf("%w: supply %v, want %v", ErrInvariantViolated, sum, s.total)
	}
	return nil
}

// ValidateRequest checks that i names a process and req is a well-formed
// vector for this state.
func (s *State) ValidateRequest(i int, req Vector) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	return req.validate(s.resources, "request")
}

func (s *State) checkIndex(i int) error {
	if i < 0 || i >= s.processes {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, s.processes)
	}
	return nil
}

func (s *State) deriveNeed(i int) {
	need := s.need.row(i)
	copy(need, s.maximum.row(i))
	need.Sub(s.allocation.row(i))
}
