package state

import (
	"fmt"
	"strings"
)

// Vector is an ordered sequence of resource quantities, one entry per
// resource type. Component j is the number of units of resource j.
type Vector []int

// NewVector returns a zero vector of length r.
func NewVector(r int) Vector {
	return make(Vector, r)
}

// Clone returns a copy of v that shares no memory with it.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := NewVector(len(v))
	copy(out, v)
	return out
}

// Add adds other into v elementwise. Both vectors must have the same length.
func (v Vector) Add(other Vector) {
	for j := range v {
		v[j] += other[j]
	}
}

// Sub subtracts other from v elementwise. Both vectors must have the same length.
func (v Vector) Sub(other Vector) {
	for j := range v {
		v[j] -= other[j]
	}
}

// LessOrEqual reports whether v[j] <= other[j] for every j.
func (v Vector) LessOrEqual(other Vector) bool {
	for j := range v {
		if v[j] > other[j] {
			return false
		}
	}
	return true
}

// FirstExceeding returns the first index j where v[j] > other[j], or -1.
func (v Vector) FirstExceeding(other Vector) int {
	for j := range v {
		if v[j] > other[j] {
			return j
		}
	}
	return -1
}

// Equal reports whether v and other hold the same components.
func (v Vector) Equal(other Vector) bool {
	if len(v) != len(other) {
		return false
	}
	for j := range v {
		if v[j] != other[j] {
			return false
		}
	}
	return true
}

// String formats the vector as "[a b c]".
func (v Vector) String() string {
	parts := make([]string, len(v))
	for j, q := range v {
		parts[j] = fmt.Sprintf("%d", q)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// validate checks length and sign of v. what names the vector in errors.
func (v Vector) validate(r int, what string) error {
	if len(v) != r {
		return fmt.Errorf("%w: %s has %d components, want %d", ErrDimensionMismatch, what, len(v), r)
	}
	for j, q := range v {
		if q < 0 {
			return fmt.Errorf("%w: %s[%d] = %d", ErrNegativeQuantity, what, j, q)
		}
	}
	return nil
}
