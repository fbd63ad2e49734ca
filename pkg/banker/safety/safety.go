// Package safety decides whether a resource state is safe: whether some
// order exists in which every process can run to completion using only the
// currently available units plus the units released by processes that
// finish before it.
package safety

import (
	"mercator-hq/banker/pkg/banker/state"
)

// View is the read-only surface the checker needs. *state.State implements it.
// Rows returned by NeedRow and AllocationRow are never written.
type View interface {
	Processes() int
	Resources() int
	Available() state.Vector
	NeedRow(i int) state.Vector
	AllocationRow(i int) state.Vector
}

// Result is the outcome of a safety check.
type Result struct {
	// Safe is true when every process can finish.
	Safe bool `json:"safe"`

	// Sequence is the finishing order found. When the state is unsafe it holds
	// the processes that could finish before the simulation stalled.
	Sequence []int `json:"sequence"`

	// Blocked lists the processes left unfinished (empty when Safe).
	Blocked []int `json:"blocked,omitempty"`

	// Passes is the number of scans performed over the unfinished processes.
	Passes int `json:"passes"`
}

type options struct {
	order []int
}

// Option configures a safety check.
type Option func(*options)

// WithScanOrder sets the order in which unfinished processes are scanned
// within each pass. The verdict does not depend on it; only the reported
// sequence may differ. An order that is not a permutation of 0..P-1 is ignored.
func WithScanOrder(order []int) Option {
	return func(o *options) {
		o.order = order
	}
}

// Check runs the work/finish simulation over v.
//
// work starts as a copy of Available. Each pass scans the unfinished
// processes; a process whose Need fits in work is marked finished and its
// Allocation is added to work. Passes repeat until one finishes nobody.
// The state is safe iff every process finishes. Check never mutates v and
// runs in O(P^2 * R).
func Check(v View, opts ...Option) Result {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	p := v.Processes()
	order := scanOrder(p, o.order)

	work := v.Available()
	finished := make([]bool, p)
	sequence := make([]int, 0, p)
	passes := 0

	for len(sequence) < p {
		passes++
		progressed := false
		for _, i := range order {
			if finished[i] {
				continue
			}
			if !v.NeedRow(i).LessOrEqual(work) {
				continue
			}
			work.Add(v.AllocationRow(i))
			finished[i] = true
			sequence = append(sequence, i)
			progressed = true
		}
		if !progressed {
			break
		}
	}

	res := Result{
		Safe:     len(sequence) == p,
		Sequence: sequence,
		Passes:   passes,
	}
	for i, done := range finished {
		if !done {
			res.Blocked = append(res.Blocked, i)
		}
	}
	return res
}

// IsSafe is shorthand for Check(v).Safe.
func IsSafe(v View) bool {
	return Check(v).Safe
}

// scanOrder returns order if it is a permutation of 0..p-1, otherwise the
// identity order.
func scanOrder(p int, order []int) []int {
	if len(order) == p {
		seen := make([]bool, p)
		valid := true
		for _, i := range order {
			if i < 0 || i >= p || seen[i] {
				valid = false
				break
			}
			seen[i] = true
		}
		if valid {
			return order
		}
	}
	identity := make([]int, p)
	for i := range identity {
		identity[i] = i
	}
	return identity
}
