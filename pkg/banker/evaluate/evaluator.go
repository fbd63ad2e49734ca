// Package evaluate decides whether an incremental resource request may be
// granted and, when it may, commits it to the state.
package evaluate

import (
	"fmt"

	"mercator-hq/banker/pkg/banker/safety"
	"mercator-hq/banker/pkg/banker/state"
)

// Evaluator judges requests under a fixed Policy.
type Evaluator struct {
	policy Policy
}

// New returns an Evaluator for policy. An empty policy means PolicyCanonical.
func New(policy Policy) (*Evaluator, error) {
	if policy == "" {
		policy = PolicyCanonical
	}
	if policy != PolicyCanonical && policy != PolicyAvailableOnly {
		return nil, fmt.Errorf("unsupported policy %q", policy)
	}
	return &Evaluator{policy: policy}, nil
}

// Policy returns the policy the evaluator applies.
func (e *Evaluator) Policy() Policy {
	return e.policy
}

// Evaluate judges req against st and commits it on grant.
//
// Under the canonical policy:
//  1. req must not exceed Need[i], otherwise refused (ExceedsDeclaredMaximum);
//  2. req must not exceed Available, otherwise refused (InsufficientAvailable);
//  3. the grant is applied to a candidate copy of st;
//  4. the candidate is checked for safety;
//  5. a safe candidate is committed to st, an unsafe one is discarded and
//     the request refused (WouldBeUnsafe).
//
// A malformed request (bad process index, wrong length, negative entry)
// returns an error. st is never modified unless the decision is a grant, and
// a grant commits every component of req.
func (e *Evaluator) Evaluate(st *state.State, req Request) (*Decision, error) {
	if err := st.ValidateRequest(req.Process, req.Vector); err != nil {
		return nil, fmt.Errorf("invalid request %v: %w", req, err)
	}

	need := st.NeedRow(req.Process)
	if j := req.Vector.FirstExceeding(need); j >= 0 {
		return e.refuse(st, req, ReasonExceedsDeclaredMaximum, j), nil
	}

	available := st.Available()
	if j := req.Vector.FirstExceeding(available); j >= 0 {
		return e.refuse(st, req, ReasonInsufficientAvailable, j), nil
	}

	if e.policy == PolicyAvailableOnly {
		st.ApplyGrant(req.Process, req.Vector)
		return e.grant(st, req, nil), nil
	}

	candidate := st.Clone()
	candidate.ApplyGrant(req.Process, req.Vector)

	result := safety.Check(candidate)
	if !result.Safe {
		return e.refuse(st, req, ReasonWouldBeUnsafe, -1), nil
	}

	st.ApplyGrant(req.Process, req.Vector)
	return e.grant(st, req, result.Sequence), nil
}

func (e *Evaluator) grant(st *state.State, req Request, sequence []int) *Decision {
	return &Decision{
		Request:   Request{Process: req.Process, Vector: req.Vector.Clone()},
		Outcome:   OutcomeGranted,
		Resource:  -1,
		Available: st.Available(),
		Sequence:  sequence,
		Policy:    e.policy,
	}
}

func (e *Evaluator) refuse(st *state.State, req Request, reason Reason, resource int) *Decision {
	return &Decision{
		Request:   Request{Process: req.Process, Vector: req.Vector.Clone()},
		Outcome:   OutcomeRefused,
		Reason:    reason,
		Resource:  resource,
		Available: st.Available(),
		Policy:    e.policy,
	}
}
