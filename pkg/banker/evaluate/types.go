package evaluate

import (
	"fmt"
	"strings"

	"mercator-hq/banker/pkg/banker/state"
)

// Policy selects how requests are judged.
type Policy string

const (
	// PolicyCanonical checks the request against Need and Available, then
	// grants only if the resulting state is still safe.
	PolicyCanonical Policy = "canonical"

	// PolicyAvailableOnly skips the post-grant safety check. It reproduces
	// the behaviour of the legacy tool and can grant into an unsafe state.
	// The Need bound is still enforced so Need never goes negative.
	PolicyAvailableOnly Policy = "available_only"
)

// ParsePolicy converts a configuration string to a Policy.
// The empty string selects PolicyCanonical.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "canonical", "bankers":
		return PolicyCanonical, nil
	case "available_only", "available-only", "simple":
		return PolicyAvailableOnly, nil
	default:
		return "", fmt.Errorf("unknown policy %q (want canonical or available_only)", s)
	}
}

// Outcome is the result class of an evaluation.
type Outcome string

const (
	// OutcomeGranted means the request was committed.
	OutcomeGranted Outcome = "granted"

	// OutcomeRefused means the request was not committed; the caller may retry later.
	OutcomeRefused Outcome = "refused"
)

// Reason explains a refusal. Refusals are normal outcomes, not errors.
type Reason string

const (
	// ReasonNone is set on granted decisions.
	ReasonNone Reason = ""

	// ReasonExceedsDeclaredMaximum means the request asks for more than the
	// process's remaining Need.
	ReasonExceedsDeclaredMaximum Reason = "exceeds_declared_maximum"

	// ReasonInsufficientAvailable means the units are not currently free.
	ReasonInsufficientAvailable Reason = "insufficient_available"

	// ReasonWouldBeUnsafe means granting would leave the system in an unsafe state.
	ReasonWouldBeUnsafe Reason = "would_be_unsafe"
)

// Request is a one-time incremental ask by a process.
type Request struct {
	// Process is the index of the requesting process.
	Process int `json:"process" yaml:"process"`

	// Vector holds the additional units asked for, one entry per resource type.
	Vector state.Vector `json:"request" yaml:"request"`
}

// String formats the request as "P<i> [a b c]".
func (r Request) String() string {
	return fmt.Sprintf("P%d %v", r.Process, r.Vector)
}

// Decision is the verdict on a Request.
type Decision struct {
	// ID identifies the decision in logs and API responses. Set by banker.Bank.
	ID string `json:"id,omitempty"`

	Request Request `json:"request"`
	Outcome Outcome `json:"outcome"`
	Reason  Reason  `json:"reason,omitempty"`

	// Resource is the first resource index that triggered a Need or
	// Available refusal, -1 otherwise.
	Resource int `json:"resource"`

	// Available is the available vector after the decision. On refusal it
	// equals the vector before the evaluation.
	Available state.Vector `json:"available"`

	// Sequence is a safe finishing order for the committed state when the
	// canonical policy granted the request.
	Sequence []int `json:"sequence,omitempty"`

	// Policy is the policy the decision was made under.
	Policy Policy `json:"policy"`
}

// Granted reports whether the request was committed.
func (d *Decision) Granted() bool {
	return d.Outcome == OutcomeGranted
}
