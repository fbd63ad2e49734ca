package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"mercator-hq/banker/pkg/banker/evaluate"
	"mercator-hq/banker/pkg/banker/safety"
	"mercator-hq/banker/pkg/banker/state"
)

func classicRun(t *testing.T) *Run {
	t.Helper()
	st, err := state.New(
		[][]int{{0, 1, 0}, {2, 0, 0}, {3, 0, 2}, {2, 1, 1}, {0, 0, 2}},
		[][]int{{7, 5, 3}, {3, 2, 2}, {9, 0, 2}, {2, 2, 2}, {4, 3, 3}},
		[]int{3, 3, 2},
	)
	if err != nil {
		t.Fatalf("state.New failed: %v", err)
	}
	run := &Run{Source: "classic.txt", Policy: evaluate.PolicyCanonical, Initial: st.Snapshot(), Safety: safety.Check(st)}

	ev, _ := evaluate.New(evaluate.PolicyCanonical)
	for _, req := range []evaluate.Request{
		{Process: 1, Vector: state.Vector{1, 0, 2}},
		{Process: 4, Vector: state.Vector{3, 3, 0}},
	} {
		d, err := ev.Evaluate(st, req)
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		run.Decisions = append(run.Decisions, RunDecision{Request: req, Decision: d})
	}
	run.Decisions = append(run.Decisions, RunDecision{
		Request: evaluate.Request{Process: 9, Vector: state.Vector{0, 0, 0}},
		Error:   "index out of range",
	})
	run.Final = st.Snapshot()
	return run
}

func TestWriter_RunText(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(&buf, FormatText).Run(classicRun(t)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Scenario: classic.txt",
		"Policy: canonical",
		"Processes: 5  Resources: 3",
		"Allocation:",
		"Need:",
		"State is SAFE, sequence: P1 -> P3 -> P4 -> P0 -> P2",
		"granted, available A=2 B=3 C=0",
		"refused: insufficient_available (A)",
		"error: index out of range",
		"Final available:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestWriter_TableLabels(t *testing.T) {
	st, _ := state.New([][]int{{1, 2}}, [][]int{{3, 4}}, []int{5, 6})

	var buf bytes.Buffer
	if err := NewWriter(&buf, "").State(st.Snapshot()); err != nil {
		t.Fatalf("State failed: %v", err)
	}

	lines := strings.Split(buf.String(), "\n")
	var header, row string
	for k, l := range lines {
		if l == "Allocation:" {
			header, row = lines[k+1], lines[k+2]
			break
		}
	}
	if f := strings.Fields(header); len(f) != 2 || f[0] != "A" || f[1] != "B" {
		t.Errorf("Expected header A B, got %q", header)
	}
	if f := strings.Fields(row); len(f) != 3 || f[0] != "P0" || f[1] != "1" || f[2] != "2" {
		t.Errorf("Expected row P0 1 2, got %q", row)
	}
}

func TestWriter_RunJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(&buf, FormatJSON).Run(classicRun(t)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var decoded struct {
		Policy    string `json:"policy"`
		Safety    struct{ Safe bool } `json:"safety"`
		Decisions []struct {
			Decision *struct {
				Outcome string `json:"outcome"`
				Reason  string `json:"reason"`
			} `json:"decision"`
			Error string `json:"error"`
		} `json:"decisions"`
		Final struct {
			Available []int `json:"available"`
		} `json:"final"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	if decoded.Policy != "canonical" || !decoded.Safety.Safe {
		t.Errorf("Unexpected header %+v", decoded)
	}
	if len(decoded.Decisions) != 3 {
		t.Fatalf("Expected 3 decisions, got %d", len(decoded.Decisions))
	}
	if decoded.Decisions[0].Decision.Outcome != "granted" {
		t.Errorf("Expected first decision granted, got %s", decoded.Decisions[0].Decision.Outcome)
	}
	if decoded.Decisions[1].Decision.Reason != "insufficient_available" {
		t.Errorf("Expected insufficient_available, got %s", decoded.Decisions[1].Decision.Reason)
	}
	if decoded.Decisions[2].Decision != nil || decoded.Decisions[2].Error == "" {
		t.Errorf("Expected error entry, got %+v", decoded.Decisions[2])
	}
	if len(decoded.Final.Available) != 3 || decoded.Final.Available[2] != 0 {
		t.Errorf("Expected final available [2 3 0], got %v", decoded.Final.Available)
	}
}

func TestWriter_UnsafeSafety(t *testing.T) {
	var buf bytes.Buffer
	res := safety.Result{Safe: false, Sequence: []int{0}, Blocked: []int{1, 2}}
	if err := NewWriter(&buf, FormatText).Safety(res); err != nil {
		t.Fatalf("Safety failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "UNSAFE, blocked: P1 -> P2") {
		t.Errorf("Unexpected output %q", out)
	}
	if !strings.Contains(out, "finished before blocking: P0") {
		t.Errorf("Unexpected output %q", out)
	}
}

func TestDecisionLine(t *testing.T) {
	labels := state.ResourceLabels(3)
	d := &evaluate.Decision{Outcome: evaluate.OutcomeRefused, Reason: evaluate.ReasonWouldBeUnsafe, Resource: -1}
	if got := DecisionLine(d, labels); got != "refused: would_be_unsafe" {
		t.Errorf("Unexpected line %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(""); err != nil || f != FormatText {
		t.Errorf("Expected text, got %q %v", f, err)
	}
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Errorf("Expected json, got %q %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("Expected error for xml")
	}
}
