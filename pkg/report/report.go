// Package report renders banker states, safety results and decisions for
// people and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"mercator-hq/banker/pkg/banker/evaluate"
	"mercator-hq/banker/pkg/banker/safety"
	"mercator-hq/banker/pkg/banker/state"
)

// Format selects the rendering.
type Format string

const (
	// FormatText renders aligned tables.
	FormatText Format = "text"
	// FormatJSON renders one JSON document.
	FormatJSON Format = "json"
)

// ParseFormat converts a flag value to a Format. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text", "table":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text or json)", s)
	}
}

// Run is the full result of evaluating a scenario.
type Run struct {
	Source    string          `json:"source,omitempty"`
	Policy    evaluate.Policy `json:"policy"`
	Initial   state.Snapshot  `json:"initial"`
	Safety    safety.Result   `json:"safety"`
	Decisions []RunDecision   `json:"decisions"`
	Final     state.Snapshot  `json:"final"`
}

// RunDecision is one evaluated request. Exactly one of Decision and Error is set.
type RunDecision struct {
	Decision *evaluate.Decision `json:"decision,omitempty"`
	Request  evaluate.Request   `json:"request"`
	Error    string             `json:"error,omitempty"`
}

// Writer renders reports to an io.Writer.
type Writer struct {
	w      io.Writer
	format Format
}

// NewWriter returns a Writer for format.
func NewWriter(w io.Writer, format Format) *Writer {
	if format == "" {
		format = FormatText
	}
	return &Writer{w: w, format: format}
}

// Run renders a complete scenario run.
func (rw *Writer) Run(run *Run) error {
	if rw.format == FormatJSON {
		return rw.json(run)
	}

	labels := state.ResourceLabels(run.Initial.Resources)
	if run.Source != "" {
		fmt.Fprintf(rw.w, "Scenario: %s\n", run.Source)
	}
	fmt.Fprintf(rw.w, "Policy: %s\n\n", run.Policy)

	if err := rw.stateText(run.Initial, labels); err != nil {
		return err
	}
	fmt.Fprintln(rw.w)
	rw.safetyText(run.Safety)

	if len(run.Decisions) == 0 {
		return nil
	}
	fmt.Fprintln(rw.w)
	fmt.Fprintln(rw.w, "Requests:")
	for _, d := range run.Decisions {
		if d.Error != "" {
			fmt.Fprintf(rw.w, "  %-20s error: %s\n", d.Request, d.Error)
			continue
		}
		fmt.Fprintf(rw.w, "  %-20s %s\n", d.Request, DecisionLine(d.Decision, labels))
	}

	fmt.Fprintln(rw.w)
	fmt.Fprintln(rw.w, "Final available:")
	return rw.table([]string{""}, labels, [][]int{run.Final.Available})
}

// State renders a snapshot.
func (rw *Writer) State(snap state.Snapshot) error {
	if rw.format == FormatJSON {
		return rw.json(snap)
	}
	return rw.stateText(snap, state.ResourceLabels(snap.Resources))
}

// Safety renders a safety result.
func (rw *Writer) Safety(res safety.Result) error {
	if rw.format == FormatJSON {
		return rw.json(res)
	}
	rw.safetyText(res)
	return nil
}

// Decision renders a single decision.
func (rw *Writer) Decision(d *evaluate.Decision) error {
	if rw.format == FormatJSON {
		return rw.json(d)
	}
	_, err := fmt.Fprintf(rw.w, "%s %s\n", d.Request, DecisionLine(d, state.ResourceLabels(len(d.Available))))
	return err
}

// DecisionLine describes a decision in one line, e.g.
// "granted, available A=2 B=3 C=0" or "refused: insufficient_available (B)".
func DecisionLine(d *evaluate.Decision, labels []string) string {
	if d.Granted() {
		return "granted, available " + labelled(labels, d.Available)
	}
	if d.Resource >= 0 && d.Resource < len(labels) {
		return fmt.Sprintf("refused: %s (%s)", d.Reason, labels[d.Resource])
	}
	return fmt.Sprintf("refused: %s", d.Reason)
}

// SequenceString renders a finishing order as "P1 -> P3 -> P4".
func SequenceString(seq []int) string {
	parts := make([]string, len(seq))
	for k, i := range seq {
		parts[k] = "P" + strconv.Itoa(i)
	}
	return strings.Join(parts, " -> ")
}

func (rw *Writer) stateText(snap state.Snapshot, labels []string) error {
	fmt.Fprintf(rw.w, "Processes: %d  Resources: %d\n\n", snap.Processes, snap.Resources)

	sections := []struct {
		title string
		rows  [][]int
	}{
		{"Allocation", snap.Allocation},
		{"Maximum", snap.Maximum},
		{"Need", snap.Need},
	}
	for _, s := range sections {
		fmt.Fprintf(rw.w, "%s:\n", s.title)
		if err := rw.table(processLabels(snap.Processes), labels, s.rows); err != nil {
			return err
		}
		fmt.Fprintln(rw.w)
	}

	fmt.Fprintln(rw.w, "Available:")
	return rw.table([]string{""}, labels, [][]int{snap.Available})
}

func (rw *Writer) safetyText(res safety.Result) {
	if res.Safe {
		fmt.Fprintf(rw.w, "State is SAFE, sequence: %s\n", SequenceString(res.Sequence))
		return
	}
	fmt.Fprintf(rw.w, "State is UNSAFE, blocked: %s\n", SequenceString(res.Blocked))
	if len(res.Sequence) > 0 {
		fmt.Fprintf(rw.w, "  finished before blocking: %s\n", SequenceString(res.Sequence))
	}
}

func (rw *Writer) table(rowLabels, colLabels []string, rows [][]int) error {
	tw := tabwriter.NewWriter(rw.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "\t")
	for _, l := range colLabels {
		fmt.Fprintf(tw, "%s\t", l)
	}
	fmt.Fprintln(tw)
	for i, row := range rows {
		fmt.Fprintf(tw, "%s\t", rowLabels[i])
		for _, q := range row {
			fmt.Fprintf(tw, "%d\t", q)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func (rw *Writer) json(v any) error {
	enc := json.NewEncoder(rw.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func processLabels(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "P" + strconv.Itoa(i)
	}
	return out
}

func labelled(labels []string, v []int) string {
	parts := make([]string, len(v))
	for j, q := range v {
		parts[j] = fmt.Sprintf("%s=%d", labels[j], q)
	}
	return strings.Join(parts, " ")
}
