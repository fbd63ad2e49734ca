package banker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/banker/pkg/banker/evaluate"
	"mercator-hq/banker/pkg/banker/safety"
	"mercator-hq/banker/pkg/banker/state"
)

func classicState(t *testing.T) *state.State {
	t.Helper()
	s, err := state.New(
		[][]int{{0, 1, 0}, {2, 0, 0}, {3, 0, 2}, {2, 1, 1}, {0, 0, 2}},
		[][]int{{7, 5, 3}, {3, 2, 2}, {9, 0, 2}, {2, 2, 2}, {4, 3, 3}},
		[]int{3, 3, 2},
	)
	if err != nil {
		t.Fatalf("state.New failed: %v", err)
	}
	return s
}

func newTestBank(t *testing.T) (*Bank, *Metrics) {
	t.Helper()
	metrics := NewMetrics("test", prometheus.NewRegistry())
	b, err := NewBank(classicState(t), Config{Metrics: metrics})
	if err != nil {
		t.Fatalf("NewBank failed: %v", err)
	}
	return b, metrics
}

// ============================================================================
// Construction
// ============================================================================

func TestNewBank(t *testing.T) {
	if _, err := NewBank(nil, Config{}); err == nil {
		t.Error("Expected error for nil state")
	}
	if _, err := NewBank(classicState(t), Config{Policy: "optimistic"}); err == nil {
		t.Error("Expected error for unknown policy")
	}

	b, err := NewBank(classicState(t), Config{})
	if err != nil {
		t.Fatalf("NewBank failed: %v", err)
	}
	if b.Policy() != evaluate.PolicyCanonical {
		t.Errorf("Expected canonical policy, got %s", b.Policy())
	}
	if labels := b.Labels(); len(labels) != 3 || labels[0] != "A" {
		t.Errorf("Unexpected labels %v", labels)
	}
}

// ============================================================================
// Evaluate / Release
// ============================================================================

func TestBank_EvaluateRecordsDecisions(t *testing.T) {
	b, m := newTestBank(t)
	ctx := context.Background()

	d, err := b.Evaluate(ctx, evaluate.Request{Process: 1, Vector: state.Vector{1, 0, 2}})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !d.Granted() {
		t.Fatalf("Expected granted, got %s", d.Reason)
	}
	if d.ID == "" {
		t.Error("Expected decision ID")
	}

	d, err = b.Evaluate(ctx, evaluate.Request{Process: 0, Vector: state.Vector{0, 2, 0}})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.Reason != evaluate.ReasonWouldBeUnsafe {
		t.Errorf("Expected would_be_unsafe, got %q", d.Reason)
	}

	if got := testutil.ToFloat64(m.decisions.WithLabelValues("granted", "none", "canonical")); got != 1 {
		t.Errorf("Expected 1 granted decision, got %v", got)
	}
	if got := testutil.ToFloat64(m.decisions.WithLabelValues("refused", "would_be_unsafe", "canonical")); got != 1 {
		t.Errorf("Expected 1 unsafe refusal, got %v", got)
	}
	if got := testutil.ToFloat64(m.available.WithLabelValues("C")); got != 0 {
		t.Errorf("Expected 0 units of C available, got %v", got)
	}
	if got := testutil.ToFloat64(m.available.WithLabelValues("B")); got != 3 {
		t.Errorf("Expected 3 units of B available, got %v", got)
	}
}

func TestBank_EvaluateInvalid(t *testing.T) {
	b, m := newTestBank(t)

	_, err := b.Evaluate(context.Background(), evaluate.Request{Process: 9, Vector: state.Vector{0, 0, 0}})
	if !errors.Is(err, state.ErrIndexOutOfRange) {
		t.Fatalf("Expected ErrIndexOutOfRange, got %v", err)
	}
	if got := testutil.ToFloat64(m.rejected.WithLabelValues("evaluate")); got != 1 {
		t.Errorf("Expected 1 rejected request, got %v", got)
	}
}

func TestBank_EvaluateCancelled(t *testing.T) {
	b, _ := newTestBank(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.Evaluate(ctx, evaluate.Request{Process: 1, Vector: state.Vector{1, 0, 2}}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if avail := b.Snapshot().Available; avail[0] != 3 {
		t.Errorf("Cancelled evaluation changed state: %v", avail)
	}
}

func TestBank_Release(t *testing.T) {
	b, m := newTestBank(t)
	ctx := context.Background()

	avail, err := b.Release(ctx, 2, state.Vector{3, 0, 2})
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if !avail.Equal(state.Vector{6, 3, 4}) {
		t.Errorf("Expected available [6 3 4], got %v", avail)
	}
	if got := testutil.ToFloat64(m.releases); got != 1 {
		t.Errorf("Expected 1 release, got %v", got)
	}

	if _, err := b.Release(ctx, 2, state.Vector{1, 0, 0}); !errors.Is(err, state.ErrReleaseExceedsAllocation) {
		t.Errorf("Expected ErrReleaseExceedsAllocation, got %v", err)
	}
	if got := testutil.ToFloat64(m.rejected.WithLabelValues("release")); got != 1 {
		t.Errorf("Expected 1 rejected release, got %v", got)
	}
}

// ============================================================================
// Safety / Audit / Replace
// ============================================================================

func TestBank_CheckSafety(t *testing.T) {
	b, m := newTestBank(t)

	res, err := b.CheckSafety(context.Background())
	if err != nil {
		t.Fatalf("CheckSafety failed: %v", err)
	}
	if !res.Safe {
		t.Error("Expected classic state to be safe")
	}
	if got := testutil.ToFloat64(m.safetyChecks.WithLabelValues("safe")); got != 1 {
		t.Errorf("Expected 1 safe check, got %v", got)
	}

	res, _ = b.CheckSafety(context.Background(), safety.WithScanOrder([]int{4, 3, 2, 1, 0}))
	if len(res.Sequence) == 0 || res.Sequence[0] != 3 {
		t.Errorf("Expected scan order to be honoured, got %v", res.Sequence)
	}
}

func TestBank_Audit(t *testing.T) {
	b, m := newTestBank(t)

	report, err := b.Audit(context.Background())
	if err != nil {
		t.Fatalf("Audit failed: %v", err)
	}
	if !report.OK() {
		t.Errorf("Expected clean audit, got %+v", report)
	}
	if got := testutil.ToFloat64(m.audits.WithLabelValues("ok")); got != 1 {
		t.Errorf("Expected 1 ok audit, got %v", got)
	}

	// Available-only policy can reach an unsafe state; the audit reports it.
	unsafe, err := NewBank(classicState(t), Config{Policy: evaluate.PolicyAvailableOnly, Metrics: m})
	if err != nil {
		t.Fatalf("NewBank failed: %v", err)
	}
	ctx := context.Background()
	unsafe.Evaluate(ctx, evaluate.Request{Process: 1, Vector: state.Vector{1, 0, 2}})
	unsafe.Evaluate(ctx, evaluate.Request{Process: 0, Vector: state.Vector{0, 2, 0}})

	report, _ = unsafe.Audit(ctx)
	if report.OK() {
		t.Error("Expected audit to flag unsafe state")
	}
	if report.Err != nil {
		t.Errorf("Expected invariants to hold, got %v", report.Err)
	}
	if got := testutil.ToFloat64(m.audits.WithLabelValues("violation")); got != 1 {
		t.Errorf("Expected 1 violation audit, got %v", got)
	}
}

func TestBank_Replace(t *testing.T) {
	b, _ := newTestBank(t)

	next, _ := state.New([][]int{{0, 0, 0}}, [][]int{{1, 1, 1}}, []int{1, 1, 1})
	if err := b.Replace(next); !errors.Is(err, ErrShapeChanged) {
		t.Errorf("Expected ErrShapeChanged, got %v", err)
	}

	fresh := classicState(t)
	fresh.ApplyGrant(1, state.Vector{1, 0, 2})
	if err := b.Replace(fresh); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if avail := b.Snapshot().Available; avail[2] != 0 {
		t.Errorf("Expected replaced state, got available %v", avail)
	}

	reshape, _ := NewBank(classicState(t), Config{AllowReshape: true})
	if err := reshape.Replace(next); err != nil {
		t.Errorf("Expected reshape to be allowed, got %v", err)
	}
	if labels := reshape.Labels(); len(labels) != 3 {
		t.Errorf("Unexpected labels after reshape %v", labels)
	}
}

func TestBank_ReshapeDropsStaleGauges(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())
	b, err := NewBank(classicState(t), Config{Metrics: m, AllowReshape: true})
	if err != nil {
		t.Fatalf("NewBank failed: %v", err)
	}
	if got := testutil.CollectAndCount(m.available); got != 3 {
		t.Fatalf("Expected 3 available series, got %d", got)
	}

	single, _ := state.New([][]int{{1}}, [][]int{{2}}, []int{4})
	if err := b.Replace(single); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	if got := testutil.CollectAndCount(m.available); got != 1 {
		t.Errorf("Expected 1 available series after reshape, got %d", got)
	}
	if got := testutil.ToFloat64(m.available.WithLabelValues("A")); got != 4 {
		t.Errorf("Expected A=4, got %v", got)
	}
}

func TestBank_Healthy(t *testing.T) {
	b, m := newTestBank(t)
	ctx := context.Background()

	if err := b.Healthy(ctx); err != nil {
		t.Errorf("Expected healthy classic state, got %v", err)
	}
	if got := testutil.CollectAndCount(m.audits); got != 0 {
		t.Errorf("Healthy should not record audits, got %d series", got)
	}

	unsafe, _ := NewBank(classicState(t), Config{Policy: evaluate.PolicyAvailableOnly})
	unsafe.Evaluate(ctx, evaluate.Request{Process: 1, Vector: state.Vector{1, 0, 2}})
	unsafe.Evaluate(ctx, evaluate.Request{Process: 0, Vector: state.Vector{0, 2, 0}})
	if err := unsafe.Healthy(ctx); !errors.Is(err, ErrUnsafe) {
		t.Errorf("Expected ErrUnsafe, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := b.Healthy(cancelled); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// ============================================================================
// Concurrency
// ============================================================================

func TestBank_ConcurrentRequestsStaySafe(t *testing.T) {
	b, _ := newTestBank(t)
	ctx := context.Background()

	requests := []evaluate.Request{
		{Process: 0, Vector: state.Vector{0, 1, 0}},
		{Process: 1, Vector: state.Vector{1, 0, 1}},
		{Process: 3, Vector: state.Vector{0, 1, 0}},
		{Process: 4, Vector: state.Vector{1, 1, 0}},
		{Process: 2, Vector: state.Vector{1, 0, 0}},
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for k := 0; k < 50; k++ {
				req := requests[(g+k)%len(requests)]
				d, err := b.Evaluate(ctx, req)
				if err != nil {
					t.Errorf("Evaluate failed: %v", err)
					return
				}
				if d.Granted() {
					if _, err := b.Release(ctx, req.Process, req.Vector); err != nil {
						t.Errorf("Release failed: %v", err)
						return
					}
				}
			}
		}(g)
	}
	wg.Wait()

	report, _ := b.Audit(ctx)
	if !report.OK() {
		t.Errorf("Expected consistent safe state after concurrent traffic, got %+v", report)
	}
	snap := b.Snapshot()
	if !state.Vector(snap.Available).Equal(state.Vector{3, 3, 2}) {
		t.Errorf("Expected every grant to be released, available %v", snap.Available)
	}
}
