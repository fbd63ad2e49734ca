package banker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/banker/pkg/banker/evaluate"
	"mercator-hq/banker/pkg/banker/safety"
	"mercator-hq/banker/pkg/banker/state"
	"mercator-hq/banker/pkg/telemetry/logging"
)

// ErrShapeChanged is returned by Replace when the new state has a different
// process or resource-type count than the current one.
var ErrShapeChanged = errors.New("state shape changed")

// ErrUnsafe is returned by Healthy when no safe sequence exists.
var ErrUnsafe = errors.New("state is unsafe")

// Config configures a Bank.
type Config struct {
	// Policy is the evaluation policy (default canonical)
	Policy evaluate.Policy

	// Metrics is optional; nil disables metrics
	Metrics *Metrics

	// Logger is optional; nil discards logs
	Logger *logging.Logger

	// AllowReshape lets Replace install a state of a different shape
	AllowReshape bool
}

// Bank is a concurrency-safe wrapper around a state.State.
type Bank struct {
	mu        sync.Mutex
	st        *state.State
	evaluator *evaluate.Evaluator
	labels    []string

	metrics      *Metrics
	logger       *logging.Logger
	allowReshape bool
}

// AuditReport is the outcome of Audit.
type AuditReport struct {
	// Err is the first invariant violation found, nil when the state is consistent.
	Err error `json:"-"`

	// Violation is Err rendered as text, for JSON output.
	Violation string `json:"violation,omitempty"`

	// Safety is the safety verdict of the current state.
	Safety safety.Result `json:"safety"`

	CheckedAt time.Time `json:"checked_at"`
}

// OK reports whether the audit found neither an invariant violation nor an
// unsafe state.
func (r AuditReport) OK() bool {
	return r.Err == nil && r.Safety.Safe
}

// NewBank wraps st. The Bank takes ownership of st; callers must not use it
// afterwards.
func NewBank(st *state.State, cfg Config) (*Bank, error) {
	if st == nil {
		return nil, fmt.Errorf("state is required")
	}
	ev, err := evaluate.New(cfg.Policy)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	b := &Bank{
		st:           st,
		evaluator:    ev,
		labels:       state.ResourceLabels(st.Resources()),
		metrics:      cfg.Metrics,
		logger:       logger.WithComponent("bank"),
		allowReshape: cfg.AllowReshape,
	}
	b.updateAvailable()
	return b, nil
}

// Policy returns the evaluation policy.
func (b *Bank) Policy() evaluate.Policy {
	return b.evaluator.Policy()
}

// Evaluate judges req and commits it on grant. A refusal is returned as a
// Decision, not an error; errors are reserved for malformed requests and a
// cancelled ctx.
func (b *Bank) Evaluate(ctx context.Context, req evaluate.Request) (*evaluate.Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx = logging.WithProcess(ctx, req.Process)
	start := time.Now()

	b.mu.Lock()
	d, err := b.evaluator.Evaluate(b.st, req)
	if err == nil && d.Granted() {
		b.updateAvailable()
	}
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.RecordEvaluateDuration(time.Since(start).Seconds())
	}

	if err != nil {
		if b.metrics != nil {
			b.metrics.RecordInvalid("evaluate")
		}
		b.logger.WarnContext(ctx, "invalid request", "request", req.Vector.String(), "error", err)
		return nil, err
	}

	d.ID = uuid.New().String()
	if b.metrics != nil {
		b.metrics.RecordDecision(d)
	}

	if d.Granted() {
		b.logger.InfoContext(ctx, "request granted",
			"decision_id", d.ID,
			"request", req.Vector.String(),
			"available", d.Available.String(),
		)
	} else {
		b.logger.InfoContext(ctx, "request refused",
			"decision_id", d.ID,
			"request", req.Vector.String(),
			"reason", string(d.Reason),
			"resource", d.Resource,
		)
	}
	return d, nil
}

// Release returns units held by process i.
func (b *Bank) Release(ctx context.Context, i int, units state.Vector) (state.Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx = logging.WithProcess(ctx, i)

	b.mu.Lock()
	err := b.st.Release(i, units)
	if err == nil {
		b.updateAvailable()
	}
	available := b.st.Available()
	b.mu.Unlock()

	if err != nil {
		if b.metrics != nil {
			b.metrics.RecordInvalid("release")
		}
		b.logger.WarnContext(ctx, "invalid release", "units", units.String(), "error", err)
		return nil, err
	}

	if b.metrics != nil {
		b.metrics.RecordRelease()
	}
	b.logger.InfoContext(ctx, "units released", "units", units.String(), "available", available.String())
	return available, nil
}

// CheckSafety runs the safety check on the current state.
func (b *Bank) CheckSafety(ctx context.Context, opts ...safety.Option) (safety.Result, error) {
	if err := ctx.Err(); err != nil {
		return safety.Result{}, err
	}

	b.mu.Lock()
	res := safety.Check(b.st, opts...)
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.RecordSafetyCheck(res.Safe)
	}
	b.logger.DebugContext(ctx, "safety check", "safe", res.Safe, "sequence", res.Sequence)
	return res, nil
}

// Snapshot returns a plain-data copy of the current state.
func (b *Bank) Snapshot() state.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.st.Snapshot()
}

// Labels returns the resource-type column labels (A, B, C, ...).
func (b *Bank) Labels() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.labels))
	copy(out, b.labels)
	return out
}

// Replace swaps in a new state, typically after the scenario file changed.
// Unless AllowReshape is set, the new state must have the same process and
// resource-type counts.
func (b *Bank) Replace(st *state.State) error {
	if st == nil {
		return fmt.Errorf("state is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.allowReshape && (st.Processes() != b.st.Processes() || st.Resources() != b.st.Resources()) {
		return fmt.Errorf("%w: have %dx%d, got %dx%d", ErrShapeChanged,
			b.st.Processes(), b.st.Resources(), st.Processes(), st.Resources())
	}

	reshaped := st.Resources() != b.st.Resources()
	b.st = st
	b.labels = state.ResourceLabels(st.Resources())
	if reshaped && b.metrics != nil {
		b.metrics.ResetAvailable()
	}
	b.updateAvailable()
	b.logger.Info("state replaced", "processes", st.Processes(), "resources", st.Resources())
	return nil
}

// Audit verifies the state invariants and runs a safety check. Under the
// canonical policy an unsafe state can only come from the initial state or a
// Replace; under the available-only policy it is an expected result.
func (b *Bank) Audit(ctx context.Context) (AuditReport, error) {
	if err := ctx.Err(); err != nil {
		return AuditReport{}, err
	}

	res, verr := b.inspect()

	report := AuditReport{Err: verr, Safety: res, CheckedAt: time.Now()}
	if verr != nil {
		report.Violation = verr.Error()
		b.logger.ErrorContext(ctx, "state invariant violated", "error", verr)
	}
	if !res.Safe {
		b.logger.WarnContext(ctx, "state is unsafe", "blocked", res.Blocked)
	}
	if b.metrics != nil {
		b.metrics.RecordAudit(report.OK())
	}
	return report, nil
}

// Healthy reports whether the state holds its invariants and is safe. Unlike
// Audit it neither logs nor records metrics.
func (b *Bank) Healthy(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, verr := b.inspect()
	if verr != nil {
		return verr
	}
	if !res.Safe {
		return ErrUnsafe
	}
	return nil
}

// inspect returns the safety result and the Verify error of the current state.
func (b *Bank) inspect() (safety.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return safety.Check(b.st), b.st.Verify()
}

// updateAvailable refreshes the available gauge. Caller must hold b.mu.
func (b *Bank) updateAvailable() {
	if b.metrics == nil {
		return
	}
	b.metrics.UpdateAvailable(b.labels, b.st.Available())
}
