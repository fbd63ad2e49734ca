// Package audit re-checks a bank's invariants and safety on a cron schedule.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/banker/pkg/banker"
	"mercator-hq/banker/pkg/telemetry/logging"
)

// Auditor is implemented by *banker.Bank.
type Auditor interface {
	Audit(ctx context.Context) (banker.AuditReport, error)
}

// Scheduler runs audits at scheduled intervals using cron syntax.
type Scheduler struct {
	auditor  Auditor
	schedule string
	cron     *cron.Cron
	logger   *logging.Logger

	mu      sync.Mutex
	running bool
	done    chan struct{}
	last    *banker.AuditReport
	runs    int
}

// NewScheduler creates a scheduler for auditor. An empty schedule makes
// Start a no-op.
func NewScheduler(auditor Auditor, schedule string, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scheduler{
		auditor:  auditor,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.WithComponent("audit"),
	}
}

// Start schedules the audit. Accepted expressions are standard five-field
// cron lines and descriptors:
//   - "@every 30s"  - Every 30 seconds
//   - "*/5 * * * *" - Every 5 minutes
//   - "@hourly"     - Once an hour
//
// The scheduler stops by itself when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("audit schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return fmt.Errorf("audit scheduler already running")
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule audit: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.done = make(chan struct{})

	s.logger.Info("audit scheduler started", "schedule", s.schedule)

	done := s.done
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-done:
		}
	}()

	return nil
}

// RunOnce performs a single audit and records its report.
func (s *Scheduler) RunOnce(ctx context.Context) (banker.AuditReport, error) {
	report, err := s.auditor.Audit(ctx)
	if err != nil {
		s.logger.Error("audit failed", "error", err)
		return report, err
	}

	s.mu.Lock()
	s.last = &report
	s.runs++
	s.mu.Unlock()

	if report.OK() {
		s.logger.Debug("audit passed", "sequence", report.Safety.Sequence)
	} else {
		s.logger.Warn("audit found a problem",
			"violation", report.Violation,
			"safe", report.Safety.Safe,
			"blocked", report.Safety.Blocked,
		)
	}
	return report, nil
}

// Stop stops the scheduler and waits for a running audit to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.done)
	s.mu.Unlock()

	// Wait outside the lock: a running job takes it in RunOnce.
	<-s.cron.Stop().Done()
	s.logger.Info("audit scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastReport returns the most recent audit report, or nil before the first run.
func (s *Scheduler) LastReport() *banker.AuditReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	report := *s.last
	return &report
}

// Runs returns the number of completed audits.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// NextRun returns the next scheduled audit time, or nil when nothing is scheduled.
func (s *Scheduler) NextRun() *time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
