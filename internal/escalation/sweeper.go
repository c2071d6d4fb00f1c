package escalation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vendorflow/internal/audit"
	"vendorflow/internal/platform/metrics"
	"vendorflow/internal/sla"
	"vendorflow/internal/vendorstore"
	"vendorflow/pkg/sentinel"
)

// EscalationThresholdDays is how long a breach must persist before the
// sweeper raises priority.
const EscalationThresholdDays = 3

// AuditPublisher receives escalation events, fire-and-forget.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Sweeper periodically raises the priority of vendors whose SLA breach has
// persisted. It is the only writer of workflow priority outside the submit
// and review-start transitions. The loop interval comes from configuration;
// the engine itself owns no scheduling semantics beyond the ticker.
type Sweeper struct {
	monitor  *sla.Monitor
	store    store.Store
	auditor  AuditPublisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	interval time.Duration
	now      func() time.Time
}

type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweeper) { s.metrics = m }
}

func WithAuditPublisher(auditor AuditPublisher) Option {
	return func(s *Sweeper) { s.auditor = auditor }
}

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

func New(monitor *sla.Monitor, vendorStore store.Store, interval time.Duration, opts ...Option) (*Sweeper, error) {
	if monitor == nil {
		return nil, fmt.Errorf("sla monitor is required")
	}
	if vendorStore == nil {
		return nil, fmt.Errorf("vendor store is required")
	}
	s := &Sweeper{
		monitor:  monitor,
		store:    vendorStore,
		logger:   slog.Default(),
		interval: interval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run drives SweepOnce on the configured interval until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "escalation sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce escalates every vendor whose breach has persisted past the
// threshold: one priority step up the ladder, one escalation level, one
// timestamped note. Races with concurrent transitions are skipped, not
// retried; the next sweep self-corrects.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	start := s.now()
	defer func() { s.metrics.ObserveSweep(time.Since(start)) }()

	report, err := s.monitor.Snapshot(ctx)
	if err != nil {
		return 0, err
	}

	escalated := 0
	for _, breach := range report.Breaches {
		if breach.DaysPast < EscalationThresholdDays {
			continue
		}
		if err := s.escalate(ctx, breach); err != nil {
			s.logger.WarnContext(ctx, "escalation skipped",
				"vendor_id", breach.VendorID,
				"error", err,
			)
			continue
		}
		escalated++
	}

	s.logger.InfoContext(ctx, "escalation sweep complete",
		"breaches", len(report.Breaches),
		"escalated", escalated,
	)
	return escalated, nil
}

func (s *Sweeper) escalate(ctx context.Context, breach sla.Breach) error {
	v, err := s.store.Load(ctx, breach.VendorID)
	if err != nil {
		return err
	}
	// Re-check on the fresh record; the snapshot may be stale by now.
	now := s.now()
	if v.NextReviewDate == nil || !v.NextReviewDate.Before(now) {
		return nil
	}

	priority := v.Priority.Escalate()
	level := v.EscalationLevel + 1
	notes := appendNote(v.Notes, fmt.Sprintf("[%s] escalated to %s priority: SLA breached by %d day(s)",
		now.UTC().Format(time.RFC3339), priority, breach.DaysPast))

	_, err = s.store.Update(ctx, v.ID, v.Version, store.Update{
		Priority:        &priority,
		EscalationLevel: &level,
		Notes:           &notes,
	})
	if err != nil {
		// Lost the race against a transition; the next sweep re-evaluates.
		if errors.Is(err, sentinel.ErrVersionConflict) {
			return nil
		}
		return err
	}

	s.metrics.IncrementEscalations()
	if s.auditor != nil {
		s.auditor.Emit(ctx, audit.Event{
			VendorID: v.ID,
			Action:   "escalation",
			Reason:   fmt.Sprintf("priority raised to %s after %d day(s) past deadline", priority, breach.DaysPast),
		})
	}
	s.logger.InfoContext(ctx, "vendor escalated",
		"vendor_id", v.ID,
		"priority", string(priority),
		"escalation_level", level,
		"days_past", breach.DaysPast,
	)
	return nil
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}
