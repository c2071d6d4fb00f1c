package sla

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"vendorflow/internal/domain"
	"vendorflow/internal/platform/metrics"
	dErrors "vendorflow/pkg/domainerrors"
)

const (
	// UpcomingWindow is how far ahead a deadline counts as approaching.
	UpcomingWindow = 48 * time.Hour

	// ProcessingLookback bounds the average-processing-time aggregate.
	ProcessingLookback = 90 * 24 * time.Hour

	day = 24 * time.Hour
)

// Store is the read side of the vendor store the monitor needs.
type Store interface {
	FindInStates(ctx context.Context, states []domain.VerificationStatus) ([]domain.Vendor, error)
	FindCompletedSince(ctx context.Context, since time.Time) ([]domain.Vendor, error)
}

// Breach is a timed-state vendor whose deadline has passed.
type Breach struct {
	VendorID          string                    `json:"vendor_id"`
	Status            domain.VerificationStatus `json:"status"`
	Priority          domain.Priority           `json:"priority"`
	Deadline          time.Time                 `json:"deadline"`
	DaysPast          int                       `json:"days_past"`
	RecommendedAction string                    `json:"recommended_action"`
}

// Upcoming is a timed-state vendor whose deadline is near but not past.
// Informational only; no action is recommended.
type Upcoming struct {
	VendorID string                    `json:"vendor_id"`
	Status   domain.VerificationStatus `json:"status"`
	Deadline time.Time                 `json:"deadline"`
}

// Report is the SLA dashboard payload.
type Report struct {
	GeneratedAt           time.Time  `json:"generated_at"`
	TimedVendors          int        `json:"timed_vendors"`
	Breaches              []Breach   `json:"breaches"`
	Upcoming              []Upcoming `json:"upcoming"`
	AverageProcessingDays float64    `json:"average_processing_days"`
	ComplianceRate        float64    `json:"sla_compliance_rate"`
}

// Monitor classifies timed vendors against their deadlines. It only reads;
// escalation is the sweeper's job.
type Monitor struct {
	store   Store
	cache   *ReportCache
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Monitor)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) { m.logger = logger }
}

func WithMetrics(met *metrics.Metrics) Option {
	return func(m *Monitor) { m.metrics = met }
}

func WithCache(cache *ReportCache) Option {
	return func(m *Monitor) { m.cache = cache }
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func NewMonitor(store Store, opts ...Option) (*Monitor, error) {
	if store == nil {
		return nil, fmt.Errorf("vendor store is required")
	}
	m := &Monitor{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Report serves the dashboard, preferring a fresh cached report. Cache
// failures degrade to a live snapshot, never to an error.
func (m *Monitor) Report(ctx context.Context) (Report, error) {
	if m.cache != nil {
		if report, ok := m.cache.Get(ctx); ok {
			return report, nil
		}
	}
	report, err := m.Snapshot(ctx)
	if err != nil {
		return Report{}, err
	}
	if m.cache != nil {
		if err := m.cache.Set(ctx, report); err != nil {
			m.logger.WarnContext(ctx, "cache sla report", "error", err)
		}
	}
	return report, nil
}

// Snapshot computes a live report from the store. The sweeper always uses
// this path so escalation decisions never act on cached data.
func (m *Monitor) Snapshot(ctx context.Context) (Report, error) {
	now := m.now()
	vendors, err := m.store.FindInStates(ctx, domain.TimedStatuses)
	if err != nil {
		return Report{}, dErrors.Wrap(err, dErrors.CodeInternal, "scan timed vendors")
	}

	report := Report{GeneratedAt: now}
	for _, v := range vendors {
		// Indefinitely suspended vendors carry no deadline and are not timed.
		if v.NextReviewDate == nil {
			continue
		}
		report.TimedVendors++
		deadline := *v.NextReviewDate
		switch {
		case deadline.Before(now):
			daysPast := int(math.Ceil(now.Sub(deadline).Hours() / 24))
			report.Breaches = append(report.Breaches, Breach{
				VendorID:          v.ID,
				Status:            v.Status,
				Priority:          v.Priority,
				Deadline:          deadline,
				DaysPast:          daysPast,
				RecommendedAction: recommendedAction(v.Status, daysPast),
			})
		case deadline.Sub(now) <= UpcomingWindow:
			report.Upcoming = append(report.Upcoming, Upcoming{
				VendorID: v.ID,
				Status:   v.Status,
				Deadline: deadline,
			})
		}
	}

	report.ComplianceRate = complianceRate(report.TimedVendors, len(report.Breaches))

	avg, err := m.averageProcessingDays(ctx, now)
	if err != nil {
		return Report{}, err
	}
	report.AverageProcessingDays = avg

	m.metrics.SetBreaches(len(report.Breaches))
	return report, nil
}

// averageProcessingDays is the mean submission-to-decision time over the
// trailing lookback. Rejected vendors without a completion timestamp fall
// back to the review timestamp; the source system conflates time-to-decision
// with time-to-review-start there, and we preserve that deliberately.
func (m *Monitor) averageProcessingDays(ctx context.Context, now time.Time) (float64, error) {
	completed, err := m.store.FindCompletedSince(ctx, now.Add(-ProcessingLookback))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "scan completed vendors")
	}
	var total float64
	var count int
	for _, v := range completed {
		if v.SubmittedAt == nil {
			continue
		}
		end := v.CompletedAt
		if end == nil {
			end = v.ReviewedAt
		}
		if end == nil {
			continue
		}
		total += end.Sub(*v.SubmittedAt).Hours() / 24
		count++
	}
	if count == 0 {
		return 0, nil
	}
	return total / float64(count), nil
}

// complianceRate is 100 when nothing is timed; an empty queue is compliant.
func complianceRate(timed, breaching int) float64 {
	if timed == 0 {
		return 100
	}
	return float64(timed-breaching) / float64(timed) * 100
}

// recommendedAction maps (state, days past deadline) to the operator
// playbook entry.
func recommendedAction(status domain.VerificationStatus, daysPast int) string {
	switch status {
	case domain.StatusSubmitted:
		if daysPast > 3 {
			return "Escalate to senior reviewer"
		}
		return "Assign to reviewer immediately"
	case domain.StatusUnderReview:
		if daysPast > 5 {
			return "Request manager intervention"
		}
		return "Follow up with assigned reviewer"
	case domain.StatusPendingDocuments:
		if daysPast > 7 {
			return "Send final reminder or reject"
		}
		return "Send reminder to vendor"
	case domain.StatusRequiresClarification:
		if daysPast > 2 {
			return "Contact vendor directly"
		}
		return "Send clarification reminder"
	default:
		return "Review status manually"
	}
}
