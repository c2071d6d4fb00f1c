package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vendorflow/internal/audit"
	"vendorflow/internal/domain"
	"vendorflow/internal/platform/metrics"
	"vendorflow/internal/scoring"
	"vendorflow/internal/vendorstore"
	dErrors "vendorflow/pkg/domainerrors"
	"vendorflow/pkg/sentinel"
)

// SLA windows and validity periods. The interval constants are business
// policy, not tunables; the large-enterprise threshold is configured.
const (
	SubmitReviewWindow  = 24 * time.Hour
	ReviewWindow        = 72 * time.Hour
	ClarificationWindow = 48 * time.Hour
	VerificationTerm    = 365 * 24 * time.Hour
)

// AuditPublisher receives transition events. Emission is fire-and-forget;
// transitions never fail on the audit path.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// CompletenessCheck decides whether a profile is complete enough to submit.
// The real predicate belongs to the profile collaborator; the engine only
// delegates to it.
type CompletenessCheck func(domain.Vendor) bool

// Service drives vendors through the verification lifecycle. Every
// transition is one atomic read-modify-write against the store; a stale read
// fails with a conflict instead of overwriting a concurrent decision.
type Service struct {
	store   store.Store
	scorer  *scoring.Scorer
	auditor AuditPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time

	profileComplete        CompletenessCheck
	largeEnterpriseRevenue float64
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(auditor AuditPublisher) Option {
	return func(s *Service) { s.auditor = auditor }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock injects a deterministic clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithCompletenessCheck(check CompletenessCheck) Option {
	return func(s *Service) { s.profileComplete = check }
}

func WithLargeEnterpriseRevenue(threshold float64) Option {
	return func(s *Service) { s.largeEnterpriseRevenue = threshold }
}

func New(vendorStore store.Store, scorer *scoring.Scorer, opts ...Option) (*Service, error) {
	if vendorStore == nil {
		return nil, fmt.Errorf("vendor store is required")
	}
	if scorer == nil {
		return nil, fmt.Errorf("scorer is required")
	}
	s := &Service{
		store:  vendorStore,
		scorer: scorer,
		logger: slog.Default(),
		tracer: otel.Tracer("vendorflow/internal/workflow"),
		now:    time.Now,
		profileComplete: func(v domain.Vendor) bool {
			return v.ProfileComplete
		},
		largeEnterpriseRevenue: 10_000_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Submit moves a draft vendor into the review queue. The profile must pass
// the completeness predicate; priority is derived from the category rule.
func (s *Service) Submit(ctx context.Context, vendorID, actorID string) (TransitionResult, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.submit",
		trace.WithAttributes(attribute.String("vendor.id", vendorID)))
	defer span.End()

	v, err := s.load(ctx, vendorID)
	if err != nil {
		return s.fail(OpSubmit, err)
	}
	to, err := resolve(OpSubmit, v.Status)
	if err != nil {
		return s.fail(OpSubmit, err)
	}
	if !s.profileComplete(v) {
		return s.fail(OpSubmit, dErrors.New(dErrors.CodePreconditionFailed, "vendor profile is incomplete"))
	}

	now := s.now()
	deadline := now.Add(SubmitReviewWindow)
	priority := s.submitPriority(v)
	updated, err := s.store.Update(ctx, v.ID, v.Version, store.Update{
		Status:         &to,
		SubmittedAt:    &now,
		NextReviewDate: &deadline,
		Priority:       &priority,
	})
	if err != nil {
		return s.fail(OpSubmit, s.storeErr(err, vendorID))
	}

	return s.finish(ctx, OpSubmit, v.Status, updated, actorID, "", TransitionResult{
		Message:     "vendor submitted for verification",
		NextActions: []string{"Assign a reviewer within 24 hours"},
		SLADeadline: &deadline,
	}), nil
}

// StartReview assigns a reviewer and opens the review window. Starting a
// review is the only human action that resets priority and escalation.
func (s *Service) StartReview(ctx context.Context, vendorID, reviewerID, notes string) (TransitionResult, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.start_review",
		trace.WithAttributes(attribute.String("vendor.id", vendorID)))
	defer span.End()

	v, err := s.load(ctx, vendorID)
	if err != nil {
		return s.fail(OpStartReview, err)
	}
	to, err := resolve(OpStartReview, v.Status)
	if err != nil {
		return s.fail(OpStartReview, err)
	}

	now := s.now()
	deadline := now.Add(ReviewWindow)
	priority := domain.PriorityNormal
	zero := 0
	upd := store.Update{
		Status:          &to,
		ReviewedAt:      &now,
		NextReviewDate:  &deadline,
		Priority:        &priority,
		EscalationLevel: &zero,
		ReviewerID:      &reviewerID,
	}
	if notes != "" {
		upd.Notes = &notes
	}
	updated, err := s.store.Update(ctx, v.ID, v.Version, upd)
	if err != nil {
		return s.fail(OpStartReview, s.storeErr(err, vendorID))
	}

	return s.finish(ctx, OpStartReview, v.Status, updated, reviewerID, notes, TransitionResult{
		Message:     "review started",
		NextActions: []string{"Complete the review within 72 hours"},
		SLADeadline: &deadline,
	}), nil
}

// Approve verifies the vendor, activates it on the marketplace, and seeds
// the quality score from the profile.
func (s *Service) Approve(ctx context.Context, vendorID, approverID, notes string) (TransitionResult, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.approve",
		trace.WithAttributes(attribute.String("vendor.id", vendorID)))
	defer span.End()

	v, err := s.load(ctx, vendorID)
	if err != nil {
		return s.fail(OpApprove, err)
	}
	to, err := resolve(OpApprove, v.Status)
	if err != nil {
		return s.fail(OpApprove, err)
	}

	now := s.now()
	expires := now.Add(VerificationTerm)
	active := true
	score := s.scorer.Initial(v)
	zero := 0
	upd := store.Update{
		Status:              &to,
		CompletedAt:         &now,
		ExpiresAt:           &expires,
		ClearNextReviewDate: true,
		EscalationLevel:     &zero,
		IsActive:            &active,
		QualityScore:        &score,
	}
	if notes != "" {
		upd.Notes = &notes
	}
	updated, err := s.store.Update(ctx, v.ID, v.Version, upd)
	if err != nil {
		return s.fail(OpApprove, s.storeErr(err, vendorID))
	}

	return s.finish(ctx, OpApprove, v.Status, updated, approverID, notes, TransitionResult{
		Message:     fmt.Sprintf("vendor verified with initial quality score %d (%s)", score, scoring.Grade(score)),
		NextActions: []string{"Vendor is live on the marketplace", "Schedule the first performance review"},
	}), nil
}

// Reject closes the review cycle negatively. A rationale is mandatory.
func (s *Service) Reject(ctx context.Context, vendorID, reason, actorID string) (TransitionResult, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.reject",
		trace.WithAttributes(attribute.String("vendor.id", vendorID)))
	defer span.End()

	if reason == "" {
		return s.fail(OpReject, dErrors.New(dErrors.CodeValidation, "rejection reason is required"))
	}
	v, err := s.load(ctx, vendorID)
	if err != nil {
		return s.fail(OpReject, err)
	}
	to, err := resolve(OpReject, v.Status)
	if err != nil {
		return s.fail(OpReject, err)
	}

	inactive := false
	zero := 0
	updated, err := s.store.Update(ctx, v.ID, v.Version, store.Update{
		Status:              &to,
		ClearNextReviewDate: true,
		EscalationLevel:     &zero,
		IsActive:            &inactive,
		Notes:               &reason,
	})
	if err != nil {
		return s.fail(OpReject, s.storeErr(err, vendorID))
	}

	return s.finish(ctx, OpReject, v.Status, updated, actorID, reason, TransitionResult{
		Message:     "vendor rejected",
		NextActions: []string{"Notify the vendor of the decision"},
	}), nil
}

// RequestClarification pauses the review while the vendor answers questions.
func (s *Service) RequestClarification(ctx context.Context, vendorID, requestText, actorID string) (TransitionResult, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.request_clarification",
		trace.WithAttributes(attribute.String("vendor.id", vendorID)))
	defer span.End()

	if requestText == "" {
		return s.fail(OpRequestClarification, dErrors.New(dErrors.CodeValidation, "clarification request text is required"))
	}
	v, err := s.load(ctx, vendorID)
	if err != nil {
		return s.fail(OpRequestClarification, err)
	}
	to, err := resolve(OpRequestClarification, v.Status)
	if err != nil {
		return s.fail(OpRequestClarification, err)
	}

	now := s.now()
	deadline := now.Add(ClarificationWindow)
	updated, err := s.store.Update(ctx, v.ID, v.Version, store.Update{
		Status:         &to,
		NextReviewDate: &deadline,
		Notes:          &requestText,
	})
	if err != nil {
		return s.fail(OpRequestClarification, s.storeErr(err, vendorID))
	}

	return s.finish(ctx, OpRequestClarification, v.Status, updated, actorID, requestText, TransitionResult{
		Message:     "clarification requested from vendor",
		NextActions: []string{"Await vendor response within 48 hours"},
		SLADeadline: &deadline,
	}), nil
}

// Suspend takes a vendor off the marketplace. A nil duration means an
// indefinite suspension, which carries no review deadline.
func (s *Service) Suspend(ctx context.Context, vendorID, reason, actorID string, durationDays *int) (TransitionResult, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.suspend",
		trace.WithAttributes(attribute.String("vendor.id", vendorID)))
	defer span.End()

	v, err := s.load(ctx, vendorID)
	if err != nil {
		return s.fail(OpSuspend, err)
	}
	to, err := resolve(OpSuspend, v.Status)
	if err != nil {
		return s.fail(OpSuspend, err)
	}

	inactive := false
	level := v.EscalationLevel + 1
	upd := store.Update{
		Status:              &to,
		ClearNextReviewDate: true,
		EscalationLevel:     &level,
		IsActive:            &inactive,
	}
	if reason != "" {
		upd.Notes = &reason
	}
	var deadline *time.Time
	if durationDays != nil {
		d := s.now().Add(time.Duration(*durationDays) * 24 * time.Hour)
		deadline = &d
		upd.NextReviewDate = &d
		upd.ClearNextReviewDate = false
	}
	updated, err := s.store.Update(ctx, v.ID, v.Version, upd)
	if err != nil {
		return s.fail(OpSuspend, s.storeErr(err, vendorID))
	}

	return s.finish(ctx, OpSuspend, v.Status, updated, actorID, reason, TransitionResult{
		Message:     "vendor suspended",
		NextActions: []string{"Notify the vendor of the suspension"},
		SLADeadline: deadline,
	}), nil
}

// RecomputePerformance refreshes the quality score from the operational
// metrics snapshot. Not a workflow transition, but still an atomic update.
func (s *Service) RecomputePerformance(ctx context.Context, vendorID string) (PerformanceReview, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.recompute_performance",
		trace.WithAttributes(attribute.String("vendor.id", vendorID)))
	defer span.End()

	v, err := s.load(ctx, vendorID)
	if err != nil {
		return PerformanceReview{}, err
	}

	now := s.now()
	score := s.scorer.Recompute(v.Metrics)
	if _, err := s.store.Update(ctx, v.ID, v.Version, store.Update{
		QualityScore:            &score,
		LastPerformanceReviewAt: &now,
	}); err != nil {
		return PerformanceReview{}, s.storeErr(err, vendorID)
	}

	review := PerformanceReview{
		VendorID:         vendorID,
		QualityScore:     score,
		Grade:            scoring.Grade(score),
		ImprovementAreas: scoring.ImprovementAreas(v.Metrics),
		ReviewedAt:       now,
	}
	if s.auditor != nil {
		s.auditor.Emit(ctx, audit.Event{
			VendorID: vendorID,
			Action:   "performance_review",
			Reason:   fmt.Sprintf("quality score recomputed to %d", score),
		})
	}
	s.logger.InfoContext(ctx, "performance recomputed",
		"vendor_id", vendorID,
		"quality_score", score,
		"grade", review.Grade,
	)
	return review, nil
}

// submitPriority applies the submission priority rule: manufacturers,
// joint-stock companies, and large enterprises jump the queue.
func (s *Service) submitPriority(v domain.Vendor) domain.Priority {
	if v.Category == "manufacturer" {
		return domain.PriorityHigh
	}
	if v.BusinessForm == domain.BusinessFormJointStock {
		return domain.PriorityHigh
	}
	if v.Metrics.TotalRevenue > s.largeEnterpriseRevenue {
		return domain.PriorityHigh
	}
	return domain.PriorityNormal
}

func (s *Service) load(ctx context.Context, vendorID string) (domain.Vendor, error) {
	v, err := s.store.Load(ctx, vendorID)
	if err != nil {
		return domain.Vendor{}, s.storeErr(err, vendorID)
	}
	return v, nil
}

// storeErr translates sentinel store errors into the domain taxonomy. A
// version conflict means another transition won the race; the caller decides
// whether to retry.
func (s *Service) storeErr(err error, vendorID string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Newf(dErrors.CodeNotFound, "vendor %s not found", vendorID)
	case errors.Is(err, sentinel.ErrVersionConflict):
		return dErrors.New(dErrors.CodeConflict, "vendor record was modified concurrently")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "vendor store failure")
	}
}

func (s *Service) fail(op Operation, err error) (TransitionResult, error) {
	s.metrics.ObserveTransition(string(op), string(dErrors.GetCode(err)))
	return TransitionResult{}, err
}

// finish stamps the result, emits the audit event, and records metrics.
func (s *Service) finish(ctx context.Context, op Operation, from domain.VerificationStatus, updated domain.Vendor, actorID, reason string, result TransitionResult) TransitionResult {
	result.VendorID = updated.ID
	result.Success = true
	result.From = from
	result.To = updated.Status
	result.Timestamp = s.now()

	s.metrics.ObserveTransition(string(op), "ok")
	if s.auditor != nil {
		s.auditor.Emit(ctx, audit.Event{
			VendorID: updated.ID,
			Action:   string(op),
			From:     from,
			To:       updated.Status,
			ActorID:  actorID,
			Reason:   reason,
		})
	}
	s.logger.InfoContext(ctx, "workflow transition",
		"vendor_id", updated.ID,
		"operation", string(op),
		"from", string(from),
		"to", string(updated.Status),
		"actor_id", actorID,
	)
	return result
}
