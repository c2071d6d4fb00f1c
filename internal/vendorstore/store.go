package store

import (
	"context"
	"time"

	"vendorflow/internal/domain"
)

// Store is the vendor-record collaborator the workflow engine writes through.
// Implementations must apply Update atomically: either every field in the
// command lands, or none does, and a stale expectedVersion must fail with
// sentinel.ErrVersionConflict rather than overwrite.
type Store interface {
	Load(ctx context.Context, id string) (domain.Vendor, error)
	Update(ctx context.Context, id string, expectedVersion int64, upd Update) (domain.Vendor, error)
	FindInStates(ctx context.Context, states []domain.VerificationStatus) ([]domain.Vendor, error)
	FindCompletedSince(ctx context.Context, since time.Time) ([]domain.Vendor, error)
}

// Update is a partial-update command over the workflow-owned fields. Nil
// pointers leave the field untouched; the Clear flags distinguish "set to
// null" from "leave alone" for the nullable deadlines.
type Update struct {
	Status *domain.VerificationStatus

	SubmittedAt *time.Time
	ReviewedAt  *time.Time
	CompletedAt *time.Time
	ExpiresAt   *time.Time

	NextReviewDate      *time.Time
	ClearNextReviewDate bool

	Priority        *domain.Priority
	EscalationLevel *int
	Notes           *string
	ReviewerID      *string
	IsActive        *bool

	QualityScore            *int
	LastPerformanceReviewAt *time.Time
}

// apply mutates v in place. Both store implementations funnel through this so
// field semantics cannot drift between them.
func (u Update) apply(v *domain.Vendor) {
	if u.Status != nil {
		v.Status = *u.Status
	}
	if u.SubmittedAt != nil {
		v.SubmittedAt = u.SubmittedAt
	}
	if u.ReviewedAt != nil {
		v.ReviewedAt = u.ReviewedAt
	}
	if u.CompletedAt != nil {
		v.CompletedAt = u.CompletedAt
	}
	if u.ExpiresAt != nil {
		v.ExpiresAt = u.ExpiresAt
	}
	if u.ClearNextReviewDate {
		v.NextReviewDate = nil
	} else if u.NextReviewDate != nil {
		v.NextReviewDate = u.NextReviewDate
	}
	if u.Priority != nil {
		v.Priority = *u.Priority
	}
	if u.EscalationLevel != nil {
		v.EscalationLevel = *u.EscalationLevel
	}
	if u.Notes != nil {
		v.Notes = *u.Notes
	}
	if u.ReviewerID != nil {
		v.ReviewerID = *u.ReviewerID
	}
	if u.IsActive != nil {
		v.IsActive = *u.IsActive
	}
	if u.QualityScore != nil {
		v.QualityScore = *u.QualityScore
	}
	if u.LastPerformanceReviewAt != nil {
		v.LastPerformanceReviewAt = u.LastPerformanceReviewAt
	}
	v.Version++
}
