package workflow

import (
	"time"

	"vendorflow/internal/domain"
	"vendorflow/internal/scoring"
)

// TransitionResult is returned to the caller after a successful transition.
type TransitionResult struct {
	VendorID    string                    `json:"vendor_id"`
	Success     bool                      `json:"success"`
	From        domain.VerificationStatus `json:"from_status"`
	To          domain.VerificationStatus `json:"to_status"`
	Timestamp   time.Time                 `json:"timestamp"`
	Message     string                    `json:"message"`
	NextActions []string                  `json:"next_actions,omitempty"`
	SLADeadline *time.Time                `json:"sla_deadline,omitempty"`
}

// PerformanceReview is the outcome of an on-demand quality recomputation.
type PerformanceReview struct {
	VendorID         string                    `json:"vendor_id"`
	QualityScore     int                       `json:"quality_score"`
	Grade            string                    `json:"grade"`
	ImprovementAreas []scoring.ImprovementArea `json:"improvement_areas,omitempty"`
	ReviewedAt       time.Time                 `json:"reviewed_at"`
}
