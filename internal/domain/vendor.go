package domain

import "time"

// VerificationStatus is the single source of truth for a vendor's workflow
// position. Exactly nine values are legal; everything else is a data bug.
type VerificationStatus string

const (
	StatusDraft                 VerificationStatus = "draft"
	StatusSubmitted             VerificationStatus = "submitted"
	StatusUnderReview           VerificationStatus = "under_review"
	StatusPendingDocuments      VerificationStatus = "pending_documents"
	StatusRequiresClarification VerificationStatus = "requires_clarification"
	StatusVerified              VerificationStatus = "verified"
	StatusRejected              VerificationStatus = "rejected"
	StatusSuspended             VerificationStatus = "suspended"
	StatusExpired               VerificationStatus = "expired"
)

// AllStatuses enumerates every legal status, in lifecycle order. Tests use it
// to verify transition-table closure.
var AllStatuses = []VerificationStatus{
	StatusDraft,
	StatusSubmitted,
	StatusUnderReview,
	StatusPendingDocuments,
	StatusRequiresClarification,
	StatusVerified,
	StatusRejected,
	StatusSuspended,
	StatusExpired,
}

// TimedStatuses are the states that may carry an active SLA deadline.
// Suspended is timed only when the suspension was given a duration; the
// NextReviewDate field is the authority either way.
var TimedStatuses = []VerificationStatus{
	StatusSubmitted,
	StatusUnderReview,
	StatusPendingDocuments,
	StatusRequiresClarification,
	StatusSuspended,
}

// IsTimed reports whether the status belongs to the timed-state set.
func (s VerificationStatus) IsTimed() bool {
	for _, t := range TimedStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the active review cycle.
// Verified vendors remain subject to expiry, but no engine operation moves
// them anywhere else.
func (s VerificationStatus) IsTerminal() bool {
	return s == StatusVerified || s == StatusRejected || s == StatusExpired
}

// Priority orders review queues. It only moves upward via escalation and is
// reset by a human starting a review.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Escalate returns the next rung on the priority ladder, saturating at
// urgent. Unknown values normalize to normal before climbing.
func (p Priority) Escalate() Priority {
	switch p {
	case PriorityLow:
		return PriorityNormal
	case PriorityNormal:
		return PriorityHigh
	case PriorityHigh, PriorityUrgent:
		return PriorityUrgent
	default:
		return PriorityHigh
	}
}

// BusinessForm is the vendor's legal form of organization.
type BusinessForm string

const (
	BusinessFormSoleProprietor BusinessForm = "sole_proprietor"
	BusinessFormPartnership    BusinessForm = "partnership"
	BusinessFormLLC            BusinessForm = "llc"
	BusinessFormJointStock     BusinessForm = "joint_stock"
)

// PerformanceMetrics is the operational snapshot the quality scorer reads.
// SatisfactionRating is 0-5; FulfillmentRate and ReturnRate are 0-100.
type PerformanceMetrics struct {
	TotalOrders        int64
	TotalRevenue       float64
	SatisfactionRating float64
	FulfillmentRate    float64
	ReturnRate         float64
	ResponseTimeHours  float64
}

// Vendor is the subset of a seller profile the workflow engine reads and
// writes. Non-workflow fields (documents, banking, addresses) belong to the
// profile collaborator and never appear here.
type Vendor struct {
	ID string

	// Version backs the optimistic concurrency check; every successful
	// store update increments it.
	Version int64

	Status       VerificationStatus
	Category     string
	BusinessForm BusinessForm
	City         string

	// Static attributes the initial quality score reads.
	ProfileComplete   bool
	DocumentsComplete bool
	Website           string
	SocialProfiles    []string

	SubmittedAt    *time.Time
	ReviewedAt     *time.Time
	CompletedAt    *time.Time
	ExpiresAt      *time.Time
	NextReviewDate *time.Time

	Priority        Priority
	EscalationLevel int
	Notes           string
	ReviewerID      string
	IsActive        bool

	QualityScore            int
	LastPerformanceReviewAt *time.Time

	Metrics PerformanceMetrics
}
