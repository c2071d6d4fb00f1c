package audit

import (
	"context"
	"time"

	"vendorflow/internal/domain"
)

// Event records one workflow transition for the audit trail and the
// notification sink. It stays transport-agnostic so stores and sinks can fan
// out.
type Event struct {
	ID        string                    `json:"id"`
	Timestamp time.Time                 `json:"timestamp"`
	VendorID  string                    `json:"vendor_id"`
	Action    string                    `json:"action"`
	From      domain.VerificationStatus `json:"from_status,omitempty"`
	To        domain.VerificationStatus `json:"to_status,omitempty"`
	ActorID   string                    `json:"actor_id,omitempty"`
	Reason    string                    `json:"reason,omitempty"`
}

// Store persists audit events, append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByVendor(ctx context.Context, vendorID string) ([]Event, error)
}

// Sink receives events for external notification fan-out. Delivery is
// best-effort; the workflow result never depends on it.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}
