package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresSchema is the audit table this store expects; applied by the
// deployment's migration tooling.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS workflow_audit_events (
    id          TEXT PRIMARY KEY,
    ts          TIMESTAMPTZ NOT NULL,
    vendor_id   TEXT NOT NULL,
    action      TEXT NOT NULL,
    from_status TEXT NOT NULL DEFAULT '',
    to_status   TEXT NOT NULL DEFAULT '',
    actor_id    TEXT NOT NULL DEFAULT '',
    reason      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS workflow_audit_vendor_idx ON workflow_audit_events (vendor_id, ts);
`

// PostgresStore persists the audit trail via database/sql (lib/pq driver,
// registered in main).
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_audit_events (id, ts, vendor_id, action, from_status, to_status, actor_id, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.Timestamp, event.VendorID, event.Action,
		event.From, event.To, event.ActorID, event.Reason,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByVendor(ctx context.Context, vendorID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, vendor_id, action, from_status, to_status, actor_id, reason
		FROM workflow_audit_events
		WHERE vendor_id = $1
		ORDER BY ts`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.VendorID, &e.Action, &e.From, &e.To, &e.ActorID, &e.Reason); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
