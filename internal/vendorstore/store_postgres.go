package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vendorflow/internal/domain"
	"vendorflow/pkg/sentinel"
)

// Schema is the vendor table this store expects. Deployments apply it via
// their migration tooling; the integration suite applies it directly.
const Schema = `
CREATE TABLE IF NOT EXISTS vendors (
    id                         TEXT PRIMARY KEY,
    version                    BIGINT NOT NULL DEFAULT 0,
    status                     TEXT NOT NULL DEFAULT 'draft',
    category                   TEXT NOT NULL DEFAULT '',
    business_form              TEXT NOT NULL DEFAULT '',
    city                       TEXT NOT NULL DEFAULT '',
    profile_complete           BOOLEAN NOT NULL DEFAULT FALSE,
    documents_complete         BOOLEAN NOT NULL DEFAULT FALSE,
    website                    TEXT NOT NULL DEFAULT '',
    social_profiles            TEXT[] NOT NULL DEFAULT '{}',
    submitted_at               TIMESTAMPTZ,
    reviewed_at                TIMESTAMPTZ,
    completed_at               TIMESTAMPTZ,
    expires_at                 TIMESTAMPTZ,
    next_review_date           TIMESTAMPTZ,
    priority                   TEXT NOT NULL DEFAULT 'normal',
    escalation_level           INT NOT NULL DEFAULT 0,
    notes                      TEXT NOT NULL DEFAULT '',
    reviewer_id                TEXT NOT NULL DEFAULT '',
    is_active                  BOOLEAN NOT NULL DEFAULT FALSE,
    quality_score              INT NOT NULL DEFAULT 0,
    last_performance_review_at TIMESTAMPTZ,
    total_orders               BIGINT NOT NULL DEFAULT 0,
    total_revenue              DOUBLE PRECISION NOT NULL DEFAULT 0,
    satisfaction_rating        DOUBLE PRECISION NOT NULL DEFAULT 0,
    fulfillment_rate           DOUBLE PRECISION NOT NULL DEFAULT 0,
    return_rate                DOUBLE PRECISION NOT NULL DEFAULT 0,
    response_time_hours        DOUBLE PRECISION NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS vendors_status_idx ON vendors (status);
CREATE INDEX IF NOT EXISTS vendors_next_review_idx ON vendors (next_review_date) WHERE next_review_date IS NOT NULL;
`

const vendorColumns = `id, version, status, category, business_form, city,
	profile_complete, documents_complete, website, social_profiles,
	submitted_at, reviewed_at, completed_at, expires_at, next_review_date,
	priority, escalation_level, notes, reviewer_id, is_active,
	quality_score, last_performance_review_at,
	total_orders, total_revenue, satisfaction_rating, fulfillment_rate,
	return_rate, response_time_hours`

// PostgresStore persists vendor records in PostgreSQL. Updates run as a
// SELECT ... FOR UPDATE read-modify-write so concurrent transitions on one
// vendor serialize, and a stale version surfaces as ErrVersionConflict.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create inserts a record. Production profile creation belongs to the
// marketplace collaborator; the integration suite uses this directly.
func (s *PostgresStore) Create(ctx context.Context, v domain.Vendor) error {
	if v.Status == "" {
		v.Status = domain.StatusDraft
	}
	if v.Priority == "" {
		v.Priority = domain.PriorityNormal
	}
	if v.SocialProfiles == nil {
		v.SocialProfiles = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO vendors (`+vendorColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28)`,
		v.ID, v.Version, v.Status, v.Category, v.BusinessForm, v.City,
		v.ProfileComplete, v.DocumentsComplete, v.Website, v.SocialProfiles,
		v.SubmittedAt, v.ReviewedAt, v.CompletedAt, v.ExpiresAt, v.NextReviewDate,
		v.Priority, v.EscalationLevel, v.Notes, v.ReviewerID, v.IsActive,
		v.QualityScore, v.LastPerformanceReviewAt,
		v.Metrics.TotalOrders, v.Metrics.TotalRevenue, v.Metrics.SatisfactionRating,
		v.Metrics.FulfillmentRate, v.Metrics.ReturnRate, v.Metrics.ResponseTimeHours,
	)
	if err != nil {
		return fmt.Errorf("insert vendor: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, id string) (domain.Vendor, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE id = $1`, id)
	v, err := scanVendor(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Vendor{}, sentinel.ErrNotFound
		}
		return domain.Vendor{}, fmt.Errorf("load vendor: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, expectedVersion int64, upd Update) (domain.Vendor, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Vendor{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE id = $1 FOR UPDATE`, id)
	v, err := scanVendor(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Vendor{}, sentinel.ErrNotFound
		}
		return domain.Vendor{}, fmt.Errorf("lock vendor: %w", err)
	}
	if v.Version != expectedVersion {
		return domain.Vendor{}, sentinel.ErrVersionConflict
	}

	upd.apply(&v)

	_, err = tx.Exec(ctx, `
		UPDATE vendors SET
			version = $2, status = $3,
			submitted_at = $4, reviewed_at = $5, completed_at = $6, expires_at = $7,
			next_review_date = $8, priority = $9, escalation_level = $10,
			notes = $11, reviewer_id = $12, is_active = $13,
			quality_score = $14, last_performance_review_at = $15
		WHERE id = $1`,
		v.ID, v.Version, v.Status,
		v.SubmittedAt, v.ReviewedAt, v.CompletedAt, v.ExpiresAt,
		v.NextReviewDate, v.Priority, v.EscalationLevel,
		v.Notes, v.ReviewerID, v.IsActive,
		v.QualityScore, v.LastPerformanceReviewAt,
	)
	if err != nil {
		return domain.Vendor{}, fmt.Errorf("update vendor: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Vendor{}, fmt.Errorf("commit update: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) FindInStates(ctx context.Context, states []domain.VerificationStatus) ([]domain.Vendor, error) {
	wanted := make([]string, 0, len(states))
	for _, st := range states {
		wanted = append(wanted, string(st))
	}
	rows, err := s.pool.Query(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE status = ANY($1)`, wanted)
	if err != nil {
		return nil, fmt.Errorf("find vendors in states: %w", err)
	}
	defer rows.Close()
	return collectVendors(rows)
}

func (s *PostgresStore) FindCompletedSince(ctx context.Context, since time.Time) ([]domain.Vendor, error) {
	// Rejected vendors may lack a completion timestamp; the review timestamp
	// stands in, matching the processing-time metric.
	rows, err := s.pool.Query(ctx, `
		SELECT `+vendorColumns+` FROM vendors
		WHERE status IN ('verified','rejected')
		  AND COALESCE(completed_at, reviewed_at) >= $1`, since)
	if err != nil {
		return nil, fmt.Errorf("find completed vendors: %w", err)
	}
	defer rows.Close()
	return collectVendors(rows)
}

func collectVendors(rows pgx.Rows) ([]domain.Vendor, error) {
	var out []domain.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanVendor(row pgx.Row) (domain.Vendor, error) {
	var v domain.Vendor
	err := row.Scan(
		&v.ID, &v.Version, &v.Status, &v.Category, &v.BusinessForm, &v.City,
		&v.ProfileComplete, &v.DocumentsComplete, &v.Website, &v.SocialProfiles,
		&v.SubmittedAt, &v.ReviewedAt, &v.CompletedAt, &v.ExpiresAt, &v.NextReviewDate,
		&v.Priority, &v.EscalationLevel, &v.Notes, &v.ReviewerID, &v.IsActive,
		&v.QualityScore, &v.LastPerformanceReviewAt,
		&v.Metrics.TotalOrders, &v.Metrics.TotalRevenue, &v.Metrics.SatisfactionRating,
		&v.Metrics.FulfillmentRate, &v.Metrics.ReturnRate, &v.Metrics.ResponseTimeHours,
	)
	return v, err
}
