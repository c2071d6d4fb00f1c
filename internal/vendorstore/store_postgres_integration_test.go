//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vendorflow/internal/domain"
	"vendorflow/internal/vendorstore"
	"vendorflow/pkg/sentinel"
	"vendorflow/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(s.postgres.ApplySchema(context.Background(), store.Schema))
	s.store = store.NewPostgresStore(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "vendors"))
}

func newTestVendor(status domain.VerificationStatus) domain.Vendor {
	return domain.Vendor{
		ID:              uuid.NewString(),
		Status:          status,
		Category:        "electronics",
		BusinessForm:    domain.BusinessFormLLC,
		City:            "tashkent",
		ProfileComplete: true,
		SocialProfiles:  []string{"https://t.me/shop"},
		Priority:        domain.PriorityNormal,
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	v := newTestVendor(domain.StatusDraft)
	v.Metrics = domain.PerformanceMetrics{
		TotalOrders:        150,
		TotalRevenue:       1_250_000,
		SatisfactionRating: 4.4,
		FulfillmentRate:    97.5,
		ReturnRate:         2.1,
		ResponseTimeHours:  6,
	}

	s.Require().NoError(s.store.Create(ctx, v))

	loaded, err := s.store.Load(ctx, v.ID)
	s.Require().NoError(err)
	s.Equal(v.ID, loaded.ID)
	s.Equal(domain.StatusDraft, loaded.Status)
	s.Equal(v.SocialProfiles, loaded.SocialProfiles)
	s.Equal(v.Metrics, loaded.Metrics)
	s.Nil(loaded.SubmittedAt)
}

func (s *PostgresStoreSuite) TestLoadNotFound() {
	_, err := s.store.Load(context.Background(), uuid.NewString())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdate() {
	ctx := context.Background()
	v := newTestVendor(domain.StatusDraft)
	s.Require().NoError(s.store.Create(ctx, v))

	now := time.Now().UTC().Truncate(time.Microsecond)
	deadline := now.Add(24 * time.Hour)
	status := domain.StatusSubmitted
	priority := domain.PriorityHigh

	updated, err := s.store.Update(ctx, v.ID, 0, store.Update{
		Status:         &status,
		SubmittedAt:    &now,
		NextReviewDate: &deadline,
		Priority:       &priority,
	})
	s.Require().NoError(err)
	s.Equal(domain.StatusSubmitted, updated.Status)
	s.EqualValues(1, updated.Version)

	loaded, err := s.store.Load(ctx, v.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusSubmitted, loaded.Status)
	s.Equal(domain.PriorityHigh, loaded.Priority)
	s.Require().NotNil(loaded.SubmittedAt)
	s.WithinDuration(now, *loaded.SubmittedAt, time.Millisecond)
}

func (s *PostgresStoreSuite) TestUpdateStaleVersion() {
	ctx := context.Background()
	v := newTestVendor(domain.StatusDraft)
	s.Require().NoError(s.store.Create(ctx, v))

	status := domain.StatusSubmitted
	_, err := s.store.Update(ctx, v.ID, 0, store.Update{Status: &status})
	s.Require().NoError(err)

	_, err = s.store.Update(ctx, v.ID, 0, store.Update{Status: &status})
	s.ErrorIs(err, sentinel.ErrVersionConflict)
}

// TestConcurrentTransitions verifies that racing writers against one vendor
// serialize on the row lock and exactly one version-0 write wins.
func (s *PostgresStoreSuite) TestConcurrentTransitions() {
	ctx := context.Background()
	v := newTestVendor(domain.StatusDraft)
	s.Require().NoError(s.store.Create(ctx, v))

	const goroutines = 20
	var wg sync.WaitGroup
	var wins, conflicts atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := domain.StatusSubmitted
			_, err := s.store.Update(ctx, v.ID, 0, store.Update{Status: &status})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrVersionConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load(), "exactly one writer should win")
	s.Equal(int32(goroutines-1), conflicts.Load())

	loaded, err := s.store.Load(ctx, v.ID)
	s.Require().NoError(err)
	s.EqualValues(1, loaded.Version)
}

func (s *PostgresStoreSuite) TestFindInStates() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newTestVendor(domain.StatusSubmitted)))
	s.Require().NoError(s.store.Create(ctx, newTestVendor(domain.StatusUnderReview)))
	s.Require().NoError(s.store.Create(ctx, newTestVendor(domain.StatusVerified)))

	found, err := s.store.FindInStates(ctx, []domain.VerificationStatus{
		domain.StatusSubmitted, domain.StatusUnderReview,
	})
	s.Require().NoError(err)
	s.Len(found, 2)
}

func (s *PostgresStoreSuite) TestFindCompletedSince() {
	ctx := context.Background()
	now := time.Now().UTC()
	recent := now.Add(-24 * time.Hour)
	ancient := now.Add(-120 * 24 * time.Hour)

	verified := newTestVendor(domain.StatusVerified)
	verified.CompletedAt = &recent
	s.Require().NoError(s.store.Create(ctx, verified))

	old := newTestVendor(domain.StatusVerified)
	old.CompletedAt = &ancient
	s.Require().NoError(s.store.Create(ctx, old))

	// Rejected without completed_at falls back to reviewed_at.
	rejected := newTestVendor(domain.StatusRejected)
	rejected.ReviewedAt = &recent
	s.Require().NoError(s.store.Create(ctx, rejected))

	found, err := s.store.FindCompletedSince(ctx, now.Add(-90*24*time.Hour))
	s.Require().NoError(err)
	s.Len(found, 2)
}
