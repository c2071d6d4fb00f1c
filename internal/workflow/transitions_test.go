package workflow

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"vendorflow/internal/domain"
	dErrors "vendorflow/pkg/domainerrors"
)

type TransitionTableSuite struct {
	suite.Suite
}

func TestTransitionTableSuite(t *testing.T) {
	suite.Run(t, new(TransitionTableSuite))
}

// legal mirrors the transition table independently so a table edit must be
// made twice, deliberately.
var legal = map[Operation]map[domain.VerificationStatus]domain.VerificationStatus{
	OpSubmit: {
		domain.StatusDraft: domain.StatusSubmitted,
	},
	OpStartReview: {
		domain.StatusSubmitted: domain.StatusUnderReview,
	},
	OpApprove: {
		domain.StatusUnderReview:           domain.StatusVerified,
		domain.StatusRequiresClarification: domain.StatusVerified,
	},
	OpReject: {
		domain.StatusUnderReview:           domain.StatusRejected,
		domain.StatusRequiresClarification: domain.StatusRejected,
	},
	OpRequestClarification: {
		domain.StatusUnderReview: domain.StatusRequiresClarification,
	},
	OpSuspend: {
		domain.StatusDraft:                 domain.StatusSuspended,
		domain.StatusSubmitted:             domain.StatusSuspended,
		domain.StatusUnderReview:           domain.StatusSuspended,
		domain.StatusPendingDocuments:      domain.StatusSuspended,
		domain.StatusRequiresClarification: domain.StatusSuspended,
	},
}

// TestClosure walks the full operation x status grid: every legal pair
// resolves to its target, every illegal pair fails with a coded error.
func (s *TransitionTableSuite) TestClosure() {
	for _, op := range Operations {
		for _, status := range domain.AllStatuses {
			to, err := resolve(op, status)

			if want, ok := legal[op][status]; ok {
				s.NoError(err, "%s from %s should be legal", op, status)
				s.Equal(want, to, "%s from %s", op, status)
				continue
			}

			s.Error(err, "%s from %s should be illegal", op, status)
			if op == OpSuspend && status == domain.StatusSuspended {
				s.True(dErrors.HasCode(err, dErrors.CodeConflict),
					"double suspension is a conflict, got %v", err)
			} else {
				s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition),
					"%s from %s, got %v", op, status, err)
			}
		}
	}
}

func (s *TransitionTableSuite) TestErrorsNameTheState() {
	_, err := resolve(OpApprove, domain.StatusDraft)
	s.Require().Error(err)
	s.Contains(err.Error(), "draft")
	s.Contains(err.Error(), "approve")
}

func (s *TransitionTableSuite) TestUnknownOperation() {
	_, err := resolve(Operation("vaporize"), domain.StatusDraft)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}
