package workflow

import (
	"vendorflow/internal/domain"
	dErrors "vendorflow/pkg/domainerrors"
)

// Operation names a workflow transition request.
type Operation string

const (
	OpSubmit               Operation = "submit"
	OpStartReview          Operation = "start_review"
	OpApprove              Operation = "approve"
	OpReject               Operation = "reject"
	OpRequestClarification Operation = "request_clarification"
	OpSuspend              Operation = "suspend"
)

// Operations enumerates every transition operation; tests use it to verify
// table closure.
var Operations = []Operation{
	OpSubmit,
	OpStartReview,
	OpApprove,
	OpReject,
	OpRequestClarification,
	OpSuspend,
}

// rule is one row of the transition table: the legal source states and the
// single target state.
type rule struct {
	from map[domain.VerificationStatus]bool
	to   domain.VerificationStatus
}

// transitionTable encodes the whole state machine as data. Validity is a
// lookup, never a conditional chain, so closure is mechanically checkable.
var transitionTable = map[Operation]rule{
	OpSubmit: {
		from: statusSet(domain.StatusDraft),
		to:   domain.StatusSubmitted,
	},
	OpStartReview: {
		from: statusSet(domain.StatusSubmitted),
		to:   domain.StatusUnderReview,
	},
	OpApprove: {
		from: statusSet(domain.StatusUnderReview, domain.StatusRequiresClarification),
		to:   domain.StatusVerified,
	},
	OpReject: {
		from: statusSet(domain.StatusUnderReview, domain.StatusRequiresClarification),
		to:   domain.StatusRejected,
	},
	OpRequestClarification: {
		from: statusSet(domain.StatusUnderReview),
		to:   domain.StatusRequiresClarification,
	},
	OpSuspend: {
		from: statusSet(
			domain.StatusDraft,
			domain.StatusSubmitted,
			domain.StatusUnderReview,
			domain.StatusPendingDocuments,
			domain.StatusRequiresClarification,
		),
		to: domain.StatusSuspended,
	},
}

func statusSet(states ...domain.VerificationStatus) map[domain.VerificationStatus]bool {
	set := make(map[domain.VerificationStatus]bool, len(states))
	for _, s := range states {
		set[s] = true
	}
	return set
}

// resolve validates op against the current state and returns the target
// state. Errors always name the offending state; nothing is silently
// corrected. Double-suspension is a conflict, distinct from an invalid
// transition, so callers can render it differently.
func resolve(op Operation, current domain.VerificationStatus) (domain.VerificationStatus, error) {
	r, ok := transitionTable[op]
	if !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidTransition, "unknown operation %q", op)
	}
	if op == OpSuspend && current == domain.StatusSuspended {
		return "", dErrors.New(dErrors.CodeConflict, "vendor is already suspended")
	}
	if !r.from[current] {
		return "", dErrors.Newf(dErrors.CodeInvalidTransition, "cannot %s a vendor in state %q", op, current)
	}
	return r.to, nil
}
