// Package approval defines the state machine for invoice record lifecycles.
//
// Valid status graph:
//
//	pending ──────► approved (automatic or approver)
//	    │
//	    └─────────► rejected (approver only)
//	needs_review ─► approved (approver only, explicit override)
//	    │
//	    └─────────► rejected (approver only)
//
// approved and rejected are terminal states.
package approval

import (
	"fmt"

	"porecon/internal/domain"
)

// validTransitions lists every allowed (from, to) pair.
var validTransitions = map[domain.ApprovalStatus][]domain.ApprovalStatus{
	domain.ApprovalPending:     {domain.ApprovalApproved, domain.ApprovalRejected},
	domain.ApprovalNeedsReview: {domain.ApprovalApproved, domain.ApprovalRejected},
	// approved and rejected are terminal, no outgoing transitions
}

// ParseStatus converts a raw string to an ApprovalStatus, returning an error
// for unknown values.
func ParseStatus(s string) (domain.ApprovalStatus, error) {
	st := domain.ApprovalStatus(s)
	switch st {
	case domain.ApprovalPending, domain.ApprovalNeedsReview, domain.ApprovalApproved, domain.ApprovalRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown approval status %q", s)
}

// IsTerminal reports whether the status accepts no further transitions.
func IsTerminal(s domain.ApprovalStatus) bool {
	_, ok := validTransitions[s]
	return !ok
}

// IsTransitionAllowed returns true when moving from one status to another is permitted by the
// state graph, regardless of who requests it.
func IsTransitionAllowed(from, to domain.ApprovalStatus) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false // terminal state
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Initial computes the state an invoice record starts in: pending when a PO
// was matched and nothing blocks, needs_review otherwise.
func Initial(matched bool, hasBlocking bool) domain.ApprovalStatus {
	if matched && !hasBlocking {
		return domain.ApprovalPending
	}
	return domain.ApprovalNeedsReview
}

// Authorize validates a requested transition including actor rules. Automatic
// transitions (decidedBy == domain.SystemActor) may only advance pending to
// approved; any transition out of needs_review requires a human approver, and
// approving out of needs_review additionally requires an explicit override.
// Returns domain.ErrInvalidTransition wrapped with the offending pair.
func Authorize(from, to domain.ApprovalStatus, decidedBy string, override bool) error {
	if !IsTransitionAllowed(from, to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}
	if decidedBy == domain.SystemActor {
		if from != domain.ApprovalPending || to != domain.ApprovalApproved {
			return fmt.Errorf("%w: %s -> %s not permitted automatically", domain.ErrInvalidTransition, from, to)
		}
		return nil
	}
	if from == domain.ApprovalNeedsReview && to == domain.ApprovalApproved && !override {
		return fmt.Errorf("%w: needs_review -> approved requires explicit override", domain.ErrInvalidTransition)
	}
	return nil
}
