package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"porecon/internal/domain"
)

func TestInitial(t *testing.T) {
	assert.Equal(t, domain.ApprovalPending, Initial(true, false))
	assert.Equal(t, domain.ApprovalNeedsReview, Initial(true, true))
	assert.Equal(t, domain.ApprovalNeedsReview, Initial(false, false))
	assert.Equal(t, domain.ApprovalNeedsReview, Initial(false, true))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(domain.ApprovalPending))
	assert.False(t, IsTerminal(domain.ApprovalNeedsReview))
	assert.True(t, IsTerminal(domain.ApprovalApproved))
	assert.True(t, IsTerminal(domain.ApprovalRejected))
}

func TestIsTransitionAllowed(t *testing.T) {
	tests := []struct {
		from, to domain.ApprovalStatus
		want     bool
	}{
		{domain.ApprovalPending, domain.ApprovalApproved, true},
		{domain.ApprovalPending, domain.ApprovalRejected, true},
		{domain.ApprovalNeedsReview, domain.ApprovalApproved, true},
		{domain.ApprovalNeedsReview, domain.ApprovalRejected, true},
		{domain.ApprovalPending, domain.ApprovalNeedsReview, false},
		{domain.ApprovalApproved, domain.ApprovalRejected, false},
		{domain.ApprovalApproved, domain.ApprovalPending, false},
		{domain.ApprovalRejected, domain.ApprovalApproved, false},
		{domain.ApprovalRejected, domain.ApprovalRejected, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTransitionAllowed(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestAuthorize_TerminalStateRejectsEverything(t *testing.T) {
	for _, from := range []domain.ApprovalStatus{domain.ApprovalApproved, domain.ApprovalRejected} {
		for _, to := range []domain.ApprovalStatus{domain.ApprovalPending, domain.ApprovalNeedsReview, domain.ApprovalApproved, domain.ApprovalRejected} {
			err := Authorize(from, to, "alice", true)
			assert.ErrorIs(t, err, domain.ErrInvalidTransition, "%s -> %s", from, to)
		}
	}
}

func TestAuthorize_SystemActor(t *testing.T) {
	// Automatic advance is only pending -> approved.
	assert.NoError(t, Authorize(domain.ApprovalPending, domain.ApprovalApproved, domain.SystemActor, false))

	err := Authorize(domain.ApprovalPending, domain.ApprovalRejected, domain.SystemActor, false)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	err = Authorize(domain.ApprovalNeedsReview, domain.ApprovalApproved, domain.SystemActor, true)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestAuthorize_NeedsReviewApprovalRequiresOverride(t *testing.T) {
	err := Authorize(domain.ApprovalNeedsReview, domain.ApprovalApproved, "alice", false)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.NoError(t, Authorize(domain.ApprovalNeedsReview, domain.ApprovalApproved, "alice", true))

	// Rejection needs no override.
	assert.NoError(t, Authorize(domain.ApprovalNeedsReview, domain.ApprovalRejected, "alice", false))
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("needs_review")
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalNeedsReview, st)

	_, err = ParseStatus("escalated")
	assert.Error(t, err)
}
