package domain

// POStatus is the lifecycle status of a purchase order.
type POStatus string

const (
	POStatusDraft    POStatus = "draft"
	POStatusApproved POStatus = "approved"
	POStatusClosed   POStatus = "closed"
)

// ValidPOStatuses maps accepted purchase order status strings.
var ValidPOStatuses = map[POStatus]bool{
	POStatusDraft:    true,
	POStatusApproved: true,
	POStatusClosed:   true,
}

// ApprovalStatus is the lifecycle status of an invoice record.
type ApprovalStatus string

const (
	ApprovalPending     ApprovalStatus = "pending"
	ApprovalNeedsReview ApprovalStatus = "needs_review"
	ApprovalApproved    ApprovalStatus = "approved"
	ApprovalRejected    ApprovalStatus = "rejected"
)

// DiscrepancyKind classifies how an invoice field diverged from the PO.
type DiscrepancyKind string

const (
	KindMissing        DiscrepancyKind = "missing"
	KindMismatch       DiscrepancyKind = "mismatch"
	KindOutOfTolerance DiscrepancyKind = "out_of_tolerance"
)

// DiscrepancySeverity ranks how strongly a discrepancy blocks auto-approval.
type DiscrepancySeverity string

const (
	SeverityInfo     DiscrepancySeverity = "info"
	SeverityWarning  DiscrepancySeverity = "warning"
	SeverityBlocking DiscrepancySeverity = "blocking"
)

// SeverityRank orders severities for report grouping, blocking first.
var SeverityRank = map[DiscrepancySeverity]int{
	SeverityBlocking: 0,
	SeverityWarning:  1,
	SeverityInfo:     2,
}

// SystemActor is recorded as decided_by on automatic transitions.
const SystemActor = "system"
