// Package match resolves an extracted invoice draft to a purchase order.
// An explicit PO reference wins when it resolves; otherwise candidates are
// scored on vendor similarity, amount closeness and issue-date recency, and
// the best candidate is accepted only above a configurable threshold.
package match

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"porecon/internal/compare"
	"porecon/internal/domain"
	"porecon/internal/port"
)

// Weights configures the heuristic scoring. The three weights should sum
// to 1 so Threshold stays comparable across deployments.
type Weights struct {
	Vendor  float64
	Amount  float64
	Recency float64

	// AmountTolerance is the relative deviation inside which the amount
	// component scores 1.0.
	AmountTolerance float64
	// RecencyWindowDays is the issue-date distance at which the recency
	// component decays to zero.
	RecencyWindowDays int
	// Threshold is the minimum accepted composite score.
	Threshold float64
}

// DefaultWeights returns the documented default scoring parameters.
func DefaultWeights() Weights {
	return Weights{
		Vendor:            0.5,
		Amount:            0.35,
		Recency:           0.15,
		AmountTolerance:   0.01,
		RecencyWindowDays: 90,
		Threshold:         0.65,
	}
}

// Result describes a matching outcome. PO is nil when the invoice is
// unmatched. Score is zero for exact reference matches.
type Result struct {
	PO      *domain.PurchaseOrder
	Exact   bool
	Score   float64
	Matched bool
}

// Matcher looks up purchase orders through the repository port.
type Matcher struct {
	pos     port.PurchaseOrderRepository
	weights Weights
}

// New creates a Matcher with the given repository and scoring weights.
func New(pos port.PurchaseOrderRepository, weights Weights) *Matcher {
	return &Matcher{pos: pos, weights: weights}
}

// Match resolves the draft to a purchase order. The exact po_reference
// lookup is tried first; when the reference is absent or unknown the
// matcher falls back to scoring all approved purchase orders. A repository
// failure is returned as an error so the caller can retry the invoice in a
// later cycle rather than record it as unmatched.
func (m *Matcher) Match(ctx context.Context, draft *domain.InvoiceDraft) (Result, error) {
	if draft.Has(domain.FieldPOReference) {
		po, err := m.pos.GetByNumber(ctx, draft.POReference)
		if err == nil {
			return Result{PO: po, Exact: true, Matched: true}, nil
		}
		if !errors.Is(err, domain.ErrPONotFound) {
			return Result{}, fmt.Errorf("matcher.Match: %w", err)
		}
	}
	return m.matchHeuristic(ctx, draft)
}

func (m *Matcher) matchHeuristic(ctx context.Context, draft *domain.InvoiceDraft) (Result, error) {
	candidates, err := m.pos.ListByStatus(ctx, domain.POStatusApproved)
	if err != nil {
		return Result{}, fmt.Errorf("matcher.Match: %w", err)
	}
	if len(candidates) == 0 {
		return Result{}, nil
	}

	type scored struct {
		po    *domain.PurchaseOrder
		score float64
	}
	ranked := make([]scored, 0, len(candidates))
	for i := range candidates {
		ranked = append(ranked, scored{po: &candidates[i], score: m.Score(draft, &candidates[i])})
	}

	// Highest score wins; ties break to the most recent issue date, then
	// to the lexicographically lowest PO number.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if !ranked[i].po.IssueDate.Equal(ranked[j].po.IssueDate) {
			return ranked[i].po.IssueDate.After(ranked[j].po.IssueDate)
		}
		return ranked[i].po.PONumber < ranked[j].po.PONumber
	})

	best := ranked[0]
	if best.score < m.weights.Threshold {
		return Result{}, nil
	}
	return Result{PO: best.po, Score: best.score, Matched: true}, nil
}

// Score computes the weighted composite score of a single candidate.
// Components for absent draft fields contribute zero.
func (m *Matcher) Score(draft *domain.InvoiceDraft, po *domain.PurchaseOrder) float64 {
	var score float64
	if draft.Has(domain.FieldVendorName) {
		score += m.weights.Vendor * compare.NameSimilarity(draft.VendorName, po.VendorName)
	}
	if draft.Has(domain.FieldTotalAmount) {
		score += m.weights.Amount * m.amountCloseness(draft.TotalAmount, po.TotalAmount)
	}
	if draft.Has(domain.FieldInvoiceDate) {
		days := math.Abs(draft.InvoiceDate.Sub(po.IssueDate).Hours() / 24)
		window := float64(m.weights.RecencyWindowDays)
		if window > 0 && days < window {
			score += m.weights.Recency * (1 - days/window)
		}
	}
	return score
}

func (m *Matcher) amountCloseness(invoice, po float64) float64 {
	rel := compare.RelativeDiff(invoice, po)
	if rel <= m.weights.AmountTolerance {
		return 1
	}
	if rel >= 1 {
		return 0
	}
	return 1 - rel
}
