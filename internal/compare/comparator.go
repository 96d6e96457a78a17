// Package compare computes the field-level discrepancy set between an
// invoice draft and its matched purchase order. Comparison is a pure
// function of (draft, PO, policy): the full set is recomputed on every run
// and never patched incrementally.
package compare

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	"porecon/internal/domain"
)

// Policy holds the tolerance thresholds. Values are configuration, loaded
// from the compare section of the service config.
type Policy struct {
	// AmountTolerance is the allowed relative deviation on amounts (0.01 = 1%).
	AmountTolerance float64
	// BlockingFactor escalates an out-of-tolerance amount to blocking when the
	// relative deviation exceeds AmountTolerance * BlockingFactor.
	BlockingFactor float64
	// VendorSimilarity is the minimum normalized-name similarity (0..1)
	// below which vendor names are flagged as mismatched.
	VendorSimilarity float64
}

// DefaultPolicy returns the default thresholds. BlockingFactor 1 means any
// out-of-tolerance total blocks; raising it introduces a warning band for
// small overages (e.g. 10 blocks only totals more than 10x past tolerance).
func DefaultPolicy() Policy {
	return Policy{
		AmountTolerance:  0.01,
		BlockingFactor:   1,
		VendorSimilarity: 0.85,
	}
}

// Comparator applies a Policy to (draft, PO) pairs.
type Comparator struct {
	policy Policy
}

// New creates a Comparator with the given policy.
func New(policy Policy) *Comparator {
	return &Comparator{policy: policy}
}

// Compare evaluates every rule independently and returns the discrepancy
// set, ordered blocking-first then by field name so repeated runs are
// byte-for-byte reproducible. An empty result means the invoice is clean.
func (c *Comparator) Compare(draft *domain.InvoiceDraft, po *domain.PurchaseOrder) []domain.Discrepancy {
	var out []domain.Discrepancy

	out = append(out, c.compareVendor(draft, po)...)

	totalBlocking := false
	totalDiscs := c.compareTotal(draft, po)
	for i := range totalDiscs {
		if totalDiscs[i].Severity == domain.SeverityBlocking {
			totalBlocking = true
		}
	}
	out = append(out, totalDiscs...)
	out = append(out, c.compareLineItems(draft, po, totalBlocking)...)

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := domain.SeverityRank[out[i].Severity], domain.SeverityRank[out[j].Severity]
		if ri != rj {
			return ri < rj
		}
		return out[i].FieldName < out[j].FieldName
	})
	return out
}

func (c *Comparator) compareVendor(draft *domain.InvoiceDraft, po *domain.PurchaseOrder) []domain.Discrepancy {
	if !draft.Has(domain.FieldVendorName) {
		return []domain.Discrepancy{{
			FieldName:     "vendor_name",
			ExpectedValue: po.VendorName,
			ActualValue:   "",
			Kind:          domain.KindMissing,
			Severity:      domain.SeverityBlocking,
		}}
	}
	if NameSimilarity(draft.VendorName, po.VendorName) < c.policy.VendorSimilarity {
		return []domain.Discrepancy{{
			FieldName:     "vendor_name",
			ExpectedValue: po.VendorName,
			ActualValue:   draft.VendorName,
			Kind:          domain.KindMismatch,
			Severity:      domain.SeverityWarning,
		}}
	}
	return nil
}

func (c *Comparator) compareTotal(draft *domain.InvoiceDraft, po *domain.PurchaseOrder) []domain.Discrepancy {
	if !draft.Has(domain.FieldTotalAmount) {
		return []domain.Discrepancy{{
			FieldName:     "total_amount",
			ExpectedValue: fmtAmount(po.TotalAmount),
			ActualValue:   "",
			Kind:          domain.KindMissing,
			Severity:      domain.SeverityBlocking,
		}}
	}
	rel := RelativeDiff(draft.TotalAmount, po.TotalAmount)
	if rel <= c.policy.AmountTolerance {
		return nil
	}
	severity := domain.SeverityWarning
	if rel > c.policy.AmountTolerance*c.policy.BlockingFactor {
		severity = domain.SeverityBlocking
	}
	return []domain.Discrepancy{{
		FieldName:     "total_amount",
		ExpectedValue: fmtAmount(po.TotalAmount),
		ActualValue:   fmtAmount(draft.TotalAmount),
		Kind:          domain.KindOutOfTolerance,
		Severity:      severity,
	}}
}

// compareLineItems matches invoice line items to PO line items by normalized
// item name. Invoice items with no PO counterpart are missing on the PO side;
// quantity and unit price deviations beyond tolerance are mismatches, escalated
// to blocking when the total amount discrepancy is itself blocking.
func (c *Comparator) compareLineItems(draft *domain.InvoiceDraft, po *domain.PurchaseOrder, totalBlocking bool) []domain.Discrepancy {
	if !draft.Has(domain.FieldLineItems) {
		return nil
	}

	poByName := make(map[string]*domain.LineItem, len(po.LineItems))
	for i := range po.LineItems {
		poByName[NormalizeName(po.LineItems[i].ItemName)] = &po.LineItems[i]
	}

	mismatchSeverity := domain.SeverityWarning
	if totalBlocking {
		mismatchSeverity = domain.SeverityBlocking
	}

	var out []domain.Discrepancy
	for i := range draft.LineItems {
		item := &draft.LineItems[i]
		poItem, ok := poByName[NormalizeName(item.ItemName)]
		if !ok {
			out = append(out, domain.Discrepancy{
				FieldName:     fmt.Sprintf("line_items[%d].item_name", i),
				ExpectedValue: "",
				ActualValue:   item.ItemName,
				Kind:          domain.KindMissing,
				Severity:      domain.SeverityWarning,
			})
			continue
		}
		if RelativeDiff(item.Quantity, poItem.Quantity) > c.policy.AmountTolerance {
			out = append(out, domain.Discrepancy{
				FieldName:     fmt.Sprintf("line_items[%d].quantity", i),
				ExpectedValue: fmtAmount(poItem.Quantity),
				ActualValue:   fmtAmount(item.Quantity),
				Kind:          domain.KindMismatch,
				Severity:      mismatchSeverity,
			})
		}
		if RelativeDiff(item.UnitPrice, poItem.UnitPrice) > c.policy.AmountTolerance {
			out = append(out, domain.Discrepancy{
				FieldName:     fmt.Sprintf("line_items[%d].unit_price", i),
				ExpectedValue: fmtAmount(poItem.UnitPrice),
				ActualValue:   fmtAmount(item.UnitPrice),
				Kind:          domain.KindMismatch,
				Severity:      mismatchSeverity,
			})
		}
	}
	return out
}

// HasBlocking reports whether any discrepancy in the set is blocking.
func HasBlocking(ds []domain.Discrepancy) bool {
	for i := range ds {
		if ds[i].Severity == domain.SeverityBlocking {
			return true
		}
	}
	return false
}

// RelativeDiff returns |a-b| / |b|, or 0 when both are zero. A zero baseline
// with a nonzero value is treated as fully divergent.
func RelativeDiff(a, b float64) float64 {
	if b == 0 {
		if a == 0 {
			return 0
		}
		return 1
	}
	d := a - b
	if d < 0 {
		d = -d
	}
	if b < 0 {
		b = -b
	}
	return d / b
}

// NormalizeName lower-cases, collapses whitespace and strips trailing legal
// suffixes so "ABC Supplies Inc." and "abc  supplies" compare equal.
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), " ")
	for _, suffix := range []string{" inc.", " inc", " llc", " ltd.", " ltd", " corp.", " corp"} {
		s = strings.TrimSuffix(s, suffix)
	}
	return strings.TrimRight(s, " .,")
}

// NameSimilarity returns the levenshtein similarity of two normalized names.
func NameSimilarity(a, b string) float64 {
	return levenshtein.Similarity(NormalizeName(a), NormalizeName(b), levenshtein.NewParams())
}

func fmtAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
