// Package report aggregates reconciled invoice records into summary reports.
// Building a report never mutates records; rebuilding over the same input
// produces byte-identical output.
package report

import (
	"sort"
	"time"

	"porecon/internal/domain"
)

// Entry is one non-clean invoice in a summary, with its decoded
// discrepancy set and the worst severity across the set.
type Entry struct {
	Record        domain.InvoiceRecord
	Discrepancies []domain.Discrepancy
	WorstSeverity domain.DiscrepancySeverity
}

// Summary is the aggregate view over a reporting window.
type Summary struct {
	Since        time.Time
	GeneratedAt  time.Time
	Total        int
	CountClean   int
	CountPending int
	CountReview  int
	CountApprove int
	CountReject  int
	// Entries holds every record that is unmatched or has discrepancies,
	// worst severity first, then invoice number.
	Entries []Entry
}

// Builder turns a slice of invoice records into a Summary.
type Builder struct{}

// NewBuilder creates a report Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build aggregates records created since the window start. A record is clean
// when it matched a purchase order and carries no discrepancies; everything
// else appears in Entries grouped blocking-first.
func (b *Builder) Build(records []domain.InvoiceRecord, since, generatedAt time.Time) *Summary {
	s := &Summary{Since: since, GeneratedAt: generatedAt, Total: len(records)}

	for i := range records {
		rec := &records[i]
		switch rec.ApprovalStatus {
		case domain.ApprovalPending:
			s.CountPending++
		case domain.ApprovalNeedsReview:
			s.CountReview++
		case domain.ApprovalApproved:
			s.CountApprove++
		case domain.ApprovalRejected:
			s.CountReject++
		}

		ds, err := rec.DecodeDiscrepancies()
		if err != nil {
			// Undecodable sets are surfaced for review rather than dropped.
			ds = nil
		}
		if rec.MatchedPONumber != nil && len(ds) == 0 && err == nil {
			s.CountClean++
			continue
		}
		s.Entries = append(s.Entries, Entry{
			Record:        *rec,
			Discrepancies: ds,
			WorstSeverity: worstSeverity(rec, ds),
		})
	}

	sort.SliceStable(s.Entries, func(i, j int) bool {
		ri := domain.SeverityRank[s.Entries[i].WorstSeverity]
		rj := domain.SeverityRank[s.Entries[j].WorstSeverity]
		if ri != rj {
			return ri < rj
		}
		return s.Entries[i].Record.InvoiceNumber < s.Entries[j].Record.InvoiceNumber
	})
	return s
}

// worstSeverity treats an unmatched invoice as blocking even when its
// discrepancy set is empty.
func worstSeverity(rec *domain.InvoiceRecord, ds []domain.Discrepancy) domain.DiscrepancySeverity {
	if rec.MatchedPONumber == nil {
		return domain.SeverityBlocking
	}
	worst := domain.SeverityInfo
	for i := range ds {
		if domain.SeverityRank[ds[i].Severity] < domain.SeverityRank[worst] {
			worst = ds[i].Severity
		}
	}
	return worst
}
