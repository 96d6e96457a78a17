package report

import (
	"fmt"
	"strings"

	"porecon/internal/domain"
)

// RenderText formats a Summary as the plain-text body used for the cycle
// report email. The layout is stable so identical summaries render to
// identical bytes.
func RenderText(s *Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Invoice Reconciliation Report\n")
	fmt.Fprintf(&b, "Window start: %s\n", s.Since.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Generated at: %s\n\n", s.GeneratedAt.UTC().Format("2006-01-02 15:04:05 MST"))

	fmt.Fprintf(&b, "Invoices processed: %d\n", s.Total)
	fmt.Fprintf(&b, "  Clean:         %d\n", s.CountClean)
	fmt.Fprintf(&b, "  Pending:       %d\n", s.CountPending)
	fmt.Fprintf(&b, "  Needs review:  %d\n", s.CountReview)
	fmt.Fprintf(&b, "  Approved:      %d\n", s.CountApprove)
	fmt.Fprintf(&b, "  Rejected:      %d\n", s.CountReject)

	if len(s.Entries) == 0 {
		b.WriteString("\nNo invoices require attention.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "\nInvoices requiring attention (%d):\n", len(s.Entries))
	for i := range s.Entries {
		e := &s.Entries[i]
		fmt.Fprintf(&b, "\n[%s] Invoice %s from %s\n",
			strings.ToUpper(string(e.WorstSeverity)), displayInvoiceNumber(&e.Record), e.Record.VendorName)
		if e.Record.MatchedPONumber == nil {
			b.WriteString("  No matching purchase order found\n")
		} else {
			fmt.Fprintf(&b, "  Matched PO: %s\n", *e.Record.MatchedPONumber)
		}
		for j := range e.Discrepancies {
			d := &e.Discrepancies[j]
			fmt.Fprintf(&b, "  - %s (%s/%s): expected %q, got %q\n",
				d.FieldName, d.Kind, d.Severity, d.ExpectedValue, d.ActualValue)
		}
		fmt.Fprintf(&b, "  Status: %s\n", e.Record.ApprovalStatus)
	}
	return b.String()
}

func displayInvoiceNumber(rec *domain.InvoiceRecord) string {
	if rec.InvoiceNumber == "" {
		return "(unknown)"
	}
	return rec.InvoiceNumber
}
