// Package extract turns raw attachment text into a structured invoice draft
// using ordered pattern rules. Extraction is pure: the same text always
// produces the same draft, and a field that no rule matches is recorded
// absent rather than failing the run.
package extract

import (
	"strings"

	"porecon/internal/domain"
)

// Hint carries weak signals from the attachment's envelope (filename,
// email subject, sender) used only when the text itself yields nothing.
type Hint struct {
	Filename string
	Subject  string
	Sender   string
}

// Extractor applies the field rule tables to raw text.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// LooksLikeInvoice applies the keyword heuristic used to decide whether an
// attachment is worth extracting at all. Three keyword hits, or two hits
// including a strong keyword, or an "invoice #" plus a numeric total.
func LooksLikeInvoice(text string) bool {
	lower := strings.ToLower(text)
	hits := 0
	for _, kw := range invoiceKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	if hits >= 3 {
		return true
	}
	if hits >= 2 {
		for _, strong := range []string{"invoice number", "purchase order", "total amount"} {
			if strings.Contains(lower, strong) {
				return true
			}
		}
	}
	return invoiceHashPattern.MatchString(lower) && totalDigitsPattern.MatchString(lower)
}

// Extract produces an InvoiceDraft from raw text. Partial drafts are valid:
// every field the rules cannot resolve is simply marked absent in Found.
func (e *Extractor) Extract(text string, sourceRef string, hint *Hint) *domain.InvoiceDraft {
	draft := &domain.InvoiceDraft{
		SourceReference: sourceRef,
		Found:           make(map[domain.Field]bool),
	}

	if v, ok := firstMatch(poReferenceRules, text); ok {
		draft.POReference = strings.ToUpper(strings.TrimSpace(v))
		draft.Found[domain.FieldPOReference] = true
	}
	if v, ok := firstMatch(invoiceNumberRules, text); ok {
		draft.InvoiceNumber = strings.TrimSpace(v)
		draft.Found[domain.FieldInvoiceNo] = true
	}

	e.extractAmounts(draft, text)
	e.extractDates(draft, text)
	e.extractVendor(draft, text, hint)
	e.extractCurrency(draft, text)
	e.extractLineItems(draft, text)

	return draft
}

// extractAmounts resolves total, subtotal and tax. A textual match that fails
// numeric parsing is treated as absent, not as an error.
func (e *Extractor) extractAmounts(draft *domain.InvoiceDraft, text string) {
	if raw, ok := firstMatch(totalAmountRules, text); ok {
		if v, ok := parseAmount(raw); ok {
			draft.TotalAmount = v
			draft.Found[domain.FieldTotalAmount] = true
		}
	}
	if raw, ok := firstMatch(subtotalRules, text); ok {
		if v, ok := parseAmount(raw); ok {
			draft.Subtotal = v
			draft.Found[domain.FieldSubtotal] = true
		}
	}
	if raw, ok := firstMatch(taxAmountRules, text); ok {
		if v, ok := parseAmount(raw); ok {
			draft.TaxAmount = v
			draft.Found[domain.FieldTaxAmount] = true
		}
	}
}

func (e *Extractor) extractDates(draft *domain.InvoiceDraft, text string) {
	if raw, ok := firstMatch(invoiceDateRules, text); ok {
		if t, ok := parseDate(raw); ok {
			draft.InvoiceDate = t
			draft.Found[domain.FieldInvoiceDate] = true
		}
	}
	if raw, ok := firstMatch(dueDateRules, text); ok {
		if t, ok := parseDate(raw); ok {
			draft.DueDate = t
			draft.Found[domain.FieldDueDate] = true
		}
	}
}

// extractVendor tries the in-text rules first, then falls back to deriving a
// vendor from the sender address local part.
func (e *Extractor) extractVendor(draft *domain.InvoiceDraft, text string, hint *Hint) {
	if raw, ok := firstMatch(vendorNameRules, text); ok {
		name := strings.TrimSpace(raw)
		if name != "" {
			draft.VendorName = name
			draft.Found[domain.FieldVendorName] = true
			return
		}
	}
	if hint != nil && hint.Sender != "" {
		if at := strings.IndexByte(hint.Sender, '@'); at > 0 {
			local := hint.Sender[:at]
			if lt := strings.LastIndexByte(local, '<'); lt >= 0 {
				local = local[lt+1:]
			}
			local = strings.TrimSpace(strings.ReplaceAll(local, ".", " "))
			if local != "" {
				draft.VendorName = titleWords(local)
				draft.Found[domain.FieldVendorName] = true
			}
		}
	}
}

func (e *Extractor) extractCurrency(draft *domain.InvoiceDraft, text string) {
	if v, ok := firstMatch(currencyRules, text); ok {
		draft.Currency = strings.ToUpper(v)
		draft.Found[domain.FieldCurrency] = true
		return
	}
	for _, cs := range currencySymbols {
		if strings.Contains(text, cs.symbol) {
			draft.Currency = cs.code
			draft.Found[domain.FieldCurrency] = true
			return
		}
	}
}

// extractLineItems scans line by line. A line that matches a pattern but
// fails numeric parsing is skipped; one bad line never aborts the rest.
func (e *Extractor) extractLineItems(draft *domain.InvoiceDraft, text string) {
	for _, line := range strings.Split(text, "\n") {
		for _, pat := range lineItemPatterns {
			m := pat.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			qty, qok := parseAmount(m[2])
			price, pok := parseAmount(m[3])
			if !qok || !pok {
				break
			}
			name := strings.TrimSpace(m[1])
			if name == "" || looksLikeSummaryRow(name) {
				break
			}
			draft.LineItems = append(draft.LineItems, domain.LineItem{
				ItemName:  name,
				Quantity:  qty,
				UnitPrice: price,
			})
			break
		}
	}
	if len(draft.LineItems) > 0 {
		draft.Found[domain.FieldLineItems] = true
	}
}

// looksLikeSummaryRow excludes totals rows that happen to match the tabular
// line item pattern.
func looksLikeSummaryRow(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range []string{"total", "subtotal", "tax", "vat", "gst", "balance", "amount due"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// titleWords upper-cases the first letter of each space-separated word.
func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// firstMatch tries each rule in order and returns the first capture.
func firstMatch(rules []rule, text string) (string, bool) {
	for i := range rules {
		if v, ok := rules[i].match(text); ok {
			return v, true
		}
	}
	return "", false
}
