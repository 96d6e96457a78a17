package extract

import "regexp"

// rule is one pattern attempt for a field. Rules for a field are tried in
// order; the first match wins and later rules are never evaluated.
type rule struct {
	name  string
	re    *regexp.Regexp
	group int
}

// match returns the captured group and true when the rule matches.
func (r *rule) match(text string) (string, bool) {
	m := r.re.FindStringSubmatch(text)
	if m == nil || r.group >= len(m) {
		return "", false
	}
	return m[r.group], true
}

var poReferenceRules = []rule{
	{name: "po_hash", re: regexp.MustCompile(`(?i)purchase\s*order\s*#\s*([A-Za-z0-9][-\w]*)`), group: 1},
	{name: "po_label", re: regexp.MustCompile(`(?i)\b(?:po|p\.o\.|purchase\s*order)\b[.:\s#]*([A-Za-z]{0,4}\d[-\w]*)`), group: 1},
	{name: "po_inline", re: regexp.MustCompile(`\b(PO\d{3,})\b`), group: 1},
}

var invoiceNumberRules = []rule{
	{name: "inv_hash", re: regexp.MustCompile(`(?i)invoice\s*#\s*(\w[-\w]*)`), group: 1},
	{name: "inv_label", re: regexp.MustCompile(`(?i)invoice\s*(?:no|number|num)[.:\s]*(\w[-\w]*)`), group: 1},
}

var totalAmountRules = []rule{
	{name: "total_amount", re: regexp.MustCompile(`(?i)total\s*amount\s*[:]?\s*[$€£]?\s*([\d.,]+)`), group: 1},
	{name: "grand_total", re: regexp.MustCompile(`(?i)(?:grand\s*total|amount\s*due|balance\s*due|total\s*due)[.:\s]*[$€£]?\s*([\d.,]+)`), group: 1},
	{name: "total", re: regexp.MustCompile(`(?i)\btotal\b[.:\s]*[$€£]?\s*([\d.,]+)`), group: 1},
}

var subtotalRules = []rule{
	{name: "subtotal", re: regexp.MustCompile(`(?i)(?:subtotal|sub\s*total)[.:\s]*[$€£]?\s*([\d.,]+)`), group: 1},
}

var taxAmountRules = []rule{
	{name: "tax", re: regexp.MustCompile(`(?i)\b(?:tax|vat|gst)\b[.:\s]*[$€£]?\s*([\d.,]+)`), group: 1},
}

var invoiceDateRules = []rule{
	{name: "labeled_date", re: regexp.MustCompile(`(?i)(?:invoice|bill|statement)\s*date[.:\s]*(\d{1,2}[-/]\d{1,2}[-/]\d{2,4}|\d{4}-\d{2}-\d{2}|[A-Za-z]+\s+\d{1,2},?\s+\d{4})`), group: 1},
	{name: "bare_slash_date", re: regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`), group: 1},
	{name: "iso_date", re: regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`), group: 1},
}

var dueDateRules = []rule{
	{name: "due_date", re: regexp.MustCompile(`(?i)(?:due\s*date|payment\s*due|due)[.:\s]*(\d{1,2}[-/]\d{1,2}[-/]\d{2,4}|\d{4}-\d{2}-\d{2}|[A-Za-z]+\s+\d{1,2},?\s+\d{4})`), group: 1},
}

var vendorNameRules = []rule{
	{name: "vendor_label", re: regexp.MustCompile(`(?i)(?:vendor|supplier|bill\s*from|sold\s*by|from)[.:\s]*([A-Za-z0-9][A-Za-z0-9 .,&'-]*?)(?:\r?\n|\s+Inc\.?\b|\s+LLC\b|\s+Ltd\.?\b|\s+Corp\.?\b|$)`), group: 1},
}

var currencyRules = []rule{
	{name: "currency_code", re: regexp.MustCompile(`(?i)currency[.:\s]*(USD|EUR|GBP|JPY|CAD|AUD|CHF)`), group: 1},
}

// currencySymbols maps symbols found anywhere in the text to ISO codes.
// Detection only; amounts are never converted (multi-currency normalization
// is out of scope).
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
}

// lineItemPatterns are tried per text line. Each must capture, in order:
// item name, quantity, unit price.
var lineItemPatterns = []*regexp.Regexp{
	// "Steel Bracket  qty=10 @180.00" / "Steel Bracket 10 @ $180.00"
	regexp.MustCompile(`(?i)^\s*(.{2,60}?)[\s,]+(?:qty\s*[=:]?\s*)?(\d+(?:[.,]\d+)?)\s*(?:x|@)\s*[$€£]?\s*([\d.,]+)`),
	// table row: "Steel Bracket    10    180.00    1800.00"
	regexp.MustCompile(`^\s*(\S.{1,58}?)\s{2,}(\d+(?:[.,]\d+)?)\s{2,}[$€£]?\s*([\d.,]+)\s{2,}[$€£]?\s*[\d.,]+\s*$`),
}

// invoiceKeywords drive the invoice-likeness heuristic.
var invoiceKeywords = []string{
	"invoice", "bill", "receipt", "statement",
	"total amount", "due date", "tax invoice",
	"payment due", "charges", "order number",
	"balance due", "purchase order", "vat", "gst",
	"invoice number", "invoice date", "billing date",
	"payment terms", "subtotal", "total due", "amount due",
	"invoice total", "account number", "customer id",
}

var (
	invoiceHashPattern = regexp.MustCompile(`(?i)invoice\s*#\s*\w+`)
	totalDigitsPattern = regexp.MustCompile(`(?i)total\s*[:$]?\s*\d+`)
)
