package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LineItem is a single ordered or billed line on a purchase order or invoice.
type LineItem struct {
	ItemName  string  `db:"item_name" json:"item_name"`
	Quantity  float64 `db:"quantity" json:"quantity"`
	UnitPrice float64 `db:"unit_price" json:"unit_price"`
}

// Subtotal returns quantity * unit_price for the line.
func (li *LineItem) Subtotal() float64 {
	return li.Quantity * li.UnitPrice
}

// PurchaseOrder is a pre-approved commitment record against which invoices
// are validated. Immutable once approved except for status transitions.
type PurchaseOrder struct {
	PONumber    string     `db:"po_number" json:"po_number"`
	VendorName  string     `db:"vendor_name" json:"vendor_name"`
	IssueDate   time.Time  `db:"issue_date" json:"issue_date"`
	TotalAmount float64    `db:"total_amount" json:"total_amount"`
	LineItems   []LineItem `db:"-" json:"line_items"`
	// LineItemsJSON is the persisted JSONB form of LineItems.
	LineItemsJSON json.RawMessage `db:"line_items" json:"-"`
	Status        POStatus        `db:"status" json:"status"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// Field identifies an extractable invoice field.
type Field string

const (
	FieldPOReference Field = "po_reference"
	FieldInvoiceNo   Field = "invoice_number"
	FieldVendorName  Field = "vendor_name"
	FieldInvoiceDate Field = "invoice_date"
	FieldDueDate     Field = "due_date"
	FieldTotalAmount Field = "total_amount"
	FieldSubtotal    Field = "subtotal"
	FieldTaxAmount   Field = "tax_amount"
	FieldCurrency    Field = "currency"
	FieldLineItems   Field = "line_items"
)

// InvoiceDraft is the transient structured form of one extraction run.
// Extraction is binary per field: a field is either found or absent, recorded
// in Found. Absent fields keep their zero value and must not be read.
type InvoiceDraft struct {
	POReference   string
	InvoiceNumber string
	VendorName    string
	InvoiceDate   time.Time
	DueDate       time.Time
	TotalAmount   float64
	Subtotal      float64
	TaxAmount     float64
	Currency      string
	LineItems     []LineItem
	// SourceReference is the opaque handle to the originating attachment.
	SourceReference string
	Found           map[Field]bool
}

// Has reports whether extraction found the given field.
func (d *InvoiceDraft) Has(f Field) bool {
	return d.Found[f]
}

// Discrepancy is one detected difference between an invoice field and the
// corresponding purchase order field.
type Discrepancy struct {
	FieldName     string              `json:"field_name"`
	ExpectedValue string              `json:"expected_value"`
	ActualValue   string              `json:"actual_value"`
	Kind          DiscrepancyKind     `json:"kind"`
	Severity      DiscrepancySeverity `json:"severity"`
}

// InvoiceRecord is the persisted outcome of reconciling one invoice.
// Records are never deleted; they form the audit trail.
type InvoiceRecord struct {
	InvoiceID       uuid.UUID  `db:"invoice_id" json:"invoice_id"`
	InvoiceNumber   string     `db:"invoice_number" json:"invoice_number"`
	POReference     *string    `db:"po_reference" json:"po_reference"`
	VendorName      string     `db:"vendor_name" json:"vendor_name"`
	InvoiceDate     *time.Time `db:"invoice_date" json:"invoice_date"`
	DueDate         *time.Time `db:"due_date" json:"due_date"`
	TotalAmount     *float64   `db:"total_amount" json:"total_amount"`
	Currency        string     `db:"currency" json:"currency"`
	SourceReference string     `db:"source_reference" json:"source_reference"`
	MatchedPONumber *string    `db:"matched_po_number" json:"matched_po_number"`
	// Discrepancies is the persisted JSONB discrepancy set; recomputed whole
	// on every comparison run, never patched.
	Discrepancies     json.RawMessage `db:"discrepancies" json:"discrepancies"`
	ApprovalStatus    ApprovalStatus  `db:"approval_status" json:"approval_status"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	DecidedAt         *time.Time      `db:"decided_at" json:"decided_at"`
	DecidedBy         *string         `db:"decided_by" json:"decided_by"`
	LineItemsJSON     json.RawMessage `db:"line_items" json:"-"`
	LineItems         []LineItem      `db:"-" json:"line_items"`
}

// DecodeDiscrepancies unmarshals the persisted discrepancy set.
func (r *InvoiceRecord) DecodeDiscrepancies() ([]Discrepancy, error) {
	if len(r.Discrepancies) == 0 {
		return nil, nil
	}
	var out []Discrepancy
	if err := json.Unmarshal(r.Discrepancies, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HasBlocking reports whether any persisted discrepancy is blocking.
func (r *InvoiceRecord) HasBlocking() bool {
	ds, err := r.DecodeDiscrepancies()
	if err != nil {
		return false
	}
	for i := range ds {
		if ds[i].Severity == SeverityBlocking {
			return true
		}
	}
	return false
}
