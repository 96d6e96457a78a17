package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"porecon/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row (14 columns).
var columns = []string{
	"Invoice Number",
	"Vendor Name",
	"Invoice Date",
	"Due Date",
	"Total Amount",
	"Currency",
	"PO Reference",
	"Matched PO",
	"Approval Status",
	"Discrepancy Count",
	"Worst Severity",
	"Decided By",
	"Decided At",
	"Created At",
}

// Writer wraps csv.Writer for exporting invoice records as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteRecords converts a batch of invoice records to CSV rows and writes them.
func (w *Writer) WriteRecords(recs []domain.InvoiceRecord) error {
	for i := range recs {
		row := recordToRow(&recs[i])
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// recordToRow converts a single invoice record to a row. Absent optional
// fields render as empty cells; an undecodable discrepancy set leaves the
// discrepancy columns empty rather than failing the export.
func recordToRow(rec *domain.InvoiceRecord) []string {
	row := make([]string, len(columns))

	row[0] = rec.InvoiceNumber
	row[1] = rec.VendorName
	row[2] = formatDate(rec.InvoiceDate)
	row[3] = formatDate(rec.DueDate)
	if rec.TotalAmount != nil {
		row[4] = formatMoney(*rec.TotalAmount)
	}
	row[5] = rec.Currency
	row[6] = derefString(rec.POReference)
	row[7] = derefString(rec.MatchedPONumber)
	row[8] = string(rec.ApprovalStatus)

	if ds, err := rec.DecodeDiscrepancies(); err == nil {
		row[9] = strconv.Itoa(len(ds))
		row[10] = worstSeverity(ds)
	}

	row[11] = derefString(rec.DecidedBy)
	row[12] = formatTime(rec.DecidedAt)
	row[13] = rec.CreatedAt.Format(time.RFC3339)
	return row
}

func worstSeverity(ds []domain.Discrepancy) string {
	if len(ds) == 0 {
		return ""
	}
	worst := domain.SeverityInfo
	for i := range ds {
		if domain.SeverityRank[ds[i].Severity] < domain.SeverityRank[worst] {
			worst = ds[i].Severity
		}
	}
	return string(worst)
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for the Content-Disposition header.
// Format: {sanitized_name}_{YYYY-MM-DD}.{ext}
func BuildFilename(name, ext string) string {
	sanitized := SanitizeFilename(name)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.%s", sanitized, date, ext)
}
