package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"porecon/internal/domain"
	"porecon/internal/port"
)

type invoiceRecordRepo struct {
	db *sqlx.DB
}

// NewInvoiceRecordRepo creates a new PostgreSQL-backed InvoiceRecordRepository.
func NewInvoiceRecordRepo(db *sqlx.DB) port.InvoiceRecordRepository {
	return &invoiceRecordRepo{db: db}
}

func (r *invoiceRecordRepo) Create(ctx context.Context, rec *domain.InvoiceRecord) error {
	if rec.InvoiceID == uuid.Nil {
		rec.InvoiceID = uuid.New()
	}
	rec.CreatedAt = time.Now().UTC()

	lineItems, err := json.Marshal(rec.LineItems)
	if err != nil {
		return fmt.Errorf("invoiceRecordRepo.Create marshal line items: %w", err)
	}
	rec.LineItemsJSON = lineItems

	query := `INSERT INTO invoice_records (
		invoice_id, invoice_number, po_reference, vendor_name,
		invoice_date, due_date, total_amount, currency,
		source_reference, matched_po_number, discrepancies,
		approval_status, created_at, decided_at, decided_by, line_items
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8,
		$9, $10, $11,
		$12, $13, $14, $15, $16
	)`

	_, err = r.db.ExecContext(ctx, query,
		rec.InvoiceID, rec.InvoiceNumber, rec.POReference, rec.VendorName,
		rec.InvoiceDate, rec.DueDate, rec.TotalAmount, rec.Currency,
		rec.SourceReference, rec.MatchedPONumber, rec.Discrepancies,
		rec.ApprovalStatus, rec.CreatedAt, rec.DecidedAt, rec.DecidedBy, rec.LineItemsJSON)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrDuplicateInvoice
		}
		return fmt.Errorf("invoiceRecordRepo.Create: %w", err)
	}
	return nil
}

func (r *invoiceRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceRecord, error) {
	var rec domain.InvoiceRecord
	err := r.db.GetContext(ctx, &rec,
		"SELECT * FROM invoice_records WHERE invoice_id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoiceRecordRepo.GetByID: %w", err)
	}
	if err := decodeInvoiceLineItems(&rec); err != nil {
		return nil, fmt.Errorf("invoiceRecordRepo.GetByID: %w", err)
	}
	return &rec, nil
}

func (r *invoiceRecordRepo) GetBySourceReference(ctx context.Context, sourceRef string) (*domain.InvoiceRecord, error) {
	var rec domain.InvoiceRecord
	err := r.db.GetContext(ctx, &rec,
		"SELECT * FROM invoice_records WHERE source_reference = $1", sourceRef)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoiceRecordRepo.GetBySourceReference: %w", err)
	}
	if err := decodeInvoiceLineItems(&rec); err != nil {
		return nil, fmt.Errorf("invoiceRecordRepo.GetBySourceReference: %w", err)
	}
	return &rec, nil
}

func (r *invoiceRecordRepo) List(ctx context.Context, offset, limit int) ([]domain.InvoiceRecord, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM invoice_records")
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRecordRepo.List count: %w", err)
	}

	var recs []domain.InvoiceRecord
	err = r.db.SelectContext(ctx, &recs,
		"SELECT * FROM invoice_records ORDER BY created_at DESC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRecordRepo.List: %w", err)
	}
	for i := range recs {
		if err := decodeInvoiceLineItems(&recs[i]); err != nil {
			return nil, 0, fmt.Errorf("invoiceRecordRepo.List: %w", err)
		}
	}
	return recs, total, nil
}

func (r *invoiceRecordRepo) ListByStatus(ctx context.Context, status domain.ApprovalStatus) ([]domain.InvoiceRecord, error) {
	var recs []domain.InvoiceRecord
	err := r.db.SelectContext(ctx, &recs,
		"SELECT * FROM invoice_records WHERE approval_status = $1 ORDER BY created_at", status)
	if err != nil {
		return nil, fmt.Errorf("invoiceRecordRepo.ListByStatus: %w", err)
	}
	for i := range recs {
		if err := decodeInvoiceLineItems(&recs[i]); err != nil {
			return nil, fmt.Errorf("invoiceRecordRepo.ListByStatus: %w", err)
		}
	}
	return recs, nil
}

func (r *invoiceRecordRepo) ListSince(ctx context.Context, since time.Time) ([]domain.InvoiceRecord, error) {
	var recs []domain.InvoiceRecord
	err := r.db.SelectContext(ctx, &recs,
		"SELECT * FROM invoice_records WHERE created_at >= $1 ORDER BY created_at", since)
	if err != nil {
		return nil, fmt.Errorf("invoiceRecordRepo.ListSince: %w", err)
	}
	for i := range recs {
		if err := decodeInvoiceLineItems(&recs[i]); err != nil {
			return nil, fmt.Errorf("invoiceRecordRepo.ListSince: %w", err)
		}
	}
	return recs, nil
}

func decodeInvoiceLineItems(rec *domain.InvoiceRecord) error {
	if len(rec.LineItemsJSON) == 0 {
		return nil
	}
	if err := json.Unmarshal(rec.LineItemsJSON, &rec.LineItems); err != nil {
		return fmt.Errorf("decode line items for %s: %w", rec.InvoiceID, err)
	}
	return nil
}

// UpdateApproval moves a record from one approval status to another. The
// current status is part of the WHERE clause so a stale decision loses to a
// concurrent one instead of overwriting it.
func (r *invoiceRecordRepo) UpdateApproval(ctx context.Context, id uuid.UUID, from, to domain.ApprovalStatus, decidedBy string, decidedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE invoice_records
		 SET approval_status = $1, decided_by = $2, decided_at = $3
		 WHERE invoice_id = $4 AND approval_status = $5`,
		to, decidedBy, decidedAt, id, from)
	if err != nil {
		return fmt.Errorf("invoiceRecordRepo.UpdateApproval: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("invoiceRecordRepo.UpdateApproval rows affected: %w", err)
	}
	if rows == 0 {
		// Either the record does not exist or its status changed underneath us.
		if _, gerr := r.GetByID(ctx, id); gerr != nil {
			return gerr
		}
		return domain.ErrInvalidTransition
	}
	return nil
}
