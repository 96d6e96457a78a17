package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"porecon/internal/domain"
	"porecon/internal/port"
)

type purchaseOrderRepo struct {
	db *sqlx.DB
}

// NewPurchaseOrderRepo creates a new PostgreSQL-backed PurchaseOrderRepository.
func NewPurchaseOrderRepo(db *sqlx.DB) port.PurchaseOrderRepository {
	return &purchaseOrderRepo{db: db}
}

func (r *purchaseOrderRepo) Create(ctx context.Context, po *domain.PurchaseOrder) error {
	po.CreatedAt = time.Now().UTC()

	lineItems, err := json.Marshal(po.LineItems)
	if err != nil {
		return fmt.Errorf("purchaseOrderRepo.Create marshal line items: %w", err)
	}
	po.LineItemsJSON = lineItems

	query := `INSERT INTO purchase_orders (
		po_number, vendor_name, issue_date, total_amount, line_items, status, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.db.ExecContext(ctx, query,
		po.PONumber, po.VendorName, po.IssueDate, po.TotalAmount,
		po.LineItemsJSON, po.Status, po.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrDuplicatePO
		}
		return fmt.Errorf("purchaseOrderRepo.Create: %w", err)
	}
	return nil
}

func (r *purchaseOrderRepo) GetByNumber(ctx context.Context, poNumber string) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	err := r.db.GetContext(ctx, &po,
		"SELECT * FROM purchase_orders WHERE po_number = $1", poNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPONotFound
		}
		return nil, fmt.Errorf("purchaseOrderRepo.GetByNumber: %w", err)
	}
	if err := decodePOLineItems(&po); err != nil {
		return nil, fmt.Errorf("purchaseOrderRepo.GetByNumber: %w", err)
	}
	return &po, nil
}

func (r *purchaseOrderRepo) ListByStatus(ctx context.Context, status domain.POStatus) ([]domain.PurchaseOrder, error) {
	var pos []domain.PurchaseOrder
	err := r.db.SelectContext(ctx, &pos,
		"SELECT * FROM purchase_orders WHERE status = $1 ORDER BY po_number", status)
	if err != nil {
		return nil, fmt.Errorf("purchaseOrderRepo.ListByStatus: %w", err)
	}
	for i := range pos {
		if err := decodePOLineItems(&pos[i]); err != nil {
			return nil, fmt.Errorf("purchaseOrderRepo.ListByStatus: %w", err)
		}
	}
	return pos, nil
}

func (r *purchaseOrderRepo) List(ctx context.Context, offset, limit int) ([]domain.PurchaseOrder, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM purchase_orders")
	if err != nil {
		return nil, 0, fmt.Errorf("purchaseOrderRepo.List count: %w", err)
	}

	var pos []domain.PurchaseOrder
	err = r.db.SelectContext(ctx, &pos,
		"SELECT * FROM purchase_orders ORDER BY po_number LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("purchaseOrderRepo.List: %w", err)
	}
	for i := range pos {
		if err := decodePOLineItems(&pos[i]); err != nil {
			return nil, 0, fmt.Errorf("purchaseOrderRepo.List: %w", err)
		}
	}
	return pos, total, nil
}

func (r *purchaseOrderRepo) UpdateStatus(ctx context.Context, poNumber string, status domain.POStatus) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE purchase_orders SET status = $1 WHERE po_number = $2", status, poNumber)
	if err != nil {
		return fmt.Errorf("purchaseOrderRepo.UpdateStatus: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("purchaseOrderRepo.UpdateStatus rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrPONotFound
	}
	return nil
}

func decodePOLineItems(po *domain.PurchaseOrder) error {
	if len(po.LineItemsJSON) == 0 {
		return nil
	}
	if err := json.Unmarshal(po.LineItemsJSON, &po.LineItems); err != nil {
		return fmt.Errorf("decode line items for %s: %w", po.PONumber, err)
	}
	return nil
}
