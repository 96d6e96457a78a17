package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"porecon/internal/domain"
)

// PurchaseOrderRepository defines the contract for purchase order persistence.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *domain.PurchaseOrder) error
	GetByNumber(ctx context.Context, poNumber string) (*domain.PurchaseOrder, error)
	ListByStatus(ctx context.Context, status domain.POStatus) ([]domain.PurchaseOrder, error)
	List(ctx context.Context, offset, limit int) ([]domain.PurchaseOrder, int, error)
	UpdateStatus(ctx context.Context, poNumber string, status domain.POStatus) error
}

// InvoiceRecordRepository defines the contract for reconciled invoice persistence.
// UpdateApproval is conditional on the expected current status so concurrent
// decisions on the same record cannot both win.
type InvoiceRecordRepository interface {
	Create(ctx context.Context, rec *domain.InvoiceRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceRecord, error)
	GetBySourceReference(ctx context.Context, sourceRef string) (*domain.InvoiceRecord, error)
	List(ctx context.Context, offset, limit int) ([]domain.InvoiceRecord, int, error)
	ListByStatus(ctx context.Context, status domain.ApprovalStatus) ([]domain.InvoiceRecord, error)
	ListSince(ctx context.Context, since time.Time) ([]domain.InvoiceRecord, error)
	UpdateApproval(ctx context.Context, id uuid.UUID, from, to domain.ApprovalStatus, decidedBy string, decidedAt time.Time) error
}
