package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"porecon/internal/domain"
	"porecon/internal/port"
)

// CreatePurchaseOrderInput is the DTO for registering a purchase order.
type CreatePurchaseOrderInput struct {
	PONumber    string
	VendorName  string
	IssueDate   time.Time
	TotalAmount float64
	LineItems   []domain.LineItem
	Status      domain.POStatus
}

// PurchaseOrderService defines the purchase order management contract.
type PurchaseOrderService interface {
	Create(ctx context.Context, input *CreatePurchaseOrderInput) (*domain.PurchaseOrder, error)
	GetByNumber(ctx context.Context, poNumber string) (*domain.PurchaseOrder, error)
	List(ctx context.Context, offset, limit int) ([]domain.PurchaseOrder, int, error)
	UpdateStatus(ctx context.Context, poNumber string, status domain.POStatus) error
}

type purchaseOrderService struct {
	pos port.PurchaseOrderRepository
}

// NewPurchaseOrderService creates a new PurchaseOrderService implementation.
func NewPurchaseOrderService(pos port.PurchaseOrderRepository) PurchaseOrderService {
	return &purchaseOrderService{pos: pos}
}

// totalEpsilon absorbs float rounding when checking the header total against
// the line item sum. Half a cent.
const totalEpsilon = 0.005

func (s *purchaseOrderService) Create(ctx context.Context, input *CreatePurchaseOrderInput) (*domain.PurchaseOrder, error) {
	poNumber := strings.TrimSpace(input.PONumber)
	if poNumber == "" {
		return nil, fmt.Errorf("po_number is required: %w", domain.ErrValidation)
	}
	status := input.Status
	if status == "" {
		status = domain.POStatusApproved
	}
	if !domain.ValidPOStatuses[status] {
		return nil, fmt.Errorf("status %q: %w", input.Status, domain.ErrInvalidPOStatus)
	}

	if len(input.LineItems) > 0 {
		var sum float64
		for i := range input.LineItems {
			sum += input.LineItems[i].Subtotal()
		}
		if math.Abs(sum-input.TotalAmount) > totalEpsilon {
			return nil, fmt.Errorf("total %.2f does not equal line item sum %.2f: %w",
				input.TotalAmount, sum, domain.ErrPOTotalMismatch)
		}
	}

	po := &domain.PurchaseOrder{
		PONumber:    poNumber,
		VendorName:  strings.TrimSpace(input.VendorName),
		IssueDate:   input.IssueDate,
		TotalAmount: input.TotalAmount,
		LineItems:   input.LineItems,
		Status:      status,
	}
	if err := s.pos.Create(ctx, po); err != nil {
		return nil, err
	}
	return po, nil
}

func (s *purchaseOrderService) GetByNumber(ctx context.Context, poNumber string) (*domain.PurchaseOrder, error) {
	return s.pos.GetByNumber(ctx, poNumber)
}

func (s *purchaseOrderService) List(ctx context.Context, offset, limit int) ([]domain.PurchaseOrder, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.pos.List(ctx, offset, limit)
}

func (s *purchaseOrderService) UpdateStatus(ctx context.Context, poNumber string, status domain.POStatus) error {
	if !domain.ValidPOStatuses[status] {
		return fmt.Errorf("status %q: %w", status, domain.ErrInvalidPOStatus)
	}
	return s.pos.UpdateStatus(ctx, poNumber, status)
}
