package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"porecon/internal/approval"
	"porecon/internal/domain"
	"porecon/internal/port"
)

// DecisionInput is the DTO for an approval decision on an invoice record.
type DecisionInput struct {
	InvoiceID uuid.UUID
	DecidedBy string
	// Override permits approving a record that sits in needs_review.
	Override bool
}

// ApprovalService defines the invoice approval contract.
type ApprovalService interface {
	Approve(ctx context.Context, input *DecisionInput) (*domain.InvoiceRecord, error)
	Reject(ctx context.Context, input *DecisionInput) (*domain.InvoiceRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceRecord, error)
	List(ctx context.Context, offset, limit int) ([]domain.InvoiceRecord, int, error)
	ListByStatus(ctx context.Context, status domain.ApprovalStatus) ([]domain.InvoiceRecord, error)
}

type approvalService struct {
	invoices port.InvoiceRecordRepository
}

// NewApprovalService creates a new ApprovalService implementation.
func NewApprovalService(invoices port.InvoiceRecordRepository) ApprovalService {
	return &approvalService{invoices: invoices}
}

func (s *approvalService) Approve(ctx context.Context, input *DecisionInput) (*domain.InvoiceRecord, error) {
	return s.decide(ctx, input, domain.ApprovalApproved)
}

func (s *approvalService) Reject(ctx context.Context, input *DecisionInput) (*domain.InvoiceRecord, error) {
	return s.decide(ctx, input, domain.ApprovalRejected)
}

// decide loads the record, authorizes the transition against the current
// status and applies it conditionally so a concurrent decision cannot be
// overwritten. Terminal records always fail authorization.
func (s *approvalService) decide(ctx context.Context, input *DecisionInput, to domain.ApprovalStatus) (*domain.InvoiceRecord, error) {
	decidedBy := strings.TrimSpace(input.DecidedBy)
	if decidedBy == "" {
		return nil, fmt.Errorf("decided_by is required: %w", domain.ErrValidation)
	}

	rec, err := s.invoices.GetByID(ctx, input.InvoiceID)
	if err != nil {
		return nil, err
	}

	if err := approval.Authorize(rec.ApprovalStatus, to, decidedBy, input.Override); err != nil {
		return nil, err
	}

	decidedAt := time.Now().UTC()
	if err := s.invoices.UpdateApproval(ctx, rec.InvoiceID, rec.ApprovalStatus, to, decidedBy, decidedAt); err != nil {
		return nil, err
	}
	log.Printf("approvalService: invoice %s %s -> %s by %s", rec.InvoiceID, rec.ApprovalStatus, to, decidedBy)

	rec.ApprovalStatus = to
	rec.DecidedBy = &decidedBy
	rec.DecidedAt = &decidedAt
	return rec, nil
}

func (s *approvalService) GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceRecord, error) {
	return s.invoices.GetByID(ctx, id)
}

func (s *approvalService) List(ctx context.Context, offset, limit int) ([]domain.InvoiceRecord, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.invoices.List(ctx, offset, limit)
}

func (s *approvalService) ListByStatus(ctx context.Context, status domain.ApprovalStatus) ([]domain.InvoiceRecord, error) {
	if _, err := approval.ParseStatus(string(status)); err != nil {
		return nil, err
	}
	return s.invoices.ListByStatus(ctx, status)
}
