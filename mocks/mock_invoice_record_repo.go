package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"porecon/internal/domain"
)

// MockInvoiceRecordRepo is a mock implementation of port.InvoiceRecordRepository.
type MockInvoiceRecordRepo struct {
	mock.Mock
}

func (m *MockInvoiceRecordRepo) Create(ctx context.Context, rec *domain.InvoiceRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockInvoiceRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceRecord), args.Error(1)
}

func (m *MockInvoiceRecordRepo) GetBySourceReference(ctx context.Context, sourceRef string) (*domain.InvoiceRecord, error) {
	args := m.Called(ctx, sourceRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceRecord), args.Error(1)
}

func (m *MockInvoiceRecordRepo) List(ctx context.Context, offset, limit int) ([]domain.InvoiceRecord, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.InvoiceRecord), args.Int(1), args.Error(2)
}

func (m *MockInvoiceRecordRepo) ListByStatus(ctx context.Context, status domain.ApprovalStatus) ([]domain.InvoiceRecord, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InvoiceRecord), args.Error(1)
}

func (m *MockInvoiceRecordRepo) ListSince(ctx context.Context, since time.Time) ([]domain.InvoiceRecord, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InvoiceRecord), args.Error(1)
}

func (m *MockInvoiceRecordRepo) UpdateApproval(ctx context.Context, id uuid.UUID, from, to domain.ApprovalStatus, decidedBy string, decidedAt time.Time) error {
	args := m.Called(ctx, id, from, to, decidedBy, decidedAt)
	return args.Error(0)
}
