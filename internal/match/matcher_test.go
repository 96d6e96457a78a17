package match

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"porecon/internal/domain"
	"porecon/mocks"
)

func draftWith(fields map[domain.Field]bool) *domain.InvoiceDraft {
	return &domain.InvoiceDraft{Found: fields}
}

func TestMatch_ExactReference(t *testing.T) {
	repo := new(mocks.MockPurchaseOrderRepo)
	po := &domain.PurchaseOrder{PONumber: "PO12345", VendorName: "Acme Supplies", TotalAmount: 1800}
	repo.On("GetByNumber", mock.Anything, "PO12345").Return(po, nil)

	m := New(repo, DefaultWeights())
	draft := draftWith(map[domain.Field]bool{domain.FieldPOReference: true})
	draft.POReference = "PO12345"

	res, err := m.Match(context.Background(), draft)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.True(t, res.Exact)
	assert.Equal(t, "PO12345", res.PO.PONumber)
	repo.AssertNotCalled(t, "ListByStatus", mock.Anything, mock.Anything)
}

func TestMatch_HeuristicByVendorAndAmount(t *testing.T) {
	repo := new(mocks.MockPurchaseOrderRepo)
	issue := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	repo.On("ListByStatus", mock.Anything, domain.POStatusApproved).Return([]domain.PurchaseOrder{
		{PONumber: "PO12345", VendorName: "ABC Supplies", TotalAmount: 1800, IssueDate: issue},
		{PONumber: "PO22222", VendorName: "Globex Industrial", TotalAmount: 9200, IssueDate: issue},
	}, nil)

	m := New(repo, DefaultWeights())
	draft := &domain.InvoiceDraft{
		VendorName:  "ABC Supplies",
		TotalAmount: 1810,
		InvoiceDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Found: map[domain.Field]bool{
			domain.FieldVendorName:  true,
			domain.FieldTotalAmount: true,
			domain.FieldInvoiceDate: true,
		},
	}

	res, err := m.Match(context.Background(), draft)
	require.NoError(t, err)
	require.True(t, res.Matched)
	assert.False(t, res.Exact)
	assert.Equal(t, "PO12345", res.PO.PONumber)
	assert.GreaterOrEqual(t, res.Score, DefaultWeights().Threshold)
}

func TestMatch_UnknownReferenceFallsBackToHeuristic(t *testing.T) {
	repo := new(mocks.MockPurchaseOrderRepo)
	repo.On("GetByNumber", mock.Anything, "PO99999").Return(nil, domain.ErrPONotFound)
	repo.On("ListByStatus", mock.Anything, domain.POStatusApproved).Return([]domain.PurchaseOrder{
		{PONumber: "PO11111", VendorName: "Completely Different Co", TotalAmount: 50},
	}, nil)

	m := New(repo, DefaultWeights())
	draft := &domain.InvoiceDraft{
		POReference: "PO99999",
		VendorName:  "Acme Supplies",
		TotalAmount: 1800,
		Found: map[domain.Field]bool{
			domain.FieldPOReference: true,
			domain.FieldVendorName:  true,
			domain.FieldTotalAmount: true,
		},
	}

	res, err := m.Match(context.Background(), draft)
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Nil(t, res.PO)
}

func TestMatch_NoCandidates(t *testing.T) {
	repo := new(mocks.MockPurchaseOrderRepo)
	repo.On("ListByStatus", mock.Anything, domain.POStatusApproved).Return([]domain.PurchaseOrder{}, nil)

	m := New(repo, DefaultWeights())
	res, err := m.Match(context.Background(), draftWith(map[domain.Field]bool{}))
	require.NoError(t, err)
	assert.False(t, res.Matched)
}

func TestMatch_RepositoryErrorPropagates(t *testing.T) {
	repo := new(mocks.MockPurchaseOrderRepo)
	repo.On("GetByNumber", mock.Anything, "PO12345").Return(nil, errors.New("connection refused"))

	m := New(repo, DefaultWeights())
	draft := draftWith(map[domain.Field]bool{domain.FieldPOReference: true})
	draft.POReference = "PO12345"

	_, err := m.Match(context.Background(), draft)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestMatch_ListErrorPropagates(t *testing.T) {
	repo := new(mocks.MockPurchaseOrderRepo)
	repo.On("ListByStatus", mock.Anything, domain.POStatusApproved).Return(nil, errors.New("timeout"))

	m := New(repo, DefaultWeights())
	_, err := m.Match(context.Background(), draftWith(map[domain.Field]bool{}))
	require.Error(t, err)
}

func TestMatch_TieBreaksToMostRecentThenLowestNumber(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	repo := new(mocks.MockPurchaseOrderRepo)
	repo.On("ListByStatus", mock.Anything, domain.POStatusApproved).Return([]domain.PurchaseOrder{
		{PONumber: "PO30000", VendorName: "Acme Supplies", TotalAmount: 1000, IssueDate: older},
		{PONumber: "PO20000", VendorName: "Acme Supplies", TotalAmount: 1000, IssueDate: newer},
		{PONumber: "PO10000", VendorName: "Acme Supplies", TotalAmount: 1000, IssueDate: newer},
	}, nil)

	m := New(repo, DefaultWeights())
	draft := &domain.InvoiceDraft{
		VendorName:  "Acme Supplies",
		TotalAmount: 1000,
		Found: map[domain.Field]bool{
			domain.FieldVendorName:  true,
			domain.FieldTotalAmount: true,
		},
	}

	res, err := m.Match(context.Background(), draft)
	require.NoError(t, err)
	require.True(t, res.Matched)
	assert.Equal(t, "PO10000", res.PO.PONumber)
}

func TestScore_AbsentFieldsContributeZero(t *testing.T) {
	m := New(nil, DefaultWeights())
	po := &domain.PurchaseOrder{PONumber: "PO1", VendorName: "Acme", TotalAmount: 100}
	assert.Zero(t, m.Score(draftWith(map[domain.Field]bool{}), po))
}

func TestAmountCloseness(t *testing.T) {
	m := New(nil, DefaultWeights())
	assert.InDelta(t, 1.0, m.amountCloseness(1800, 1800), 0.0001)
	assert.InDelta(t, 1.0, m.amountCloseness(1810, 1800), 0.0001, "within tolerance scores full")
	assert.Zero(t, m.amountCloseness(4000, 1800), "relative diff above 1 scores zero")
	got := m.amountCloseness(1900, 1800)
	assert.Greater(t, got, 0.0)
	assert.Less(t, got, 1.0)
}
