package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"porecon/internal/csvexport"
	"porecon/internal/domain"
	"porecon/mocks"
)

func reportWindowRecords() []domain.InvoiceRecord {
	po := "PO12345"
	return []domain.InvoiceRecord{
		{
			InvoiceNumber:   "INV-001",
			VendorName:      "Acme Supplies",
			MatchedPONumber: &po,
			ApprovalStatus:  domain.ApprovalApproved,
		},
		{
			InvoiceNumber:  "INV-002",
			VendorName:     "Globex Industrial",
			ApprovalStatus: domain.ApprovalNeedsReview,
		},
	}
}

func TestBuildSummary(t *testing.T) {
	since := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	repo := new(mocks.MockInvoiceRecordRepo)
	repo.On("ListSince", mock.Anything, since).Return(reportWindowRecords(), nil)

	svc := NewReportService(repo, nil)
	summary, err := svc.BuildSummary(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.CountClean)
	assert.Len(t, summary.Entries, 1)
}

func TestBuildSummary_RepoError(t *testing.T) {
	repo := new(mocks.MockInvoiceRecordRepo)
	repo.On("ListSince", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	svc := NewReportService(repo, nil)
	_, err := svc.BuildSummary(context.Background(), time.Time{})
	require.Error(t, err)
}

func TestSendSummary(t *testing.T) {
	since := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	repo := new(mocks.MockInvoiceRecordRepo)
	repo.On("ListSince", mock.Anything, since).Return(reportWindowRecords(), nil)

	sender := new(mocks.MockReportSender)
	sender.On("SendCycleReport", mock.Anything,
		"Invoice reconciliation report: 2 processed, 1 need attention",
		mock.MatchedBy(func(body string) bool {
			return strings.Contains(body, "INV-002")
		})).Return(nil)

	svc := NewReportService(repo, sender)
	require.NoError(t, svc.SendSummary(context.Background(), since))
	sender.AssertExpectations(t)
}

func TestSendSummary_SenderError(t *testing.T) {
	repo := new(mocks.MockInvoiceRecordRepo)
	repo.On("ListSince", mock.Anything, mock.Anything).Return([]domain.InvoiceRecord{}, nil)

	sender := new(mocks.MockReportSender)
	sender.On("SendCycleReport", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("ses throttled"))

	svc := NewReportService(repo, sender)
	assert.Error(t, svc.SendSummary(context.Background(), time.Time{}))
}

func TestExportCSV(t *testing.T) {
	repo := new(mocks.MockInvoiceRecordRepo)
	repo.On("ListSince", mock.Anything, mock.Anything).Return(reportWindowRecords(), nil)

	svc := NewReportService(repo, nil)
	data, err := svc.ExportCSV(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, csvexport.BOM))
	assert.Contains(t, string(data), "Invoice Number")
	assert.Contains(t, string(data), "INV-001")
	assert.Contains(t, string(data), "INV-002")
}

func TestExportXLSX(t *testing.T) {
	repo := new(mocks.MockInvoiceRecordRepo)
	repo.On("ListSince", mock.Anything, mock.Anything).Return(reportWindowRecords(), nil)

	svc := NewReportService(repo, nil)
	data, err := svc.ExportXLSX(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
