package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"porecon/internal/compare"
	"porecon/internal/domain"
	"porecon/internal/extract"
	"porecon/internal/match"
	"porecon/internal/port"
	"porecon/mocks"
)

const intakeBucket = "porecon-intake"

const matchedInvoiceText = `Invoice # INV-100
Vendor: Acme Supplies
Purchase Order # PO12345
Total Amount: $1,800.00
`

const orphanInvoiceText = `Invoice # INV-200
Vendor: Unknown Vendor Co
Total Amount: $500.00
`

type reconcilerFixture struct {
	storage  *mocks.MockObjectStorage
	textract *mocks.MockTextExtractor
	pos      *mocks.MockPurchaseOrderRepo
	invoices *mocks.MockInvoiceRecordRepo
	svc      ReconcileService
}

func newReconcilerFixture() *reconcilerFixture {
	return newReconcilerFixtureWithIntake(IntakeConfig{
		Bucket:          intakeBucket,
		IntakePrefix:    "intake/",
		ProcessedPrefix: "processed/",
		FailedPrefix:    "failed/",
		Concurrency:     2,
	})
}

func newReconcilerFixtureWithIntake(intake IntakeConfig) *reconcilerFixture {
	f := &reconcilerFixture{
		storage:  new(mocks.MockObjectStorage),
		textract: new(mocks.MockTextExtractor),
		pos:      new(mocks.MockPurchaseOrderRepo),
		invoices: new(mocks.MockInvoiceRecordRepo),
	}
	f.svc = NewReconcileService(
		f.storage,
		f.textract,
		extract.New(),
		match.New(f.pos, match.DefaultWeights()),
		compare.New(compare.DefaultPolicy()),
		f.invoices,
		intake,
	)
	return f
}

func autoApprovingIntake() IntakeConfig {
	return IntakeConfig{
		Bucket:           intakeBucket,
		IntakePrefix:     "intake/",
		ProcessedPrefix:  "processed/",
		FailedPrefix:     "failed/",
		Concurrency:      2,
		AutoApproveClean: true,
	}
}

func (f *reconcilerFixture) expectMove(key, destPrefix string) {
	f.storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == intakeBucket && in.Key == destPrefix+"inv.txt"
	})).Return(nil)
	f.storage.On("Delete", mock.Anything, intakeBucket, key).Return(nil)
}

func TestProcessObject_CleanInvoice(t *testing.T) {
	f := newReconcilerFixture()
	key := "intake/inv.txt"

	f.invoices.On("GetBySourceReference", mock.Anything, key).Return(nil, domain.ErrInvoiceNotFound)
	f.storage.On("Download", mock.Anything, intakeBucket, key).Return([]byte(matchedInvoiceText), nil)
	f.textract.On("ExtractText", mock.Anything, mock.Anything).Return(matchedInvoiceText, nil)
	f.pos.On("GetByNumber", mock.Anything, "PO12345").Return(&domain.PurchaseOrder{
		PONumber:    "PO12345",
		VendorName:  "Acme Supplies",
		TotalAmount: 1800,
	}, nil)
	f.invoices.On("Create", mock.Anything, mock.MatchedBy(func(rec *domain.InvoiceRecord) bool {
		return rec.ApprovalStatus == domain.ApprovalPending &&
			rec.MatchedPONumber != nil && *rec.MatchedPONumber == "PO12345" &&
			rec.SourceReference == key &&
			rec.InvoiceNumber == "INV-100"
	})).Return(nil)
	f.expectMove(key, "processed/")

	cycle := &Cycle{}
	require.NoError(t, f.svc.ProcessObject(context.Background(), cycle, key))

	assert.Equal(t, 1, cycle.Processed)
	assert.Equal(t, 1, cycle.Clean)
	assert.Zero(t, cycle.Flagged)
	f.invoices.AssertExpectations(t)
	f.storage.AssertExpectations(t)
}

func TestProcessObject_CleanInvoiceAutoApproved(t *testing.T) {
	f := newReconcilerFixtureWithIntake(autoApprovingIntake())
	key := "intake/inv.txt"

	f.invoices.On("GetBySourceReference", mock.Anything, key).Return(nil, domain.ErrInvoiceNotFound)
	f.storage.On("Download", mock.Anything, intakeBucket, key).Return([]byte(matchedInvoiceText), nil)
	f.textract.On("ExtractText", mock.Anything, mock.Anything).Return(matchedInvoiceText, nil)
	f.pos.On("GetByNumber", mock.Anything, "PO12345").Return(&domain.PurchaseOrder{
		PONumber:    "PO12345",
		VendorName:  "Acme Supplies",
		TotalAmount: 1800,
	}, nil)
	f.invoices.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.invoices.On("UpdateApproval", mock.Anything, mock.Anything,
		domain.ApprovalPending, domain.ApprovalApproved, domain.SystemActor, mock.Anything).Return(nil)
	f.expectMove(key, "processed/")

	cycle := &Cycle{}
	require.NoError(t, f.svc.ProcessObject(context.Background(), cycle, key))

	assert.Equal(t, 1, cycle.Clean)
	f.invoices.AssertExpectations(t)
}

func TestProcessObject_AutoApproveFailureLeavesRecordPending(t *testing.T) {
	f := newReconcilerFixtureWithIntake(autoApprovingIntake())
	key := "intake/inv.txt"

	f.invoices.On("GetBySourceReference", mock.Anything, key).Return(nil, domain.ErrInvoiceNotFound)
	f.storage.On("Download", mock.Anything, intakeBucket, key).Return([]byte(matchedInvoiceText), nil)
	f.textract.On("ExtractText", mock.Anything, mock.Anything).Return(matchedInvoiceText, nil)
	f.pos.On("GetByNumber", mock.Anything, "PO12345").Return(&domain.PurchaseOrder{
		PONumber:    "PO12345",
		VendorName:  "Acme Supplies",
		TotalAmount: 1800,
	}, nil)
	f.invoices.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.invoices.On("UpdateApproval", mock.Anything, mock.Anything,
		domain.ApprovalPending, domain.ApprovalApproved, domain.SystemActor, mock.Anything).
		Return(errors.New("connection refused"))
	f.expectMove(key, "processed/")

	// The record was persisted; a failed automatic decision is not a
	// pipeline failure and the file still moves out of intake.
	cycle := &Cycle{}
	require.NoError(t, f.svc.ProcessObject(context.Background(), cycle, key))

	assert.Equal(t, 1, cycle.Processed)
	assert.Equal(t, 1, cycle.Clean)
	f.storage.AssertExpectations(t)
}

func TestProcessObject_AutoApproveSkippedForFlagged(t *testing.T) {
	f := newReconcilerFixtureWithIntake(autoApprovingIntake())
	key := "intake/inv.txt"

	f.invoices.On("GetBySourceReference", mock.Anything, key).Return(nil, domain.ErrInvoiceNotFound)
	f.storage.On("Download", mock.Anything, intakeBucket, key).Return([]byte(matchedInvoiceText), nil)
	f.textract.On("ExtractText", mock.Anything, mock.Anything).Return(matchedInvoiceText, nil)
	f.pos.On("GetByNumber", mock.Anything, "PO12345").Return(&domain.PurchaseOrder{
		PONumber:    "PO12345",
		VendorName:  "Acme Supplies",
		TotalAmount: 1750,
	}, nil)
	f.invoices.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.expectMove(key, "processed/")

	cycle := &Cycle{}
	require.NoError(t, f.svc.ProcessObject(context.Background(), cycle, key))

	assert.Equal(t, 1, cycle.Flagged)
	f.invoices.AssertNotCalled(t, "UpdateApproval",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessObject_BlockingDiscrepancyNeedsReview(t *testing.T) {
	f := newReconcilerFixture()
	key := "intake/inv.txt"

	f.invoices.On("GetBySourceReference", mock.Anything, key).Return(nil, domain.ErrInvoiceNotFound)
	f.storage.On("Download", mock.Anything, intakeBucket, key).Return([]byte(matchedInvoiceText), nil)
	f.textract.On("ExtractText", mock.Anything, mock.Anything).Return(matchedInvoiceText, nil)
	// PO total differs from the invoice by 2.8%, past the 1% tolerance.
	f.pos.On("GetByNumber", mock.Anything, "PO12345").Return(&domain.PurchaseOrder{
		PONumber:    "PO12345",
		VendorName:  "Acme Supplies",
		TotalAmount: 1750,
	}, nil)
	f.invoices.On("Create", mock.Anything, mock.MatchedBy(func(rec *domain.InvoiceRecord) bool {
		return rec.ApprovalStatus == domain.ApprovalNeedsReview && rec.HasBlocking()
	})).Return(nil)
	f.expectMove(key, "processed/")

	cycle := &Cycle{}
	require.NoError(t, f.svc.ProcessObject(context.Background(), cycle, key))

	assert.Equal(t, 1, cycle.Processed)
	assert.Equal(t, 1, cycle.Flagged)
	assert.Zero(t, cycle.Clean)
}

func TestProcessObject_UnmatchedInvoice(t *testing.T) {
	f := newReconcilerFixture()
	key := "intake/inv.txt"

	f.invoices.On("GetBySourceReference", mock.Anything, key).Return(nil, domain.ErrInvoiceNotFound)
	f.storage.On("Download", mock.Anything, intakeBucket, key).Return([]byte(orphanInvoiceText), nil)
	f.textract.On("ExtractText", mock.Anything, mock.Anything).Return(orphanInvoiceText, nil)
	f.pos.On("ListByStatus", mock.Anything, domain.POStatusApproved).Return([]domain.PurchaseOrder{}, nil)
	f.invoices.On("Create", mock.Anything, mock.MatchedBy(func(rec *domain.InvoiceRecord) bool {
		return rec.ApprovalStatus == domain.ApprovalNeedsReview && rec.MatchedPONumber == nil
	})).Return(nil)
	f.expectMove(key, "processed/")

	cycle := &Cycle{}
	require.NoError(t, f.svc.ProcessObject(context.Background(), cycle, key))
	assert.Equal(t, 1, cycle.Flagged)
}

func TestProcessObject_NotAnInvoice(t *testing.T) {
	f := newReconcilerFixture()
	key := "intake/inv.txt"
	memo := "Hi team, attached are the meeting notes from Tuesday."

	f.invoices.On("GetBySourceReference", mock.Anything, key).Return(nil, domain.ErrInvoiceNotFound)
	f.storage.On("Download", mock.Anything, intakeBucket, key).Return([]byte(memo), nil)
	f.textract.On("ExtractText", mock.Anything, mock.Anything).Return(memo, nil)
	f.expectMove(key, "processed/")

	cycle := &Cycle{}
	require.NoError(t, f.svc.ProcessObject(context.Background(), cycle, key))

	assert.Equal(t, 1, cycle.NotInvoice)
	assert.Zero(t, cycle.Processed)
	f.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcessObject_ExtractionFailureParksFile(t *testing.T) {
	f := newReconcilerFixture()
	key := "intake/inv.txt"

	f.invoices.On("GetBySourceReference", mock.Anything, key).Return(nil, domain.ErrInvoiceNotFound)
	f.storage.On("Download", mock.Anything, intakeBucket, key).Return([]byte{0x89, 0x50}, nil)
	f.textract.On("ExtractText", mock.Anything, mock.Anything).Return("", domain.ErrExtractionFailed)
	f.expectMove(key, "failed/")

	cycle := &Cycle{}
	err := f.svc.ProcessObject(context.Background(), cycle, key)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	f.storage.AssertExpectations(t)
	f.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcessObject_AlreadyReconciledSkips(t *testing.T) {
	f := newReconcilerFixture()
	key := "intake/inv.txt"

	f.invoices.On("GetBySourceReference", mock.Anything, key).Return(&domain.InvoiceRecord{
		SourceReference: key,
	}, nil)
	f.storage.On("Download", mock.Anything, intakeBucket, key).Return([]byte("x"), nil)
	f.expectMove(key, "processed/")

	cycle := &Cycle{}
	require.NoError(t, f.svc.ProcessObject(context.Background(), cycle, key))

	assert.Equal(t, 1, cycle.Skipped)
	f.textract.AssertNotCalled(t, "ExtractText", mock.Anything, mock.Anything)
	f.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcessObject_DuplicateInvoiceSkips(t *testing.T) {
	f := newReconcilerFixture()
	key := "intake/inv.txt"

	f.invoices.On("GetBySourceReference", mock.Anything, key).Return(nil, domain.ErrInvoiceNotFound)
	f.storage.On("Download", mock.Anything, intakeBucket, key).Return([]byte(matchedInvoiceText), nil)
	f.textract.On("ExtractText", mock.Anything, mock.Anything).Return(matchedInvoiceText, nil)
	f.pos.On("GetByNumber", mock.Anything, "PO12345").Return(&domain.PurchaseOrder{
		PONumber: "PO12345", VendorName: "Acme Supplies", TotalAmount: 1800,
	}, nil)
	f.invoices.On("Create", mock.Anything, mock.Anything).Return(domain.ErrDuplicateInvoice)
	f.expectMove(key, "processed/")

	cycle := &Cycle{}
	require.NoError(t, f.svc.ProcessObject(context.Background(), cycle, key))
	assert.Equal(t, 1, cycle.Skipped)
	assert.Zero(t, cycle.Processed)
}

func TestProcessObject_MatcherErrorLeavesFileInIntake(t *testing.T) {
	f := newReconcilerFixture()
	key := "intake/inv.txt"

	f.invoices.On("GetBySourceReference", mock.Anything, key).Return(nil, domain.ErrInvoiceNotFound)
	f.storage.On("Download", mock.Anything, intakeBucket, key).Return([]byte(matchedInvoiceText), nil)
	f.textract.On("ExtractText", mock.Anything, mock.Anything).Return(matchedInvoiceText, nil)
	f.pos.On("GetByNumber", mock.Anything, "PO12345").Return(nil, errors.New("connection refused"))

	cycle := &Cycle{}
	err := f.svc.ProcessObject(context.Background(), cycle, key)
	require.Error(t, err)
	f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	f.storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunCycle_ProcessesAllObjects(t *testing.T) {
	f := newReconcilerFixture()

	f.storage.On("ListPrefix", mock.Anything, intakeBucket, "intake/").Return([]port.StoredObject{
		{Key: "intake/"},
		{Key: "intake/a.txt"},
		{Key: "intake/b.txt"},
	}, nil)

	for _, key := range []string{"intake/a.txt", "intake/b.txt"} {
		f.invoices.On("GetBySourceReference", mock.Anything, key).Return(nil, domain.ErrInvoiceNotFound)
		f.storage.On("Download", mock.Anything, intakeBucket, key).Return([]byte(matchedInvoiceText), nil)
		f.storage.On("Upload", mock.Anything, mock.Anything).Return(nil)
		f.storage.On("Delete", mock.Anything, intakeBucket, key).Return(nil)
	}
	f.textract.On("ExtractText", mock.Anything, mock.Anything).Return(matchedInvoiceText, nil)
	f.pos.On("GetByNumber", mock.Anything, "PO12345").Return(&domain.PurchaseOrder{
		PONumber: "PO12345", VendorName: "Acme Supplies", TotalAmount: 1800,
	}, nil)
	f.invoices.On("Create", mock.Anything, mock.Anything).Return(nil)

	cycle, err := f.svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cycle.Processed)
	assert.Equal(t, 2, cycle.Clean)
	assert.Zero(t, cycle.Failed)
}

func TestRunCycle_ListFailure(t *testing.T) {
	f := newReconcilerFixture()
	f.storage.On("ListPrefix", mock.Anything, intakeBucket, "intake/").Return(nil, errors.New("access denied"))

	_, err := f.svc.RunCycle(context.Background())
	require.Error(t, err)
}

func TestRunCycle_CountsFailures(t *testing.T) {
	f := newReconcilerFixture()

	f.storage.On("ListPrefix", mock.Anything, intakeBucket, "intake/").Return([]port.StoredObject{
		{Key: "intake/bad.txt"},
	}, nil)
	f.invoices.On("GetBySourceReference", mock.Anything, "intake/bad.txt").Return(nil, domain.ErrInvoiceNotFound)
	f.storage.On("Download", mock.Anything, intakeBucket, "intake/bad.txt").Return(nil, errors.New("gone"))

	cycle, err := f.svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cycle.Failed)
	assert.Zero(t, cycle.Processed)
}
