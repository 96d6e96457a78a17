package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"porecon/internal/domain"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrValidation, http.StatusBadRequest, "VALIDATION_FAILED"},
		{domain.ErrPONotFound, http.StatusNotFound, "PO_NOT_FOUND"},
		{domain.ErrDuplicatePO, http.StatusConflict, "DUPLICATE_PO"},
		{domain.ErrPOTotalMismatch, http.StatusBadRequest, "PO_TOTAL_MISMATCH"},
		{domain.ErrInvalidPOStatus, http.StatusBadRequest, "INVALID_PO_STATUS"},
		{domain.ErrInvoiceNotFound, http.StatusNotFound, "INVOICE_NOT_FOUND"},
		{domain.ErrDuplicateInvoice, http.StatusConflict, "DUPLICATE_INVOICE"},
		{domain.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
		{domain.ErrExtractionFailed, http.StatusUnprocessableEntity, "EXTRACTION_FAILED"},
		{domain.ErrNotAnInvoice, http.StatusUnprocessableEntity, "NOT_AN_INVOICE"},
		{domain.ErrAttachmentMissing, http.StatusNotFound, "ATTACHMENT_MISSING"},
		{errors.New("something else"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		status, code, msg := MapDomainError(tt.err)
		assert.Equal(t, tt.status, status, "status for %v", tt.err)
		assert.Equal(t, tt.code, code, "code for %v", tt.err)
		assert.NotEmpty(t, msg)
	}
}

func TestMapDomainError_WrappedErrorsResolve(t *testing.T) {
	wrapped := fmt.Errorf("approvalService: %w", fmt.Errorf("%w: approved -> approved", domain.ErrInvalidTransition))
	status, code, _ := MapDomainError(wrapped)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", code)
}
