package domain

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrPONotFound        = errors.New("purchase order not found")
	ErrDuplicatePO       = errors.New("purchase order number already exists")
	ErrPOTotalMismatch   = errors.New("purchase order total does not equal sum of line item subtotals")
	ErrInvalidPOStatus   = errors.New("invalid purchase order status; allowed: draft, approved, closed")
	ErrInvoiceNotFound   = errors.New("invoice record not found")
	ErrDuplicateInvoice  = errors.New("invoice already processed for this source reference")
	ErrInvalidTransition = errors.New("invalid approval transition")
	ErrExtractionFailed  = errors.New("text extraction backend failed")
	ErrNotAnInvoice      = errors.New("attachment does not look like an invoice")
	ErrAttachmentMissing = errors.New("attachment not found in storage")
)
