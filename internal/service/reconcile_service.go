package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"porecon/internal/approval"
	"porecon/internal/compare"
	"porecon/internal/domain"
	"porecon/internal/extract"
	"porecon/internal/match"
	"porecon/internal/port"
)

// Cycle carries the identity and running counters of one reconciliation run.
// Every pipeline step receives the cycle explicitly; there is no global run
// state.
type Cycle struct {
	ID        uuid.UUID
	StartedAt time.Time

	mu         sync.Mutex
	Processed  int
	Clean      int
	Flagged    int
	Skipped    int
	NotInvoice int
	Failed     int
}

func (c *Cycle) count(f func(*Cycle)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f(c)
}

// IntakeConfig describes where incoming invoice files live and where they
// are moved after processing.
type IntakeConfig struct {
	Bucket          string
	IntakePrefix    string
	ProcessedPrefix string
	FailedPrefix    string
	Concurrency     int
	// AutoApproveClean advances matched records with no discrepancies from
	// pending to approved under the system actor.
	AutoApproveClean bool
}

// ReconcileService drives the intake-to-record pipeline.
type ReconcileService interface {
	// RunCycle processes every object currently under the intake prefix.
	RunCycle(ctx context.Context) (*Cycle, error)
	// ProcessObject runs the full pipeline for a single intake object.
	ProcessObject(ctx context.Context, cycle *Cycle, key string) error
}

type reconcileService struct {
	storage    port.ObjectStorage
	textractor port.TextExtractor
	extractor  *extract.Extractor
	matcher    *match.Matcher
	comparator *compare.Comparator
	invoices   port.InvoiceRecordRepository
	intake     IntakeConfig
}

// NewReconcileService creates a new ReconcileService implementation.
func NewReconcileService(
	storage port.ObjectStorage,
	textractor port.TextExtractor,
	extractor *extract.Extractor,
	matcher *match.Matcher,
	comparator *compare.Comparator,
	invoices port.InvoiceRecordRepository,
	intake IntakeConfig,
) ReconcileService {
	if intake.Concurrency < 1 {
		intake.Concurrency = 1
	}
	return &reconcileService{
		storage:    storage,
		textractor: textractor,
		extractor:  extractor,
		matcher:    matcher,
		comparator: comparator,
		invoices:   invoices,
		intake:     intake,
	}
}

func (s *reconcileService) RunCycle(ctx context.Context) (*Cycle, error) {
	cycle := &Cycle{ID: uuid.New(), StartedAt: time.Now().UTC()}

	objects, err := s.storage.ListPrefix(ctx, s.intake.Bucket, s.intake.IntakePrefix)
	if err != nil {
		return nil, fmt.Errorf("reconcileService.RunCycle: %w", err)
	}
	log.Printf("reconcileService: cycle %s started, %d objects under %s",
		cycle.ID, len(objects), s.intake.IntakePrefix)

	sem := make(chan struct{}, s.intake.Concurrency)
	var wg sync.WaitGroup
	for i := range objects {
		key := objects[i].Key
		if strings.HasSuffix(key, "/") {
			continue // prefix placeholder objects
		}

		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.ProcessObject(ctx, cycle, key); err != nil {
				cycle.count(func(c *Cycle) { c.Failed++ })
				log.Printf("reconcileService: cycle %s object %s: %v", cycle.ID, key, err)
			}
		}()
	}
	wg.Wait()

	log.Printf("reconcileService: cycle %s done (processed=%d clean=%d flagged=%d skipped=%d not_invoice=%d failed=%d)",
		cycle.ID, cycle.Processed, cycle.Clean, cycle.Flagged, cycle.Skipped, cycle.NotInvoice, cycle.Failed)
	return cycle, nil
}

// ProcessObject reconciles one intake object. Each object is atomic: either
// a record is created and the file moved out of intake, or nothing is
// persisted and the file stays (or moves to the failed prefix) for a later
// cycle. A failure on one object never aborts the rest of the cycle.
func (s *reconcileService) ProcessObject(ctx context.Context, cycle *Cycle, key string) error {
	sourceRef := key

	// Files already reconciled are skipped even if a previous move failed.
	if _, err := s.invoices.GetBySourceReference(ctx, sourceRef); err == nil {
		cycle.count(func(c *Cycle) { c.Skipped++ })
		return s.moveObject(ctx, key, s.intake.ProcessedPrefix)
	} else if !errors.Is(err, domain.ErrInvoiceNotFound) {
		return err
	}

	data, err := s.storage.Download(ctx, s.intake.Bucket, key)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrAttachmentMissing, key)
	}

	text, err := s.textractor.ExtractText(ctx, port.ExtractInput{FileBytes: data, Filename: path.Base(key)})
	if err != nil {
		if errors.Is(err, domain.ErrExtractionFailed) {
			// Park the file; a fixed backend can pick it up manually.
			if merr := s.moveObject(ctx, key, s.intake.FailedPrefix); merr != nil {
				return merr
			}
		}
		return err
	}

	if !extract.LooksLikeInvoice(text) {
		cycle.count(func(c *Cycle) { c.NotInvoice++ })
		log.Printf("reconcileService: %s does not look like an invoice, moving on", key)
		return s.moveObject(ctx, key, s.intake.ProcessedPrefix)
	}

	draft := s.extractor.Extract(text, sourceRef, &extract.Hint{Filename: path.Base(key)})

	result, err := s.matcher.Match(ctx, draft)
	if err != nil {
		// Repository unavailable: leave the file in intake for the next cycle.
		return err
	}

	var discrepancies []domain.Discrepancy
	var matchedPO *string
	if result.Matched {
		discrepancies = s.comparator.Compare(draft, result.PO)
		matchedPO = &result.PO.PONumber
	}

	rec, err := buildRecord(draft, matchedPO, discrepancies)
	if err != nil {
		return err
	}

	if err := s.invoices.Create(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrDuplicateInvoice) {
			cycle.count(func(c *Cycle) { c.Skipped++ })
			return s.moveObject(ctx, key, s.intake.ProcessedPrefix)
		}
		return err
	}

	clean := result.Matched && len(discrepancies) == 0
	if clean && s.intake.AutoApproveClean {
		if err := s.autoApprove(ctx, rec); err != nil {
			// The record stays pending for a human decision.
			log.Printf("reconcileService: auto approval of invoice %s: %v", rec.InvoiceID, err)
		}
	}

	cycle.count(func(c *Cycle) {
		c.Processed++
		if clean {
			c.Clean++
		} else {
			c.Flagged++
		}
	})
	log.Printf("reconcileService: recorded invoice %s (%s) from %s as %s",
		rec.InvoiceID, rec.InvoiceNumber, key, rec.ApprovalStatus)

	return s.moveObject(ctx, key, s.intake.ProcessedPrefix)
}

// autoApprove records the automatic pending to approved transition for a
// clean invoice under the system actor.
func (s *reconcileService) autoApprove(ctx context.Context, rec *domain.InvoiceRecord) error {
	if err := approval.Authorize(rec.ApprovalStatus, domain.ApprovalApproved, domain.SystemActor, false); err != nil {
		return err
	}
	now := time.Now().UTC()
	if err := s.invoices.UpdateApproval(ctx, rec.InvoiceID, rec.ApprovalStatus, domain.ApprovalApproved, domain.SystemActor, now); err != nil {
		return err
	}
	actor := domain.SystemActor
	rec.ApprovalStatus = domain.ApprovalApproved
	rec.DecidedBy = &actor
	rec.DecidedAt = &now
	return nil
}

// buildRecord freezes the pipeline outcome into a persistable invoice record.
func buildRecord(draft *domain.InvoiceDraft, matchedPO *string, discrepancies []domain.Discrepancy) (*domain.InvoiceRecord, error) {
	discJSON, err := json.Marshal(discrepancies)
	if err != nil {
		return nil, fmt.Errorf("marshal discrepancies: %w", err)
	}

	rec := &domain.InvoiceRecord{
		InvoiceID:       uuid.New(),
		VendorName:      draft.VendorName,
		Currency:        draft.Currency,
		SourceReference: draft.SourceReference,
		MatchedPONumber: matchedPO,
		Discrepancies:   discJSON,
		LineItems:       draft.LineItems,
		ApprovalStatus:  approval.Initial(matchedPO != nil, compare.HasBlocking(discrepancies)),
	}
	if draft.Has(domain.FieldInvoiceNo) {
		rec.InvoiceNumber = draft.InvoiceNumber
	}
	if draft.Has(domain.FieldPOReference) {
		ref := draft.POReference
		rec.POReference = &ref
	}
	if draft.Has(domain.FieldInvoiceDate) {
		d := draft.InvoiceDate
		rec.InvoiceDate = &d
	}
	if draft.Has(domain.FieldDueDate) {
		d := draft.DueDate
		rec.DueDate = &d
	}
	if draft.Has(domain.FieldTotalAmount) {
		t := draft.TotalAmount
		rec.TotalAmount = &t
	}
	return rec, nil
}

// moveObject relocates an intake object under the given prefix, preserving
// the base name. Copy-then-delete; a failure between the two leaves a
// duplicate which the source reference check makes harmless.
func (s *reconcileService) moveObject(ctx context.Context, key, prefix string) error {
	data, err := s.storage.Download(ctx, s.intake.Bucket, key)
	if err != nil {
		return fmt.Errorf("move %s: %w", key, err)
	}
	dest := prefix + path.Base(key)
	err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.intake.Bucket,
		Key:         dest,
		Body:        bytes.NewReader(data),
		ContentType: "application/octet-stream",
		Size:        int64(len(data)),
	})
	if err != nil {
		return fmt.Errorf("move %s: %w", key, err)
	}
	if err := s.storage.Delete(ctx, s.intake.Bucket, key); err != nil {
		return fmt.Errorf("move %s: %w", key, err)
	}
	return nil
}
