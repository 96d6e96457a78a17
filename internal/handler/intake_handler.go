package handler

import (
	"bytes"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"porecon/internal/port"
	"porecon/internal/service"
)

// IntakeHandler handles invoice file intake endpoints.
type IntakeHandler struct {
	storage          port.ObjectStorage
	reconcileService service.ReconcileService
	bucket           string
	intakePrefix     string
}

// NewIntakeHandler creates a new IntakeHandler.
func NewIntakeHandler(storage port.ObjectStorage, reconcileService service.ReconcileService, bucket, intakePrefix string) *IntakeHandler {
	return &IntakeHandler{
		storage:          storage,
		reconcileService: reconcileService,
		bucket:           bucket,
		intakePrefix:     intakePrefix,
	}
}

// Upload handles POST /api/v1/intake. The file lands under the intake prefix
// and is reconciled by the next cycle. Keys get a UUID prefix so repeated
// uploads of the same filename never collide.
func (h *IntakeHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "could not read uploaded file")
		return
	}

	key := h.intakePrefix + uuid.New().String() + "_" + sanitizeKeyName(header.Filename)
	err = h.storage.Upload(c.Request.Context(), port.UploadInput{
		Bucket:      h.bucket,
		Key:         key,
		Body:        bytes.NewReader(data),
		ContentType: header.Header.Get("Content-Type"),
		Size:        int64(len(data)),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, gin.H{"key": key})
}

// RunCycle handles POST /api/v1/intake/run and triggers a reconciliation
// cycle synchronously.
func (h *IntakeHandler) RunCycle(c *gin.Context) {
	cycle, err := h.reconcileService.RunCycle(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"cycle_id":    cycle.ID,
		"started_at":  cycle.StartedAt,
		"processed":   cycle.Processed,
		"clean":       cycle.Clean,
		"flagged":     cycle.Flagged,
		"skipped":     cycle.Skipped,
		"not_invoice": cycle.NotInvoice,
		"failed":      cycle.Failed,
	})
}

func sanitizeKeyName(name string) string {
	base := path.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	if base == "." || base == "/" || base == "" {
		return "upload"
	}
	return base
}
