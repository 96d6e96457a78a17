// Package textract turns incoming invoice files into plain text for field
// extraction. Only text payloads are supported; binary formats are rejected
// so the caller can park the file for manual handling.
package textract

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"porecon/internal/domain"
	"porecon/internal/port"
)

// PlainTextExtractor implements port.TextExtractor for text payloads.
type PlainTextExtractor struct{}

// New creates a PlainTextExtractor.
func New() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// ExtractText returns the file content as text when the detected MIME type
// is in the text family. Anything else wraps domain.ErrExtractionFailed.
func (e *PlainTextExtractor) ExtractText(_ context.Context, input port.ExtractInput) (string, error) {
	if len(input.FileBytes) == 0 {
		return "", fmt.Errorf("textract.ExtractText: %s: empty file: %w", input.Filename, domain.ErrExtractionFailed)
	}
	detected := mimetype.Detect(input.FileBytes)
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return normalize(string(input.FileBytes)), nil
		}
	}
	return "", fmt.Errorf("textract.ExtractText: %s: unsupported type %s: %w",
		input.Filename, detected.String(), domain.ErrExtractionFailed)
}

// normalize unifies line endings so downstream line-oriented rules see \n.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
