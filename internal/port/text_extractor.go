package port

import "context"

// ExtractInput carries the raw bytes of an incoming invoice file.
type ExtractInput struct {
	FileBytes []byte
	Filename  string
}

// TextExtractor converts an incoming file into plain text suitable for
// field extraction. Unsupported formats return domain.ErrExtractionFailed.
type TextExtractor interface {
	ExtractText(ctx context.Context, input ExtractInput) (string, error)
}
