package textract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"porecon/internal/domain"
	"porecon/internal/port"
)

func TestExtractText_PlainText(t *testing.T) {
	text, err := New().ExtractText(context.Background(), port.ExtractInput{
		FileBytes: []byte("Invoice # INV-001\nTotal: 1800.00\n"),
		Filename:  "inv.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, "Invoice # INV-001\nTotal: 1800.00\n", text)
}

func TestExtractText_NormalizesLineEndings(t *testing.T) {
	text, err := New().ExtractText(context.Background(), port.ExtractInput{
		FileBytes: []byte("Invoice # INV-001\r\nTotal: 1800.00\rDue: soon"),
		Filename:  "inv.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, "Invoice # INV-001\nTotal: 1800.00\nDue: soon", text)
}

func TestExtractText_EmptyFile(t *testing.T) {
	_, err := New().ExtractText(context.Background(), port.ExtractInput{Filename: "empty.txt"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestExtractText_BinaryRejected(t *testing.T) {
	// PNG magic bytes followed by junk.
	png := append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 64)...)

	_, err := New().ExtractText(context.Background(), port.ExtractInput{
		FileBytes: png,
		Filename:  "scan.png",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Contains(t, err.Error(), "scan.png")
}
