//go:build !tesseract

package ocr

import (
	"context"
	"io"

	"formextract/pkg/models"
)

// TesseractService is the stub used when the "tesseract" build tag is not
// set. To enable offline OCR, install Tesseract and rebuild:
//
//	go build -tags tesseract
type TesseractService struct{}

// NewTesseractService always returns ErrTesseractNotEnabled.
func NewTesseractService(cfg Config) (*TesseractService, error) {
	return nil, WrapOCRError("NewTesseractService", ErrTesseractNotEnabled, "")
}

// Analyze always returns ErrTesseractNotEnabled.
func (t *TesseractService) Analyze(ctx context.Context, r io.Reader, mimeType string) (*models.OCRResult, error) {
	return nil, WrapOCRError("TesseractService.Analyze", ErrTesseractNotEnabled, "")
}

// Close is a no-op.
func (t *TesseractService) Close() error {
	return nil
}
