package services

import (
	"context"
	"io"
	"time"

	"formextract/internal/validation"
	"formextract/pkg/models"
)

// ClaimProcessor runs a scanned claim form through OCR, structured extraction
// and validation.
type ClaimProcessor interface {
	// ProcessClaim reads a PDF or image and returns the extracted fields with their validation report
	ProcessClaim(ctx context.Context, document io.Reader, source string) (*ClaimReport, error)

	// ValidateClaim validates an extraction that was produced earlier
	ValidateClaim(structured models.StructuredExtraction, ocr *models.OCRResult) *validation.ValidationResult
}

// ClaimReport is the complete outcome of processing one form
type ClaimReport struct {
	Record     models.ExtractionRecord         `json:"record"`     // OCR output and extracted fields
	Validation *validation.ValidationResult    `json:"validation"` // Field-level validation
	Spans      validation.ExtractionValidation `json:"spans"`      // Raw OCR line validation

	// Metadata
	GeneratedAt time.Time `json:"generated_at"`
}

// Errors returns the number of error-severity findings.
func (r *ClaimReport) Errors() int {
	if r == nil || r.Validation == nil {
		return 0
	}
	return r.Validation.Count(validation.SeverityError)
}
