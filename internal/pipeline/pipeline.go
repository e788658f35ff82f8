// Package pipeline wires OCR, structured extraction and validation into a
// single pass over one claim form.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"formextract/internal/extraction"
	"formextract/internal/logger"
	"formextract/internal/ocr"
	"formextract/internal/validation"
	"formextract/pkg/models"
	"formextract/pkg/services"
)

// Stage errors wrap the underlying OCR or extraction error.
var (
	ErrOCRStage        = errors.New("OCR failed")
	ErrExtractionStage = errors.New("extraction failed")
)

// Pipeline implements services.ClaimProcessor.
type Pipeline struct {
	ocr       ocr.Service
	extractor extraction.Extractor
	validator *validation.Validator
	now       func() time.Time
	log       zerolog.Logger
}

var _ services.ClaimProcessor = (*Pipeline)(nil)

// New creates a pipeline from its three stages.
func New(ocrService ocr.Service, extractor extraction.Extractor, validator *validation.Validator) *Pipeline {
	return &Pipeline{
		ocr:       ocrService,
		extractor: extractor,
		validator: validator,
		now:       time.Now,
		log:       logger.WithComponent("pipeline"),
	}
}

// ProcessClaim runs OCR on document, extracts the form fields from the OCR
// text and validates them. The MIME type is taken from source's extension
// and sniffed from the content when unknown.
func (p *Pipeline) ProcessClaim(ctx context.Context, document io.Reader, source string) (*services.ClaimReport, error) {
	log := logger.WithDocument("pipeline", source)
	startTime := p.now()

	log.Info().Msg("Running OCR")
	ocrResult, err := p.ocr.Analyze(ctx, document, ocr.MimeTypeFor(source))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOCRStage, err)
	}

	log.Info().
		Int("lines", len(ocrResult.Text)).
		Float64("average_confidence", ocrResult.AverageConfidence).
		Msg("Extracting structured fields")
	structured, err := p.extractor.Extract(ctx, ocrResult.PlainText())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionStage, err)
	}

	extractedAt := p.now()
	report := &services.ClaimReport{
		Record: models.ExtractionRecord{
			ID:          RecordID(extractedAt),
			SourceFile:  source,
			OCR:         ocrResult,
			Extraction:  structured,
			ExtractedAt: extractedAt,
		},
		Validation:  p.ValidateClaim(structured, ocrResult),
		Spans:       p.validator.ValidateExtraction(ocrResult),
		GeneratedAt: p.now(),
	}

	log.Info().
		Str("record_id", report.Record.ID).
		Float64("completeness", report.Validation.Completeness.Score).
		Float64("accuracy", report.Validation.Accuracy.Score).
		Int("errors", report.Errors()).
		Dur("duration", report.GeneratedAt.Sub(startTime)).
		Msg("Claim processed")

	return report, nil
}

// ValidateClaim validates a structured extraction against its OCR result.
func (p *Pipeline) ValidateClaim(structured models.StructuredExtraction, ocrResult *models.OCRResult) *validation.ValidationResult {
	return p.validator.ValidateExtractedData(structured, ocrResult)
}

// RecordID names an extraction record, e.g. "extraction_20250601_120000_1b4e28ba".
func RecordID(at time.Time) string {
	return fmt.Sprintf("extraction_%s_%s", at.Format("20060102_150405"), uuid.NewString()[:8])
}
