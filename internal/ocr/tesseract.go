//go:build tesseract

package ocr

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	"formextract/internal/logger"
	"formextract/pkg/models"
)

// DefaultLanguages are used when Config.Languages is empty.
var DefaultLanguages = []string{"heb", "eng"}

// TesseractService implements Service with a local Tesseract installation.
// It accepts images only.
//
// Tesseract must be installed on the system. On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr tesseract-ocr-heb
type TesseractService struct {
	languages []string
	log       zerolog.Logger
}

// NewTesseractService creates a Tesseract backend for the configured languages.
func NewTesseractService(cfg Config) (*TesseractService, error) {
	languages := cfg.Languages
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	return &TesseractService{
		languages: languages,
		log:       logger.WithComponent("ocr.tesseract"),
	}, nil
}

// Analyze implements Service. A gosseract client is not safe for concurrent
// use, so each call creates its own.
func (t *TesseractService) Analyze(ctx context.Context, r io.Reader, mimeType string) (*models.OCRResult, error) {
	const op = "TesseractService.Analyze"
	startTime := time.Now()

	doc, err := readDocument(op, r, mimeType)
	if err != nil {
		return nil, err
	}
	if doc.mimeType == MimePDF {
		return nil, WrapOCRError(op, ErrUnsupportedFormat, "Tesseract accepts images only")
	}
	if err := ctx.Err(); err != nil {
		return nil, WrapOCRError(op, mapContextError(ctx, err), "")
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, fmt.Sprintf("languages %v: %v", t.languages, err))
	}
	if err := client.SetImageFromBytes(doc.content); err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("failed to set image: %v", err))
	}

	lines, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("line recognition failed: %v", err))
	}
	words, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("word recognition failed: %v", err))
	}

	width, height, err := imageSize(doc.content)
	if err != nil {
		t.log.Warn().Err(err).Msg("Could not read image dimensions")
	}

	result := convertRecognized(fromGosseract(lines), fromGosseract(words), width, height)
	if len(result.Text) == 0 {
		return nil, WrapOCRError(op, ErrEmptyDocument, "")
	}

	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	t.log.Info().
		Int("lines", len(result.Text)).
		Float64("average_confidence", result.AverageConfidence).
		Dur("duration", result.ProcessingDuration).
		Msg("Tesseract OCR completed")

	return result, nil
}

// Close implements Service.
func (t *TesseractService) Close() error {
	return nil
}

func fromGosseract(boxes []gosseract.BoundingBox) []recognizedBox {
	out := make([]recognizedBox, 0, len(boxes))
	for _, b := range boxes {
		out = append(out, recognizedBox{Box: b.Box, Text: b.Word, Confidence: b.Confidence})
	}
	return out
}
