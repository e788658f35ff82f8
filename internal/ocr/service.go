// Package ocr turns scanned claim forms into text lines, word layout and
// tables with bounding boxes and confidences.
//
// Three backends are available:
//   - Google Cloud Vision (document text detection), for images and PDFs up to 5 pages
//   - Google Document AI (OCR or form processor), for images and PDFs, including tables
//   - Tesseract via gosseract, offline, for images only; requires the "tesseract" build tag
//
// Credentials for the Google backends come from GOOGLE_CREDENTIALS (inline JSON)
// or GOOGLE_APPLICATION_CREDENTIALS (file path), falling back to application
// default credentials.
//
// Every backend returns a models.OCRResult: one span per text line in Text,
// one span per word in each page's Layout, table cells in Tables and the mean
// word confidence in AverageConfidence.
package ocr

import (
	"context"
	"fmt"
	"io"
	"strings"

	"formextract/pkg/models"
)

// Service extracts text with geometry from a document.
type Service interface {
	// Analyze runs OCR on a PDF or image. mimeType may be empty, in which case
	// it is detected from the content.
	Analyze(ctx context.Context, document io.Reader, mimeType string) (*models.OCRResult, error)

	// Close releases the backend's client.
	Close() error
}

// Backend names an OCR implementation.
type Backend string

const (
	BackendVision     Backend = "vision"
	BackendDocumentAI Backend = "documentai"
	BackendTesseract  Backend = "tesseract"
)

// ParseBackend accepts a backend name in any case.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(name))); b {
	case BackendVision, BackendDocumentAI, BackendTesseract:
		return b, nil
	case "":
		return BackendVision, nil
	default:
		return "", fmt.Errorf("%w: unknown backend %q (want vision, documentai or tesseract)", ErrInvalidConfiguration, name)
	}
}

// Config selects and configures a backend.
type Config struct {
	Backend Backend

	// Google credentials shared by the Vision and Document AI backends.
	CredentialsJSON string
	CredentialsFile string

	// Document AI processor coordinates.
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string

	// Languages are Tesseract language codes, e.g. "heb", "eng".
	Languages []string
}

// New creates the backend named in cfg.
func New(ctx context.Context, cfg Config) (Service, error) {
	const op = "New"

	var (
		svc Service
		err error
	)
	switch cfg.Backend {
	case BackendVision, "":
		svc, err = NewVisionService(ctx, cfg)
	case BackendDocumentAI:
		svc, err = NewDocumentAIService(ctx, cfg)
	case BackendTesseract:
		svc, err = NewTesseractService(cfg)
	default:
		return nil, WrapOCRError(op, ErrInvalidConfiguration, fmt.Sprintf("unknown backend %q", cfg.Backend))
	}
	if err != nil {
		return nil, err
	}
	return svc, nil
}
