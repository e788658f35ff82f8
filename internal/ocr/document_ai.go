package ocr

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"formextract/internal/geometry"
	"formextract/internal/logger"
	"formextract/pkg/models"
)

// DefaultProcessTimeout bounds a single ProcessDocument call.
const DefaultProcessTimeout = 60 * time.Second

// DocumentAIService implements Service using a Google Document AI OCR or form parser processor.
type DocumentAIService struct {
	client  *documentai.DocumentProcessorClient
	config  Config
	timeout time.Duration
	log     zerolog.Logger
}

// NewDocumentAIService creates a processor client. ProjectID and ProcessorID
// are required; Location defaults to "us".
func NewDocumentAIService(ctx context.Context, cfg Config) (*DocumentAIService, error) {
	const op = "NewDocumentAIService"

	if cfg.ProjectID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "GOOGLE_CLOUD_PROJECT is required")
	}
	if cfg.ProcessorID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if cfg.Location == "" {
		cfg.Location = "us"
	}

	clientOptions, source := clientOptions(cfg)
	if endpoint := regionalEndpoint(cfg.Location); endpoint != "" {
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if source == "" {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", cfg.Location))
	}

	return NewDocumentAIServiceWithClient(cfg, client), nil
}

// NewDocumentAIServiceWithClient creates a service with explicit config and client (for testing).
func NewDocumentAIServiceWithClient(cfg Config, client *documentai.DocumentProcessorClient) *DocumentAIService {
	if cfg.Location == "" {
		cfg.Location = "us"
	}
	return &DocumentAIService{
		client:  client,
		config:  cfg,
		timeout: DefaultProcessTimeout,
		log:     logger.WithComponent("ocr.document-ai"),
	}
}

// Analyze implements Service.
func (s *DocumentAIService) Analyze(ctx context.Context, r io.Reader, mimeType string) (*models.OCRResult, error) {
	const op = "DocumentAIService.Analyze"
	startTime := time.Now()

	doc, err := readDocument(op, r, mimeType)
	if err != nil {
		return nil, err
	}

	processCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: ProcessorName(s.config),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  doc.content,
				MimeType: doc.mimeType,
			},
		},
	}

	s.log.Debug().
		Str("processor", req.Name).
		Str("mime_type", doc.mimeType).
		Int("size_bytes", len(doc.content)).
		Msg("Sending document to Document AI")

	resp, err := s.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, s.handleProcessingError(op, err)
	}
	if resp.GetDocument() == nil {
		return nil, WrapOCRError(op, ErrOCRFailed, "no document in response")
	}

	result, err := ConvertDocument(resp.GetDocument())
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to convert Document AI response")
	}

	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	s.log.Info().
		Int("lines", len(result.Text)).
		Int("tables", len(result.Tables)).
		Float64("average_confidence", result.AverageConfidence).
		Dur("duration", result.ProcessingDuration).
		Msg("Document AI OCR completed")

	return result, nil
}

// Close closes the underlying Document AI client.
func (s *DocumentAIService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// ProcessorName constructs the full processor resource name for the Document AI API.
func ProcessorName(cfg Config) string {
	location := cfg.Location
	if location == "" {
		location = "us"
	}
	if cfg.ProcessorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			cfg.ProjectID, location, cfg.ProcessorID, cfg.ProcessorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		cfg.ProjectID, location, cfg.ProcessorID)
}

// regionalEndpoint returns the API endpoint for non-US locations.
func regionalEndpoint(location string) string {
	if location == "" || location == "us" {
		return ""
	}
	return fmt.Sprintf("%s-documentai.googleapis.com:443", location)
}

// handleProcessingError converts Document AI errors to OCR sentinel errors.
func (s *DocumentAIService) handleProcessingError(op string, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED"), strings.Contains(errStr, "PermissionDenied"):
		return WrapOCRError(op, ErrMissingCredentials, "insufficient permissions for Document AI")
	case strings.Contains(errStr, "QUOTA_EXCEEDED"), strings.Contains(errStr, "ResourceExhausted"):
		return WrapOCRError(op, ErrQuotaExceeded, "Document AI API quota exceeded")
	case strings.Contains(errStr, "NOT_FOUND"), strings.Contains(errStr, "NotFound"):
		return WrapOCRError(op, ErrProcessorNotFound, fmt.Sprintf("processor not found: %s", s.config.ProcessorID))
	case strings.Contains(errStr, "INVALID_ARGUMENT"), strings.Contains(errStr, "InvalidArgument"):
		return WrapOCRError(op, ErrUnsupportedFormat, "document format not supported or corrupted")
	case strings.Contains(errStr, "DeadlineExceeded") || strings.Contains(errStr, "context deadline exceeded"):
		return WrapOCRError(op, context.DeadlineExceeded, "processing timeout")
	case strings.Contains(errStr, "Canceled") || strings.Contains(errStr, "context canceled"):
		return WrapOCRError(op, ErrContextCanceled, "processing was canceled")
	default:
		return WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// ConvertDocument turns a processed Document AI document into an OCRResult:
// page lines become Text, tokens become the page layout and tables keep
// their header rows ahead of their body rows.
func ConvertDocument(doc *documentaipb.Document) (*models.OCRResult, error) {
	if doc == nil || len(doc.GetPages()) == 0 {
		return nil, ErrEmptyDocument
	}

	text := []rune(doc.GetText())
	result := &models.OCRResult{
		Text:   []models.TextSpan{},
		Tables: [][]models.TableCell{},
		Layout: []models.PageLayout{},
	}

	for i, page := range doc.GetPages() {
		pageNumber := int(page.GetPageNumber())
		if pageNumber == 0 {
			pageNumber = i + 1
		}
		dim := page.GetDimension()
		width, height := float64(dim.GetWidth()), float64(dim.GetHeight())

		layout := models.PageLayout{
			PageNumber: pageNumber,
			Width:      width,
			Height:     height,
			Unit:       dim.GetUnit(),
			Spans:      []models.TextSpan{},
		}

		for _, token := range page.GetTokens() {
			if span, ok := layoutSpan(token.GetLayout(), text, width, height, pageNumber); ok {
				layout.Spans = append(layout.Spans, span)
			}
		}
		for _, line := range page.GetLines() {
			if span, ok := layoutSpan(line.GetLayout(), text, width, height, pageNumber); ok {
				result.Text = append(result.Text, span)
			}
		}
		for _, table := range page.GetTables() {
			result.Tables = append(result.Tables, convertTable(table, text, width, height))
		}

		result.Layout = append(result.Layout, layout)
	}

	if strings.TrimSpace(result.PlainText()) == "" {
		return nil, ErrEmptyDocument
	}

	result.Backend = string(BackendDocumentAI)
	result.AverageConfidence = result.ComputeAverageConfidence()
	return result, nil
}

func layoutSpan(layout *documentaipb.Document_Page_Layout, text []rune, width, height float64, pageNumber int) (models.TextSpan, bool) {
	content := strings.TrimSpace(anchorText(layout.GetTextAnchor(), text))
	if content == "" {
		return models.TextSpan{}, false
	}
	return models.TextSpan{
		Text:        content,
		Confidence:  float64(layout.GetConfidence()),
		BoundingBox: documentAIBox(layout.GetBoundingPoly(), width, height),
		Page:        pageNumber,
	}, true
}

func convertTable(table *documentaipb.Document_Page_Table, text []rune, width, height float64) []models.TableCell {
	rows := append(append([]*documentaipb.Document_Page_Table_TableRow{}, table.GetHeaderRows()...), table.GetBodyRows()...)

	cells := []models.TableCell{}
	for rowIndex, row := range rows {
		column := 0
		for _, cell := range row.GetCells() {
			layout := cell.GetLayout()
			confidence := float64(layout.GetConfidence())
			cells = append(cells, models.TableCell{
				Text:        strings.TrimSpace(anchorText(layout.GetTextAnchor(), text)),
				RowIndex:    rowIndex,
				ColumnIndex: column,
				Confidence:  &confidence,
				BoundingBox: documentAIBox(layout.GetBoundingPoly(), width, height),
			})
			if span := int(cell.GetColSpan()); span > 1 {
				column += span
			} else {
				column++
			}
		}
	}
	return cells
}

// anchorText resolves a text anchor against the document text. Offsets are
// code point indices and are clamped to the text.
func anchorText(anchor *documentaipb.Document_TextAnchor, text []rune) string {
	if anchor == nil {
		return ""
	}
	if content := anchor.GetContent(); content != "" {
		return content
	}

	var sb strings.Builder
	for _, segment := range anchor.GetTextSegments() {
		start := clamp(int(segment.GetStartIndex()), 0, len(text))
		end := clamp(int(segment.GetEndIndex()), start, len(text))
		sb.WriteString(string(text[start:end]))
	}
	return sb.String()
}

func documentAIBox(poly *documentaipb.BoundingPoly, width, height float64) *models.BoundingBox {
	var points []geometry.Point
	if vertices := poly.GetVertices(); len(vertices) > 0 {
		for _, vertex := range vertices {
			points = append(points, geometry.Point{X: float64(vertex.GetX()), Y: float64(vertex.GetY())})
		}
	} else if normalized := poly.GetNormalizedVertices(); len(normalized) > 0 {
		for _, vertex := range normalized {
			points = append(points, geometry.Point{X: float64(vertex.GetX()) * width, Y: float64(vertex.GetY()) * height})
		}
	} else {
		return nil
	}

	box := geometry.FromPoints(points)
	return &box
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
