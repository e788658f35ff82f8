package ocr

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"

	"formextract/internal/geometry"
	"formextract/internal/logger"
	"formextract/pkg/models"
)

// VisionService implements Service using Google Cloud Vision document text detection.
type VisionService struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

// NewVisionService creates a Vision client from the credentials in cfg,
// falling back to application default credentials.
func NewVisionService(ctx context.Context, cfg Config) (*VisionService, error) {
	const op = "NewVisionService"

	opts, source := clientOptions(cfg)
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if source == "" {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, "failed to create client with "+source)
	}

	return NewVisionServiceWithClient(client), nil
}

// NewVisionServiceWithClient creates a Vision service with an explicit client (for testing).
func NewVisionServiceWithClient(client *vision.ImageAnnotatorClient) *VisionService {
	return &VisionService{
		client: client,
		log:    logger.WithComponent("ocr.vision"),
	}
}

// Analyze implements Service. Images go through BatchAnnotateImages, PDF and
// TIFF files through BatchAnnotateFiles.
func (v *VisionService) Analyze(ctx context.Context, r io.Reader, mimeType string) (*models.OCRResult, error) {
	const op = "VisionService.Analyze"
	startTime := time.Now()

	doc, err := readDocument(op, r, mimeType)
	if err != nil {
		return nil, err
	}

	v.log.Debug().
		Str("mime_type", doc.mimeType).
		Int("size_bytes", len(doc.content)).
		Msg("Sending document to Vision API")

	var pages []*visionpb.AnnotateImageResponse
	if doc.isImage() {
		pages, err = v.annotateImage(ctx, doc)
	} else {
		pages, err = v.annotateFile(ctx, doc)
	}
	if err != nil {
		return nil, WrapOCRError(op, err, "")
	}

	result, err := ConvertVisionPages(pages)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to process Vision API response")
	}

	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	v.log.Info().
		Int("lines", len(result.Text)).
		Int("pages", len(result.Layout)).
		Float64("average_confidence", result.AverageConfidence).
		Dur("duration", result.ProcessingDuration).
		Msg("Vision OCR completed")

	return result, nil
}

func (v *VisionService) annotateImage(ctx context.Context, doc document) ([]*visionpb.AnnotateImageResponse, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: doc.content},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, mapContextError(ctx, fmt.Errorf("%w: Vision API call failed: %v", ErrOCRFailed, err))
	}
	if len(resp.GetResponses()) == 0 {
		return nil, fmt.Errorf("%w: no response from Vision API", ErrOCRFailed)
	}
	return resp.GetResponses(), nil
}

func (v *VisionService) annotateFile(ctx context.Context, doc document) ([]*visionpb.AnnotateImageResponse, error) {
	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  doc.content,
					MimeType: doc.mimeType,
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, mapContextError(ctx, fmt.Errorf("%w: Vision API call failed: %v", ErrOCRFailed, err))
	}
	if len(resp.GetResponses()) == 0 {
		return nil, fmt.Errorf("%w: no response from Vision API", ErrOCRFailed)
	}

	fileResp := resp.GetResponses()[0]
	if fileResp.GetError() != nil {
		return nil, fmt.Errorf("%w: Vision API error: %s", ErrOCRFailed, fileResp.GetError().GetMessage())
	}
	if total := fileResp.GetTotalPages(); total > MaxPagesSync {
		return nil, fmt.Errorf("%w: document has %d pages", ErrTooManyPages, total)
	}
	return fileResp.GetResponses(), nil
}

// Close closes the underlying Vision client.
func (v *VisionService) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}

// ConvertVisionPages turns per-page Vision responses into an OCRResult.
//
// Words are assembled from symbols. A line ends at a LINE_BREAK or
// EOL_SURE_SPACE break and at the end of each paragraph; its box is the union
// of its word boxes and its confidence the mean of its word confidences.
func ConvertVisionPages(pages []*visionpb.AnnotateImageResponse) (*models.OCRResult, error) {
	if len(pages) == 0 {
		return nil, ErrEmptyDocument
	}

	result := &models.OCRResult{
		Text:   []models.TextSpan{},
		Tables: [][]models.TableCell{},
		Layout: []models.PageLayout{},
	}

	for i, resp := range pages {
		if resp.GetError() != nil {
			return nil, fmt.Errorf("%w: error processing page %d: %s", ErrOCRFailed, i+1, resp.GetError().GetMessage())
		}

		pageNumber := i + 1
		if n := resp.GetContext().GetPageNumber(); n > 0 {
			pageNumber = int(n)
		}

		for _, page := range resp.GetFullTextAnnotation().GetPages() {
			layout, lines := convertVisionPage(page, pageNumber)
			result.Layout = append(result.Layout, layout)
			result.Text = append(result.Text, lines...)
		}
	}

	if strings.TrimSpace(result.PlainText()) == "" {
		return nil, ErrEmptyDocument
	}

	result.Backend = string(BackendVision)
	result.AverageConfidence = result.ComputeAverageConfidence()
	return result, nil
}

func convertVisionPage(page *visionpb.Page, pageNumber int) (models.PageLayout, []models.TextSpan) {
	width, height := float64(page.GetWidth()), float64(page.GetHeight())
	layout := models.PageLayout{
		PageNumber: pageNumber,
		Width:      width,
		Height:     height,
		Unit:       "pixel",
		Spans:      []models.TextSpan{},
	}

	var lines []models.TextSpan
	var current lineBuilder

	for _, block := range page.GetBlocks() {
		for _, paragraph := range block.GetParagraphs() {
			for _, word := range paragraph.GetWords() {
				text, lineEnd := wordText(word)
				if strings.TrimSpace(text) == "" {
					continue
				}

				span := models.TextSpan{
					Text:        strings.TrimSpace(text),
					Confidence:  float64(word.GetConfidence()),
					BoundingBox: polygonBox(word.GetBoundingBox(), width, height),
					Page:        pageNumber,
				}
				layout.Spans = append(layout.Spans, span)
				current.add(text, span)

				if lineEnd {
					lines = current.flush(lines, pageNumber)
				}
			}
			lines = current.flush(lines, pageNumber)
		}
	}

	return layout, lines
}

// wordText concatenates the symbols of a word, rendering detected breaks as
// spaces. lineEnd reports a break that ends the line.
func wordText(word *visionpb.Word) (text string, lineEnd bool) {
	var sb strings.Builder
	for _, symbol := range word.GetSymbols() {
		sb.WriteString(symbol.GetText())
		switch symbol.GetProperty().GetDetectedBreak().GetType() {
		case visionpb.TextAnnotation_DetectedBreak_SPACE,
			visionpb.TextAnnotation_DetectedBreak_SURE_SPACE:
			sb.WriteByte(' ')
		case visionpb.TextAnnotation_DetectedBreak_HYPHEN:
			sb.WriteByte('-')
			lineEnd = true
		case visionpb.TextAnnotation_DetectedBreak_EOL_SURE_SPACE,
			visionpb.TextAnnotation_DetectedBreak_LINE_BREAK:
			lineEnd = true
		}
	}
	return sb.String(), lineEnd
}

// polygonBox converts absolute or normalized vertices into a page-space box.
func polygonBox(poly *visionpb.BoundingPoly, width, height float64) *models.BoundingBox {
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

// lineBuilder accumulates words until a line break.
type lineBuilder struct {
	text  strings.Builder
	boxes []*models.BoundingBox
	conf  float64
	words int
}

func (b *lineBuilder) add(text string, word models.TextSpan) {
	b.text.WriteString(text)
	b.boxes = append(b.boxes, word.BoundingBox)
	b.conf += word.Confidence
	b.words++
}

func (b *lineBuilder) flush(lines []models.TextSpan, pageNumber int) []models.TextSpan {
	if b.words == 0 {
		return lines
	}

	line := models.TextSpan{
		Text:       strings.TrimSpace(b.text.String()),
		Confidence: b.conf / float64(b.words),
		Page:       pageNumber,
	}
	if box, ok := geometry.Union(b.boxes...); ok {
		line.BoundingBox = &box
	}

	*b = lineBuilder{}
	return append(lines, line)
}
