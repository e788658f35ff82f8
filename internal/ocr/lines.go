package ocr

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"formextract/pkg/models"
)

// recognizedBox is one line or word reported by Tesseract, with confidence on
// its native 0-100 scale.
type recognizedBox struct {
	Box        image.Rectangle
	Text       string
	Confidence float64
}

// convertRecognized builds a single-page OCRResult from Tesseract text lines
// and words. Blank entries are dropped.
func convertRecognized(lines, words []recognizedBox, width, height int) *models.OCRResult {
	layout := models.PageLayout{
		PageNumber: 1,
		Width:      float64(width),
		Height:     float64(height),
		Unit:       "pixel",
		Spans:      toSpans(words),
	}

	result := &models.OCRResult{
		Text:    toSpans(lines),
		Tables:  [][]models.TableCell{},
		Layout:  []models.PageLayout{layout},
		Backend: string(BackendTesseract),
	}
	result.AverageConfidence = result.ComputeAverageConfidence()
	return result
}

func toSpans(boxes []recognizedBox) []models.TextSpan {
	spans := make([]models.TextSpan, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Text)
		if text == "" {
			continue
		}
		spans = append(spans, models.TextSpan{
			Text:        text,
			Confidence:  clamp01(b.Confidence / 100),
			BoundingBox: rectangleBox(b.Box),
			Page:        1,
		})
	}
	return spans
}

func rectangleBox(r image.Rectangle) *models.BoundingBox {
	r = r.Canon()
	return &models.BoundingBox{
		X:      float64(r.Min.X),
		Y:      float64(r.Min.Y),
		Width:  float64(r.Dx()),
		Height: float64(r.Dy()),
	}
}

func clamp01(v float64) float64 {
	return max(0, min(v, 1))
}

// imageSize reads the pixel dimensions of any supported image format
// without decoding the pixels.
func imageSize(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
