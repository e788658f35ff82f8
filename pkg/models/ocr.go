package models

import (
	"strings"
	"time"
)

// BoundingBox is an axis-aligned rectangle in page coordinates.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns width*height.
func (b BoundingBox) Area() float64 {
	return b.Width * b.Height
}

// TextSpan is one line or word recognized by the OCR service.
type TextSpan struct {
	Text        string       `json:"text"`
	Confidence  float64      `json:"confidence"`
	BoundingBox *BoundingBox `json:"bounding_box,omitempty"`
	Page        int          `json:"page,omitempty"`
}

// TableCell is one cell of a table detected on the page.
type TableCell struct {
	Text        string       `json:"text"`
	RowIndex    int          `json:"row_index"`
	ColumnIndex int          `json:"column_index"`
	Confidence  *float64     `json:"confidence"`
	BoundingBox *BoundingBox `json:"bounding_box,omitempty"`
}

// PageLayout describes a page and its word-level spans.
type PageLayout struct {
	PageNumber int        `json:"page_number"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	Unit       string     `json:"unit,omitempty"`
	Spans      []TextSpan `json:"spans"`
}

// OCRResult is the document-level output of an OCR backend.
type OCRResult struct {
	// Text holds line-level spans in reading order.
	Text []TextSpan `json:"text"`

	// Tables holds the cells of every detected table, one slice per table.
	Tables [][]TableCell `json:"tables"`

	// Layout holds per-page dimensions and word-level spans.
	Layout []PageLayout `json:"layout"`

	// AverageConfidence is the mean word confidence across all pages (0.0 to 1.0).
	AverageConfidence float64 `json:"average_confidence"`

	// Backend names the OCR service that produced the result.
	Backend string `json:"backend,omitempty"`

	// ProcessedAt is the timestamp when the OCR processing completed.
	ProcessedAt time.Time `json:"processed_at,omitempty"`

	// ProcessingDuration is how long the OCR processing took.
	ProcessingDuration time.Duration `json:"processing_duration,omitempty"`
}

// PlainText joins the line spans with newlines, which is the form sent to the LLM.
func (r *OCRResult) PlainText() string {
	if r == nil {
		return ""
	}
	lines := make([]string, 0, len(r.Text))
	for _, span := range r.Text {
		lines = append(lines, span.Text)
	}
	return strings.Join(lines, "\n")
}

// Page returns the layout of the given 1-based page number.
func (r *OCRResult) Page(number int) (PageLayout, bool) {
	if r == nil {
		return PageLayout{}, false
	}
	for _, page := range r.Layout {
		if page.PageNumber == number {
			return page, true
		}
	}
	return PageLayout{}, false
}

// ComputeAverageConfidence returns the mean confidence of all layout spans.
func (r *OCRResult) ComputeAverageConfidence() float64 {
	var sum float64
	var count int
	for _, page := range r.Layout {
		for _, span := range page.Spans {
			sum += span.Confidence
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
