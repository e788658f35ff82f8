package validation

import (
	"strings"

	"formextract/internal/geometry"
	"formextract/pkg/models"
)

// PageDims are the width and height of a page in the same units as its boxes.
type PageDims struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ValidateSpatialPosition scores where a field was found against its expected
// zone: 1 when the normalized top-left corner lies in both ranges, 0.5 for
// one, 0 for neither. Fields without a zone score 1.
func (v *Validator) ValidateSpatialPosition(field string, position models.BoundingBox, page PageDims) float64 {
	zone, ok := v.rules.ExpectedZones[field]
	if !ok {
		return 1.0
	}
	if page.Width <= 0 || page.Height <= 0 {
		v.log.Warn().
			Str("field", field).
			Float64("page_width", page.Width).
			Float64("page_height", page.Height).
			Msg("Page dimensions unusable, spatial position not checked")
		return 1.0
	}

	x := position.X / page.Width
	y := position.Y / page.Height
	xValid := zone.XRange.Contains(x)
	yValid := zone.YRange.Contains(y)

	switch {
	case xValid && yValid:
		v.log.Debug().Str("field", field).Float64("x", x).Float64("y", y).Msg("Spatial position valid")
		return 1.0
	case xValid || yValid:
		v.log.Info().
			Str("field", field).
			Float64("x", x).Bool("x_valid", xValid).
			Float64("y", y).Bool("y_valid", yValid).
			Msg("Spatial position partially valid")
		return 0.5
	default:
		v.log.Warn().
			Str("field", field).
			Float64("x", x).
			Float64("y", y).
			Floats64("expected_x", zone.XRange[:]).
			Floats64("expected_y", zone.YRange[:]).
			Msg("Invalid spatial position")
		return 0.0
	}
}

// spatialCoherence is 1 minus the mean IoU of bbox against every other
// element, scaled by the overlap threshold and floored at 0. Elements whose
// box equals bbox are the element itself and are skipped.
func (v *Validator) spatialCoherence(bbox *models.BoundingBox, elements []*models.BoundingBox) float64 {
	var (
		total float64
		count int
	)
	for _, other := range elements {
		if geometry.SameBox(bbox, other) {
			continue
		}
		total += geometry.IoU(bbox, other)
		count++
	}
	if count == 0 {
		return 1.0
	}

	avg := total / float64(count)
	return 1 - min(avg/v.rules.OverlapThreshold, 1)
}

// elementBoxes lists the boxes of all lines and table cells of a result.
func elementBoxes(ocr *models.OCRResult) []*models.BoundingBox {
	boxes := make([]*models.BoundingBox, 0, len(ocr.Text))
	for i := range ocr.Text {
		boxes = append(boxes, ocr.Text[i].BoundingBox)
	}
	for _, row := range ocr.Tables {
		for i := range row {
			boxes = append(boxes, row[i].BoundingBox)
		}
	}
	return boxes
}

// locate finds the first OCR line that contains value and the dimensions of
// its page. ok is false when no line carries both the value and a box.
func locate(ocr *models.OCRResult, value string) (box models.BoundingBox, page PageDims, ok bool) {
	needle := strings.ToLower(strings.TrimSpace(value))
	if needle == "" {
		return models.BoundingBox{}, PageDims{}, false
	}
	for _, span := range ocr.Text {
		if span.BoundingBox == nil || !strings.Contains(strings.ToLower(span.Text), needle) {
			continue
		}
		layout, found := ocr.Page(span.Page)
		if !found && len(ocr.Layout) > 0 {
			layout = ocr.Layout[0]
		}
		return *span.BoundingBox, PageDims{Width: layout.Width, Height: layout.Height}, true
	}
	return models.BoundingBox{}, PageDims{}, false
}
