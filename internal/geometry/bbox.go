// Package geometry converts OCR polygons into axis-aligned boxes and measures
// how much boxes overlap.
//
// OCR services encode polygons in several shapes. FromPolygon accepts all of
// them and never fails: anything it cannot read becomes DefaultBox, so a
// geometry defect never aborts the extraction of the surrounding text.
package geometry

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"formextract/internal/logger"
	"formextract/pkg/models"
)

// DefaultBox is returned for empty, malformed or unrecognized polygons.
var DefaultBox = models.BoundingBox{X: 0, Y: 0, Width: 100, Height: 20}

// Point is a polygon vertex.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FromPolygon computes the bounding box of a polygon given as one of:
//   - []Point (or []*Point)
//   - a flat list of alternating coordinates: []float64, []float32, []int, []int32, []any
//   - a list of coordinate pairs: [][]float64, [][2]float64, []any of 2-element lists
//   - []any of {"x": .., "y": ..} maps, as produced by encoding/json
//
// The shape is detected from the first element.
func FromPolygon(polygon any) (box models.BoundingBox) {
	log := logger.WithComponent("geometry")

	defer func() {
		if r := recover(); r != nil {
			log.Warn().
				Interface("panic", r).
				Msg("Error extracting bounding box, using default box")
			box = DefaultBox
		}
	}()

	xs, ys, err := coordinates(polygon)
	if err != nil {
		log.Warn().
			Err(err).
			Str("type", fmt.Sprintf("%T", polygon)).
			Msg("Unrecognized polygon format, using default box")
		return DefaultBox
	}
	if len(xs) == 0 {
		return DefaultBox
	}
	return boundsOf(xs, ys, log)
}

// FromPoints is FromPolygon for an already decoded vertex list.
func FromPoints(points []Point) models.BoundingBox {
	return FromPolygon(points)
}

func boundsOf(xs, ys []float64, log zerolog.Logger) models.BoundingBox {
	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := range xs {
		if !finite(xs[i]) || !finite(ys[i]) {
			log.Warn().Msg("Polygon contains non-finite coordinates, using default box")
			return DefaultBox
		}
		minX = math.Min(minX, xs[i])
		maxX = math.Max(maxX, xs[i])
		minY = math.Min(minY, ys[i])
		maxY = math.Max(maxY, ys[i])
	}
	return models.BoundingBox{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

func coordinates(polygon any) ([]float64, []float64, error) {
	switch p := polygon.(type) {
	case nil:
		return nil, nil, nil
	case []Point:
		xs := make([]float64, len(p))
		ys := make([]float64, len(p))
		for i, pt := range p {
			xs[i], ys[i] = pt.X, pt.Y
		}
		return xs, ys, nil
	case []*Point:
		xs := make([]float64, 0, len(p))
		ys := make([]float64, 0, len(p))
		for _, pt := range p {
			if pt == nil {
				return nil, nil, fmt.Errorf("nil vertex")
			}
			xs = append(xs, pt.X)
			ys = append(ys, pt.Y)
		}
		return xs, ys, nil
	case []float64:
		return splitFlat(p)
	case []float32:
		return splitFlat(convert(p))
	case []int:
		return splitFlat(convert(p))
	case []int32:
		return splitFlat(convert(p))
	case [][]float64:
		xs := make([]float64, 0, len(p))
		ys := make([]float64, 0, len(p))
		for _, pair := range p {
			if len(pair) != 2 {
				return nil, nil, fmt.Errorf("coordinate pair has %d values", len(pair))
			}
			xs = append(xs, pair[0])
			ys = append(ys, pair[1])
		}
		return xs, ys, nil
	case [][2]float64:
		xs := make([]float64, len(p))
		ys := make([]float64, len(p))
		for i, pair := range p {
			xs[i], ys[i] = pair[0], pair[1]
		}
		return xs, ys, nil
	case []any:
		return genericCoordinates(p)
	default:
		return nil, nil, fmt.Errorf("unsupported polygon type %T", polygon)
	}
}

// genericCoordinates handles JSON-decoded polygons, whose element type is only
// known at runtime.
func genericCoordinates(p []any) ([]float64, []float64, error) {
	if len(p) == 0 {
		return nil, nil, nil
	}

	switch p[0].(type) {
	case map[string]any:
		xs := make([]float64, 0, len(p))
		ys := make([]float64, 0, len(p))
		for _, item := range p {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, nil, fmt.Errorf("mixed vertex types")
			}
			x, okX := number(m["x"])
			y, okY := number(m["y"])
			if !okX || !okY {
				return nil, nil, fmt.Errorf("vertex without numeric x/y")
			}
			xs = append(xs, x)
			ys = append(ys, y)
		}
		return xs, ys, nil
	case []any:
		xs := make([]float64, 0, len(p))
		ys := make([]float64, 0, len(p))
		for _, item := range p {
			pair, ok := item.([]any)
			if !ok || len(pair) != 2 {
				return nil, nil, fmt.Errorf("invalid coordinate pair")
			}
			x, okX := number(pair[0])
			y, okY := number(pair[1])
			if !okX || !okY {
				return nil, nil, fmt.Errorf("non-numeric coordinate pair")
			}
			xs = append(xs, x)
			ys = append(ys, y)
		}
		return xs, ys, nil
	default:
		if _, ok := number(p[0]); !ok {
			return nil, nil, fmt.Errorf("unsupported vertex type %T", p[0])
		}
		flat := make([]float64, 0, len(p))
		for _, item := range p {
			v, ok := number(item)
			if !ok {
				return nil, nil, fmt.Errorf("non-numeric coordinate %v", item)
			}
			flat = append(flat, v)
		}
		return splitFlat(flat)
	}
}

func splitFlat(flat []float64) ([]float64, []float64, error) {
	if len(flat)%2 != 0 {
		return nil, nil, fmt.Errorf("flat polygon has odd length %d", len(flat))
	}
	xs := make([]float64, 0, len(flat)/2)
	ys := make([]float64, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		xs = append(xs, flat[i])
		ys = append(ys, flat[i+1])
	}
	return xs, ys, nil
}

func convert[T int | int32 | float32](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
