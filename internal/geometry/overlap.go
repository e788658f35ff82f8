package geometry

import "formextract/pkg/models"

// IoU returns the intersection-over-union of two boxes. It is 0 when either box
// is missing, when the boxes do not intersect, or when the union area is 0.
func IoU(a, b *models.BoundingBox) float64 {
	if a == nil || b == nil {
		return 0
	}

	left := max(a.X, b.X)
	top := max(a.Y, b.Y)
	right := min(a.X+a.Width, b.X+b.Width)
	bottom := min(a.Y+a.Height, b.Y+b.Height)

	if right < left || bottom < top {
		return 0
	}

	intersection := (right - left) * (bottom - top)
	union := a.Area() + b.Area() - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}

// SameBox reports whether two optional boxes are equal. Two missing boxes are
// considered the same.
func SameBox(a, b *models.BoundingBox) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Union returns the smallest box covering every non-nil box. ok is false when
// there are none.
func Union(boxes ...*models.BoundingBox) (box models.BoundingBox, ok bool) {
	var left, top, right, bottom float64
	for _, b := range boxes {
		if b == nil {
			continue
		}
		if !ok {
			left, top, right, bottom = b.X, b.Y, b.X+b.Width, b.Y+b.Height
			ok = true
			continue
		}
		left = min(left, b.X)
		top = min(top, b.Y)
		right = max(right, b.X+b.Width)
		bottom = max(bottom, b.Y+b.Height)
	}
	if !ok {
		return models.BoundingBox{}, false
	}
	return models.BoundingBox{X: left, Y: top, Width: right - left, Height: bottom - top}, true
}
