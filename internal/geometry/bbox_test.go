package geometry

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formextract/pkg/models"
)

func TestFromPolygon_Shapes(t *testing.T) {
	want := models.BoundingBox{X: 10, Y: 20, Width: 40, Height: 10}

	tests := []struct {
		name    string
		polygon any
	}{
		{"points", []Point{{10, 20}, {50, 20}, {50, 30}, {10, 30}}},
		{"point pointers", []*Point{{10, 20}, {50, 20}, {50, 30}, {10, 30}}},
		{"flat float64", []float64{10, 20, 50, 20, 50, 30, 10, 30}},
		{"flat int32", []int32{10, 20, 50, 20, 50, 30, 10, 30}},
		{"pairs", [][]float64{{10, 20}, {50, 20}, {50, 30}, {10, 30}}},
		{"fixed pairs", [][2]float64{{10, 20}, {50, 20}, {50, 30}, {10, 30}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, want, FromPolygon(tt.polygon))
		})
	}
}

func TestFromPolygon_JSONDecoded(t *testing.T) {
	want := models.BoundingBox{X: 1, Y: 2, Width: 3, Height: 4}

	inputs := []string{
		`[{"x":1,"y":2},{"x":4,"y":2},{"x":4,"y":6},{"x":1,"y":6}]`,
		`[1,2,4,2,4,6,1,6]`,
		`[[1,2],[4,2],[4,6],[1,6]]`,
	}
	for _, in := range inputs {
		var polygon any
		require.NoError(t, json.Unmarshal([]byte(in), &polygon))
		assert.Equal(t, want, FromPolygon(polygon), in)
	}
}

func TestFromPolygon_FallsBackToDefault(t *testing.T) {
	tests := []struct {
		name    string
		polygon any
	}{
		{"nil", nil},
		{"empty points", []Point{}},
		{"empty generic", []any{}},
		{"odd flat list", []float64{1, 2, 3}},
		{"triple pairs", [][]float64{{1, 2, 3}}},
		{"strings", []any{"a", "b"}},
		{"unsupported type", "polygon"},
		{"nil vertex", []*Point{nil}},
		{"non-finite", []float64{math.NaN(), 0, 1, 1}},
		{"mixed generic", []any{map[string]any{"x": 1.0, "y": 2.0}, 3.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, DefaultBox, FromPolygon(tt.polygon))
		})
	}
}

func TestIoU(t *testing.T) {
	a := &models.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}

	assert.Equal(t, 1.0, IoU(a, &models.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}))
	assert.Equal(t, 0.0, IoU(a, &models.BoundingBox{X: 20, Y: 20, Width: 5, Height: 5}))
	assert.Equal(t, 0.0, IoU(a, nil))
	assert.Equal(t, 0.0, IoU(nil, a))
	assert.Equal(t, 0.0, IoU(&models.BoundingBox{}, &models.BoundingBox{}))

	// Half of a overlaps b, which has the same size: 50 / 150.
	half := &models.BoundingBox{X: 5, Y: 0, Width: 10, Height: 10}
	assert.InDelta(t, 1.0/3.0, IoU(a, half), 1e-9)
}

func TestSameBox(t *testing.T) {
	a := &models.BoundingBox{X: 1, Y: 1, Width: 2, Height: 2}
	b := &models.BoundingBox{X: 1, Y: 1, Width: 2, Height: 2}

	assert.True(t, SameBox(a, b))
	assert.True(t, SameBox(nil, nil))
	assert.False(t, SameBox(a, nil))
	assert.False(t, SameBox(a, &models.BoundingBox{X: 2}))
}

func TestUnion(t *testing.T) {
	box, ok := Union(
		&models.BoundingBox{X: 10, Y: 10, Width: 5, Height: 5},
		nil,
		&models.BoundingBox{X: 20, Y: 5, Width: 10, Height: 4},
	)
	assert.True(t, ok)
	assert.Equal(t, models.BoundingBox{X: 10, Y: 5, Width: 20, Height: 10}, box)

	_, ok = Union(nil)
	assert.False(t, ok)
}
