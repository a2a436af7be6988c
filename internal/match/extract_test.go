package match

import (
	"math"
	"testing"

	"shape-matcher/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// costMapFrom builds a cost map from explicit rows.
func costMapFrom(rows [][]float64) *CostMap {
	h := len(rows)
	w := len(rows[0])
	m := newCostMap(w, h)
	for y, row := range rows {
		for x, v := range row {
			m.set(x, y, v)
		}
	}
	return m
}

func TestExtractDetectionsOrderAndPositions(t *testing.T) {
	inf := math.Inf(1)
	m := costMapFrom([][]float64{
		{inf, 3.0, inf, inf},
		{inf, inf, inf, 1.0},
		{5.0, inf, inf, inf},
	})

	detections := extractDetections(m, 10, 8, 1.0, 10.0, 100)
	require.Len(t, detections, 3)

	// Ascending cost, each at its map offset with the template's box size.
	assert.Equal(t, geometry.NewRectInt(3, 1, 10, 8), detections[0].Bounds)
	assert.Equal(t, 1.0, detections[0].Cost)
	assert.Equal(t, geometry.NewRectInt(1, 0, 10, 8), detections[1].Bounds)
	assert.Equal(t, 3.0, detections[1].Cost)
	assert.Equal(t, geometry.NewRectInt(0, 2, 10, 8), detections[2].Bounds)
	assert.Equal(t, 5.0, detections[2].Cost)

	for _, d := range detections {
		assert.Equal(t, UnassignedTemplate, d.TemplateID)
		assert.Equal(t, 1.0, d.Scale)
	}

	// The input map is left untouched.
	assert.Equal(t, 1.0, m.At(3, 1))
}

func TestExtractDetectionsThreshold(t *testing.T) {
	inf := math.Inf(1)
	m := costMapFrom([][]float64{
		{2.0, 7.0},
		{inf, 12.0},
	})

	detections := extractDetections(m, 4, 4, 1.0, 7.0, 100)
	require.Len(t, detections, 1)
	assert.Equal(t, 2.0, detections[0].Cost)
}

func TestExtractDetectionsCap(t *testing.T) {
	m := costMapFrom([][]float64{
		{1.0, 2.0, 3.0, 4.0, 5.0},
	})

	detections := extractDetections(m, 2, 2, 1.0, 100.0, 3)
	require.Len(t, detections, 3)
	assert.Equal(t, 1.0, detections[0].Cost)
	assert.Equal(t, 3.0, detections[2].Cost)
}

func TestExtractDetectionsThresholdMonotonic(t *testing.T) {
	inf := math.Inf(1)
	m := costMapFrom([][]float64{
		{2.0, 7.0, inf, 3.5},
		{9.0, inf, 1.0, 12.0},
		{inf, 4.5, 18.0, 6.0},
	})

	// Raising the threshold never loses a detection: every detection found
	// at a lower threshold is found again, in the same order.
	prev := 0
	for _, threshold := range []float64{0.5, 2.5, 5.0, 10.0, 20.0} {
		detections := extractDetections(m, 2, 2, 1.0, threshold, 100)
		require.GreaterOrEqual(t, len(detections), prev)

		lower := extractDetections(m, 2, 2, 1.0, threshold/2, 100)
		if len(lower) > 0 {
			assert.Equal(t, lower, detections[:len(lower)])
		}
		prev = len(detections)
	}
}

func TestExtractDetectionsAllInf(t *testing.T) {
	inf := math.Inf(1)
	m := costMapFrom([][]float64{{inf, inf}, {inf, inf}})

	assert.Empty(t, extractDetections(m, 2, 2, 1.0, 100.0, 10))
	assert.Empty(t, extractDetections(nil, 2, 2, 1.0, 100.0, 10))
}

func TestRetainDetections(t *testing.T) {
	detections := []Detection{
		{Bounds: geometry.NewRectInt(0, 0, 5, 5), Cost: 9.0},
		{Bounds: geometry.NewRectInt(1, 1, 5, 5), Cost: 2.0},
		{Bounds: geometry.NewRectInt(2, 2, 5, 5), Cost: 5.0},
	}

	retained := RetainDetections(detections, 6.0)
	require.Len(t, retained, 2)
	assert.Equal(t, 2.0, retained[0].Cost)
	assert.Equal(t, 5.0, retained[1].Cost)
}

func TestSortDetectionsDeterministic(t *testing.T) {
	detections := []Detection{
		{Bounds: geometry.NewRectInt(5, 0, 4, 4), Cost: 1.0, TemplateID: 2, Scale: 1.0},
		{Bounds: geometry.NewRectInt(3, 0, 4, 4), Cost: 1.0, TemplateID: 1, Scale: 1.0},
		{Bounds: geometry.NewRectInt(3, 0, 4, 4), Cost: 1.0, TemplateID: 1, Scale: 0.5},
		{Bounds: geometry.NewRectInt(0, 0, 4, 4), Cost: 0.5, TemplateID: 9, Scale: 1.0},
	}

	sortDetections(detections)

	assert.Equal(t, 9, detections[0].TemplateID)
	assert.Equal(t, 0.5, detections[1].Scale)
	assert.Equal(t, 1.0, detections[2].Scale)
	assert.Equal(t, 2, detections[3].TemplateID)
}
