package match

import (
	"math"
	"testing"

	"shape-matcher/internal/shape"
	"shape-matcher/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// squareOutline returns the closed pixel outline of a size x size square
// with its top-left corner at (x, y).
func squareOutline(x, y, size int) []geometry.PointInt {
	var pts []geometry.PointInt
	for i := 0; i < size; i++ {
		pts = append(pts, geometry.PointInt{X: x + i, Y: y})
	}
	for i := 0; i < size; i++ {
		pts = append(pts, geometry.PointInt{X: x + size - 1, Y: y + i})
	}
	for i := size - 1; i >= 0; i-- {
		pts = append(pts, geometry.PointInt{X: x + i, Y: y + size - 1})
	}
	for i := size - 1; i >= 0; i-- {
		pts = append(pts, geometry.PointInt{X: x, Y: y + i})
	}
	return pts
}

// syntheticInfo builds a shape.Info for hand-made contours, computing the
// distance and orientation fields by brute force over all contour pixels.
func syntheticInfo(width, height int, contours [][]geometry.PointInt) *shape.Info {
	info := &shape.Info{
		Width:       width,
		Height:      height,
		Contours:    contours,
		PointOrient: shape.ContourOrientations(contours),
		Dist:        shape.NewField(width, height),
		Orient:      shape.NewField(width, height),
		Mask:        shape.NewMask(width, height),
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			best := math.Inf(1)
			var bestOrient float64
			p := geometry.PointInt{X: x, Y: y}
			for i, contour := range contours {
				for j, pt := range contour {
					if d := p.Distance(pt); d < best {
						best = d
						bestOrient = info.PointOrient[i][j]
					}
				}
			}
			if math.IsInf(best, 1) {
				best = 0
			}
			info.Dist.Set(x, y, float32(best))
			info.Orient.Set(x, y, float32(bestOrient))
		}
	}
	return info
}

// syntheticSquareScene builds a template holding a square at the origin and
// a query holding the same square at (offsetX, offsetY).
func syntheticSquareScene(squareSize, tplCanvas, queryCanvas, offsetX, offsetY int) (tpl, query *shape.Info) {
	tpl = syntheticInfo(tplCanvas, tplCanvas, [][]geometry.PointInt{squareOutline(0, 0, squareSize)})
	query = syntheticInfo(queryCanvas, queryCanvas, [][]geometry.PointInt{squareOutline(offsetX, offsetY, squareSize)})
	return tpl, query
}

func defaultCostParams() costParams {
	return costParams{useOrientation: true, lambda: 5.0, weightForward: 1.0, weightBackward: 1.0}
}

func TestEdgeCostPerfectAlignment(t *testing.T) {
	tpl, query := syntheticSquareScene(10, 10, 40, 12, 17)

	eval := newEvaluator(EdgeMatching, defaultCostParams())
	assert.InDelta(t, 0.0, eval.evaluate(tpl, query, 12, 17), 1e-6)

	// A misaligned window costs strictly more.
	assert.Greater(t, eval.evaluate(tpl, query, 20, 5), 0.1)
}

func TestEdgeCostForwardBackward(t *testing.T) {
	tpl, query := syntheticSquareScene(10, 10, 40, 12, 17)

	eval := newEvaluator(EdgeForwardBackward, defaultCostParams())
	assert.InDelta(t, 0.0, eval.evaluate(tpl, query, 12, 17), 1e-6)

	// The backward term penalizes unexplained query edges: a query with a
	// second square scores worse than the clean query at the same offset.
	cluttered := syntheticInfo(40, 40, [][]geometry.PointInt{
		squareOutline(12, 17, 10),
		squareOutline(14, 19, 4),
	})
	assert.Greater(t, eval.evaluate(tpl, cluttered, 12, 17), eval.evaluate(tpl, query, 12, 17))
}

func TestEdgeCostEmptyTemplate(t *testing.T) {
	tpl := syntheticInfo(10, 10, nil)
	query := syntheticInfo(40, 40, [][]geometry.PointInt{squareOutline(5, 5, 10)})

	eval := newEvaluator(EdgeMatching, defaultCostParams())
	assert.True(t, math.IsInf(eval.evaluate(tpl, query, 0, 0), 1))
}

func TestLineCostPerfectAlignment(t *testing.T) {
	tpl, query := syntheticSquareScene(10, 10, 40, 12, 17)

	// Simplified segments: the four square sides.
	segmentsFor := func(x, y, size int) []shape.LineSegment {
		corners := []geometry.PointInt{
			{X: x, Y: y}, {X: x + size - 1, Y: y},
			{X: x + size - 1, Y: y + size - 1}, {X: x, Y: y + size - 1}, {X: x, Y: y},
		}
		var segments []shape.LineSegment
		for i := 0; i < len(corners)-1; i++ {
			theta, rho := geometry.PolarLine(corners[i], corners[i+1])
			segments = append(segments, shape.LineSegment{
				Start: corners[i], End: corners[i+1],
				Length: corners[i].Distance(corners[i+1]),
				Theta:  theta, Rho: rho,
			})
		}
		return segments
	}
	tpl.Lines = [][]shape.LineSegment{segmentsFor(0, 0, 10)}
	query.Lines = [][]shape.LineSegment{segmentsFor(12, 17, 10)}

	eval := newEvaluator(LineMatching, defaultCostParams())
	aligned := eval.evaluate(tpl, query, 12, 17)
	assert.InDelta(t, 0.0, aligned, 1e-6)
	assert.Greater(t, eval.evaluate(tpl, query, 2, 2), aligned)

	evalFB := newEvaluator(LineForwardBackward, defaultCostParams())
	assert.InDelta(t, 0.0, evalFB.evaluate(tpl, query, 12, 17), 1e-6)
}

func TestLineCostNoSegments(t *testing.T) {
	tpl, query := syntheticSquareScene(10, 10, 40, 12, 17)
	tpl.Lines = nil
	query.Lines = nil

	eval := newEvaluator(LineMatching, defaultCostParams())
	assert.True(t, math.IsInf(eval.evaluate(tpl, query, 12, 17), 1))
}

func TestFullMatchingAlignment(t *testing.T) {
	tpl, query := syntheticSquareScene(10, 10, 40, 12, 17)

	params := defaultCostParams()
	params.useOrientation = false
	eval := newEvaluator(FullMatching, params)

	aligned := eval.evaluate(tpl, query, 12, 17)
	misaligned := eval.evaluate(tpl, query, 25, 3)
	assert.InDelta(t, 0.0, aligned, 1e-6)
	assert.Greater(t, misaligned, aligned)
}

func TestMaskMatchingModes(t *testing.T) {
	tpl, query := syntheticSquareScene(10, 10, 40, 12, 17)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			tpl.Mask.Set(x, y, true)
		}
	}
	for y := 17; y < 27; y++ {
		for x := 12; x < 22; x++ {
			query.Mask.Set(x, y, true)
		}
	}

	params := defaultCostParams()
	params.useOrientation = false

	maskEval := newEvaluator(MaskMatching, params)
	assert.InDelta(t, 0.0, maskEval.evaluate(tpl, query, 12, 17), 1e-6)

	unionEval := newEvaluator(ForwardBackwardMaskMatching, params)
	assert.InDelta(t, 0.0, unionEval.evaluate(tpl, query, 12, 17), 1e-6)

	// With an empty template mask, plain mask matching has nothing to
	// compare; the union mode still sees the query mask.
	empty := syntheticInfo(10, 10, nil)
	require.Equal(t, 0, empty.Mask.Count())
	assert.True(t, math.IsInf(maskEval.evaluate(empty, query, 12, 17), 1))
	assert.False(t, math.IsInf(unionEval.evaluate(empty, query, 12, 17), 1))
}

func TestEvaluatorSelection(t *testing.T) {
	p := defaultCostParams()
	assert.IsType(t, &edgeCost{}, newEvaluator(EdgeMatching, p))
	assert.IsType(t, &edgeCost{}, newEvaluator(EdgeForwardBackward, p))
	assert.IsType(t, &lineCost{}, newEvaluator(LineMatching, p))
	assert.IsType(t, &lineCost{}, newEvaluator(LineForwardBackward, p))
	assert.IsType(t, &fieldCost{}, newEvaluator(FullMatching, p))
	assert.IsType(t, &fieldCost{}, newEvaluator(MaskMatching, p))
	assert.IsType(t, &fieldCost{}, newEvaluator(ForwardBackwardMaskMatching, p))
}
