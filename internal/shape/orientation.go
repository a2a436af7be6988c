package shape

import (
	"shape-matcher/internal/logger"
	"shape-matcher/pkg/geometry"
)

// ContourOrientations computes the local edge orientation for every contour
// point from its previous and next neighbor on the polyline. The first two
// points share the second point's orientation and the last point repeats its
// predecessor. Contours with two or fewer points get orientation zero for
// all points; that is degenerate but not fatal.
func ContourOrientations(contours [][]geometry.PointInt) [][]float64 {
	orientations := make([][]float64, len(contours))

	for i, contour := range contours {
		n := len(contour)
		values := make([]float64, n)

		if n <= 2 {
			logger.Warn("contour %d has only %d points, using zero orientation", i, n)
			orientations[i] = values
			continue
		}

		// Interior points: tangent through the two neighbors.
		for j := 2; j < n-1; j++ {
			values[j] = geometry.TangentAngle(contour[j-1], contour[j+1])
		}

		// The first segment's tangent covers the first two points; the last
		// point repeats its predecessor.
		first := geometry.TangentAngle(contour[0], contour[2])
		values[0] = first
		values[1] = first
		values[n-1] = values[n-2]

		orientations[i] = values
	}

	return orientations
}

// pointRef addresses one contour point.
type pointRef struct {
	contour int
	point   int
}

// buildLabelIndex maps each distance-transform label found on a contour
// pixel back to the (contour, point) pair that produced it. The lookup is
// built once per builder invocation.
func buildLabelIndex(contours [][]geometry.PointInt, labelAt func(x, y int) int32) map[int32]pointRef {
	index := make(map[int32]pointRef)
	for i, contour := range contours {
		for j, pt := range contour {
			index[labelAt(pt.X, pt.Y)] = pointRef{contour: i, point: j}
		}
	}
	return index
}

// orientationField spreads the per-point orientations to every pixel by
// resolving each pixel's nearest-edge label through the index. Pixels whose
// label does not map to a surviving contour point stay at zero.
func orientationField(width, height int, labelAt func(x, y int) int32, index map[int32]pointRef, pointOrient [][]float64) *Field {
	field := NewField(width, height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			ref, ok := index[labelAt(x, y)]
			if !ok {
				continue
			}
			field.Set(x, y, float32(pointOrient[ref.contour][ref.point]))
		}
	}

	return field
}
