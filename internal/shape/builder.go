package shape

import (
	"fmt"
	"image"
	"image/color"

	"shape-matcher/internal/logger"
	"shape-matcher/pkg/geometry"

	"gocv.io/x/gocv"
)

// Build derives the full representation for one image at one scale. The
// image may be grayscale or BGR. The result is independent of any gocv
// state and safe for concurrent readers.
func Build(img gocv.Mat, opts Options) (*Info, error) {
	if img.Empty() {
		return nil, fmt.Errorf("cannot build shape info from an empty image")
	}

	gray := toGray(img)
	defer gray.Close()

	width, height := gray.Cols(), gray.Rows()

	// Edge detection with a fixed 1:3 low/high threshold ratio, then
	// inverted so edge pixels read as zero for the distance transform.
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, float32(opts.CannyThreshold), float32(3.0*opts.CannyThreshold))

	inverted := gocv.NewMat()
	defer inverted.Close()
	gocv.Threshold(edges, &inverted, 127, 255, gocv.ThresholdBinaryInv)

	// Distance to the nearest edge plus a per-pixel nearest-edge label.
	distMat := gocv.NewMat()
	defer distMat.Close()
	labels := gocv.NewMat()
	defer labels.Close()
	gocv.DistanceTransform(inverted, &distMat, &labels, gocv.DistL2, gocv.DistanceMask5, gocv.DistanceLabelPixel)

	contours := extractContours(edges, opts.MinContourPoints)
	if len(contours) == 0 {
		logger.Warn("no contours found in %dx%d image, matches will be degenerate", width, height)
	}

	pointOrient := ContourOrientations(contours)

	labelAt := func(x, y int) int32 {
		return labels.GetIntAt(y, x)
	}
	index := buildLabelIndex(contours, labelAt)

	info := &Info{
		Width:       width,
		Height:      height,
		Contours:    contours,
		PointOrient: pointOrient,
		Dist:        fieldFromMat(distMat),
		Orient:      orientationField(width, height, labelAt, index, pointOrient),
		Mask:        buildMask(contours, width, height),
		Lines:       approximateContours(contours, opts.SimplifyEpsilon),
	}

	if opts.ComputeDescriptors {
		info.GridLocations = gridLocations(width, height, opts.GridSize)
		info.GridDescriptors = sampleDescriptors(info.Dist, info.Orient, info.GridLocations)
	}

	return info, nil
}

// toGray returns a single-channel copy of the image.
func toGray(img gocv.Mat) gocv.Mat {
	if img.Channels() == 1 {
		return img.Clone()
	}
	gray := gocv.NewMat()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	return gray
}

// extractContours finds raw pixel contours on the edge map and drops those
// with fewer than minPoints points.
func extractContours(edges gocv.Mat, minPoints int) [][]geometry.PointInt {
	found := gocv.FindContours(edges, gocv.RetrievalList, gocv.ChainApproxNone)
	defer found.Close()

	var contours [][]geometry.PointInt
	for i := 0; i < found.Size(); i++ {
		contour := found.At(i)
		if contour.Size() < minPoints {
			continue
		}

		points := make([]geometry.PointInt, contour.Size())
		for j := 0; j < contour.Size(); j++ {
			pt := contour.At(j)
			points[j] = geometry.PointInt{X: pt.X, Y: pt.Y}
		}
		contours = append(contours, points)
	}

	return contours
}

// buildMask fills the interior of every contour into a binary grid.
func buildMask(contours [][]geometry.PointInt, width, height int) *Mask {
	mask := NewMask(width, height)
	if len(contours) == 0 {
		return mask
	}

	imagePoints := make([][]image.Point, len(contours))
	for i, contour := range contours {
		pts := make([]image.Point, len(contour))
		for j, p := range contour {
			pts[j] = image.Point{X: p.X, Y: p.Y}
		}
		imagePoints[i] = pts
	}

	vec := gocv.NewPointsVectorFromPoints(imagePoints)
	defer vec.Close()

	filled := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8U)
	defer filled.Close()
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for i := 0; i < vec.Size(); i++ {
		gocv.DrawContours(&filled, vec, i, white, -1)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if filled.GetUCharAt(y, x) != 0 {
				mask.Set(x, y, true)
			}
		}
	}

	return mask
}

// approximateContours simplifies each contour with the given tolerance and
// records the resulting segments with their length and polar parameters.
func approximateContours(contours [][]geometry.PointInt, epsilon float64) [][]LineSegment {
	lines := make([][]LineSegment, len(contours))

	for i, contour := range contours {
		pts := make([]image.Point, len(contour))
		for j, p := range contour {
			pts[j] = image.Point{X: p.X, Y: p.Y}
		}

		vec := gocv.NewPointVectorFromPoints(pts)
		approx := gocv.ApproxPolyDP(vec, epsilon, true)

		var segments []LineSegment
		for j := 0; j < approx.Size()-1; j++ {
			start := approx.At(j)
			end := approx.At(j + 1)
			a := geometry.PointInt{X: start.X, Y: start.Y}
			b := geometry.PointInt{X: end.X, Y: end.Y}
			theta, rho := geometry.PolarLine(a, b)

			segments = append(segments, LineSegment{
				Start:  a,
				End:    b,
				Length: a.Distance(b),
				Theta:  theta,
				Rho:    rho,
			})
		}

		approx.Close()
		vec.Close()
		lines[i] = segments
	}

	return lines
}

// fieldFromMat copies a CV_32F matrix into a plain Go field.
func fieldFromMat(mat gocv.Mat) *Field {
	width, height := mat.Cols(), mat.Rows()
	field := NewField(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			field.Set(x, y, mat.GetFloatAt(y, x))
		}
	}
	return field
}
