package match

import (
	"math"

	"shape-matcher/internal/shape"
	"shape-matcher/pkg/geometry"
)

// costEvaluator scores one candidate alignment of a template over the
// query. Implementations read only immutable shape.Info data, so one
// evaluator may be shared by concurrent search workers.
type costEvaluator interface {
	evaluate(tpl, query *shape.Info, offsetX, offsetY int) float64
}

// costParams are the knobs shared by all strategies.
type costParams struct {
	useOrientation bool
	lambda         float64
	weightForward  float64
	weightBackward float64
}

// newEvaluator selects the evaluator for a matching type once per search.
func newEvaluator(matching MatchingType, p costParams) costEvaluator {
	switch matching {
	case EdgeForwardBackward:
		return &edgeCost{costParams: p, backward: true}
	case LineMatching:
		return &lineCost{costParams: p}
	case LineForwardBackward:
		return &lineCost{costParams: p, backward: true}
	case FullMatching:
		return &fieldCost{costParams: p, mode: fullWindow}
	case MaskMatching:
		return &fieldCost{costParams: p, mode: templateMask}
	case ForwardBackwardMaskMatching:
		return &fieldCost{costParams: p, mode: unionMask}
	default:
		return &edgeCost{costParams: p}
	}
}

// edgeCost sums the query distance field over every template contour pixel
// (forward), optionally plus the symmetric backward term over query contour
// pixels inside the template footprint. The sum is normalized by the total
// contributing pixel count across both passes.
type edgeCost struct {
	costParams
	backward bool
}

func (e *edgeCost) evaluate(tpl, query *shape.Info, offsetX, offsetY int) float64 {
	var sum float64
	count := 0

	for i, contour := range tpl.Contours {
		for j, pt := range contour {
			x := pt.X + offsetX
			y := pt.Y + offsetY

			d := float64(query.Dist.At(x, y))
			if e.useOrientation {
				d += e.lambda * geometry.MinAngleError(tpl.PointOrient[i][j], float64(query.Orient.At(x, y)), true)
			}
			sum += e.weightForward * d
			count++
		}
	}

	if e.backward {
		for i, contour := range query.Contours {
			for j, pt := range contour {
				// Only query contour pixels inside the template footprint.
				x := pt.X - offsetX
				y := pt.Y - offsetY
				if x < 0 || x >= tpl.Width || y < 0 || y >= tpl.Height {
					continue
				}

				d := float64(tpl.Dist.At(x, y))
				if e.useOrientation {
					d += e.lambda * geometry.MinAngleError(query.PointOrient[i][j], float64(tpl.Orient.At(x, y)), true)
				}
				sum += e.weightBackward * d
				count++
			}
		}
	}

	if count == 0 {
		return math.Inf(1)
	}
	return sum / float64(count)
}

// lineCost is the edge strategy over rasterized simplified segments instead
// of raw contour pixels, which samples long smooth contours far more
// cheaply.
type lineCost struct {
	costParams
	backward bool
}

func (l *lineCost) evaluate(tpl, query *shape.Info, offsetX, offsetY int) float64 {
	var sum float64
	count := 0

	for _, segments := range tpl.Lines {
		for _, seg := range segments {
			for _, pt := range geometry.RasterizeSegment(seg.Start, seg.End) {
				x := pt.X + offsetX
				y := pt.Y + offsetY

				d := float64(query.Dist.At(x, y))
				if l.useOrientation {
					d += l.lambda * geometry.MinAngleError(float64(tpl.Orient.At(pt.X, pt.Y)), float64(query.Orient.At(x, y)), true)
				}
				sum += l.weightForward * d
				count++
			}
		}
	}

	if l.backward {
		for _, segments := range query.Lines {
			for _, seg := range segments {
				for _, pt := range geometry.RasterizeSegment(seg.Start, seg.End) {
					x := pt.X - offsetX
					y := pt.Y - offsetY
					if x < 0 || x >= tpl.Width || y < 0 || y >= tpl.Height {
						continue
					}

					d := float64(tpl.Dist.At(x, y))
					if l.useOrientation {
						d += l.lambda * geometry.MinAngleError(float64(query.Orient.At(pt.X, pt.Y)), float64(tpl.Orient.At(x, y)), true)
					}
					sum += l.weightBackward * d
					count++
				}
			}
		}
	}

	if count == 0 {
		return math.Inf(1)
	}
	return sum / float64(count)
}

// maskMode selects which pixels a fieldCost compares.
type maskMode int

const (
	fullWindow maskMode = iota
	templateMask
	unionMask
)

// fieldCost compares the whole distance field of the template against the
// query sub-window, optionally restricted to a mask, normalized by the
// number of compared pixels.
type fieldCost struct {
	costParams
	mode maskMode
}

func (f *fieldCost) evaluate(tpl, query *shape.Info, offsetX, offsetY int) float64 {
	var sum float64
	count := 0

	for y := 0; y < tpl.Height; y++ {
		for x := 0; x < tpl.Width; x++ {
			qx := x + offsetX
			qy := y + offsetY

			switch f.mode {
			case templateMask:
				if !tpl.Mask.At(x, y) {
					continue
				}
			case unionMask:
				if !tpl.Mask.At(x, y) && !query.Mask.At(qx, qy) {
					continue
				}
			}

			sum += math.Abs(float64(tpl.Dist.At(x, y)) - float64(query.Dist.At(qx, qy)))
			if f.useOrientation {
				sum += f.lambda * math.Abs(float64(tpl.Orient.At(x, y))-float64(query.Orient.At(qx, qy)))
			}
			count++
		}
	}

	if count == 0 {
		return math.Inf(1)
	}
	return sum / float64(count)
}
