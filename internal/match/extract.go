package match

import (
	"math"

	"shape-matcher/pkg/geometry"

	"gonum.org/v1/gonum/floats"
)

// extractDetections repeatedly pulls the global minimum out of the cost
// map: each minimum below the distance threshold becomes one raw detection
// and its cell is overwritten with +Inf so it cannot be picked again. The
// loop stops when the minimum reaches the threshold or after maxDetections
// iterations. Nearby offsets of the same object are emitted as separate raw
// detections; deduplication is deferred to GroupDetections.
func extractDetections(costMap *CostMap, tplWidth, tplHeight int, scale, threshold float64, maxDetections int) []Detection {
	if costMap == nil || len(costMap.Cells) == 0 {
		return nil
	}

	// Scratch copy so the input map stays reusable.
	cells := make([]float64, len(costMap.Cells))
	copy(cells, costMap.Cells)

	var detections []Detection
	for iter := 0; iter < maxDetections; iter++ {
		idx := floats.MinIdx(cells)
		val := cells[idx]
		if val >= threshold || math.IsInf(val, 1) {
			break
		}

		x := idx % costMap.Width
		y := idx / costMap.Width
		detections = append(detections, Detection{
			Bounds:     geometry.RectInt{X: x, Y: y, Width: tplWidth, Height: tplHeight},
			Cost:       val,
			Scale:      scale,
			TemplateID: UnassignedTemplate,
		})

		cells[idx] = math.Inf(1)
	}

	return detections
}

// RetainDetections returns the detections whose cost is below the
// threshold, sorted by ascending cost.
func RetainDetections(detections []Detection, threshold float64) []Detection {
	var retained []Detection
	for _, d := range detections {
		if d.Cost < threshold {
			retained = append(retained, d)
		}
	}
	sortDetections(retained)
	return retained
}
