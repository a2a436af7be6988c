package match

import (
	"math"
	"runtime"
	"sync"

	"shape-matcher/internal/shape"
)

// CostMap is the per-offset cost of aligning one template over the query.
// Cells never visited or rejected by the admission filter stay at +Inf.
type CostMap struct {
	Width  int
	Height int
	Cells  []float64
}

func newCostMap(width, height int) *CostMap {
	m := &CostMap{
		Width:  width,
		Height: height,
		Cells:  make([]float64, width*height),
	}
	inf := math.Inf(1)
	for i := range m.Cells {
		m.Cells[i] = inf
	}
	return m
}

// At returns the cost at offset (x, y).
func (m *CostMap) At(x, y int) float64 {
	return m.Cells[y*m.Width+x]
}

func (m *CostMap) set(x, y int, v float64) {
	m.Cells[y*m.Width+x] = v
}

// searchBounds is the sub-rectangle of the cost map that will be visited.
type searchBounds struct {
	startX, endX int
	startY, endY int
}

// computeBounds restricts the search per the template's search region, or
// collapses it to the extraction offset under pose search. Bounds are
// clamped to the valid map.
func computeBounds(tpl *shape.Info, mapWidth, mapHeight int, strategy SearchStrategy) searchBounds {
	b := searchBounds{endX: mapWidth, endY: mapHeight}

	if strategy == PoseSearch {
		b.startX = tpl.TemplateAnchor.X
		b.startY = tpl.TemplateAnchor.Y
		b.endX = b.startX + 1
		b.endY = b.startY + 1
	} else if !tpl.SearchRegion.Empty() {
		b.startX = tpl.SearchRegion.X
		b.startY = tpl.SearchRegion.Y
		b.endX = b.startX + tpl.SearchRegion.Width
		b.endY = b.startY + tpl.SearchRegion.Height
	}

	b.startX = max(b.startX, 0)
	b.startY = max(b.startY, 0)
	b.endX = min(b.endX, mapWidth)
	b.endY = min(b.endY, mapHeight)
	return b
}

// computeMatchingMap slides the evaluator over the query and fills the cost
// map. When grid-descriptor rejection is enabled, candidate offsets failing
// the cheap descriptor comparison are skipped entirely. Both passes are
// parallel over rows; each worker writes disjoint cells, so the WaitGroup
// is the only synchronization. Returns nil when the template does not fit
// inside the query.
func computeMatchingMap(tpl, query *shape.Info, eval costEvaluator, opts Options) *CostMap {
	mapWidth := query.Width - tpl.Width + 1
	mapHeight := query.Height - tpl.Height + 1
	if mapWidth <= 0 || mapHeight <= 0 {
		return nil
	}

	costMap := newCostMap(mapWidth, mapHeight)
	bounds := computeBounds(tpl, mapWidth, mapHeight, opts.Strategy)

	stepX := max(opts.StepX, 1)
	stepY := max(opts.StepY, 1)

	var rejected []bool
	if opts.Rejection == GridDescriptorRejection && len(tpl.GridDescriptors) > 0 {
		rejected = make([]bool, mapWidth*mapHeight)
		parallelRows(bounds.startY, bounds.endY, stepY, func(y int) {
			for x := bounds.startX; x < bounds.endX; x += stepX {
				if !admitOffset(tpl, query, x, y, opts) {
					rejected[y*mapWidth+x] = true
				}
			}
		})
	}

	parallelRows(bounds.startY, bounds.endY, stepY, func(y int) {
		for x := bounds.startX; x < bounds.endX; x += stepX {
			if rejected != nil && rejected[y*mapWidth+x] {
				continue
			}
			costMap.set(x, y, eval.evaluate(tpl, query, x, y))
		}
	})

	return costMap
}

// admitOffset compares the template's sparse grid descriptors against the
// query fields at the candidate offset. The offset is admitted when enough
// samples agree in both distance and orientation.
func admitOffset(tpl, query *shape.Info, offsetX, offsetY int, opts Options) bool {
	matches := 0
	for i, loc := range tpl.GridLocations {
		x := offsetX + loc.X
		y := offsetY + loc.Y

		distErr := math.Abs(float64(query.Dist.At(x, y) - tpl.GridDescriptors[i].Dist))
		orientErr := math.Abs(float64(query.Orient.At(x, y) - tpl.GridDescriptors[i].Orient))

		if distErr < opts.MaxDescriptorDistance && orientErr < opts.MaxDescriptorOrientation {
			matches++
		}
	}
	return matches >= opts.MinDescriptorMatches
}

// parallelRows runs fn for each visited row, fanned out over NumCPU
// workers, and waits for all of them.
func parallelRows(start, end, step int, fn func(y int)) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.NumCPU())

	for y := start; y < end; y += step {
		wg.Add(1)
		sem <- struct{}{}

		go func(row int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(row)
		}(y)
	}

	wg.Wait()
}
