package match

import (
	"math"
	"sort"

	"shape-matcher/pkg/geometry"

	"gonum.org/v1/gonum/stat"
)

// GroupDetections greedily partitions detections into clusters of mutually
// overlapping boxes: an unclustered detection seeds a cluster and absorbs
// every other unclustered detection whose IoU with the seed exceeds
// overlapThreshold. Each cluster collapses to a single detection at the
// mean position, cost and scale of its members, keeping the seed's box
// size; the template id is the most frequent one in the cluster, ties going
// to the id encountered first.
func GroupDetections(detections []Detection, overlapThreshold float64) []Detection {
	var clusters [][]Detection

	picked := make([]bool, len(detections))
	for i := range detections {
		if picked[i] {
			continue
		}
		picked[i] = true
		cluster := []Detection{detections[i]}

		for j := i + 1; j < len(detections); j++ {
			if picked[j] {
				continue
			}
			if detections[i].Bounds.IoU(detections[j].Bounds) > overlapThreshold {
				picked[j] = true
				cluster = append(cluster, detections[j])
			}
		}

		clusters = append(clusters, cluster)
	}

	grouped := make([]Detection, 0, len(clusters))
	for _, cluster := range clusters {
		grouped = append(grouped, collapseCluster(cluster))
	}
	return grouped
}

// collapseCluster reduces a cluster to its representative detection.
func collapseCluster(cluster []Detection) Detection {
	xs := make([]float64, len(cluster))
	ys := make([]float64, len(cluster))
	costs := make([]float64, len(cluster))
	scales := make([]float64, len(cluster))

	occurrences := make(map[int]int)
	for i, d := range cluster {
		xs[i] = float64(d.Bounds.X)
		ys[i] = float64(d.Bounds.Y)
		costs[i] = d.Cost
		scales[i] = d.Scale
		occurrences[d.TemplateID]++
	}

	// Majority template id; first encountered wins a tie.
	maxCount := 0
	for _, n := range occurrences {
		if n > maxCount {
			maxCount = n
		}
	}
	templateID := UnassignedTemplate
	for _, d := range cluster {
		if occurrences[d.TemplateID] == maxCount {
			templateID = d.TemplateID
			break
		}
	}

	return Detection{
		Bounds: geometry.RectInt{
			X:      int(math.Round(stat.Mean(xs, nil))),
			Y:      int(math.Round(stat.Mean(ys, nil))),
			Width:  cluster[0].Bounds.Width,
			Height: cluster[0].Bounds.Height,
		},
		Cost:       stat.Mean(costs, nil),
		Scale:      stat.Mean(scales, nil),
		TemplateID: templateID,
	}
}

// NonMaxSuppression discards every detection whose box lies strictly inside
// another detection's box. This is a containment filter, independent from
// GroupDetections; callers choose one, the other, or neither.
func NonMaxSuppression(detections []Detection) []Detection {
	sorted := make([]Detection, len(detections))
	copy(sorted, detections)

	// Ascending area: a strictly containing box always comes later.
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Bounds.Area() < sorted[j].Bounds.Area()
	})

	var survivors []Detection
	for i := range sorted {
		inside := false
		for j := i + 1; j < len(sorted) && !inside; j++ {
			if sorted[i].Bounds.StrictlyInside(sorted[j].Bounds) {
				inside = true
			}
		}
		if !inside {
			survivors = append(survivors, sorted[i])
		}
	}
	return survivors
}
