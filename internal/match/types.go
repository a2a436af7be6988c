// Package match implements Chamfer-distance template matching: cost
// evaluation strategies, the sliding search with its admission filter,
// detection extraction and grouping, and the matcher facade with its
// persisted template store.
package match

import (
	"sort"

	"shape-matcher/pkg/geometry"
)

// UnassignedTemplate marks a detection not yet tagged with a template id.
const UnassignedTemplate = -1

// Detection is one candidate match in query coordinates. Lower cost is a
// better match.
type Detection struct {
	Bounds     geometry.RectInt `json:"bounds"`
	Cost       float64          `json:"cost"`
	Scale      float64          `json:"scale"`
	TemplateID int              `json:"templateId"`
}

// TemplateRegion carries the two geometric anchors of a template: the
// rectangle it was extracted from in its source image, and the query region
// search should be restricted to. An empty search region means search
// everywhere.
type TemplateRegion struct {
	Anchor geometry.RectInt
	Search geometry.RectInt
}

// sortDetections orders detections by ascending cost. Ties are broken by
// template id and then position so that results are reproducible.
func sortDetections(detections []Detection) {
	sort.Slice(detections, func(i, j int) bool {
		a, b := detections[i], detections[j]
		if a.Cost != b.Cost {
			return a.Cost < b.Cost
		}
		if a.TemplateID != b.TemplateID {
			return a.TemplateID < b.TemplateID
		}
		if a.Bounds.X != b.Bounds.X {
			return a.Bounds.X < b.Bounds.X
		}
		if a.Bounds.Y != b.Bounds.Y {
			return a.Bounds.Y < b.Bounds.Y
		}
		return a.Scale < b.Scale
	})
}
