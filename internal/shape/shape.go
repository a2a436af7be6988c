// Package shape builds the derived representation used for Chamfer matching:
// edge contours, distance and orientation fields, filled mask, simplified
// line segments and sparse grid descriptors.
package shape

import (
	"shape-matcher/pkg/geometry"
)

// Field is a dense 2D float32 grid the size of the source image, stored
// row-major. It backs the distance and orientation fields so that the hot
// matching loops run on plain Go memory.
type Field struct {
	Width  int
	Height int
	Data   []float32
}

// NewField creates a zero-filled field.
func NewField(width, height int) *Field {
	return &Field{
		Width:  width,
		Height: height,
		Data:   make([]float32, width*height),
	}
}

// At returns the value at pixel (x, y). No bounds checking.
func (f *Field) At(x, y int) float32 {
	return f.Data[y*f.Width+x]
}

// Set writes the value at pixel (x, y). No bounds checking.
func (f *Field) Set(x, y int, v float32) {
	f.Data[y*f.Width+x] = v
}

// Mask is a dense binary grid; nonzero marks a foreground pixel.
type Mask struct {
	Width  int
	Height int
	Data   []uint8
}

// NewMask creates an all-background mask.
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Data:   make([]uint8, width*height),
	}
}

// At returns true if pixel (x, y) is foreground.
func (m *Mask) At(x, y int) bool {
	return m.Data[y*m.Width+x] != 0
}

// Set marks pixel (x, y) as foreground or background.
func (m *Mask) Set(x, y int, on bool) {
	if on {
		m.Data[y*m.Width+x] = 1
	} else {
		m.Data[y*m.Width+x] = 0
	}
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Data {
		if v != 0 {
			n++
		}
	}
	return n
}

// LineSegment is one straight piece of a simplified contour.
type LineSegment struct {
	Start  geometry.PointInt
	End    geometry.PointInt
	Length float64
	Theta  float64 // polar normal angle, [0, pi)
	Rho    float64 // signed distance from origin
}

// Descriptor is one sparse (distance, orientation) sample used by the
// grid-descriptor admission filter.
type Descriptor struct {
	Dist   float32
	Orient float32
}

// Info bundles everything derived from one image at one scale. It is built
// once and read-only afterwards; concurrent readers are safe.
type Info struct {
	Width  int
	Height int

	// Contours extracted from the edge map, and the per-point edge
	// orientation parallel to them.
	Contours    [][]geometry.PointInt
	PointOrient [][]float64

	// Dist holds the distance to the nearest edge pixel; Orient the
	// orientation of that nearest edge, inherited through the distance
	// transform labels.
	Dist   *Field
	Orient *Field

	// Mask is the filled outline of the contours.
	Mask *Mask

	// Lines is the polygonal approximation of each contour.
	Lines [][]LineSegment

	// Grid descriptors and their sample offsets, computed for templates only.
	GridLocations   []geometry.PointInt
	GridDescriptors []Descriptor

	// TemplateAnchor is the rectangle the template was extracted from in its
	// source image; SearchRegion restricts the query search. Both are zero
	// for queries and non-1.0 scales.
	TemplateAnchor geometry.RectInt
	SearchRegion   geometry.RectInt
}

// Options configures the derived-representation builder.
type Options struct {
	// CannyThreshold is the low edge-detection threshold; the high threshold
	// is fixed at three times this value.
	CannyThreshold float64

	// MinContourPoints discards contours with fewer points.
	MinContourPoints int

	// SimplifyEpsilon is the polygon-simplification tolerance in pixels.
	SimplifyEpsilon float64

	// GridSize is the descriptor grid dimension (GridSize x GridSize samples).
	GridSize int

	// ComputeDescriptors enables grid-descriptor sampling (templates only).
	ComputeDescriptors bool
}

// DefaultOptions returns the builder defaults.
func DefaultOptions() Options {
	return Options{
		CannyThreshold:   50.0,
		MinContourPoints: 2,
		SimplifyEpsilon:  3.0,
		GridSize:         4,
	}
}
