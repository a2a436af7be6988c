package shape

import (
	"shape-matcher/pkg/geometry"
)

// gridLocations returns the n x n interior sample offsets for a template of
// the given size, spaced evenly and excluding the borders.
func gridLocations(width, height, n int) []geometry.PointInt {
	locations := make([]geometry.PointInt, 0, n*n)
	for i := 1; i <= n; i++ {
		y := i * height / (n + 1)
		for j := 1; j <= n; j++ {
			x := j * width / (n + 1)
			locations = append(locations, geometry.PointInt{X: x, Y: y})
		}
	}
	return locations
}

// sampleDescriptors reads the (distance, orientation) signature at each
// sample offset.
func sampleDescriptors(dist, orient *Field, locations []geometry.PointInt) []Descriptor {
	descriptors := make([]Descriptor, len(locations))
	for i, loc := range locations {
		descriptors[i] = Descriptor{
			Dist:   dist.At(loc.X, loc.Y),
			Orient: orient.At(loc.X, loc.Y),
		}
	}
	return descriptors
}
