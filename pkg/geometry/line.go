package geometry

import "math"

// TangentAngle returns the undirected orientation of the line through a and b,
// normalized to [0, pi). Two points at the same location yield 0.
func TangentAngle(a, b PointInt) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	if dx == 0 && dy == 0 {
		return 0
	}

	angle := math.Atan2(dy, dx)
	if angle < 0 {
		angle += math.Pi
	}
	if angle >= math.Pi {
		angle -= math.Pi
	}
	return angle
}

// PolarLine computes the normal-form parameters (theta, rho) of the line
// through a and b: every point (x, y) on the line satisfies
// x*cos(theta) + y*sin(theta) = rho. Theta is normalized to [0, pi) and rho
// carries the sign of the origin offset.
func PolarLine(a, b PointInt) (theta, rho float64) {
	tangent := TangentAngle(a, b)
	theta = tangent + math.Pi/2
	if theta >= math.Pi {
		theta -= math.Pi
	}
	rho = float64(a.X)*math.Cos(theta) + float64(a.Y)*math.Sin(theta)
	return theta, rho
}

// MinAngleError returns the smallest absolute difference between two angles.
// With symmetric set, orientations are treated as undirected (period pi, as
// for edge tangents); otherwise the period is 2*pi. The result is always in
// [0, pi/2] respectively [0, pi].
func MinAngleError(a, b float64, symmetric bool) float64 {
	period := 2 * math.Pi
	if symmetric {
		period = math.Pi
	}

	diff := math.Mod(math.Abs(a-b), period)
	if diff > period/2 {
		diff = period - diff
	}
	return diff
}

// RasterizeSegment returns the pixels on the segment from a to b inclusive,
// using Bresenham's algorithm (8-connected).
func RasterizeSegment(a, b PointInt) []PointInt {
	dx := b.X - a.X
	if dx < 0 {
		dx = -dx
	}
	dy := b.Y - a.Y
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if a.X > b.X {
		sx = -1
	}
	sy := 1
	if a.Y > b.Y {
		sy = -1
	}

	points := make([]PointInt, 0, max(dx, dy)+1)
	x, y := a.X, a.Y
	err := dx - dy

	for {
		points = append(points, PointInt{X: x, Y: y})
		if x == b.X && y == b.Y {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}

	return points
}
