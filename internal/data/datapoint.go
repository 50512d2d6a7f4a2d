package data

import "github.com/golang/geo/r3"

// Contains data of a Point Cloud Point, namely its position, RGBA color and, when the source provides one, its
// normal
type Point struct {
	Position r3.Vector
	Color    [4]uint8
	Normal   *[3]float32
}

// Builds a new opaque Point from the given coordinates and color components. normal may be nil.
func NewPoint(x, y, z float64, r, g, b uint8, normal *[3]float32) Point {
	return Point{
		Position: r3.Vector{X: x, Y: y, Z: z},
		Color:    [4]uint8{r, g, b, 255},
		Normal:   normal,
	}
}
