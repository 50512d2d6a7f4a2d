package geometry

import (
	"math"

	"github.com/golang/geo/r3"
)

// Axis aligned bounding box in world space. The zero value is not usable, build boxes with NewBoundingBox which
// returns an invalid (empty) box that becomes valid after the first Add.
type BoundingBox struct {
	Min r3.Vector
	Max r3.Vector
}

func NewBoundingBox() BoundingBox {
	return BoundingBox{
		Min: r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
}

// Builds a box from explicit min and max corners
func NewBoundingBoxFromCorners(min, max r3.Vector) BoundingBox {
	return BoundingBox{Min: min, Max: max}
}

func (b BoundingBox) Valid() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// Expands the box to contain the given point
func (b *BoundingBox) Add(v r3.Vector) {
	b.Min = r3.Vector{X: math.Min(b.Min.X, v.X), Y: math.Min(b.Min.Y, v.Y), Z: math.Min(b.Min.Z, v.Z)}
	b.Max = r3.Vector{X: math.Max(b.Max.X, v.X), Y: math.Max(b.Max.Y, v.Y), Z: math.Max(b.Max.Z, v.Z)}
}

// Expands the box to contain another box. Invalid boxes are ignored.
func (b *BoundingBox) Union(other BoundingBox) {
	if !other.Valid() {
		return
	}
	b.Add(other.Min)
	b.Add(other.Max)
}

func (b BoundingBox) Center() r3.Vector {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b BoundingBox) Extent() r3.Vector {
	return b.Max.Sub(b.Min)
}

// Largest side of the box
func (b BoundingBox) MaxExtent() float64 {
	e := b.Extent()
	return math.Max(e.X, math.Max(e.Y, e.Z))
}

// Returns the sphere centered in the box with radius equal to half the diagonal
func (b BoundingBox) Sphere() Sphere {
	return Sphere{Center: b.Center(), Radius: b.Extent().Norm() * 0.5}
}

type Sphere struct {
	Center r3.Vector
	Radius float64
}
