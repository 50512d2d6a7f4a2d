package geometry

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
)

func TestBoundingBox(t *testing.T) {
	t.Parallel()

	box := NewBoundingBox()
	assert.False(t, box.Valid())

	box.Add(r3.Vector{X: 1, Y: 2, Z: 3})
	assert.True(t, box.Valid())
	assert.Equal(t, 0.0, box.MaxExtent())

	box.Add(r3.Vector{X: -1, Y: 6, Z: 3})
	assert.Equal(t, r3.Vector{X: -1, Y: 2, Z: 3}, box.Min)
	assert.Equal(t, r3.Vector{X: 1, Y: 6, Z: 3}, box.Max)
	assert.Equal(t, 4.0, box.MaxExtent())
	assert.Equal(t, r3.Vector{X: 0, Y: 4, Z: 3}, box.Center())

	sphere := box.Sphere()
	assert.InDelta(t, r3.Vector{X: 2, Y: 4}.Norm()*0.5, sphere.Radius, 1e-12)
}

func TestBoundingBoxUnionIgnoresInvalid(t *testing.T) {
	t.Parallel()

	box := NewBoundingBoxFromCorners(r3.Vector{}, r3.Vector{X: 1, Y: 1, Z: 1})
	box.Union(NewBoundingBox())
	assert.Equal(t, r3.Vector{X: 1, Y: 1, Z: 1}, box.Max)

	box.Union(NewBoundingBoxFromCorners(r3.Vector{X: -2}, r3.Vector{X: -1}))
	assert.Equal(t, r3.Vector{X: -2}, box.Min)
}
