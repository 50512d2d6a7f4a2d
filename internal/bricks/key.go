package bricks

import "fmt"

// Identifies a cell. X, Y, Z are cell coordinates and W is the level scale, 1 for the finest level and doubling at
// each coarser one.
type Key struct {
	X, Y, Z, W int32
}

// Lexicographic order on x, y, z, w
func (k Key) Less(o Key) bool {
	if k.X != o.X {
		return k.X < o.X
	}
	if k.Y != o.Y {
		return k.Y < o.Y
	}
	if k.Z != o.Z {
		return k.Z < o.Z
	}
	return k.W < o.W
}

// Cell one level coarser containing this one
func (k Key) Parent() Key {
	return Key{
		X: int32(FloorDiv(int64(k.X), 2)),
		Y: int32(FloorDiv(int64(k.Y), 2)),
		Z: int32(FloorDiv(int64(k.Z), 2)),
		W: k.W * 2,
	}
}

// Child cell one level finer, octant components must be 0 or 1
func (k Key) Child(dx, dy, dz int32) Key {
	return Key{X: k.X*2 + dx, Y: k.Y*2 + dy, Z: k.Z*2 + dz, W: k.W / 2}
}

// The eight children in fixed order: x varies fastest, then y, then z
func (k Key) Children() [8]Key {
	var children [8]Key
	for i := int32(0); i < 8; i++ {
		children[i] = k.Child(i&1, (i>>1)&1, (i>>2)&1)
	}
	return children
}

// Octant of this cell inside its parent
func (k Key) Octant() [3]int32 {
	return [3]int32{k.X & 1, k.Y & 1, k.Z & 1}
}

func (k Key) Translate(dx, dy, dz int32) Key {
	return Key{X: k.X + dx, Y: k.Y + dy, Z: k.Z + dz, W: k.W}
}

func (k Key) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", k.X, k.Y, k.Z, k.W)
}
