package bricks

import (
	"fmt"
	"sort"

	"github.com/ecopia-map/brick_tiler/internal/geometry"
	"github.com/ecopia-map/brick_tiler/internal/tiler"
	"github.com/golang/geo/r3"
)

// Maps cell keys of a single level to their bricks. A Store is owned by a single goroutine, it is not safe for
// concurrent use.
type Store struct {
	precision float64
	bits      uint32
	bricks    map[Key]*Brick
	keys      []Key // sorted, nil when stale
	bound     geometry.BoundingBox
	normals   bool
	count     int
}

func NewStore(settings tiler.Settings) *Store {
	return newStore(settings.Precision, settings.Bits)
}

func newStore(precision float64, bits uint32) *Store {
	return &Store{
		precision: precision,
		bits:      bits,
		bricks:    make(map[Key]*Brick),
		bound:     geometry.NewBoundingBox(),
	}
}

func (s *Store) Precision() float64 {
	return s.precision
}

func (s *Store) Bits() uint32 {
	return s.bits
}

// Quantizes and inserts a point, growing the store bound by its position. A nil normal records no normal.
func (s *Store) Add(position r3.Vector, color [4]uint8, normal *[3]float32) error {
	key, local, err := Quantize(position, s.precision, s.bits)
	if err != nil {
		return err
	}

	brick := s.Brick(key)
	point := PackedPoint{V: local, C: color}
	if normal != nil {
		brick.AddWithNormal(point, *normal)
		s.normals = true
	} else {
		brick.Add(point)
	}
	s.count++
	s.bound.Add(position)
	return nil
}

func (s *Store) Find(key Key) (*Brick, bool) {
	brick, ok := s.bricks[key]
	return brick, ok
}

// Returns the brick of the given cell, creating it if the cell is empty
func (s *Store) Brick(key Key) *Brick {
	brick, ok := s.bricks[key]
	if !ok {
		brick = NewBrick()
		s.bricks[key] = brick
		s.keys = nil
	}
	return brick
}

// Appends a point that is already quantized for the cell of the given key
func (s *Store) AddPacked(key Key, point PackedPoint, normal *[3]float32) {
	brick := s.Brick(key)
	if normal != nil {
		brick.AddWithNormal(point, *normal)
		s.normals = true
	} else {
		brick.Add(point)
	}
	s.count++
}

func (s *Store) Empty() bool {
	return len(s.bricks) == 0
}

// Number of cells
func (s *Store) Size() int {
	return len(s.bricks)
}

// Number of points
func (s *Store) Count() int {
	return s.count
}

// World box of the inserted positions. Stores filled by level generation or archives have no bound.
func (s *Store) Bound() geometry.BoundingBox {
	return s.bound
}

func (s *Store) HasNormals() bool {
	return s.normals
}

// Keys in their total order
func (s *Store) Keys() []Key {
	if s.keys == nil {
		keys := make([]Key, 0, len(s.bricks))
		for k := range s.bricks {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
		s.keys = keys
	}
	return s.keys
}

// Calls fn for each cell in key order until fn returns false
func (s *Store) Range(fn func(key Key, brick *Brick) bool) {
	for _, k := range s.Keys() {
		if !fn(k, s.bricks[k]) {
			return
		}
	}
}

// Per axis minimum and maximum of the occupied cell coordinates. ok is false on an empty store.
func (s *Store) KeyBounds() (min Key, max Key, ok bool) {
	for k := range s.bricks {
		if !ok {
			min, max, ok = k, k, true
			continue
		}
		min = Key{X: min32(min.X, k.X), Y: min32(min.Y, k.Y), Z: min32(min.Z, k.Z), W: min32(min.W, k.W)}
		max = Key{X: max32(max.X, k.X), Y: max32(max.Y, k.Y), Z: max32(max.Z, k.Z), W: max32(max.W, k.W)}
	}
	return min, max, ok
}

// Returns a store sharing the bricks of this one with every key shifted by the given cell offset
func (s *Store) Translate(dx, dy, dz int32) *Store {
	translated := newStore(s.precision, s.bits)
	for k, b := range s.bricks {
		translated.bricks[k.Translate(dx, dy, dz)] = b
	}
	translated.bound = s.bound
	translated.normals = s.normals
	translated.count = s.count
	return translated
}

// Moves all points of another store into this one
func (s *Store) Merge(other *Store) error {
	if other.precision != s.precision || other.bits != s.bits {
		return fmt.Errorf("cannot merge bricks quantized with precision %v/%d bits into %v/%d bits",
			other.precision, other.bits, s.precision, s.bits)
	}
	other.Range(func(key Key, brick *Brick) bool {
		s.Brick(key).Append(brick)
		return true
	})
	s.count += other.count
	s.bound.Union(other.bound)
	s.normals = s.normals || other.normals
	return nil
}

// Size of the biggest brick, in points
func (s *Store) MaxBrickCount() int {
	max := 0
	for _, b := range s.bricks {
		if b.Count() > max {
			max = b.Count()
		}
	}
	return max
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
