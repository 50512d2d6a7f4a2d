package brick_tree

import (
	"errors"
	"fmt"

	"github.com/ecopia-map/brick_tiler/internal/bricks"
	"github.com/ecopia-map/brick_tiler/internal/tiler"
	"github.com/golang/glog"
)

// Level scales are int32 powers of two, the root level of the deepest hierarchy has scale 1<<30. Needing more
// levels means the keys never converge to a single cell.
const maxLevels = 31

var (
	ErrLevelsDiverged = errors.New("levels do not converge to a single cell")
	ErrKeySpanTooWide = errors.New("key span too wide for int32 level scale")
)

// Bricks of each level, finest first. The last store is the root level.
type Levels []*bricks.Store

func (l Levels) Root() *bricks.Store {
	if len(l) == 0 {
		return nil
	}
	return l[len(l)-1]
}

// Fills destination with the level one step coarser than source. Every cell is merged into its parent and keeps
// one point out of four, remapped into the parent's local coordinates. Returns false when destination stays empty.
func GenerateLevel(source, destination *bricks.Store, settings tiler.Settings) bool {
	bits := settings.Bits
	source.Range(func(key bricks.Key, brick *bricks.Brick) bool {
		parent := key.Parent()
		octant := key.Octant()
		offset := [3]uint32{uint32(octant[0]) << bits, uint32(octant[1]) << bits, uint32(octant[2]) << bits}

		for i := 0; i < len(brick.Points); i += 4 {
			p := brick.Points[i]
			point := bricks.PackedPoint{
				V: [3]uint16{
					uint16((uint32(p.V[0]) + offset[0]) / 2),
					uint16((uint32(p.V[1]) + offset[1]) / 2),
					uint16((uint32(p.V[2]) + offset[2]) / 2),
				},
				C: p.C,
			}
			if brick.HasNormals() {
				destination.AddPacked(parent, point, &brick.Normals[i])
			} else {
				destination.AddPacked(parent, point, nil)
			}
		}
		return true
	})
	return !destination.Empty()
}

// Coarsens leaf until a single cell remains
func BuildLevels(leaf *bricks.Store, settings tiler.Settings) (Levels, error) {
	if leaf.Empty() {
		return nil, ErrEmptyBricks
	}

	if err := checkKeySpan(leaf); err != nil {
		return nil, err
	}

	levels := Levels{leaf}
	for levels.Root().Size() > 1 {
		if len(levels) >= maxLevels {
			return nil, fmt.Errorf("%w after %d levels", ErrLevelsDiverged, len(levels))
		}
		next := bricks.NewStore(settings)
		if !GenerateLevel(levels.Root(), next, settings) {
			break
		}
		glog.V(1).Infof("level %d: %d cells, %d points", len(levels), next.Size(), next.Count())
		levels = append(levels, next)
	}
	return levels, nil
}

// Keys spanning 1<<30 cells or more on an axis cannot share a root cell whose level scale fits an int32
func checkKeySpan(store *bricks.Store) error {
	min, max, ok := store.KeyBounds()
	if !ok {
		return nil
	}
	const maxSpan = int64(1) << (maxLevels - 1)
	for _, span := range []int64{
		int64(max.X) - int64(min.X),
		int64(max.Y) - int64(min.Y),
		int64(max.Z) - int64(min.Z),
	} {
		if span >= maxSpan {
			return fmt.Errorf("%w: %d cells between %v and %v", ErrKeySpanTooWide, span+1, min, max)
		}
	}
	return nil
}
