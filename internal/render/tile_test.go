package render

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/ecopia-map/brick_tiler/internal/bricks"
	"github.com/ecopia-map/brick_tiler/internal/geometry"
	"github.com/ecopia-map/brick_tiler/internal/tiler"
	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTileReproducesLocalOffsets(t *testing.T) {
	t.Parallel()

	for _, bits := range []uint32{8, 10, 16} {
		bits := bits
		t.Run(fmt.Sprintf("%d bits", bits), func(t *testing.T) {
			settings := tiler.DefaultSettings()
			settings.Bits = bits
			max := uint16(uint32(1)<<bits - 1)

			brick := bricks.NewBrick()
			brick.Add(bricks.PackedPoint{V: [3]uint16{0, 0, 0}, C: [4]uint8{1, 2, 3, 255}})
			brick.Add(bricks.PackedPoint{V: [3]uint16{max, 1, max / 2}, C: [4]uint8{4, 5, 6, 255}})
			brick.Add(bricks.PackedPoint{V: [3]uint16{7, max, 3}, C: [4]uint8{7, 8, 9, 128}})

			tile, err := NewTile(brick, settings, bricks.Key{X: 1, Y: 2, Z: 3, W: 1}, nil)
			require.NoError(t, err)
			require.Equal(t, 3, tile.Count)
			assert.Equal(t, bits, tile.Format.Bits())
			assert.Len(t, tile.Vertices, 3*tile.Format.Stride())
			for i, p := range brick.Points {
				v := tile.Vertex(i)
				assert.Equal(t, [3]uint32{uint32(p.V[0]), uint32(p.V[1]), uint32(p.V[2])}, v)
				assert.Equal(t, p.C, tile.Colors[i])
			}
		})
	}
}

func TestTilePackedTenBitLayout(t *testing.T) {
	t.Parallel()

	brick := bricks.NewBrick()
	brick.Add(bricks.PackedPoint{V: [3]uint16{1, 2, 3}})

	tile, err := NewTile(brick, tiler.DefaultSettings(), bricks.Key{W: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, FormatA2R10G10B10UnormPack32, tile.Format)
	// 3<<30 | 1<<20 | 2<<10 | 3, little endian
	assert.Equal(t, []byte{0x03, 0x08, 0x10, 0xc0}, tile.Vertices)
}

func TestTileUnsupportedBits(t *testing.T) {
	t.Parallel()

	settings := tiler.DefaultSettings()
	settings.Bits = 12
	brick := bricks.NewBrick()
	brick.Add(bricks.PackedPoint{})

	tile, err := NewTile(brick, settings, bricks.Key{W: 1}, nil)
	assert.Nil(t, tile)
	assert.ErrorIs(t, err, ErrUnsupportedBits)
}

func TestTileDecodesWorldPositions(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewSource(7))
	for _, bits := range []uint32{8, 10, 16} {
		settings := tiler.DefaultSettings()
		settings.Bits = bits
		settings.Precision = 0.002
		settings.Offset = r3.Vector{X: 10, Y: -5, Z: 2}

		store := bricks.NewStore(settings)
		var inserted []r3.Vector
		for i := 0; i < 200; i++ {
			v := r3.Vector{X: 10 + rnd.Float64(), Y: -5 + rnd.Float64(), Z: 2 + rnd.Float64()}
			inserted = append(inserted, v)
			require.NoError(t, store.Add(v, [4]uint8{}, nil))
		}

		decoded := 0
		bound := geometry.NewBoundingBox()
		store.Range(func(key bricks.Key, brick *bricks.Brick) bool {
			tile, err := NewTile(brick, settings, key, &bound)
			require.NoError(t, err)
			for i := 0; i < tile.Count; i++ {
				p := tile.Position(i).Add(settings.Offset)
				expected := bricks.Dequantize(key, brick.Points[i].V, settings.Precision, settings.Bits)
				assert.InDelta(t, expected.X, p.X, 1e-6)
				assert.InDelta(t, expected.Y, p.Y, 1e-6)
				assert.InDelta(t, expected.Z, p.Z, 1e-6)
				decoded++
			}
			return true
		})
		assert.Equal(t, len(inserted), decoded)

		// bound of emitted points matches the inserted cloud within half a precision unit
		original := store.Bound()
		assert.InDelta(t, original.Min.X, bound.Min.X+settings.Offset.X, settings.Precision/2+1e-9)
		assert.InDelta(t, original.Max.Z, bound.Max.Z+settings.Offset.Z, settings.Precision/2+1e-9)
	}
}

func TestTileNormals(t *testing.T) {
	t.Parallel()

	brick := bricks.NewBrick()
	brick.Add(bricks.PackedPoint{})
	tile, err := NewTile(brick, tiler.DefaultSettings(), bricks.Key{W: 1}, nil)
	require.NoError(t, err)
	assert.Len(t, tile.Normals, 1)
	assert.Equal(t, bricks.DefaultNormal, tile.Normal(0))

	// the shared normal is a copy, changing it leaves the default untouched
	tile.Normals[0][0] = 5
	assert.Equal(t, [3]float32{0, 0, 1}, bricks.DefaultNormal)

	brick.AddWithNormal(bricks.PackedPoint{}, [3]float32{1, 0, 0})
	tile, err = NewTile(brick, tiler.DefaultSettings(), bricks.Key{W: 1}, nil)
	require.NoError(t, err)
	assert.Len(t, tile.Normals, 2)
	assert.Equal(t, [3]float32{1, 0, 0}, tile.Normal(1))
}

func TestTileScalesWithLevel(t *testing.T) {
	t.Parallel()

	settings := tiler.DefaultSettings()
	settings.Bits = 8
	settings.Precision = 0.001
	settings.PointSize = 4

	brick := bricks.NewBrick()
	brick.Add(bricks.PackedPoint{V: [3]uint16{255, 0, 0}})
	tile, err := NewTile(brick, settings, bricks.Key{X: 1, W: 4}, nil)
	require.NoError(t, err)

	assert.InDelta(t, 1.024, tile.PositionScale[0], 1e-12)
	assert.InDelta(t, 1.024-0.004, tile.PositionScale[3], 1e-12)
	assert.InDelta(t, 0.016, tile.PointSize[0], 1e-12)
	assert.InDelta(t, 0.004, tile.PointSize[1], 1e-12)
	assert.InDelta(t, 1.024+255*0.004, tile.Position(0).X, 1e-9)
}
