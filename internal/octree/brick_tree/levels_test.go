package brick_tree

import (
	"testing"

	"github.com/ecopia-map/brick_tiler/internal/bricks"
	"github.com/ecopia-map/brick_tiler/internal/tiler"
	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() tiler.Settings {
	s := tiler.DefaultSettings()
	s.Bits = 8
	s.Precision = 0.001
	return s
}

// Inserts n points inside the finest cell (x, y, z)
func addCell(t *testing.T, store *bricks.Store, x, y, z int32, n int) {
	t.Helper()
	size := 0.256
	for i := 0; i < n; i++ {
		d := 0.01 * float64(i+1)
		p := r3.Vector{X: float64(x)*size + d, Y: float64(y)*size + d/2, Z: float64(z)*size + d/4}
		require.NoError(t, store.Add(p, [4]uint8{uint8(i), 0, 0, 255}, nil))
	}
}

func TestGenerateLevelEmptySource(t *testing.T) {
	t.Parallel()

	source := bricks.NewStore(testSettings())
	destination := bricks.NewStore(testSettings())
	assert.False(t, GenerateLevel(source, destination, testSettings()))
	assert.True(t, destination.Empty())
}

func TestGenerateLevelRemapsOctants(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	source := bricks.NewStore(settings)
	normal := [3]float32{1, 0, 0}
	for i := uint16(0); i < 8; i++ {
		source.AddPacked(bricks.Key{X: 1, Y: 0, Z: 0, W: 1}, bricks.PackedPoint{V: [3]uint16{10 + i, 20, 30}, C: [4]uint8{uint8(i), 0, 0, 255}}, nil)
		source.AddPacked(bricks.Key{X: -1, Y: -1, Z: -1, W: 1}, bricks.PackedPoint{V: [3]uint16{255, 0, 1}}, &normal)
	}

	destination := bricks.NewStore(settings)
	require.True(t, GenerateLevel(source, destination, settings))
	assert.Equal(t, []bricks.Key{{X: -1, Y: -1, Z: -1, W: 2}, {X: 0, Y: 0, Z: 0, W: 2}}, destination.Keys())
	assert.Equal(t, 4, destination.Count())

	brick, ok := destination.Find(bricks.Key{W: 2})
	require.True(t, ok)
	require.Len(t, brick.Points, 2)
	assert.Equal(t, [3]uint16{(10 + 256) / 2, 10, 15}, brick.Points[0].V)
	assert.Equal(t, [3]uint16{(14 + 256) / 2, 10, 15}, brick.Points[1].V)
	assert.Equal(t, [4]uint8{4, 0, 0, 255}, brick.Points[1].C)
	assert.False(t, brick.HasNormals())

	brick, ok = destination.Find(bricks.Key{X: -1, Y: -1, Z: -1, W: 2})
	require.True(t, ok)
	assert.Equal(t, [3]uint16{255, 128, 128}, brick.Points[0].V)
	assert.Equal(t, [][3]float32{normal, normal}, brick.Normals)
}

func TestGenerateLevelHalvesExtent(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	source := bricks.NewStore(settings)
	for x := int32(0); x < 8; x++ {
		for y := int32(0); y < 4; y += 3 {
			addCell(t, source, x, y, x, 4)
		}
	}

	destination := bricks.NewStore(settings)
	require.True(t, GenerateLevel(source, destination, settings))

	srcMin, srcMax, _ := source.KeyBounds()
	dstMin, dstMax, _ := destination.KeyBounds()
	assert.Equal(t, srcMax.X-srcMin.X+1, 2*(dstMax.X-dstMin.X+1))
	assert.Equal(t, srcMax.Y-srcMin.Y+1, 2*(dstMax.Y-dstMin.Y+1))
	assert.Equal(t, srcMax.Z-srcMin.Z+1, 2*(dstMax.Z-dstMin.Z+1))
	assert.Equal(t, int32(2), dstMin.W)
}

func TestBuildLevelsTerminates(t *testing.T) {
	t.Parallel()

	for _, n := range []int32{1, 2, 5, 8, 9, 100} {
		settings := testSettings()
		leaf := bricks.NewStore(settings)
		for x := int32(0); x < n; x++ {
			addCell(t, leaf, x, x%3, 0, 1)
		}

		levels, err := BuildLevels(leaf, settings)
		require.NoError(t, err)
		assert.Equal(t, 1, levels.Root().Size())

		steps := 0
		for 1<<steps < int(n) {
			steps++
		}
		assert.LessOrEqual(t, len(levels)-1, steps, "n=%d", n)
		for i, level := range levels {
			keys := level.Keys()
			assert.Equal(t, int32(1)<<i, keys[0].W)
		}
	}
}

func TestBuildLevelsDivergesAcrossOrigin(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	leaf := bricks.NewStore(settings)
	addCell(t, leaf, -1, 0, 0, 1)
	addCell(t, leaf, 0, 0, 0, 1)

	_, err := BuildLevels(leaf, settings)
	assert.ErrorIs(t, err, ErrLevelsDiverged)

	_, err = BuildLevels(bricks.NewStore(settings), settings)
	assert.ErrorIs(t, err, ErrEmptyBricks)
}

func TestBuildLevelsWidestKeySpan(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	point := bricks.PackedPoint{C: [4]uint8{255, 255, 255, 255}}

	leaf := bricks.NewStore(settings)
	leaf.AddPacked(bricks.Key{X: 0, Y: 0, Z: 0, W: 1}, point, nil)
	leaf.AddPacked(bricks.Key{X: 1<<30 - 1, Y: 0, Z: 0, W: 1}, point, nil)

	levels, err := BuildLevels(leaf, settings)
	require.NoError(t, err)
	assert.Len(t, levels, maxLevels)
	assert.Equal(t, []bricks.Key{{X: 0, Y: 0, Z: 0, W: 1 << 30}}, levels.Root().Keys())

	leaf.AddPacked(bricks.Key{X: 1 << 30, Y: 0, Z: 0, W: 1}, point, nil)
	_, err = BuildLevels(leaf, settings)
	assert.ErrorIs(t, err, ErrKeySpanTooWide)
}
