package bricks

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/ecopia-map/brick_tiler/internal/tiler"
	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings(bits uint32) tiler.Settings {
	s := tiler.DefaultSettings()
	s.Bits = bits
	s.Precision = 0.001
	return s
}

func TestStoreSingleCell(t *testing.T) {
	t.Parallel()

	store := NewStore(testSettings(8))
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Add(r3.Vector{X: 0.01 * float64(i), Y: 0.1, Z: 0.2}, [4]uint8{10, 20, 30, 255}, nil))
	}

	assert.Equal(t, 1, store.Size())
	assert.Equal(t, 5, store.Count())
	assert.False(t, store.Empty())
	assert.False(t, store.HasNormals())

	brick, ok := store.Find(Key{W: 1})
	require.True(t, ok)
	assert.Equal(t, [3]uint16{40, 100, 200}, brick.Points[4].V)
	assert.Equal(t, [4]uint8{10, 20, 30, 255}, brick.Points[4].C)

	bound := store.Bound()
	assert.Equal(t, r3.Vector{X: 0, Y: 0.1, Z: 0.2}, bound.Min)
	assert.InDelta(t, 0.04, bound.Max.X, 1e-12)
}

func TestStoreTwoCells(t *testing.T) {
	t.Parallel()

	store := NewStore(testSettings(8))
	require.NoError(t, store.Add(r3.Vector{}, [4]uint8{0, 0, 0, 255}, nil))
	require.NoError(t, store.Add(r3.Vector{X: 1}, [4]uint8{0, 0, 0, 255}, nil))

	assert.Equal(t, []Key{{W: 1}, {X: 3, W: 1}}, store.Keys())
	assert.Equal(t, 2, store.Count())
}

func TestStoreKeysAreSorted(t *testing.T) {
	t.Parallel()

	store := NewStore(testSettings(8))
	positions := []r3.Vector{{X: 1, Y: -1}, {X: -1, Z: 2}, {Y: 3}, {X: -1, Z: -2}, {X: 1, Y: -2}}
	for _, p := range positions {
		require.NoError(t, store.Add(p, [4]uint8{}, nil))
	}

	keys := store.Keys()
	require.Len(t, keys, len(positions))
	for i := 1; i < len(keys); i++ {
		assert.True(t, keys[i-1].Less(keys[i]), "%v before %v", keys[i-1], keys[i])
	}

	var visited []Key
	store.Range(func(key Key, brick *Brick) bool {
		visited = append(visited, key)
		return len(visited) < 3
	})
	assert.Equal(t, keys[:3], visited)

	min, max, ok := store.KeyBounds()
	require.True(t, ok)
	assert.Equal(t, int32(-4), min.X)
	assert.Equal(t, int32(3), max.X)
	assert.Equal(t, int32(-8), min.Y)
	assert.Equal(t, int32(11), max.Y)
}

func TestStoreNormalsBackfill(t *testing.T) {
	t.Parallel()

	store := NewStore(testSettings(10))
	normal := [3]float32{1, 0, 0}
	require.NoError(t, store.Add(r3.Vector{X: 0.001}, [4]uint8{}, nil))
	require.NoError(t, store.Add(r3.Vector{X: 0.002}, [4]uint8{}, &normal))
	require.NoError(t, store.Add(r3.Vector{X: 0.003}, [4]uint8{}, nil))

	assert.True(t, store.HasNormals())
	brick, ok := store.Find(Key{W: 1})
	require.True(t, ok)
	assert.Equal(t, [][3]float32{DefaultNormal, normal, DefaultNormal}, brick.Normals)
}

func TestStoreTranslateAndMerge(t *testing.T) {
	t.Parallel()

	a := NewStore(testSettings(8))
	require.NoError(t, a.Add(r3.Vector{X: -0.3}, [4]uint8{1, 2, 3, 255}, nil))

	moved := a.Translate(2, 0, 0)
	assert.Equal(t, []Key{{X: 0, W: 1}}, moved.Keys())
	assert.Equal(t, 1, moved.Count())

	b := NewStore(testSettings(8))
	require.NoError(t, b.Add(r3.Vector{X: -0.3}, [4]uint8{4, 5, 6, 255}, nil))
	require.NoError(t, b.Add(r3.Vector{X: 0.3}, [4]uint8{4, 5, 6, 255}, nil))
	require.NoError(t, a.Merge(b))
	assert.Equal(t, 3, a.Count())
	assert.Equal(t, 2, a.Size())
	assert.Equal(t, 2, a.MaxBrickCount())

	other := NewStore(testSettings(10))
	assert.Error(t, a.Merge(other))
}

func TestArchiveRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewStore(testSettings(10))
	normal := [3]float32{0, 1, 0}
	require.NoError(t, store.Add(r3.Vector{X: 1.5, Y: -2, Z: 3}, [4]uint8{1, 2, 3, 255}, nil))
	require.NoError(t, store.Add(r3.Vector{X: -7, Y: 0, Z: 0.25}, [4]uint8{9, 8, 7, 255}, &normal))

	path := filepath.Join(t.TempDir(), "chunk.bricks")
	require.NoError(t, SaveArchive(path, store))

	loaded, err := LoadArchive(path)
	require.NoError(t, err)
	assert.Equal(t, store.Keys(), loaded.Keys())
	assert.Equal(t, store.Count(), loaded.Count())
	assert.Equal(t, store.Bound(), loaded.Bound())
	assert.True(t, loaded.HasNormals())
	for _, k := range store.Keys() {
		expected, _ := store.Find(k)
		actual, ok := loaded.Find(k)
		require.True(t, ok)
		assert.Equal(t, expected, actual)
	}
}

func TestArchiveDetectsCorruption(t *testing.T) {
	t.Parallel()

	store := NewStore(testSettings(8))
	require.NoError(t, store.Add(r3.Vector{X: 1}, [4]uint8{}, nil))

	var buf bytes.Buffer
	require.NoError(t, WriteArchive(&buf, store))
	data := buf.Bytes()
	data[10] ^= 0xff

	_, err := ReadArchive(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrArchiveChecksum)

	_, err = ReadArchive(bytes.NewReader([]byte("not an archive at all")))
	assert.Error(t, err)
}

// Uncompressed archive around the given content
func rawArchive(content []byte) []byte {
	var out bytes.Buffer
	out.WriteString(archiveMagicStr)
	out.WriteByte(archiveVersion1)
	out.WriteByte(archiveCompNone)
	_ = binary.Write(&out, binary.LittleEndian, xxhash.Sum64(content))
	out.Write(content)
	return out.Bytes()
}

func TestArchiveRejectsInvalidContent(t *testing.T) {
	t.Parallel()

	const headerSize = 8 + 4 + 1 + 6*8 + 4
	single := NewStore(testSettings(8))
	require.NoError(t, single.Add(r3.Vector{X: 1}, [4]uint8{}, nil))
	content := archiveContent(single)
	header, record := content[:headerSize], content[headerSize:]

	withBrick := func(key Key, brick *Brick) []byte {
		s := NewStore(testSettings(8))
		s.bricks[key] = brick
		return archiveContent(s)
	}
	onePoint := &Brick{Points: []PackedPoint{{V: [3]uint16{1, 2, 3}}}}

	duplicated := append([]byte{}, header...)
	binary.LittleEndian.PutUint32(duplicated[headerSize-4:], 2)
	duplicated = append(append(duplicated, record...), record...)

	badBits := append([]byte{}, content...)
	binary.LittleEndian.PutUint32(badBits[8:12], 12)

	badPrecision := append([]byte{}, content...)
	binary.LittleEndian.PutUint64(badPrecision[0:8], math.Float64bits(-1))

	tests := []struct {
		name    string
		content []byte
	}{
		{"bits", badBits},
		{"precision", badPrecision},
		{"zero level scale", withBrick(Key{X: 1, W: 0}, onePoint)},
		{"negative level scale", withBrick(Key{X: 1, W: -2}, onePoint)},
		{"level scale not a power of two", withBrick(Key{X: 1, W: 3}, onePoint)},
		{"empty brick", withBrick(Key{X: 1, W: 1}, NewBrick())},
		{"point outside cell", withBrick(Key{X: 1, W: 1}, &Brick{Points: []PackedPoint{{V: [3]uint16{256, 0, 0}}}})},
		{"duplicate key", duplicated},
		{"trailing bytes", append(append([]byte{}, content...), 0, 0)},
	}
	for _, tt := range tests {
		_, err := ReadArchive(bytes.NewReader(rawArchive(tt.content)))
		assert.ErrorIs(t, err, ErrInvalidArchive, tt.name)
	}

	loaded, err := ReadArchive(bytes.NewReader(rawArchive(content)))
	require.NoError(t, err)
	assert.Equal(t, single.Keys(), loaded.Keys())
}

func TestLoadArchiveNamesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "chunk-broken.bricks")
	require.NoError(t, os.WriteFile(path, rawArchive([]byte{1, 2, 3}), 0644))

	_, err := LoadArchive(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
