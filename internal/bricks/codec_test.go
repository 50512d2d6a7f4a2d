package bricks

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloorDiv(t *testing.T) {
	t.Parallel()

	for _, bits := range []uint32{8, 10, 16} {
		d := int64(1) << bits
		for iv := -10 * d; iv <= 10*d; iv++ {
			k := FloorDiv(iv, d)
			local := iv - k*d
			if local < 0 || local >= d {
				t.Fatalf("bits %d: iv %d gives key %d local %d", bits, iv, k, local)
			}
			if float64(k) != math.Floor(float64(iv)/float64(d)) {
				t.Fatalf("bits %d: iv %d gives key %d", bits, iv, k)
			}
		}
	}
}

func TestQuantizeLiteralCase(t *testing.T) {
	t.Parallel()

	key, local, err := Quantize(r3.Vector{}, 0.001, 8)
	require.NoError(t, err)
	assert.Equal(t, Key{X: 0, Y: 0, Z: 0, W: 1}, key)
	assert.Equal(t, [3]uint16{0, 0, 0}, local)

	// 1.0 / 0.001 = 1000 = 3*256 + 232
	key, local, err = Quantize(r3.Vector{X: 1}, 0.001, 8)
	require.NoError(t, err)
	assert.Equal(t, Key{X: 3, Y: 0, Z: 0, W: 1}, key)
	assert.Equal(t, [3]uint16{232, 0, 0}, local)
}

func TestQuantizeNegative(t *testing.T) {
	t.Parallel()

	// -1 unit belongs to cell -1 at its last position
	key, local, err := Quantize(r3.Vector{X: -0.001, Y: -0.256, Z: -0.257}, 0.001, 8)
	require.NoError(t, err)
	assert.Equal(t, Key{X: -1, Y: -1, Z: -2, W: 1}, key)
	assert.Equal(t, [3]uint16{255, 0, 255}, local)
}

func TestQuantizeRoundTrip(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewSource(42))
	for _, bits := range []uint32{8, 10, 16} {
		for _, precision := range []float64{0.001, 0.05} {
			for i := 0; i < 2000; i++ {
				v := r3.Vector{
					X: (rnd.Float64() - 0.5) * 200,
					Y: (rnd.Float64() - 0.5) * 200,
					Z: (rnd.Float64() - 0.5) * 200,
				}
				key, local, err := Quantize(v, precision, bits)
				require.NoError(t, err)
				back := Dequantize(key, local, precision, bits)
				assert.InDelta(t, v.X, back.X, precision/2+1e-9)
				assert.InDelta(t, v.Y, back.Y, precision/2+1e-9)
				assert.InDelta(t, v.Z, back.Z, precision/2+1e-9)
			}
		}
	}
}

func TestQuantizeOverflow(t *testing.T) {
	t.Parallel()

	_, _, err := Quantize(r3.Vector{X: math.NaN()}, 0.001, 10)
	assert.ErrorIs(t, err, ErrQuantizationOverflow)

	// key beyond int32 range
	_, _, err = Quantize(r3.Vector{Y: 1e16}, 0.001, 8)
	assert.ErrorIs(t, err, ErrQuantizationOverflow)
}

func TestKeyHierarchy(t *testing.T) {
	t.Parallel()

	k := Key{X: -3, Y: 4, Z: 1, W: 1}
	parent := k.Parent()
	assert.Equal(t, Key{X: -2, Y: 2, Z: 0, W: 2}, parent)
	assert.Equal(t, [3]int32{1, 0, 1}, k.Octant())

	children := parent.Children()
	assert.Contains(t, children, k)
	assert.Equal(t, Key{X: -4, Y: 4, Z: 0, W: 1}, children[0])
	assert.Equal(t, Key{X: -3, Y: 4, Z: 0, W: 1}, children[1])
	assert.Equal(t, Key{X: -4, Y: 5, Z: 0, W: 1}, children[2])
	assert.Equal(t, Key{X: -4, Y: 4, Z: 1, W: 1}, children[4])
	for _, c := range children {
		assert.Equal(t, parent, c.Parent())
	}
}

func TestKeyLess(t *testing.T) {
	t.Parallel()

	assert.True(t, Key{X: 0, Y: 9, Z: 9, W: 9}.Less(Key{X: 1}))
	assert.True(t, Key{X: 1, Y: 0, Z: 9}.Less(Key{X: 1, Y: 1}))
	assert.True(t, Key{Z: 1, W: 1}.Less(Key{Z: 1, W: 2}))
	assert.False(t, Key{X: 1}.Less(Key{X: 1}))
}
