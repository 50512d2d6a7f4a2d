package bricks

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

var ErrQuantizationOverflow = errors.New("point cannot be quantized")

// Floor division, rounding toward negative infinity. divisor must be positive.
func FloorDiv(value, divisor int64) int64 {
	q := value / divisor
	if value%divisor != 0 && value < 0 {
		q--
	}
	return q
}

// Converts a world position into the key of the finest level cell containing it and the local offset of the point
// inside that cell, expressed in precision units.
func Quantize(v r3.Vector, precision float64, bits uint32) (Key, [3]uint16, error) {
	divisor := int64(1) << bits
	scaled := [3]float64{
		math.Round(v.X / precision),
		math.Round(v.Y / precision),
		math.Round(v.Z / precision),
	}

	var key [3]int64
	var local [3]uint16
	for i, s := range scaled {
		// beyond 2^62 the float to int conversion is no longer exact
		if math.IsNaN(s) || math.Abs(s) > 1<<62 {
			return Key{}, local, fmt.Errorf("%w: %v at precision %v", ErrQuantizationOverflow, v, precision)
		}
		iv := int64(s)
		k := FloorDiv(iv, divisor)
		l := iv - k*divisor
		if k < math.MinInt32 || k > math.MaxInt32 || l < 0 || l >= divisor {
			return Key{}, local, fmt.Errorf("%w: %v at precision %v", ErrQuantizationOverflow, v, precision)
		}
		key[i] = k
		local[i] = uint16(l)
	}

	return Key{X: int32(key[0]), Y: int32(key[1]), Z: int32(key[2]), W: 1}, local, nil
}

// Reconstructs the world position of a local offset inside the cell of the given key.
func Dequantize(key Key, local [3]uint16, precision float64, bits uint32) r3.Vector {
	brickPrecision := precision * float64(key.W)
	brickSize := brickPrecision * float64(int64(1)<<bits)
	return r3.Vector{
		X: float64(key.X)*brickSize + float64(local[0])*brickPrecision,
		Y: float64(key.Y)*brickSize + float64(local[1])*brickPrecision,
		Z: float64(key.Z)*brickSize + float64(local[2])*brickPrecision,
	}
}
