package render

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ecopia-map/brick_tiler/internal/bricks"
	"github.com/ecopia-map/brick_tiler/internal/geometry"
	"github.com/ecopia-map/brick_tiler/internal/tiler"
	"github.com/golang/geo/r3"
)

var ErrUnsupportedBits = errors.New("unsupported vertex bit depth")

// Packed layout of the quantized vertices of a tile
type VertexFormat uint8

const (
	FormatR8G8B8Unorm            VertexFormat = 1 // three bytes per vertex
	FormatA2R10G10B10UnormPack32 VertexFormat = 2 // one little endian uint32 per vertex, x in bits 20-29
	FormatR16G16B16Unorm         VertexFormat = 3 // three little endian uint16 per vertex
)

func FormatForBits(bits uint32) (VertexFormat, error) {
	switch bits {
	case 8:
		return FormatR8G8B8Unorm, nil
	case 10:
		return FormatA2R10G10B10UnormPack32, nil
	case 16:
		return FormatR16G16B16Unorm, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnsupportedBits, bits)
}

func (f VertexFormat) Bits() uint32 {
	switch f {
	case FormatR8G8B8Unorm:
		return 8
	case FormatA2R10G10B10UnormPack32:
		return 10
	case FormatR16G16B16Unorm:
		return 16
	}
	return 0
}

// Bytes per vertex
func (f VertexFormat) Stride() int {
	switch f {
	case FormatR8G8B8Unorm:
		return 3
	case FormatA2R10G10B10UnormPack32:
		return 4
	case FormatR16G16B16Unorm:
		return 6
	}
	return 0
}

func (f VertexFormat) String() string {
	switch f {
	case FormatR8G8B8Unorm:
		return "R8G8B8_UNORM"
	case FormatA2R10G10B10UnormPack32:
		return "A2R10G10B10_UNORM_PACK32"
	case FormatR16G16B16Unorm:
		return "R16G16B16_UNORM"
	}
	return "UNDEFINED"
}

// Renderable description of one brick. Vertices hold the quantized local offsets, normalized by the format they
// decode to [0, 1] and map to world space through PositionScale: origin + normalized * scale.
type Tile struct {
	Key           bricks.Key
	Format        VertexFormat
	Count         int
	Vertices      []byte
	Colors        [][4]uint8
	Normals       [][3]float32 // a single shared normal or one per vertex
	PositionScale [4]float64   // brick origin minus offset, brick size minus one brick precision
	PointSize     [2]float64   // brick precision times the point size multiplier, brick precision
}

// Packs the points of a brick for rendering and grows bound, when not nil, by their world positions.
func NewTile(brick *bricks.Brick, settings tiler.Settings, key bricks.Key, bound *geometry.BoundingBox) (*Tile, error) {
	format, err := FormatForBits(settings.Bits)
	if err != nil {
		return nil, err
	}

	brickPrecision := settings.BrickPrecision(key.W)
	brickSize := settings.BrickSize(key.W)
	position := r3.Vector{
		X: float64(key.X) * brickSize,
		Y: float64(key.Y) * brickSize,
		Z: float64(key.Z) * brickSize,
	}.Sub(settings.Offset)

	count := len(brick.Points)
	stride := format.Stride()
	tile := &Tile{
		Key:           key,
		Format:        format,
		Count:         count,
		Vertices:      make([]byte, count*stride),
		Colors:        make([][4]uint8, count),
		PositionScale: [4]float64{position.X, position.Y, position.Z, brickSize - brickPrecision},
		PointSize:     [2]float64{brickPrecision * settings.PointSize, brickPrecision},
	}

	for i, p := range brick.Points {
		v := tile.Vertices[i*stride : (i+1)*stride]
		switch format {
		case FormatR8G8B8Unorm:
			v[0], v[1], v[2] = uint8(p.V[0]), uint8(p.V[1]), uint8(p.V[2])
		case FormatA2R10G10B10UnormPack32:
			binary.LittleEndian.PutUint32(v, 3<<30|uint32(p.V[0])<<20|uint32(p.V[1])<<10|uint32(p.V[2]))
		case FormatR16G16B16Unorm:
			binary.LittleEndian.PutUint16(v[0:], p.V[0])
			binary.LittleEndian.PutUint16(v[2:], p.V[1])
			binary.LittleEndian.PutUint16(v[4:], p.V[2])
		}
		tile.Colors[i] = p.C

		if bound != nil {
			bound.Add(position.Add(r3.Vector{X: float64(p.V[0]), Y: float64(p.V[1]), Z: float64(p.V[2])}.Mul(brickPrecision)))
		}
	}

	if brick.HasNormals() {
		tile.Normals = make([][3]float32, count)
		copy(tile.Normals, brick.Normals)
	} else {
		tile.Normals = [][3]float32{bricks.DefaultNormal}
	}

	return tile, nil
}

// Quantized local offset of the i-th vertex
func (t *Tile) Vertex(i int) [3]uint32 {
	stride := t.Format.Stride()
	v := t.Vertices[i*stride : (i+1)*stride]
	switch t.Format {
	case FormatR8G8B8Unorm:
		return [3]uint32{uint32(v[0]), uint32(v[1]), uint32(v[2])}
	case FormatA2R10G10B10UnormPack32:
		p := binary.LittleEndian.Uint32(v)
		return [3]uint32{(p >> 20) & 0x3ff, (p >> 10) & 0x3ff, p & 0x3ff}
	case FormatR16G16B16Unorm:
		return [3]uint32{
			uint32(binary.LittleEndian.Uint16(v[0:])),
			uint32(binary.LittleEndian.Uint16(v[2:])),
			uint32(binary.LittleEndian.Uint16(v[4:])),
		}
	}
	return [3]uint32{}
}

// Position of the i-th vertex relative to the global offset, decoded the way a renderer does
func (t *Tile) Position(i int) r3.Vector {
	v := t.Vertex(i)
	maxValue := float64(uint32(1)<<t.Format.Bits() - 1)
	scale := t.PositionScale[3] / maxValue
	return r3.Vector{
		X: t.PositionScale[0] + float64(v[0])*scale,
		Y: t.PositionScale[1] + float64(v[1])*scale,
		Z: t.PositionScale[2] + float64(v[2])*scale,
	}
}

// Normal of the i-th vertex
func (t *Tile) Normal(i int) [3]float32 {
	if len(t.Normals) == 1 {
		return t.Normals[0]
	}
	return t.Normals[i]
}
