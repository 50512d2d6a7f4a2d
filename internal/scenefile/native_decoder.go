package scenefile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/ecopia-map/brick_tiler/internal/bricks"
	"github.com/ecopia-map/brick_tiler/internal/geometry"
	"github.com/ecopia-map/brick_tiler/internal/octree"
	"github.com/ecopia-map/brick_tiler/internal/render"
	"github.com/golang/geo/r3"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Nesting deeper than this is treated as corruption
const maxDepth = 512

// Parses a hierarchy written by Encode
func Decode(r io.Reader) (octree.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read scene")
	}
	if len(data) < headerSize || string(data[:8]) != sceneMagicStr {
		return nil, errors.Wrap(ErrUnsupportedFormat, "missing scene header")
	}
	if data[8] != sceneVersion1 {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "scene version %d", data[8])
	}
	checksum := binary.LittleEndian.Uint64(data[10:headerSize])
	content := data[headerSize:]
	switch data[9] {
	case compNone:
	case compZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, errors.Wrap(err, "cannot create zstd decoder")
		}
		defer dec.Close()
		content, err = dec.DecodeAll(content, nil)
		if err != nil {
			return nil, errors.Wrap(err, "cannot decompress scene")
		}
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "scene compression %d", data[9])
	}
	if xxhash.Sum64(content) != checksum {
		return nil, ErrChecksumMismatch
	}

	d := &decoder{r: bytes.NewReader(content)}
	node, err := d.node(0)
	if err != nil {
		return nil, err
	}
	if d.r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after scene", d.r.Len())
	}
	return node, nil
}

type decoder struct {
	r *bytes.Reader
}

func (d *decoder) read(v interface{}) error {
	if err := binary.Read(d.r, binary.LittleEndian, v); err != nil {
		return errors.Wrap(err, "truncated scene")
	}
	return nil
}

// Allocation guard: n elements of size bytes must still be available
func (d *decoder) check(n uint32, size int) error {
	if int64(n)*int64(size) > int64(d.r.Len()) {
		return fmt.Errorf("scene declares %d elements, only %d bytes left", n, d.r.Len())
	}
	return nil
}

func (d *decoder) node(depth int) (octree.Node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("scene nesting deeper than %d", maxDepth)
	}
	var tag uint8
	if err := d.read(&tag); err != nil {
		return nil, err
	}

	switch tag {
	case tagNil:
		return nil, nil
	case tagGroup:
		children, err := d.children(depth)
		if err != nil {
			return nil, err
		}
		return &octree.Group{Children: children}, nil
	case tagStateGroup:
		var format, normals uint8
		n := &octree.StateGroup{}
		for _, v := range []interface{}{&format, &n.PointSize, &normals} {
			if err := d.read(v); err != nil {
				return nil, err
			}
		}
		n.Format = render.VertexFormat(format)
		n.Normals = normals != 0
		children, err := d.children(depth)
		if err != nil {
			return nil, err
		}
		n.Children = children
		return n, nil
	case tagCullGroup:
		bound, err := d.sphere()
		if err != nil {
			return nil, err
		}
		children, err := d.children(depth)
		if err != nil {
			return nil, err
		}
		return &octree.CullGroup{Bound: bound, Children: children}, nil
	case tagTransform:
		var t [3]float64
		if err := d.read(&t); err != nil {
			return nil, err
		}
		children, err := d.children(depth)
		if err != nil {
			return nil, err
		}
		return &octree.Transform{Translation: r3.Vector{X: t[0], Y: t[1], Z: t[2]}, Children: children}, nil
	case tagLOD:
		n := &octree.LOD{}
		var err error
		if n.Bound, err = d.sphere(); err != nil {
			return nil, err
		}
		if err = d.read(&n.High.MinScreenRatio); err != nil {
			return nil, err
		}
		if n.High.Node, err = d.node(depth + 1); err != nil {
			return nil, err
		}
		if err = d.read(&n.Low.MinScreenRatio); err != nil {
			return nil, err
		}
		if n.Low.Node, err = d.node(depth + 1); err != nil {
			return nil, err
		}
		return n, nil
	case tagPagedLOD:
		n := &octree.PagedLOD{}
		var err error
		if n.Bound, err = d.sphere(); err != nil {
			return nil, err
		}
		var nameLen uint16
		for _, v := range []interface{}{&n.Transition, &nameLen} {
			if err := d.read(v); err != nil {
				return nil, err
			}
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(d.r, name); err != nil {
			return nil, errors.Wrap(err, "truncated file name")
		}
		n.Filename = string(name)
		if n.Low, err = d.node(depth + 1); err != nil {
			return nil, err
		}
		return n, nil
	case tagGeometry:
		return d.geometry()
	}
	return nil, fmt.Errorf("unknown node tag %d", tag)
}

func (d *decoder) children(depth int) ([]octree.Node, error) {
	var n uint32
	if err := d.read(&n); err != nil {
		return nil, err
	}
	// every child takes at least its tag byte
	if err := d.check(n, 1); err != nil {
		return nil, err
	}
	children := make([]octree.Node, 0, n)
	for i := uint32(0); i < n; i++ {
		child, err := d.node(depth + 1)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

func (d *decoder) sphere() (geometry.Sphere, error) {
	var s [4]float64
	if err := d.read(&s); err != nil {
		return geometry.Sphere{}, err
	}
	return geometry.Sphere{Center: r3.Vector{X: s[0], Y: s[1], Z: s[2]}, Radius: s[3]}, nil
}

func (d *decoder) geometry() (octree.Node, error) {
	var key [4]int32
	var format uint8
	var count uint32
	for _, v := range []interface{}{&key, &format, &count} {
		if err := d.read(v); err != nil {
			return nil, err
		}
	}
	stride := render.VertexFormat(format).Stride()
	if stride == 0 {
		return nil, fmt.Errorf("unknown vertex format %d", format)
	}
	if err := d.check(count, stride+4); err != nil {
		return nil, err
	}

	tile := &render.Tile{
		Key:      bricks.Key{X: key[0], Y: key[1], Z: key[2], W: key[3]},
		Format:   render.VertexFormat(format),
		Count:    int(count),
		Vertices: make([]byte, int(count)*stride),
		Colors:   make([][4]uint8, count),
	}
	if _, err := io.ReadFull(d.r, tile.Vertices); err != nil {
		return nil, errors.Wrap(err, "truncated vertices")
	}
	if err := d.read(tile.Colors); err != nil {
		return nil, err
	}

	var numNormals uint32
	if err := d.read(&numNormals); err != nil {
		return nil, err
	}
	if err := d.check(numNormals, 12); err != nil {
		return nil, err
	}
	tile.Normals = make([][3]float32, numNormals)
	for _, v := range []interface{}{tile.Normals, &tile.PositionScale, &tile.PointSize} {
		if err := d.read(v); err != nil {
			return nil, err
		}
	}
	return &octree.Geometry{Tile: tile}, nil
}
