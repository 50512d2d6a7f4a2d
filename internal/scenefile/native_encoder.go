package scenefile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/ecopia-map/brick_tiler/internal/geometry"
	"github.com/ecopia-map/brick_tiler/internal/octree"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

const (
	sceneMagicStr = "BRKSCENE"
	sceneVersion1 = 1

	compNone uint8 = 0
	compZstd uint8 = 2

	headerSize = 8 + 1 + 1 + 8
)

const (
	tagNil uint8 = iota
	tagGroup
	tagStateGroup
	tagCullGroup
	tagTransform
	tagLOD
	tagPagedLOD
	tagGeometry
)

// Serializes a hierarchy: magic, version, compression, xxhash64 of the uncompressed content, then the content
// holding the nodes depth first.
func Encode(w io.Writer, node octree.Node, compress bool) error {
	var content bytes.Buffer
	if err := encodeNode(&content, node); err != nil {
		return err
	}

	payload := content.Bytes()
	comp := compNone
	if compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return errors.Wrap(err, "cannot create zstd encoder")
		}
		defer enc.Close()
		payload = enc.EncodeAll(content.Bytes(), nil)
		comp = compZstd
	}

	var out bytes.Buffer
	out.WriteString(sceneMagicStr)
	_ = binary.Write(&out, binary.LittleEndian, uint8(sceneVersion1))
	_ = binary.Write(&out, binary.LittleEndian, comp)
	_ = binary.Write(&out, binary.LittleEndian, xxhash.Sum64(content.Bytes()))
	_, _ = out.Write(payload)

	_, err := w.Write(out.Bytes())
	return errors.Wrap(err, "cannot write scene")
}

func encodeNode(buf *bytes.Buffer, node octree.Node) error {
	switch n := node.(type) {
	case nil:
		_ = binary.Write(buf, binary.LittleEndian, tagNil)
	case *octree.Group:
		_ = binary.Write(buf, binary.LittleEndian, tagGroup)
		return encodeChildren(buf, n.Children)
	case *octree.StateGroup:
		_ = binary.Write(buf, binary.LittleEndian, tagStateGroup)
		_ = binary.Write(buf, binary.LittleEndian, uint8(n.Format))
		_ = binary.Write(buf, binary.LittleEndian, n.PointSize)
		_ = binary.Write(buf, binary.LittleEndian, boolByte(n.Normals))
		return encodeChildren(buf, n.Children)
	case *octree.CullGroup:
		_ = binary.Write(buf, binary.LittleEndian, tagCullGroup)
		writeSphere(buf, n.Bound)
		return encodeChildren(buf, n.Children)
	case *octree.Transform:
		_ = binary.Write(buf, binary.LittleEndian, tagTransform)
		_ = binary.Write(buf, binary.LittleEndian, [3]float64{n.Translation.X, n.Translation.Y, n.Translation.Z})
		return encodeChildren(buf, n.Children)
	case *octree.LOD:
		_ = binary.Write(buf, binary.LittleEndian, tagLOD)
		writeSphere(buf, n.Bound)
		_ = binary.Write(buf, binary.LittleEndian, n.High.MinScreenRatio)
		if err := encodeNode(buf, n.High.Node); err != nil {
			return err
		}
		_ = binary.Write(buf, binary.LittleEndian, n.Low.MinScreenRatio)
		return encodeNode(buf, n.Low.Node)
	case *octree.PagedLOD:
		_ = binary.Write(buf, binary.LittleEndian, tagPagedLOD)
		writeSphere(buf, n.Bound)
		_ = binary.Write(buf, binary.LittleEndian, n.Transition)
		if len(n.Filename) > math.MaxUint16 {
			return fmt.Errorf("file name too long: %s", n.Filename)
		}
		_ = binary.Write(buf, binary.LittleEndian, uint16(len(n.Filename)))
		_, _ = buf.WriteString(n.Filename)
		return encodeNode(buf, n.Low)
	case *octree.Geometry:
		t := n.Tile
		_ = binary.Write(buf, binary.LittleEndian, tagGeometry)
		_ = binary.Write(buf, binary.LittleEndian, [4]int32{t.Key.X, t.Key.Y, t.Key.Z, t.Key.W})
		_ = binary.Write(buf, binary.LittleEndian, uint8(t.Format))
		_ = binary.Write(buf, binary.LittleEndian, uint32(t.Count))
		_, _ = buf.Write(t.Vertices)
		_ = binary.Write(buf, binary.LittleEndian, t.Colors)
		_ = binary.Write(buf, binary.LittleEndian, uint32(len(t.Normals)))
		_ = binary.Write(buf, binary.LittleEndian, t.Normals)
		_ = binary.Write(buf, binary.LittleEndian, t.PositionScale)
		_ = binary.Write(buf, binary.LittleEndian, t.PointSize)
	default:
		return fmt.Errorf("cannot encode node of type %T", node)
	}
	return nil
}

func encodeChildren(buf *bytes.Buffer, children []octree.Node) error {
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(children)))
	for _, child := range children {
		if err := encodeNode(buf, child); err != nil {
			return err
		}
	}
	return nil
}

func writeSphere(buf *bytes.Buffer, s geometry.Sphere) {
	_ = binary.Write(buf, binary.LittleEndian, [4]float64{s.Center.X, s.Center.Y, s.Center.Z, s.Radius})
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
