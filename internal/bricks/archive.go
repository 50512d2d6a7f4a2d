package bricks

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/ecopia-map/brick_tiler/internal/tiler"
	"github.com/ecopia-map/brick_tiler/tools"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

const (
	archiveMagicStr = "BRKSTORE"
	archiveVersion1 = 1

	archiveCompNone uint8 = 0
	archiveCompZstd uint8 = 2

	packedPointSize = 10
	normalSize      = 12
)

var (
	ErrArchiveChecksum = errors.New("brick archive checksum mismatch")
	ErrInvalidArchive  = errors.New("invalid brick archive")
)

// Serializes the store: magic, version, compression, xxhash64 of the uncompressed content, zstd content.
func WriteArchive(w io.Writer, s *Store) error {
	content := archiveContent(s)

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return errors.Wrap(err, "cannot create zstd encoder")
	}
	defer enc.Close()
	compressed := enc.EncodeAll(content, nil)

	var out bytes.Buffer
	out.WriteString(archiveMagicStr)
	_ = binary.Write(&out, binary.LittleEndian, uint8(archiveVersion1))
	_ = binary.Write(&out, binary.LittleEndian, archiveCompZstd)
	_ = binary.Write(&out, binary.LittleEndian, xxhash.Sum64(content))
	_, _ = out.Write(compressed)

	_, err = w.Write(out.Bytes())
	return errors.Wrap(err, "cannot write brick archive")
}

// Uncompressed archive content: quantization, bound, then every brick in key order
func archiveContent(s *Store) []byte {
	var content bytes.Buffer
	_ = binary.Write(&content, binary.LittleEndian, s.precision)
	_ = binary.Write(&content, binary.LittleEndian, s.bits)
	_ = binary.Write(&content, binary.LittleEndian, boolByte(s.normals))
	_ = binary.Write(&content, binary.LittleEndian, [6]float64{
		s.bound.Min.X, s.bound.Min.Y, s.bound.Min.Z, s.bound.Max.X, s.bound.Max.Y, s.bound.Max.Z,
	})
	_ = binary.Write(&content, binary.LittleEndian, uint32(len(s.bricks)))
	for _, key := range s.Keys() {
		brick := s.bricks[key]
		_ = binary.Write(&content, binary.LittleEndian, [4]int32{key.X, key.Y, key.Z, key.W})
		_ = binary.Write(&content, binary.LittleEndian, uint32(len(brick.Points)))
		_ = binary.Write(&content, binary.LittleEndian, boolByte(brick.HasNormals()))
		_ = binary.Write(&content, binary.LittleEndian, brick.Points)
		if brick.HasNormals() {
			_ = binary.Write(&content, binary.LittleEndian, brick.Normals)
		}
	}
	return content.Bytes()
}

// Parses an archive written by WriteArchive. Quantization settings, keys and points are checked, anything a
// writer could not have produced returns ErrInvalidArchive.
func ReadArchive(r io.Reader) (*Store, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read brick archive")
	}
	if len(data) < 18 || string(data[:8]) != archiveMagicStr {
		return nil, errors.New("not a brick archive")
	}
	if data[8] != archiveVersion1 {
		return nil, errors.Errorf("unsupported brick archive version: %d", data[8])
	}
	checksum := binary.LittleEndian.Uint64(data[10:18])
	content := data[18:]
	switch data[9] {
	case archiveCompNone:
	case archiveCompZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, errors.Wrap(err, "cannot create zstd decoder")
		}
		defer dec.Close()
		content, err = dec.DecodeAll(content, nil)
		if err != nil {
			return nil, errors.Wrap(err, "cannot decompress brick archive")
		}
	default:
		return nil, errors.Errorf("unsupported brick archive compression: %d", data[9])
	}
	if xxhash.Sum64(content) != checksum {
		return nil, ErrArchiveChecksum
	}

	cr := bytes.NewReader(content)
	var precision float64
	var bits uint32
	var normals uint8
	var bound [6]float64
	var numBricks uint32
	for _, v := range []interface{}{&precision, &bits, &normals, &bound, &numBricks} {
		if err := binary.Read(cr, binary.LittleEndian, v); err != nil {
			return nil, errors.Wrap(err, "truncated brick archive header")
		}
	}

	if !tiler.ValidBits(bits) {
		return nil, errors.Wrapf(ErrInvalidArchive, "unsupported bits %d", bits)
	}
	if !(precision > 0) || math.IsInf(precision, 0) {
		return nil, errors.Wrapf(ErrInvalidArchive, "precision must be positive, got %v", precision)
	}

	s := newStore(precision, bits)
	divisor := int64(1) << bits
	s.normals = normals != 0
	s.bound.Min.X, s.bound.Min.Y, s.bound.Min.Z = bound[0], bound[1], bound[2]
	s.bound.Max.X, s.bound.Max.Y, s.bound.Max.Z = bound[3], bound[4], bound[5]

	for i := uint32(0); i < numBricks; i++ {
		var k [4]int32
		var n uint32
		var hasNormals uint8
		for _, v := range []interface{}{&k, &n, &hasNormals} {
			if err := binary.Read(cr, binary.LittleEndian, v); err != nil {
				return nil, errors.Wrapf(err, "truncated brick %d", i)
			}
		}
		key := Key{X: k[0], Y: k[1], Z: k[2], W: k[3]}
		if key.W <= 0 || key.W&(key.W-1) != 0 {
			return nil, errors.Wrapf(ErrInvalidArchive, "brick %d has level scale %d", i, key.W)
		}
		if _, ok := s.bricks[key]; ok {
			return nil, errors.Wrapf(ErrInvalidArchive, "brick %d repeats key %v", i, key)
		}
		if n == 0 {
			return nil, errors.Wrapf(ErrInvalidArchive, "brick %d at %v is empty", i, key)
		}

		need := int(n) * packedPointSize
		if hasNormals != 0 {
			need += int(n) * normalSize
		}
		if need > cr.Len() {
			return nil, fmt.Errorf("brick %d declares %d points, only %d bytes left", i, n, cr.Len())
		}
		brick := &Brick{Points: make([]PackedPoint, n)}
		if err := binary.Read(cr, binary.LittleEndian, brick.Points); err != nil {
			return nil, errors.Wrapf(err, "cannot read points of brick %d", i)
		}
		if hasNormals != 0 {
			brick.Normals = make([][3]float32, n)
			if err := binary.Read(cr, binary.LittleEndian, brick.Normals); err != nil {
				return nil, errors.Wrapf(err, "cannot read normals of brick %d", i)
			}
		}
		for _, p := range brick.Points {
			if int64(p.V[0]) >= divisor || int64(p.V[1]) >= divisor || int64(p.V[2]) >= divisor {
				return nil, errors.Wrapf(ErrInvalidArchive, "brick %d at %v has a point outside its cell", i, key)
			}
		}
		s.bricks[key] = brick
		s.count += int(n)
	}
	if cr.Len() != 0 {
		return nil, errors.Wrapf(ErrInvalidArchive, "%d trailing bytes", cr.Len())
	}
	return s, nil
}

// Writes the archive to disk, replacing any existing file only once the new one is complete
func SaveArchive(filePath string, s *Store) error {
	return tools.WriteFileAtomic(filePath, func(w io.Writer) error {
		return WriteArchive(w, s)
	})
}

func LoadArchive(filePath string) (s *Store, err error) {
	file, err := tools.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer func() { err = tools.CombineClose(err, file) }()

	s, err = ReadArchive(file)
	return s, errors.Wrapf(err, "cannot load %s", filePath)
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
