package scenefile

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/ecopia-map/brick_tiler/internal/octree"
	"github.com/ecopia-map/brick_tiler/tools"
	pkgerrors "github.com/pkg/errors"
)

var (
	ErrChecksumMismatch  = errors.New("scene file checksum mismatch")
	ErrUnsupportedFormat = errors.New("unsupported scene file format")
)

const GLBExtension = ".glb"

// Writes hierarchies to disk, as glTF binaries for the .glb extension and in the native format otherwise
type Writer struct {
	Compress bool // zstd compression of native files
}

func NewWriter(compress bool) *Writer {
	return &Writer{Compress: compress}
}

// The file is complete and closed when Write returns
func (w *Writer) Write(node octree.Node, filePath string) error {
	return tools.WriteFileAtomic(filePath, func(out io.Writer) error {
		if IsGLB(filePath) {
			return EncodeGLB(out, node)
		}
		return Encode(out, node, w.Compress)
	})
}

func IsGLB(filePath string) bool {
	return strings.EqualFold(filepath.Ext(filePath), GLBExtension)
}

// Reads a native scene file
func ReadFile(filePath string) (node octree.Node, err error) {
	if IsGLB(filePath) {
		return nil, pkgerrors.Wrapf(ErrUnsupportedFormat, "%s is a glTF file", filePath)
	}
	file, err := tools.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer func() { err = tools.CombineClose(err, file) }()

	node, err = Decode(file)
	return node, pkgerrors.Wrapf(err, "cannot decode %s", filePath)
}
