package brick_tree

import (
	"path"
	"path/filepath"
	"strconv"

	"github.com/ecopia-map/brick_tiler/internal/bricks"
)

// Every tile sits four directories below the parent of the tile root: <root>/<w>/<z>/<y>/<x><ext>
const relativePrefix = "../../../.."

// File holding the high detail subtree of the cell
func TilePath(root string, key bricks.Key, extension string) string {
	return filepath.Join(root, tileSuffix(key, extension))
}

// Reference to the tile of the cell from inside another tile of the same root
func RelativeTileReference(root string, key bricks.Key, extension string) string {
	return path.Join(relativePrefix, filepath.Base(root), filepath.ToSlash(tileSuffix(key, extension)))
}

// Resolves a reference found in the file at containingFile
func ResolveTileReference(containingFile string, reference string) string {
	if filepath.IsAbs(reference) {
		return reference
	}
	return filepath.Join(filepath.Dir(containingFile), filepath.FromSlash(reference))
}

func tileSuffix(key bricks.Key, extension string) string {
	return filepath.Join(
		strconv.Itoa(int(key.W)),
		strconv.Itoa(int(key.Z)),
		strconv.Itoa(int(key.Y)),
		strconv.Itoa(int(key.X))+extension,
	)
}
