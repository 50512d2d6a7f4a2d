package brick_tree

import (
	"path/filepath"
	"testing"

	"github.com/ecopia-map/brick_tiler/internal/bricks"
	"github.com/stretchr/testify/assert"
)

func TestTilePaths(t *testing.T) {
	t.Parallel()

	key := bricks.Key{X: 3, Y: 1, Z: 2, W: 4}
	root := filepath.Join("out", "model")

	assert.Equal(t, filepath.Join("out", "model", "4", "2", "1", "3.bsg"), TilePath(root, key, ".bsg"))
	assert.Equal(t, "../../../../model/4/2/1/3.bsg", RelativeTileReference(root, key, ".bsg"))

	containing := TilePath(root, bricks.Key{W: 8}, ".bsg")
	resolved := ResolveTileReference(containing, RelativeTileReference(root, key, ".bsg"))
	assert.Equal(t, TilePath(root, key, ".bsg"), resolved)

	abs, _ := filepath.Abs(TilePath(root, key, ".bsg"))
	assert.Equal(t, abs, ResolveTileReference(containing, abs))
}
