package brick_tree

import (
	"errors"
	"math"
	"path/filepath"

	"github.com/ecopia-map/brick_tiler/internal/bricks"
	"github.com/ecopia-map/brick_tiler/internal/geometry"
	"github.com/ecopia-map/brick_tiler/internal/octree"
	"github.com/ecopia-map/brick_tiler/internal/render"
	"github.com/ecopia-map/brick_tiler/internal/tiler"
	"github.com/golang/glog"
	pkgerrors "github.com/pkg/errors"
)

var ErrEmptyBricks = errors.New("no bricks to build a hierarchy from")

// Persists a subtree to a file. Write must not return before the file is complete and closed.
type SceneWriter interface {
	Write(node octree.Node, filePath string) error
}

// Builds the switch node of a cell that has both a coarse brick and finer children
type interiorEmitter interface {
	emit(key bricks.Key, bound geometry.Sphere, transition float64, children []octree.Node, low octree.Node, root bool) (octree.Node, error)
}

// Assembles levels of bricks into a hierarchy of nodes
type Assembler struct {
	settings tiler.Settings
	interior interiorEmitter
	bound    geometry.BoundingBox
}

// The interior node flavour is fixed here: PAGEDLOD writes subtrees through writer, any other create type keeps
// them in memory.
func NewAssembler(settings tiler.Settings, writer SceneWriter) (*Assembler, error) {
	a := &Assembler{settings: settings, bound: geometry.NewBoundingBox()}
	if settings.CreateType == tiler.CreateTypePagedLOD {
		if writer == nil {
			return nil, errors.New("paged hierarchies need a scene writer")
		}
		base := filepath.Base(settings.Path)
		if settings.Path == "" || base == "." || base == string(filepath.Separator) {
			return nil, pkgerrors.Errorf("invalid tile root %q", settings.Path)
		}
		a.interior = &pagedEmitter{settings: settings, writer: writer}
	} else {
		a.interior = &lodEmitter{}
	}
	return a, nil
}

// World box of the points emitted so far, relative to the settings offset
func (a *Assembler) Bound() geometry.BoundingBox {
	return a.bound
}

// Resolves the cell key at levels[level]. Absent cells return a nil node, cells of the finest level return their
// geometry and other cells a switch between their children and their own coarse brick. bound grows by the points
// emitted under the returned node.
func (a *Assembler) Subtile(levels Levels, level int, key bricks.Key, bound *geometry.BoundingBox, root bool) (octree.Node, error) {
	brick, ok := levels[level].Find(key)
	if !ok {
		return nil, nil
	}

	if level == 0 {
		return a.geometry(brick, key, bound)
	}

	subtilesBound := geometry.NewBoundingBox()
	var children []octree.Node
	for _, childKey := range key.Children() {
		child, err := a.Subtile(levels, level-1, childKey, &subtilesBound, false)
		if err != nil {
			return nil, err
		}
		if child != nil {
			children = append(children, child)
		}
	}

	localBound := geometry.NewBoundingBox()
	low, err := a.geometry(brick, key, &localBound)
	if err != nil {
		return nil, err
	}
	bound.Union(localBound)

	if len(children) == 0 {
		return low, nil
	}

	transition := a.settings.Transition
	nodeBound := localBound
	if subtilesBound.Valid() {
		bound.Union(subtilesBound)
		nodeBound.Union(subtilesBound)

		brickPrecision := a.settings.BrickPrecision(key.W)
		brickSize := a.settings.BrickSize(key.W)
		maxSize := math.Max(brickPrecision, subtilesBound.MaxExtent())
		transition *= maxSize / brickSize
	} else {
		glog.Warningf("children of cell %v have no bound", key)
	}

	return a.interior.emit(key, nodeBound.Sphere(), transition, children, low, root)
}

// Top of the hierarchy. A single level yields every brick under one state group, otherwise each root cell is
// resolved recursively. Returns nil when there is nothing to emit.
func (a *Assembler) CreatePagedLOD(levels Levels) (octree.Node, error) {
	if len(levels) == 0 {
		return nil, nil
	}

	group := a.stateGroup(levels[0].HasNormals())
	if len(levels) == 1 {
		var err error
		levels[0].Range(func(key bricks.Key, brick *bricks.Brick) bool {
			var node octree.Node
			node, err = a.geometry(brick, key, &a.bound)
			if err != nil {
				return false
			}
			group.Children = append(group.Children, node)
			return true
		})
		if err != nil {
			return nil, err
		}
		return group, nil
	}

	rootLevel := len(levels) - 1
	for _, key := range levels.Root().Keys() {
		node, err := a.Subtile(levels, rootLevel, key, &a.bound, true)
		if err != nil {
			return nil, err
		}
		if node != nil {
			group.Children = append(group.Children, node)
		}
	}
	if len(group.Children) == 0 {
		return nil, nil
	}
	return group, nil
}

// Every brick of the store as a sibling under one state group
func (a *Assembler) CreateFlat(store *bricks.Store) (octree.Node, error) {
	group := a.stateGroup(store.HasNormals())
	var err error
	store.Range(func(key bricks.Key, brick *bricks.Brick) bool {
		var node octree.Node
		node, err = a.geometry(brick, key, &a.bound)
		if err != nil {
			return false
		}
		group.Children = append(group.Children, node)
		return true
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (a *Assembler) geometry(brick *bricks.Brick, key bricks.Key, bound *geometry.BoundingBox) (octree.Node, error) {
	tile, err := render.NewTile(brick, a.settings, key, bound)
	if err != nil {
		glog.Warningf("cannot emit geometry of cell %v: %v", key, err)
		return nil, err
	}
	return &octree.Geometry{Tile: tile}, nil
}

func (a *Assembler) stateGroup(normals bool) *octree.StateGroup {
	format, _ := render.FormatForBits(a.settings.Bits)
	return &octree.StateGroup{
		Format:    format,
		PointSize: a.settings.PointSize,
		Normals:   normals,
	}
}

func wrapChildren(children []octree.Node) octree.Node {
	if len(children) == 1 {
		return children[0]
	}
	return &octree.Group{Children: children}
}

type lodEmitter struct{}

func (e *lodEmitter) emit(key bricks.Key, bound geometry.Sphere, transition float64, children []octree.Node, low octree.Node, root bool) (octree.Node, error) {
	return &octree.LOD{
		Bound: bound,
		High:  octree.LODChild{MinScreenRatio: transition, Node: wrapChildren(children)},
		Low:   octree.LODChild{MinScreenRatio: 0, Node: low},
	}, nil
}

type pagedEmitter struct {
	settings tiler.Settings
	writer   SceneWriter
}

func (e *pagedEmitter) emit(key bricks.Key, bound geometry.Sphere, transition float64, children []octree.Node, low octree.Node, root bool) (octree.Node, error) {
	tilePath := TilePath(e.settings.Path, key, e.settings.Extension)
	if err := e.writer.Write(wrapChildren(children), tilePath); err != nil {
		return nil, pkgerrors.Wrapf(err, "cannot write tile of cell %v", key)
	}
	glog.V(2).Infof("wrote %s with %d children", tilePath, len(children))

	filename := RelativeTileReference(e.settings.Path, key, e.settings.Extension)
	if root {
		abs, err := filepath.Abs(tilePath)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "cannot resolve %s", tilePath)
		}
		filename = abs
	}

	return &octree.PagedLOD{
		Bound:      bound,
		Filename:   filename,
		Transition: transition,
		Low:        low,
	}, nil
}
