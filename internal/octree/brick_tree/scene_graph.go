package brick_tree

import (
	"github.com/ecopia-map/brick_tiler/internal/bricks"
	"github.com/ecopia-map/brick_tiler/internal/geometry"
	"github.com/ecopia-map/brick_tiler/internal/octree"
	"github.com/ecopia-map/brick_tiler/internal/tiler"
	"github.com/golang/geo/r3"
	"github.com/golang/glog"
)

// Result of assembling a brick store
type SceneGraph struct {
	Root     octree.Node
	Settings tiler.Settings // settings the tiles were emitted with, Offset included
	Levels   Levels         // nil for FLAT hierarchies
	Bound    geometry.BoundingBox
}

// Builds the hierarchy of the given leaf store. FLAT puts every brick under a culled, recentered container.
// LOD and PAGEDLOD move the occupied keys to a non negative origin, coarsen them to a single root cell and place
// the assembled tree under a transform back to world space. Returns ErrEmptyBricks when the store is empty.
func CreateSceneGraph(store *bricks.Store, settings tiler.Settings, writer SceneWriter) (*SceneGraph, error) {
	if store.Empty() {
		glog.Warningln("no bricks to build a scene graph from")
		return nil, ErrEmptyBricks
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	settings.Bound = store.Bound()
	if !settings.Bound.Valid() {
		settings.Bound = keyBoundingBox(store, settings)
	}

	if settings.CreateType == tiler.CreateTypeFlat {
		settings.Offset = settings.Bound.Center()
		assembler, err := NewAssembler(settings, writer)
		if err != nil {
			return nil, err
		}
		group, err := assembler.CreateFlat(store)
		if err != nil {
			return nil, err
		}

		return &SceneGraph{
			Root: &octree.CullGroup{
				Bound: settings.Bound.Sphere(),
				Children: []octree.Node{&octree.Transform{
					Translation: settings.Offset,
					Children:    []octree.Node{group},
				}},
			},
			Settings: settings,
			Bound:    settings.Bound,
		}, nil
	}

	if err := checkKeySpan(store); err != nil {
		return nil, err
	}
	keyOrigin, _, _ := store.KeyBounds()
	brickSize := settings.BrickSize(1)
	translation := r3.Vector{
		X: float64(keyOrigin.X) * brickSize,
		Y: float64(keyOrigin.Y) * brickSize,
		Z: float64(keyOrigin.Z) * brickSize,
	}
	settings.Offset = r3.Vector{}

	levels, err := BuildLevels(store.Translate(-keyOrigin.X, -keyOrigin.Y, -keyOrigin.Z), settings)
	if err != nil {
		return nil, err
	}
	glog.Infof("generated %d levels from %d cells", len(levels), store.Size())

	assembler, err := NewAssembler(settings, writer)
	if err != nil {
		return nil, err
	}
	node, err := assembler.CreatePagedLOD(levels)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, ErrEmptyBricks
	}

	bound := assembler.Bound()
	bound.Min = bound.Min.Add(translation)
	bound.Max = bound.Max.Add(translation)
	settings.Offset = translation

	return &SceneGraph{
		Root: &octree.Transform{
			Translation: translation,
			Children:    []octree.Node{node},
		},
		Settings: settings,
		Levels:   levels,
		Bound:    bound,
	}, nil
}

// World box covered by the occupied cells of a store without a recorded bound
func keyBoundingBox(store *bricks.Store, settings tiler.Settings) geometry.BoundingBox {
	min, max, ok := store.KeyBounds()
	if !ok {
		return geometry.NewBoundingBox()
	}
	size := settings.BrickSize(min.W)
	return geometry.NewBoundingBoxFromCorners(
		r3.Vector{X: float64(min.X) * size, Y: float64(min.Y) * size, Z: float64(min.Z) * size},
		r3.Vector{X: float64(max.X+1) * size, Y: float64(max.Y+1) * size, Z: float64(max.Z+1) * size},
	)
}
