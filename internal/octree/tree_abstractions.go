package octree

import (
	"github.com/ecopia-map/brick_tiler/internal/geometry"
	"github.com/ecopia-map/brick_tiler/internal/render"
	"github.com/golang/geo/r3"
)

// Element of an assembled point cloud hierarchy
type Node interface {
	// Nodes held in memory below this one. Paged content is not included.
	GetChildren() []Node
}

// Plain container
type Group struct {
	Children []Node
}

// Container carrying the render state shared by every tile below it
type StateGroup struct {
	Format    render.VertexFormat
	PointSize float64
	Normals   bool // tiles below carry per vertex normals
	Children  []Node
}

// Container skipped by the renderer when its bounding sphere is out of view
type CullGroup struct {
	Bound    geometry.Sphere
	Children []Node
}

type Transform struct {
	Translation r3.Vector
	Children    []Node
}

// Alternative of a switch node, selected while the node covers at least MinScreenRatio of the screen
type LODChild struct {
	MinScreenRatio float64
	Node           Node
}

// In memory switch between a high detail subtree and the coarse brick of the same cell
type LOD struct {
	Bound geometry.Sphere
	High  LODChild
	Low   LODChild
}

// Switch whose high detail subtree lives in an external file, loaded on demand once the node covers at least
// Transition of the screen. Filename is absolute for the root and relative to the file holding the node otherwise.
type PagedLOD struct {
	Bound      geometry.Sphere
	Filename   string
	Transition float64
	Low        Node
}

// Leaf drawing the points of one brick
type Geometry struct {
	Tile *render.Tile
}

func (n *Group) GetChildren() []Node      { return n.Children }
func (n *StateGroup) GetChildren() []Node { return n.Children }
func (n *CullGroup) GetChildren() []Node  { return n.Children }
func (n *Transform) GetChildren() []Node  { return n.Children }
func (n *LOD) GetChildren() []Node        { return []Node{n.High.Node, n.Low.Node} }
func (n *PagedLOD) GetChildren() []Node   { return []Node{n.Low} }
func (n *Geometry) GetChildren() []Node   { return nil }

// Visits the in memory tree depth first. Returning false from fn skips the children of the visited node.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	for _, child := range node.GetChildren() {
		Walk(child, fn)
	}
}

// Aggregate figures of an in memory tree
type Stats struct {
	Nodes     int
	Tiles     int
	Points    int
	PagedLODs int
	LODs      int
}

func ComputeStats(root Node) Stats {
	var stats Stats
	Walk(root, func(n Node) bool {
		stats.Nodes++
		switch node := n.(type) {
		case *Geometry:
			stats.Tiles++
			stats.Points += node.Tile.Count
		case *PagedLOD:
			stats.PagedLODs++
		case *LOD:
			stats.LODs++
		}
		return true
	})
	return stats
}
