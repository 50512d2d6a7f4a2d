package scenefile

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ecopia-map/brick_tiler/internal/geometry"
	"github.com/ecopia-map/brick_tiler/internal/octree"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Keys of the extras attached to glTF nodes that stand for hierarchy nodes without a glTF equivalent
const (
	ExtrasType       = "type"
	ExtrasFilename   = "filename"
	ExtrasTransition = "transition"
	ExtrasBound      = "bound"
	ExtrasRanges     = "ranges"
)

// Converts a hierarchy into a glTF document. Tiles become POINTS primitives with positions decoded relative to the
// global offset; switch nodes keep their parameters in node extras.
func EncodeGLTF(node octree.Node) (*gltf.Document, error) {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "brick_tiler"

	b := &gltfBuilder{doc: doc}
	if node == nil {
		return doc, nil
	}
	root, err := b.add(node)
	if err != nil {
		return nil, err
	}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, root)
	return doc, nil
}

type gltfBuilder struct {
	doc *gltf.Document
}

func (b *gltfBuilder) add(node octree.Node) (int, error) {
	gn := &gltf.Node{}
	var children []octree.Node

	switch n := node.(type) {
	case *octree.Group:
		gn.Name = "Group"
		children = n.Children
	case *octree.StateGroup:
		gn.Name = "StateGroup"
		gn.Extras = map[string]interface{}{ExtrasType: "StateGroup", "format": n.Format.String(), "point_size": n.PointSize}
		children = n.Children
	case *octree.CullGroup:
		gn.Name = "CullGroup"
		gn.Extras = map[string]interface{}{ExtrasType: "CullGroup", ExtrasBound: sphereExtras(n.Bound)}
		children = n.Children
	case *octree.Transform:
		gn.Name = "Transform"
		gn.Translation = [3]float64{n.Translation.X, n.Translation.Y, n.Translation.Z}
		children = n.Children
	case *octree.LOD:
		gn.Name = "LOD"
		gn.Extras = map[string]interface{}{
			ExtrasType:   "LOD",
			ExtrasBound:  sphereExtras(n.Bound),
			ExtrasRanges: []float64{n.High.MinScreenRatio, n.Low.MinScreenRatio},
		}
		children = []octree.Node{n.High.Node, n.Low.Node}
	case *octree.PagedLOD:
		gn.Name = "PagedLOD"
		gn.Extras = map[string]interface{}{
			ExtrasType:       "PagedLOD",
			ExtrasBound:      sphereExtras(n.Bound),
			ExtrasFilename:   n.Filename,
			ExtrasTransition: n.Transition,
		}
		children = []octree.Node{n.Low}
	case *octree.Geometry:
		gn.Name = "Tile " + n.Tile.Key.String()
		gn.Mesh = gltf.Index(b.addMesh(n))
	default:
		return 0, fmt.Errorf("cannot export node of type %T", node)
	}

	for _, child := range children {
		if child == nil {
			continue
		}
		idx, err := b.add(child)
		if err != nil {
			return 0, err
		}
		gn.Children = append(gn.Children, idx)
	}

	b.doc.Nodes = append(b.doc.Nodes, gn)
	return len(b.doc.Nodes) - 1, nil
}

func (b *gltfBuilder) addMesh(n *octree.Geometry) int {
	t := n.Tile
	positions := make([][3]float32, t.Count)
	colors := make([][4]float32, t.Count)
	normals := make([][3]float32, t.Count)
	for i := 0; i < t.Count; i++ {
		p := t.Position(i)
		positions[i] = [3]float32{float32(p.X), float32(p.Y), float32(p.Z)}
		c := t.Colors[i]
		colors[i] = [4]float32{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, float32(c[3]) / 255}
		normals[i] = t.Normal(i)
	}

	posAccessor := modeler.WritePosition(b.doc, positions)
	normalAccessor := modeler.WriteNormal(b.doc, normals)
	colorAccessor := modeler.WriteColor(b.doc, colors)

	prim := &gltf.Primitive{
		Attributes: map[string]int{
			gltf.POSITION: posAccessor,
			gltf.NORMAL:   normalAccessor,
			gltf.COLOR_0:  colorAccessor,
		},
		Mode: gltf.PrimitivePoints,
	}
	b.doc.Meshes = append(b.doc.Meshes, &gltf.Mesh{Name: t.Key.String(), Primitives: []*gltf.Primitive{prim}})
	return len(b.doc.Meshes) - 1
}

func sphereExtras(s geometry.Sphere) []float64 {
	return []float64{s.Center.X, s.Center.Y, s.Center.Z, s.Radius}
}

// Encodes node as a glTF binary into w
func EncodeGLB(w io.Writer, node octree.Node) error {
	doc, err := EncodeGLTF(node)
	if err != nil {
		return err
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	return errors.Wrap(enc.Encode(doc), "cannot encode glTF binary")
}

// External tile references held by the PagedLOD nodes of a glTF document
func GLTFTileReferences(doc *gltf.Document) []string {
	var references []string
	for _, n := range doc.Nodes {
		extras := nodeExtras(n.Extras)
		if extras == nil || extras[ExtrasType] != "PagedLOD" {
			continue
		}
		if filename, ok := extras[ExtrasFilename].(string); ok {
			references = append(references, filename)
		}
	}
	return references
}

func nodeExtras(extras interface{}) map[string]interface{} {
	switch e := extras.(type) {
	case map[string]interface{}:
		return e
	case json.RawMessage:
		var decoded map[string]interface{}
		if err := json.Unmarshal(e, &decoded); err == nil {
			return decoded
		}
	}
	return nil
}

// Loads a glTF binary written by Writer
func ReadGLB(filePath string) (*gltf.Document, error) {
	doc, err := gltf.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", filePath)
	}
	return doc, nil
}
