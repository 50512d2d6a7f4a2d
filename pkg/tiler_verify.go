package pkg

import (
	"path/filepath"

	"github.com/ecopia-map/brick_tiler/internal/octree"
	"github.com/ecopia-map/brick_tiler/internal/octree/brick_tree"
	"github.com/ecopia-map/brick_tiler/internal/scenefile"
	"github.com/ecopia-map/brick_tiler/internal/tiler"
	"github.com/ecopia-map/brick_tiler/tools"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// Aggregate figures of a verified scene, paged files included
type VerifyReport struct {
	Files     int
	Tiles     int
	Points    int
	PagedLODs int
	MaxDepth  int // deepest chain of paged files below the top level file
}

// Loads a top level scene file and every file its paged nodes reference, checking that each one decodes and
// passes its checksum
type TilerVerify struct {
	Report VerifyReport
}

func NewTilerVerify() *TilerVerify {
	return &TilerVerify{}
}

func (tilerVerify *TilerVerify) RunTiler(opts *tiler.TilerOptions) error {
	report, err := VerifySceneFile(opts.Input)
	tilerVerify.Report = report
	if err != nil {
		return err
	}

	tools.LogOutput("verified", tools.FormatCount(report.Files), "files,", tools.FormatCount(report.Tiles), "tiles,",
		tools.FormatCount(report.Points), "points, max depth", report.MaxDepth)
	return nil
}

func VerifySceneFile(filePath string) (VerifyReport, error) {
	v := &sceneVerifier{visited: make(map[string]bool)}
	err := v.verify(filePath, 0)
	return v.report, err
}

type sceneVerifier struct {
	report  VerifyReport
	visited map[string]bool
}

func (v *sceneVerifier) verify(filePath string, depth int) error {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return errors.Wrapf(err, "cannot resolve %s", filePath)
	}
	if v.visited[abs] {
		return errors.Errorf("%s is referenced more than once", filePath)
	}
	v.visited[abs] = true

	v.report.Files++
	if depth > v.report.MaxDepth {
		v.report.MaxDepth = depth
	}

	var references []string
	if scenefile.IsGLB(filePath) {
		references, err = v.readGLB(filePath)
	} else {
		references, err = v.readNative(filePath)
	}
	if err != nil {
		return err
	}
	glog.V(2).Infof("verified %s, %d references", filePath, len(references))

	for _, reference := range references {
		if err := v.verify(brick_tree.ResolveTileReference(filePath, reference), depth+1); err != nil {
			return errors.Wrapf(err, "referenced from %s", filePath)
		}
	}
	return nil
}

func (v *sceneVerifier) readNative(filePath string) ([]string, error) {
	root, err := scenefile.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	stats := octree.ComputeStats(root)
	v.report.Tiles += stats.Tiles
	v.report.Points += stats.Points
	v.report.PagedLODs += stats.PagedLODs

	var references []string
	octree.Walk(root, func(n octree.Node) bool {
		if paged, ok := n.(*octree.PagedLOD); ok {
			references = append(references, paged.Filename)
		}
		return true
	})
	return references, nil
}

func (v *sceneVerifier) readGLB(filePath string) ([]string, error) {
	doc, err := scenefile.ReadGLB(filePath)
	if err != nil {
		return nil, err
	}

	for _, mesh := range doc.Meshes {
		v.report.Tiles++
		for _, primitive := range mesh.Primitives {
			if index, ok := primitive.Attributes[gltf.POSITION]; ok && index < len(doc.Accessors) {
				v.report.Points += doc.Accessors[index].Count
			}
		}
	}

	references := scenefile.GLTFTileReferences(doc)
	v.report.PagedLODs += len(references)
	return references, nil
}
