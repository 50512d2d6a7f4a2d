package pkg

import (
	"path/filepath"
	"strconv"
	"sync"

	"github.com/ecopia-map/brick_tiler/internal/bricks"
	"github.com/ecopia-map/brick_tiler/internal/io"
	"github.com/ecopia-map/brick_tiler/internal/octree"
	"github.com/ecopia-map/brick_tiler/internal/octree/brick_tree"
	"github.com/ecopia-map/brick_tiler/internal/scenefile"
	"github.com/ecopia-map/brick_tiler/internal/tiler"
	"github.com/ecopia-map/brick_tiler/pkg/algorithm_manager"
	"github.com/ecopia-map/brick_tiler/tools"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Reads point files into a single brick store and writes its scene graph
type TilerBuild struct {
	fileFinder       tools.FileFinder
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewTiler(fileFinder tools.FileFinder, algorithmManager algorithm_manager.AlgorithmManager) tiler.ITiler {
	return &TilerBuild{
		fileFinder:       fileFinder,
		algorithmManager: algorithmManager,
	}
}

// Starts the tiling process
func (tilerBuild *TilerBuild) RunTiler(opts *tiler.TilerOptions) error {
	glog.Infoln("Preparing list of files to process...")

	// Prepare list of files to process
	pointFiles, err := tilerBuild.fileFinder.GetPointFilesToProcess(opts)
	if err != nil {
		return err
	}
	defer tilerBuild.algorithmManager.GetCoordinateConverterAlgorithm().Cleanup()

	store := tilerBuild.algorithmManager.GetStoreAlgorithm()
	for i, filePath := range pointFiles {
		tools.LogOutput("Processing file " + strconv.Itoa(i+1) + "/" + strconv.Itoa(len(pointFiles)) + ", " + filepath.Base(filePath))
		if err := readPointFile(filePath, opts, store, tilerBuild.algorithmManager); err != nil {
			return err
		}
	}

	_, err = exportSceneGraph(store, opts)
	return err
}

// Streams the points of a file into store through a reader goroutine and a single consumer, so batches are
// inserted in reading order
func readPointFile(filePath string, opts *tiler.TilerOptions, store *bricks.Store, algorithmManager algorithm_manager.AlgorithmManager) error {
	tools.LogOutput("> reading data from point file...", filepath.Base(filePath))

	// init channel where to submit work with a small buffer so reading runs ahead of inserting
	workChannel := make(chan *io.WorkUnit, 5)

	// room for one error per goroutine, neither blocks when reporting
	errorChannel := make(chan error, 2)

	var waitGroup sync.WaitGroup
	waitGroup.Add(2)

	producer := io.NewStandardProducer(filePath, opts)
	go producer.Produce(workChannel, errorChannel, &waitGroup)

	consumer := io.NewStandardConsumer(
		store,
		algorithmManager.GetCoordinateConverterAlgorithm(),
		algorithmManager.GetElevationCorrectionAlgorithm(),
		opts.Srid,
		opts.TargetSrid,
	)
	go consumer.Consume(workChannel, errorChannel, &waitGroup)

	// wait for producer and consumer to finish
	waitGroup.Wait()
	close(errorChannel)

	var errs error
	for err := range errorChannel {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return errors.Wrapf(errs, "cannot read %s", filePath)
	}
	return nil
}

// Builds the scene graph of store and writes its top level scene file to opts.Output. Paged tiles go to a folder
// named after the output file.
func exportSceneGraph(store *bricks.Store, opts *tiler.TilerOptions) (*brick_tree.SceneGraph, error) {
	tools.LogOutput("> building scene graph...")

	settings := opts.Settings
	settings.SetOutput(opts.Output)
	writer := scenefile.NewWriter(opts.Compress)

	graph, err := brick_tree.CreateSceneGraph(store, settings, writer)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot build scene graph of %s", opts.Input)
	}

	tools.LogOutput("> exporting data...")
	if err := writer.Write(graph.Root, opts.Output); err != nil {
		return nil, err
	}

	logRunSummary(store, graph)
	tools.LogOutput("> done writing", opts.Output)
	return graph, nil
}

func logRunSummary(store *bricks.Store, graph *brick_tree.SceneGraph) {
	settings := graph.Settings
	keyMin, keyMax, _ := store.KeyBounds()

	glog.Infof("read %s points into %s bricks, biggest brick %s points",
		tools.FormatCount(store.Count()), tools.FormatCount(store.Size()), tools.FormatCount(store.MaxBrickCount()))
	glog.Infof("key bounds %v - %v, brick size %s m, bound %s x %s x %s m",
		keyMin, keyMax,
		tools.FormatBrickSize(settings.Precision, settings.Bits, 1),
		tools.FormatLength(graph.Bound.Extent().X), tools.FormatLength(graph.Bound.Extent().Y), tools.FormatLength(graph.Bound.Extent().Z))
	for i, level := range graph.Levels {
		glog.Infof("level %d: %s cells, %s points", i, tools.FormatCount(level.Size()), tools.FormatCount(level.Count()))
	}

	stats := octree.ComputeStats(graph.Root)
	tools.LogOutput("levels", len(graph.Levels), "tiles in top level file", stats.Tiles, "paged nodes", stats.PagedLODs, "switch nodes", stats.LODs)
}
