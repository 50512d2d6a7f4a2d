package pkg

import (
	"path/filepath"
	"strconv"

	"github.com/ecopia-map/brick_tiler/internal/bricks"
	"github.com/ecopia-map/brick_tiler/internal/tiler"
	"github.com/ecopia-map/brick_tiler/pkg/algorithm_manager"
	"github.com/ecopia-map/brick_tiler/tools"
	"github.com/golang/glog"
)

// Reads each point file into its own brick archive, deferring hierarchy assembly to the merge command
type TilerIndex struct {
	fileFinder       tools.FileFinder
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewTilerIndex(fileFinder tools.FileFinder, algorithmManager algorithm_manager.AlgorithmManager) tiler.ITiler {
	return &TilerIndex{
		fileFinder:       fileFinder,
		algorithmManager: algorithmManager,
	}
}

func (tilerIndex *TilerIndex) RunTiler(opts *tiler.TilerOptions) error {
	glog.Infoln("Preparing list of files to process...")

	pointFiles, err := tilerIndex.fileFinder.GetPointFilesToProcess(opts)
	if err != nil {
		return err
	}
	for i, filePath := range pointFiles {
		glog.Infof("point_file path %d [%s]", i+1, filePath)
	}
	defer tilerIndex.algorithmManager.GetCoordinateConverterAlgorithm().Cleanup()

	for i, filePath := range pointFiles {
		tools.LogOutput("Processing file " + strconv.Itoa(i+1) + "/" + strconv.Itoa(len(pointFiles)))
		if err := tilerIndex.processPointFile(filePath, opts); err != nil {
			return err
		}
	}

	return nil
}

func (tilerIndex *TilerIndex) processPointFile(filePath string, opts *tiler.TilerOptions) error {
	store := tilerIndex.algorithmManager.GetStoreAlgorithm()
	if err := readPointFile(filePath, opts, store, tilerIndex.algorithmManager); err != nil {
		return err
	}
	if store.Empty() {
		glog.Warningf("no points read from %s, skipping", filePath)
		return nil
	}

	archivePath := filepath.Join(opts.Output, tools.ChunkArchiveName(filePath))
	if err := bricks.SaveArchive(archivePath, store); err != nil {
		return err
	}

	glog.Infof("%s: %s points in %s bricks", archivePath, tools.FormatCount(store.Count()), tools.FormatCount(store.Size()))
	tools.LogOutput("> done processing", filepath.Base(filePath))
	return nil
}
