package pkg

import (
	"path/filepath"
	"strconv"

	"github.com/ecopia-map/brick_tiler/internal/bricks"
	"github.com/ecopia-map/brick_tiler/internal/tiler"
	"github.com/ecopia-map/brick_tiler/pkg/algorithm_manager"
	"github.com/ecopia-map/brick_tiler/tools"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Merges the brick archives of a folder into one store and writes its scene graph
type TilerMerge struct {
	fileFinder       tools.FileFinder
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewTilerMerge(fileFinder tools.FileFinder, algorithmManager algorithm_manager.AlgorithmManager) tiler.ITiler {
	return &TilerMerge{
		fileFinder:       fileFinder,
		algorithmManager: algorithmManager,
	}
}

func (tilerMerge *TilerMerge) RunTiler(opts *tiler.TilerOptions) error {
	glog.Infoln("Preparing list of archives to merge...")

	archivePaths, err := tilerMerge.fileFinder.GetArchivesToMerge(opts)
	if err != nil {
		return err
	}
	if len(archivePaths) == 0 {
		return errors.Errorf("no brick archives found in %s", opts.Input)
	}

	merged, err := tilerMerge.mergeArchives(archivePaths)
	if err != nil {
		return err
	}

	// archives keep the quantization they were indexed with
	mergeOpts := opts.Copy()
	if merged.Precision() != opts.Settings.Precision || merged.Bits() != opts.Settings.Bits {
		glog.Warningf("archives were indexed with precision %v and %d bits, ignoring precision %v and %d bits",
			merged.Precision(), merged.Bits(), opts.Settings.Precision, opts.Settings.Bits)
		mergeOpts.Settings.Precision = merged.Precision()
		mergeOpts.Settings.Bits = merged.Bits()
	}

	if _, err := exportSceneGraph(merged, mergeOpts); err != nil {
		return err
	}

	tools.LogOutput("> done merging", opts.Input)
	return nil
}

func (tilerMerge *TilerMerge) mergeArchives(archivePaths []string) (*bricks.Store, error) {
	var merged *bricks.Store
	for i, archivePath := range archivePaths {
		tools.LogOutput("Merging archive " + strconv.Itoa(i+1) + "/" + strconv.Itoa(len(archivePaths)) + ", " + filepath.Base(archivePath))

		store, err := bricks.LoadArchive(archivePath)
		if err != nil {
			return nil, err
		}
		if merged == nil {
			merged = store
			continue
		}
		if err := merged.Merge(store); err != nil {
			return nil, errors.Wrapf(err, "cannot merge %s", archivePath)
		}
	}
	return merged, nil
}
