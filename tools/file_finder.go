package tools

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ecopia-map/brick_tiler/internal/tiler"
	"github.com/pkg/errors"
)

type FileFinder interface {
	GetPointFilesToProcess(opts *tiler.TilerOptions) ([]string, error)
	GetArchivesToMerge(opts *tiler.TilerOptions) ([]string, error)
}

type StandardFileFinder struct {
	isPointFile func(filePath string) bool
}

// isPointFile tells which files of an input folder are point files
func NewStandardFileFinder(isPointFile func(filePath string) bool) FileFinder {
	return &StandardFileFinder{isPointFile: isPointFile}
}

func (f *StandardFileFinder) GetPointFilesToProcess(opts *tiler.TilerOptions) ([]string, error) {
	// If folder processing is not enabled then the point file is given by -input flag, otherwise look for point files
	// in -input folder eventually excluding nested folders if Recursive flag is disabled
	if !opts.FolderProcessing {
		return []string{opts.Input}, nil
	}

	return f.findFiles(opts.Input, opts.Recursive, f.isPointFile)
}

// Archives written by the index command directly inside the -input folder
func (f *StandardFileFinder) GetArchivesToMerge(opts *tiler.TilerOptions) ([]string, error) {
	return f.findFiles(opts.Input, false, func(filePath string) bool {
		return strings.EqualFold(filepath.Ext(filePath), ArchiveExtension)
	})
}

func (f *StandardFileFinder) findFiles(root string, recursive bool, match func(string) bool) ([]string, error) {
	var files = make([]string, 0)

	baseInfo, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read input folder %s", root)
	}
	err = filepath.Walk(
		root,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if !recursive && !os.SameFile(info, baseInfo) {
					return filepath.SkipDir
				}
				return nil
			}
			if match(path) {
				files = append(files, path)
			}
			return nil
		},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot list %s", root)
	}

	sort.Strings(files)
	return files, nil
}
