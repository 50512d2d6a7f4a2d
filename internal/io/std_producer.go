package io

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ecopia-map/brick_tiler/internal/data"
	"github.com/ecopia-map/brick_tiler/internal/tiler"
	"github.com/golang/glog"
	pkgerrors "github.com/pkg/errors"
)

var ErrUnsupportedInput = errors.New("unsupported point file")

var supportedExtensions = map[string]bool{
	".asc": true,
	".3dc": true,
	".txt": true,
	".bin": true,
	".las": true,
}

// Reports whether the file extension names a readable point format
func IsSupportedInput(filePath string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(filePath))]
}

// Reads a point file, picking the reader by extension
type StandardProducer struct {
	filePath       string
	batchSize      int
	eightBitColors bool
}

func NewStandardProducer(filePath string, options *tiler.TilerOptions) *StandardProducer {
	batchSize := options.Settings.NumPointsPerBlock
	if batchSize <= 0 {
		batchSize = tiler.DefaultNumPointsPerBlock
	}
	return &StandardProducer{
		filePath:       filePath,
		batchSize:      batchSize,
		eightBitColors: options.EightBitColors,
	}
}

// Reads the whole file and submits WorkUnits to the provided work channel. Closes the channel when all work is
// submitted or a read error occurred.
func (p *StandardProducer) Produce(work chan *WorkUnit, errchan chan error, wg *sync.WaitGroup) {
	defer wg.Done()
	defer close(work)

	b := &batcher{work: work, source: p.filePath, size: p.batchSize}
	if err := p.produce(b); err != nil {
		errchan <- err
		return
	}
	b.flush()
	glog.V(1).Infof("read %d points in %d batches from %s", b.total, b.index, p.filePath)
}

func (p *StandardProducer) produce(b *batcher) error {
	switch strings.ToLower(filepath.Ext(p.filePath)) {
	case ".asc", ".3dc", ".txt":
		return readASCII(p.filePath, b.add)
	case ".bin":
		return readBIN(p.filePath, p.batchSize, b.add)
	case ".las":
		return readLAS(p.filePath, p.eightBitColors, b.add)
	}
	return pkgerrors.Wrapf(ErrUnsupportedInput, "%s", p.filePath)
}

// Groups points into WorkUnits of a fixed size
type batcher struct {
	work   chan<- *WorkUnit
	source string
	size   int
	points []data.Point
	index  int
	total  int
}

func (b *batcher) add(point data.Point) {
	if b.points == nil {
		b.points = make([]data.Point, 0, b.size)
	}
	b.points = append(b.points, point)
	b.total++
	if len(b.points) >= b.size {
		b.flush()
	}
}

func (b *batcher) flush() {
	if len(b.points) == 0 {
		return
	}
	b.work <- &WorkUnit{Points: b.points, Source: b.source, Index: b.index}
	b.points = nil
	b.index++
}
