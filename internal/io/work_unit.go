package io

import (
	"github.com/ecopia-map/brick_tiler/internal/data"
)

// Contains a batch of points read from a single source file. Batches of a file are submitted in reading order.
type WorkUnit struct {
	Points []data.Point
	Source string
	Index  int
}
