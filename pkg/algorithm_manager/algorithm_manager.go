package algorithm_manager

import (
	"github.com/ecopia-map/brick_tiler/internal/bricks"
	"github.com/ecopia-map/brick_tiler/internal/converters"
)

type AlgorithmManager interface {
	GetElevationCorrectionAlgorithm() converters.ElevationCorrector
	// Returns a new empty leaf store
	GetStoreAlgorithm() *bricks.Store
	GetCoordinateConverterAlgorithm() converters.CoordinateConverter
}
