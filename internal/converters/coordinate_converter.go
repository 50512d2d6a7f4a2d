package converters

import (
	"github.com/golang/geo/r3"
)

type CoordinateConverter interface {
	// Converts a coordinate between EPSG reference systems. Srid 0 stands for the input reference system.
	ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord r3.Vector) (r3.Vector, error)
	Cleanup()
}

type ElevationCorrector interface {
	CorrectElevation(lon, lat, z float64) float64
}
