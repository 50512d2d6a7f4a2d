package proj4_coordinate_converter

import (
	"fmt"
	"math"
	"sync"

	"github.com/ecopia-map/brick_tiler/internal/converters"
	"github.com/golang/geo/r3"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	proj "github.com/xeonx/proj4"
)

const (
	toRadians = math.Pi / 180
	toDegrees = 180 / math.Pi
)

type epsgProjection struct {
	EpsgCode   int
	Proj4      string
	Projection *proj.Proj
}

// Converts coordinates with proj4. Projections are initialized on first use and released by Cleanup.
type proj4CoordinateConverter struct {
	mutex        sync.Mutex
	EpsgDatabase map[int]*epsgProjection
}

func NewProj4CoordinateConverter() converters.CoordinateConverter {
	return &proj4CoordinateConverter{
		EpsgDatabase: loadEPSGProjectionDatabase(),
	}
}

// Returns the input coordinate untouched when both srids match or one of them is 0
func (cc *proj4CoordinateConverter) ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord r3.Vector) (r3.Vector, error) {
	if sourceSrid == targetSrid || sourceSrid == 0 || targetSrid == 0 {
		return coord, nil
	}

	src, err := cc.getEpsgProjection(sourceSrid)
	if err != nil {
		return coord, err
	}
	dst, err := cc.getEpsgProjection(targetSrid)
	if err != nil {
		return coord, err
	}

	return executeConversion(coord, src, dst)
}

// Releases all the loaded projections
func (cc *proj4CoordinateConverter) Cleanup() {
	cc.mutex.Lock()
	defer cc.mutex.Unlock()

	for _, projection := range cc.EpsgDatabase {
		if projection.Projection != nil {
			projection.Projection.Close()
			projection.Projection = nil
		}
	}
}

func (cc *proj4CoordinateConverter) getEpsgProjection(epsgCode int) (*epsgProjection, error) {
	cc.mutex.Lock()
	defer cc.mutex.Unlock()

	projection, ok := cc.EpsgDatabase[epsgCode]
	if !ok {
		return nil, errors.Errorf("epsg code %d not found", epsgCode)
	}

	if projection.Projection == nil {
		p, err := proj.InitPlus(projection.Proj4)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot initialize projection of epsg %d", epsgCode)
		}
		glog.V(1).Infof("initialized projection %d: %s", epsgCode, projection.Proj4)
		projection.Projection = p
	}

	return projection, nil
}

func executeConversion(coord r3.Vector, source *epsgProjection, destination *epsgProjection) (r3.Vector, error) {
	x, y, z := []float64{coord.X}, []float64{coord.Y}, []float64{coord.Z}
	if source.Projection.IsLatLong() {
		x[0] *= toRadians
		y[0] *= toRadians
	}

	if err := proj.TransformRaw(source.Projection, destination.Projection, x, y, z); err != nil {
		return coord, errors.Wrapf(err, "cannot convert %v from epsg %d to epsg %d", coord, source.EpsgCode, destination.EpsgCode)
	}

	if destination.Projection.IsLatLong() {
		x[0] *= toDegrees
		y[0] *= toDegrees
	}

	return r3.Vector{X: x[0], Y: y[0], Z: z[0]}, nil
}

// Reference systems commonly found in point cloud surveys: geographic and geocentric WGS84, web mercator and the
// WGS84 UTM zones
func loadEPSGProjectionDatabase() map[int]*epsgProjection {
	database := map[int]*epsgProjection{
		4326: {EpsgCode: 4326, Proj4: "+proj=longlat +datum=WGS84 +no_defs"},
		4978: {EpsgCode: 4978, Proj4: "+proj=geocent +datum=WGS84 +units=m +no_defs"},
		3857: {EpsgCode: 3857, Proj4: "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +wktext +no_defs"},
	}
	for zone := 1; zone <= 60; zone++ {
		north := 32600 + zone
		south := 32700 + zone
		database[north] = &epsgProjection{EpsgCode: north, Proj4: fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", zone)}
		database[south] = &epsgProjection{EpsgCode: south, Proj4: fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", zone)}
	}
	return database
}
