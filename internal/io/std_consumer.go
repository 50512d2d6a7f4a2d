package io

import (
	"sync"

	"github.com/ecopia-map/brick_tiler/internal/bricks"
	"github.com/ecopia-map/brick_tiler/internal/converters"
	"github.com/ecopia-map/brick_tiler/internal/data"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Inserts the consumed points into a brick store after converting their coordinates and correcting their
// elevation. The store is only touched from the consuming goroutine.
type StandardConsumer struct {
	store               *bricks.Store
	coordinateConverter converters.CoordinateConverter
	elevationCorrector  converters.ElevationCorrector
	srid                int
	targetSrid          int
}

func NewStandardConsumer(store *bricks.Store, coordinateConverter converters.CoordinateConverter, elevationCorrector converters.ElevationCorrector, srid int, targetSrid int) *StandardConsumer {
	return &StandardConsumer{
		store:               store,
		coordinateConverter: coordinateConverter,
		elevationCorrector:  elevationCorrector,
		srid:                srid,
		targetSrid:          targetSrid,
	}
}

// Continually consumes WorkUnits submitted to a work channel until it is closed. The first error is submitted to
// the error channel, later batches are drained without being processed so that the producer can finish.
func (c *StandardConsumer) Consume(workchan chan *WorkUnit, errchan chan error, waitGroup *sync.WaitGroup) {
	defer waitGroup.Done()

	failed := false
	for work := range workchan {
		if failed {
			continue
		}
		if err := c.doWork(work); err != nil {
			errchan <- err
			failed = true
		}
	}
}

func (c *StandardConsumer) doWork(workUnit *WorkUnit) error {
	for i := range workUnit.Points {
		point, err := c.convert(workUnit.Points[i])
		if err != nil {
			return errors.Wrapf(err, "batch %d of %s", workUnit.Index, workUnit.Source)
		}
		if err := c.store.Add(point.Position, point.Color, point.Normal); err != nil {
			return errors.Wrapf(err, "batch %d of %s", workUnit.Index, workUnit.Source)
		}
	}
	glog.V(2).Infof("stored batch %d of %s, %d points", workUnit.Index, workUnit.Source, len(workUnit.Points))
	return nil
}

func (c *StandardConsumer) convert(point data.Point) (data.Point, error) {
	if c.coordinateConverter != nil {
		position, err := c.coordinateConverter.ConvertCoordinateSrid(c.srid, c.targetSrid, point.Position)
		if err != nil {
			return point, err
		}
		point.Position = position
	}
	if c.elevationCorrector != nil {
		point.Position.Z = c.elevationCorrector.CorrectElevation(point.Position.X, point.Position.Y, point.Position.Z)
	}
	return point, nil
}
