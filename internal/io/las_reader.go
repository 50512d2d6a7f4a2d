package io

import (
	"github.com/ecopia-map/brick_tiler/internal/data"
	"github.com/edaniels/lidario"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Reads every point record of a LAS file. 16 bit colors are reduced to 8 bit unless eightBitColors is set,
// formats without colors read as white.
func readLAS(filePath string, eightBitColors bool, add func(data.Point)) (err error) {
	lf, err := lidario.NewLasFile(filePath, "r")
	if err != nil {
		return errors.Wrapf(err, "cannot open %s", filePath)
	}
	defer func() { err = multierr.Combine(err, lf.Close()) }()

	colored := lasFormatHasColors(lf.Header.PointFormatID)
	for i := 0; i < lf.Header.NumberPoints; i++ {
		p, err := lf.LasPoint(i)
		if err != nil {
			return errors.Wrapf(err, "cannot read point %d of %s", i, filePath)
		}
		pd := p.PointData()

		r, g, b := uint8(255), uint8(255), uint8(255)
		if rgb := p.RgbData(); colored && rgb != nil {
			r, g, b = lasColor(rgb.Red, eightBitColors), lasColor(rgb.Green, eightBitColors), lasColor(rgb.Blue, eightBitColors)
		}
		add(data.NewPoint(pd.X, pd.Y, pd.Z, r, g, b, nil))
	}
	return nil
}

func lasFormatHasColors(formatID byte) bool {
	switch formatID {
	case 2, 3, 5, 7, 8, 10:
		return true
	}
	return false
}

func lasColor(v uint16, eightBitColors bool) uint8 {
	if eightBitColors {
		return uint8(v)
	}
	return uint8(v / 256)
}
