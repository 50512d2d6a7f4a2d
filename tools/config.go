package tools

import (
	"io"

	"github.com/ecopia-map/brick_tiler/internal/tiler"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Settings file fields, absent fields keep their current value. JSON files are read as well.
type settingsFile struct {
	NumPointsPerBlock *int     `yaml:"num_points_per_block"`
	Precision         *float64 `yaml:"precision"`
	Bits              *uint32  `yaml:"bits"`
	PointSize         *float64 `yaml:"point_size"`
	Transition        *float64 `yaml:"transition"`
	CreateType        *string  `yaml:"create_type"`
}

// Overrides settings with the values of a YAML or JSON settings file. Unknown fields are rejected.
func LoadSettingsFile(filePath string, settings *tiler.Settings) (err error) {
	file, err := OpenFile(filePath)
	if err != nil {
		return err
	}
	defer func() { err = CombineClose(err, file) }()

	var values settingsFile
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&values); err != nil && err != io.EOF {
		return errors.Wrapf(err, "cannot parse settings file %s", filePath)
	}

	if values.NumPointsPerBlock != nil {
		settings.NumPointsPerBlock = *values.NumPointsPerBlock
	}
	if values.Precision != nil {
		if !decimal.NewFromFloat(*values.Precision).IsPositive() {
			return errors.Errorf("precision must be positive, got %v in %s", *values.Precision, filePath)
		}
		settings.Precision = *values.Precision
	}
	if values.Bits != nil {
		settings.Bits = *values.Bits
	}
	if values.PointSize != nil {
		settings.PointSize = *values.PointSize
	}
	if values.Transition != nil {
		settings.Transition = *values.Transition
	}
	if values.CreateType != nil {
		createType := tiler.ParseCreateType(*values.CreateType)
		if createType == "" {
			return errors.Errorf("create type must be FLAT, LOD or PAGEDLOD, got %q in %s", *values.CreateType, filePath)
		}
		settings.CreateType = createType
	}
	return nil
}
