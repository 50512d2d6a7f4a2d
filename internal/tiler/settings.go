package tiler

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/ecopia-map/brick_tiler/internal/geometry"
	"github.com/golang/geo/r3"
)

const (
	DefaultNumPointsPerBlock = 10000
	DefaultPrecision         = 0.001
	DefaultBits              = 10
	DefaultPointSize         = 4.0
	DefaultTransition        = 0.125
	DefaultExtension         = ".bsg"
)

// Brick partitioning and hierarchy settings. Settings are passed by value, the computed Offset and Bound are only
// meaningful on the copy returned by the scene graph builder.
type Settings struct {
	NumPointsPerBlock int        `yaml:"num_points_per_block" json:"num_points_per_block"`
	Precision         float64    `yaml:"precision" json:"precision"` // world size of one quantization unit
	Bits              uint32     `yaml:"bits" json:"bits"`           // quantization depth per axis, 8, 10 or 16
	PointSize         float64    `yaml:"point_size" json:"point_size"`
	Transition        float64    `yaml:"transition" json:"transition"`
	CreateType        CreateType `yaml:"create_type" json:"create_type"`
	Path              string     `yaml:"path" json:"path"`           // root directory of paged tiles
	Extension         string     `yaml:"extension" json:"extension"` // extension of paged tiles

	Offset r3.Vector            `yaml:"-" json:"-"`
	Bound  geometry.BoundingBox `yaml:"-" json:"-"`
}

func DefaultSettings() Settings {
	return Settings{
		NumPointsPerBlock: DefaultNumPointsPerBlock,
		Precision:         DefaultPrecision,
		Bits:              DefaultBits,
		PointSize:         DefaultPointSize,
		Transition:        DefaultTransition,
		CreateType:        CreateTypeLOD,
		Extension:         DefaultExtension,
		Bound:             geometry.NewBoundingBox(),
	}
}

func ValidBits(bits uint32) bool {
	return bits == 8 || bits == 10 || bits == 16
}

func (s Settings) Validate() error {
	if !ValidBits(s.Bits) {
		return fmt.Errorf("bits must be one of 8, 10 or 16, got %d", s.Bits)
	}
	if !(s.Precision > 0) || math.IsInf(s.Precision, 0) {
		return fmt.Errorf("precision must be a positive number, got %v", s.Precision)
	}
	if s.NumPointsPerBlock <= 0 {
		return fmt.Errorf("num points per block must be positive, got %d", s.NumPointsPerBlock)
	}
	if s.CreateType.String() == "" {
		return fmt.Errorf("create type must be FLAT, LOD or PAGEDLOD, got %q", s.CreateType)
	}
	return nil
}

// Number of quantization steps per brick side
func (s Settings) Divisor() int64 {
	return int64(1) << s.Bits
}

// World size of one quantization unit at the level with the given scale
func (s Settings) BrickPrecision(levelScale int32) float64 {
	return s.Precision * float64(levelScale)
}

// World size of a brick side at the level with the given scale
func (s Settings) BrickSize(levelScale int32) float64 {
	return s.BrickPrecision(levelScale) * float64(s.Divisor())
}

// Derives Path and Extension from an output scene file name: tiles of "out/model.bsg" go to "out/model/...bsg".
func (s *Settings) SetOutput(outputFilename string) {
	ext := filepath.Ext(outputFilename)
	if ext == "" {
		ext = DefaultExtension
	}
	s.Extension = strings.ToLower(ext)
	s.Path = strings.TrimSuffix(outputFilename, filepath.Ext(outputFilename))
}
