package tiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCreateType(t *testing.T) {
	t.Parallel()

	tests := map[string]CreateType{
		"flat":      CreateTypeFlat,
		" LOD ":     CreateTypeLOD,
		"pagedlod":  CreateTypePagedLOD,
		"paged_lod": CreateTypePagedLOD,
		"octree":    "",
		"":          "",
	}
	for input, expected := range tests {
		assert.Equal(t, expected, ParseCreateType(input), input)
	}
}

func TestSettingsValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultSettings().Validate())

	t.Run("unsupported bits", func(t *testing.T) {
		s := DefaultSettings()
		s.Bits = 12
		assert.Error(t, s.Validate())
	})

	t.Run("non positive precision", func(t *testing.T) {
		s := DefaultSettings()
		s.Precision = 0
		assert.Error(t, s.Validate())
	})

	t.Run("unknown create type", func(t *testing.T) {
		s := DefaultSettings()
		s.CreateType = ParseCreateType("quadtree")
		assert.Error(t, s.Validate())
	})
}

func TestBrickSize(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	s.Bits = 8
	s.Precision = 0.001
	assert.Equal(t, int64(256), s.Divisor())
	assert.InDelta(t, 0.256, s.BrickSize(1), 1e-12)
	assert.InDelta(t, 0.004, s.BrickPrecision(4), 1e-12)
	assert.InDelta(t, 1.024, s.BrickSize(4), 1e-12)
}

func TestSetOutput(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	s.SetOutput("out/model.GLB")
	assert.Equal(t, "out/model", s.Path)
	assert.Equal(t, ".glb", s.Extension)

	s.SetOutput("out/model")
	assert.Equal(t, "out/model", s.Path)
	assert.Equal(t, DefaultExtension, s.Extension)
}
