package offset_elevation_corrector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrectElevation(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 12.5, NewOffsetElevationCorrector(2.5).CorrectElevation(1, 2, 10))
	assert.Equal(t, -3.0, NewOffsetElevationCorrector(-3).CorrectElevation(1, 2, 0))
	assert.Equal(t, 7.0, NewOffsetElevationCorrector(0).CorrectElevation(100, -40, 7))
}
