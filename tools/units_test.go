package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrecision(t *testing.T) {
	t.Parallel()

	precision, err := ParsePrecision(" 0.001 ")
	require.NoError(t, err)
	assert.Equal(t, 0.001, precision)

	for _, value := range []string{"", "0", "-0.1", "one"} {
		_, err := ParsePrecision(value)
		assert.Error(t, err, value)
	}
}

func TestFormatting(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1.024", FormatBrickSize(0.001, 10, 1))
	assert.Equal(t, "0.256", FormatBrickSize(0.001, 8, 1))
	assert.Equal(t, "4.096", FormatBrickSize(0.001, 10, 4))
	assert.Equal(t, "0.3", FormatLength(0.1+0.2))

	for n, expected := range map[int]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		123456:   "123,456",
		-1234567: "-1,234,567",
	} {
		assert.Equal(t, expected, FormatCount(n))
	}
}
