package tools

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Parses a quantization precision in meters. The decimal text is taken exactly, values that are not strictly
// positive are rejected.
func ParsePrecision(value string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid precision %q", value)
	}
	if !d.IsPositive() {
		return 0, errors.Errorf("precision must be positive, got %s", value)
	}
	f, _ := d.Float64()
	return f, nil
}

// World size of a brick side as exact decimal text, e.g. "1.024" for precision 0.001, 10 bits and level scale 1
func FormatBrickSize(precision float64, bits uint32, levelScale int32) string {
	return decimal.NewFromFloat(precision).Mul(decimal.New(int64(levelScale)<<bits, 0)).String()
}

// Formats a length in meters without binary floating point noise
func FormatLength(meters float64) string {
	return decimal.NewFromFloat(meters).Round(9).String()
}

// Formats a count with thousands separators
func FormatCount(n int) string {
	digits := strconv.Itoa(n)
	sign := ""
	if n < 0 {
		sign, digits = "-", digits[1:]
	}
	var sb strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(c)
	}
	return sign + sb.String()
}
