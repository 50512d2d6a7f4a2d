package io

import (
	"bufio"
	"math"
	"strconv"
	"strings"

	"github.com/ecopia-map/brick_tiler/internal/data"
	"github.com/ecopia-map/brick_tiler/tools"
	"github.com/pkg/errors"
)

const maxASCIIValues = 10

// Reads "x y z r g b [nx ny nz]" records, one per line. Values may be separated by blanks or commas. Lines with
// less than six leading numbers, like headers and comments, are skipped.
func readASCII(filePath string, add func(data.Point)) (err error) {
	file, err := tools.OpenFile(filePath)
	if err != nil {
		return err
	}
	defer func() { err = tools.CombineClose(err, file) }()

	var values [maxASCIIValues]float64
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		n := parseValues(scanner.Text(), values[:])
		if n < 6 {
			continue
		}
		var normal *[3]float32
		if n >= 9 {
			normal = &[3]float32{float32(values[6]), float32(values[7]), float32(values[8])}
		}
		add(data.NewPoint(values[0], values[1], values[2], colorComponent(values[3]), colorComponent(values[4]), colorComponent(values[5]), normal))
	}
	return errors.Wrapf(scanner.Err(), "cannot read %s", filePath)
}

// Parses the leading numbers of a line into values and returns how many were read
func parseValues(line string, values []float64) int {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ',' || r == ';' || r == '\r'
	})
	n := 0
	for _, field := range fields {
		if n == len(values) {
			break
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			break
		}
		values[n] = v
		n++
	}
	return n
}

func colorComponent(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}
