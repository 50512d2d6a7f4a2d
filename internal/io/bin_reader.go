package io

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/ecopia-map/brick_tiler/internal/data"
	"github.com/ecopia-map/brick_tiler/tools"
	"github.com/pkg/errors"
)

// Packed little endian record of the raw binary format
type binRecord struct {
	X, Y, Z float64
	R, G, B uint8
}

var binRecordSize = binary.Size(binRecord{})

// Reads consecutive 27 byte records. A trailing partial record is ignored.
func readBIN(filePath string, batchSize int, add func(data.Point)) (err error) {
	file, err := tools.OpenFile(filePath)
	if err != nil {
		return err
	}
	defer func() { err = tools.CombineClose(err, file) }()

	reader := bufio.NewReaderSize(file, 1<<20)
	buffer := make([]byte, batchSize*binRecordSize)
	records := make([]binRecord, batchSize)
	for {
		n, readErr := io.ReadFull(reader, buffer)
		count := n / binRecordSize
		if count > 0 {
			if err := binary.Read(bytes.NewReader(buffer[:count*binRecordSize]), binary.LittleEndian, records[:count]); err != nil {
				return errors.Wrapf(err, "cannot decode %s", filePath)
			}
			for _, r := range records[:count] {
				add(data.NewPoint(r.X, r.Y, r.Z, r.R, r.G, r.B, nil))
			}
		}

		switch readErr {
		case nil:
		case io.EOF, io.ErrUnexpectedEOF:
			return nil
		default:
			return errors.Wrapf(readErr, "cannot read %s", filePath)
		}
	}
}
