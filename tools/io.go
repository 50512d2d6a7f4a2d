package tools

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

func OpenFile(filePath string) (*os.File, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", filePath)
	}
	return file, nil
}

func CreateDirectoryIfDoesNotExist(directory string) error {
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		err := os.MkdirAll(directory, 0777)
		if err != nil {
			return err
		}
	}
	return nil
}

// Combines an operation error with the error of closing the resource it used
func CombineClose(err error, closer io.Closer) error {
	return multierr.Combine(err, closer.Close())
}

// Writes a file through a temporary sibling which is synced, closed and renamed over the destination, so that
// readers never observe a partially written file. The parent directory is created if missing.
func WriteFileAtomic(filePath string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(filePath)
	if err := CreateDirectoryIfDoesNotExist(dir); err != nil {
		return errors.Wrapf(err, "cannot create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "cannot create temporary file for %s", filePath)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	buffered := bufio.NewWriter(tmp)
	err = write(buffered)
	if err == nil {
		err = buffered.Flush()
	}
	if err == nil {
		err = tmp.Sync()
	}
	if err = CombineClose(err, tmp); err != nil {
		return errors.Wrapf(err, "cannot write %s", filePath)
	}

	return errors.Wrapf(os.Rename(tmp.Name(), filePath), "cannot move %s into place", filePath)
}
