package sumfile

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// FieldSeparator separates the checksum from the path, matching coreutils
// md5sum in text mode.
const FieldSeparator = "  "

// ErrSumFileExists is returned when the destination sum file already exists.
// The writer never appends to or overwrites a previous run's output.
var ErrSumFileExists = errors.New("sum file already exists")

// Writer produces a sum file with one line per reported file. Writes are
// buffered; Close flushes and closes the underlying file.
type Writer struct {
	f      *os.File
	w      *bufio.Writer
	closed bool
}

// NewWriter creates the sum file at path. It fails with ErrSumFileExists if a
// file is already present there.
func NewWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("cannot proceed with sum file %q: %w", path, ErrSumFileExists)
		}
		return nil, fmt.Errorf("failed to create sum file %q: %w", path, err)
	}
	return &Writer{f: f, w: bufio.NewWriter(f)}, nil
}

// WriteLine writes one record as "checksum  path" followed by a newline.
func (s *Writer) WriteLine(path, checksum string) error {
	if _, err := s.w.WriteString(checksum + FieldSeparator + path + "\n"); err != nil {
		return fmt.Errorf("failed to write sum line for %q: %w", path, err)
	}
	return nil
}

// Close flushes buffered lines and closes the file. Calling Close again is a
// no-op, so it can be deferred and also called explicitly to check the error.
func (s *Writer) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return fmt.Errorf("failed to flush sum file: %w", err)
	}
	return s.f.Close()
}
