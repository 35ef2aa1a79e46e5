package sumfile

import (
	"crypto/md5"
	"encoding/hex"
	"hash"
	"io"
)

// ChecksumWriter wraps an io.Writer to compute the MD5 digest of everything
// written, so a received file can be verified against its sum file entry
// without a second pass over the data.
type ChecksumWriter struct {
	w    io.Writer
	hash hash.Hash
	n    int64
}

// NewChecksumWriter creates a ChecksumWriter wrapping w.
func NewChecksumWriter(w io.Writer) *ChecksumWriter {
	return &ChecksumWriter{
		w:    w,
		hash: md5.New(),
	}
}

// Write writes data to the underlying writer and updates the digest.
func (cw *ChecksumWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	if n > 0 {
		cw.n += int64(n)
		cw.hash.Write(p[:n])
	}
	return n, err
}

// Sum returns the hex digest of the data written so far.
func (cw *ChecksumWriter) Sum() string {
	return hex.EncodeToString(cw.hash.Sum(nil))
}

// BytesWritten returns the total number of bytes written.
func (cw *ChecksumWriter) BytesWritten() int64 {
	return cw.n
}

// ChecksumReader wraps an io.Reader to compute the MD5 digest of everything
// read, used while staging uploads.
type ChecksumReader struct {
	r    io.Reader
	hash hash.Hash
	n    int64
}

// NewChecksumReader creates a ChecksumReader wrapping r.
func NewChecksumReader(r io.Reader) *ChecksumReader {
	return &ChecksumReader{
		r:    r,
		hash: md5.New(),
	}
}

// Read reads data from the underlying reader and updates the digest.
func (cr *ChecksumReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.n += int64(n)
		cr.hash.Write(p[:n])
	}
	return n, err
}

// Sum returns the hex digest of the data read so far.
func (cr *ChecksumReader) Sum() string {
	return hex.EncodeToString(cr.hash.Sum(nil))
}

// BytesRead returns the total number of bytes read.
func (cr *ChecksumReader) BytesRead() int64 {
	return cr.n
}
