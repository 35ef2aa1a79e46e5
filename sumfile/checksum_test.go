package sumfile

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

// md5 of "hello world"
const helloDigest = "5eb63bbbe01eeed093cb22bb8f5acdc3"

func TestChecksumWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := NewChecksumWriter(&buf)

	if _, err := cw.Write([]byte("hello ")); err != nil {
		t.Fatal(err)
	}
	if _, err := cw.Write([]byte("world")); err != nil {
		t.Fatal(err)
	}

	if buf.String() != "hello world" {
		t.Errorf("wrote %q, want %q", buf.String(), "hello world")
	}
	if cw.Sum() != helloDigest {
		t.Errorf("Sum() = %s, want %s", cw.Sum(), helloDigest)
	}
	if cw.BytesWritten() != 11 {
		t.Errorf("BytesWritten() = %d, want 11", cw.BytesWritten())
	}
}

func TestChecksumReader(t *testing.T) {
	cr := NewChecksumReader(strings.NewReader("hello world"))

	data, err := io.ReadAll(cr)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello world" {
		t.Errorf("read %q", data)
	}
	if cr.Sum() != helloDigest {
		t.Errorf("Sum() = %s, want %s", cr.Sum(), helloDigest)
	}
	if cr.BytesRead() != 11 {
		t.Errorf("BytesRead() = %d, want 11", cr.BytesRead())
	}
}
