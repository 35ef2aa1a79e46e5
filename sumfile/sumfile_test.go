package sumfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriter_WritesLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md5sums.txt")

	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}

	if err := w.WriteLine("/data/file1", "d41d8cd98f00b204e9800998ecf8427e"); err != nil {
		t.Fatalf("WriteLine failed: %v", err)
	}
	if err := w.WriteLine("/data/file2", "9e107d9d372bb6826bd81d3542a419d6"); err != nil {
		t.Fatalf("WriteLine failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read sum file: %v", err)
	}
	expected := "d41d8cd98f00b204e9800998ecf8427e  /data/file1\n" +
		"9e107d9d372bb6826bd81d3542a419d6  /data/file2\n"
	if string(data) != expected {
		t.Errorf("Unexpected sum file content:\n%s", string(data))
	}
}

func TestWriter_RefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md5sums.txt")
	if err := os.WriteFile(path, []byte("previous run\n"), 0644); err != nil {
		t.Fatalf("Failed to seed existing file: %v", err)
	}

	_, err := NewWriter(path)
	if err == nil {
		t.Fatal("Expected error for existing sum file")
	}
	if !errors.Is(err, ErrSumFileExists) {
		t.Errorf("Expected ErrSumFileExists, got %v", err)
	}

	// The prior content must be untouched.
	data, _ := os.ReadFile(path)
	if string(data) != "previous run\n" {
		t.Errorf("Existing file was modified: %q", string(data))
	}
}

func TestWriter_CloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md5sums.txt")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("First close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md5sums.txt")
	content := "d41d8cd98f00b204e9800998ecf8427e  /data/file1\n" +
		"\n" +
		"9e107d9d372bb6826bd81d3542a419d6  /data/file2\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write sum file: %v", err)
	}

	entries, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Path != "/data/file1" || entries[0].Checksum != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if entries[1].Path != "/data/file2" {
		t.Errorf("Unexpected second entry: %+v", entries[1])
	}
}

func TestReadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md5sums.txt")
	if err := os.WriteFile(path, []byte("not-a-sum-line\n"), 0644); err != nil {
		t.Fatalf("Failed to write sum file: %v", err)
	}

	if _, err := ReadFile(path); err == nil {
		t.Fatal("Expected error for malformed line")
	}
}
