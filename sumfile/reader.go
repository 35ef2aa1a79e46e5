package sumfile

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Entry is one parsed sum file line.
type Entry struct {
	Path     string
	Checksum string
}

// ReadFile parses a sum file in md5sum text format. Blank lines are ignored;
// a line without the two-space separator is a format error.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sum file %q: %w", path, err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		checksum, filePath, found := strings.Cut(line, FieldSeparator)
		if !found || checksum == "" || filePath == "" {
			return nil, fmt.Errorf("malformed sum file line %d in %q: %q", lineNo, path, line)
		}
		entries = append(entries, Entry{Path: filePath, Checksum: checksum})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sum file %q: %w", path, err)
	}
	return entries, nil
}
