package fileid

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSkipFile signals that a file id falls outside the configured prefix and
// the record it belongs to should be skipped rather than treated as a failure.
var ErrSkipFile = errors.New("file id outside configured prefix")

// RemoteToLocal translates a remote file id to a local path by swapping the
// remote prefix for the local one. The remote prefix must be a literal prefix
// of the id; if it is not, ErrSkipFile is returned. Empty prefixes are no-ops.
func RemoteToLocal(remoteID, localPrefix, remotePrefix string) (string, error) {
	return translate(remoteID, remotePrefix, localPrefix)
}

// LocalToRemote is the inverse mapping, used when uploading.
func LocalToRemote(localID, localPrefix, remotePrefix string) (string, error) {
	return translate(localID, localPrefix, remotePrefix)
}

func translate(id, strip, add string) (string, error) {
	if strip != "" {
		if !strings.HasPrefix(id, strip) {
			return "", fmt.Errorf("%q does not start with %q: %w", id, strip, ErrSkipFile)
		}
		id = strings.TrimPrefix(id, strip)
	}
	return add + id, nil
}
