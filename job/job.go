package job

// Job describes a single file transfer unit. A Job is never mutated after
// construction: it is either registered as in flight, parked on the retry
// queue, or gone.
type Job struct {
	// LocalFile is the file path on this machine; the destination for
	// downloads, the source for uploads.
	LocalFile string

	// FileID is the logical file identifier, unique within a collection.
	FileID string

	// Checksum is the expected checksum in hex, empty when not known.
	Checksum string

	// URL locates the remote temporary artifact on the file exchange. It is
	// used both to fetch the content and to delete it afterwards.
	URL string
}

// New creates a Job for one file.
func New(localFile, fileID, checksum, url string) Job {
	return Job{
		LocalFile: localFile,
		FileID:    fileID,
		Checksum:  checksum,
		URL:       url,
	}
}
