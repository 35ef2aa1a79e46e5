// Package action implements the client-side actions of the repository
// command line tool: downloading files, uploading files, and harvesting
// checksum listings, together with the retry-driving runner that keeps a
// bounded number of transfer operations in flight.
package action

import (
	"context"
	"io"

	"github.com/statsbiblioteket/sb-bitrepository-client/job"
)

// JobRegistry is the view of the in-flight job table the event handlers need.
type JobRegistry interface {
	Lookup(fileID string) (job.Job, error)
	Remove(j job.Job) bool
}

// FailedJobs collects jobs whose transfer failed, for an external retry loop.
type FailedJobs interface {
	Put(j job.Job)
}

// FinishReporter is notified when a transfer completed successfully.
type FinishReporter interface {
	ReportFinish(fileID string)
}

// FileCleaner is the slice of the file exchange used to release remote
// temporary state.
type FileCleaner interface {
	DeleteFile(ctx context.Context, rawURL string) error
}

// FileFetcher is the slice of the file exchange the download handler uses.
type FileFetcher interface {
	FileCleaner
	GetFile(ctx context.Context, dst io.Writer, rawURL string) error
}
