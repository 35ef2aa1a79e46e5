package action

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/statsbiblioteket/sb-bitrepository-client/client"
	"github.com/statsbiblioteket/sb-bitrepository-client/job"
	"github.com/statsbiblioteket/sb-bitrepository-client/sumfile"
)

// DownloadEventHandler consumes operation-outcome events for submitted
// download jobs. On completion it pulls the staged artifact from the file
// exchange into the job's local file, reports success, and cleans up the
// remote temporary state. On failure it cleans up and parks the job for
// retry.
//
// Every event, whatever its kind, is resolved against the registry first; an
// event for an unregistered file id means the local bookkeeping and the event
// source disagree, which is unrecoverable at this layer.
type DownloadEventHandler struct {
	exchange FileFetcher
	jobs     JobRegistry
	failed   FailedJobs
	reporter FinishReporter
	log      *slog.Logger
}

// NewDownloadEventHandler wires a handler to its collaborators.
func NewDownloadEventHandler(exchange FileFetcher, jobs JobRegistry, failed FailedJobs, reporter FinishReporter, log *slog.Logger) *DownloadEventHandler {
	return &DownloadEventHandler{
		exchange: exchange,
		jobs:     jobs,
		failed:   failed,
		reporter: reporter,
		log:      log,
	}
}

// HandleEvent implements client.EventHandler.
func (h *DownloadEventHandler) HandleEvent(ctx context.Context, e client.Event) error {
	j, err := h.jobs.Lookup(e.FileID)
	if err != nil {
		return fmt.Errorf("event %s for unknown job: %w", e.Kind, err)
	}

	switch e.Kind {
	case client.EventComplete:
		if err := h.fetch(ctx, j); err != nil {
			h.log.Warn("fetching staged file failed, scheduling retry",
				"fileID", j.FileID, "url", j.URL, "err", err)
			h.fail(ctx, j)
			return nil
		}
		h.reporter.ReportFinish(j.FileID)
		h.jobs.Remove(j)
		// Best effort: the staged artifact is garbage either way.
		if err := h.exchange.DeleteFile(ctx, j.URL); err != nil {
			h.log.Debug("failed to delete staged file", "url", j.URL, "err", err)
		}
	case client.EventFailed:
		h.fail(ctx, j)
	default:
		// Intermediate protocol progress; the registry lookup above already
		// validated the bookkeeping, nothing else to do.
	}
	return nil
}

// fetch streams the staged artifact into the job's local file, verifying
// the digest against the job's checksum when one is known.
func (h *DownloadEventHandler) fetch(ctx context.Context, j job.Job) error {
	f, err := os.Create(j.LocalFile)
	if err != nil {
		return fmt.Errorf("create %q: %w", j.LocalFile, err)
	}
	cw := sumfile.NewChecksumWriter(f)
	if err := h.exchange.GetFile(ctx, cw, j.URL); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %q: %w", j.LocalFile, err)
	}
	if j.Checksum != "" && cw.Sum() != j.Checksum {
		return fmt.Errorf("checksum mismatch for %q: got %s, want %s", j.FileID, cw.Sum(), j.Checksum)
	}
	return nil
}

// fail runs the failure protocol: clean up the staged artifact, park the job
// for retry, drop it from the registry.
func (h *DownloadEventHandler) fail(ctx context.Context, j job.Job) {
	if err := h.exchange.DeleteFile(ctx, j.URL); err != nil {
		h.log.Debug("failed to delete staged file", "url", j.URL, "err", err)
	}
	h.failed.Put(j)
	h.jobs.Remove(j)
}
