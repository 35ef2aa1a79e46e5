package action

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/statsbiblioteket/sb-bitrepository-client/client"
)

// UploadEventHandler consumes operation-outcome events for submitted upload
// jobs. The upload content was staged on the exchange before submission, so
// the completion protocol is the download handler's without the fetch step:
// report success, drop the job, release the staged artifact. The failure
// protocol is identical.
type UploadEventHandler struct {
	exchange FileCleaner
	jobs     JobRegistry
	failed   FailedJobs
	reporter FinishReporter
	log      *slog.Logger
}

// NewUploadEventHandler wires a handler to its collaborators.
func NewUploadEventHandler(exchange FileCleaner, jobs JobRegistry, failed FailedJobs, reporter FinishReporter, log *slog.Logger) *UploadEventHandler {
	return &UploadEventHandler{
		exchange: exchange,
		jobs:     jobs,
		failed:   failed,
		reporter: reporter,
		log:      log,
	}
}

// HandleEvent implements client.EventHandler.
func (h *UploadEventHandler) HandleEvent(ctx context.Context, e client.Event) error {
	j, err := h.jobs.Lookup(e.FileID)
	if err != nil {
		return fmt.Errorf("event %s for unknown job: %w", e.Kind, err)
	}

	switch e.Kind {
	case client.EventComplete:
		h.reporter.ReportFinish(j.FileID)
		h.jobs.Remove(j)
		if err := h.exchange.DeleteFile(ctx, j.URL); err != nil {
			h.log.Debug("failed to delete staged file", "url", j.URL, "err", err)
		}
	case client.EventFailed:
		if err := h.exchange.DeleteFile(ctx, j.URL); err != nil {
			h.log.Debug("failed to delete staged file", "url", j.URL, "err", err)
		}
		h.failed.Put(j)
		h.jobs.Remove(j)
	default:
		// Intermediate protocol progress; nothing beyond the lookup.
	}
	return nil
}
