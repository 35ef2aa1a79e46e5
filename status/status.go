package status

import (
	"log/slog"

	"github.com/statsbiblioteket/sb-bitrepository-client/store"
)

// Reporter receives transfer lifecycle notifications. Implementations must
// tolerate concurrent calls for distinct file ids. All notifications are
// fire-and-forget; a reporter never influences the transfer outcome.
type Reporter interface {
	// ReportStart is called when a transfer is submitted.
	ReportStart(fileID string)

	// ReportFinish is called once when a transfer completed successfully.
	ReportFinish(fileID string)

	// ReportFailure is called once when a transfer is given up on.
	ReportFailure(fileID string, reason string)
}

// ConsoleReporter logs lifecycle notifications.
type ConsoleReporter struct {
	log *slog.Logger
}

// NewConsoleReporter creates a reporter writing to the given logger.
func NewConsoleReporter(log *slog.Logger) *ConsoleReporter {
	return &ConsoleReporter{log: log}
}

func (r *ConsoleReporter) ReportStart(fileID string) {
	r.log.Info("transfer started", "fileID", fileID)
}

func (r *ConsoleReporter) ReportFinish(fileID string) {
	r.log.Info("transfer finished", "fileID", fileID)
}

func (r *ConsoleReporter) ReportFailure(fileID string, reason string) {
	r.log.Error("transfer failed", "fileID", fileID, "reason", reason)
}

// JournalReporter records terminal outcomes in the transfer journal. Save
// failures are logged and dropped; the journal is bookkeeping, not a
// precondition for the transfer itself.
type JournalReporter struct {
	journal store.Journal
	log     *slog.Logger
}

// NewJournalReporter creates a reporter persisting outcomes to journal.
func NewJournalReporter(journal store.Journal, log *slog.Logger) *JournalReporter {
	return &JournalReporter{journal: journal, log: log}
}

func (r *JournalReporter) ReportStart(fileID string) {
	r.update(fileID, store.StateInProgress, "")
}

func (r *JournalReporter) ReportFinish(fileID string) {
	r.update(fileID, store.StateCompleted, "")
}

func (r *JournalReporter) ReportFailure(fileID string, reason string) {
	r.update(fileID, store.StateFailed, reason)
}

func (r *JournalReporter) update(fileID string, state store.TransferState, reason string) {
	rec, err := r.journal.GetRecord(fileID)
	if err != nil {
		r.log.Warn("no journal record for reported transfer", "fileID", fileID, "err", err)
		return
	}
	rec.State = state
	rec.Error = reason
	if err := r.journal.SaveRecord(rec); err != nil {
		r.log.Warn("failed to journal transfer state", "fileID", fileID, "err", err)
	}
}

// MultiReporter fans notifications out to several reporters.
type MultiReporter struct {
	reporters []Reporter
}

// NewMultiReporter combines reporters; notifications are delivered in order.
func NewMultiReporter(reporters ...Reporter) *MultiReporter {
	return &MultiReporter{reporters: reporters}
}

func (m *MultiReporter) ReportStart(fileID string) {
	for _, r := range m.reporters {
		r.ReportStart(fileID)
	}
}

func (m *MultiReporter) ReportFinish(fileID string) {
	for _, r := range m.reporters {
		r.ReportFinish(fileID)
	}
}

func (m *MultiReporter) ReportFailure(fileID string, reason string) {
	for _, r := range m.reporters {
		r.ReportFailure(fileID, reason)
	}
}
