package status

import (
	"log/slog"
	"testing"

	"github.com/statsbiblioteket/sb-bitrepository-client/store"
)

type memJournal struct {
	records map[string]*store.TransferRecord
}

func newMemJournal() *memJournal {
	return &memJournal{records: make(map[string]*store.TransferRecord)}
}

func (m *memJournal) SaveRecord(rec *store.TransferRecord) error {
	cp := *rec
	m.records[rec.FileID] = &cp
	return nil
}

func (m *memJournal) GetRecord(fileID string) (*store.TransferRecord, error) {
	rec, ok := m.records[fileID]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memJournal) Close() error { return nil }

func TestJournalReporter_StateTransitions(t *testing.T) {
	journal := newMemJournal()
	journal.SaveRecord(&store.TransferRecord{FileID: "f1", State: store.StatePending})

	r := NewJournalReporter(journal, slog.New(slog.DiscardHandler))

	r.ReportStart("f1")
	if rec, _ := journal.GetRecord("f1"); rec.State != store.StateInProgress {
		t.Errorf("Expected InProgress, got %s", rec.State)
	}

	r.ReportFinish("f1")
	if rec, _ := journal.GetRecord("f1"); rec.State != store.StateCompleted {
		t.Errorf("Expected Completed, got %s", rec.State)
	}

	r.ReportFailure("f1", "broken")
	rec, _ := journal.GetRecord("f1")
	if rec.State != store.StateFailed || rec.Error != "broken" {
		t.Errorf("Expected Failed/broken, got %+v", rec)
	}
}

func TestJournalReporter_UnknownFileIsDropped(t *testing.T) {
	r := NewJournalReporter(newMemJournal(), slog.New(slog.DiscardHandler))
	// Must not panic or create a record.
	r.ReportFinish("unknown")
}

type countingReporter struct {
	starts, finishes, failures int
}

func (c *countingReporter) ReportStart(string) { c.starts++ }

func (c *countingReporter) ReportFinish(string) { c.finishes++ }

func (c *countingReporter) ReportFailure(string, string) { c.failures++ }

func TestMultiReporter_FansOut(t *testing.T) {
	a := &countingReporter{}
	b := &countingReporter{}
	m := NewMultiReporter(a, b)

	m.ReportStart("f1")
	m.ReportFinish("f1")
	m.ReportFailure("f2", "oops")

	for i, c := range []*countingReporter{a, b} {
		if c.starts != 1 || c.finishes != 1 || c.failures != 1 {
			t.Errorf("Reporter %d got starts=%d finishes=%d failures=%d", i, c.starts, c.finishes, c.failures)
		}
	}
}
