package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestFormatETA(t *testing.T) {
	started := time.Now().Add(-10 * time.Second)

	tests := []struct {
		progress float64
		started  time.Time
		resolved int
		total    int
		expected string
	}{
		{0.0, started, 0, 10, "Calculating..."},
		{0.5, time.Time{}, 5, 10, "Calculating..."},
		{1.0, started, 10, 10, "0s"},
		{0.5, started, 5, 10, "10s"}, // 2s per file, 5 files left
	}

	for _, tt := range tests {
		result := formatETA(tt.progress, tt.started, tt.resolved, tt.total)
		if result != tt.expected {
			t.Errorf("formatETA(%v, resolved=%d, total=%d) = %v; want %v",
				tt.progress, tt.resolved, tt.total, result, tt.expected)
		}
	}
}

func TestModelInitialization(t *testing.T) {
	model := NewModel(Snapshot{Total: 100})

	if model.state.Total != 100 {
		t.Errorf("Expected Total 100, got %d", model.state.Total)
	}

	view := model.View()
	if view == "" {
		t.Errorf("View rendered empty string")
	}

	if !strings.Contains(view, "Initializing...") {
		t.Errorf("Expected Initializing view when width is 0")
	}
}

func TestReporterAggregation(t *testing.T) {
	var last Snapshot
	r := NewReporter(func(msg tea.Msg) { last = Snapshot(msg.(SnapshotMsg)) }, 3)

	r.ReportStart("a")
	r.ReportStart("b")
	if len(last.Active) != 2 {
		t.Fatalf("active = %v, want 2 entries", last.Active)
	}

	r.ReportFinish("a")
	if last.Completed != 1 || len(last.Active) != 1 || last.Active[0] != "b" {
		t.Fatalf("after finish: %+v", last)
	}

	r.ReportFailure("b", "gave up")
	if last.Failed != 1 || len(last.Active) != 0 {
		t.Fatalf("after failure: %+v", last)
	}

	r.Finish()
	if !last.Done {
		t.Fatal("Finish() did not publish a done snapshot")
	}
}

func TestModelQuitsOnDoneSnapshot(t *testing.T) {
	model := NewModel(Snapshot{Total: 1})

	_, cmd := model.Update(SnapshotMsg(Snapshot{Total: 1, Completed: 1, Done: true}))
	if cmd == nil {
		t.Fatal("done snapshot produced no command, want quit")
	}
}
