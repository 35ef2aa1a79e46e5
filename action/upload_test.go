package action

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"testing"

	"github.com/statsbiblioteket/sb-bitrepository-client/client"
	"github.com/statsbiblioteket/sb-bitrepository-client/job"
)

type uploadFixture struct {
	log     *callLog
	failed  *fakeFailed
	handler *UploadEventHandler
}

func newUploadFixture(t *testing.T, jobs ...job.Job) *uploadFixture {
	t.Helper()
	log := &callLog{}
	registry := &fakeRegistry{log: log, jobs: map[string]job.Job{}}
	for _, j := range jobs {
		registry.jobs[j.FileID] = j
	}
	failed := &fakeFailed{log: log}
	handler := NewUploadEventHandler(&fakeExchange{log: log}, registry, failed, &fakeReporter{log: log}, slog.New(slog.DiscardHandler))
	return &uploadFixture{log: log, failed: failed, handler: handler}
}

func TestUploadCompleteEvent(t *testing.T) {
	j := job.New("/data/file1", "file1", "", "http://exchange/up-1")
	fix := newUploadFixture(t, j)

	err := fix.handler.HandleEvent(context.Background(), client.Event{Kind: client.EventComplete, FileID: "file1"})
	if err != nil {
		t.Fatalf("HandleEvent() error: %v", err)
	}

	want := []string{
		"lookup file1",
		"finish file1",
		"remove file1",
		"delete http://exchange/up-1",
	}
	if got := fix.log.list(); !reflect.DeepEqual(got, want) {
		t.Fatalf("call sequence = %v, want %v", got, want)
	}
}

func TestUploadFailedEvent(t *testing.T) {
	j := job.New("/data/file1", "file1", "", "http://exchange/up-1")
	fix := newUploadFixture(t, j)

	err := fix.handler.HandleEvent(context.Background(), client.Event{Kind: client.EventFailed, FileID: "file1"})
	if err != nil {
		t.Fatalf("HandleEvent() error: %v", err)
	}

	want := []string{
		"lookup file1",
		"delete http://exchange/up-1",
		"retry file1",
		"remove file1",
	}
	if got := fix.log.list(); !reflect.DeepEqual(got, want) {
		t.Fatalf("call sequence = %v, want %v", got, want)
	}
	if len(fix.failed.jobs) != 1 || fix.failed.jobs[0] != j {
		t.Fatalf("retry queue = %v, want the failed job", fix.failed.jobs)
	}
}

func TestUploadIntermediateEvent(t *testing.T) {
	j := job.New("/data/file1", "file1", "", "http://exchange/up-1")
	fix := newUploadFixture(t, j)

	err := fix.handler.HandleEvent(context.Background(), client.Event{Kind: client.EventProgress, FileID: "file1"})
	if err != nil {
		t.Fatalf("HandleEvent() error: %v", err)
	}

	want := []string{"lookup file1"}
	if got := fix.log.list(); !reflect.DeepEqual(got, want) {
		t.Fatalf("call sequence = %v, want %v", got, want)
	}
}

func TestUploadUnknownJob(t *testing.T) {
	fix := newUploadFixture(t)

	err := fix.handler.HandleEvent(context.Background(), client.Event{Kind: client.EventFailed, FileID: "ghost"})
	if !errors.Is(err, job.ErrUnknownJob) {
		t.Fatalf("HandleEvent() error = %v, want ErrUnknownJob", err)
	}
}
