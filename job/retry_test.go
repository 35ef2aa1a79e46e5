package job

import (
	"context"
	"testing"
	"time"
)

func TestRetryQueue_FIFO(t *testing.T) {
	q := NewRetryQueue(10)

	q.Put(New("/data/f1", "f1", "", "http://host/dav/f1"))
	q.Put(New("/data/f2", "f2", "", "http://host/dav/f2"))
	q.Put(New("/data/f3", "f3", "", "http://host/dav/f3"))

	for _, want := range []string{"f1", "f2", "f3"} {
		j, ok := q.TryTake()
		if !ok {
			t.Fatalf("Expected job %s, queue empty", want)
		}
		if j.FileID != want {
			t.Errorf("Expected %s, got %s", want, j.FileID)
		}
	}

	if _, ok := q.TryTake(); ok {
		t.Error("Expected empty queue")
	}
}

func TestRetryQueue_TryPutFull(t *testing.T) {
	q := NewRetryQueue(1)

	if !q.TryPut(New("/data/f1", "f1", "", "")) {
		t.Fatal("TryPut on empty queue failed")
	}
	if q.TryPut(New("/data/f2", "f2", "", "")) {
		t.Error("TryPut on full queue succeeded")
	}
	if q.Len() != 1 {
		t.Errorf("Expected 1 queued job, got %d", q.Len())
	}
}

func TestRetryQueue_TakeBlocksUntilPut(t *testing.T) {
	q := NewRetryQueue(1)

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.Put(New("/data/f1", "f1", "", ""))
	}()

	j, err := q.Take(context.Background())
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if j.FileID != "f1" {
		t.Errorf("Expected f1, got %s", j.FileID)
	}
}

func TestRetryQueue_TakeCancelled(t *testing.T) {
	q := NewRetryQueue(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := q.Take(ctx); err == nil {
		t.Fatal("Expected error from cancelled Take")
	}
}
