package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// collectingHandler records delivered events and signals each arrival.
type collectingHandler struct {
	mu     sync.Mutex
	events []Event
	got    chan struct{}
}

func newCollectingHandler() *collectingHandler {
	return &collectingHandler{got: make(chan struct{}, 16)}
}

func (h *collectingHandler) HandleEvent(ctx context.Context, e Event) error {
	h.mu.Lock()
	h.events = append(h.events, e)
	h.mu.Unlock()
	h.got <- struct{}{}
	return nil
}

func (h *collectingHandler) wait(t *testing.T) Event {
	t.Helper()
	select {
	case <-h.got:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for event")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.events[len(h.events)-1]
}

func TestRestClient_SubmitTransferDeliversComplete(t *testing.T) {
	var gotPath string
	var gotBody transferRequestJSON

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	handler := newCollectingHandler()
	c := NewRestClient(server.URL, handler, 2, testLogger())
	defer c.Stop()

	err := c.SubmitTransfer(context.Background(), TransferRequest{
		Operation:    OpGet,
		CollectionID: "collection1",
		FileID:       "f1",
		URL:          "http://exchange/dav/f1",
	})
	if err != nil {
		t.Fatalf("SubmitTransfer failed: %v", err)
	}

	ev := handler.wait(t)
	if ev.Kind != EventComplete {
		t.Errorf("Expected Complete event, got %s (%s)", ev.Kind, ev.Info)
	}
	if ev.FileID != "f1" || ev.CollectionID != "collection1" {
		t.Errorf("Unexpected event identity: %+v", ev)
	}
	if gotPath != "/collections/collection1/transfers" {
		t.Errorf("Unexpected path: %s", gotPath)
	}
	if gotBody.Operation != "get" || gotBody.FileID != "f1" || gotBody.URL != "http://exchange/dav/f1" {
		t.Errorf("Unexpected body: %+v", gotBody)
	}
}

func TestRestClient_SubmitTransferDeliversFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "pillar unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	handler := newCollectingHandler()
	c := NewRestClient(server.URL, handler, 1, testLogger())
	defer c.Stop()

	err := c.SubmitTransfer(context.Background(), TransferRequest{
		Operation:    OpGet,
		CollectionID: "collection1",
		FileID:       "f1",
		URL:          "http://exchange/dav/f1",
	})
	if err != nil {
		t.Fatalf("SubmitTransfer failed: %v", err)
	}

	ev := handler.wait(t)
	if ev.Kind != EventFailed {
		t.Errorf("Expected Failed event, got %s", ev.Kind)
	}
	if ev.Info == "" {
		t.Error("Expected failure detail in event info")
	}
}

func TestRestClient_GetChecksums(t *testing.T) {
	calcTime := time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/collection1/checksums" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		q := r.URL.Query()
		if q.Get("pillar") != "pillar1" {
			t.Errorf("Unexpected pillar param: %s", q.Get("pillar"))
		}
		if q.Get("max_results") != "100" {
			t.Errorf("Unexpected max_results param: %s", q.Get("max_results"))
		}
		if _, err := time.Parse(time.RFC3339Nano, q.Get("min_timestamp")); err != nil {
			t.Errorf("Unparsable min_timestamp %q: %v", q.Get("min_timestamp"), err)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(checksumPageJSON{
			Records: []checksumRecordJSON{
				{FileID: "f1", Checksum: "d41d8cd98f00b204e9800998ecf8427e", CalculationTime: calcTime},
			},
			PartialResults: true,
		})
	}))
	defer server.Close()

	c := NewRestClient(server.URL, newCollectingHandler(), 1, testLogger())
	defer c.Stop()

	page, err := c.GetChecksums(context.Background(), "collection1", ContributorQuery{
		PillarID:     "pillar1",
		MinTimestamp: time.Unix(0, 0),
		MaxResults:   100,
	})
	if err != nil {
		t.Fatalf("GetChecksums failed: %v", err)
	}
	if !page.PartialResults {
		t.Error("Expected partial results")
	}
	if len(page.Records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(page.Records))
	}
	rec := page.Records[0]
	if rec.FileID != "f1" {
		t.Errorf("Unexpected file id: %s", rec.FileID)
	}
	if len(rec.Checksum) != 16 {
		t.Errorf("Expected 16 byte digest, got %d bytes", len(rec.Checksum))
	}
	if !rec.CalculationTime.Equal(calcTime) {
		t.Errorf("Unexpected calculation time: %v", rec.CalculationTime)
	}
}

func TestRestClient_GetChecksumsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewRestClient(server.URL, newCollectingHandler(), 1, testLogger())
	defer c.Stop()

	_, err := c.GetChecksums(context.Background(), "collection1", ContributorQuery{PillarID: "pillar1", MaxResults: 10})
	if err == nil {
		t.Fatal("Expected error from failing server")
	}
}
