package client

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// RestClient implements TransferClient and ChecksumClient against the
// repository coordination service's REST gateway. Transfer submissions are
// executed by a bounded worker pool; the terminal outcome of each operation
// is delivered asynchronously to the registered EventHandler, from the
// worker's goroutine.
type RestClient struct {
	baseURL string
	http    *http.Client
	handler EventHandler
	pool    *operationPool
	log     *slog.Logger
}

// checksumRecordJSON is the wire form of one checksum record.
type checksumRecordJSON struct {
	FileID          string    `json:"file_id"`
	Checksum        string    `json:"checksum"` // hex encoded
	CalculationTime time.Time `json:"calculation_time"`
}

type checksumPageJSON struct {
	Records        []checksumRecordJSON `json:"records"`
	PartialResults bool                 `json:"partial_results"`
}

type transferRequestJSON struct {
	Operation string `json:"operation"`
	FileID    string `json:"file_id"`
	URL       string `json:"url"`
	Checksum  string `json:"checksum,omitempty"`
}

// NewRestClient creates a client talking to the gateway at baseURL. Terminal
// events for submitted transfers are delivered to handler from up to workers
// concurrent goroutines.
func NewRestClient(baseURL string, handler EventHandler, workers int, log *slog.Logger) *RestClient {
	if workers <= 0 {
		workers = 1
	}
	pool := newOperationPool(context.Background(), workers*2)
	pool.setWorkerCount(workers)

	return &RestClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Minute},
		handler: handler,
		pool:    pool,
		log:     log,
	}
}

// SubmitTransfer queues the operation. It blocks only while the local
// operation queue is full, never for the remote work itself.
func (c *RestClient) SubmitTransfer(ctx context.Context, req TransferRequest) error {
	return c.pool.submit(ctx, func(opCtx context.Context) {
		c.perform(opCtx, req)
	})
}

// perform executes one operation and delivers its terminal event.
func (c *RestClient) perform(ctx context.Context, req TransferRequest) {
	ev := Event{
		Kind:         EventComplete,
		CollectionID: req.CollectionID,
		FileID:       req.FileID,
	}
	if err := c.postTransfer(ctx, req); err != nil {
		ev.Kind = EventFailed
		ev.Info = err.Error()
	}
	c.deliver(ctx, ev)
}

func (c *RestClient) postTransfer(ctx context.Context, req TransferRequest) error {
	body, err := json.Marshal(transferRequestJSON{
		Operation: string(req.Operation),
		FileID:    req.FileID,
		URL:       req.URL,
		Checksum:  req.Checksum,
	})
	if err != nil {
		return fmt.Errorf("encode transfer request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/collections/%s/transfers", c.baseURL, url.PathEscape(req.CollectionID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("repository returned %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}

func (c *RestClient) deliver(ctx context.Context, ev Event) {
	if err := c.handler.HandleEvent(ctx, ev); err != nil {
		// A handler error means the event does not match the local job
		// bookkeeping. There is nothing to retry; surface it loudly.
		c.log.Error("protocol inconsistency handling event",
			"kind", ev.Kind.String(), "fileID", ev.FileID, "err", err)
	}
}

// GetChecksums fetches one page of checksum records from a pillar. The call
// is synchronous; the harvester decides on the next cursor before asking for
// the next page.
func (c *RestClient) GetChecksums(ctx context.Context, collectionID string, query ContributorQuery) (*ChecksumPage, error) {
	params := url.Values{}
	params.Set("pillar", query.PillarID)
	params.Set("min_timestamp", query.MinTimestamp.UTC().Format(time.RFC3339Nano))
	params.Set("max_results", strconv.Itoa(query.MaxResults))

	endpoint := fmt.Sprintf("%s/collections/%s/checksums?%s",
		c.baseURL, url.PathEscape(collectionID), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("repository returned %d: %s", resp.StatusCode, string(detail))
	}

	var pageJSON checksumPageJSON
	if err := json.NewDecoder(resp.Body).Decode(&pageJSON); err != nil {
		return nil, fmt.Errorf("parse checksum page: %w", err)
	}

	page := &ChecksumPage{PartialResults: pageJSON.PartialResults}
	for _, rec := range pageJSON.Records {
		digest, err := hex.DecodeString(rec.Checksum)
		if err != nil {
			return nil, fmt.Errorf("malformed checksum for file %q: %w", rec.FileID, err)
		}
		page.Records = append(page.Records, ChecksumRecord{
			FileID:          rec.FileID,
			Checksum:        digest,
			CalculationTime: rec.CalculationTime,
		})
	}
	return page, nil
}

// Stop terminates the operation workers. Queued operations are dropped and
// in-flight requests are cancelled.
func (c *RestClient) Stop() {
	c.pool.stop()
}

var (
	_ TransferClient = (*RestClient)(nil)
	_ ChecksumClient = (*RestClient)(nil)
)
