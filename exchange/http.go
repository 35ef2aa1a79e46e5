package exchange

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ensure interface is implemented
var _ FileExchange = (*HTTPExchange)(nil)

// HTTPExchange talks to a WebDAV-style file exchange over plain HTTP: GET to
// fetch, PUT to stage, DELETE to clean up.
type HTTPExchange struct {
	client *http.Client
	bufs   *BufferPool
}

// NewHTTPExchange creates an exchange backend for http and https locators.
func NewHTTPExchange() *HTTPExchange {
	return &HTTPExchange{
		client: &http.Client{Timeout: 30 * time.Minute},
		bufs:   NewBufferPool(DefaultBufferSize),
	}
}

func (e *HTTPExchange) GetFile(ctx context.Context, dst io.Writer, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request for %q: %w", rawURL, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %q: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fetch %q: exchange returned %d", rawURL, resp.StatusCode)
	}

	buf := e.bufs.Get()
	defer e.bufs.Put(buf)

	if _, err := io.CopyBuffer(dst, resp.Body, *buf); err != nil {
		return fmt.Errorf("stream %q: %w", rawURL, err)
	}
	return nil
}

func (e *HTTPExchange) PutFile(ctx context.Context, src io.Reader, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, rawURL, src)
	if err != nil {
		return fmt.Errorf("create request for %q: %w", rawURL, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("stage %q: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("stage %q: exchange returned %d", rawURL, resp.StatusCode)
	}
	return nil
}

func (e *HTTPExchange) DeleteFile(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request for %q: %w", rawURL, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete %q: %w", rawURL, err)
	}
	defer resp.Body.Close()

	// A missing artifact is already the state we want.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("delete %q: exchange returned %d", rawURL, resp.StatusCode)
	}
	return nil
}
