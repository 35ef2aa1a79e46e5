package exchange

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ensure interface is implemented
var _ FileExchange = (*GCSExchange)(nil)

// GCSExchange stages artifacts in Google Cloud Storage. Locators look like
// gs://bucket/object.
type GCSExchange struct {
	client *storage.Client
	bufs   *BufferPool
}

// NewGCSExchange creates an exchange backend. credsFile selects a service
// account key file; when empty, Application Default Credentials are used.
func NewGCSExchange(ctx context.Context, credsFile string) (*GCSExchange, error) {
	var client *storage.Client
	var err error
	if credsFile != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(credsFile))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to create GCS client: %w", err)
	}

	return &GCSExchange{
		client: client,
		bufs:   NewBufferPool(DefaultBufferSize),
	}, nil
}

func (e *GCSExchange) object(rawURL string) (*storage.ObjectHandle, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "gs" || u.Host == "" {
		return nil, fmt.Errorf("invalid gs locator %q", rawURL)
	}
	name := strings.TrimPrefix(u.Path, "/")
	return e.client.Bucket(u.Host).Object(name), nil
}

func (e *GCSExchange) GetFile(ctx context.Context, dst io.Writer, rawURL string) error {
	obj, err := e.object(rawURL)
	if err != nil {
		return err
	}

	r, err := obj.NewReader(ctx)
	if err != nil {
		return fmt.Errorf("fetch %q: %w", rawURL, err)
	}
	defer r.Close()

	buf := e.bufs.Get()
	defer e.bufs.Put(buf)

	if _, err := io.CopyBuffer(dst, r, *buf); err != nil {
		return fmt.Errorf("stream %q: %w", rawURL, err)
	}
	return nil
}

func (e *GCSExchange) PutFile(ctx context.Context, src io.Reader, rawURL string) error {
	obj, err := e.object(rawURL)
	if err != nil {
		return err
	}

	w := obj.NewWriter(ctx)

	buf := e.bufs.Get()
	defer e.bufs.Put(buf)

	if _, err := io.CopyBuffer(w, src, *buf); err != nil {
		w.Close()
		return fmt.Errorf("stage %q: %w", rawURL, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("stage %q: %w", rawURL, err)
	}
	return nil
}

func (e *GCSExchange) DeleteFile(ctx context.Context, rawURL string) error {
	obj, err := e.object(rawURL)
	if err != nil {
		return err
	}
	if err := obj.Delete(ctx); err != nil {
		return fmt.Errorf("delete %q: %w", rawURL, err)
	}
	return nil
}

// Close releases the underlying GCS client.
func (e *GCSExchange) Close() error {
	return e.client.Close()
}
