package exchange

import (
	"context"
	"fmt"
	"io"
	"net/url"
)

// FileExchange moves file content to and from the remote temporary storage
// shared between this client and the pillars. Resource locators are opaque
// URLs; the scheme selects the backend.
//
// DeleteFile is best-effort cleanup of remote temporary state; callers do not
// distinguish a delete failure from a success.
type FileExchange interface {
	// GetFile streams the artifact at rawURL into dst.
	GetFile(ctx context.Context, dst io.Writer, rawURL string) error

	// PutFile stages src at rawURL.
	PutFile(ctx context.Context, src io.Reader, rawURL string) error

	// DeleteFile removes the artifact at rawURL.
	DeleteFile(ctx context.Context, rawURL string) error
}

// New creates the FileExchange matching the scheme of baseURL. Supported
// schemes: http, https, s3, gs.
func New(ctx context.Context, baseURL string) (FileExchange, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid exchange URL %q: %w", baseURL, err)
	}

	switch u.Scheme {
	case "http", "https":
		return NewHTTPExchange(), nil
	case "s3":
		return NewS3Exchange(ctx)
	case "gs":
		return NewGCSExchange(ctx, "")
	default:
		return nil, fmt.Errorf("unsupported exchange scheme %q in %q", u.Scheme, baseURL)
	}
}

// JoinURL appends a file id to an exchange base URL, escaping the id so
// slashes in logical file ids stay within one path segment.
func JoinURL(baseURL, fileID string) string {
	return baseURL + "/" + url.PathEscape(fileID)
}
