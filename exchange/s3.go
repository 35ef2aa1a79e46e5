package exchange

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ensure interface is implemented
var _ FileExchange = (*S3Exchange)(nil)

// S3Exchange stages artifacts in S3. Locators look like s3://bucket/key.
type S3Exchange struct {
	client   *s3.Client
	uploader *manager.Uploader
	bufs     *BufferPool
}

// NewS3Exchange creates an exchange backend using the default AWS credential
// chain.
func NewS3Exchange(ctx context.Context) (*S3Exchange, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Exchange{
		client:   client,
		uploader: manager.NewUploader(client),
		bufs:     NewBufferPool(DefaultBufferSize),
	}, nil
}

// splitS3URL parses s3://bucket/key into its parts.
func splitS3URL(rawURL string) (bucket, key string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid s3 locator %q", rawURL)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

func (e *S3Exchange) GetFile(ctx context.Context, dst io.Writer, rawURL string) error {
	bucket, key, err := splitS3URL(rawURL)
	if err != nil {
		return err
	}

	out, err := e.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("fetch %q: %w", rawURL, err)
	}
	defer out.Body.Close()

	buf := e.bufs.Get()
	defer e.bufs.Put(buf)

	if _, err := io.CopyBuffer(dst, out.Body, *buf); err != nil {
		return fmt.Errorf("stream %q: %w", rawURL, err)
	}
	return nil
}

func (e *S3Exchange) PutFile(ctx context.Context, src io.Reader, rawURL string) error {
	bucket, key, err := splitS3URL(rawURL)
	if err != nil {
		return err
	}

	_, err = e.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   src,
	})
	if err != nil {
		return fmt.Errorf("stage %q: %w", rawURL, err)
	}
	return nil
}

func (e *S3Exchange) DeleteFile(ctx context.Context, rawURL string) error {
	bucket, key, err := splitS3URL(rawURL)
	if err != nil {
		return err
	}

	_, err = e.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %q: %w", rawURL, err)
	}
	return nil
}
