package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSFetcher reads gs://bucket/object artifacts through the Cloud Storage API.
// The client is created on first use, so processes that never touch gs://
// URLs do not need credentials.
type GCSFetcher struct {
	anonymous bool

	mu     sync.Mutex
	client *storage.Client
}

// NewGCSFetcher creates a fetcher. With anonymous set, requests are sent
// without credentials, which works for public buckets.
func NewGCSFetcher(anonymous bool) *GCSFetcher {
	return &GCSFetcher{anonymous: anonymous}
}

// Fetch implements Fetcher.
func (f *GCSFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	bucket, object, err := parseGCSURL(rawURL)
	if err != nil {
		return nil, err
	}

	client, err := f.storageClient(ctx)
	if err != nil {
		return nil, err
	}

	reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", bucket, object, err)
	}
	defer reader.Close()

	data, err := readLimited(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, object, err)
	}

	slog.Debug("Artifact downloaded from Cloud Storage", "bucket", bucket, "object", object, "bytes", len(data))
	return data, nil
}

// Close releases the storage client if one was created.
func (f *GCSFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client == nil {
		return nil
	}

	err := f.client.Close()
	f.client = nil
	return err
}

func (f *GCSFetcher) storageClient(ctx context.Context) (*storage.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client != nil {
		return f.client, nil
	}

	var opts []option.ClientOption
	if f.anonymous {
		opts = append(opts, option.WithoutAuthentication())
	}

	// The client outlives the request that triggered its creation.
	client, err := storage.NewClient(context.WithoutCancel(ctx), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	f.client = client
	return client, nil
}

// parseGCSURL splits gs://bucket/path/to/object.
func parseGCSURL(rawURL string) (bucket, object string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid gcs url %q: %w", rawURL, err)
	}
	if u.Scheme != "gs" {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	object = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || object == "" {
		return "", "", fmt.Errorf("invalid gcs url %q: want gs://bucket/object", rawURL)
	}

	return u.Host, object, nil
}
