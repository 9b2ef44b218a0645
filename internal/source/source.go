// Package source fetches model artifacts from object stores, HTTP servers
// and the local filesystem.
package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// MaxArtifactSize bounds how many bytes a single fetch may return.
const MaxArtifactSize = 512 << 20

// Fetcher retrieves the raw bytes of a model artifact.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, rawURL string) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	return f(ctx, rawURL)
}

// Resolver dispatches fetches to a Fetcher by URL scheme.
// URLs without a scheme are treated as local paths.
type Resolver struct {
	fetchers map[string]Fetcher
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{fetchers: make(map[string]Fetcher)}
}

// Register binds a fetcher to one or more schemes.
func (r *Resolver) Register(f Fetcher, schemes ...string) {
	for _, s := range schemes {
		r.fetchers[strings.ToLower(s)] = f
	}
}

// Fetch implements Fetcher.
func (r *Resolver) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	scheme := schemeOf(rawURL)

	f, ok := r.fetchers[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}

	return f.Fetch(ctx, rawURL)
}

func schemeOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 { // "C:\..." is a path
		return "file"
	}
	return strings.ToLower(u.Scheme)
}

// WithTimeout bounds every fetch made through f. A zero timeout returns f unchanged.
func WithTimeout(f Fetcher, timeout time.Duration) Fetcher {
	if timeout <= 0 {
		return f
	}

	return FetcherFunc(func(ctx context.Context, rawURL string) ([]byte, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return f.Fetch(ctx, rawURL)
	})
}
