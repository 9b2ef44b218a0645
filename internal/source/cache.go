package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ekisa-team/awairs/internal/xfs"
)

const (
	artifactFilename = "model.onnx"
	markerFilename   = ".awairs-downloaded"
)

// DiskCache keeps fetched artifacts on local disk so a restarted process does
// not need the network. Each URL gets its own directory holding the artifact
// and a marker recording the URL it came from.
type DiskCache struct {
	dir  string
	next Fetcher
}

// NewDiskCache wraps next with an on-disk cache rooted at dir.
func NewDiskCache(dir string, next Fetcher) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to prepare models directory %s: %w", dir, err)
	}

	return &DiskCache{dir: dir, next: next}, nil
}

// Fetch implements Fetcher.
func (c *DiskCache) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	entryDir := filepath.Join(c.dir, cacheKey(rawURL))
	artifactPath := filepath.Join(entryDir, artifactFilename)
	markerPath := filepath.Join(entryDir, markerFilename)

	if !c.shouldRedownload(markerPath, markerContent(rawURL)) {
		data, err := os.ReadFile(artifactPath)
		if err == nil && len(data) > 0 {
			slog.Info("Model artifact found on disk (marker match), skipping download", "url", rawURL, "path", artifactPath)
			return data, nil
		}
		slog.Warn("Cached artifact unreadable, downloading again", "path", artifactPath, "error", err)
	}

	data, err := c.next.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if err := xfs.WriteFileAtomic(artifactPath, data, 0o644); err != nil {
		slog.Warn("Failed to store artifact on disk", "path", artifactPath, "error", err)
		return data, nil
	}

	if err := os.WriteFile(markerPath, []byte(markerContent(rawURL)), 0o644); err != nil {
		slog.Warn("Failed to write download marker", "path", markerPath, "error", err)
	} else {
		slog.Info("Download marker updated", "path", markerPath)
	}

	return data, nil
}

func cacheKey(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:8])
}

// markerContent generates the expected content of the marker file.
func markerContent(rawURL string) string {
	return fmt.Sprintf("url: %s\n", rawURL)
}

// shouldRedownload checks if the artifact should be fetched again by comparing marker content.
func (c *DiskCache) shouldRedownload(markerPath, expectedContent string) bool {
	content, err := os.ReadFile(markerPath)
	if err != nil {
		slog.Debug("Marker file missing or unreadable", "path", markerPath, "error", err)
		return true
	}

	if string(content) != expectedContent {
		slog.Info("Artifact source changed (marker mismatch), will redownload",
			"marker_path", markerPath,
			"expected", expectedContent,
			"actual", string(content))
		return true
	}

	return false
}
