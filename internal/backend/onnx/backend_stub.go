//go:build !cgo

package onnx

import (
	"context"

	"github.com/ekisa-team/awairs/internal/backend"
)

// Backend is the stand-in used when cgo is disabled. Every load fails with
// ErrUnavailable.
type Backend struct{}

// NewBackend creates the stub backend.
func NewBackend(string) *Backend {
	return &Backend{}
}

// Provider returns the backend provider.
func (b *Backend) Provider() backend.Provider {
	return backend.ProviderONNXRuntime
}

// Load always fails.
func (b *Backend) Load(context.Context, string, []byte, map[string]any) (backend.Session, error) {
	return nil, ErrUnavailable
}

// Close is a no-op.
func (b *Backend) Close() error {
	return nil
}
