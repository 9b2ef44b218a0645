//go:build cgo

package onnx

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/ekisa-team/awairs/internal/backend"
)

// Backend implements backend.Backend on top of the ONNX Runtime C library.
type Backend struct {
	libraryPath string

	once        sync.Once
	initErr     error
	initialized bool
}

// NewBackend creates a backend. An empty libraryPath lets onnxruntime_go use
// its platform default.
func NewBackend(libraryPath string) *Backend {
	return &Backend{libraryPath: libraryPath}
}

// Provider returns the backend provider.
func (b *Backend) Provider() backend.Provider {
	return backend.ProviderONNXRuntime
}

// initialize sets up the runtime environment exactly once. A failure is
// permanent for the life of the backend.
func (b *Backend) initialize() error {
	b.once.Do(func() {
		if b.libraryPath != "" {
			ort.SetSharedLibraryPath(b.libraryPath)
		}

		if ort.IsInitialized() {
			return
		}

		if err := ort.InitializeEnvironment(); err != nil {
			b.initErr = fmt.Errorf("failed to initialize onnxruntime environment (library %q): %w", b.libraryPath, err)
			return
		}

		b.initialized = true
		slog.Info("ONNX Runtime environment initialized", "library", b.libraryPath)
	})

	return b.initErr
}

// Load parses the model metadata and creates a session for it.
func (b *Backend) Load(ctx context.Context, modelID string, artifact []byte, options map[string]any) (backend.Session, error) {
	if err := b.initialize(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inputInfos, outputInfos, err := ort.GetInputOutputInfoWithONNXData(artifact)
	if err != nil {
		return nil, fmt.Errorf("failed to read model metadata: %w", err)
	}
	if len(inputInfos) == 0 || len(outputInfos) == 0 {
		return nil, fmt.Errorf("model %s declares %d inputs and %d outputs", modelID, len(inputInfos), len(outputInfos))
	}

	opts, err := newSessionOptions(options)
	if err != nil {
		return nil, err
	}
	if opts != nil {
		defer opts.Destroy()
	}

	session, err := ort.NewDynamicAdvancedSessionWithONNXData(artifact, names(inputInfos), names(outputInfos), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s := &Session{
		modelID: modelID,
		session: session,
		inputs:  inputInfos,
		outputs: outputInfos,
	}

	slog.Info("ONNX session created",
		"model_id", modelID,
		"inputs", names(inputInfos),
		"outputs", names(outputInfos),
		"bytes", len(artifact))

	return s, nil
}

// Close tears the runtime environment down if this backend created it.
func (b *Backend) Close() error {
	if !b.initialized {
		return nil
	}

	if err := ort.DestroyEnvironment(); err != nil {
		return fmt.Errorf("failed to destroy onnxruntime environment: %w", err)
	}

	b.initialized = false
	return nil
}

func newSessionOptions(options map[string]any) (*ort.SessionOptions, error) {
	intra, inter := threadOptions(options)
	if intra == 0 && inter == 0 {
		return nil, nil
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}

	if intra > 0 {
		if err := opts.SetIntraOpNumThreads(intra); err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
		}
	}
	if inter > 0 {
		if err := opts.SetInterOpNumThreads(inter); err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("failed to set inter-op threads: %w", err)
		}
	}

	return opts, nil
}

func names(infos []ort.InputOutputInfo) []string {
	out := make([]string, len(infos))
	for i, info := range infos {
		out[i] = info.Name
	}
	return out
}
