package backend

import (
	"context"
)

// Provider is a string identifier for a backend provider.
type Provider string

const (
	// ProviderONNXRuntime executes ONNX graphs in-process.
	ProviderONNXRuntime Provider = "onnxruntime"
)

// Backend defines the core interface for all inference backends.
type Backend interface {
	// Provider returns the backend identifier.
	Provider() Provider

	// Load parses a serialized model and returns a session ready for inference.
	Load(ctx context.Context, modelID string, artifact []byte, options map[string]any) (Session, error)

	// Close cleans up resources.
	Close() error
}

// Session is a loaded, inference-ready model.
type Session interface {
	// Inputs describes the declared model inputs, in order.
	Inputs() []TensorInfo

	// Outputs describes the declared model outputs, in order.
	Outputs() []TensorInfo

	// Run executes a forward pass and returns the requested outputs in the
	// order given. A nil outputNames requests every declared output.
	Run(ctx context.Context, inputs []Tensor, outputNames []string) ([]Tensor, error)

	// Close releases the session.
	Close() error
}
