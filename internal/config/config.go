package config

import (
	"errors"
	"fmt"
	"time"
)

// Model identifiers served by the HTTP API.
const (
	// ModelLinear is the linear regression model behind /predict-linear.
	ModelLinear = "linear"

	// ModelLSTM is the sequence model behind /predict-lstm.
	ModelLSTM = "lstm"
)

// Config holds the main configuration for the application.
type Config struct {
	Version string                 `json:"version"           yaml:"version"`
	Server  ServerConfig           `json:"server,omitempty"  yaml:"server,omitempty"`
	Storage StorageConfig          `json:"storage,omitempty" yaml:"storage,omitempty"`
	Runtime RuntimeConfig          `json:"runtime,omitempty" yaml:"runtime,omitempty"`
	Scaler  ScalerConfig           `json:"scaler,omitempty"  yaml:"scaler,omitempty"`
	Models  map[string]ModelConfig `json:"models"            yaml:"models"`
}

// ServerConfig holds the listener configuration.
type ServerConfig struct {
	HTTPPort        int           `json:"http_port,omitempty"        yaml:"http_port,omitempty"`
	GRPCPort        int           `json:"grpc_port,omitempty"        yaml:"grpc_port,omitempty"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout,omitempty" yaml:"shutdown_timeout,omitempty"`
}

// StorageConfig holds configuration for fetching and caching model artifacts.
type StorageConfig struct {
	// ModelsDir enables the on-disk artifact cache when set.
	ModelsDir string `json:"models_dir,omitempty" yaml:"models_dir,omitempty"`

	// FetchTimeout bounds a single artifact fetch. Zero disables the bound.
	FetchTimeout time.Duration `json:"fetch_timeout,omitempty" yaml:"fetch_timeout,omitempty"`

	// Anonymous makes gs:// fetches skip credential lookup (public buckets).
	Anonymous bool `json:"anonymous,omitempty" yaml:"anonymous,omitempty"`
}

// RuntimeConfig selects and configures the inference backend.
type RuntimeConfig struct {
	Backend     string `json:"backend,omitempty"      yaml:"backend,omitempty"`
	LibraryPath string `json:"library_path,omitempty" yaml:"library_path,omitempty"`
}

// ScalerConfig points at the mean/scale parameters used by the linear model.
type ScalerConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Required turns a scaler load failure into a startup error instead of
	// serving unstandardized inputs.
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`
}

// ModelConfig holds configuration for a specific model.
type ModelConfig struct {
	URL        string         `json:"url"                   yaml:"url"`
	InputShape []int64        `json:"input_shape,omitempty" yaml:"input_shape,omitempty"`
	Preload    bool           `json:"preload,omitempty"     yaml:"preload,omitempty"`
	Options    map[string]any `json:"options,omitempty"     yaml:"options,omitempty"`
}

// Model returns the configuration of the model with the given ID.
func (c *Config) Model(id string) (ModelConfig, bool) {
	m, ok := c.Models[id]
	return m, ok
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid http port: %d", c.Server.HTTPPort))
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid grpc port: %d", c.Server.GRPCPort))
	}
	if c.Scaler.Path == "" {
		errs = append(errs, errors.New("scaler path is required"))
	}

	for _, id := range []string{ModelLinear, ModelLSTM} {
		m, ok := c.Models[id]
		if !ok {
			errs = append(errs, fmt.Errorf("model %q is not configured", id))
			continue
		}
		if m.URL == "" {
			errs = append(errs, fmt.Errorf("model %q has no url", id))
		}
		for _, d := range m.InputShape {
			if d <= 0 {
				errs = append(errs, fmt.Errorf("model %q has a non-positive input dimension: %v", id, m.InputShape))
				break
			}
		}
	}

	return errors.Join(errs...)
}
