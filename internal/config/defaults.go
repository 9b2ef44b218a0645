package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Default artifact locations. The models were trained and first published as
// TensorFlow.js graphs under model_tfjs_*; these paths hold their ONNX
// conversions (tf2onnx, one model.onnx per directory), which must be uploaded
// next to them before the defaults can serve. Until then the first prediction
// fails with a retryable fetch error; point models.<id>.url (or
// AWAIRS_LINEAR_MODEL_URL / AWAIRS_LSTM_MODEL_URL) at the converted files.
const (
	defaultLinearModelURL = "https://storage.googleapis.com/bungkit-awairs/model_onnx_linear/model.onnx"
	defaultLSTMModelURL   = "https://storage.googleapis.com/bungkit-awairs/model_onnx_lstm/model.onnx"
)

// DefaultHTTPPort returns the port used when neither the config nor PORT set one.
func DefaultHTTPPort() int {
	return 8080
}

// DefaultGRPCPort returns the port of the gRPC health service.
func DefaultGRPCPort() int {
	return 9090
}

// DefaultLSTMShape returns the fixed batch x timesteps x features shape of the LSTM input.
func DefaultLSTMShape() []int64 {
	return []int64{1, 5, 6}
}

// Default returns the built-in configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Version: "1",
		Server: ServerConfig{
			HTTPPort:        DefaultHTTPPort(),
			GRPCPort:        DefaultGRPCPort(),
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			FetchTimeout: 2 * time.Minute,
		},
		Runtime: RuntimeConfig{
			Backend: "onnxruntime",
		},
		Scaler: ScalerConfig{
			Path: "scaler.json",
		},
		Models: map[string]ModelConfig{
			ModelLinear: {URL: defaultLinearModelURL},
			ModelLSTM:   {URL: defaultLSTMModelURL, InputShape: DefaultLSTMShape()},
		},
	}
}

// DefaultConfigPath returns the default path for the AWAIRS config directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "awairs", "config")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "awairs")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "awairs")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "awairs")
		}
		return filepath.Join(home, ".config", "awairs")
	}
}

// DefaultModelsPath returns the default path for the on-disk artifact cache.
func DefaultModelsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "awairs", "models")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "awairs", "models")
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "awairs", "models")
	default:
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "awairs", "models")
		}
		return filepath.Join(home, ".cache", "awairs", "models")
	}
}

// applyDefaults fills fields a partial config file left empty.
func (c *Config) applyDefaults() {
	def := Default()

	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = def.Server.HTTPPort
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if c.Runtime.Backend == "" {
		c.Runtime.Backend = def.Runtime.Backend
	}
	if c.Scaler.Path == "" {
		c.Scaler.Path = def.Scaler.Path
	}
	if c.Models == nil {
		c.Models = def.Models
	}
	if m, ok := c.Models[ModelLSTM]; ok && len(m.InputShape) == 0 {
		m.InputShape = DefaultLSTMShape()
		c.Models[ModelLSTM] = m
	}
}
