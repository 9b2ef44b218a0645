package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"

	"github.com/ekisa-team/awairs/internal/envvar"
	"github.com/ekisa-team/awairs/internal/xfs"
)

//go:embed awairs.v1.schema.json
var embeddedSchema string

const embeddedSchemaURL = "awairs.v1.schema.json"

// overrides are the environment variables that take precedence over the file.
// Each key is looked up as AWAIRS_<KEY> first and then as <KEY>.
type overrides struct {
	Port           *int   `envconfig:"PORT"`
	GRPCPort       *int   `envconfig:"GRPC_PORT"`
	ScalerPath     string `envconfig:"SCALER_PATH"`
	ModelsDir      string `envconfig:"MODELS_DIR"`
	LibraryPath    string `envconfig:"ORT_LIBRARY_PATH"`
	LinearModelURL string `envconfig:"LINEAR_MODEL_URL"`
	LSTMModelURL   string `envconfig:"LSTM_MODEL_URL"`
}

// Load reads the config file at path, falling back to Default when it does not
// exist, then applies environment overrides and validates the result.
// An empty schemaPath selects the embedded schema.
func Load(path, schemaPath string) (*Config, error) {
	cfg, err := LoadAndValidate(path, schemaPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Info("Config file not found, using defaults", "path", path)
		cfg = Default()
	case err != nil:
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadAndValidate loads and validates the configuration file.
func LoadAndValidate(path, schemaPath string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read config: %w", err)
	}

	return Parse(data, schemaPath)
}

// Parse validates raw YAML against the schema and decodes it on top of Default.
func Parse(data []byte, schemaPath string) (*Config, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: invalid YAML: %w", err)
	}

	schema, err := compileSchema(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("config: failed to compile schema: %w", err)
	}

	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal into Config struct: %w", err)
	}
	config.applyDefaults()

	return config, nil
}

func compileSchema(schemaPath string) (*jsonschema.Schema, error) {
	if schemaPath != "" {
		return jsonschema.Compile(schemaPath)
	}
	return jsonschema.CompileString(embeddedSchemaURL, embeddedSchema)
}

func applyEnv(cfg *Config) error {
	var o overrides
	if err := envconfig.Process(envvar.Prefix, &o); err != nil {
		return fmt.Errorf("config: failed to process environment: %w", err)
	}

	if o.Port != nil {
		cfg.Server.HTTPPort = *o.Port
	}
	if o.GRPCPort != nil {
		cfg.Server.GRPCPort = *o.GRPCPort
	}
	if o.ScalerPath != "" {
		cfg.Scaler.Path = o.ScalerPath
	}
	if o.ModelsDir != "" {
		cfg.Storage.ModelsDir = o.ModelsDir
	}
	if o.LibraryPath != "" {
		cfg.Runtime.LibraryPath = o.LibraryPath
	}
	setURL(cfg, ModelLinear, o.LinearModelURL)
	setURL(cfg, ModelLSTM, o.LSTMModelURL)

	return nil
}

func setURL(cfg *Config, id, url string) {
	if url == "" {
		return
	}
	m := cfg.Models[id]
	m.URL = url
	cfg.Models[id] = m
}

func (c *Config) expandPaths() {
	c.Scaler.Path = xfs.ExpandTilde(c.Scaler.Path)
	c.Storage.ModelsDir = xfs.ExpandTilde(c.Storage.ModelsDir)
	c.Runtime.LibraryPath = xfs.ExpandTilde(c.Runtime.LibraryPath)
}
