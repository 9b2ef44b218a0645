package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ekisa-team/awairs/internal/backend"
	"github.com/ekisa-team/awairs/internal/backend/onnx"
	"github.com/ekisa-team/awairs/internal/config"
	"github.com/ekisa-team/awairs/internal/env"
	"github.com/ekisa-team/awairs/internal/logger"
	"github.com/ekisa-team/awairs/internal/metrics"
	"github.com/ekisa-team/awairs/internal/model"
	"github.com/ekisa-team/awairs/internal/scaler"
	grpcserver "github.com/ekisa-team/awairs/internal/server/grpc"
	httpserver "github.com/ekisa-team/awairs/internal/server/http"
	"github.com/ekisa-team/awairs/internal/service"
	"github.com/ekisa-team/awairs/internal/source"
)

func main() {
	var (
		flagHTTPPort   = flag.Int("http-port", 0, "HTTP port to listen on (overrides config and PORT)")
		flagGRPCPort   = flag.Int("grpc-port", 0, "gRPC port to listen on (overrides config, 0 in config disables)")
		flagConfigPath = flag.String("config", filepath.Join(config.DefaultConfigPath(), "config.yaml"), "Path to config file")
		flagSchemaPath = flag.String("schema", "", "Path to schema file (embedded schema when empty)")
		flagLogToFile  = flag.Bool("log-file", false, "Also write JSON logs to logs/awairs.log")
		flagLogMaxSize = flag.Int("log-max-size", 50, "Size in megabytes at which the log file is rotated")
	)
	flag.Parse()

	environment := env.FromEnv()

	slog.SetDefault(
		logger.New(environment,
			logger.WithLogToFile(*flagLogToFile),
			logger.WithLogFile("logs/awairs.log"),
			logger.WithMaxSize(*flagLogMaxSize),
		),
	)

	cfg, err := config.Load(*flagConfigPath, *flagSchemaPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *flagHTTPPort > 0 {
		cfg.Server.HTTPPort = *flagHTTPPort
	}
	if *flagGRPCPort > 0 {
		cfg.Server.GRPCPort = *flagGRPCPort
	}

	slog.Info("Config loaded successfully", "config", *flagConfigPath, "environment", environment)

	if err := run(cfg); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	params, err := loadScaler(cfg.Scaler)
	if err != nil {
		return err
	}

	backends := backend.NewRegistry()
	if err := backends.Register(onnx.NewBackend(cfg.Runtime.LibraryPath)); err != nil {
		return err
	}
	defer func() {
		if err := backends.Close(); err != nil {
			slog.Error("Failed to close backends", "error", err)
		}
	}()

	b, err := backends.MustGet(backend.Provider(cfg.Runtime.Backend))
	if err != nil {
		return fmt.Errorf("runtime backend %q: %w", cfg.Runtime.Backend, err)
	}

	gcs := source.NewGCSFetcher(cfg.Storage.Anonymous)
	defer gcs.Close()

	fetcher, err := newFetcher(cfg.Storage, gcs)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()

	manager := model.NewManager(cfg, b, fetcher, collector)
	defer func() {
		if err := manager.Close(); err != nil {
			slog.Error("Failed to close models", "error", err)
		}
	}()

	predictor := service.NewPredictor(manager, params, cfg, collector)
	httpServer := httpserver.NewServer(cfg.Server.HTTPPort, predictor, manager, collector)

	var grpcServer *grpcserver.Server
	if cfg.Server.GRPCPort > 0 {
		modelIDs := make([]string, 0, len(cfg.Models))
		for _, info := range manager.List() {
			modelIDs = append(modelIDs, info.ID)
		}

		grpcServer = grpcserver.NewServer(cfg.Server.GRPCPort, modelIDs)
		manager.OnStatusChange(grpcServer.SetModelStatus)
	} else {
		slog.Info("gRPC health service disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager.Preload(ctx)

	var health func() error
	if grpcServer != nil {
		health = grpcServer.Start
	}
	err = serve(ctx, httpServer.Start, health)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if serr := httpServer.Shutdown(shutdownCtx); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
		slog.Error("Failed to shut down HTTP server", "error", serr)
	}
	if grpcServer != nil {
		grpcServer.Stop(shutdownCtx)
	}

	return err
}

// serve runs the prediction API until ctx ends or the API fails. The health
// listener is optional and its failure is logged without stopping the API.
func serve(ctx context.Context, api, health func() error) error {
	if health != nil {
		go func() {
			if err := health(); err != nil {
				slog.Error("gRPC health service stopped, HTTP API keeps serving", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- api() }()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down")
		return nil
	case err := <-errCh:
		return err
	}
}

// loadScaler reads the scaler parameters. Unless required, a failure degrades
// linear predictions instead of stopping the process.
func loadScaler(cfg config.ScalerConfig) (*scaler.Params, error) {
	if !cfg.Required {
		return scaler.LoadOrEmpty(cfg.Path), nil
	}

	params, err := scaler.Load(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("scaler is required: %w", err)
	}
	return params, nil
}

func newFetcher(cfg config.StorageConfig, gcs *source.GCSFetcher) (source.Fetcher, error) {
	resolver := source.NewResolver()
	resolver.Register(source.NewHTTPFetcher(nil), "http", "https")
	resolver.Register(gcs, "gs")
	resolver.Register(source.FileFetcher{}, "file")

	fetcher := source.WithTimeout(resolver, cfg.FetchTimeout)
	if cfg.ModelsDir == "" {
		return fetcher, nil
	}

	cache, err := source.NewDiskCache(cfg.ModelsDir, fetcher)
	if err != nil {
		return nil, fmt.Errorf("models dir %s: %w", cfg.ModelsDir, err)
	}
	slog.Info("Artifact cache enabled", "dir", cfg.ModelsDir)
	return cache, nil
}
