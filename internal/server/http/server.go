// Package http exposes the prediction API over HTTP.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/rs/cors"

	"github.com/ekisa-team/awairs/internal/metrics"
)

// Server serves the prediction API.
type Server struct {
	server  *http.Server
	handler http.Handler
}

// NewServer builds the API and its handlers. A nil collector disables /metrics.
func NewServer(port int, predictor Predictor, models ModelLister, m *metrics.Collector) *Server {
	mux := http.NewServeMux()

	config := huma.DefaultConfig("awairs", "1.0.0")
	config.CreateHooks = nil // no $schema links in responses

	api := humago.New(mux, config)
	api.UseMiddleware(logRequests)

	NewPredictHandler(api, predictor, m)
	NewHealthHandler(api, models)

	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	handler := cors.AllowAll().Handler(mux)

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		handler: handler,
	}
}

// Handler returns the root handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens and serves until Shutdown is called.
func (s *Server) Start() error {
	slog.Info("HTTP server listening", "addr", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func logRequests(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	next(ctx)

	slog.Info("Request handled",
		"method", ctx.Method(),
		"path", ctx.URL().Path,
		"status", ctx.Status(),
		"duration", time.Since(start),
	)
}
