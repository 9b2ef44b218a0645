// Package grpc serves the standard gRPC health protocol with one service
// name per model.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/ekisa-team/awairs/internal/model"
)

// Server is a gRPC server exposing model readiness.
type Server struct {
	addr   string
	server *grpc.Server
	health *health.Server
}

// NewServer creates a server. Every model starts as NOT_SERVING; the
// overall service ("") is SERVING while the process runs.
func NewServer(port int, modelIDs []string) *Server {
	s := &Server{
		addr:   fmt.Sprintf(":%d", port),
		server: grpc.NewServer(),
		health: health.NewServer(),
	}

	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	for _, id := range modelIDs {
		s.health.SetServingStatus(id, healthpb.HealthCheckResponse_NOT_SERVING)
	}

	return s
}

// SetModelStatus publishes the status of a model. Only loaded models serve.
func (s *Server) SetModelStatus(id string, status model.Status) {
	serving := healthpb.HealthCheckResponse_NOT_SERVING
	if status == model.StatusLoaded {
		serving = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(id, serving)
}

// Start listens on the configured port and serves until Stop is called.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", s.addr, err)
	}

	return s.Serve(lis)
}

// Serve serves on an existing listener.
func (s *Server) Serve(lis net.Listener) error {
	slog.Info("gRPC server listening", "addr", lis.Addr().String())

	if err := s.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc server: %w", err)
	}
	return nil
}

// Stop drains in-flight calls, forcing the stop when ctx expires.
func (s *Server) Stop(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.server.Stop()
	}
}
