// Package health exposes the standard gRPC health service.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the name reported for the interview pipeline.
const Service = "interview.Pipeline"

// Server serves grpc.health.v1 for orchestrators that probe over gRPC.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
}

// New creates a health server reporting SERVING for the pipeline.
func New() *Server {
	hs := health.NewServer()
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(Service, healthpb.HealthCheckResponse_SERVING)
	return &Server{grpc: gs, health: hs}
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	slog.Info("gRPC health server listening", "addr", lis.Addr().String())
	if err := s.grpc.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("serve grpc health: %w", err)
	}
	return nil
}

// Start listens on addr and serves in the background until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	go func() {
		if err := s.Serve(lis); err != nil {
			slog.Error("gRPC health server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// SetNotServing flips every service to NOT_SERVING, e.g. while draining.
func (s *Server) SetNotServing() {
	s.health.Shutdown()
}

// Stop stops the server gracefully.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
