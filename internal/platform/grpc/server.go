package grpc

import (
	"context"
	"errors"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// Server bundles a gRPC server with its health service.
type Server struct {
	grpc   *gogrpc.Server
	health *health.Server
}

// NewServer returns a server with the OTel stats handler and a registered
// health service. Extra options are appended.
func NewServer(opts ...gogrpc.ServerOption) *Server {
	options := append([]gogrpc.ServerOption{
		gogrpc.StatsHandler(otelgrpc.NewServerHandler()),
	}, opts...)
	grpcServer := gogrpc.NewServer(options...)
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	return &Server{grpc: grpcServer, health: healthServer}
}

// Registrar exposes the underlying server for service registration.
func (s *Server) Registrar() gogrpc.ServiceRegistrar {
	return s.grpc
}

// SetServing marks service, and the server as a whole, as SERVING.
func (s *Server) SetServing(service string) {
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	if service != "" {
		s.health.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_SERVING)
	}
}

// Serve accepts connections on lis until ctx ends, then stops gracefully.
// A stop that outlasts shutdownTimeout is forced.
func (s *Server) Serve(ctx context.Context, lis net.Listener, shutdownTimeout time.Duration) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpc.Serve(lis)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, gogrpc.ErrServerStopped) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.health.Shutdown()
	stopped := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(shutdownTimeout):
		s.grpc.Stop()
	}
	<-serveErr
	return nil
}
