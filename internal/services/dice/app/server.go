// Package server wires the dice runtime and gRPC lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"

	"github.com/louisbranch/drex/internal/platform/config"
	platformgrpc "github.com/louisbranch/drex/internal/platform/grpc"
	"github.com/louisbranch/drex/internal/platform/grpc/metadata"
	"github.com/louisbranch/drex/internal/platform/id"
	"github.com/louisbranch/drex/internal/platform/timeouts"
	"github.com/louisbranch/drex/internal/services/dice/api/grpc/roller"
	"google.golang.org/grpc"
)

// Server hosts the dice gRPC API and storage lifecycle.
type Server struct {
	listener net.Listener
	grpc     *platformgrpc.Server
	local    *Local
}

// NewWithAddr creates a dice server listening on addr. Seed, history and
// locale come from cfg; cfg.GRPCAddr is ignored in favor of addr.
func NewWithAddr(ctx context.Context, addr string, cfg config.Dice) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	local, err := OpenLocal(ctx, cfg.Seed, cfg.HistoryDB)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	grpcServer := platformgrpc.NewServer(grpc.ChainUnaryInterceptor(
		metadata.UnaryServerInterceptor(id.NewID),
		platformgrpc.LoggingInterceptor(log.Printf),
	))
	roller.RegisterDiceServer(grpcServer.Registrar(), roller.NewServer(local, cfg.Locale))
	grpcServer.SetServing(roller.ServiceName)

	return &Server{
		listener: listener,
		grpc:     grpcServer,
		local:    local,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Seed reports the seed backing the server's dice.
func (s *Server) Seed() int64 {
	if s == nil {
		return 0
	}
	return s.local.Seed()
}

// Run creates and serves a dice server until context cancellation.
func Run(ctx context.Context, cfg config.Dice) error {
	server, err := NewWithAddr(ctx, cfg.GRPCAddr, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the gRPC server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("dice server listening at %v (seed %d)", s.listener.Addr(), s.local.Seed())
	if err := s.grpc.Serve(ctx, s.listener, timeouts.Shutdown); err != nil {
		return fmt.Errorf("serve gRPC: %w", err)
	}
	return nil
}

// Close releases dice server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.local != nil {
		_ = s.local.Close()
	}
}
