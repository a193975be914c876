package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/louisbranch/drex/internal/platform/config"
	platformgrpc "github.com/louisbranch/drex/internal/platform/grpc"
	"github.com/louisbranch/drex/internal/platform/timeouts"
	"github.com/louisbranch/drex/internal/services/dice/api/grpc/roller"
	diceapp "github.com/louisbranch/drex/internal/services/dice/app"
	diceservice "github.com/louisbranch/drex/internal/services/dice/service"
	"github.com/louisbranch/drex/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
)

const (
	// serverName identifies the MCP server to clients.
	serverName = "drex"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// Server hosts the MCP dice tools and the roller behind them.
type Server struct {
	mcpServer *mcp.Server
	backend   io.Closer
}

// New returns an MCP server exposing the dice tools over roller. Errors are
// localized for locale.
func New(roller diceservice.Roller, locale string) (*Server, error) {
	if roller == nil {
		return nil, fmt.Errorf("roller is required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	registerDiceTools(mcpServer, roller, locale)
	return &Server{mcpServer: mcpServer}, nil
}

func registerDiceTools(server *mcp.Server, roller diceservice.Roller, locale string) {
	mcp.AddTool(server, domain.RollDiceTool(), domain.RollDiceHandler(roller, locale))
	mcp.AddTool(server, domain.RollRangeTool(), domain.RollRangeHandler(roller, locale))
	mcp.AddTool(server, domain.RerollTool(), domain.RerollHandler(roller, locale))
	mcp.AddTool(server, domain.RollHistoryTool(), domain.RollHistoryHandler(roller, locale))
}

// Run is the service entrypoint for MCP and blocks until context
// cancellation. A non-empty remoteAddr sends rolls to a dice server;
// otherwise dice are rolled in process using cfg's seed and history.
func Run(ctx context.Context, cfg config.Dice, remoteAddr string) error {
	server, err := newServer(ctx, cfg, remoteAddr)
	if err != nil {
		return err
	}
	return server.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// Serve starts the MCP server on stdio and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// Close releases the roller backend held by the server.
func (s *Server) Close() error {
	if s == nil || s.backend == nil {
		return nil
	}
	if err := s.backend.Close(); err != nil {
		return err
	}
	s.backend = nil
	return nil
}

// serveWithTransport starts the MCP server using the provided transport.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	closeErr := s.Close()
	if closeErr != nil {
		if err == nil {
			return fmt.Errorf("close roller: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close roller: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

func newServer(ctx context.Context, cfg config.Dice, remoteAddr string) (*Server, error) {
	if addr := strings.TrimSpace(remoteAddr); addr != "" {
		conn, err := dialDiceGRPC(ctx, addr)
		if err != nil {
			return nil, err
		}
		server, err := New(roller.NewClient(conn, cfg.Locale), cfg.Locale)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		server.backend = conn
		return server, nil
	}

	local, err := diceapp.OpenLocal(ctx, cfg.Seed, cfg.HistoryDB)
	if err != nil {
		return nil, err
	}
	server, err := New(local, cfg.Locale)
	if err != nil {
		_ = local.Close()
		return nil, err
	}
	server.backend = local
	log.Printf("rolling in process (seed %d)", local.Seed())
	return server, nil
}

func dialDiceGRPC(ctx context.Context, addr string) (*grpc.ClientConn, error) {
	logf := func(format string, args ...any) {
		log.Printf("dice %s", fmt.Sprintf(format, args...))
	}
	conn, err := platformgrpc.DialWithHealth(ctx, addr, roller.ServiceName, timeouts.GRPCDial, logf)
	if err != nil {
		return nil, fmt.Errorf("dice server: %w", err)
	}
	return conn, nil
}
