package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/drex/internal/platform/config"
	platformgrpc "github.com/louisbranch/drex/internal/platform/grpc"
	"github.com/louisbranch/drex/internal/platform/grpc/metadata"
	"github.com/louisbranch/drex/internal/services/dice/api/grpc/roller"
	"github.com/louisbranch/drex/internal/services/dice/service"
	"google.golang.org/grpc"
	grpcmetadata "google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

func startServer(t *testing.T, cfg config.Dice) (*Server, *grpc.ClientConn) {
	t.Helper()

	srv, err := NewWithAddr(context.Background(), "127.0.0.1:0", cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(runCtx)
	}()
	t.Cleanup(func() {
		runCancel()
		select {
		case serveErr := <-serveDone:
			if serveErr != nil {
				t.Errorf("serve: %v", serveErr)
			}
		case <-time.After(5 * time.Second):
			t.Error("timeout waiting for server shutdown")
		}
	})

	dialCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := platformgrpc.DialWithHealth(dialCtx, srv.Addr(), roller.ServiceName, 5*time.Second, t.Logf)
	if err != nil {
		t.Fatalf("dial dice server: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return srv, conn
}

func TestServerRollsAndRecordsHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "history.db")
	srv, conn := startServer(t, config.Dice{Seed: 42, HistoryDB: dbPath, Locale: "en-US"})
	if srv.Seed() != 42 {
		t.Fatalf("seed = %d, want 42", srv.Seed())
	}

	client := roller.NewClient(conn, "")
	result, err := client.RollExpression(context.Background(), "2d6+1")
	if err != nil {
		t.Fatalf("RollExpression error = %v", err)
	}
	if result.Total < 3 || result.Total > 13 {
		t.Fatalf("total = %d, want 3..13", result.Total)
	}

	page, err := client.History(context.Background(), service.HistoryQuery{})
	if err != nil {
		t.Fatalf("History error = %v", err)
	}
	if page.TotalCount != 1 || page.Rolls[0].Text != result.Text {
		t.Fatalf("page = %+v, want the roll %q", page, result.Text)
	}
}

func TestServerIsDeterministicForSeed(t *testing.T) {
	roll := func() string {
		_, conn := startServer(t, config.Dice{Seed: 7})
		result, err := roller.NewClient(conn, "").RollExpression(context.Background(), "4d20")
		if err != nil {
			t.Fatalf("RollExpression error = %v", err)
		}
		return result.Text
	}
	if first, second := roll(), roll(); first != second {
		t.Fatalf("rolls differ for the same seed: %q vs %q", first, second)
	}
}

func TestServerDrawsSeedWhenUnset(t *testing.T) {
	srv, _ := startServer(t, config.Dice{})
	if srv.Seed() == 0 {
		t.Fatal("expected a drawn seed")
	}
}

func TestServerSetsRequestIDHeader(t *testing.T) {
	_, conn := startServer(t, config.Dice{Seed: 1})

	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		"expression": structpb.NewStringValue("1d4"),
	}}
	var header grpcmetadata.MD
	if err := conn.Invoke(context.Background(), roller.RollExpressionFullMethod, in, new(structpb.Struct), grpc.Header(&header)); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got := metadata.FirstMetadataValue(header, metadata.RequestIDHeader); got == "" {
		t.Fatalf("expected %s header", metadata.RequestIDHeader)
	}
}

func TestNewWithAddrRejectsBadAddress(t *testing.T) {
	if _, err := NewWithAddr(context.Background(), "not-an-address", config.Dice{}); err == nil {
		t.Fatal("expected listen error")
	}
}
