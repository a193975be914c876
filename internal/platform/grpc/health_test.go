package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const testService = "drex.dice.v1.DiceService"

// healthFixture serves only the health service on a loopback port.
type healthFixture struct {
	server *Server
	conn   *gogrpc.ClientConn
}

func newHealthFixture(t *testing.T) *healthFixture {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := NewServer()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, lis, time.Second)
	}()

	conn, err := gogrpc.NewClient(lis.Addr().String(), gogrpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		cancel()
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("health server did not stop")
		}
	})
	return &healthFixture{server: srv, conn: conn}
}

func (f *healthFixture) wait(service string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return WaitForHealth(ctx, f.conn, service, nil)
}

func TestWaitForHealthServing(t *testing.T) {
	f := newHealthFixture(t)
	f.server.SetServing(testService)

	if err := f.wait("", 2*time.Second); err != nil {
		t.Fatalf("overall health: %v", err)
	}
	if err := f.wait(testService, 2*time.Second); err != nil {
		t.Fatalf("service health: %v", err)
	}
}

func TestWaitForHealthWaitsForServing(t *testing.T) {
	f := newHealthFixture(t)

	go func() {
		time.Sleep(200 * time.Millisecond)
		f.server.SetServing(testService)
	}()

	if err := f.wait(testService, 2*time.Second); err != nil {
		t.Fatalf("wait after SetServing: %v", err)
	}
}

func TestWaitForHealthUnknownServiceTimesOut(t *testing.T) {
	f := newHealthFixture(t)
	f.server.SetServing(testService)

	if err := f.wait("drex.other.v1.Nope", 300*time.Millisecond); err == nil {
		t.Fatal("expected unknown service to time out")
	}
}

func TestWaitForHealthLogsAttempts(t *testing.T) {
	f := newHealthFixture(t)
	f.server.health.SetServingStatus(testService, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	var logged int
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err := WaitForHealth(ctx, f.conn, testService, func(string, ...any) { logged++ })
	if err == nil {
		t.Fatal("expected NOT_SERVING to time out")
	}
	if logged == 0 {
		t.Fatal("expected health attempts to be logged")
	}
}
