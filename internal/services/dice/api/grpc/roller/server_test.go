package roller

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"

	"github.com/louisbranch/drex/internal/core/dice"
	apperrors "github.com/louisbranch/drex/internal/platform/errors"
	"github.com/louisbranch/drex/internal/services/dice/service"
	"github.com/louisbranch/drex/internal/storage/sqlite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var maxSource = dice.SourceFunc(func(_, high int) int { return high })

func TestClientRollExpressionRoundTrip(t *testing.T) {
	conn := startServer(t, newService(t))
	client := NewClient(conn, "")

	result, err := client.RollExpression(context.Background(), "3d1 - 2d1 - 4")
	if err != nil {
		t.Fatalf("RollExpression error = %v", err)
	}
	if result.Total != -3 || result.Expression != "3d1-2d1-4" {
		t.Fatalf("result = %+v", result)
	}
	if result.Text != "3d1[1, 1, 1]-2d1[1, 1]-4 (Total: -3)" {
		t.Fatalf("text = %q", result.Text)
	}
	if len(result.Terms) != 3 || result.Terms[1].Term != "-2d1" || result.Terms[1].Total != -2 {
		t.Fatalf("terms = %+v", result.Terms)
	}
	if got := result.Terms[0].Values; len(got) != 3 || got[0] != 1 {
		t.Fatalf("first term values = %v", got)
	}
}

func TestClientRollRange(t *testing.T) {
	conn := startServer(t, newService(t))
	client := NewClient(conn, "")

	value, err := client.RollRange(context.Background(), -5, 5)
	if err != nil {
		t.Fatalf("RollRange error = %v", err)
	}
	if value != 5 {
		t.Fatalf("RollRange = %d, want 5", value)
	}
}

func TestClientErrorsCarryCodeAndLocale(t *testing.T) {
	conn := startServer(t, newService(t))

	_, err := NewClient(conn, "").RollRange(context.Background(), 12, 1)
	if !apperrors.IsCode(err, apperrors.CodeDiceInvalidRange) {
		t.Fatalf("code = %s, want %s", apperrors.GetCode(err), apperrors.CodeDiceInvalidRange)
	}
	if err.Error() != "Range minimum 12 is greater than maximum 1" {
		t.Fatalf("message = %q", err.Error())
	}

	_, err = NewClient(conn, "pt-BR").RollExpression(context.Background(), "CHICKEN")
	if !apperrors.IsCode(err, apperrors.CodeDiceNoTermsFound) {
		t.Fatalf("code = %s, want %s", apperrors.GetCode(err), apperrors.CodeDiceNoTermsFound)
	}
	if err.Error() != "Nenhum termo de rolagem encontrado em CHICKEN" {
		t.Fatalf("message = %q", err.Error())
	}
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || status.Code(appErr.Cause) != codes.InvalidArgument {
		t.Fatalf("status = %v", err)
	}
}

func TestClientReroll(t *testing.T) {
	conn := startServer(t, newService(t))
	client := NewClient(conn, "")

	rolls, err := client.Reroll(context.Background(), "2d6", 4)
	if err != nil {
		t.Fatalf("Reroll error = %v", err)
	}
	if len(rolls) != 4 {
		t.Fatalf("got %d rolls, want 4", len(rolls))
	}
	for _, roll := range rolls {
		if roll.Total != 12 {
			t.Fatalf("roll = %+v", roll)
		}
	}

	if _, err := client.Reroll(context.Background(), "2d6", 0); !apperrors.IsCode(err, apperrors.CodeDiceInvalidCount) {
		t.Fatalf("code = %s, want %s", apperrors.GetCode(err), apperrors.CodeDiceInvalidCount)
	}
}

func TestClientHistory(t *testing.T) {
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	conn := startServer(t, newService(t, service.WithHistory(store)))
	client := NewClient(conn, "")

	for _, expression := range []string{"1d4", "1d6", "1d8"} {
		if _, err := client.RollExpression(context.Background(), expression); err != nil {
			t.Fatalf("RollExpression(%q) error = %v", expression, err)
		}
	}

	page, err := client.History(context.Background(), service.HistoryQuery{Filter: "total >= 6", PageSize: 1})
	if err != nil {
		t.Fatalf("History error = %v", err)
	}
	if page.TotalCount != 2 || len(page.Rolls) != 1 || page.NextPageToken == "" {
		t.Fatalf("page = %+v", page)
	}
	entry := page.Rolls[0]
	if entry.Expression != "1d8" || entry.Total != 8 || len(entry.Values) != 1 || entry.Values[0][0] != 8 {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.RolledAt.IsZero() {
		t.Fatal("expected rolled_at")
	}

	next, err := client.History(context.Background(), service.HistoryQuery{Filter: "total >= 6", PageSize: 1, PageToken: page.NextPageToken})
	if err != nil {
		t.Fatalf("History next page error = %v", err)
	}
	if len(next.Rolls) != 1 || next.Rolls[0].Expression != "1d6" || next.NextPageToken != "" {
		t.Fatalf("next page = %+v", next)
	}

	if _, err := client.History(context.Background(), service.HistoryQuery{Filter: "sides = 4"}); !apperrors.IsCode(err, apperrors.CodeHistoryInvalidFilter) {
		t.Fatalf("code = %s, want %s", apperrors.GetCode(err), apperrors.CodeHistoryInvalidFilter)
	}
}

func TestHistoryUnavailableMapsToFailedPrecondition(t *testing.T) {
	conn := startServer(t, newService(t))

	err := conn.Invoke(context.Background(), ListHistoryFullMethod, &structpb.Struct{}, new(structpb.Struct))
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("status = %v, want FailedPrecondition", err)
	}
}

func TestRollRangeRequiresBounds(t *testing.T) {
	conn := startServer(t, newService(t))

	in := &structpb.Struct{Fields: map[string]*structpb.Value{"min": structpb.NewNumberValue(1)}}
	err := conn.Invoke(context.Background(), RollRangeFullMethod, in, new(wrapperspb.Int64Value))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("status = %v, want InvalidArgument", err)
	}

	in.Fields["max"] = structpb.NewNumberValue(2.5)
	err = conn.Invoke(context.Background(), RollRangeFullMethod, in, new(wrapperspb.Int64Value))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("status = %v, want InvalidArgument", err)
	}
}

func newService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	svc, err := service.New(maxSource, opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func startServer(t *testing.T, roller service.Roller) *grpc.ClientConn {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := grpc.NewServer()
	RegisterDiceServer(server, NewServer(roller, "en-US"))
	go func() {
		_ = server.Serve(listener)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient(listener.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
