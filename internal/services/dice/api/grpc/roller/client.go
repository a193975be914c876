package roller

import (
	"context"
	"fmt"

	apperrors "github.com/louisbranch/drex/internal/platform/errors"
	"github.com/louisbranch/drex/internal/platform/grpc/metadata"
	"github.com/louisbranch/drex/internal/platform/timeouts"
	"github.com/louisbranch/drex/internal/services/dice/service"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls a remote DiceService. It satisfies service.Roller, and
// returned errors are platform errors rebuilt from the gRPC status.
type Client struct {
	conn   grpc.ClientConnInterface
	locale string
}

var _ service.Roller = (*Client)(nil)

// NewClient wraps conn. A non-empty locale is sent on every call.
func NewClient(conn grpc.ClientConnInterface, locale string) *Client {
	return &Client{conn: conn, locale: locale}
}

// RollExpression implements service.Roller.
func (c *Client) RollExpression(ctx context.Context, expression string) (service.RollResult, error) {
	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		"expression": structpb.NewStringValue(expression),
	}}
	out := new(structpb.Struct)
	if err := c.invoke(ctx, RollExpressionFullMethod, in, out); err != nil {
		return service.RollResult{}, err
	}
	result, err := rollFromValue(structpb.NewStructValue(out))
	if err != nil {
		return service.RollResult{}, fmt.Errorf("decode roll: %w", err)
	}
	return result, nil
}

// RollRange implements service.Roller.
func (c *Client) RollRange(ctx context.Context, min, max int) (int, error) {
	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		"min": structpb.NewNumberValue(float64(min)),
		"max": structpb.NewNumberValue(float64(max)),
	}}
	out := new(wrapperspb.Int64Value)
	if err := c.invoke(ctx, RollRangeFullMethod, in, out); err != nil {
		return 0, err
	}
	return int(out.GetValue()), nil
}

// Reroll implements service.Roller.
func (c *Client) Reroll(ctx context.Context, expression string, count int) ([]service.RollResult, error) {
	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		"expression": structpb.NewStringValue(expression),
		"count":      structpb.NewNumberValue(float64(count)),
	}}
	out := new(structpb.Struct)
	if err := c.invoke(ctx, RerollFullMethod, in, out); err != nil {
		return nil, err
	}
	rolls, err := rollsFromStruct(out)
	if err != nil {
		return nil, fmt.Errorf("decode rolls: %w", err)
	}
	return rolls, nil
}

// History implements service.Roller.
func (c *Client) History(ctx context.Context, query service.HistoryQuery) (service.HistoryPage, error) {
	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		"filter":     structpb.NewStringValue(query.Filter),
		"page_size":  structpb.NewNumberValue(float64(query.PageSize)),
		"page_token": structpb.NewStringValue(query.PageToken),
		"order_by":   structpb.NewStringValue(query.OrderBy),
	}}
	out := new(structpb.Struct)
	if err := c.invoke(ctx, ListHistoryFullMethod, in, out); err != nil {
		return service.HistoryPage{}, err
	}
	page, err := historyFromStruct(out)
	if err != nil {
		return service.HistoryPage{}, fmt.Errorf("decode history: %w", err)
	}
	return page, nil
}

// invoke bounds each call by timeouts.GRPCRequest unless ctx ends sooner.
func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
	defer cancel()
	ctx = metadata.WithOutgoingLocale(ctx, c.locale)
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return apperrors.FromGRPCStatus(err)
	}
	return nil
}
