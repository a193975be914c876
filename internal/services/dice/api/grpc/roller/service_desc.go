// Package roller exposes the dice service over gRPC.
//
// Messages are protobuf well-known types: requests and most responses are
// google.protobuf.Struct, RollRange answers with Int64Value. The service
// descriptor is declared by hand so no generated code is needed.
package roller

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "drex.dice.v1.DiceService"

const (
	RollExpressionFullMethod = "/" + ServiceName + "/RollExpression"
	RollRangeFullMethod      = "/" + ServiceName + "/RollRange"
	RerollFullMethod         = "/" + ServiceName + "/Reroll"
	ListHistoryFullMethod    = "/" + ServiceName + "/ListHistory"
)

// DiceServer is the server API for the dice service.
type DiceServer interface {
	RollExpression(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RollRange(context.Context, *structpb.Struct) (*wrapperspb.Int64Value, error)
	Reroll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes DiceService for grpc.ServiceRegistrar.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "RollExpression",
			Handler:    unaryHandler(RollExpressionFullMethod, DiceServer.RollExpression),
		},
		{
			MethodName: "RollRange",
			Handler:    unaryHandler(RollRangeFullMethod, DiceServer.RollRange),
		},
		{
			MethodName: "Reroll",
			Handler:    unaryHandler(RerollFullMethod, DiceServer.Reroll),
		},
		{
			MethodName: "ListHistory",
			Handler:    unaryHandler(ListHistoryFullMethod, DiceServer.ListHistory),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "drex/dice/v1/dice.proto",
}

// RegisterDiceServer registers srv on r.
func RegisterDiceServer(r grpc.ServiceRegistrar, srv DiceServer) {
	r.RegisterService(&ServiceDesc, srv)
}

func unaryHandler[Resp any](fullMethod string, call func(DiceServer, context.Context, *structpb.Struct) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
