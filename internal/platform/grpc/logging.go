package grpc

import (
	"context"
	"time"

	"github.com/louisbranch/drex/internal/platform/grpc/metadata"
	"go.opentelemetry.io/otel/trace"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor logs one line per unary call with its status code,
// duration, request ID and trace ID.
func LoggingInterceptor(logf func(format string, args ...any)) gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		if logf == nil {
			return handler(ctx, req)
		}
		start := time.Now()
		resp, err := handler(ctx, req)

		code := codes.OK
		if err != nil {
			code = status.Code(err)
		}
		var traceID string
		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
			traceID = sc.TraceID().String()
		}
		logf("grpc %s code=%s duration=%s request_id=%s trace_id=%s",
			info.FullMethod, code, time.Since(start).Round(time.Microsecond),
			metadata.RequestIDFromContext(ctx), traceID)
		return resp, err
	}
}
