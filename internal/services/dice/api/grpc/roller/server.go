package roller

import (
	"context"
	"strings"

	apperrors "github.com/louisbranch/drex/internal/platform/errors"
	"github.com/louisbranch/drex/internal/platform/grpc/metadata"
	"github.com/louisbranch/drex/internal/services/dice/service"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Server implements DiceServer on top of a service.Roller.
type Server struct {
	roller service.Roller
	locale string
}

var _ DiceServer = (*Server)(nil)

// NewServer returns a Server. locale is used for error messages when the
// caller sends no LocaleHeader.
func NewServer(roller service.Roller, locale string) *Server {
	if strings.TrimSpace(locale) == "" {
		locale = apperrors.DefaultLocale
	}
	return &Server{roller: roller, locale: locale}
}

// RollExpression evaluates {expression}.
func (s *Server) RollExpression(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	result, err := s.roller.RollExpression(ctx, stringField(in, "expression"))
	if err != nil {
		return nil, s.handleError(ctx, err)
	}
	return rollToValue(result).GetStructValue(), nil
}

// RollRange draws from {min, max}.
func (s *Server) RollRange(ctx context.Context, in *structpb.Struct) (*wrapperspb.Int64Value, error) {
	min, err := requiredInt(in, "min")
	if err != nil {
		return nil, err
	}
	max, err := requiredInt(in, "max")
	if err != nil {
		return nil, err
	}
	value, err := s.roller.RollRange(ctx, min, max)
	if err != nil {
		return nil, s.handleError(ctx, err)
	}
	return wrapperspb.Int64(int64(value)), nil
}

// Reroll evaluates {expression} {count} times.
func (s *Server) Reroll(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	count, err := requiredInt(in, "count")
	if err != nil {
		return nil, err
	}
	rolls, err := s.roller.Reroll(ctx, stringField(in, "expression"), count)
	if err != nil {
		return nil, s.handleError(ctx, err)
	}
	return rollsToStruct(rolls), nil
}

// ListHistory pages through recorded rolls using {filter, page_size,
// page_token, order_by}.
func (s *Server) ListHistory(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	pageSize, err := intField(in, "page_size")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	page, err := s.roller.History(ctx, service.HistoryQuery{
		Filter:    stringField(in, "filter"),
		PageSize:  pageSize,
		PageToken: stringField(in, "page_token"),
		OrderBy:   stringField(in, "order_by"),
	})
	if err != nil {
		return nil, s.handleError(ctx, err)
	}
	return historyToStruct(page), nil
}

func (s *Server) handleError(ctx context.Context, err error) error {
	locale := metadata.LocaleFromContext(ctx)
	if locale == "" {
		locale = s.locale
	}
	return apperrors.HandleError(err, locale)
}
