package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/louisbranch/drex/internal/core/dice"
	apperrors "github.com/louisbranch/drex/internal/platform/errors"
	"github.com/louisbranch/drex/internal/platform/grpc/pagination"
	"github.com/louisbranch/drex/internal/services/dice/filter"
	"github.com/louisbranch/drex/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/drex/internal/services/dice/service"

var (
	historyPageSize = pagination.PageSizeConfig{Default: 50, Max: 200}
	historyOrderBy  = pagination.OrderByConfig{
		Default: "rolled_at desc",
		Allowed: []string{"rolled_at desc", "rolled_at"},
	}
)

// Service evaluates dice against a single source.
type Service struct {
	source  dice.Source
	history storage.RollStore
	tracer  trace.Tracer
}

var _ Roller = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithHistory records every successful roll to store.
func WithHistory(store storage.RollStore) Option {
	return func(s *Service) {
		s.history = store
	}
}

// WithTracer replaces the global OTel tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New returns a Service drawing from src.
func New(src dice.Source, opts ...Option) (*Service, error) {
	if src == nil {
		return nil, fmt.Errorf("dice source is required")
	}
	s := &Service{source: src}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s, nil
}

// RollExpression evaluates expression once.
func (s *Service) RollExpression(ctx context.Context, expression string) (RollResult, error) {
	ctx, span := s.tracer.Start(ctx, "dice.RollExpression",
		trace.WithAttributes(attribute.String("dice.expression", expression)))
	defer span.End()

	roll, err := dice.RollExpression(s.source, expression)
	if err != nil {
		err = diceError(err, expression)
		recordError(span, err)
		return RollResult{}, err
	}
	result := NewRollResult(roll)
	span.SetAttributes(attribute.Int("dice.total", result.Total))
	s.record(ctx, result)
	return result, nil
}

// RollRange draws one integer in [min, max].
func (s *Service) RollRange(ctx context.Context, min, max int) (int, error) {
	_, span := s.tracer.Start(ctx, "dice.RollRange",
		trace.WithAttributes(attribute.Int("dice.min", min), attribute.Int("dice.max", max)))
	defer span.End()

	value, err := dice.RollRange(s.source, min, max)
	if err != nil {
		err = rangeError(err, min, max)
		recordError(span, err)
		return 0, err
	}
	span.SetAttributes(attribute.Int("dice.total", value))
	return value, nil
}

// Reroll evaluates expression count times. The first result is the initial
// evaluation; the rest come from its reroll sequence.
func (s *Service) Reroll(ctx context.Context, expression string, count int) ([]RollResult, error) {
	ctx, span := s.tracer.Start(ctx, "dice.Reroll", trace.WithAttributes(
		attribute.String("dice.expression", expression),
		attribute.Int("dice.count", count),
	))
	defer span.End()

	if count < 1 || count > MaxRerollCount {
		err := countError(count)
		recordError(span, err)
		return nil, err
	}

	roll, err := dice.RollExpression(s.source, expression)
	if err != nil {
		err = diceError(err, expression)
		recordError(span, err)
		return nil, err
	}

	results := make([]RollResult, 0, count)
	results = append(results, NewRollResult(roll))
	if count > 1 {
		for next := range roll.Rerolls() {
			results = append(results, NewRollResult(next))
			if len(results) == count {
				break
			}
		}
	}
	for _, result := range results {
		s.record(ctx, result)
	}
	return results, nil
}

// History lists recorded rolls. It fails with HISTORY_UNAVAILABLE when no
// store is configured.
func (s *Service) History(ctx context.Context, query HistoryQuery) (HistoryPage, error) {
	ctx, span := s.tracer.Start(ctx, "dice.History",
		trace.WithAttributes(attribute.String("history.filter", query.Filter)))
	defer span.End()

	if s.history == nil {
		err := apperrors.New(apperrors.CodeHistoryUnavailable, "roll history is not configured")
		recordError(span, err)
		return HistoryPage{}, err
	}

	req, err := historyRequest(query)
	if err != nil {
		recordError(span, err)
		return HistoryPage{}, err
	}

	res, err := s.history.ListRolls(ctx, req)
	if err != nil {
		err = fmt.Errorf("list rolls: %w", err)
		recordError(span, err)
		return HistoryPage{}, err
	}

	page := HistoryPage{
		Rolls:      make([]HistoryEntry, len(res.Rolls)),
		TotalCount: res.TotalCount,
	}
	for i, rec := range res.Rolls {
		page.Rolls[i] = HistoryEntry{
			ID:         rec.ID,
			Expression: rec.Expression,
			Text:       rec.Rendered,
			Total:      rec.Total,
			Values:     rec.Values,
			RolledAt:   rec.RolledAt,
		}
	}
	if res.HasNextPage && len(res.Rolls) > 0 {
		orderBy, _ := pagination.NormalizeOrderBy(query.OrderBy, historyOrderBy)
		last := res.Rolls[len(res.Rolls)-1]
		next := pagination.NextPageCursor(last.RolledAt.UnixMilli(), last.ID, req.Descending, query.Filter, orderBy)
		token, err := pagination.EncodeCursor(next)
		if err != nil {
			return HistoryPage{}, fmt.Errorf("encode page token: %w", err)
		}
		page.NextPageToken = token
	}
	span.SetAttributes(attribute.Int("history.count", len(page.Rolls)))
	return page, nil
}

func historyRequest(query HistoryQuery) (storage.ListRollsRequest, error) {
	orderBy, err := pagination.NormalizeOrderBy(query.OrderBy, historyOrderBy)
	if err != nil {
		return storage.ListRollsRequest{}, filterError(err)
	}
	cond, err := filter.ParseRollFilter(query.Filter)
	if err != nil {
		return storage.ListRollsRequest{}, filterError(err)
	}

	req := storage.ListRollsRequest{
		PageSize:     pagination.ClampPageSize(query.PageSize, historyPageSize),
		Descending:   orderBy == "rolled_at desc",
		FilterClause: cond.Clause,
		FilterParams: cond.Params,
	}
	if query.PageToken != "" {
		cursor, err := pagination.DecodeCursor(query.PageToken)
		if err != nil {
			return storage.ListRollsRequest{}, filterError(fmt.Errorf("page token: %w", err))
		}
		if err := pagination.ValidateCursor(cursor, query.Filter, orderBy); err != nil {
			return storage.ListRollsRequest{}, filterError(err)
		}
		// Direction comes from the token; its order hash matches orderBy.
		req.Descending = cursor.Descending()
		req.CursorID = cursor.ID
		req.CursorRolledAt = time.UnixMilli(cursor.At).UTC()
	}
	return req, nil
}

// record stores result when history is enabled. Failures are logged so a
// broken store never fails a roll.
func (s *Service) record(ctx context.Context, result RollResult) {
	if s.history == nil {
		return
	}
	_, err := s.history.PutRoll(ctx, storage.RollRecord{
		Expression: result.Expression,
		Rendered:   result.Text,
		Total:      result.Total,
		Values:     result.Values(),
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("record roll %q: %v", result.Expression, err)
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, string(apperrors.GetCode(err)))
}
