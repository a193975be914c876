package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/drex/internal/core/dice"
	apperrors "github.com/louisbranch/drex/internal/platform/errors"
	"github.com/louisbranch/drex/internal/random"
	"github.com/louisbranch/drex/internal/storage"
	"github.com/louisbranch/drex/internal/storage/sqlite"
	otelcodes "go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var maxSource = dice.SourceFunc(func(_, high int) int { return high })

type failingStore struct {
	puts int
}

func (f *failingStore) PutRoll(context.Context, storage.RollRecord) (storage.RollRecord, error) {
	f.puts++
	return storage.RollRecord{}, errors.New("disk full")
}

func (f *failingStore) GetRoll(context.Context, int64) (storage.RollRecord, error) {
	return storage.RollRecord{}, storage.ErrNotFound
}

func (f *failingStore) ListRolls(context.Context, storage.ListRollsRequest) (storage.ListRollsResult, error) {
	return storage.ListRollsResult{}, errors.New("disk full")
}

func TestNewRequiresSource(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected source required error")
	}
}

func TestRollExpression(t *testing.T) {
	svc := newService(t, maxSource)

	result, err := svc.RollExpression(context.Background(), "3d6 + 2")
	if err != nil {
		t.Fatalf("RollExpression error = %v", err)
	}
	if result.Expression != "3d6+2" || result.Total != 20 {
		t.Fatalf("result = %+v", result)
	}
	if result.Text != "3d6[6, 6, 6]+2 (Total: 20)" {
		t.Fatalf("text = %q", result.Text)
	}
	if len(result.Terms) != 2 || result.Terms[0].Term != "3d6" || result.Terms[1].Term != "+2" {
		t.Fatalf("terms = %+v", result.Terms)
	}
}

func TestRollExpressionConvertsErrors(t *testing.T) {
	svc := newService(t, maxSource)

	tcs := []struct {
		expression string
		code       apperrors.Code
		metaKey    string
		metaValue  string
		sentinel   error
	}{
		{expression: "CHICKEN", code: apperrors.CodeDiceNoTermsFound, metaKey: "Expression", metaValue: "CHICKEN", sentinel: dice.ErrNoTermsFound},
		{expression: "2d6+300d6", code: apperrors.CodeDiceMalformedTerm, metaKey: "Term", metaValue: "+300d6", sentinel: dice.ErrMalformedTerm},
	}

	for _, tc := range tcs {
		t.Run(tc.expression, func(t *testing.T) {
			_, err := svc.RollExpression(context.Background(), tc.expression)
			if !apperrors.IsCode(err, tc.code) {
				t.Fatalf("code = %s, want %s", apperrors.GetCode(err), tc.code)
			}
			if !errors.Is(err, tc.sentinel) {
				t.Fatalf("error %v does not wrap %v", err, tc.sentinel)
			}
			var appErr *apperrors.Error
			if !errors.As(err, &appErr) || appErr.Metadata[tc.metaKey] != tc.metaValue {
				t.Fatalf("metadata = %v, want %s=%s", appErr.Metadata, tc.metaKey, tc.metaValue)
			}
		})
	}
}

func TestRollRange(t *testing.T) {
	svc := newService(t, random.NewSource(5))

	for i := 0; i < 50; i++ {
		value, err := svc.RollRange(context.Background(), 1, 20)
		if err != nil {
			t.Fatalf("RollRange error = %v", err)
		}
		if value < 1 || value > 20 {
			t.Fatalf("RollRange = %d", value)
		}
	}

	_, err := svc.RollRange(context.Background(), 12, 1)
	if !apperrors.IsCode(err, apperrors.CodeDiceInvalidRange) {
		t.Fatalf("code = %s, want %s", apperrors.GetCode(err), apperrors.CodeDiceInvalidRange)
	}
	if got := apperrors.Localize(err, "en-US"); got != "Range minimum 12 is greater than maximum 1" {
		t.Fatalf("localized = %q", got)
	}
}

func TestRerollReturnsCountResults(t *testing.T) {
	svc := newService(t, random.NewSource(11))

	results, err := svc.Reroll(context.Background(), "3d6", 6)
	if err != nil {
		t.Fatalf("Reroll error = %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("got %d results, want 6", len(results))
	}
	for i, result := range results {
		if result.Total < 3 || result.Total > 18 {
			t.Fatalf("roll %d total %d out of range", i, result.Total)
		}
	}
}

func TestRerollRejectsCount(t *testing.T) {
	svc := newService(t, maxSource)
	for _, count := range []int{0, -1, MaxRerollCount + 1} {
		_, err := svc.Reroll(context.Background(), "1d6", count)
		if !apperrors.IsCode(err, apperrors.CodeDiceInvalidCount) {
			t.Fatalf("count %d: code = %s", count, apperrors.GetCode(err))
		}
	}
	if _, err := svc.Reroll(context.Background(), "", 3); !apperrors.IsCode(err, apperrors.CodeDiceNoTermsFound) {
		t.Fatalf("empty expression code = %s", apperrors.GetCode(err))
	}
}

func TestHistoryUnavailableWithoutStore(t *testing.T) {
	svc := newService(t, maxSource)
	_, err := svc.History(context.Background(), HistoryQuery{})
	if !apperrors.IsCode(err, apperrors.CodeHistoryUnavailable) {
		t.Fatalf("code = %s, want %s", apperrors.GetCode(err), apperrors.CodeHistoryUnavailable)
	}
}

func TestHistoryRecordsAndPages(t *testing.T) {
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	svc := newService(t, maxSource, WithHistory(store))
	if _, err := svc.Reroll(context.Background(), "1d4", 3); err != nil {
		t.Fatalf("Reroll error = %v", err)
	}
	if _, err := svc.RollExpression(context.Background(), "2d10"); err != nil {
		t.Fatalf("RollExpression error = %v", err)
	}
	if _, err := svc.RollExpression(context.Background(), "nothing"); err == nil {
		t.Fatal("expected failure")
	}

	first, err := svc.History(context.Background(), HistoryQuery{PageSize: 2})
	if err != nil {
		t.Fatalf("History error = %v", err)
	}
	if first.TotalCount != 4 || len(first.Rolls) != 2 || first.NextPageToken == "" {
		t.Fatalf("first page = %+v", first)
	}
	if first.Rolls[0].Expression != "2d10" || first.Rolls[0].Total != 20 {
		t.Fatalf("newest roll = %+v", first.Rolls[0])
	}

	second, err := svc.History(context.Background(), HistoryQuery{PageSize: 2, PageToken: first.NextPageToken})
	if err != nil {
		t.Fatalf("History second page error = %v", err)
	}
	if len(second.Rolls) != 2 || second.NextPageToken != "" {
		t.Fatalf("second page = %+v", second)
	}

	filtered, err := svc.History(context.Background(), HistoryQuery{Filter: `expression = "1d4"`, OrderBy: "rolled_at"})
	if err != nil {
		t.Fatalf("History filtered error = %v", err)
	}
	if filtered.TotalCount != 3 || filtered.Rolls[0].Text != "1d4[4] (Total: 4)" {
		t.Fatalf("filtered page = %+v", filtered)
	}
}

func TestHistoryPagesInRolledAtOrder(t *testing.T) {
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	base := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	for i, offset := range []time.Duration{time.Hour, 0, 2 * time.Hour} {
		if _, err := store.PutRoll(context.Background(), storage.RollRecord{
			Expression: "1d8",
			Rendered:   "1d8",
			Total:      i + 1,
			RolledAt:   base.Add(offset),
		}); err != nil {
			t.Fatalf("put roll: %v", err)
		}
	}

	svc := newService(t, maxSource, WithHistory(store))
	tcs := []struct {
		orderBy string
		want    []int
	}{
		{orderBy: "", want: []int{3, 1, 2}},
		{orderBy: "rolled_at desc", want: []int{3, 1, 2}},
		{orderBy: "rolled_at", want: []int{2, 1, 3}},
	}
	for _, tc := range tcs {
		t.Run(tc.orderBy, func(t *testing.T) {
			var got []int
			query := HistoryQuery{PageSize: 1, OrderBy: tc.orderBy}
			for {
				page, err := svc.History(context.Background(), query)
				if err != nil {
					t.Fatalf("History error = %v", err)
				}
				for _, entry := range page.Rolls {
					got = append(got, entry.Total)
				}
				if page.NextPageToken == "" {
					break
				}
				query.PageToken = page.NextPageToken
			}
			if len(got) != len(tc.want) {
				t.Fatalf("totals = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("totals = %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestHistoryRejectsBadQueries(t *testing.T) {
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	svc := newService(t, maxSource, WithHistory(store))

	queries := []HistoryQuery{
		{Filter: "sides = 6"},
		{OrderBy: "total"},
		{PageToken: "garbage"},
	}
	for _, query := range queries {
		_, err := svc.History(context.Background(), query)
		if !apperrors.IsCode(err, apperrors.CodeHistoryInvalidFilter) {
			t.Fatalf("query %+v: code = %s", query, apperrors.GetCode(err))
		}
	}
}

func TestHistoryFailureDoesNotFailRoll(t *testing.T) {
	store := &failingStore{}
	svc := newService(t, maxSource, WithHistory(store))

	if _, err := svc.RollExpression(context.Background(), "1d6"); err != nil {
		t.Fatalf("RollExpression error = %v", err)
	}
	if store.puts != 1 {
		t.Fatalf("puts = %d, want 1", store.puts)
	}
	if _, err := svc.History(context.Background(), HistoryQuery{}); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("History error = %v", err)
	}
}

func TestSpansRecordOutcome(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	svc := newService(t, maxSource, WithTracer(provider.Tracer("test")))

	if _, err := svc.RollExpression(context.Background(), "1d6"); err != nil {
		t.Fatalf("RollExpression error = %v", err)
	}
	if _, err := svc.RollRange(context.Background(), 5, 1); err == nil {
		t.Fatal("expected range error")
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].Name() != "dice.RollExpression" || spans[0].Status().Code == otelcodes.Error {
		t.Fatalf("first span = %s %v", spans[0].Name(), spans[0].Status())
	}
	if spans[1].Name() != "dice.RollRange" || spans[1].Status().Code != otelcodes.Error {
		t.Fatalf("second span = %s %v", spans[1].Name(), spans[1].Status())
	}
	if spans[1].Status().Description != string(apperrors.CodeDiceInvalidRange) {
		t.Fatalf("status description = %q", spans[1].Status().Description)
	}
}

func newService(t *testing.T, src dice.Source, opts ...Option) *Service {
	t.Helper()
	svc, err := New(src, opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}
