// Package service orchestrates dice evaluation for the transports.
//
// Service runs expressions against an injected source, records successful
// rolls to an optional history store, and converts core failures into
// platform errors that carry i18n metadata. The gRPC client implements the
// same Roller contract so transports can run in-process or remote.
package service

import (
	"context"
	"time"

	"github.com/louisbranch/drex/internal/core/dice"
)

// MaxRerollCount bounds a single Reroll request.
const MaxRerollCount = 100

// Roller is the dice surface shared by the local service and remote clients.
type Roller interface {
	RollExpression(ctx context.Context, expression string) (RollResult, error)
	RollRange(ctx context.Context, min, max int) (int, error)
	// Reroll evaluates expression count times, each with fresh draws.
	Reroll(ctx context.Context, expression string, count int) ([]RollResult, error)
	History(ctx context.Context, query HistoryQuery) (HistoryPage, error)
}

// RollResult is a transport-neutral copy of a dice.Roll.
type RollResult struct {
	Expression string
	Total      int
	// Text is the rendered form, e.g. "3d6[4, 1, 6]+2 (Total: 13)".
	Text  string
	Terms []TermResult
}

// TermResult describes one evaluated term.
type TermResult struct {
	// Term is the term as written, "3d6" or "+2".
	Term   string
	Values []int
	Total  int
}

// Values returns each term's values in expression order.
func (r RollResult) Values() [][]int {
	values := make([][]int, len(r.Terms))
	for i, term := range r.Terms {
		values[i] = append([]int(nil), term.Values...)
	}
	return values
}

// NewRollResult converts an evaluated roll.
func NewRollResult(roll dice.Roll) RollResult {
	terms := roll.Terms()
	out := RollResult{
		Expression: roll.Expression(),
		Total:      roll.Total(),
		Text:       roll.String(),
		Terms:      make([]TermResult, len(terms)),
	}
	for i, term := range terms {
		out.Terms[i] = TermResult{
			Term:   term.Term.String(),
			Values: term.Values,
			Total:  term.Total(),
		}
	}
	return out
}

// HistoryQuery selects a page of recorded rolls.
type HistoryQuery struct {
	// Filter is an AIP-160 expression over expression, total and rolled_at.
	Filter string
	// PageSize defaults to 50 and is capped at 200.
	PageSize  int
	PageToken string
	// OrderBy is "rolled_at desc" (default) or "rolled_at".
	OrderBy string
}

// HistoryEntry is one recorded roll.
type HistoryEntry struct {
	ID         int64
	Expression string
	Text       string
	Total      int
	Values     [][]int
	RolledAt   time.Time
}

// HistoryPage is one page of recorded rolls.
type HistoryPage struct {
	Rolls         []HistoryEntry
	NextPageToken string
	TotalCount    int
}
