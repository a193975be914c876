// Package storage defines persistence contracts for roll history.
//
// Implementations live in subpackages; sqlite is the only backend today.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// RollRecord is one persisted expression evaluation.
type RollRecord struct {
	ID int64
	// Expression is the whitespace-free expression that was evaluated.
	Expression string
	// Rendered is the display form, e.g. "2d6[3, 4]+1 (Total: 8)".
	Rendered string
	Total    int
	// Values holds each term's values in expression order.
	Values   [][]int
	RolledAt time.Time
}

// ListRollsRequest selects a page of roll history.
type ListRollsRequest struct {
	// PageSize is the maximum number of rolls to return (default: 50, max: 200).
	PageSize int
	// CursorID and CursorRolledAt name the last roll of the previous page;
	// a zero CursorID starts at the first page.
	CursorID       int64
	CursorRolledAt time.Time
	// Descending orders results newest first.
	Descending bool
	// FilterClause is an optional SQL WHERE clause fragment.
	FilterClause string
	// FilterParams are the positional parameters for FilterClause.
	FilterParams []any
}

// ListRollsResult is one page of roll history.
type ListRollsResult struct {
	Rolls       []RollRecord
	HasNextPage bool
	// TotalCount counts every roll matching the filter, across pages.
	TotalCount int
}

// RollStore persists evaluated rolls.
type RollStore interface {
	// PutRoll stores rec and returns it with ID assigned.
	PutRoll(ctx context.Context, rec RollRecord) (RollRecord, error)
	// GetRoll returns ErrNotFound when id is unknown.
	GetRoll(ctx context.Context, id int64) (RollRecord, error)
	ListRolls(ctx context.Context, req ListRollsRequest) (ListRollsResult, error)
}
