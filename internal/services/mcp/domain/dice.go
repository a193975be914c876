package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/drex/internal/platform/errors"
	diceservice "github.com/louisbranch/drex/internal/services/dice/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// rollerCallTimeout caps the time for a single roller call from a tool handler.
const rollerCallTimeout = 5 * time.Second

// RollDiceInput represents the MCP tool input for rolling an expression.
type RollDiceInput struct {
	Expression string `json:"expression" jsonschema:"dice expression such as 3d6+2 or 2d8-1d4"`
}

// RollTerm represents the values rolled for a single term.
type RollTerm struct {
	Term   string `json:"term" jsonschema:"signed term as written, for example -2d6"`
	Values []int  `json:"values" jsonschema:"individual die results, or the modifier"`
	Total  int    `json:"total" jsonschema:"signed contribution of the term"`
}

// RollDiceResult represents the MCP tool output for an evaluated expression.
type RollDiceResult struct {
	Expression string     `json:"expression" jsonschema:"normalized expression"`
	Text       string     `json:"text" jsonschema:"rendered roll, for example 3d6[2, 5, 1]+2 (Total: 10)"`
	Total      int        `json:"total" jsonschema:"sum of all terms"`
	Terms      []RollTerm `json:"terms" jsonschema:"per term results"`
}

// RollRangeInput represents the MCP tool input for a uniform range roll.
type RollRangeInput struct {
	Min int `json:"min" jsonschema:"inclusive lower bound"`
	Max int `json:"max" jsonschema:"inclusive upper bound"`
}

// RollRangeResult represents the MCP tool output for a range roll.
type RollRangeResult struct {
	Min   int `json:"min" jsonschema:"inclusive lower bound"`
	Max   int `json:"max" jsonschema:"inclusive upper bound"`
	Value int `json:"value" jsonschema:"value drawn from the range"`
}

// RerollInput represents the MCP tool input for repeated rolls.
type RerollInput struct {
	Expression string `json:"expression" jsonschema:"dice expression to roll repeatedly"`
	Count      int    `json:"count" jsonschema:"number of rolls, between 1 and 100"`
}

// RerollResult represents the MCP tool output for repeated rolls.
type RerollResult struct {
	Rolls []RollDiceResult `json:"rolls" jsonschema:"rolls in the order they were made"`
}

// RollHistoryInput represents the MCP tool input for listing recorded rolls.
type RollHistoryInput struct {
	Filter    string `json:"filter,omitempty" jsonschema:"AIP-160 filter over expression, total and rolled_at"`
	PageSize  int    `json:"page_size,omitempty" jsonschema:"maximum number of rolls to return"`
	PageToken string `json:"page_token,omitempty" jsonschema:"token from a previous page"`
	OrderBy   string `json:"order_by,omitempty" jsonschema:"rolled_at desc (default) or rolled_at"`
}

// RollHistoryEntry represents one recorded roll.
type RollHistoryEntry struct {
	ID         int64   `json:"id" jsonschema:"history identifier"`
	Expression string  `json:"expression" jsonschema:"normalized expression"`
	Text       string  `json:"text" jsonschema:"rendered roll"`
	Total      int     `json:"total" jsonschema:"sum of all terms"`
	Values     [][]int `json:"values" jsonschema:"values per term"`
	RolledAt   string  `json:"rolled_at" jsonschema:"RFC3339 timestamp of the roll"`
}

// RollHistoryResult represents the MCP tool output for a history page.
type RollHistoryResult struct {
	Rolls         []RollHistoryEntry `json:"rolls" jsonschema:"recorded rolls"`
	NextPageToken string             `json:"next_page_token,omitempty" jsonschema:"token for the next page"`
	TotalCount    int                `json:"total_count" jsonschema:"rolls matching the filter"`
}

// RollDiceTool defines the MCP tool schema for expression rolls.
func RollDiceTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "roll_dice",
		Description: "Rolls a dice expression made of NdS dice terms and integer modifiers joined by + or -",
	}
}

// RollRangeTool defines the MCP tool schema for range rolls.
func RollRangeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "roll_range",
		Description: "Draws a uniform integer between min and max, inclusive",
	}
}

// RerollTool defines the MCP tool schema for repeated rolls.
func RerollTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "reroll_dice",
		Description: "Rolls the same dice expression several times",
	}
}

// RollHistoryTool defines the MCP tool schema for roll history.
func RollHistoryTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "roll_history",
		Description: "Lists recorded rolls, newest first, with optional filtering",
	}
}

// RollDiceHandler evaluates an expression once.
func RollDiceHandler(roller diceservice.Roller, locale string) mcp.ToolHandlerFor[RollDiceInput, RollDiceResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RollDiceInput) (*mcp.CallToolResult, RollDiceResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, rollerCallTimeout)
		defer cancel()

		result, err := roller.RollExpression(runCtx, input.Expression)
		if err != nil {
			return nil, RollDiceResult{}, toolError("dice roll failed", err, locale)
		}
		return nil, rollDiceResult(result), nil
	}
}

// RollRangeHandler draws a single value from a range.
func RollRangeHandler(roller diceservice.Roller, locale string) mcp.ToolHandlerFor[RollRangeInput, RollRangeResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RollRangeInput) (*mcp.CallToolResult, RollRangeResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, rollerCallTimeout)
		defer cancel()

		value, err := roller.RollRange(runCtx, input.Min, input.Max)
		if err != nil {
			return nil, RollRangeResult{}, toolError("range roll failed", err, locale)
		}
		return nil, RollRangeResult{Min: input.Min, Max: input.Max, Value: value}, nil
	}
}

// RerollHandler rolls an expression count times.
func RerollHandler(roller diceservice.Roller, locale string) mcp.ToolHandlerFor[RerollInput, RerollResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RerollInput) (*mcp.CallToolResult, RerollResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, rollerCallTimeout)
		defer cancel()

		rolls, err := roller.Reroll(runCtx, input.Expression, input.Count)
		if err != nil {
			return nil, RerollResult{}, toolError("reroll failed", err, locale)
		}
		out := RerollResult{Rolls: make([]RollDiceResult, 0, len(rolls))}
		for _, roll := range rolls {
			out.Rolls = append(out.Rolls, rollDiceResult(roll))
		}
		return nil, out, nil
	}
}

// RollHistoryHandler lists one page of recorded rolls.
func RollHistoryHandler(roller diceservice.Roller, locale string) mcp.ToolHandlerFor[RollHistoryInput, RollHistoryResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RollHistoryInput) (*mcp.CallToolResult, RollHistoryResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, rollerCallTimeout)
		defer cancel()

		page, err := roller.History(runCtx, diceservice.HistoryQuery{
			Filter:    input.Filter,
			PageSize:  input.PageSize,
			PageToken: input.PageToken,
			OrderBy:   input.OrderBy,
		})
		if err != nil {
			return nil, RollHistoryResult{}, toolError("roll history failed", err, locale)
		}

		out := RollHistoryResult{
			Rolls:         make([]RollHistoryEntry, 0, len(page.Rolls)),
			NextPageToken: page.NextPageToken,
			TotalCount:    page.TotalCount,
		}
		for _, entry := range page.Rolls {
			out.Rolls = append(out.Rolls, RollHistoryEntry{
				ID:         entry.ID,
				Expression: entry.Expression,
				Text:       entry.Text,
				Total:      entry.Total,
				Values:     entry.Values,
				RolledAt:   entry.RolledAt.UTC().Format(time.RFC3339Nano),
			})
		}
		return nil, out, nil
	}
}

func rollDiceResult(result diceservice.RollResult) RollDiceResult {
	terms := make([]RollTerm, 0, len(result.Terms))
	for _, term := range result.Terms {
		terms = append(terms, RollTerm{Term: term.Term, Values: term.Values, Total: term.Total})
	}
	return RollDiceResult{
		Expression: result.Expression,
		Text:       result.Text,
		Total:      result.Total,
		Terms:      terms,
	}
}

// toolError reports domain failures with their localized message so MCP
// clients see the same text as the CLI. Other failures keep their chain.
func toolError(action string, err error, locale string) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Code != apperrors.CodeUnknown {
		return fmt.Errorf("%s: %s", action, apperrors.Localize(err, locale))
	}
	return fmt.Errorf("%s: %w", action, err)
}
