// Package filter translates AIP-160 roll history filters into SQL.
//
// Supported fields are expression (string), total (int) and rolled_at
// (timestamp). Comparisons combine with AND, OR and NOT, for example:
//
//	total >= 10 AND rolled_at > timestamp("2026-01-01T00:00:00Z")
package filter

import (
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// SQLCondition is a WHERE clause fragment with positional parameters.
type SQLCondition struct {
	Clause string
	Params []any
}

// Empty reports whether the condition matches everything.
func (c SQLCondition) Empty() bool {
	return c.Clause == ""
}

type fieldKind int

const (
	fieldString fieldKind = iota
	fieldInt
	fieldTimestamp
)

type field struct {
	column string
	kind   fieldKind
}

var fields = map[string]field{
	"expression": {column: "expression", kind: fieldString},
	"total":      {column: "total", kind: fieldInt},
	"rolled_at":  {column: "rolled_at", kind: fieldTimestamp},
}

var operators = map[string]string{
	"=":  "=",
	"!=": "!=",
	"<":  "<",
	"<=": "<=",
	">":  ">",
	">=": ">=",
}

// RollDeclarations returns the identifiers a roll filter may reference.
func RollDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("expression", filtering.TypeString),
		filtering.DeclareIdent("total", filtering.TypeInt),
		filtering.DeclareIdent("rolled_at", filtering.TypeTimestamp),
	)
}

// ParseRollFilter parses filterStr and returns the matching SQL condition.
// A blank filter yields an empty condition.
func ParseRollFilter(filterStr string) (SQLCondition, error) {
	if strings.TrimSpace(filterStr) == "" {
		return SQLCondition{}, nil
	}

	decls, err := RollDeclarations()
	if err != nil {
		return SQLCondition{}, fmt.Errorf("create declarations: %w", err)
	}
	parsed, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return SQLCondition{}, fmt.Errorf("parse filter: %w", err)
	}
	if parsed.CheckedExpr == nil {
		return SQLCondition{}, nil
	}
	return translateExpr(parsed.CheckedExpr.GetExpr())
}

func translateExpr(e *expr.Expr) (SQLCondition, error) {
	if e == nil {
		return SQLCondition{}, nil
	}
	call, ok := e.GetExprKind().(*expr.Expr_CallExpr)
	if !ok {
		return SQLCondition{}, fmt.Errorf("unsupported expression type: %T", e.GetExprKind())
	}
	return translateCall(call.CallExpr)
}

func translateCall(call *expr.Expr_Call) (SQLCondition, error) {
	switch call.GetFunction() {
	case "AND", "FUZZY":
		return translateJunction(call.GetArgs(), "AND")
	case "OR":
		return translateJunction(call.GetArgs(), "OR")
	case "NOT":
		if len(call.GetArgs()) != 1 {
			return SQLCondition{}, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := translateExpr(call.GetArgs()[0])
		if err != nil {
			return SQLCondition{}, err
		}
		return SQLCondition{Clause: "NOT (" + inner.Clause + ")", Params: inner.Params}, nil
	}
	if op, ok := operators[call.GetFunction()]; ok {
		return translateComparison(call.GetArgs(), op)
	}
	return SQLCondition{}, fmt.Errorf("unsupported function: %s", call.GetFunction())
}

func translateJunction(args []*expr.Expr, keyword string) (SQLCondition, error) {
	if len(args) < 2 {
		return SQLCondition{}, fmt.Errorf("%s requires at least 2 arguments", keyword)
	}
	clauses := make([]string, 0, len(args))
	var params []any
	for _, arg := range args {
		cond, err := translateExpr(arg)
		if err != nil {
			return SQLCondition{}, err
		}
		clauses = append(clauses, cond.Clause)
		params = append(params, cond.Params...)
	}
	return SQLCondition{
		Clause: "(" + strings.Join(clauses, " "+keyword+" ") + ")",
		Params: params,
	}, nil
}

func translateComparison(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}
	ident, ok := args[0].GetExprKind().(*expr.Expr_IdentExpr)
	if !ok {
		return SQLCondition{}, fmt.Errorf("expected identifier, got %T", args[0].GetExprKind())
	}
	name := ident.IdentExpr.GetName()
	f, ok := fields[name]
	if !ok {
		return SQLCondition{}, fmt.Errorf("unknown field: %s", name)
	}

	value, err := extractValue(args[1], f.kind)
	if err != nil {
		return SQLCondition{}, fmt.Errorf("%s: %w", name, err)
	}
	return SQLCondition{
		Clause: fmt.Sprintf("%s %s ?", f.column, op),
		Params: []any{value},
	}, nil
}

func extractValue(e *expr.Expr, kind fieldKind) (any, error) {
	switch v := e.GetExprKind().(type) {
	case *expr.Expr_ConstExpr:
		return extractConstValue(v.ConstExpr, kind)
	case *expr.Expr_CallExpr:
		if v.CallExpr.GetFunction() == "timestamp" && kind == fieldTimestamp && len(v.CallExpr.GetArgs()) == 1 {
			return extractTimestampValue(v.CallExpr.GetArgs()[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", v.CallExpr.GetFunction())
	default:
		return nil, fmt.Errorf("expected constant, got %T", v)
	}
}

func extractConstValue(c *expr.Constant, kind fieldKind) (any, error) {
	switch v := c.GetConstantKind().(type) {
	case *expr.Constant_StringValue:
		if kind == fieldTimestamp {
			return parseTimestamp(v.StringValue)
		}
		return v.StringValue, nil
	case *expr.Constant_Int64Value:
		return v.Int64Value, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", v)
	}
}

func extractTimestampValue(e *expr.Expr) (int64, error) {
	c, ok := e.GetExprKind().(*expr.Expr_ConstExpr)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a constant string")
	}
	s, ok := c.ConstExpr.GetConstantKind().(*expr.Constant_StringValue)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a string")
	}
	return parseTimestamp(s.StringValue)
}

// parseTimestamp returns RFC 3339 text as Unix milliseconds, the unit
// rolled_at is stored in.
func parseTimestamp(value string) (int64, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp format: %s", value)
	}
	return t.UTC().UnixMilli(), nil
}
