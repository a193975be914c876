// Package script runs Lua roll scripts against a dice roller.
//
// Scripts see a global dice table:
//
//	dice.roll(expr)        -> {expression, total, text, values}
//	dice.range(min, max)   -> integer
//	dice.rerolls(expr, n)  -> {total, ...}
//
// print writes to the runner's output instead of stdout. Cancellation is
// observed on every dice call; a script that loops without rolling runs to
// completion.
package script

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
	apperrors "github.com/louisbranch/drex/internal/platform/errors"
	"github.com/louisbranch/drex/internal/services/dice/service"
)

const diceTableName = "dice"

// Runner executes scripts. A Runner is not safe for concurrent use.
type Runner struct {
	roller service.Roller
	out    io.Writer
	locale string
	ctx    context.Context
}

// New returns a Runner rolling through roller and printing to out. Errors
// raised inside scripts are localized for locale.
func New(roller service.Roller, out io.Writer, locale string) (*Runner, error) {
	if roller == nil {
		return nil, fmt.Errorf("roller is required")
	}
	if out == nil {
		out = io.Discard
	}
	return &Runner{roller: roller, out: out, locale: locale}, nil
}

// RunFile loads and runs the script at path.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	return r.Run(ctx, filepath.Base(path), string(code))
}

// Run executes code. name labels the chunk in Lua error messages.
func (r *Runner) Run(ctx context.Context, name, code string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.ctx = ctx
	defer func() { r.ctx = nil }()

	state := lua.NewState()
	lua.OpenLibraries(state)
	r.register(state)

	if err := lua.LoadBuffer(state, code, "="+name, "t"); err != nil {
		return fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		return fmt.Errorf("run lua: %w", err)
	}
	return nil
}

func (r *Runner) register(state *lua.State) {
	state.NewTable()
	lua.SetFunctions(state, []lua.RegistryFunction{
		{Name: "roll", Function: r.roll},
		{Name: "range", Function: r.rollRange},
		{Name: "rerolls", Function: r.rerolls},
	}, 0)
	state.SetGlobal(diceTableName)

	state.PushGoFunction(r.print)
	state.SetGlobal("print")
}

func (r *Runner) roll(state *lua.State) int {
	r.checkContext(state)
	expression := lua.CheckString(state, 1)
	result, err := r.roller.RollExpression(r.ctx, expression)
	if err != nil {
		r.raise(state, err)
	}
	pushRoll(state, result)
	return 1
}

func (r *Runner) rollRange(state *lua.State) int {
	r.checkContext(state)
	min := lua.CheckInteger(state, 1)
	max := lua.CheckInteger(state, 2)
	value, err := r.roller.RollRange(r.ctx, min, max)
	if err != nil {
		r.raise(state, err)
	}
	state.PushInteger(value)
	return 1
}

func (r *Runner) rerolls(state *lua.State) int {
	r.checkContext(state)
	expression := lua.CheckString(state, 1)
	count := lua.CheckInteger(state, 2)
	rolls, err := r.roller.Reroll(r.ctx, expression, count)
	if err != nil {
		r.raise(state, err)
	}
	state.CreateTable(len(rolls), 0)
	for i, roll := range rolls {
		state.PushInteger(roll.Total)
		state.RawSetInt(-2, i+1)
	}
	return 1
}

// print mirrors the Lua builtin: arguments converted with tostring, joined
// by tabs, newline terminated.
func (r *Runner) print(state *lua.State) int {
	top := state.Top()
	parts := make([]string, 0, top)
	for i := 1; i <= top; i++ {
		text, ok := lua.ToStringMeta(state, i)
		if !ok {
			lua.Errorf(state, "'tostring' must return a string to 'print'")
		}
		state.Pop(1)
		parts = append(parts, text)
	}
	if _, err := io.WriteString(r.out, strings.Join(parts, "\t")+"\n"); err != nil {
		lua.Errorf(state, "print: %s", err.Error())
	}
	return 0
}

func (r *Runner) checkContext(state *lua.State) {
	if err := r.ctx.Err(); err != nil {
		lua.Errorf(state, "%s", err.Error())
	}
}

// raise turns err into a Lua error carrying the localized message.
func (r *Runner) raise(state *lua.State, err error) {
	lua.Errorf(state, "%s", apperrors.Localize(err, r.locale))
}

func pushRoll(state *lua.State, result service.RollResult) {
	state.NewTable()
	state.PushString(result.Expression)
	state.SetField(-2, "expression")
	state.PushInteger(result.Total)
	state.SetField(-2, "total")
	state.PushString(result.Text)
	state.SetField(-2, "text")

	state.CreateTable(len(result.Terms), 0)
	for i, term := range result.Terms {
		state.CreateTable(len(term.Values), 0)
		for j, value := range term.Values {
			state.PushInteger(value)
			state.RawSetInt(-2, j+1)
		}
		state.RawSetInt(-2, i+1)
	}
	state.SetField(-2, "values")
}
