// Package dice evaluates die roll expressions such as "3d6+4" or
// "2d10 - 1d4 + 7".
//
// An expression is a flat sequence of signed terms summed left to right.
// Each term is either a die roll ("3d6", "-2d4") or a flat modifier ("+5").
// All randomness comes from an injected Source so callers control
// determinism.
package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the two term shapes.
type Kind int

const (
	// KindModifier is a flat signed integer added to the total.
	KindModifier Kind = iota
	// KindDieRoll rolls Multiplier dice with Sides faces each.
	KindDieRoll
)

func (k Kind) String() string {
	switch k {
	case KindModifier:
		return "Modifier"
	case KindDieRoll:
		return "DieRoll"
	default:
		return "Unknown"
	}
}

// Term is a single parsed unit of an expression.
//
// For KindDieRoll, Multiplier and Sides are set and Sides is at least 1. A
// negative Multiplier rolls |Multiplier| dice and negates their sum. For
// KindModifier only Value is set.
type Term struct {
	Kind       Kind
	Multiplier int8
	Sides      uint8
	Value      int8
}

// NewDieRoll returns a die-roll term.
func NewDieRoll(multiplier int8, sides uint8) Term {
	return Term{Kind: KindDieRoll, Multiplier: multiplier, Sides: sides}
}

// NewModifier returns a modifier term.
func NewModifier(value int8) Term {
	return Term{Kind: KindModifier, Value: value}
}

// ParseTerm parses a single token into a Term.
//
// Tokens containing a 'd' or 'D' separator are die rolls: the left side is a
// signed multiplier in [-128, 127] and the right side an unsigned side count
// in [1, 255]. Anything else must be a signed modifier in [-128, 127]. A
// leading '+' is accepted; a leading '-' applies to the whole token.
func ParseTerm(token string) (Term, error) {
	if !strings.ContainsAny(token, "dD") {
		value, err := strconv.ParseInt(token, 10, 8)
		if err != nil {
			return Term{}, &TermError{Token: token, Err: err}
		}
		return NewModifier(int8(value)), nil
	}

	parts := strings.Split(strings.ToLower(token), "d")
	if len(parts) != 2 {
		return Term{}, &TermError{Token: token}
	}
	multiplier, err := strconv.ParseInt(parts[0], 10, 8)
	if err != nil {
		return Term{}, &TermError{Token: token, Err: err}
	}
	sides, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return Term{}, &TermError{Token: token, Err: err}
	}
	if sides == 0 {
		return Term{}, &TermError{Token: token, Err: fmt.Errorf("die must have at least one side")}
	}
	return NewDieRoll(int8(multiplier), uint8(sides)), nil
}

// Evaluate rolls the term against src.
//
// Modifiers never touch src and evaluate to a single value. Die rolls draw
// |Multiplier| independent values in [1, Sides], in draw order.
func (t Term) Evaluate(src Source) EvaluatedTerm {
	if t.Kind != KindDieRoll {
		return EvaluatedTerm{Term: t, Values: []int{int(t.Value)}}
	}

	count := int(t.Multiplier)
	if count < 0 {
		count = -count
	}
	values := make([]int, count)
	for i := range values {
		values[i] = rollDie(src, int(t.Sides))
	}
	return EvaluatedTerm{Term: t, Values: values}
}

// String renders the term as written: "3d6", "-2d4", "+5", "-6".
func (t Term) String() string {
	if t.Kind == KindDieRoll {
		return fmt.Sprintf("%dd%d", t.Multiplier, t.Sides)
	}
	return fmt.Sprintf("%+d", t.Value)
}

// EvaluatedTerm pairs a Term with the values it produced.
type EvaluatedTerm struct {
	Term   Term
	Values []int
}

// Total reduces the evaluated term to its signed contribution.
//
// Modifiers contribute their value. Die rolls contribute the sum of their
// draws, negated once when the multiplier is negative.
func (e EvaluatedTerm) Total() int {
	if e.Term.Kind != KindDieRoll {
		return int(e.Term.Value)
	}
	sum := 0
	for _, value := range e.Values {
		sum += value
	}
	if e.Term.Multiplier < 0 {
		sum = -sum
	}
	return sum
}

// String renders modifiers as "+5" and die rolls as "3d6[4, 1, 6]".
func (e EvaluatedTerm) String() string {
	if e.Term.Kind != KindDieRoll {
		return e.Term.String()
	}
	values := make([]string, len(e.Values))
	for i, value := range e.Values {
		values[i] = strconv.Itoa(value)
	}
	return e.Term.String() + "[" + strings.Join(values, ", ") + "]"
}
