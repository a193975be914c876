package dice

import (
	"fmt"
	"iter"
	"regexp"
	"strings"
	"unicode"
)

// termPattern matches die-roll tokens before modifiers so "3d6" is never
// split into "3" and a stray "d6".
var termPattern = regexp.MustCompile(`[+-]?\d+[dD]\d+|[+-]?\d+`)

// Roll is the immutable result of evaluating an expression.
type Roll struct {
	expression string
	terms      []EvaluatedTerm
	total      int
	source     Source
}

// Expression returns the evaluated expression with whitespace removed.
func (r Roll) Expression() string {
	return r.expression
}

// Terms returns a copy of the evaluated terms in expression order.
func (r Roll) Terms() []EvaluatedTerm {
	terms := make([]EvaluatedTerm, len(r.terms))
	for i, term := range r.terms {
		values := make([]int, len(term.Values))
		copy(values, term.Values)
		terms[i] = EvaluatedTerm{Term: term.Term, Values: values}
	}
	return terms
}

// Total returns the sum of every term's contribution.
func (r Roll) Total() int {
	return r.total
}

// String concatenates each evaluated term and appends the total, for
// example "3d1[1, 1, 1]-2d1[1, 1]-4 (Total: -3)". Terms add no joiner of
// their own, so "2d1+1d1" renders "2d1[1, 1]1d1[1] (Total: 3)".
func (r Roll) String() string {
	var b strings.Builder
	for _, term := range r.terms {
		b.WriteString(term.String())
	}
	fmt.Fprintf(&b, " (Total: %d)", r.total)
	return b.String()
}

// Reroll evaluates the stored expression again and returns the new result.
// The receiver is left untouched.
func (r Roll) Reroll() (Roll, error) {
	return RollExpression(r.source, r.expression)
}

// Rerolls returns an infinite sequence of fresh rolls of the same expression.
//
// Every pull performs new draws from the Source the original roll used;
// nothing is cached. Callers bound the sequence themselves, for example by
// breaking out of a range loop. A single sequence must not be stepped from
// more than one goroutine.
func (r Roll) Rerolls() iter.Seq[Roll] {
	return func(yield func(Roll) bool) {
		for {
			next, err := r.Reroll()
			if err != nil {
				// Only reachable for a zero Roll; valid expressions re-parse cleanly.
				return
			}
			if !yield(next) {
				return
			}
		}
	}
}

// Tokenize splits a whitespace-free expression into raw term tokens.
//
// Text matching neither a die roll nor a modifier is skipped, so
// "3d6andapotato" yields ["3d6"]. Callers decide what an empty result means.
func Tokenize(expression string) []string {
	return termPattern.FindAllString(expression, -1)
}

// RollExpression evaluates text as a die roll expression using src for every
// draw.
//
// Whitespace is removed before tokenizing, so "2d6 + 6" and "2d6+6" are the
// same expression. Every token is parsed before any dice are rolled; the
// first malformed token aborts the call with a *TermError wrapping
// ErrMalformedTerm. An expression with no tokens fails with ErrNoTermsFound.
// src must not be nil.
//
// Example:
//
//	roll, err := RollExpression(src, "3d6 + 4")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(roll) // 3d6[2, 5, 1]+4 (Total: 12)
func RollExpression(src Source, text string) (Roll, error) {
	expression := stripWhitespace(text)

	tokens := Tokenize(expression)
	if len(tokens) == 0 {
		return Roll{}, fmt.Errorf("expression %q: %w", expression, ErrNoTermsFound)
	}

	terms := make([]Term, 0, len(tokens))
	for _, token := range tokens {
		term, err := ParseTerm(token)
		if err != nil {
			return Roll{}, err
		}
		terms = append(terms, term)
	}

	evaluated := make([]EvaluatedTerm, 0, len(terms))
	total := 0
	for _, term := range terms {
		value := term.Evaluate(src)
		evaluated = append(evaluated, value)
		total += value.Total()
	}

	return Roll{
		expression: expression,
		terms:      evaluated,
		total:      total,
		source:     src,
	}, nil
}

// RollRange returns a uniformly distributed integer in [min, max].
func RollRange(src Source, min, max int) (int, error) {
	if min > max {
		return 0, fmt.Errorf("range [%d, %d]: %w", min, max, ErrInvalidRange)
	}
	return src.Between(min, max), nil
}

func stripWhitespace(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
}
