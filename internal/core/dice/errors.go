package dice

import (
	"errors"
	"fmt"
)

// ErrMalformedTerm indicates a token could not be parsed into a die-roll or
// modifier term, including integers outside the allowed range.
var ErrMalformedTerm = errors.New("malformed die roll term")

// ErrNoTermsFound indicates an expression produced no recognizable terms.
var ErrNoTermsFound = errors.New("no die roll terms found")

// ErrInvalidRange indicates a range roll was requested with min greater than max.
var ErrInvalidRange = errors.New("range minimum must not exceed maximum")

// TermError reports the token that failed to parse.
//
// It matches ErrMalformedTerm through errors.Is and exposes the underlying
// parse failure, when there is one, through errors.As.
type TermError struct {
	Token string
	Err   error
}

// Error implements the error interface.
func (e *TermError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %q", ErrMalformedTerm, e.Token)
	}
	return fmt.Sprintf("%v: %q: %v", ErrMalformedTerm, e.Token, e.Err)
}

// Unwrap returns ErrMalformedTerm and the parse cause.
func (e *TermError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedTerm}
	}
	return []error{ErrMalformedTerm, e.Err}
}
