package errors

import "github.com/louisbranch/drex/internal/platform/errors/i18n"

// Domain is the ErrorInfo domain stamped on drex statuses.
const Domain = "github.com/louisbranch/drex"

// Error is a coded failure. Message is for logs; the user-facing text comes
// from the i18n catalog, templated with Metadata.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface. An empty Message falls back to
// the code.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

// Unwrap exposes Cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Localized renders the catalog message for locale.
func (e *Error) Localized(locale string) string {
	return i18n.GetCatalog(locale).Format(string(e.Code), e.Metadata)
}

// New returns an error with no cause or metadata.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapWithMetadata returns an error carrying template metadata and cause.
// Both may be nil.
func WrapWithMetadata(code Code, message string, metadata map[string]string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
		Cause:    cause,
	}
}
