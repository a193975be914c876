package errors

import (
	"errors"

	"github.com/louisbranch/drex/internal/platform/errors/i18n"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultLocale is the default locale for error messages.
const DefaultLocale = "en-US"

// HandleError converts domain errors to gRPC status for client responses.
// It formats the user-facing message using the i18n catalog for the given locale,
// defaulting to en-US if the locale is empty.
func HandleError(err error, locale string) error {
	if err == nil {
		return nil
	}

	if locale == "" {
		locale = DefaultLocale
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		catalog := i18n.GetCatalog(locale)
		return toGRPCStatus(appErr, catalog.Locale(), appErr.Localized(catalog.Locale()))
	}

	// Unknown error - return internal with generic message
	return status.Error(codes.Internal, "an unexpected error occurred")
}

// FromGRPCStatus rebuilds a domain error from a status produced by
// HandleError. Errors without ErrorInfo details map to CodeUnknown.
// The localized message, when present, becomes the error message.
func FromGRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	out := &Error{Code: CodeUnknown, Message: st.Message(), Cause: err}
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			if d.GetDomain() == Domain {
				out.Code = Code(d.GetReason())
				out.Metadata = d.GetMetadata()
			}
		case *errdetails.LocalizedMessage:
			if d.GetMessage() != "" {
				out.Message = d.GetMessage()
			}
		}
	}
	return out
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// Localize returns the user-facing message for err in locale. Non-domain
// and CodeUnknown errors return their own message.
func Localize(err error, locale string) string {
	var appErr *Error
	if !errors.As(err, &appErr) || appErr.Code == CodeUnknown {
		return err.Error()
	}
	return appErr.Localized(locale)
}

// toGRPCStatus carries e's code and metadata in ErrorInfo and the user
// message in LocalizedMessage. The status message stays the internal one.
func toGRPCStatus(e *Error, locale, userMessage string) error {
	grpcCode := e.Code.GRPCCode()
	st, err := status.New(grpcCode, e.Error()).WithDetails(
		&errdetails.ErrorInfo{
			Reason:   string(e.Code),
			Domain:   Domain,
			Metadata: e.Metadata,
		},
		&errdetails.LocalizedMessage{
			Locale:  locale,
			Message: userMessage,
		},
	)
	if err != nil {
		return status.Error(grpcCode, e.Error())
	}
	return st.Err()
}
