// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Dice errors
	CodeDiceMalformedTerm Code = "DICE_MALFORMED_TERM"
	CodeDiceNoTermsFound  Code = "DICE_NO_TERMS_FOUND"
	CodeDiceInvalidRange  Code = "DICE_INVALID_RANGE"
	CodeDiceInvalidCount  Code = "DICE_INVALID_COUNT"

	// History errors
	CodeHistoryInvalidFilter Code = "HISTORY_INVALID_FILTER"
	CodeHistoryUnavailable   Code = "HISTORY_UNAVAILABLE"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeDiceMalformedTerm,
		CodeDiceNoTermsFound,
		CodeDiceInvalidRange,
		CodeDiceInvalidCount,
		CodeHistoryInvalidFilter:
		return codes.InvalidArgument

	// FailedPrecondition - server not configured for the operation
	case CodeHistoryUnavailable:
		return codes.FailedPrecondition

	default:
		return codes.Internal
	}
}
