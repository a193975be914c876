package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeDiceMalformedTerm    = "DICE_MALFORMED_TERM"
	CodeDiceNoTermsFound     = "DICE_NO_TERMS_FOUND"
	CodeDiceInvalidRange     = "DICE_INVALID_RANGE"
	CodeDiceInvalidCount     = "DICE_INVALID_COUNT"
	CodeHistoryInvalidFilter = "HISTORY_INVALID_FILTER"
	CodeHistoryUnavailable   = "HISTORY_UNAVAILABLE"
)

var enUSCatalog = NewCatalog("en-US", map[Code]string{
	// Dice errors
	CodeDiceMalformedTerm: "Term {{.Term}} is not a valid die roll or modifier",
	CodeDiceNoTermsFound:  "No die roll terms found in {{.Expression}}",
	CodeDiceInvalidRange:  "Range minimum {{.Min}} is greater than maximum {{.Max}}",
	CodeDiceInvalidCount:  "Roll count must be between {{.Min}} and {{.Max}}",

	// History errors
	CodeHistoryInvalidFilter: "History filter is invalid: {{.Reason}}",
	CodeHistoryUnavailable:   "Roll history is not enabled",
})
