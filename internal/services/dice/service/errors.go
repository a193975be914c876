package service

import (
	"errors"
	"strconv"

	"github.com/louisbranch/drex/internal/core/dice"
	apperrors "github.com/louisbranch/drex/internal/platform/errors"
)

// diceError maps core evaluation failures to platform errors. Anything else
// is returned unchanged.
func diceError(err error, expression string) error {
	var termErr *dice.TermError
	switch {
	case errors.As(err, &termErr):
		return apperrors.WrapWithMetadata(apperrors.CodeDiceMalformedTerm, err.Error(),
			map[string]string{"Term": termErr.Token}, err)
	case errors.Is(err, dice.ErrNoTermsFound):
		return apperrors.WrapWithMetadata(apperrors.CodeDiceNoTermsFound, err.Error(),
			map[string]string{"Expression": expression}, err)
	default:
		return err
	}
}

func rangeError(err error, min, max int) error {
	if !errors.Is(err, dice.ErrInvalidRange) {
		return err
	}
	return apperrors.WrapWithMetadata(apperrors.CodeDiceInvalidRange, err.Error(),
		map[string]string{"Min": strconv.Itoa(min), "Max": strconv.Itoa(max)}, err)
}

func countError(count int) error {
	return apperrors.WrapWithMetadata(apperrors.CodeDiceInvalidCount,
		"reroll count "+strconv.Itoa(count)+" out of range",
		map[string]string{"Min": "1", "Max": strconv.Itoa(MaxRerollCount)}, nil)
}

func filterError(err error) error {
	return apperrors.WrapWithMetadata(apperrors.CodeHistoryInvalidFilter, err.Error(),
		map[string]string{"Reason": err.Error()}, err)
}
