package workflow

import (
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateDraft checks a candidate draft against the configured limits and
// returns either the normalized draft or the first failure, checked in the
// order title, date, description. An out-of-range duration or color is not
// an error: it is coerced to the default, same as an unset one.
func ValidateDraft(draft Draft, maxTitleLen, maxDescLen int) (Draft, error) {
	if err := validate.Var(draft.Title, "required"); err != nil {
		return draft, &ValidationError{Code: EmptyTitle}
	}
	if err := validate.Var(draft.Title, fmt.Sprintf("max=%d", maxTitleLen)); err != nil {
		return draft, &ValidationError{Code: TitleTooLong, Limit: maxTitleLen}
	}
	if draft.Date.IsZero() {
		return draft, &ValidationError{Code: MissingDate}
	}
	if err := validate.Var(draft.Description, fmt.Sprintf("max=%d", maxDescLen)); err != nil {
		return draft, &ValidationError{Code: DescriptionTooLong, Limit: maxDescLen}
	}

	if !slices.Contains(DurationOptions, draft.DurationMinutes) {
		draft.DurationMinutes = DefaultDurationMinutes
	}
	if !slices.Contains(ColorPalette, draft.Color) {
		draft.Color = ColorPalette[0]
	}

	return draft, nil
}
