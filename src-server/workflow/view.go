package workflow

import (
	"slices"

	"caldo/src-server/model"
)

// View is a structured, render-ready description of the current workflow
// state. It carries no behavior; the surface translates it into whatever
// UI primitives it has.
type View struct {
	Mode Mode

	Title       string
	Description string
	Date        string // model.DateLayout, blank when missing
	TimeOfDay   string

	DurationChoices []DurationChoice
	Colors          []ColorSwatch

	CanDelete   bool
	SubmitLabel string // "Create" or "Update"
	FocusField  string // field to focus, "title" while editing

	// Blocking notice text, only set in ModeAuthNotice.
	Notice string
}

type DurationChoice struct {
	Minutes int
	Current bool
}

type ColorSwatch struct {
	Hex      string
	Selected bool
}

// RenderView maps (mode, draft, auth presence) to a View. It is a pure
// function: same inputs, same output, no side effects.
func RenderView(mode Mode, draft *Draft, isNew bool, authPresent bool) View {
	view := View{Mode: mode}

	switch mode {
	case ModeClosed:
		return view
	case ModeAuthNotice:
		view.Notice = "You need to log in before managing events."
		return view
	}

	if draft == nil {
		// editing without a draft is a bug upstream, render an empty form
		draft = &Draft{}
	}

	view.Title = draft.Title
	view.Description = draft.Description
	if !draft.Date.IsZero() {
		view.Date = draft.Date.Format(model.DateLayout)
	}
	view.TimeOfDay = draft.TimeOfDay

	currentDuration := draft.DurationMinutes
	if !slices.Contains(DurationOptions, currentDuration) {
		currentDuration = DefaultDurationMinutes
	}
	view.DurationChoices = make([]DurationChoice, len(DurationOptions))
	for i, minutes := range DurationOptions {
		view.DurationChoices[i] = DurationChoice{
			Minutes: minutes,
			Current: minutes == currentDuration,
		}
	}

	selectedColor := draft.Color
	if !slices.Contains(ColorPalette, selectedColor) {
		selectedColor = ColorPalette[0]
	}
	view.Colors = make([]ColorSwatch, len(ColorPalette))
	for i, hex := range ColorPalette {
		view.Colors[i] = ColorSwatch{
			Hex:      hex,
			Selected: hex == selectedColor,
		}
	}

	view.CanDelete = !isNew
	if isNew {
		view.SubmitLabel = "Create"
	} else {
		view.SubmitLabel = "Update"
	}
	view.FocusField = "title"

	return view
}
