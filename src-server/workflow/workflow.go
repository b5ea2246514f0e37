// Package workflow implements the event-editing workflow: a single-event
// modal lifecycle covering auth gating, draft validation and the calls to
// the event store. The surrounding app only talks to it through the
// Controller and the EventStore/Host/Surface contracts below, so the whole
// state machine is testable without Discord or a database.
package workflow

import (
	"context"
	"time"

	"caldo/src-server/model"
)

// Mode is the current state of the workflow state machine.
type Mode int

const (
	// No workflow open; the initial state.
	ModeClosed Mode = iota
	// A blocking "you must log in" notice is shown.
	ModeAuthNotice
	// An event form is open, either for a new or an existing event.
	ModeEditing
)

func (m Mode) String() string {
	switch m {
	case ModeClosed:
		return "closed"
	case ModeAuthNotice:
		return "auth-notice"
	case ModeEditing:
		return "editing"
	default:
		return "unknown"
	}
}

// The only durations an event can have, in minutes.
var DurationOptions = []int{15, 30, 60, 90, 120, 180, 240, 480, 1440}

const DefaultDurationMinutes = 60

// The fixed 10-entry color palette; ColorPalette[0] is the default.
var ColorPalette = []string{
	"#039be5", // peacock
	"#7986cb", // lavender
	"#33b679", // sage
	"#8e24aa", // grape
	"#e67c73", // flamingo
	"#f6bf26", // banana
	"#f4511e", // tangerine
	"#616161", // graphite
	"#3f51b5", // blueberry
	"#0b8043", // basil
}

// Draft holds the unsaved working copy of an event's editable fields while
// a workflow is open. Date carries only the calendar day; a blank TimeOfDay
// means a whole-day event.
type Draft struct {
	Title           string
	Description     string
	Date            time.Time // zero = missing
	TimeOfDay       string    // model.TimeOfDayLayout, blank = none
	DurationMinutes int
	Color           string
}

// RawFields is what the surface hands over on submit, still untrimmed and
// unparsed. Blank Date/TimeOfDay/Duration fall back to the current draft.
type RawFields struct {
	Title       string
	Description string
	Date        string
	TimeOfDay   string
	Duration    string
}

// EventStore is the persistence collaborator. The controller only depends
// on this CRUD contract; schema and uniqueness rules live behind it.
type EventStore interface {
	ListAll(ctx context.Context) ([]model.Event, error)
	AddEvent(ctx context.Context, draft Draft) (*model.Event, error)
	UpdateEvent(ctx context.Context, id string, draft Draft) (*model.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// Host is the embedding calendar application.
type Host interface {
	CurrentUser() *model.User
	// Called after every successful mutation so the host can re-render
	// its event collection.
	RefreshCalendar()
}

// Surface displays view descriptions and owns the blocking confirmation
// primitive. It never mutates workflow state directly.
type Surface interface {
	Render(view View)
	ShowError(msg string)
	Notify(msg string)
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Config carries the host-provided knobs for a Controller.
type Config struct {
	UseAuth        bool
	OnAuthRequired func() // optional; when set, auth failures are delegated instead of rendering a notice

	MaxTitleLength       int
	MaxDescriptionLength int

	// Optional natural-language date parser for raw submit fields; strict
	// model.DateLayout parsing is the fallback.
	ParseDate func(s string) (time.Time, error)

	// Optional outcome hook for metrics, called as ("open"|"submit"|"delete", "ok"|...).
	Observe func(op, result string)
}
