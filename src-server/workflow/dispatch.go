package workflow

import (
	"context"
	"fmt"
	"time"
)

type ActionKind int

const (
	ActionOpen ActionKind = iota
	ActionColorSelect
	ActionSubmit
	ActionCancel
	ActionDelete
)

func (k ActionKind) String() string {
	switch k {
	case ActionOpen:
		return "open"
	case ActionColorSelect:
		return "color-select"
	case ActionSubmit:
		return "submit"
	case ActionCancel:
		return "cancel"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Action is a UI-originated request, used by surfaces that funnel every
// user interaction through one entry point instead of calling the
// controller methods directly.
type Action struct {
	Kind ActionKind

	// ActionOpen
	Date    *time.Time
	EventID string

	// ActionColorSelect
	Color string

	// ActionSubmit
	Fields RawFields
}

// Dispatch routes an action to the matching controller operation. All
// state transitions stay inside the controller either way.
func (c *Controller) Dispatch(ctx context.Context, action Action) error {
	switch action.Kind {
	case ActionOpen:
		return c.Open(ctx, action.Date, action.EventID)
	case ActionColorSelect:
		c.SelectColor(action.Color)
		return nil
	case ActionSubmit:
		return c.Submit(ctx, action.Fields)
	case ActionCancel:
		c.Cancel()
		return nil
	case ActionDelete:
		return c.RequestDelete(ctx)
	default:
		return fmt.Errorf("unknown action kind: %d", action.Kind)
	}
}
