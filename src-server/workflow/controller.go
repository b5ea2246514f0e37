package workflow

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"caldo/src-server/model"
)

// Controller owns the workflow state and is the only thing that mutates
// it. One controller manages at most one open workflow; opening a new one
// discards the previous draft (last-open-wins). Submit and delete hold a
// single in-flight slot, a second call while one is pending is rejected.
type Controller struct {
	cfg     Config
	store   EventStore
	host    Host
	surface Surface

	mu            sync.Mutex
	mode          Mode
	isNew         bool
	targetEventID string
	draft         *Draft
	inFlight      bool
	// bumped by every Open/Cancel so a store call that resolves after the
	// workflow was replaced doesn't clobber the new one
	generation uint64
}

func NewController(cfg Config, store EventStore, host Host, surface Surface) *Controller {
	if cfg.MaxTitleLength <= 0 {
		cfg.MaxTitleLength = 100
	}
	if cfg.MaxDescriptionLength <= 0 {
		cfg.MaxDescriptionLength = 1000
	}
	return &Controller{
		cfg:     cfg,
		store:   store,
		host:    host,
		surface: surface,
		mode:    ModeClosed,
	}
}

// Mode reports the current state, mainly for the surface and tests.
func (c *Controller) Mode() (Mode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode, c.isNew
}

// Draft returns a copy of the current draft, or nil when no workflow is open.
func (c *Controller) Draft() *Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return nil
	}
	draft := *c.draft
	return &draft
}

// View renders a fresh description of the current state for surfaces
// that need one outside of the usual Render pushes.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderLocked()
}

// Open starts a workflow: a blank form for date (or today) when eventID is
// blank, otherwise an edit form for the stored event. Any previously open
// workflow is discarded first, saved or not.
func (c *Controller) Open(ctx context.Context, date *time.Time, eventID string) error {
	c.mu.Lock()
	c.generation++
	c.reset()

	if c.cfg.UseAuth && c.host.CurrentUser() == nil {
		if c.cfg.OnAuthRequired != nil {
			c.mu.Unlock()
			c.observe("open", "auth-delegated")
			c.cfg.OnAuthRequired()
			return nil
		}
		c.mode = ModeAuthNotice
		view := RenderView(c.mode, nil, false, false)
		c.mu.Unlock()
		c.observe("open", "auth-required")
		c.surface.Render(view)
		return nil
	}

	if eventID != "" {
		events, err := c.store.ListAll(ctx)
		if err != nil {
			c.mu.Unlock()
			c.observe("open", "store-error")
			slog.Error("workflow: can't list events", "error", err)
			c.surface.ShowError("Can't look up the event: " + err.Error())
			return &PersistenceError{Message: err.Error()}
		}
		idx := slices.IndexFunc(events, func(e model.Event) bool { return e.ID == eventID })
		if idx < 0 {
			c.mu.Unlock()
			c.observe("open", "not-found")
			c.surface.ShowError("Event not found.")
			return ErrNotFound
		}
		event := events[idx]
		draft := Draft{
			Title:           event.Title,
			Description:     event.Description,
			TimeOfDay:       event.TimeOfDay,
			DurationMinutes: event.DurationMinutes,
			Color:           event.Color,
		}
		if parsed, err := time.Parse(model.DateLayout, event.Date); err == nil {
			draft.Date = parsed
		}
		c.mode = ModeEditing
		c.isNew = false
		c.targetEventID = event.ID
		c.draft = &draft
	} else {
		draft := Draft{
			DurationMinutes: DefaultDurationMinutes,
			Color:           ColorPalette[0],
		}
		if date != nil {
			draft.Date = *date
		} else {
			now := time.Now()
			draft.Date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		}
		c.mode = ModeEditing
		c.isNew = true
		c.draft = &draft
	}

	view := c.renderLocked()
	c.mu.Unlock()
	c.observe("open", "ok")
	c.surface.Render(view)
	return nil
}

// SelectColor marks a palette entry as the draft's color. No-op outside
// of editing or for a hex outside the palette.
func (c *Controller) SelectColor(hex string) {
	c.mu.Lock()
	if c.mode != ModeEditing {
		c.mu.Unlock()
		slog.Warn("workflow: color selected with no form open", "hex", hex)
		return
	}
	if !slices.Contains(ColorPalette, hex) {
		c.mu.Unlock()
		slog.Warn("workflow: color not in palette", "hex", hex)
		return
	}
	c.draft.Color = hex
	view := c.renderLocked()
	c.mu.Unlock()
	c.surface.Render(view)
}

// Submit validates the raw fields and persists the draft, adding a new
// event or updating the opened one. Validation problems and store
// rejections are shown inline and keep the form open; only a store
// success closes the workflow.
func (c *Controller) Submit(ctx context.Context, raw RawFields) error {
	c.mu.Lock()
	if c.mode != ModeEditing {
		c.mu.Unlock()
		return ErrNotEditing
	}
	if c.inFlight {
		c.mu.Unlock()
		c.observe("submit", "rejected")
		slog.Debug("workflow: submit rejected, another operation is in flight")
		return ErrInFlight
	}

	candidate := c.buildCandidateLocked(raw)
	normalized, err := ValidateDraft(candidate, c.cfg.MaxTitleLength, c.cfg.MaxDescriptionLength)
	if err != nil {
		*c.draft = candidate
		c.mu.Unlock()
		c.observe("submit", "validation")
		c.surface.ShowError(err.Error())
		return err
	}

	*c.draft = normalized
	c.inFlight = true
	isNew, targetEventID := c.isNew, c.targetEventID
	generation := c.generation
	c.mu.Unlock()

	var storeErr error
	if isNew {
		_, storeErr = c.store.AddEvent(ctx, normalized)
	} else {
		_, storeErr = c.store.UpdateEvent(ctx, targetEventID, normalized)
	}

	c.mu.Lock()
	c.inFlight = false
	if storeErr != nil {
		// draft stays as-is so the user can retry or cancel
		c.mu.Unlock()
		c.observe("submit", "store-error")
		slog.Error("workflow: can't save event", "event", targetEventID, "error", storeErr)
		c.surface.ShowError(storeErr.Error())
		return &PersistenceError{Message: storeErr.Error()}
	}
	if c.generation == generation {
		c.reset()
	}
	c.mu.Unlock()

	c.observe("submit", "ok")
	c.host.RefreshCalendar()
	if isNew {
		c.surface.Notify("Event created.")
	} else {
		c.surface.Notify("Event updated.")
	}
	return nil
}

// RequestDelete asks the surface for a yes/no confirmation and, on yes,
// deletes the opened event. Only valid while editing an existing event.
func (c *Controller) RequestDelete(ctx context.Context) error {
	c.mu.Lock()
	if c.mode != ModeEditing || c.isNew {
		c.mu.Unlock()
		return ErrNotEditing
	}
	if c.inFlight {
		c.mu.Unlock()
		c.observe("delete", "rejected")
		return ErrInFlight
	}
	c.inFlight = true
	targetEventID := c.targetEventID
	generation := c.generation
	c.mu.Unlock()

	confirmed, err := c.surface.Confirm(ctx, "Delete this event?")
	if err != nil {
		c.clearInFlight()
		c.observe("delete", "confirm-error")
		slog.Warn("workflow: can't ask for delete confirmation", "error", err)
		return nil
	}
	if !confirmed {
		c.clearInFlight()
		c.observe("delete", "declined")
		c.surface.Notify("Event deletion canceled.")
		return nil
	}

	storeErr := c.store.DeleteEvent(ctx, targetEventID)

	c.mu.Lock()
	c.inFlight = false
	if storeErr != nil {
		c.mu.Unlock()
		c.observe("delete", "store-error")
		slog.Error("workflow: can't delete event", "event", targetEventID, "error", storeErr)
		c.surface.ShowError(storeErr.Error())
		return &PersistenceError{Message: storeErr.Error()}
	}
	if c.generation == generation {
		c.reset()
	}
	c.mu.Unlock()

	c.observe("delete", "ok")
	c.host.RefreshCalendar()
	c.surface.Notify("Event deleted.")
	return nil
}

// Cancel discards the draft and closes the workflow. Never touches the store.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.mode == ModeClosed {
		c.mu.Unlock()
		return
	}
	c.generation++
	c.reset()
	view := RenderView(ModeClosed, nil, false, false)
	c.mu.Unlock()
	c.surface.Render(view)
}

// caller must hold c.mu
func (c *Controller) reset() {
	c.mode = ModeClosed
	c.isNew = false
	c.targetEventID = ""
	c.draft = nil
}

// caller must hold c.mu
func (c *Controller) renderLocked() View {
	authPresent := !c.cfg.UseAuth || c.host.CurrentUser() != nil
	return RenderView(c.mode, c.draft, c.isNew, authPresent)
}

// Builds the submit candidate: trimmed strings, coerced duration, the
// currently selected color with the palette head as fallback. Blank
// date/time/duration fields keep the draft's current values so a partial
// submit doesn't wipe them. Caller must hold c.mu.
func (c *Controller) buildCandidateLocked(raw RawFields) Draft {
	candidate := Draft{
		Title:       strings.TrimSpace(raw.Title),
		Description: strings.TrimSpace(raw.Description),
	}

	candidate.Date = c.draft.Date
	if raw.Date != "" {
		if parsed, err := c.parseDate(raw.Date); err == nil {
			candidate.Date = parsed
		} else {
			slog.Debug("workflow: can't parse submitted date", "raw", raw.Date, "error", err)
			candidate.Date = time.Time{}
		}
	}

	candidate.TimeOfDay = c.draft.TimeOfDay
	if trimmed := strings.TrimSpace(raw.TimeOfDay); trimmed != "" {
		if parsed, err := time.Parse(model.TimeOfDayLayout, trimmed); err == nil {
			candidate.TimeOfDay = parsed.Format(model.TimeOfDayLayout)
		} else {
			slog.Debug("workflow: can't parse submitted time", "raw", raw.TimeOfDay)
			candidate.TimeOfDay = ""
		}
	}

	candidate.DurationMinutes = c.draft.DurationMinutes
	if raw.Duration != "" {
		minutes, err := strconv.Atoi(strings.TrimSpace(raw.Duration))
		if err != nil {
			minutes = 0 // normalized to the default by validation
		}
		candidate.DurationMinutes = minutes
	}

	// the marked swatch wins; a cleared selection falls back to the head
	// of the palette
	candidate.Color = c.draft.Color
	if candidate.Color == "" {
		candidate.Color = ColorPalette[0]
	}

	return candidate
}

func (c *Controller) parseDate(s string) (time.Time, error) {
	if c.cfg.ParseDate != nil {
		return c.cfg.ParseDate(s)
	}
	return time.Parse(model.DateLayout, s)
}

func (c *Controller) clearInFlight() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

func (c *Controller) observe(op, result string) {
	if c.cfg.Observe != nil {
		c.cfg.Observe(op, result)
	}
}
