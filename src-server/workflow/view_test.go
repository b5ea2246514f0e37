package workflow_test

import (
	"reflect"
	"testing"
	"time"

	"caldo/src-server/workflow"
)

func TestRenderViewClosed(t *testing.T) {
	view := workflow.RenderView(workflow.ModeClosed, nil, false, true)
	if view.Mode != workflow.ModeClosed {
		t.Errorf("mode: got %v", view.Mode)
	}
	if view.Notice != "" || len(view.Colors) != 0 || len(view.DurationChoices) != 0 {
		t.Errorf("closed view carries form content: %+v", view)
	}
}

func TestRenderViewAuthNotice(t *testing.T) {
	view := workflow.RenderView(workflow.ModeAuthNotice, nil, false, false)
	if view.Notice == "" {
		t.Error("auth notice view has no notice text")
	}
	if len(view.Colors) != 0 {
		t.Error("auth notice view carries swatches")
	}
}

func TestRenderViewNewForm(t *testing.T) {
	draft := &workflow.Draft{
		Title:           "Standup",
		Date:            time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		DurationMinutes: 30,
		Color:           workflow.ColorPalette[0],
	}
	view := workflow.RenderView(workflow.ModeEditing, draft, true, true)

	if view.SubmitLabel != "Create" {
		t.Errorf("submit label: got %q", view.SubmitLabel)
	}
	if view.CanDelete {
		t.Error("a new event form offers delete")
	}
	if view.FocusField != "title" {
		t.Errorf("focus field: got %q", view.FocusField)
	}
	if view.Date != "2024-06-01" {
		t.Errorf("date: got %q", view.Date)
	}
	var current int
	for _, choice := range view.DurationChoices {
		if choice.Current {
			current = choice.Minutes
		}
	}
	if current != 30 {
		t.Errorf("current duration: got %d", current)
	}
}

func TestRenderViewExistingForm(t *testing.T) {
	draft := &workflow.Draft{Title: "Retro", Date: time.Now()}
	view := workflow.RenderView(workflow.ModeEditing, draft, false, true)

	if view.SubmitLabel != "Update" {
		t.Errorf("submit label: got %q", view.SubmitLabel)
	}
	if !view.CanDelete {
		t.Error("an existing event form hides delete")
	}
}

// an off-palette or unset color marks the palette head
func TestRenderViewColorFallback(t *testing.T) {
	draft := &workflow.Draft{Title: "x", Date: time.Now(), Color: "#bad1de"}
	view := workflow.RenderView(workflow.ModeEditing, draft, true, true)

	for i, swatch := range view.Colors {
		if swatch.Selected != (i == 0) {
			t.Errorf("swatch %d (%s): selected=%v", i, swatch.Hex, swatch.Selected)
		}
	}
}

func TestRenderViewIsPure(t *testing.T) {
	draft := &workflow.Draft{
		Title:           "Standup",
		Date:            time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Color:           workflow.ColorPalette[3],
	}
	first := workflow.RenderView(workflow.ModeEditing, draft, false, true)
	second := workflow.RenderView(workflow.ModeEditing, draft, false, true)
	if !reflect.DeepEqual(first, second) {
		t.Error("same inputs rendered different views")
	}
}
