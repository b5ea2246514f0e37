package workflow_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"caldo/src-server/workflow"
)

func validDraft() workflow.Draft {
	return workflow.Draft{
		Title:           "Standup",
		Date:            time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		DurationMinutes: 30,
		Color:           workflow.ColorPalette[2],
	}
}

func TestValidateNormalizesDuration(t *testing.T) {
	for _, minutes := range []int{0, -5, 1, 59, 61, 100, 500, 10000} {
		draft := validDraft()
		draft.DurationMinutes = minutes
		normalized, err := workflow.ValidateDraft(draft, 100, 1000)
		if err != nil {
			t.Fatalf("duration %d: unexpected error: %v", minutes, err)
		}
		if normalized.DurationMinutes != workflow.DefaultDurationMinutes {
			t.Errorf("duration %d: got %d, want %d", minutes, normalized.DurationMinutes, workflow.DefaultDurationMinutes)
		}
	}

	for _, minutes := range workflow.DurationOptions {
		draft := validDraft()
		draft.DurationMinutes = minutes
		normalized, err := workflow.ValidateDraft(draft, 100, 1000)
		if err != nil {
			t.Fatalf("duration %d: unexpected error: %v", minutes, err)
		}
		if normalized.DurationMinutes != minutes {
			t.Errorf("duration %d: changed to %d", minutes, normalized.DurationMinutes)
		}
	}
}

func TestValidateNormalizesColor(t *testing.T) {
	for _, color := range []string{"", "#123456", "red", "#FFFFFF"} {
		draft := validDraft()
		draft.Color = color
		normalized, err := workflow.ValidateDraft(draft, 100, 1000)
		if err != nil {
			t.Fatalf("color %q: unexpected error: %v", color, err)
		}
		if normalized.Color != workflow.ColorPalette[0] {
			t.Errorf("color %q: got %q, want %q", color, normalized.Color, workflow.ColorPalette[0])
		}
	}

	draft := validDraft()
	draft.Color = workflow.ColorPalette[7]
	normalized, err := workflow.ValidateDraft(draft, 100, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if normalized.Color != workflow.ColorPalette[7] {
		t.Errorf("palette color changed to %q", normalized.Color)
	}
}

func TestValidateTitle(t *testing.T) {
	draft := validDraft()
	draft.Title = ""
	if _, err := workflow.ValidateDraft(draft, 100, 1000); !isValidationCode(err, workflow.EmptyTitle) {
		t.Errorf("blank title: got %v, want EmptyTitle", err)
	}

	draft = validDraft()
	draft.Title = strings.Repeat("a", 100)
	if _, err := workflow.ValidateDraft(draft, 100, 1000); err != nil {
		t.Errorf("title at the limit: unexpected error: %v", err)
	}

	draft.Title = strings.Repeat("a", 101)
	if _, err := workflow.ValidateDraft(draft, 100, 1000); !isValidationCode(err, workflow.TitleTooLong) {
		t.Errorf("title over the limit: got %v, want TitleTooLong", err)
	}
}

func TestValidateDescription(t *testing.T) {
	draft := validDraft()
	draft.Description = strings.Repeat("d", 1000)
	if _, err := workflow.ValidateDraft(draft, 100, 1000); err != nil {
		t.Errorf("description at the limit: unexpected error: %v", err)
	}

	draft.Description = strings.Repeat("d", 1001)
	if _, err := workflow.ValidateDraft(draft, 100, 1000); !isValidationCode(err, workflow.DescriptionTooLong) {
		t.Errorf("description over the limit: got %v, want DescriptionTooLong", err)
	}
}

func TestValidateMissingDate(t *testing.T) {
	draft := validDraft()
	draft.Date = time.Time{}
	if _, err := workflow.ValidateDraft(draft, 100, 1000); !isValidationCode(err, workflow.MissingDate) {
		t.Errorf("missing date: got %v, want MissingDate", err)
	}
}

// title problems must win over date problems
func TestValidateOrder(t *testing.T) {
	draft := validDraft()
	draft.Title = ""
	draft.Date = time.Time{}
	if _, err := workflow.ValidateDraft(draft, 100, 1000); !isValidationCode(err, workflow.EmptyTitle) {
		t.Errorf("got %v, want EmptyTitle first", err)
	}
}

func isValidationCode(err error, code workflow.ValidationCode) bool {
	var validationErr *workflow.ValidationError
	if !errors.As(err, &validationErr) {
		return false
	}
	return validationErr.Code == code
}
