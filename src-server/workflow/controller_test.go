package workflow_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"caldo/src-server/model"
	"caldo/src-server/workflow"
)

// #region fakes

type fakeStore struct {
	mu     sync.Mutex
	events []model.Event

	addCalls    int
	updateCalls int
	deleteCalls int
	lastDraft   workflow.Draft
	lastID      string

	failWith string // non-blank makes every mutation fail with this message

	// when set, AddEvent signals entered and then blocks until release
	// is closed, for exercising the in-flight guard
	entered chan struct{}
	release chan struct{}
}

func (s *fakeStore) ListAll(ctx context.Context) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Event, len(s.events))
	copy(out, s.events)
	return out, nil
}

func (s *fakeStore) AddEvent(ctx context.Context, draft workflow.Draft) (*model.Event, error) {
	if s.entered != nil {
		s.entered <- struct{}{}
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addCalls++
	s.lastDraft = draft
	if s.failWith != "" {
		return nil, errors.New(s.failWith)
	}
	event := model.Event{
		ID:              "generated",
		Title:           draft.Title,
		Description:     draft.Description,
		Date:            draft.Date.Format(model.DateLayout),
		TimeOfDay:       draft.TimeOfDay,
		DurationMinutes: draft.DurationMinutes,
		Color:           draft.Color,
	}
	s.events = append(s.events, event)
	return &event, nil
}

func (s *fakeStore) UpdateEvent(ctx context.Context, id string, draft workflow.Draft) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	s.lastID = id
	s.lastDraft = draft
	if s.failWith != "" {
		return nil, errors.New(s.failWith)
	}
	for i := range s.events {
		if s.events[i].ID == id {
			s.events[i].Title = draft.Title
			return &s.events[i], nil
		}
	}
	return nil, errors.New("event " + id + " does not exist")
}

func (s *fakeStore) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls++
	s.lastID = id
	if s.failWith != "" {
		return errors.New(s.failWith)
	}
	return nil
}

func (s *fakeStore) mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addCalls + s.updateCalls + s.deleteCalls
}

type fakeHost struct {
	mu           sync.Mutex
	user         *model.User
	refreshCalls int
}

func (h *fakeHost) CurrentUser() *model.User {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.user
}

func (h *fakeHost) RefreshCalendar() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refreshCalls++
}

func (h *fakeHost) refreshed() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.refreshCalls
}

type fakeSurface struct {
	mu      sync.Mutex
	views   []workflow.View
	errs    []string
	notices []string

	confirmAnswer bool
	confirmCalls  int
}

func (s *fakeSurface) Render(view workflow.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = append(s.views, view)
}

func (s *fakeSurface) ShowError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, msg)
}

func (s *fakeSurface) Notify(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, msg)
}

func (s *fakeSurface) Confirm(ctx context.Context, prompt string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmCalls++
	return s.confirmAnswer, nil
}

func (s *fakeSurface) lastView() (workflow.View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.views) == 0 {
		return workflow.View{}, false
	}
	return s.views[len(s.views)-1], true
}

func (s *fakeSurface) lastNotice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.notices) == 0 {
		return ""
	}
	return s.notices[len(s.notices)-1]
}

func (s *fakeSurface) lastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) == 0 {
		return ""
	}
	return s.errs[len(s.errs)-1]
}

func newTestController(cfg workflow.Config) (*workflow.Controller, *fakeStore, *fakeHost, *fakeSurface) {
	store := &fakeStore{}
	host := &fakeHost{}
	surface := &fakeSurface{}
	return workflow.NewController(cfg, store, host, surface), store, host, surface
}

// #endregion fakes

func TestOpenNewDefaults(t *testing.T) {
	ctrl, _, _, surface := newTestController(workflow.Config{})
	if err := ctrl.Open(context.Background(), nil, ""); err != nil {
		t.Fatal(err)
	}

	mode, isNew := ctrl.Mode()
	if mode != workflow.ModeEditing || !isNew {
		t.Fatalf("mode: got %v isNew=%v", mode, isNew)
	}

	draft := ctrl.Draft()
	if draft == nil {
		t.Fatal("no draft after open")
	}
	if draft.DurationMinutes != workflow.DefaultDurationMinutes {
		t.Errorf("duration: got %d", draft.DurationMinutes)
	}
	if draft.Color != workflow.ColorPalette[0] {
		t.Errorf("color: got %q", draft.Color)
	}
	now := time.Now()
	if draft.Date.Year() != now.Year() || draft.Date.Month() != now.Month() || draft.Date.Day() != now.Day() {
		t.Errorf("date: got %v, want today", draft.Date)
	}

	view, ok := surface.lastView()
	if !ok {
		t.Fatal("nothing rendered")
	}
	if view.SubmitLabel != "Create" || view.CanDelete {
		t.Errorf("rendered %q canDelete=%v", view.SubmitLabel, view.CanDelete)
	}
}

func TestOpenExisting(t *testing.T) {
	ctrl, store, _, surface := newTestController(workflow.Config{})
	store.events = []model.Event{{
		ID:              "e1",
		Title:           "Retro",
		Date:            "2024-06-01",
		TimeOfDay:       "14:00",
		DurationMinutes: 90,
		Color:           workflow.ColorPalette[4],
	}}

	if err := ctrl.Open(context.Background(), nil, "e1"); err != nil {
		t.Fatal(err)
	}

	mode, isNew := ctrl.Mode()
	if mode != workflow.ModeEditing || isNew {
		t.Fatalf("mode: got %v isNew=%v", mode, isNew)
	}
	draft := ctrl.Draft()
	if draft.Title != "Retro" || draft.TimeOfDay != "14:00" || draft.DurationMinutes != 90 {
		t.Errorf("draft not loaded from the store: %+v", draft)
	}
	view, _ := surface.lastView()
	if view.SubmitLabel != "Update" || !view.CanDelete {
		t.Errorf("rendered %q canDelete=%v", view.SubmitLabel, view.CanDelete)
	}
}

func TestOpenNotFound(t *testing.T) {
	ctrl, _, _, surface := newTestController(workflow.Config{})
	err := ctrl.Open(context.Background(), nil, "missing")
	if !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if mode, _ := ctrl.Mode(); mode != workflow.ModeClosed {
		t.Errorf("mode after failed open: got %v", mode)
	}
	if surface.lastError() == "" {
		t.Error("no error shown for the missing event")
	}
}

func TestOpenAuthNotice(t *testing.T) {
	ctrl, _, _, surface := newTestController(workflow.Config{UseAuth: true})
	if err := ctrl.Open(context.Background(), nil, ""); err != nil {
		t.Fatal(err)
	}
	if mode, _ := ctrl.Mode(); mode != workflow.ModeAuthNotice {
		t.Fatalf("mode: got %v", mode)
	}
	view, ok := surface.lastView()
	if !ok || view.Notice == "" {
		t.Error("no auth notice rendered")
	}
}

func TestOpenAuthDelegated(t *testing.T) {
	var delegated bool
	ctrl, _, _, surface := newTestController(workflow.Config{
		UseAuth:        true,
		OnAuthRequired: func() { delegated = true },
	})
	if err := ctrl.Open(context.Background(), nil, ""); err != nil {
		t.Fatal(err)
	}
	if !delegated {
		t.Error("auth callback not called")
	}
	if mode, _ := ctrl.Mode(); mode != workflow.ModeClosed {
		t.Errorf("mode: got %v, want closed", mode)
	}
	if _, rendered := surface.lastView(); rendered {
		t.Error("a view was rendered despite the delegation")
	}
}

func TestOpenWithUserPassesAuth(t *testing.T) {
	ctrl, _, host, _ := newTestController(workflow.Config{UseAuth: true})
	host.user = &model.User{ID: "u1", Username: "Alice"}
	if err := ctrl.Open(context.Background(), nil, ""); err != nil {
		t.Fatal(err)
	}
	if mode, _ := ctrl.Mode(); mode != workflow.ModeEditing {
		t.Errorf("mode: got %v", mode)
	}
}

func TestCancelDiscardsDraft(t *testing.T) {
	ctrl, store, _, surface := newTestController(workflow.Config{})
	store.events = []model.Event{{ID: "e1", Title: "Old", Date: "2024-06-01"}}

	// open an existing event, then a fresh form, cancel both ways
	if err := ctrl.Open(context.Background(), nil, "e1"); err != nil {
		t.Fatal(err)
	}
	ctrl.Cancel()
	if err := ctrl.Open(context.Background(), nil, ""); err != nil {
		t.Fatal(err)
	}
	ctrl.Cancel()

	if mode, _ := ctrl.Mode(); mode != workflow.ModeClosed {
		t.Errorf("mode: got %v", mode)
	}
	if ctrl.Draft() != nil {
		t.Error("draft survived cancel")
	}
	if store.mutations() != 0 {
		t.Error("cancel touched the store")
	}
	view, _ := surface.lastView()
	if view.Mode != workflow.ModeClosed {
		t.Errorf("rendered mode: got %v", view.Mode)
	}
}

func TestSubmitEmptyTitle(t *testing.T) {
	ctrl, store, _, surface := newTestController(workflow.Config{})
	if err := ctrl.Open(context.Background(), nil, ""); err != nil {
		t.Fatal(err)
	}

	err := ctrl.Submit(context.Background(), workflow.RawFields{Title: "   "})
	var validationErr *workflow.ValidationError
	if !errors.As(err, &validationErr) || validationErr.Code != workflow.EmptyTitle {
		t.Fatalf("got %v, want EmptyTitle", err)
	}
	if store.mutations() != 0 {
		t.Error("invalid submit reached the store")
	}
	if mode, _ := ctrl.Mode(); mode != workflow.ModeEditing {
		t.Errorf("mode after rejection: got %v", mode)
	}
	if surface.lastError() == "" {
		t.Error("no validation message shown")
	}
}

func TestSubmitCreate(t *testing.T) {
	ctrl, store, host, surface := newTestController(workflow.Config{})
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := ctrl.Open(context.Background(), &date, ""); err != nil {
		t.Fatal(err)
	}

	err := ctrl.Submit(context.Background(), workflow.RawFields{
		Title:    "  Standup  ",
		Duration: "30",
	})
	if err != nil {
		t.Fatal(err)
	}

	if store.addCalls != 1 {
		t.Fatalf("addEvent calls: got %d", store.addCalls)
	}
	saved := store.lastDraft
	if saved.Title != "Standup" {
		t.Errorf("title: got %q", saved.Title)
	}
	if !saved.Date.Equal(date) {
		t.Errorf("date: got %v", saved.Date)
	}
	if saved.DurationMinutes != 30 {
		t.Errorf("duration: got %d", saved.DurationMinutes)
	}
	if saved.Color != workflow.ColorPalette[0] {
		t.Errorf("color: got %q", saved.Color)
	}

	if mode, _ := ctrl.Mode(); mode != workflow.ModeClosed {
		t.Errorf("mode after save: got %v", mode)
	}
	if host.refreshed() != 1 {
		t.Errorf("refresh calls: got %d", host.refreshed())
	}
	if !strings.Contains(surface.lastNotice(), "created") {
		t.Errorf("notice: got %q", surface.lastNotice())
	}
}

func TestSubmitUpdate(t *testing.T) {
	ctrl, store, host, surface := newTestController(workflow.Config{})
	store.events = []model.Event{{
		ID: "e1", Title: "Old", Date: "2024-06-01", DurationMinutes: 60, Color: workflow.ColorPalette[0],
	}}
	if err := ctrl.Open(context.Background(), nil, "e1"); err != nil {
		t.Fatal(err)
	}

	if err := ctrl.Submit(context.Background(), workflow.RawFields{Title: "New"}); err != nil {
		t.Fatal(err)
	}

	if store.updateCalls != 1 || store.lastID != "e1" {
		t.Fatalf("updateEvent: %d calls, id %q", store.updateCalls, store.lastID)
	}
	// blank raw fields fall back to the opened draft
	if store.lastDraft.Date.Format(model.DateLayout) != "2024-06-01" {
		t.Errorf("date: got %v", store.lastDraft.Date)
	}
	if store.lastDraft.DurationMinutes != 60 {
		t.Errorf("duration: got %d", store.lastDraft.DurationMinutes)
	}
	if host.refreshed() != 1 {
		t.Errorf("refresh calls: got %d", host.refreshed())
	}
	if !strings.Contains(surface.lastNotice(), "updated") {
		t.Errorf("notice: got %q", surface.lastNotice())
	}
}

func TestSubmitStoreFailureKeepsForm(t *testing.T) {
	ctrl, store, host, surface := newTestController(workflow.Config{})
	store.events = []model.Event{{ID: "e1", Title: "Old", Date: "2024-06-01"}}
	store.failWith = "conflict"
	if err := ctrl.Open(context.Background(), nil, "e1"); err != nil {
		t.Fatal(err)
	}

	err := ctrl.Submit(context.Background(), workflow.RawFields{Title: "New"})
	var persistenceErr *workflow.PersistenceError
	if !errors.As(err, &persistenceErr) {
		t.Fatalf("got %v, want PersistenceError", err)
	}
	if surface.lastError() != "conflict" {
		t.Errorf("shown message: got %q, want the store's verbatim", surface.lastError())
	}
	mode, isNew := ctrl.Mode()
	if mode != workflow.ModeEditing || isNew {
		t.Errorf("mode after failure: got %v isNew=%v", mode, isNew)
	}
	if draft := ctrl.Draft(); draft == nil || draft.Title != "New" {
		t.Errorf("draft not preserved for retry: %+v", draft)
	}
	if host.refreshed() != 0 {
		t.Error("calendar refreshed despite the failure")
	}
}

func TestSubmitInFlightGuard(t *testing.T) {
	ctrl, store, _, _ := newTestController(workflow.Config{})
	store.entered = make(chan struct{})
	store.release = make(chan struct{})

	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := ctrl.Open(context.Background(), &date, ""); err != nil {
		t.Fatal(err)
	}

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- ctrl.Submit(context.Background(), workflow.RawFields{Title: "First"})
	}()
	<-store.entered

	err := ctrl.Submit(context.Background(), workflow.RawFields{Title: "Second"})
	if !errors.Is(err, workflow.ErrInFlight) {
		t.Errorf("second submit: got %v, want ErrInFlight", err)
	}

	close(store.release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if store.addCalls != 1 {
		t.Errorf("addEvent calls: got %d", store.addCalls)
	}
}

func TestSelectColor(t *testing.T) {
	ctrl, _, _, surface := newTestController(workflow.Config{})
	if err := ctrl.Open(context.Background(), nil, ""); err != nil {
		t.Fatal(err)
	}

	ctrl.SelectColor(workflow.ColorPalette[5])
	if draft := ctrl.Draft(); draft.Color != workflow.ColorPalette[5] {
		t.Errorf("color: got %q", draft.Color)
	}
	view, _ := surface.lastView()
	for _, swatch := range view.Colors {
		if swatch.Selected && swatch.Hex != workflow.ColorPalette[5] {
			t.Errorf("selected swatch: got %q", swatch.Hex)
		}
	}

	// off-palette hexes are ignored
	ctrl.SelectColor("#123456")
	if draft := ctrl.Draft(); draft.Color != workflow.ColorPalette[5] {
		t.Errorf("color after bogus select: got %q", draft.Color)
	}
}

func TestSelectColorWithNoFormOpen(t *testing.T) {
	ctrl, _, _, surface := newTestController(workflow.Config{})
	ctrl.SelectColor(workflow.ColorPalette[1])
	if _, rendered := surface.lastView(); rendered {
		t.Error("a view was rendered with no form open")
	}
}

func TestDeleteDeclined(t *testing.T) {
	ctrl, store, _, surface := newTestController(workflow.Config{})
	store.events = []model.Event{{ID: "e1", Title: "Old", Date: "2024-06-01"}}
	if err := ctrl.Open(context.Background(), nil, "e1"); err != nil {
		t.Fatal(err)
	}

	if err := ctrl.RequestDelete(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.deleteCalls != 0 {
		t.Error("declined delete reached the store")
	}
	mode, isNew := ctrl.Mode()
	if mode != workflow.ModeEditing || isNew {
		t.Errorf("mode after decline: got %v isNew=%v", mode, isNew)
	}
	if !strings.Contains(surface.lastNotice(), "canceled") {
		t.Errorf("notice: got %q", surface.lastNotice())
	}
}

func TestDeleteConfirmed(t *testing.T) {
	ctrl, store, host, surface := newTestController(workflow.Config{})
	store.events = []model.Event{{ID: "e1", Title: "Old", Date: "2024-06-01"}}
	if err := ctrl.Open(context.Background(), nil, "e1"); err != nil {
		t.Fatal(err)
	}
	surface.confirmAnswer = true

	if err := ctrl.RequestDelete(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.deleteCalls != 1 || store.lastID != "e1" {
		t.Fatalf("deleteEvent: %d calls, id %q", store.deleteCalls, store.lastID)
	}
	if mode, _ := ctrl.Mode(); mode != workflow.ModeClosed {
		t.Errorf("mode after delete: got %v", mode)
	}
	if host.refreshed() != 1 {
		t.Errorf("refresh calls: got %d", host.refreshed())
	}
	if !strings.Contains(surface.lastNotice(), "deleted") {
		t.Errorf("notice: got %q", surface.lastNotice())
	}
}

func TestDeleteOnNewForm(t *testing.T) {
	ctrl, _, _, _ := newTestController(workflow.Config{})
	if err := ctrl.Open(context.Background(), nil, ""); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.RequestDelete(context.Background()); !errors.Is(err, workflow.ErrNotEditing) {
		t.Errorf("got %v, want ErrNotEditing", err)
	}
}

func TestLastOpenWins(t *testing.T) {
	ctrl, store, _, _ := newTestController(workflow.Config{})
	store.events = []model.Event{{ID: "e1", Title: "Old", Date: "2024-06-01"}}
	if err := ctrl.Open(context.Background(), nil, "e1"); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Open(context.Background(), nil, ""); err != nil {
		t.Fatal(err)
	}

	mode, isNew := ctrl.Mode()
	if mode != workflow.ModeEditing || !isNew {
		t.Fatalf("mode: got %v isNew=%v", mode, isNew)
	}
	if draft := ctrl.Draft(); draft.Title != "" {
		t.Errorf("previous draft leaked into the new form: %+v", draft)
	}
}

func TestDispatch(t *testing.T) {
	ctrl, store, _, _ := newTestController(workflow.Config{})
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := ctrl.Dispatch(context.Background(), workflow.Action{Kind: workflow.ActionOpen, Date: &date}); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Dispatch(context.Background(), workflow.Action{Kind: workflow.ActionColorSelect, Color: workflow.ColorPalette[2]}); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Dispatch(context.Background(), workflow.Action{
		Kind:   workflow.ActionSubmit,
		Fields: workflow.RawFields{Title: "Standup"},
	}); err != nil {
		t.Fatal(err)
	}

	if store.addCalls != 1 {
		t.Fatalf("addEvent calls: got %d", store.addCalls)
	}
	if store.lastDraft.Color != workflow.ColorPalette[2] {
		t.Errorf("color: got %q", store.lastDraft.Color)
	}
}
