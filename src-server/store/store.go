// Package store is the persistence collaborator behind the workflow's
// EventStore contract: events in sqlite through bun, ids assigned on
// insert, latencies reported to the metric channels.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"caldo/src-server/model"
	"caldo/src-server/utils"
	"caldo/src-server/workflow"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Bun struct {
	db        bun.IDB
	channelID string
	metric    *utils.Metric
}

var _ workflow.EventStore = (*Bun)(nil)

// NewBun wires a store over db. channelID is stamped on every new event
// so the notifier knows where to post; metric may be nil.
func NewBun(db bun.IDB, channelID string, metric *utils.Metric) *Bun {
	return &Bun{
		db:        db,
		channelID: channelID,
		metric:    metric,
	}
}

func (s *Bun) ListAll(ctx context.Context) ([]model.Event, error) {
	startTimer := time.Now()
	eventModels := make([]model.Event, 0)
	if err := s.db.
		NewSelect().
		Model(&eventModels).
		Order("date ASC", "time_of_day ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*Bun).ListAll: %w", err)
	}
	s.metric.RecordDatabaseRead(time.Since(startTimer))
	return eventModels, nil
}

func (s *Bun) AddEvent(ctx context.Context, draft workflow.Draft) (*model.Event, error) {
	eventModel := draftToModel(draft)
	eventModel.ID = uuid.NewString()
	eventModel.ChannelID = s.channelID
	eventModel.CreatedAt = time.Now().UTC().Unix()

	startTimer := time.Now()
	if _, err := s.db.
		NewInsert().
		Model(eventModel).
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("(*Bun).AddEvent: %w", err)
	}
	s.metric.RecordDatabaseWrite(time.Since(startTimer))
	return eventModel, nil
}

func (s *Bun) UpdateEvent(ctx context.Context, id string, draft workflow.Draft) (*model.Event, error) {
	if id == "" {
		return nil, fmt.Errorf("(*Bun).UpdateEvent: event id is blank")
	}

	eventModel := new(model.Event)
	if err := s.db.
		NewSelect().
		Model(eventModel).
		Where("id = ?", id).
		Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("(*Bun).UpdateEvent: event %s does not exist", id)
		}
		return nil, fmt.Errorf("(*Bun).UpdateEvent: %w", err)
	}

	updated := draftToModel(draft)
	updated.ID = eventModel.ID
	updated.ChannelID = eventModel.ChannelID
	updated.CreatedAt = eventModel.CreatedAt
	updated.UpdatedAt = time.Now().UTC().Unix()
	// a rescheduled event deserves a fresh reminder
	if updated.Date != eventModel.Date || updated.TimeOfDay != eventModel.TimeOfDay {
		updated.NotificationSent = false
	} else {
		updated.NotificationSent = eventModel.NotificationSent
	}

	startTimer := time.Now()
	if _, err := s.db.
		NewUpdate().
		Model(updated).
		WherePK().
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("(*Bun).UpdateEvent: %w", err)
	}
	s.metric.RecordDatabaseWrite(time.Since(startTimer))
	return updated, nil
}

func (s *Bun) DeleteEvent(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("(*Bun).DeleteEvent: event id is blank")
	}

	startTimer := time.Now()
	result, err := s.db.
		NewDelete().
		Model((*model.Event)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("(*Bun).DeleteEvent: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("(*Bun).DeleteEvent: event %s does not exist", id)
	}
	s.metric.RecordDatabaseWrite(time.Since(startTimer))
	return nil
}

func draftToModel(draft workflow.Draft) *model.Event {
	return &model.Event{
		Title:           draft.Title,
		Description:     draft.Description,
		Date:            draft.Date.Format(model.DateLayout),
		TimeOfDay:       draft.TimeOfDay,
		DurationMinutes: draft.DurationMinutes,
		Color:           draft.Color,
	}
}
