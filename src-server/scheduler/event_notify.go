// Package scheduler posts reminders for events that are about to start.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"caldo/src-server/model"
	"caldo/src-server/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"
	"github.com/uptrace/bun"
)

// Start schedules the reminder scan on the configured cron spec and
// stops it again on graceful shutdown.
func Start(as *utils.AppState) error {
	c := cron.New()
	if _, err := c.AddFunc(as.Config.GetNotifyCron(), func() {
		notifyUpcoming(as)
	}); err != nil {
		return err
	}
	c.Start()

	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		<-*gracefulShutdownCh
		<-c.Stop().Done()
		slog.Debug("scheduler stopped")
	}()

	return nil
}

func notifyUpcoming(as *utils.AppState) {
	loc := as.Config.GetLocation()
	now := time.Now().In(loc)
	window := as.Config.GetNotifyWindow()

	// candidates are today's and tomorrow's unnotified events; the exact
	// start is resolved below since time_of_day is optional
	eventModels := make([]model.Event, 0)
	if err := as.BunDB.
		NewSelect().
		Model(&eventModels).
		Where("notification_sent = ?", false).
		Where("date IN (?, ?)",
			now.Format(model.DateLayout),
			now.Add(24*time.Hour).Format(model.DateLayout)).
		Scan(context.Background()); err != nil {
		slog.Error("notifyUpcoming: can't get events", "error", err)
		return
	}

	due := make([]model.Event, 0, len(eventModels))
	for _, eventModel := range eventModels {
		startsAt, err := eventModel.StartsAt(loc)
		if err != nil {
			slog.Warn("notifyUpcoming: can't resolve start", "event", eventModel.ID, "error", err)
			continue
		}
		if startsAt.After(now) && startsAt.Before(now.Add(window)) {
			due = append(due, eventModel)
		}
	}
	if len(due) == 0 {
		return
	}

	channelsToEvents := make(map[string][]model.Event)
	for _, eventModel := range due {
		channelsToEvents[eventModel.ChannelID] = append(channelsToEvents[eventModel.ChannelID], eventModel)
	}

	for channelID, channelEvents := range channelsToEvents {
		startTimer := time.Now()
		if _, err := as.DgSession.ChannelMessageSendEmbeds(
			channelID,
			func() []*discordgo.MessageEmbed {
				embeds := make([]*discordgo.MessageEmbed, len(channelEvents))
				for i, eventModel := range channelEvents {
					embeds[i] = eventModel.ToDiscordEmbed(loc)
				}
				return embeds
			}(),
		); err != nil {
			slog.Error("notifyUpcoming: can't send message", "channel", channelID, "error", err)
			continue
		}
		as.MetricChans.RecordDiscordSendMessage(time.Since(startTimer))

		ids := make([]string, len(channelEvents))
		for i, eventModel := range channelEvents {
			ids[i] = eventModel.ID
		}
		if _, err := as.BunDB.NewUpdate().
			Model((*model.Event)(nil)).
			Set("notification_sent = ?", true).
			Where("id IN (?)", bun.In(ids)).
			Exec(context.Background()); err != nil {
			slog.Error("notifyUpcoming: can't update notification_sent field", "error", err)
			continue
		}
	}
}
