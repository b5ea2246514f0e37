package surface

import (
	"context"
	"log/slog"
	"time"

	"caldo/src-server/model"
	"caldo/src-server/utils"
	"caldo/src-server/workflow"

	"github.com/bwmarrin/discordgo"
)

// Host adapts the Discord guild to the workflow's host contract: the
// current user is whoever drives the open form (looked up in the users
// table), and a calendar refresh re-posts the upcoming agenda to the
// calendar channel.
type Host struct {
	as      *utils.AppState
	surface *Discord
	store   workflow.EventStore
}

var _ workflow.Host = (*Host)(nil)

func NewHost(as *utils.AppState, surface *Discord, store workflow.EventStore) *Host {
	return &Host{
		as:      as,
		surface: surface,
		store:   store,
	}
}

func (h *Host) CurrentUser() *model.User {
	return h.surface.ActorUser(context.Background())
}

func (h *Host) RefreshCalendar() {
	events, err := h.store.ListAll(context.Background())
	if err != nil {
		slog.Error("host: can't refresh calendar", "error", err)
		return
	}

	loc := h.as.Config.GetLocation()
	today := time.Now().In(loc).Format(model.DateLayout)
	fields := make([]*discordgo.MessageEmbedField, 0, len(events))
	for _, event := range events {
		if event.Date < today {
			continue
		}
		if len(fields) == 10 {
			break
		}
		value := event.Date
		if event.TimeOfDay != "" {
			value += " " + event.TimeOfDay
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  event.Title,
			Value: value + " · `" + event.ID + "`",
		})
	}

	startTimer := time.Now()
	if _, err := h.as.DgSession.ChannelMessageSendEmbed(
		h.as.Config.GetCalendarChannelID(),
		&discordgo.MessageEmbed{
			Title:  "Upcoming events",
			Fields: fields,
		},
	); err != nil {
		slog.Warn("host: can't post agenda", "error", err)
		return
	}
	h.as.MetricChans.RecordDiscordSendMessage(time.Since(startTimer))
}
