package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/uptrace/bun"
)

const (
	// Stored calendar date, e.g. "2024-06-01".
	DateLayout = "2006-01-02"
	// Stored optional time-of-day, e.g. "09:30".
	TimeOfDayLayout = "15:04"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          string `bun:"id,pk,notnull"` // required
	Title       string `bun:"title,notnull"` // required
	Description string `bun:"description"`

	Date            string `bun:"date,notnull"` // required, DateLayout
	TimeOfDay       string `bun:"time_of_day"`  // TimeOfDayLayout, blank = whole day
	DurationMinutes int    `bun:"duration_minutes,notnull"`
	Color           string `bun:"color,notnull"` // hex, e.g. "#039be5"

	ChannelID string `bun:"channel_id,notnull"` // required

	CreatedAt        int64 `bun:"created_at,notnull"`
	UpdatedAt        int64 `bun:"updated_at"`
	NotificationSent bool  `bun:"notification_sent"`
}

// Resolves the stored date + optional time-of-day into a wall-clock start
// in the given location. Whole-day events start at midnight.
func (e *Event) StartsAt(loc *time.Location) (time.Time, error) {
	if e.TimeOfDay == "" {
		t, err := time.ParseInLocation(DateLayout, e.Date, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("(*Event).StartsAt: can't parse date: %w", err)
		}
		return t, nil
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeOfDayLayout, e.Date+" "+e.TimeOfDay, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("(*Event).StartsAt: can't parse date + time: %w", err)
	}
	return t, nil
}

func (e *Event) ToDiscordEmbed(loc *time.Location) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Date",
				Value:  e.Date,
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: e.ID,
		},
	}
	if startsAt, err := e.StartsAt(loc); err == nil && e.TimeOfDay != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Starts",
			Value:  fmt.Sprintf("<t:%d:t>", startsAt.Unix()),
			Inline: true,
		})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "Duration",
		Value:  humanDuration(e.DurationMinutes),
		Inline: true,
	})
	if colorInt, err := strconv.ParseInt(strings.TrimPrefix(e.Color, "#"), 16, 64); err == nil {
		embed.Color = int(colorInt)
	}
	return embed
}

func humanDuration(minutes int) string {
	switch {
	case minutes >= 1440 && minutes%1440 == 0:
		return fmt.Sprintf("%dd", minutes/1440)
	case minutes >= 60 && minutes%60 == 0:
		return fmt.Sprintf("%dh", minutes/60)
	case minutes > 60:
		return fmt.Sprintf("%dh%dm", minutes/60, minutes%60)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
