// Package surface renders workflow views as a Discord message with
// components and feeds the interactions back into the controller. It is
// the only package that knows the form is made of embeds, buttons, a
// color select and a modal.
package surface

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"caldo/src-server/utils"
	"caldo/src-server/workflow"

	"github.com/bwmarrin/discordgo"
)

const (
	componentColorSelect = "event-form-color"
	componentEditButton  = "event-form-edit"
	componentDeleteBtn   = "event-form-delete"
	componentCancelBtn   = "event-form-cancel"
	modalEventForm       = "event-form-modal"
)

var colorNames = map[string]string{
	"#039be5": "Peacock",
	"#7986cb": "Lavender",
	"#33b679": "Sage",
	"#8e24aa": "Grape",
	"#e67c73": "Flamingo",
	"#f6bf26": "Banana",
	"#f4511e": "Tangerine",
	"#616161": "Graphite",
	"#3f51b5": "Blueberry",
	"#0b8043": "Basil",
}

type pendingKind int

const (
	pendingNone pendingKind = iota
	// a deferred slash command, reply via InteractionResponseEdit
	pendingDeferred
	// an unanswered component click, reply via UpdateMessage
	pendingComponent
	// an unanswered modal submit; the modal came off the form message,
	// so UpdateMessage works here too
	pendingModal
)

// Discord is the rendering surface. It tracks which interaction owns the
// current form message and which interaction is still waiting for a
// response, so the controller can stay oblivious to Discord's
// one-response-per-interaction rule.
type Discord struct {
	as    *utils.AppState
	ctrl  *workflow.Controller
	store workflow.EventStore

	mu          sync.Mutex
	actorID     string // Discord user driving the open workflow
	actorName   string
	form        *discordgo.Interaction // interaction whose response is the form message
	pending     *discordgo.Interaction
	pendingKind pendingKind
}

var _ workflow.Surface = (*Discord)(nil)

func (d *Discord) setActor(i *discordgo.InteractionCreate) {
	userID, username := interactionUser(i)
	d.mu.Lock()
	d.actorID = userID
	d.actorName = username
	d.mu.Unlock()
}

func (d *Discord) setPending(i *discordgo.Interaction, kind pendingKind) {
	d.mu.Lock()
	d.pending = i
	d.pendingKind = kind
	d.mu.Unlock()
}

func (d *Discord) takePending() (*discordgo.Interaction, pendingKind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	interaction, kind := d.pending, d.pendingKind
	d.pending = nil
	d.pendingKind = pendingNone
	return interaction, kind
}

// Answer a pending interaction the controller never got around to (e.g.
// an action dispatched in the wrong mode).
func (d *Discord) finishPending(fallback string) {
	interaction, kind := d.takePending()
	if interaction == nil {
		return
	}
	switch kind {
	case pendingDeferred:
		utils.InteractRespEdit(d.as.DgSession, interaction, fallback)
	default:
		if err := d.as.DgSession.InteractionRespond(interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Flags:   discordgo.MessageFlagsEphemeral,
				Content: fallback,
			},
		}); err != nil {
			slog.Warn("can't respond", "surface", "finish-pending", "error", err)
		}
	}
}

// Render translates a view into the form message. Depending on what is
// pending it either edits the deferred slash reply or answers a component
// click with an in-place message update.
func (d *Discord) Render(view workflow.View) {
	interaction, kind := d.takePending()

	content := ""
	var embeds []*discordgo.MessageEmbed
	var components []discordgo.MessageComponent

	switch view.Mode {
	case workflow.ModeClosed:
		content = "Event form closed."
	case workflow.ModeAuthNotice:
		content = view.Notice
	case workflow.ModeEditing:
		embeds = []*discordgo.MessageEmbed{formEmbed(view)}
		components = formComponents(view)
	}

	if interaction == nil {
		slog.Warn("surface: nothing to render into", "mode", view.Mode.String())
		return
	}

	startTimer := time.Now()
	switch kind {
	case pendingComponent, pendingModal:
		if err := d.as.DgSession.InteractionRespond(interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Content:    content,
				Embeds:     embeds,
				Components: components,
			},
		}); err != nil {
			slog.Warn("can't respond", "surface", "render-update", "error", err)
		}
	default:
		if _, err := d.as.DgSession.InteractionResponseEdit(interaction, &discordgo.WebhookEdit{
			Content:    &content,
			Embeds:     &embeds,
			Components: &components,
		}); err != nil {
			slog.Warn("can't respond", "surface", "render-edit", "error", err)
		}
		d.mu.Lock()
		d.form = interaction
		d.mu.Unlock()
	}
	d.as.MetricChans.RecordDiscordSendMessage(time.Since(startTimer))
}

// ShowError surfaces a recoverable problem inline; the form message is
// left untouched so the user can retry or cancel.
func (d *Discord) ShowError(msg string) {
	interaction, kind := d.takePending()
	if interaction == nil {
		if _, err := d.as.DgSession.ChannelMessageSend(d.as.Config.GetCalendarChannelID(), msg); err != nil {
			slog.Warn("can't send error message", "error", err)
		}
		return
	}
	switch kind {
	case pendingDeferred:
		utils.InteractRespEdit(d.as.DgSession, interaction, msg)
	default:
		if err := d.as.DgSession.InteractionRespond(interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Flags:   discordgo.MessageFlagsEphemeral,
				Content: msg,
			},
		}); err != nil {
			slog.Warn("can't respond", "surface", "show-error", "error", err)
		}
	}
}

// Notify emits a transient outcome message. When the workflow just
// closed, the form message is replaced by the notice so its buttons don't
// linger around.
func (d *Discord) Notify(msg string) {
	interaction, kind := d.takePending()

	mode, _ := d.ctrl.Mode()
	if mode == workflow.ModeClosed {
		d.mu.Lock()
		form := d.form
		d.form = nil
		d.mu.Unlock()
		if form != nil {
			empty := []*discordgo.MessageEmbed{}
			noComponents := []discordgo.MessageComponent{}
			if _, err := d.as.DgSession.InteractionResponseEdit(form, &discordgo.WebhookEdit{
				Content:    &msg,
				Embeds:     &empty,
				Components: &noComponents,
			}); err != nil {
				slog.Warn("can't respond", "surface", "notify-close-form", "error", err)
			}
		}
	}

	if interaction == nil {
		return
	}
	switch kind {
	case pendingDeferred:
		utils.InteractRespEdit(d.as.DgSession, interaction, msg)
	case pendingComponent:
		if err := d.as.DgSession.InteractionRespond(interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Content:    msg,
				Embeds:     []*discordgo.MessageEmbed{},
				Components: []discordgo.MessageComponent{},
			},
		}); err != nil {
			slog.Warn("can't respond", "surface", "notify-update", "error", err)
		}
	default:
		if err := d.as.DgSession.InteractionRespond(interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Flags:   discordgo.MessageFlagsEphemeral,
				Content: msg,
			},
		}); err != nil {
			slog.Warn("can't respond", "surface", "notify", "error", err)
		}
	}
}

func formEmbed(view workflow.View) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: func() string {
			if view.Title == "" {
				return "(untitled event)"
			}
			return view.Title
		}(),
		Description: view.Description,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "Date",
				Value: func() string {
					if view.Date == "" {
						return "(not set)"
					}
					return view.Date
				}(),
				Inline: true,
			},
			{
				Name: "Time",
				Value: func() string {
					if view.TimeOfDay == "" {
						return "whole day"
					}
					return view.TimeOfDay
				}(),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: view.SubmitLabel + " · use the buttons below",
		},
	}
	for _, choice := range view.DurationChoices {
		if choice.Current {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   "Duration",
				Value:  durationLabel(choice.Minutes),
				Inline: true,
			})
		}
	}
	for _, swatch := range view.Colors {
		if swatch.Selected {
			if colorInt, err := strconv.ParseInt(strings.TrimPrefix(swatch.Hex, "#"), 16, 64); err == nil {
				embed.Color = int(colorInt)
			}
		}
	}
	return embed
}

func formComponents(view workflow.View) []discordgo.MessageComponent {
	colorOptions := make([]discordgo.SelectMenuOption, len(view.Colors))
	for i, swatch := range view.Colors {
		label, ok := colorNames[swatch.Hex]
		if !ok {
			label = swatch.Hex
		}
		colorOptions[i] = discordgo.SelectMenuOption{
			Label:   label,
			Value:   swatch.Hex,
			Default: swatch.Selected,
		}
	}

	buttons := []discordgo.MessageComponent{
		discordgo.Button{
			Label:    "Edit details",
			Style:    discordgo.PrimaryButton,
			CustomID: componentEditButton,
		},
	}
	if view.CanDelete {
		buttons = append(buttons, discordgo.Button{
			Label:    "Delete",
			Style:    discordgo.DangerButton,
			CustomID: componentDeleteBtn,
		})
	}
	buttons = append(buttons, discordgo.Button{
		Label:    "Cancel",
		Style:    discordgo.SecondaryButton,
		CustomID: componentCancelBtn,
	})

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    componentColorSelect,
					Placeholder: "Event color",
					Options:     colorOptions,
				},
			},
		},
		discordgo.ActionsRow{
			Components: buttons,
		},
	}
}

func durationLabel(minutes int) string {
	switch {
	case minutes >= 1440:
		return fmt.Sprintf("%d day(s)", minutes/1440)
	case minutes%60 == 0:
		return fmt.Sprintf("%d hour(s)", minutes/60)
	case minutes > 60:
		return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
	default:
		return fmt.Sprintf("%d minutes", minutes)
	}
}

func interactionUser(i *discordgo.InteractionCreate) (string, string) {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return i.Member.User.ID, i.Member.User.Username
	case i.User != nil:
		return i.User.ID, i.User.Username
	default:
		return "", "unknown"
	}
}
