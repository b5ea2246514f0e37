package surface

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

const confirmTimeout = 2 * time.Minute

// Confirm blocks on a Yes/No button pair until the owner answers, the
// context is done, or the prompt times out. Timeout and context
// cancellation both count as "no".
func (d *Discord) Confirm(ctx context.Context, prompt string) (bool, error) {
	suffix := uuid.NewString()
	yesCustomId := "confirm-yes-" + suffix
	noCustomId := "confirm-no-" + suffix
	confirmCh := make(chan struct{})
	cancelCh := make(chan struct{})

	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Yes",
					Style:    discordgo.DangerButton,
					CustomID: yesCustomId,
				},
				discordgo.Button{
					Label:    "No",
					Style:    discordgo.SecondaryButton,
					CustomID: noCustomId,
				},
			},
		},
	}

	// the delete button click is still unanswered, hang the prompt on it
	interaction, kind := d.takePending()
	switch {
	case interaction != nil && kind == pendingDeferred:
		if _, err := d.as.DgSession.InteractionResponseEdit(interaction, &discordgo.WebhookEdit{
			Content:    &prompt,
			Components: &components,
		}); err != nil {
			return false, fmt.Errorf("(*Discord).Confirm: can't edit deferred reply: %w", err)
		}
	case interaction != nil:
		if err := d.as.DgSession.InteractionRespond(interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Flags:      discordgo.MessageFlagsEphemeral,
				Content:    prompt,
				Components: components,
			},
		}); err != nil {
			return false, fmt.Errorf("(*Discord).Confirm: can't respond: %w", err)
		}
	default:
		if _, err := d.as.DgSession.ChannelMessageSendComplex(d.as.Config.GetCalendarChannelID(), &discordgo.MessageSend{
			Content:    prompt,
			Components: components,
		}); err != nil {
			return false, fmt.Errorf("(*Discord).Confirm: can't send prompt: %w", err)
		}
	}

	d.as.AddMsgComponentHandler(yesCustomId, func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		d.setPending(i.Interaction, pendingComponent)
		confirmCh <- struct{}{}
		return nil
	})
	d.as.AddMsgComponentHandler(noCustomId, func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		d.setPending(i.Interaction, pendingComponent)
		cancelCh <- struct{}{}
		return nil
	})
	defer d.as.RemoveMsgComponentHandler(yesCustomId)
	defer d.as.RemoveMsgComponentHandler(noCustomId)

	select {
	case <-ctx.Done():
		return false, nil
	case <-time.After(confirmTimeout):
		slog.Debug("surface: confirmation timed out")
		return false, nil
	case <-cancelCh:
		return false, nil
	case <-confirmCh:
		return true, nil
	}
}
