package utils

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// =========================================================
// Pre-built discordgo interaction responses for convenience
// =========================================================

// Send an ephemeral reply to the interaction, only visible to its author.
func InteractRespEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:   discordgo.MessageFlagsEphemeral,
			Content: content,
		},
	}); err != nil {
		slog.Warn("can't respond", "content", content, "error", err)
	}
}

// Acknowledge the interaction without sending anything; the reply comes
// later via InteractionResponseEdit.
func InteractRespDefer(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		slog.Warn("can't respond", "content", "deferring", "error", err)
	}
}

// Edit a previously deferred reply.
func InteractRespEdit(s *discordgo.Session, i *discordgo.Interaction, content string) {
	if _, err := s.InteractionResponseEdit(i, &discordgo.WebhookEdit{
		Content: &content,
	}); err != nil {
		slog.Warn("can't respond", "content", content, "error", err)
	}
}
