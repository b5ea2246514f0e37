package surface

import (
	"context"
	"fmt"
	"log/slog"

	"caldo/src-server/model"
	"caldo/src-server/utils"

	"github.com/bwmarrin/discordgo"
)

// The auth gate only needs to know whether the member registered; the
// /register command upserts them into the users table.
func registerUserCmd(as *utils.AppState) {
	id := "register"
	as.AddAppCmdInfo(id, &discordgo.ApplicationCommand{
		Name:        id,
		Description: "Register yourself so you can manage events.",
	})
	as.AddAppCmdHandler(id, func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		userID, username := interactionUser(i)
		if userID == "" {
			utils.InteractRespEphemeral(s, i, "Can't tell who you are.")
			return nil
		}

		userModel := model.User{
			ID:       userID,
			Username: utils.CleanupString(username),
		}
		if err := userModel.Upsert(context.Background(), as.BunDB); err != nil {
			utils.InteractRespEphemeral(s, i, fmt.Sprintf("Can't register\n```%s```", err.Error()))
			return fmt.Errorf("registerUserCmd: %w", err)
		}

		slog.Info("user registered", "id", userID, "username", username)
		utils.InteractRespEphemeral(s, i, "You're registered. Use `/event create` to get started.")
		return nil
	})
}
