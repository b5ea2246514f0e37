package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"caldo/src-server/metric"
	"caldo/src-server/model"
	"caldo/src-server/scheduler"
	"caldo/src-server/surface"
	"caldo/src-server/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	if err := godotenv.Load(); err != nil {
		slog.Info(err.Error())
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC1123Z,
		}),
	))
}

func main() {
	as := utils.NewAppState()

	if err := model.CreateSchema(as.BunDB); err != nil {
		slog.Error("can't create database schema", "error", err)
		os.Exit(1)
	}

	// the event-editing workflow, its store and every slash command
	surface.Init(as)

	// route interactions from Discord into the handler tables
	as.DgSession.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		execute := func(id string, lookup func(string) (func(s *discordgo.Session, i *discordgo.InteractionCreate) error, bool)) {
			handler, ok := lookup(id)
			if !ok {
				if i == nil || i.Interaction == nil {
					return
				}
				utils.InteractRespEphemeral(s, i, "Expired interaction")
				slog.Debug("someone used an expired interaction", "custom_id", id)
				return
			}
			if err := handler(s, i); err != nil {
				slog.Error("handler error", "command", id, "error", err.Error())
			}
		}

		switch i.Type {
		case discordgo.InteractionApplicationCommand: // slash commands
			execute(i.ApplicationCommandData().Name, as.GetAppCmdHandler)
		case discordgo.InteractionMessageComponent: // buttons, dropdowns, etc
			execute(i.MessageComponentData().CustomID, as.GetMsgComponentHandler)
		case discordgo.InteractionModalSubmit: // modal a.k.a. text input
			execute(i.ModalSubmitData().CustomID, as.GetModalHandler)
		default:
			slog.Error("unknown interaction type", "type", i.Type)
		}
	})

	// open a connection to Discord
	if err := as.DgSession.Open(); err != nil {
		slog.Error("error opening connection", "error", err)
		os.Exit(1)
	}
	defer as.DgSession.Close()

	// tell Discord what commands we have
	if _, err := as.DgSession.ApplicationCommandBulkOverwrite(
		as.Config.GetDiscordClientId(),
		as.Config.GetDiscordGuildID(),
		func() []*discordgo.ApplicationCommand {
			var cmds []*discordgo.ApplicationCommand
			as.IterateAppCmdInfo(func(k string, v *discordgo.ApplicationCommand) {
				cmds = append(cmds, v)
			})
			return cmds
		}()); err != nil {
		slog.Error("can't create slash commands", "error", err.Error())
	}

	// cleanup appCmdInfo from memory
	as.NukeAppCmdInfo()
	runtime.GC()

	go metric.Init(as)

	if err := scheduler.Start(as); err != nil {
		slog.Error("can't start scheduler", "error", err)
		os.Exit(1)
	}

	// http server
	go func() {
		muxer := http.NewServeMux()
		muxer.Handle("GET /metrics", promhttp.Handler())
		if err := http.ListenAndServe(":"+as.Config.GetPort(), muxer); err != nil {
			slog.Error("cannot start HTTP server", "error", err)
			as.AppCloseSignalChan <- syscall.SIGTERM
		}
	}()

	slog.Info("number of guilds", "guilds", len(as.DgSession.State.Guilds))
	slog.Info("app is now running, press Ctrl+C to exit")

	signal.Notify(as.AppCloseSignalChan, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-as.AppCloseSignalChan
	as.GracefulShutdown()

	slog.Info("Gracefully shutting down...")
}
