package surface

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"caldo/src-server/model"
	"caldo/src-server/store"
	"caldo/src-server/utils"
	"caldo/src-server/workflow"

	"github.com/bwmarrin/discordgo"
)

// Init wires the event-editing workflow into Discord: one controller, the
// bun store behind it, the `/event` command family and the component and
// modal handlers the form message needs.
func Init(as *utils.AppState) *Discord {
	d := &Discord{as: as}

	eventStore := store.NewBun(as.BunDB, as.Config.GetCalendarChannelID(), as.MetricChans)
	d.store = eventStore
	host := NewHost(as, d, eventStore)
	d.ctrl = workflow.NewController(workflow.Config{
		UseAuth:              as.Config.GetUseAuth(),
		MaxTitleLength:       as.Config.GetMaxTitleLen(),
		MaxDescriptionLength: as.Config.GetMaxDescLen(),
		ParseDate:            as.ParseDate,
		Observe:              as.MetricChans.RecordWorkflowOutcome,
	}, eventStore, host, d)

	as.AddAppCmdInfo("event", &discordgo.ApplicationCommand{
		Name:        "event",
		Description: "Manage calendar events.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "create",
				Description: "Open a form to create a new event.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "date",
						Description: "The date of the event, defaults to today.",
						Required:    false,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "edit",
				Description: "Open a form to edit an existing event.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "event-id",
						Description: "ID of the event to edit.",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "delete",
				Description: "Delete an event.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "event-id",
						Description: "ID of the event to delete.",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "List upcoming events.",
			},
		},
	})
	as.AddAppCmdHandler("event", d.eventCmdHandler())

	registerUserCmd(as)

	as.AddMsgComponentHandler(componentColorSelect, d.colorSelectHandler())
	as.AddMsgComponentHandler(componentEditButton, d.editButtonHandler())
	as.AddMsgComponentHandler(componentDeleteBtn, d.deleteButtonHandler())
	as.AddMsgComponentHandler(componentCancelBtn, d.cancelButtonHandler())
	as.AddModalHandler(modalEventForm, d.modalSubmitHandler())

	return d
}

func (d *Discord) eventCmdHandler() func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		data := i.ApplicationCommandData()
		if len(data.Options) == 0 {
			utils.InteractRespEphemeral(s, i, "Missing subcommand.")
			return nil
		}
		sub := data.Options[0]

		optionMap := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(sub.Options))
		for _, opt := range sub.Options {
			optionMap[opt.Name] = opt
		}

		switch sub.Name {
		case "create":
			return d.handleCreate(s, i, optionMap)
		case "edit":
			return d.handleEdit(s, i, optionMap)
		case "delete":
			return d.handleDelete(s, i, optionMap)
		case "list":
			return d.handleList(s, i)
		default:
			utils.InteractRespEphemeral(s, i, "Unknown subcommand.")
			return nil
		}
	}
}

func (d *Discord) handleCreate(s *discordgo.Session, i *discordgo.InteractionCreate, optionMap map[string]*discordgo.ApplicationCommandInteractionDataOption) error {
	utils.InteractRespDefer(s, i)
	d.setActor(i)
	d.setPending(i.Interaction, pendingDeferred)

	var date *time.Time
	if opt, ok := optionMap["date"]; ok {
		parsed, err := d.as.ParseDate(opt.StringValue())
		if err != nil {
			d.finishPending(fmt.Sprintf("Can't parse date\n```%s```", err.Error()))
			return nil
		}
		date = &parsed
	}

	if err := d.ctrl.Dispatch(context.Background(), workflow.Action{
		Kind: workflow.ActionOpen,
		Date: date,
	}); err != nil {
		slog.Debug("surface: open failed", "error", err)
	}
	d.finishPending("Can't open the event form.")
	return nil
}

func (d *Discord) handleEdit(s *discordgo.Session, i *discordgo.InteractionCreate, optionMap map[string]*discordgo.ApplicationCommandInteractionDataOption) error {
	utils.InteractRespDefer(s, i)
	d.setActor(i)
	d.setPending(i.Interaction, pendingDeferred)

	var eventID string
	if opt, ok := optionMap["event-id"]; ok {
		eventID = opt.StringValue()
	}
	if eventID == "" {
		d.finishPending("Event ID is empty.")
		return nil
	}

	if err := d.ctrl.Dispatch(context.Background(), workflow.Action{
		Kind:    workflow.ActionOpen,
		EventID: eventID,
	}); err != nil {
		slog.Debug("surface: open failed", "event", eventID, "error", err)
	}
	d.finishPending("Can't open the event form.")
	return nil
}

func (d *Discord) handleDelete(s *discordgo.Session, i *discordgo.InteractionCreate, optionMap map[string]*discordgo.ApplicationCommandInteractionDataOption) error {
	utils.InteractRespDefer(s, i)
	d.setActor(i)
	d.setPending(i.Interaction, pendingDeferred)

	var eventID string
	if opt, ok := optionMap["event-id"]; ok {
		eventID = opt.StringValue()
	}
	if eventID == "" {
		d.finishPending("Event ID is empty.")
		return nil
	}

	// open the event first so the workflow owns a target, then hand the
	// rest to the delete flow with its confirmation gate
	if err := d.ctrl.Dispatch(context.Background(), workflow.Action{
		Kind:    workflow.ActionOpen,
		EventID: eventID,
	}); err != nil {
		d.finishPending("Can't open the event form.")
		return nil
	}
	if mode, isNew := d.ctrl.Mode(); mode != workflow.ModeEditing || isNew {
		d.finishPending("Can't open the event form.")
		return nil
	}

	if err := d.ctrl.Dispatch(context.Background(), workflow.Action{
		Kind: workflow.ActionDelete,
	}); err != nil {
		slog.Debug("surface: delete failed", "event", eventID, "error", err)
	}
	d.finishPending("Can't delete the event.")
	return nil
}

func (d *Discord) handleList(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	utils.InteractRespDefer(s, i)

	events, err := d.store.ListAll(context.Background())
	if err != nil {
		utils.InteractRespEdit(s, i.Interaction, fmt.Sprintf("Can't list events\n```%s```", err.Error()))
		return err
	}
	if len(events) == 0 {
		utils.InteractRespEdit(s, i.Interaction, "No events.")
		return nil
	}

	embeds := make([]*discordgo.MessageEmbed, 0, len(events))
	for idx := range events {
		if idx >= 10 {
			break
		}
		embeds = append(embeds, events[idx].ToDiscordEmbed(d.as.Config.GetLocation()))
	}
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &embeds,
	}); err != nil {
		slog.Warn("can't respond", "handler", "event-list", "error", err)
	}
	return nil
}

func (d *Discord) colorSelectHandler() func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if !d.isActor(i) {
			utils.InteractRespEphemeral(s, i, "This form belongs to someone else.")
			return nil
		}
		values := i.MessageComponentData().Values
		if len(values) == 0 {
			utils.InteractRespEphemeral(s, i, "No color selected.")
			return nil
		}
		d.setPending(i.Interaction, pendingComponent)
		if err := d.ctrl.Dispatch(context.Background(), workflow.Action{
			Kind:  workflow.ActionColorSelect,
			Color: values[0],
		}); err != nil {
			slog.Debug("surface: color select failed", "error", err)
		}
		d.finishPending("No event form is open.")
		return nil
	}
}

func (d *Discord) cancelButtonHandler() func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if !d.isActor(i) {
			utils.InteractRespEphemeral(s, i, "This form belongs to someone else.")
			return nil
		}
		d.setPending(i.Interaction, pendingComponent)
		if err := d.ctrl.Dispatch(context.Background(), workflow.Action{
			Kind: workflow.ActionCancel,
		}); err != nil {
			slog.Debug("surface: cancel failed", "error", err)
		}
		d.finishPending("No event form is open.")
		return nil
	}
}

func (d *Discord) deleteButtonHandler() func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if !d.isActor(i) {
			utils.InteractRespEphemeral(s, i, "This form belongs to someone else.")
			return nil
		}
		d.setPending(i.Interaction, pendingComponent)
		if err := d.ctrl.Dispatch(context.Background(), workflow.Action{
			Kind: workflow.ActionDelete,
		}); err != nil {
			slog.Debug("surface: delete failed", "error", err)
		}
		d.finishPending("Can't delete the event.")
		return nil
	}
}

func (d *Discord) isActor(i *discordgo.InteractionCreate) bool {
	userID, _ := interactionUser(i)
	d.mu.Lock()
	defer d.mu.Unlock()
	return userID != "" && userID == d.actorID
}

// ActorUser returns the registered user driving the open workflow, nil
// when they never ran /register.
func (d *Discord) ActorUser(ctx context.Context) *model.User {
	d.mu.Lock()
	actorID := d.actorID
	d.mu.Unlock()
	if actorID == "" {
		return nil
	}
	userModel := new(model.User)
	if err := d.as.BunDB.
		NewSelect().
		Model(userModel).
		Where("id = ?", actorID).
		Scan(ctx); err != nil {
		return nil
	}
	return userModel
}
