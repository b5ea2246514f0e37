package surface

import (
	"context"
	"log/slog"
	"strconv"

	"caldo/src-server/utils"
	"caldo/src-server/workflow"

	"github.com/bwmarrin/discordgo"
)

// The "Edit details" button opens the modal with the draft's current
// values; submitting the modal is the workflow's submit.
func (d *Discord) editButtonHandler() func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if !d.isActor(i) {
			utils.InteractRespEphemeral(s, i, "This form belongs to someone else.")
			return nil
		}

		draft := d.ctrl.Draft()
		if draft == nil {
			utils.InteractRespEphemeral(s, i, "No event form is open.")
			return nil
		}

		view := d.ctrl.View()
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseModal,
			Data: &discordgo.InteractionResponseData{
				CustomID: modalEventForm,
				Title:    view.SubmitLabel + " event",
				Components: []discordgo.MessageComponent{
					discordgo.ActionsRow{
						Components: []discordgo.MessageComponent{
							discordgo.TextInput{
								CustomID:  "title",
								Label:     "Title",
								Style:     discordgo.TextInputShort,
								Value:     view.Title,
								Required:  true,
								MaxLength: d.as.Config.GetMaxTitleLen(),
							},
						},
					},
					discordgo.ActionsRow{
						Components: []discordgo.MessageComponent{
							discordgo.TextInput{
								CustomID:  "description",
								Label:     "Description",
								Style:     discordgo.TextInputParagraph,
								Value:     view.Description,
								Required:  false,
								MaxLength: d.as.Config.GetMaxDescLen(),
							},
						},
					},
					discordgo.ActionsRow{
						Components: []discordgo.MessageComponent{
							discordgo.TextInput{
								CustomID:    "date",
								Label:       "Date",
								Style:       discordgo.TextInputShort,
								Value:       view.Date,
								Placeholder: "2024-06-01 or \"next friday\"",
								Required:    true,
							},
						},
					},
					discordgo.ActionsRow{
						Components: []discordgo.MessageComponent{
							discordgo.TextInput{
								CustomID:    "time",
								Label:       "Time (blank = whole day)",
								Style:       discordgo.TextInputShort,
								Value:       view.TimeOfDay,
								Placeholder: "09:30",
								Required:    false,
							},
						},
					},
					discordgo.ActionsRow{
						Components: []discordgo.MessageComponent{
							discordgo.TextInput{
								CustomID:    "duration",
								Label:       "Duration in minutes",
								Style:       discordgo.TextInputShort,
								Value:       strconv.Itoa(currentDuration(view)),
								Placeholder: "15, 30, 60, 90, 120, 180, 240, 480 or 1440",
								Required:    false,
							},
						},
					},
				},
			},
		}); err != nil {
			slog.Warn("can't respond", "surface", "edit-modal", "error", err)
		}
		return nil
	}
}

func (d *Discord) modalSubmitHandler() func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if !d.isActor(i) {
			utils.InteractRespEphemeral(s, i, "This form belongs to someone else.")
			return nil
		}

		raw := workflow.RawFields{}
		for _, row := range i.ModalSubmitData().Components {
			actionsRow, ok := row.(*discordgo.ActionsRow)
			if !ok || len(actionsRow.Components) == 0 {
				continue
			}
			textInput, ok := actionsRow.Components[0].(*discordgo.TextInput)
			if !ok {
				continue
			}
			switch textInput.CustomID {
			case "title":
				raw.Title = textInput.Value
			case "description":
				raw.Description = textInput.Value
			case "date":
				raw.Date = textInput.Value
			case "time":
				raw.TimeOfDay = textInput.Value
			case "duration":
				raw.Duration = textInput.Value
			}
		}

		d.setPending(i.Interaction, pendingModal)
		if err := d.ctrl.Dispatch(context.Background(), workflow.Action{
			Kind:   workflow.ActionSubmit,
			Fields: raw,
		}); err != nil {
			slog.Debug("surface: submit failed", "error", err)
		}
		d.finishPending("No event form is open.")
		return nil
	}
}

func currentDuration(view workflow.View) int {
	for _, choice := range view.DurationChoices {
		if choice.Current {
			return choice.Minutes
		}
	}
	return workflow.DefaultDurationMinutes
}
