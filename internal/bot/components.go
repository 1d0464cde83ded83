package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/tourneykit/slotbot/internal/engine"
)

// reasonMessage maps a business-rule rejection to the user-facing reply.
func reasonMessage(r engine.Reason) string {
	switch r {
	case engine.ReasonRegistrationClosed:
		return "⛔ **Match is starting! Registration is closed.**"
	case engine.ReasonUnknownSlot:
		return "❌ That slot does not exist."
	case engine.ReasonSlotFull:
		return "❌ Slot Full."
	case engine.ReasonAlreadyClaimed:
		return "⚠️ You are already in that slot."
	case engine.ReasonNotRegistered:
		return "❌ Register first."
	case engine.ReasonNotOwner:
		return "❌ Your team does not hold that slot."
	case engine.ReasonAllSlotsFull:
		return "❌ All slots full!"
	case engine.ReasonEmptyPosition:
		return "❌ No team at that position."
	case engine.ReasonNothingBooked:
		return "❌ Your team holds no slots."
	case engine.ReasonAlreadyHasSlot:
		return "⚠️ Your team already has a slot."
	default:
		return "❌ Request refused."
	}
}

// replyToOutcome handles the shared tail of every claim-style handler:
// rejections become an ephemeral notice, persistence failures become a
// warning, success gets the provided confirmation.
func (b *Bot) replyToOutcome(s *discordgo.Session, i *discordgo.InteractionCreate, err error, success string) {
	if reason, ok := engine.RejectionReason(err); ok {
		b.ephemeral(s, i, reasonMessage(reason))
		return
	}
	if engine.IsPersistence(err) {
		slog.Error("State save failed after mutation", "error", err)
		b.ephemeral(s, i, success+"\n⚠️ Saving may have failed; an admin has been notified.")
		b.logToAdmin(fmt.Sprintf("⚠️ Persistence failure: %v", err))
		return
	}
	if err != nil {
		slog.Error("Unexpected engine failure", "error", err)
		b.ephemeral(s, i, "❌ Something went wrong. Please try again.")
		return
	}
	b.ephemeral(s, i, success)
}

// handleRegisterButton is the entry point of the registration panel. A
// returning captain gets a choice panel; a new one goes straight to the
// team modal.
func (b *Bot) handleRegisterButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.engine.RegistrationOpen() {
		b.ephemeral(s, i, reasonMessage(engine.ReasonRegistrationClosed))
		return
	}

	userID := interactionUserID(i)
	if _, registered := b.engine.Team(userID); !registered {
		b.openTeamModal(s, i, userID)
		return
	}

	token := b.flows.create(userID)
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Choose option:",
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "🏆 Claim Slot (Saved Team)",
						Style:    discordgo.SuccessButton,
						CustomID: "claim_saved:" + token,
					},
					discordgo.Button{
						Label:    "🆕 Create New Team",
						Style:    discordgo.PrimaryButton,
						CustomID: "reregister:" + token,
					},
				}},
			},
		},
	})
	if err != nil {
		slog.Error("Failed to send choice panel", "error", err)
	}
}

// handleClaimSaved shows the slot picker for a team that already exists.
func (b *Bot) handleClaimSaved(s *discordgo.Session, i *discordgo.InteractionCreate, token string) {
	userID := interactionUserID(i)
	if !b.flows.take(token, userID) {
		b.ephemeral(s, i, "⌛ That panel expired. Click Register again.")
		return
	}
	if _, registered := b.engine.Team(userID); !registered {
		b.ephemeral(s, i, "❌ No team found.")
		return
	}
	b.sendSlotPicker(s, i, userID, "Select a slot:")
}

// handleReregister reopens the team modal for an existing team.
func (b *Bot) handleReregister(s *discordgo.Session, i *discordgo.InteractionCreate, token string) {
	userID := interactionUserID(i)
	if !b.flows.take(token, userID) {
		b.ephemeral(s, i, "⌛ That panel expired. Click Register again.")
		return
	}
	b.openTeamModal(s, i, userID)
}

// openTeamModal presents the team registration form.
func (b *Bot) openTeamModal(s *discordgo.Session, i *discordgo.InteractionCreate, userID string) {
	token := b.flows.create(userID)

	textInput := func(id, label string, required bool) discordgo.ActionsRow {
		return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:  id,
				Label:     label,
				Style:     discordgo.TextInputShort,
				Required:  required,
				MaxLength: engine.MaxTeamNameLen,
			},
		}}
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: "team_modal:" + token,
			Title:    "Team Registration",
			Components: []discordgo.MessageComponent{
				textInput("team", "Team Name", true),
				textInput("p1", "Player 1", true),
				textInput("p2", "Player 2", false),
				textInput("p3", "Player 3", false),
				textInput("p4", "Player 4", false),
			},
		},
	})
	if err != nil {
		slog.Error("Failed to open team modal", "error", err)
	}
}

// handleModalSubmit saves the submitted team and offers the slot picker.
func (b *Bot) handleModalSubmit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	if !strings.HasPrefix(data.CustomID, "team_modal:") {
		slog.Warn("Unknown modal", "customID", data.CustomID)
		return
	}
	userID := interactionUserID(i)

	fields := make(map[string]string)
	for _, row := range data.Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, comp := range actionsRow.Components {
			if input, ok := comp.(*discordgo.TextInput); ok {
				fields[input.CustomID] = input.Value
			}
		}
	}

	team, effects, err := b.engine.RegisterTeam(userID, fields["team"],
		[]string{fields["p1"], fields["p2"], fields["p3"], fields["p4"]})
	if err != nil && !engine.IsPersistence(err) {
		b.ephemeral(s, i, fmt.Sprintf("❌ %v", err))
		return
	}
	// Re-registration may have released previous slots.
	go b.Execute(context.Background(), effects)
	if err != nil {
		slog.Error("State save failed after registration", "error", err)
	}

	b.sendSlotPicker(s, i, userID, fmt.Sprintf("✅ Team **%s** Saved! Select Slot:", team.Name))
}

// sendSlotPicker responds with one claim button per configured slot,
// scoped to a fresh flow token.
func (b *Bot) sendSlotPicker(s *discordgo.Session, i *discordgo.InteractionCreate, userID, content string) {
	token := b.flows.create(userID)

	var rows []discordgo.MessageComponent
	var row []discordgo.MessageComponent
	for _, slot := range b.engine.Slots() {
		row = append(row, discordgo.Button{
			Label:    string(slot),
			Style:    discordgo.SuccessButton,
			CustomID: fmt.Sprintf("slot_claim:%s:%s", token, slot),
		})
		if len(row) == 5 {
			rows = append(rows, discordgo.ActionsRow{Components: row})
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: row})
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Flags:      discordgo.MessageFlagsEphemeral,
			Components: rows,
		},
	})
	if err != nil {
		slog.Error("Failed to send slot picker", "error", err)
	}
}

// handleSlotClaim books the chosen slot.
func (b *Bot) handleSlotClaim(s *discordgo.Session, i *discordgo.InteractionCreate, token string, slot engine.SlotID) {
	userID := interactionUserID(i)
	if !b.flows.take(token, userID) {
		b.ephemeral(s, i, "⌛ That panel expired. Click Register again.")
		return
	}

	effects, err := b.engine.ClaimSlot(userID, slot)
	go b.Execute(context.Background(), effects)
	b.replyToOutcome(s, i, err, fmt.Sprintf("✅ Claimed **%s**.", slot))
}

// handleQuickClaim auto-assigns the first open slot.
func (b *Bot) handleQuickClaim(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)

	slot, effects, err := b.engine.AutoAssign(userID)
	go b.Execute(context.Background(), effects)
	b.replyToOutcome(s, i, err, fmt.Sprintf("✅ Auto-Assigned to **%s**!", slot))
}

// handleReleaseMenu releases the slot picked from the cancel panel's
// select menu. Ownership is enforced by the engine.
func (b *Bot) handleReleaseMenu(s *discordgo.Session, i *discordgo.InteractionCreate) {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		b.ephemeral(s, i, "❌ Pick a slot to release.")
		return
	}
	slot := engine.SlotID(values[0])
	userID := interactionUserID(i)

	effects, err := b.engine.ReleaseSlot(userID, slot)
	go b.Execute(context.Background(), effects)
	b.replyToOutcome(s, i, err, fmt.Sprintf("✅ Released **%s**.", slot))
}

// handleReleaseAll frees every slot the caller's team holds.
func (b *Bot) handleReleaseAll(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)

	count, effects, err := b.engine.ReleaseAll(userID)
	go b.Execute(context.Background(), effects)
	b.replyToOutcome(s, i, err, fmt.Sprintf("✅ Released %d slot(s).", count))
}

// ephemeral sends a reply only the acting user can see.
func (b *Bot) ephemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		slog.Error("Failed to respond to interaction", "error", err)
	}
}
