package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/tourneykit/slotbot/internal/engine"
)

const commandPrefix = "!"

// handleMessage processes admin prefix commands. Commands are accepted
// only from administrators in the configured admin channel; the engine
// itself has no notion of channels or permissions.
func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if !strings.HasPrefix(m.Content, commandPrefix) {
		return
	}

	fields := strings.Fields(strings.TrimPrefix(m.Content, commandPrefix))
	if len(fields) == 0 {
		return
	}
	command, args := fields[0], fields[1:]

	switch command {
	case "setup", "lock", "unlock", "notify_pending", "notify_start", "force_remove", "init_tables":
	default:
		return
	}

	if m.ChannelID != b.config.AdminChannelID {
		b.sendTemp(s, m.ChannelID, fmt.Sprintf("❌ **Wrong Channel!** Admin commands only work in <#%s>", b.config.AdminChannelID))
		return
	}
	if !b.isAdministrator(s, m) {
		b.sendTemp(s, m.ChannelID, "❌ Administrator permission required.")
		return
	}

	slog.Info("Admin command", "command", command, "user", m.Author.ID)

	switch command {
	case "setup":
		b.handleSetup(s, m)
	case "lock":
		b.handleLock(s, m)
	case "unlock":
		b.handleUnlock(s, m)
	case "notify_pending":
		b.handleNotifyPending(s, m)
	case "notify_start":
		b.handleNotifyStart(s, m, args)
	case "force_remove":
		b.handleForceRemove(s, m, args)
	case "init_tables":
		b.handleInitTables(s, m)
	}
}

func (b *Bot) isAdministrator(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil {
		slog.Error("Failed to resolve permissions", "user", m.Author.ID, "error", err)
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}

// sendTemp posts a notice the channel can live with; delivery failures
// are only logged.
func (b *Bot) sendTemp(s *discordgo.Session, channelID, content string) {
	if _, err := s.ChannelMessageSend(channelID, content); err != nil {
		slog.Error("Failed to send message", "channel", channelID, "error", err)
	}
}

// handleSetup posts the public registration and release panels.
func (b *Bot) handleSetup(s *discordgo.Session, m *discordgo.MessageCreate) {
	_, err := s.ChannelMessageSendComplex(b.config.RegistrationChannelID, &discordgo.MessageSend{
		Content: "📝 **TOURNAMENT REGISTRATION**",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "📝 Register / Claim",
					Style:    discordgo.SuccessButton,
					CustomID: "register_button",
				},
				discordgo.Button{
					Label:    "⚡ Quick Claim (Auto-Assign)",
					Style:    discordgo.PrimaryButton,
					CustomID: "quick_claim_button",
				},
			}},
		},
	})
	if err != nil {
		slog.Error("Failed to post registration panel", "error", err)
		b.sendTemp(s, m.ChannelID, "❌ Failed to post registration panel.")
		return
	}

	if b.config.CancelChannelID != "" {
		options := make([]discordgo.SelectMenuOption, 0, len(b.engine.Slots()))
		for _, slot := range b.engine.Slots() {
			options = append(options, discordgo.SelectMenuOption{
				Label: string(slot),
				Value: string(slot),
			})
		}
		_, err = s.ChannelMessageSendComplex(b.config.CancelChannelID, &discordgo.MessageSend{
			Content: "🗑️ **RELEASE A SLOT**",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						CustomID:    "release_menu",
						Placeholder: "Pick the slot to release",
						Options:     options,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Release All",
						Style:    discordgo.DangerButton,
						CustomID: "release_all_button",
					},
				}},
			},
		})
		if err != nil {
			slog.Error("Failed to post release panel", "error", err)
		}
	}

	b.sendTemp(s, m.ChannelID, fmt.Sprintf("✅ Setup panels sent to <#%s>", b.config.RegistrationChannelID))
}

// handleLock closes registration; claims are refused until unlock or the
// daily reset.
func (b *Bot) handleLock(s *discordgo.Session, m *discordgo.MessageCreate) {
	if err := b.engine.SetRegistrationOpen(false); err != nil {
		slog.Error("Failed to persist lock", "error", err)
	}
	b.sendTemp(s, m.ChannelID, "⛔ **SYSTEM LOCKED.** No more claims allowed.")
	b.sendTemp(s, b.config.RegistrationChannelID, "⛔ **REGISTRATION CLOSED. MATCH STARTING.**")
}

// handleUnlock reopens registration.
func (b *Bot) handleUnlock(s *discordgo.Session, m *discordgo.MessageCreate) {
	if err := b.engine.SetRegistrationOpen(true); err != nil {
		slog.Error("Failed to persist unlock", "error", err)
	}
	b.sendTemp(s, m.ChannelID, "✅ **SYSTEM UNLOCKED.** Registration is open.")
}

// handleNotifyPending mentions every registered team without a slot and
// offers the quick-claim button.
func (b *Bot) handleNotifyPending(s *discordgo.Session, m *discordgo.MessageCreate) {
	pending := b.engine.PendingTeams()
	if len(pending) == 0 {
		b.sendTemp(s, m.ChannelID, "✅ Everyone has a slot!")
		return
	}

	mentions := make([]string, len(pending))
	for i, userID := range pending {
		mentions[i] = fmt.Sprintf("<@%s>", userID)
	}

	content := "⚠️ **LAST CALL FOR SLOTS!** ⚠️\n" +
		strings.Join(mentions, ", ") +
		"\n\n**Match starts in 15 mins!** Click below to auto-claim a spot."

	_, err := s.ChannelMessageSendComplex(b.config.RegistrationChannelID, &discordgo.MessageSend{
		Content: content,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "⚡ Quick Claim (Auto-Assign)",
					Style:    discordgo.PrimaryButton,
					CustomID: "quick_claim_button",
				},
			}},
		},
	})
	if err != nil {
		slog.Error("Failed to post last-call notice", "error", err)
		b.sendTemp(s, m.ChannelID, "❌ Failed to post the last-call notice.")
		return
	}
	b.sendTemp(s, m.ChannelID, fmt.Sprintf("✅ Notified %d pending users.", len(pending)))
}

// handleNotifyStart announces the match start time to one slot's list
// channel, or all of them.
func (b *Bot) handleNotifyStart(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) < 1 {
		b.sendTemp(s, m.ChannelID, "Usage: `!notify_start <minutes> [slot]`")
		return
	}
	minutes, err := strconv.Atoi(args[0])
	if err != nil || minutes < 0 {
		b.sendTemp(s, m.ChannelID, "Usage: `!notify_start <minutes> [slot]`")
		return
	}

	targets := b.engine.Slots()
	if len(args) > 1 {
		targets = []engine.SlotID{engine.SlotID(args[1])}
	}

	notice := fmt.Sprintf("🚨 **MATCH STARTS IN %d MINUTES!** Get ready.", minutes)
	sent := 0
	for _, slot := range targets {
		cfg, ok := b.slots[slot]
		if !ok || cfg.ListChannelID == "" {
			b.sendTemp(s, m.ChannelID, fmt.Sprintf("❌ Unknown slot **%s**.", slot))
			continue
		}
		if _, err := s.ChannelMessageSend(cfg.ListChannelID, notice); err != nil {
			slog.Error("Failed to send start notice", "slot", slot, "error", err)
			continue
		}
		sent++
	}
	b.sendTemp(s, m.ChannelID, fmt.Sprintf("✅ Start notice sent to %d slot channel(s).", sent))
}

// handleForceRemove kicks the occupant at a 1-based position out of a slot.
func (b *Bot) handleForceRemove(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) != 2 {
		b.sendTemp(s, m.ChannelID, "Usage: `!force_remove <slot> <position>`")
		return
	}
	position, err := strconv.Atoi(args[1])
	if err != nil {
		b.sendTemp(s, m.ChannelID, "Usage: `!force_remove <slot> <position>`")
		return
	}

	userID, effects, err := b.engine.ForceRemove(engine.SlotID(args[0]), position)
	if reason, ok := engine.RejectionReason(err); ok {
		b.sendTemp(s, m.ChannelID, reasonMessage(reason))
		return
	}
	if err != nil && !engine.IsPersistence(err) {
		slog.Error("Force remove failed", "error", err)
		b.sendTemp(s, m.ChannelID, "❌ Force remove failed.")
		return
	}
	go b.Execute(context.Background(), effects)
	if err != nil {
		slog.Error("State save failed after force remove", "error", err)
	}
	b.sendTemp(s, m.ChannelID, fmt.Sprintf("✅ Removed <@%s> from **%s** (position %d).", userID, args[0], position))
}

// handleInitTables posts or refreshes every slot's live-view table.
func (b *Bot) handleInitTables(s *discordgo.Session, m *discordgo.MessageCreate) {
	failed := 0
	for _, slot := range b.engine.Slots() {
		if err := b.upsertLiveView(slot); err != nil {
			slog.Error("Failed to init table", "slot", slot, "error", err)
			failed++
		}
	}
	if failed > 0 {
		b.sendTemp(s, m.ChannelID, fmt.Sprintf("⚠️ Tables initialized with %d failure(s).", failed))
		return
	}
	b.sendTemp(s, m.ChannelID, "✅ Slot tables initialized.")
}
