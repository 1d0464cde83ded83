package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tourneykit/slotbot/internal/engine"
)

// Execute runs the external effects produced by an engine mutation: role
// sync first, then live-view refreshes, in the order the engine emitted
// them. Failures are reported to the admin log channel but never undo
// the state mutation; the slot table is the source of truth and a later
// upsert heals any divergence.
func (b *Bot) Execute(ctx context.Context, effects []engine.Effect) {
	for _, effect := range effects {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var err error
		switch effect.Kind {
		case engine.EffectGrantRole:
			err = b.grantRole(effect.Slot, effect.UserID)
		case engine.EffectRevokeRole:
			err = b.revokeRole(effect.Slot, effect.UserID)
		case engine.EffectUpsertLiveView:
			err = b.upsertLiveView(effect.Slot)
		default:
			slog.Warn("Unknown effect kind", "kind", effect.Kind)
			continue
		}

		if err != nil {
			slog.Error("Effect execution failed",
				"kind", effect.Kind, "slot", effect.Slot, "user", effect.UserID, "error", err)
			b.logToAdmin(fmt.Sprintf("⚠️ Effect `%s` failed for slot **%s** (user <@%s>): %v",
				effect.Kind, effect.Slot, effect.UserID, err))
		}
	}
}

func (b *Bot) grantRole(slot engine.SlotID, userID string) error {
	cfg, ok := b.slots[slot]
	if !ok || cfg.RoleID == "" {
		return nil
	}
	if err := b.session.GuildMemberRoleAdd(b.config.GuildID, userID, cfg.RoleID); err != nil {
		return fmt.Errorf("grant role for %s: %w", slot, err)
	}
	return nil
}

func (b *Bot) revokeRole(slot engine.SlotID, userID string) error {
	cfg, ok := b.slots[slot]
	if !ok || cfg.RoleID == "" {
		return nil
	}
	if err := b.session.GuildMemberRoleRemove(b.config.GuildID, userID, cfg.RoleID); err != nil {
		return fmt.Errorf("revoke role for %s: %w", slot, err)
	}
	return nil
}

// upsertLiveView re-renders a slot's table message. If the recorded
// message was deleted externally, a fresh one is posted and its handle
// replaces the stale one.
func (b *Bot) upsertLiveView(slot engine.SlotID) error {
	cfg, ok := b.slots[slot]
	if !ok || cfg.ListChannelID == "" {
		return nil
	}

	content := b.engine.RenderSlot(slot)

	if messageID, ok := b.engine.TableMessage(slot); ok {
		if _, err := b.session.ChannelMessageEdit(cfg.ListChannelID, messageID, content); err == nil {
			return nil
		}
		slog.Warn("Live-view message missing, recreating", "slot", slot, "messageID", messageID)
	}

	msg, err := b.session.ChannelMessageSend(cfg.ListChannelID, content)
	if err != nil {
		return fmt.Errorf("post live view for %s: %w", slot, err)
	}
	if err := b.engine.SetTableMessage(slot, msg.ID); err != nil {
		slog.Error("Failed to persist live-view handle", "slot", slot, "error", err)
	}
	return nil
}

// logToAdmin posts to the admin log channel, if one is configured.
func (b *Bot) logToAdmin(content string) {
	if b.config.AdminLogChannelID == "" {
		return
	}
	if _, err := b.session.ChannelMessageSend(b.config.AdminLogChannelID, content); err != nil {
		slog.Error("Failed to write to admin log channel", "error", err)
	}
}
