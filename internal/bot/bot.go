package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/tourneykit/slotbot/internal/config"
	"github.com/tourneykit/slotbot/internal/engine"
	"github.com/tourneykit/slotbot/internal/scheduler"
	"github.com/tourneykit/slotbot/internal/store"
)

// Bot wires the allocation engine to Discord: it translates button and
// modal interactions into engine operations and executes the effects the
// engine emits.
type Bot struct {
	config    *config.Config
	session   *discordgo.Session
	engine    *engine.Engine
	store     store.Store
	scheduler *scheduler.Scheduler
	flows     *flowRegistry
	slots     map[engine.SlotID]config.Slot
}

// New creates a new Bot instance
func New(cfg *config.Config, eng *engine.Engine, st store.Store) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	slots := make(map[engine.SlotID]config.Slot, len(cfg.Slots))
	for _, s := range cfg.Slots {
		slots[engine.SlotID(s.Name)] = s
	}

	b := &Bot{
		config:  cfg,
		session: session,
		engine:  eng,
		store:   st,
		flows:   newFlowRegistry(cfg.FlowTimeout),
		slots:   slots,
	}

	b.registerHandlers()

	return b, nil
}

// Start opens the Discord connection and starts the reset scheduler
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	slog.Info("Connected to Discord", "user", b.session.State.User.Username)

	b.scheduler = scheduler.New(b.engine, b, b.config.ResetTime, b.config.ResetLocation)
	go b.scheduler.Start(ctx)

	return nil
}

// Stop gracefully shuts down the bot
func (b *Bot) Stop() error {
	if b.scheduler != nil {
		b.scheduler.Stop()
	}

	if b.store != nil {
		if err := b.store.Close(); err != nil {
			slog.Error("Failed to close store", "error", err)
		}
	}

	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

// registerHandlers sets up Discord event handlers
func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleMessage)
	b.session.AddHandler(b.handleInteraction)
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("Bot is ready", "guilds", len(r.Guilds))
	})
}

// handleInteraction dispatches component clicks and modal submissions
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		b.handleComponent(s, i)
	case discordgo.InteractionModalSubmit:
		b.handleModalSubmit(s, i)
	}
}

// handleComponent routes a button click or select choice by custom ID.
// Flow-scoped components carry "<action>:<token>[:<arg>]".
func (b *Bot) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	slog.Debug("Received component interaction", "customID", customID, "user", interactionUserID(i))

	action, rest, _ := strings.Cut(customID, ":")
	switch action {
	case "register_button":
		b.handleRegisterButton(s, i)
	case "quick_claim_button":
		b.handleQuickClaim(s, i)
	case "release_menu":
		b.handleReleaseMenu(s, i)
	case "release_all_button":
		b.handleReleaseAll(s, i)
	case "claim_saved":
		b.handleClaimSaved(s, i, rest)
	case "reregister":
		b.handleReregister(s, i, rest)
	case "slot_claim":
		token, slot, _ := strings.Cut(rest, ":")
		b.handleSlotClaim(s, i, token, engine.SlotID(slot))
	default:
		slog.Warn("Unknown component", "customID", customID)
	}
}

// interactionUserID returns the acting user's ID for guild and DM
// interactions alike.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
