package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tourneykit/slotbot/internal/bot"
	"github.com/tourneykit/slotbot/internal/config"
	"github.com/tourneykit/slotbot/internal/engine"
	"github.com/tourneykit/slotbot/internal/health"
	"github.com/tourneykit/slotbot/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logging
	setupLogging(cfg.LogLevel)

	slog.Info("Starting Tournament Slot Bot", "slots", len(cfg.Slots), "capacity", cfg.SlotCapacity)

	// Open the snapshot store and restore state
	st, err := openStore(cfg)
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		os.Exit(1)
	}

	snap, err := st.Load()
	if err != nil {
		slog.Error("Failed to load state snapshot", "error", err)
		os.Exit(1)
	}

	slotOrder := make([]engine.SlotID, len(cfg.Slots))
	for i, s := range cfg.Slots {
		slotOrder[i] = engine.SlotID(s.Name)
	}
	eng := engine.New(snap, st, engine.Options{
		SlotOrder:      slotOrder,
		Capacity:       cfg.SlotCapacity,
		Retention:      cfg.Retention,
		AllowMultiSlot: cfg.AllowMultiSlot,
	})

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create and start the bot
	b, err := bot.New(cfg, eng, st)
	if err != nil {
		slog.Error("Failed to create bot", "error", err)
		os.Exit(1)
	}

	if err := b.Start(ctx); err != nil {
		slog.Error("Failed to start bot", "error", err)
		os.Exit(1)
	}

	// Liveness endpoint for hosting keep-alive pings
	var hs *health.Server
	if cfg.HealthAddr != "" {
		hs = health.New(cfg.HealthAddr)
		hs.Start()
	}

	slog.Info("Bot is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
	cancel()

	if hs != nil {
		hs.Stop()
	}
	if err := b.Stop(); err != nil {
		slog.Error("Error during shutdown", "error", err)
	}

	slog.Info("Bot stopped")
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.StoreBackend == "sqlite" {
		return store.NewSQLiteStore(cfg.DatabasePath)
	}
	return store.NewFileStore(cfg.DataFile)
}

func setupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
