package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	DiscordToken string
	GuildID      string

	// Channels
	AdminChannelID        string
	RegistrationChannelID string
	CancelChannelID       string
	AdminLogChannelID     string

	// Slots
	SlotsFile      string
	Slots          []Slot
	SlotCapacity   int
	AllowMultiSlot bool

	// Storage
	StoreBackend string // "file" or "sqlite"
	DataFile     string
	DatabasePath string

	// Reset sweep
	ResetTime     string // HH:MM local time
	ResetLocation *time.Location
	Retention     time.Duration

	// Interactive flows
	FlowTimeout time.Duration

	// Liveness endpoint; empty disables it
	HealthAddr string

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables and the slots file
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:          os.Getenv("DISCORD_BOT_TOKEN"),
		GuildID:               os.Getenv("GUILD_ID"),
		AdminChannelID:        os.Getenv("ADMIN_CHANNEL_ID"),
		RegistrationChannelID: os.Getenv("REGISTRATION_CHANNEL_ID"),
		CancelChannelID:       os.Getenv("CANCEL_CHANNEL_ID"),
		AdminLogChannelID:     os.Getenv("ADMIN_LOG_CHANNEL_ID"),
		SlotsFile:             getEnvOrDefault("SLOTS_FILE", "slots.yaml"),
		StoreBackend:          getEnvOrDefault("STORE_BACKEND", "file"),
		DataFile:              getEnvOrDefault("DATA_FILE", "./data/slots.json"),
		DatabasePath:          getEnvOrDefault("DATABASE_PATH", "./data/slots.db"),
		ResetTime:             getEnvOrDefault("RESET_TIME", "06:00"),
		HealthAddr:            getEnvOrDefault("HEALTH_ADDR", ":8080"),
		LogLevel:              getEnvOrDefault("LOG_LEVEL", "info"),
	}

	capacity, err := getEnvInt("SLOT_CAPACITY", 20)
	if err != nil {
		return nil, err
	}
	cfg.SlotCapacity = capacity

	retentionDays, err := getEnvInt("RETENTION_DAYS", 7)
	if err != nil {
		return nil, err
	}
	cfg.Retention = time.Duration(retentionDays) * 24 * time.Hour

	flowSeconds, err := getEnvInt("FLOW_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	cfg.FlowTimeout = time.Duration(flowSeconds) * time.Second

	cfg.AllowMultiSlot = getEnvOrDefault("ALLOW_MULTI_SLOT", "true") != "false"

	loc, err := time.LoadLocation(getEnvOrDefault("RESET_TZ", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid RESET_TZ: %w", err)
	}
	cfg.ResetLocation = loc

	if _, err := time.Parse("15:04", cfg.ResetTime); err != nil {
		return nil, fmt.Errorf("invalid RESET_TIME %q: expected HH:MM", cfg.ResetTime)
	}

	// Validate required fields
	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	if cfg.GuildID == "" {
		return nil, fmt.Errorf("GUILD_ID is required")
	}
	if cfg.AdminChannelID == "" {
		return nil, fmt.Errorf("ADMIN_CHANNEL_ID is required")
	}
	if cfg.RegistrationChannelID == "" {
		return nil, fmt.Errorf("REGISTRATION_CHANNEL_ID is required")
	}
	if cfg.StoreBackend != "file" && cfg.StoreBackend != "sqlite" {
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: must be file or sqlite", cfg.StoreBackend)
	}

	slots, err := LoadSlots(cfg.SlotsFile)
	if err != nil {
		return nil, err
	}
	cfg.Slots = slots

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
