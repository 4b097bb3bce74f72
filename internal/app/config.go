package app

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	coreconfig "github.com/m3rciful/scriptbot/core/config"
	coredatabase "github.com/m3rciful/scriptbot/core/database"
	"github.com/m3rciful/scriptbot/core/telegram/state"
	"github.com/m3rciful/scriptbot/internal/moderation"
)

// ModerationConfig configures the review hand-off.
type ModerationConfig struct {
	// ReviewChatID is the chat that receives uploads and decides them.
	ReviewChatID int64 `yaml:"review_chat_id" envconfig:"MODERATION_REVIEW_CHAT_ID"`
	TTLHours     int   `yaml:"ttl_hours" envconfig:"MODERATION_TTL_HOURS"`
	Capacity     int   `yaml:"capacity" envconfig:"MODERATION_CAPACITY"`
}

// ConversationConfig bounds pending prompts.
type ConversationConfig struct {
	PendingTTLMinutes int `yaml:"pending_ttl_minutes" envconfig:"CONVERSATION_PENDING_TTL_MINUTES"`
	Capacity          int `yaml:"capacity" envconfig:"CONVERSATION_CAPACITY"`
}

// MarketplaceConfig configures catalog paging and uploads.
type MarketplaceConfig struct {
	PageSize       int   `yaml:"page_size" envconfig:"MARKETPLACE_PAGE_SIZE"`
	MaxScriptBytes int64 `yaml:"max_script_bytes" envconfig:"MARKETPLACE_MAX_SCRIPT_BYTES"`
}

// AppConfig holds settings that do not belong to a component.
type AppConfig struct {
	// Timezone decides what "today" means in login stats.
	Timezone string `yaml:"timezone" envconfig:"APP_TIMEZONE"`
}

// Config is the full configuration of the bot.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database     coredatabase.Config `yaml:"database"`
	Moderation   ModerationConfig    `yaml:"moderation"`
	Conversation ConversationConfig  `yaml:"conversation"`
	Marketplace  MarketplaceConfig   `yaml:"marketplace"`
	App          AppConfig           `yaml:"app"`

	location *time.Location
}

// CoreConfig exposes the shared core section.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Location returns the configured timezone; valid after Normalize.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// ModerationTTL returns how long a submission waits for review.
func (c *Config) ModerationTTL() time.Duration {
	return time.Duration(c.Moderation.TTLHours) * time.Hour
}

// PendingTTL returns how long a prompt waits for its answer.
func (c *Config) PendingTTL() time.Duration {
	return time.Duration(c.Conversation.PendingTTLMinutes) * time.Minute
}

// LoadConfig reads an optional .env file, the YAML file at path and the
// environment, then validates the result.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}

	if c.Moderation.ReviewChatID == 0 {
		return fmt.Errorf("moderation.review_chat_id is required")
	}
	if c.Moderation.TTLHours < 0 || c.Moderation.Capacity < 0 {
		return fmt.Errorf("moderation.ttl_hours and moderation.capacity must be >= 0")
	}
	if c.Moderation.TTLHours == 0 {
		c.Moderation.TTLHours = 72
	}
	if c.Moderation.Capacity == 0 {
		c.Moderation.Capacity = moderation.DefaultCapacity
	}
	if c.Moderation.Capacity < moderation.MinCapacity {
		return fmt.Errorf("moderation.capacity must be >= %d", moderation.MinCapacity)
	}

	if c.Conversation.PendingTTLMinutes < 0 || c.Conversation.Capacity < 0 {
		return fmt.Errorf("conversation.pending_ttl_minutes and conversation.capacity must be >= 0")
	}
	if c.Conversation.PendingTTLMinutes == 0 {
		c.Conversation.PendingTTLMinutes = 15
	}
	if c.Conversation.Capacity == 0 {
		c.Conversation.Capacity = state.DefaultCapacity
	}
	if c.Conversation.Capacity < state.MinCapacity {
		return fmt.Errorf("conversation.capacity must be >= %d", state.MinCapacity)
	}

	if c.Marketplace.PageSize < 0 || c.Marketplace.MaxScriptBytes < 0 {
		return fmt.Errorf("marketplace.page_size and marketplace.max_script_bytes must be >= 0")
	}
	if c.Marketplace.PageSize == 0 {
		c.Marketplace.PageSize = 5
	}
	if c.Marketplace.MaxScriptBytes == 0 {
		c.Marketplace.MaxScriptBytes = 512 << 10
	}

	if c.App.Timezone == "" {
		c.App.Timezone = "Europe/Moscow"
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return fmt.Errorf("invalid app.timezone %q: %w", c.App.Timezone, err)
	}
	c.location = loc
	return nil
}
