// Package config loads the clubot YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath    = "clubot.yaml"
	DefaultPeriod  = 600
	DefaultBaseURL = "https://www.clubalpinlyon.fr/agenda"
	DefaultQuery   = "month={m}&year={Y}"
	DefaultDataDir = "~/.local/share/clubot"
)

// ErrConfigMissing is returned when the configuration file cannot be read
var ErrConfigMissing = errors.New("configuration missing")

// activity slugs become URL path segments and file names
var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// StorageConfig selects where histories are kept
type StorageConfig struct {
	// Backend is "file" (default) or "gist".
	Backend       string `yaml:"backend"`
	GistID        string `yaml:"gist_id"`
	GitHubToken   string `yaml:"github_token"`
	EncryptionKey string `yaml:"encryption_key"`
}

// TelegramConfig enables Telegram notifications when both fields are set
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// NotifyConfig lists the notification channels
type NotifyConfig struct {
	// DryRun prints notifications to stdout.
	DryRun   bool           `yaml:"dry_run"`
	Telegram TelegramConfig `yaml:"telegram"`
	// Twitter posts one status per new event; credentials come from the
	// TWITTER_* environment variables.
	Twitter bool `yaml:"twitter"`
	// Include and Exclude filter notified titles by keyword. The history
	// is not affected.
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// RetentionConfig controls pruning of the live history
type RetentionConfig struct {
	// ArchiveDeletedAfter moves deleted records discovered longer ago than
	// this into the archive document. Zero keeps everything.
	ArchiveDeletedAfter time.Duration `yaml:"archive_deleted_after"`
}

// Config is the top-level application configuration.
type Config struct {
	// Activities are the agenda slugs to watch, e.g. "alpinisme".
	Activities []string `yaml:"activities"`

	// Period is the number of seconds between two cycles.
	Period int `yaml:"period"`

	// Schedule is an optional cron spec overriding Period.
	Schedule string `yaml:"schedule"`

	// Browse opens the rendered history page when new events are found.
	Browse bool `yaml:"browse"`

	BaseURL   string `yaml:"base_url"`
	Query     string `yaml:"query"`
	UserAgent string `yaml:"user_agent"`

	DataDir       string `yaml:"data_dir"`
	LogLevel      string `yaml:"log_level"`
	MetricsListen string `yaml:"metrics_listen"`

	Storage   StorageConfig   `yaml:"storage"`
	Notify    NotifyConfig    `yaml:"notify"`
	Retention RetentionConfig `yaml:"retention"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Activities: []string{},
		Period:     DefaultPeriod,
		BaseURL:    DefaultBaseURL,
		Query:      DefaultQuery,
		DataDir:    DefaultDataDir,
		LogLevel:   "info",
		Storage:    StorageConfig{Backend: "file"},
		Notify:     NotifyConfig{DryRun: true},
	}
}

// Normalize fills in missing/zero values with defaults
func (c *Config) Normalize() {
	if c.Period <= 0 {
		c.Period = DefaultPeriod
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Query == "" {
		c.Query = DefaultQuery
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Activities == nil {
		c.Activities = []string{}
	}
}

// applyEnv lets secrets live outside the configuration file
func (c *Config) applyEnv() {
	setFromEnv(&c.Storage.GitHubToken, "GITHUB_TOKEN")
	setFromEnv(&c.Storage.EncryptionKey, "CLUBOT_ENCRYPTION_KEY")
	setFromEnv(&c.Notify.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setFromEnv(&c.Notify.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setFromEnv(&c.LogLevel, "CLUBOT_LOG_LEVEL")
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate reports configuration errors
func (c *Config) Validate() error {
	if len(c.Activities) == 0 {
		return errors.New("at least one activity is required")
	}

	seen := make(map[string]bool, len(c.Activities))
	for _, a := range c.Activities {
		if !slugPattern.MatchString(a) {
			return fmt.Errorf("invalid activity slug: %q", a)
		}
		if seen[a] {
			return fmt.Errorf("duplicate activity: %q", a)
		}
		seen[a] = true
	}

	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", c.Schedule, err)
		}
	}

	switch c.Storage.Backend {
	case "file":
	case "gist":
		if c.Storage.GistID == "" || c.Storage.GitHubToken == "" {
			return errors.New("gist storage requires gist_id and a GitHub token")
		}
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}

	if c.Retention.ArchiveDeletedAfter < 0 {
		return errors.New("retention.archive_deleted_after must not be negative")
	}

	return nil
}

// CronSpec returns the schedule driving the poll loop
func (c *Config) CronSpec() string {
	if c.Schedule != "" {
		return c.Schedule
	}
	return fmt.Sprintf("@every %ds", c.Period)
}

// Load reads, normalizes and validates the configuration at path.
// A missing or unreadable file yields ErrConfigMissing.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path is empty", ErrConfigMissing)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigMissing, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Normalize()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}
