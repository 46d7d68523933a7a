package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

type ServerConfig struct {
	Addr string `yaml:"addr" split_words:"true"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" split_words:"true"` // memory | sqlite | postgres
	DSN    string `yaml:"dsn" split_words:"true"`
}

type SeedConfig struct {
	Enabled    *bool `yaml:"enabled" split_words:"true"`
	Days       int   `yaml:"days" split_words:"true"`
	RandomSeed int64 `yaml:"random_seed" split_words:"true"`
}

type ScheduleConfig struct {
	ScoreCron  string `yaml:"score_cron" split_words:"true"`
	DigestCron string `yaml:"digest_cron" split_words:"true"`
	RunOnStart bool   `yaml:"run_on_start" split_words:"true"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token" split_words:"true"`
	ChatID   string `yaml:"chat_id" split_words:"true"`
}

type WatchConfig struct {
	StateFile string `yaml:"state_file" split_words:"true"`
}

type LogConfig struct {
	Level  string `yaml:"level" split_words:"true"`
	Format string `yaml:"format" split_words:"true"` // console | json
}

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Seed     SeedConfig     `yaml:"seed"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Telegram TelegramConfig `yaml:"telegram"`
	Watch    WatchConfig    `yaml:"watch"`
	Log      LogConfig      `yaml:"log"`
	Proxy    string         `yaml:"proxy" envconfig:"HTTPS_PROXY"`
}

// Path returns the config file location from CONFIG_PATH, or DefaultPath.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then a .env file, then environment
// overrides (TELEGRAM_BOT_TOKEN, DATABASE_DSN, ...), then fills defaults.
// A missing YAML or .env file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "memory"
	}
	if c.Database.Driver == "sqlite" && c.Database.DSN == "" {
		c.Database.DSN = "data/oiltracker.db"
	}
	if c.Seed.Enabled == nil {
		enabled := true
		c.Seed.Enabled = &enabled
	}
	if c.Seed.Days == 0 {
		c.Seed.Days = 30
	}
	if c.Schedule.ScoreCron == "" {
		c.Schedule.ScoreCron = "0 0 18 * * 1-5"
	}
	if c.Schedule.DigestCron == "" {
		c.Schedule.DigestCron = "0 30 7 * * 1-5"
	}
	if c.Watch.StateFile == "" {
		c.Watch.StateFile = "data/watch_state.json"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// SeedEnabled reports whether demo data should be written to an empty store.
func (c *Config) SeedEnabled() bool {
	return c.Seed.Enabled == nil || *c.Seed.Enabled
}

// TelegramEnabled reports whether Telegram delivery is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "memory":
	case "sqlite", "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be memory, sqlite or postgres, got %q", c.Database.Driver)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if _, err := cronParser.Parse(c.Schedule.ScoreCron); err != nil {
		return fmt.Errorf("schedule.score_cron: %w", err)
	}
	if _, err := cronParser.Parse(c.Schedule.DigestCron); err != nil {
		return fmt.Errorf("schedule.digest_cron: %w", err)
	}
	if c.Seed.Days < 0 {
		return fmt.Errorf("seed.days must not be negative")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}
