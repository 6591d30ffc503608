// Package config manages application configuration from config.yaml,
// environment variables, a .env file and built-in defaults.
package config

import (
	"fmt"
	"time"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Provider kinds.
const (
	KindOpenAI = "openai"
	KindGemini = "gemini"
)

// Config is the complete application configuration. It is built once at
// start-up and passed to each component.
type Config struct {
	Logger    LoggerConfig     `mapstructure:"logger"`
	Telegram  TelegramConfig   `mapstructure:"telegram"`
	Storage   StorageConfig    `mapstructure:"storage"`
	Providers []ProviderConfig `mapstructure:"providers" validate:"dive"`
	Schedule  ScheduleConfig   `mapstructure:"schedule"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds delivery credentials. Missing credentials do not fail
// loading; delivery then fails closed.
type TelegramConfig struct {
	Token   string        `mapstructure:"token"`
	ChatID  string        `mapstructure:"chat_id"`
	Timeout time.Duration `mapstructure:"timeout" validate:"min=1s,max=5m"`
}

// StorageConfig locates the catalog and the persisted cross-run state.
type StorageConfig struct {
	Backend     string `mapstructure:"backend"      validate:"oneof=file sqlite"`
	CatalogPath string `mapstructure:"catalog_path" validate:"required"`
	UsedPath    string `mapstructure:"used_path"    validate:"required_if=Backend file"`
	PendingPath string `mapstructure:"pending_path" validate:"required_if=Backend file"`
	DBPath      string `mapstructure:"db_path"      validate:"required_if=Backend sqlite"`
}

// ProviderConfig describes one generation backend. A provider without an
// API key is disabled.
type ProviderConfig struct {
	Name        string        `mapstructure:"name"        validate:"required"`
	Kind        string        `mapstructure:"kind"        validate:"oneof=openai gemini"`
	BaseURL     string        `mapstructure:"base_url"    validate:"omitempty,url"`
	Model       string        `mapstructure:"model"       validate:"required"`
	APIKey      string        `mapstructure:"api_key"`
	APIKeyEnv   string        `mapstructure:"api_key_env"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=5m"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
}

// Enabled reports whether the provider has credentials.
func (p ProviderConfig) Enabled() bool {
	return p.APIKey != ""
}

// ScheduleConfig holds the clock-based mode windows and the cron
// expressions used by the in-process scheduler.
type ScheduleConfig struct {
	Timezone   string        `mapstructure:"timezone"    validate:"required,timezone"`
	TaskAt     string        `mapstructure:"task_at"     validate:"required,datetime=15:04"`
	AnswerAt   string        `mapstructure:"answer_at"   validate:"required,datetime=15:04"`
	Window     time.Duration `mapstructure:"window"      validate:"min=1m,max=12h"`
	TaskCron   string        `mapstructure:"task_cron"   validate:"required"`
	AnswerCron string        `mapstructure:"answer_cron" validate:"required"`
	DemoDelay  time.Duration `mapstructure:"demo_delay"  validate:"min=0"`
}

// Location resolves the schedule timezone.
func (s ScheduleConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}
