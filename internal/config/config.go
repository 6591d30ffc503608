package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes automatic environment overrides, e.g.
// DICTANT_STORAGE_BACKEND.
const EnvPrefix = "DICTANT"

// ErrConfiguration wraps every loading and validation failure.
var ErrConfiguration = errors.New("configuration error")

// legacyEnv binds the variable names used by earlier deployments.
var legacyEnv = map[string]string{
	"telegram.token":   "BOT_TOKEN",
	"telegram.chat_id": "CHAT_ID",
}

// DefaultProviders lists the built-in backends in priority order.
func DefaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{
			Name:        "groq",
			Kind:        KindOpenAI,
			BaseURL:     "https://api.groq.com/openai/v1",
			Model:       "llama-3.3-70b-versatile",
			APIKeyEnv:   "GROQ_API_KEY",
			Timeout:     20 * time.Second,
			Temperature: 0.9,
		},
		{
			Name:        "openrouter",
			Kind:        KindOpenAI,
			BaseURL:     "https://openrouter.ai/api/v1",
			Model:       "meta-llama/llama-3.3-70b-instruct:free",
			APIKeyEnv:   "OPENROUTER_API_KEY",
			Timeout:     30 * time.Second,
			Temperature: 0.9,
		},
		{
			Name:        "gemini",
			Kind:        KindGemini,
			Model:       "gemini-2.0-flash",
			APIKeyEnv:   "GEMINI_API_KEY",
			Timeout:     20 * time.Second,
			Temperature: 0.9,
		},
		{
			Name:        "deepseek",
			Kind:        KindOpenAI,
			BaseURL:     "https://api.deepseek.com/v1",
			Model:       "deepseek-chat",
			APIKeyEnv:   "DEEPSEEK_API_KEY",
			Timeout:     30 * time.Second,
			Temperature: 0.9,
		},
		{
			Name:        "openai",
			Kind:        KindOpenAI,
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			Timeout:     20 * time.Second,
			Temperature: 0.9,
		},
	}
}

// Load builds the configuration from, in increasing precedence: defaults,
// the YAML file at path (optional), a .env file and the process environment.
func Load(path string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		// Prefixed names win over the legacy ones.
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("%w: failed to bind %s: %v", ErrConfiguration, env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}
	if len(cfg.Providers) == 0 && !v.IsSet("providers") {
		cfg.Providers = DefaultProviders()
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files without overriding
// variables already present. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// applyEnvOverrides resolves provider keys from their configured variables.
func (c *Config) applyEnvOverrides() {
	for i := range c.Providers {
		p := &c.Providers[i]
		if p.APIKey == "" && p.APIKeyEnv != "" {
			p.APIKey = strings.TrimSpace(os.Getenv(p.APIKeyEnv))
		}
		if p.Timeout == 0 {
			p.Timeout = 20 * time.Second
		}
	}
}

// EnabledProviders returns providers that have credentials, in order.
func (c *Config) EnabledProviders() []ProviderConfig {
	var out []ProviderConfig
	for _, p := range c.Providers {
		if p.Enabled() {
			out = append(out, p)
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.timeout", 10*time.Second)

	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.catalog_path", "sentences.json")
	v.SetDefault("storage.used_path", "used_sentences.txt")
	v.SetDefault("storage.pending_path", "pending_sentence.json")
	v.SetDefault("storage.db_path", "dictant.db")

	v.SetDefault("schedule.timezone", "Europe/Moscow")
	v.SetDefault("schedule.task_at", "09:00")
	v.SetDefault("schedule.answer_at", "21:00")
	v.SetDefault("schedule.window", 15*time.Minute)
	v.SetDefault("schedule.task_cron", "0 9 * * *")
	v.SetDefault("schedule.answer_cron", "0 21 * * *")
	v.SetDefault("schedule.demo_delay", time.Minute)
}
