package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BOT_TOKEN", "CHAT_ID", "DICTANT_TELEGRAM_TOKEN", "DICTANT_TELEGRAM_CHAT_ID",
		"GROQ_API_KEY", "OPENROUTER_API_KEY", "GEMINI_API_KEY", "DEEPSEEK_API_KEY", "OPENAI_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, backend string) (string, string) {
	t.Helper()
	dir := t.TempDir()

	catalog := `[
  {"id": 1, "en": "I like tea", "ru": "Я люблю чай", "topic": "☕ Напитки"},
  {"id": 2, "en": "We are late", "ru": "Мы опаздываем", "topic": "⏰ Время"}
]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sentences.json"), []byte(catalog), 0o600))

	cfg := strings.Join([]string{
		"storage:",
		"  backend: " + backend,
		"  catalog_path: " + filepath.Join(dir, "sentences.json"),
		"  used_path: " + filepath.Join(dir, "used.txt"),
		"  pending_path: " + filepath.Join(dir, "pending.json"),
		"  db_path: " + filepath.Join(dir, "dictant.db"),
		"providers: []",
		"schedule:",
		"  timezone: UTC",
		"",
	}, "\n")
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path, dir
}

func TestCatalogCommand(t *testing.T) {
	isolateEnv(t)
	path, _ := writeConfig(t, "file")

	assert.Equal(t, 0, run(context.Background(), []string{"--config", path, "catalog"}))
}

func TestTaskWithoutTelegramFails(t *testing.T) {
	isolateEnv(t)

	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			path, dir := writeConfig(t, backend)
			assert.Equal(t, 1, run(context.Background(), []string{"--config", path, "task"}))

			if backend == "file" {
				// State is recorded even though delivery failed.
				_, err := os.Stat(filepath.Join(dir, "pending.json"))
				assert.NoError(t, err)
			}
		})
	}
}

func TestIdleRunSucceeds(t *testing.T) {
	isolateEnv(t)
	path, _ := writeConfig(t, "file")

	assert.Equal(t, 0, run(context.Background(), []string{"--config", path, "run", "--mode", "idle"}))
}

func TestBadModeFails(t *testing.T) {
	isolateEnv(t)
	path, _ := writeConfig(t, "file")

	assert.Equal(t, 1, run(context.Background(), []string{"--config", path, "run", "--mode", "weekly"}))
}

func TestInvalidConfigFails(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logger:\n  level: verbose\n"), 0o600))

	assert.Equal(t, 1, run(context.Background(), []string{"--config", path, "catalog"}))
}
