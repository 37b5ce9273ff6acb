package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 10*time.Second, cfg.Jobs.SweepInterval)
	assert.Equal(t, time.Duration(0), cfg.Jobs.BotInterval)
	assert.Equal(t, "simulated", cfg.Ledger.Mode)
	assert.Equal(t, 1000, cfg.Ledger.HistorySize)
	assert.Contains(t, cfg.GetDSN(), "dbname=oracle_market")
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CONFIG_FILE", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database:
  driver: sqlite
  sqlite_path: /tmp/market.db
app:
  jwt_secret: from-file
jobs:
  sweep_interval: 3s
  bot_interval: 1m
server:
  allowed_origins:
    - https://markets.example
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SWEEP_INTERVAL", "5s")
	t.Setenv("FRONTEND_URL", "https://app.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.App.JWTSecret)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/market.db", cfg.GetDSN())
	assert.Equal(t, 5*time.Second, cfg.Jobs.SweepInterval)
	assert.Equal(t, time.Minute, cfg.Jobs.BotInterval)
	assert.Equal(t, []string{"https://markets.example", "https://app.example"}, cfg.CORSOrigins())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CONFIG_FILE", "")

	t.Setenv("SWEEP_INTERVAL", "soon")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SWEEP_INTERVAL", "")
	t.Setenv("DB_DRIVER", "mysql")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("DB_DRIVER", "")
	t.Setenv("LEDGER_MODE", "solana")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadAIConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.AI.Enabled())
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("OPENAI_MODEL", "llama3")
	t.Setenv("AI_TIMEOUT", "5s")

	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.AI.Enabled())
	assert.Equal(t, "http://localhost:11434/v1", cfg.AI.BaseURL)
	assert.Equal(t, "llama3", cfg.AI.Model)
	assert.Equal(t, 5*time.Second, cfg.AI.Timeout)

	t.Setenv("AI_TIMEOUT", "soon")
	_, err = Load()
	assert.Error(t, err)
}
