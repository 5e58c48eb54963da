package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coredatabase "github.com/m3rciful/wordbot/core/database"
	"github.com/m3rciful/wordbot/internal/knowledge"
)

const sample = `
telegram:
  token: "123:abc"
database:
  driver: sqlite
  dsn: "file:words.db"
knowledge:
  provider: openai
  api_key: "sk-test"
  timeout: 5s
authorized_users: ["42", " 7 ", "42"]
bot:
  timezone: Europe/Berlin
jobs:
  secret: s3cret
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "longpoll", cfg.Telegram.RunMode)
	assert.Equal(t, coredatabase.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 1, cfg.Database.MaxConnections)
	assert.Equal(t, knowledge.ProviderOpenAI, cfg.Knowledge.Provider)
	assert.Equal(t, 5*time.Second, cfg.Knowledge.Timeout)
	assert.NotEmpty(t, cfg.Knowledge.Model)
	assert.Equal(t, []int64{42, 7}, cfg.UserIDs())
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
	assert.Equal(t, 3, cfg.Jobs.Suggestions)
	assert.Equal(t, "s3cret", cfg.Jobs.Secret)
	assert.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AUTHORIZED_USERS", "5,6")
	t.Setenv("JOBS_SUGGESTIONS", "5")

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6}, cfg.UserIDs())
	assert.Equal(t, 5, cfg.Jobs.Suggestions)
}

func TestNormalizeErrors(t *testing.T) {
	base := func() Config {
		var c Config
		c.Telegram.Token = "123:abc"
		c.Database = coredatabase.Config{Driver: "sqlite3", DSN: ":memory:"}
		c.AuthorizedUsers = []string{"1"}
		return c
	}

	c := base()
	c.AuthorizedUsers = nil
	assert.ErrorContains(t, c.Normalize(), "authorized_users")

	c = base()
	c.AuthorizedUsers = []string{"alice"}
	assert.ErrorContains(t, c.Normalize(), "alice")

	c = base()
	c.Bot.Timezone = "Mars/Olympus"
	assert.ErrorContains(t, c.Normalize(), "bot.timezone")

	c = base()
	c.Knowledge.Provider = "gemini"
	assert.Error(t, c.Normalize())

	c = base()
	require.NoError(t, c.Normalize())
	assert.Equal(t, time.UTC, c.Location())
	assert.Equal(t, knowledge.ProviderAnthropic, c.Knowledge.Provider)
}
