package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	coreconfig "github.com/m3rciful/wordbot/core/config"
	coredatabase "github.com/m3rciful/wordbot/core/database"
	"github.com/m3rciful/wordbot/internal/knowledge"
)

// BotConfig holds chat-facing settings.
type BotConfig struct {
	// Timezone names the IANA zone used for date grouping and "today".
	Timezone string `yaml:"timezone" envconfig:"BOT_TIMEZONE"`
}

// JobsConfig controls the morning and evening batch endpoints.
type JobsConfig struct {
	// Listen is the address of the job listener in long-poll mode. In webhook
	// mode the endpoints share the webhook listener and Listen is ignored.
	Listen string `yaml:"listen" envconfig:"JOBS_LISTEN"`
	// Secret, when set, must be presented as "Authorization: Bearer <secret>".
	Secret      string `yaml:"secret" envconfig:"JOBS_SECRET"`
	Suggestions int    `yaml:"suggestions" envconfig:"JOBS_SUGGESTIONS"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database        coredatabase.Config `yaml:"database"`
	Knowledge       knowledge.Config    `yaml:"knowledge"`
	AuthorizedUsers []string            `yaml:"authorized_users" envconfig:"AUTHORIZED_USERS"`
	Bot             BotConfig           `yaml:"bot"`
	Jobs            JobsConfig          `yaml:"jobs"`

	location *time.Location
	userIDs  []int64
}

// CoreConfig exposes the embedded core section to the shared runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Location returns the parsed bot timezone. It is UTC before Normalize.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// UserIDs returns the authorized Telegram user ids in configuration order.
func (c *Config) UserIDs() []int64 {
	return c.userIDs
}

// Load reads the YAML file at path, overlays the environment and validates.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := c.Config.Normalize(); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}
	if err := c.Knowledge.Normalize(); err != nil {
		return err
	}

	ids, err := parseUserIDs(c.AuthorizedUsers)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("authorized_users must list at least one telegram user id")
	}
	c.userIDs = ids

	tz := strings.TrimSpace(c.Bot.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid bot.timezone %q: %w", c.Bot.Timezone, err)
	}
	c.Bot.Timezone = tz
	c.location = loc

	if c.Jobs.Suggestions <= 0 {
		c.Jobs.Suggestions = 3
	}
	c.Jobs.Listen = strings.TrimSpace(c.Jobs.Listen)
	return nil
}

func parseUserIDs(raw []string) ([]int64, error) {
	seen := make(map[int64]struct{}, len(raw))
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid authorized_users entry %q: %w", v, err)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
