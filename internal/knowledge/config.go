package knowledge

import (
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

const (
	// ProviderAnthropic selects the Anthropic Messages API.
	ProviderAnthropic = "anthropic"
	// ProviderOpenAI selects the OpenAI Chat Completions API.
	ProviderOpenAI = "openai"
)

// Config selects and tunes the language model backend.
type Config struct {
	Provider string `yaml:"provider" envconfig:"KNOWLEDGE_PROVIDER"`
	// APIKey overrides the SDK default (ANTHROPIC_API_KEY or OPENAI_API_KEY).
	APIKey    string        `yaml:"api_key" envconfig:"KNOWLEDGE_API_KEY"`
	Model     string        `yaml:"model" envconfig:"KNOWLEDGE_MODEL"`
	MaxTokens int64         `yaml:"max_tokens" envconfig:"KNOWLEDGE_MAX_TOKENS"`
	Timeout   time.Duration `yaml:"timeout" envconfig:"KNOWLEDGE_TIMEOUT"`
}

// Normalize validates the provider and fills per-provider defaults.
func (c *Config) Normalize() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	switch c.Provider {
	case "", "claude", ProviderAnthropic:
		c.Provider = ProviderAnthropic
		if c.Model == "" {
			c.Model = string(anthropic.ModelClaudeHaiku4_5)
		}
	case ProviderOpenAI:
		if c.Model == "" {
			c.Model = openai.ChatModelGPT4oMini
		}
	default:
		return fmt.Errorf("invalid knowledge.provider %q; allowed: anthropic, openai", c.Provider)
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1024
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}

// New returns the Provider backed by the configured SDK.
func New(cfg Config) (*Provider, error) {
	var llm Completer
	switch cfg.Provider {
	case ProviderAnthropic:
		llm = NewAnthropic(cfg)
	case ProviderOpenAI:
		llm = NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("knowledge: unsupported provider %q", cfg.Provider)
	}
	return NewProvider(llm, cfg.Provider+"/"+cfg.Model, cfg.Timeout), nil
}
