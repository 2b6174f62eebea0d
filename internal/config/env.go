package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/subosito/gotenv"
)

// LoadEnv loads KEY=VALUE pairs from envFile into the process environment.
// Variables already set in the environment win.
func LoadEnv(envFile string) {
	if err := gotenv.Load(envFile); err != nil {
		slog.Debug("No .env file found, using OS environment", "path", envFile)
	}
}

// ApplyEnv overlays secrets and deployment settings from the environment.
// Empty variables are ignored.
func (c *Config) ApplyEnv() {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.Generator.Provider, "LEADSCOUT_LLM_PROVIDER", "LLM_PROVIDER")
	set(&c.Generator.Model, "LEADSCOUT_LLM_MODEL", "LLM_MODEL")
	set(&c.Generator.BaseURL, "LEADSCOUT_LLM_BASE_URL", "OLLAMA_BASE_URL")

	switch c.Generator.Provider {
	case ProviderAnthropic:
		set(&c.Generator.APIKey, "LEADSCOUT_LLM_API_KEY", "ANTHROPIC_API_KEY")
	case ProviderOpenAI:
		set(&c.Generator.APIKey, "LEADSCOUT_LLM_API_KEY", "OPENAI_API_KEY")
	case ProviderGemini:
		set(&c.Generator.APIKey, "LEADSCOUT_LLM_API_KEY", "GEMINI_API_KEY")
	default:
		set(&c.Generator.APIKey, "LEADSCOUT_LLM_API_KEY")
	}

	set(&c.Reddit.ClientID, "REDDIT_CLIENT_ID")
	set(&c.Reddit.ClientSecret, "REDDIT_CLIENT_SECRET")
	set(&c.Reddit.Username, "REDDIT_USERNAME")
	set(&c.Reddit.Password, "REDDIT_PASSWORD")
	set(&c.Reddit.UserAgent, "REDDIT_USER_AGENT")

	set(&c.Platform.Adapter, "LEADSCOUT_PLATFORM_ADAPTER")
	set(&c.Server.Addr, "LEADSCOUT_ADDR")
	set(&c.Logging.Level, "LEADSCOUT_LOG_LEVEL")

	set(&c.Email.SMTPHost, "LEADSCOUT_SMTP_HOST")
	set(&c.Email.SMTPUser, "LEADSCOUT_SMTP_USER")
	set(&c.Email.SMTPPass, "LEADSCOUT_SMTP_PASS")
}
