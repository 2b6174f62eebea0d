package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ibeckermayer/leadscout/internal/types"
)

// LLM providers understood by the generator factory
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderGemini    = "gemini"
)

// Config holds all application configuration
type Config struct {
	Version   int             `toml:"version"`
	Platform  PlatformConfig  `toml:"platform"`
	Reddit    RedditConfig    `toml:"reddit"`
	Generator GeneratorConfig `toml:"generator"`
	Promotion PromotionConfig `toml:"promotion"`
	Server    ServerConfig    `toml:"server"`
	Schedule  ScheduleConfig  `toml:"schedule"`
	Email     EmailConfig     `toml:"email"`
	Logging   LoggingConfig   `toml:"logging"`
}

// PlatformConfig selects and tunes the platform adapter
type PlatformConfig struct {
	// Adapter is "web" (real browser) or "api" (OAuth JSON API).
	Adapter      string   `toml:"adapter"`
	Headless     bool     `toml:"headless"`
	LoginTimeout Duration `toml:"login_timeout"`
	PageTimeout  Duration `toml:"page_timeout"`
	RetryMax     int      `toml:"retry_max_attempts"`
}

type RedditConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	UserAgent    string `toml:"user_agent"`
}

type GeneratorConfig struct {
	// Provider is one of anthropic, openai, ollama, gemini.
	Provider  string `toml:"provider"`
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	BaseURL   string `toml:"base_url"`
	MaxTokens int    `toml:"max_tokens"`
}

type PromotionConfig struct {
	MaxPosts        int      `toml:"max_posts"`
	CommentsPerPost int      `toml:"comments_per_post"`
	MinMatchScore   float64  `toml:"min_match_score"`
	MaxEngagements  int      `toml:"max_engagements"`
	EngageDelay     Duration `toml:"engage_delay"`
	DryRun          bool     `toml:"dry_run"`
	CommentType     string   `toml:"comment_type"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type ScheduleConfig struct {
	Enabled            bool     `toml:"enabled"`
	Cron               string   `toml:"cron"`
	Timezone           string   `toml:"timezone"`
	ProductDescription string   `toml:"product_description"`
	Keywords           []string `toml:"keywords"`
}

type EmailConfig struct {
	Provider string `toml:"provider"`
	SMTPHost string `toml:"smtp_host"`
	SMTPPort int    `toml:"smtp_port"`
	SMTPUser string `toml:"smtp_user"`
	SMTPPass string `toml:"smtp_pass"`
	FromAddr string `toml:"from_address"`
	ToAddr   string `toml:"to_address"`
}

// Enabled reports whether enough is configured to send mail
func (e EmailConfig) Enabled() bool {
	return e.SMTPHost != "" && e.FromAddr != "" && e.ToAddr != ""
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration stored as a string like "45s" in TOML
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Platform: PlatformConfig{
			Adapter:      "web",
			Headless:     true,
			LoginTimeout: Duration{5 * time.Minute},
			PageTimeout:  Duration{time.Minute},
			RetryMax:     4,
		},
		Reddit: RedditConfig{
			UserAgent: "leadscout/0.1",
		},
		Generator: GeneratorConfig{
			Provider:  ProviderAnthropic,
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 500,
		},
		Promotion: PromotionConfig{
			MaxPosts:        5,
			CommentsPerPost: 10,
			MinMatchScore:   40,
			MaxEngagements:  3,
			EngageDelay:     Duration{45 * time.Second},
			CommentType:     string(types.CommentLeadGen),
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8085",
		},
		Schedule: ScheduleConfig{
			Cron:     "0 9 * * *",
			Timezone: "America/New_York",
			Keywords: []string{},
		},
		Email: EmailConfig{
			Provider: "smtp",
			SMTPPort: 587,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate rejects values outside the ranges the pipeline accepts
func (c *Config) Validate() error {
	switch c.Platform.Adapter {
	case "web", "api":
	default:
		return fmt.Errorf("platform.adapter %q: %w", c.Platform.Adapter, types.ErrValidation)
	}
	switch c.Generator.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderOllama, ProviderGemini:
	default:
		return fmt.Errorf("generator.provider %q: %w", c.Generator.Provider, types.ErrValidation)
	}
	p := c.Promotion
	if p.MaxPosts < 1 || p.MaxPosts > 20 {
		return fmt.Errorf("promotion.max_posts %d not in [1,20]: %w", p.MaxPosts, types.ErrValidation)
	}
	if !(p.MinMatchScore >= 0 && p.MinMatchScore <= 100) {
		return fmt.Errorf("promotion.min_match_score %v not in [0,100]: %w", p.MinMatchScore, types.ErrValidation)
	}
	if p.CommentsPerPost < 1 {
		return fmt.Errorf("promotion.comments_per_post must be positive: %w", types.ErrValidation)
	}
	if p.MaxEngagements < 0 {
		return fmt.Errorf("promotion.max_engagements must not be negative: %w", types.ErrValidation)
	}
	if p.EngageDelay.Duration < 0 {
		return fmt.Errorf("promotion.engage_delay must not be negative: %w", types.ErrValidation)
	}
	if _, ok := types.ParseCommentType(p.CommentType); !ok {
		return fmt.Errorf("promotion.comment_type %q: %w", p.CommentType, types.ErrValidation)
	}
	if c.Schedule.Enabled && c.Schedule.ProductDescription == "" && len(c.Schedule.Keywords) == 0 {
		return fmt.Errorf("schedule needs a product_description or keywords: %w", types.ErrValidation)
	}
	return nil
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "leadscout"), nil
}

// CacheDir returns the directory for debug artifacts and the run database
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "leadscout"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads config from disk
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads config from path. Keys missing from the file keep their
// default values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes config to path, creating its directory if needed
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
