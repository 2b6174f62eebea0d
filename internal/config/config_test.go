package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ibeckermayer/leadscout/internal/types"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Promotion.MaxPosts != 5 || cfg.Promotion.CommentsPerPost != 10 || cfg.Promotion.MinMatchScore != 40 {
		t.Fatalf("unexpected promotion defaults: %+v", cfg.Promotion)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Promotion.EngageDelay = Duration{90 * time.Second}
	cfg.Schedule.Keywords = []string{"standing desk", "ergonomic"}
	cfg.Generator.Provider = "gemini"

	if err := cfg.SaveFile(path); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Promotion.EngageDelay.Duration != 90*time.Second {
		t.Fatalf("engage delay = %v", got.Promotion.EngageDelay)
	}
	if got.Generator.Provider != "gemini" || len(got.Schedule.Keywords) != 2 {
		t.Fatalf("round trip lost values: %+v", got)
	}
}

func TestLoadFileKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[promotion]\nmax_posts = 12\nengage_delay = \"2m\"\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Promotion.MaxPosts != 12 || cfg.Promotion.EngageDelay.Duration != 2*time.Minute {
		t.Fatalf("file values not applied: %+v", cfg.Promotion)
	}
	if cfg.Promotion.CommentsPerPost != 10 || cfg.Platform.Adapter != "web" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	cases := map[string]func(*Config){
		"max posts zero":     func(c *Config) { c.Promotion.MaxPosts = 0 },
		"max posts too high": func(c *Config) { c.Promotion.MaxPosts = 21 },
		"negative score":     func(c *Config) { c.Promotion.MinMatchScore = -1 },
		"score too high":     func(c *Config) { c.Promotion.MinMatchScore = 100.5 },
		"score not a number": func(c *Config) { c.Promotion.MinMatchScore = math.NaN() },
		"bad adapter":        func(c *Config) { c.Platform.Adapter = "carrier-pigeon" },
		"bad provider":       func(c *Config) { c.Generator.Provider = "eliza" },
		"bad comment type":   func(c *Config) { c.Promotion.CommentType = "spam" },
		"empty schedule":     func(c *Config) { c.Schedule.Enabled = true },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		if err := cfg.Validate(); !errors.Is(err, types.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "wrong-provider")
	t.Setenv("REDDIT_CLIENT_ID", "cid")
	t.Setenv("LEADSCOUT_ADDR", "")

	cfg := Default()
	cfg.ApplyEnv()
	if cfg.Generator.Provider != "openai" || cfg.Generator.APIKey != "sk-test" {
		t.Fatalf("generator env not applied: %+v", cfg.Generator)
	}
	if cfg.Reddit.ClientID != "cid" {
		t.Fatalf("reddit env not applied: %+v", cfg.Reddit)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Fatalf("empty env var overrode addr: %q", cfg.Server.Addr)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("LEADSCOUT_TEST_ONLY_VAR=hello\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LEADSCOUT_TEST_ONLY_VAR", "")
	os.Unsetenv("LEADSCOUT_TEST_ONLY_VAR")

	LoadEnv(path)
	if got := os.Getenv("LEADSCOUT_TEST_ONLY_VAR"); got != "hello" {
		t.Fatalf("env var = %q", got)
	}
}
