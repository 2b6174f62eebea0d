// Package generator turns prompts into text through a configured LLM provider.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ibeckermayer/leadscout/internal/config"
	"github.com/ibeckermayer/leadscout/internal/generator/providers"
	"github.com/ibeckermayer/leadscout/internal/store"
	"github.com/ibeckermayer/leadscout/internal/types"
)

// TextGenerator is the completion capability the pipeline depends on.
// Failures wrap types.ErrGeneration.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Provider defines the interface for LLM providers
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, req providers.Request) (string, error)
}

// Generator wraps a Provider with error classification and exchange caching
type Generator struct {
	provider  Provider
	system    string
	maxTokens int
	// cacheDir receives every exchange as JSON when set.
	cacheDir string
}

var _ TextGenerator = (*Generator)(nil)

// New creates a generator with the appropriate provider based on config
func New(ctx context.Context, cfg config.GeneratorConfig) (*Generator, error) {
	var provider Provider

	switch cfg.Provider {
	case config.ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required: %w", types.ErrValidation)
		}
		provider = providers.NewAnthropicProvider(cfg.APIKey, cfg.Model)
	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required: %w", types.ErrValidation)
		}
		provider = providers.NewOpenAIProvider(cfg.APIKey, cfg.Model)
	case config.ProviderOllama:
		provider = providers.NewOllamaProvider(cfg.BaseURL, cfg.Model)
	case config.ProviderGemini:
		p, err := providers.NewGeminiProvider(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		provider = p
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}

	g := NewWithProvider(provider, cfg.MaxTokens)
	if dir, err := store.LLMCacheDir(); err == nil {
		g.cacheDir = dir
	}
	return g, nil
}

// NewWithProvider wraps an already-built provider. Exchanges are not cached
// unless WithCacheDir is used.
func NewWithProvider(p Provider, maxTokens int) *Generator {
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &Generator{provider: p, system: systemPrompt, maxTokens: maxTokens}
}

// WithCacheDir makes the generator write each exchange to dir
func (g *Generator) WithCacheDir(dir string) *Generator {
	g.cacheDir = dir
	return g
}

// Name reports "provider/model"
func (g *Generator) Name() string {
	return g.provider.Name() + "/" + g.provider.Model()
}

// Complete runs one prompt. Empty output counts as a failure.
func (g *Generator) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := g.provider.Generate(ctx, providers.Request{
		System:    g.system,
		Prompt:    prompt,
		MaxTokens: g.maxTokens,
	})
	g.saveExchange(prompt, text, err)

	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", g.provider.Name(), types.ErrGeneration, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s returned empty response: %w", g.provider.Name(), types.ErrGeneration)
	}
	slog.Debug("[generator] completion", "provider", g.provider.Name(), "chars", len(text), "took", time.Since(start))
	return text, nil
}

func (g *Generator) saveExchange(prompt, response string, callErr error) {
	if g.cacheDir == "" {
		return
	}
	exchange := store.LLMExchange{
		Timestamp: time.Now(),
		Provider:  g.provider.Name(),
		Model:     g.provider.Model(),
		Prompt:    prompt,
		Response:  response,
	}
	if callErr != nil {
		exchange.Error = callErr.Error()
	}
	if cachePath, err := store.SaveLLMExchange(g.cacheDir, exchange); err != nil {
		slog.Warn("[generator] failed to cache LLM exchange", "error", err)
	} else {
		slog.Debug("[generator] cached LLM exchange", "path", cachePath)
	}
}

// Keywords asks gen for search keywords describing productDescription.
// The result is cleaned and split; an empty result is an error.
func Keywords(ctx context.Context, gen TextGenerator, productDescription string) ([]string, error) {
	raw, err := gen.Complete(ctx, KeywordPrompt(productDescription))
	if err != nil {
		return nil, err
	}
	keywords := strings.Fields(CleanKeywords(raw))
	if len(keywords) == 0 {
		return nil, fmt.Errorf("no keywords in response: %w", types.ErrGeneration)
	}
	return keywords, nil
}
