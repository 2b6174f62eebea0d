package providers

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ibeckermayer/leadscout/internal/config"
)

// DefaultOllamaBaseURL is Ollama's OpenAI-compatible endpoint
const DefaultOllamaBaseURL = "http://localhost:11434/v1"

// OpenAIProvider completes prompts with the chat completions API. It also
// serves Ollama, which speaks the same protocol under a different base URL.
type OpenAIProvider struct {
	client *openai.Client
	name   string
	model  string
}

// NewOpenAIProvider creates a provider against api.openai.com
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		name:   config.ProviderOpenAI,
		model:  model,
	}
}

// NewOllamaProvider creates a provider against a local Ollama server.
// Ollama ignores the API key but the client requires one.
func NewOllamaProvider(baseURL, model string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	if model == "" {
		model = "llama2"
	}
	return &OpenAIProvider{
		client: openai.NewClient(
			option.WithAPIKey("ollama"),
			option.WithBaseURL(baseURL),
		),
		name:  config.ProviderOllama,
		model: model,
	}
}

func (p *OpenAIProvider) Name() string  { return p.name }
func (p *OpenAIProvider) Model() string { return p.model }

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	chatCompletion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    openai.F(messages),
		Model:       openai.F(openai.ChatModel(p.model)),
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return "", fmt.Errorf("failed to call %s API: %w", p.name, err)
	}
	if len(chatCompletion.Choices) == 0 {
		return "", nil
	}
	return chatCompletion.Choices[0].Message.Content, nil
}
