package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/sobiamehak/humanoid-robotic-book/internal/config"
)

// OpenRouterBaseURL is the OpenAI-compatible endpoint OpenRouter exposes.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// ChatProvider generates answers through any OpenAI-compatible chat
// completions endpoint.
type ChatProvider struct {
	name        string
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewOpenRouter creates a provider pointed at OpenRouter.
func NewOpenRouter(apiKey, model string, temperature float64, maxTokens int) (*ChatProvider, error) {
	return newChatProvider("openrouter", OpenRouterBaseURL, apiKey, model, temperature, maxTokens)
}

// NewOpenAI creates a provider pointed at the OpenAI API.
func NewOpenAI(apiKey, model string, temperature float64, maxTokens int) (*ChatProvider, error) {
	return newChatProvider("openai", "", apiKey, model, temperature, maxTokens)
}

func newChatProvider(name, baseURL, apiKey, model string, temperature float64, maxTokens int) (*ChatProvider, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	if model == "" {
		return nil, errors.New("model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &ChatProvider{
		name:        name,
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

// Name implements Provider.
func (p *ChatProvider) Name() string { return p.name }

func (p *ChatProvider) params(query, contextText string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(userPrompt(query, contextText)),
		},
		Temperature: openai.Float(p.temperature),
		MaxTokens:   openai.Int(int64(p.maxTokens)),
	}
}

// Generate implements Provider.
func (p *ChatProvider) Generate(ctx context.Context, query, contextText string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, p.params(query, contextText))
	if err != nil {
		return "", fmt.Errorf("%s generation: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s generation: empty response", p.name)
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateStream implements Provider.
func (p *ChatProvider) GenerateStream(ctx context.Context, query, contextText string, emit func(fragment string)) error {
	stream := p.client.Chat.Completions.NewStreaming(ctx, p.params(query, contextText))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			emit(delta)
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("%s streaming: %w", p.name, err)
	}
	return nil
}

// CheckConnection implements Provider. A models listing is the cheapest
// authenticated call both endpoints support.
func (p *ChatProvider) CheckConnection(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx); err != nil {
		return fmt.Errorf("%s connection check: %w", p.name, err)
	}
	return nil
}

// FromConfig builds the provider chain in failover order. OpenRouter is
// primary when its key is present, then OpenAI. An empty chain is valid and
// means generation falls through to the local extractive responder.
func FromConfig(cfg config.LLMConfig) []Provider {
	var providers []Provider
	if cfg.OpenRouterKey != "" {
		if p, err := NewOpenRouter(cfg.OpenRouterKey, cfg.OpenRouterModel, cfg.Temperature, cfg.MaxOutputTokens); err == nil {
			providers = append(providers, p)
		}
	}
	if cfg.OpenAIKey != "" {
		if p, err := NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel, cfg.Temperature, cfg.MaxOutputTokens); err == nil {
			providers = append(providers, p)
		}
	}
	return providers
}
