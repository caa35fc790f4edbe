package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"orderboard_agent/internal/config"
)

// NewChatModel creates a chat model for the configured provider. The openai
// provider also serves OpenAI-compatible gateways via base_url; ollama is
// the local development provider.
func NewChatModel(ctx context.Context, cfg config.ModelConfig, apiKey string) (model.BaseChatModel, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		maxTokens := cfg.MaxTokens
		temperature := float32(cfg.Temperature)
		modelConfig := &openai.ChatModelConfig{
			APIKey:      apiKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Name,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		}
		m, err := openai.NewChatModel(ctx, modelConfig)
		if err != nil {
			return nil, fmt.Errorf("error creating openai chat model: %w", err)
		}
		return m, nil

	case "ollama":
		m, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Name,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating ollama chat model: %w", err)
		}
		return m, nil

	default:
		return nil, fmt.Errorf("unknown model provider: %s", cfg.Provider)
	}
}
