// Package ai wraps the OpenAI-compatible model provider: client construction,
// model-variant resolution, system prompts, the relevance classifier, title
// generation, and the streaming turn loop with tool calling.
package ai

import (
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/finchat/go-finance-chat-backend/internal/config"
)

// Public model-variant identifiers accepted by the turn endpoint. The actual
// provider model behind each variant comes from configuration.
const (
	VariantSmall     = "chat-model-small"
	VariantLarge     = "chat-model-large"
	VariantReasoning = "chat-model-reasoning"
)

// ErrUnknownVariant is returned when a request names a model variant that is
// not one of the public identifiers.
var ErrUnknownVariant = errors.New("unknown model variant")

// NewClient builds a provider client from configuration. An empty BaseURL
// falls through to the provider default.
func NewClient(cfg config.LLMConfig) *openai.Client {
	opts := []option.RequestOption{}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	return openai.NewClient(opts...)
}

// ResolveModel maps a public variant identifier to the configured provider
// model name. The reasoning flag tells the streamer to split <think> blocks
// out of the answer and to disable tool calling for that variant.
func ResolveModel(cfg config.LLMConfig, variant string) (model string, reasoning bool, err error) {
	switch variant {
	case VariantSmall, "":
		return cfg.SmallModel, false, nil
	case VariantLarge:
		return cfg.LargeModel, false, nil
	case VariantReasoning:
		return cfg.ReasoningModel, true, nil
	default:
		return "", false, ErrUnknownVariant
	}
}
