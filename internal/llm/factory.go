package llm

import (
	"context"
	"fmt"

	"career_coach_backend/internal/config"
)

// NewProvider creates a Provider from configuration, wrapped with
// instrumentation. Model calls are never retried.
func NewProvider(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "openai":
		base, err = NewOpenAIProvider(vendor(cfg.OpenAI))
	case "anthropic":
		base, err = NewAnthropicProvider(vendor(cfg.Anthropic))
	case "gemini":
		base, err = NewGeminiProvider(ctx, vendor(cfg.Gemini))
	case "mock":
		base = NewOfflineProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithInstrumentation(base, cfg.Provider), nil
}

func vendor(c config.LLMVendorConfig) VendorConfig {
	return VendorConfig{APIKey: c.APIKey, Model: c.Model, BaseURL: c.BaseURL}
}
