package providers

import (
	"fmt"

	"github.com/nestcare/carebot/internal/config"
)

// FromConfig picks a provider implementation for the configured model:
// gateway key prefixes win, then model-name keywords, then the custom
// provider if a base URL is configured.
func FromConfig(cfg *config.Config, model string) (Provider, error) {
	if spec := FindGateway(cfg.Providers.OpenRouter.APIKey); spec != nil {
		return NewOpenAICompatProviderFromSpec(spec, cfg.Providers.OpenRouter.APIKey, cfg.Providers.OpenRouter.BaseURL), nil
	}

	spec := FindByModel(model)
	if spec == nil {
		if cfg.Providers.Custom.BaseURL != "" {
			return NewOpenAICompatProvider(cfg.Providers.Custom.APIKey, cfg.Providers.Custom.BaseURL, model), nil
		}
		return nil, fmt.Errorf("no provider matches model %q", model)
	}

	switch spec.Name {
	case "anthropic":
		if cfg.Providers.Anthropic.APIKey == "" {
			return nil, fmt.Errorf("anthropic api key not configured")
		}
		return NewAnthropicProvider(cfg.Providers.Anthropic.APIKey), nil
	case "openai":
		if cfg.Providers.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai api key not configured")
		}
		return NewOpenAICompatProvider(cfg.Providers.OpenAI.APIKey, cfg.Providers.OpenAI.BaseURL, model), nil
	case "perplexity":
		if cfg.Providers.Perplexity.APIKey == "" {
			return nil, fmt.Errorf("perplexity api key not configured")
		}
		return NewOpenAICompatProviderFromSpec(spec, cfg.Providers.Perplexity.APIKey, cfg.Providers.Perplexity.BaseURL), nil
	default:
		return nil, fmt.Errorf("no provider matches model %q", model)
	}
}
