package providers

import "strings"

type ProviderSpec struct {
	Name              string
	Keywords          []string // model name keywords for matching
	EnvKey            string   // environment variable for API key
	DefaultAPIBase    string   // default base URL
	IsGateway         bool     // multi-provider gateway (OpenRouter)
	DetectByKeyPrefix string   // detect by API key prefix (e.g. "sk-or-")
}

// Providers is the registry of known LLM providers.
var Providers = []ProviderSpec{
	{Name: "openrouter", Keywords: []string{"openrouter"}, EnvKey: "OPENROUTER_API_KEY", DefaultAPIBase: "https://openrouter.ai/api/v1", IsGateway: true, DetectByKeyPrefix: "sk-or-"},
	{Name: "anthropic", Keywords: []string{"claude", "anthropic"}, EnvKey: "ANTHROPIC_API_KEY"},
	{Name: "openai", Keywords: []string{"gpt", "o1", "o3", "chatgpt"}, EnvKey: "OPENAI_API_KEY"},
	{Name: "perplexity", Keywords: []string{"sonar", "perplexity"}, EnvKey: "PERPLEXITY_API_KEY", DefaultAPIBase: "https://api.perplexity.ai", DetectByKeyPrefix: "pplx-"},
	{Name: "custom"},
}

// FindByModel matches model name against Keywords, returns first match.
func FindByModel(model string) *ProviderSpec {
	lower := strings.ToLower(model)
	for i := range Providers {
		for _, kw := range Providers[i].Keywords {
			if strings.Contains(lower, kw) {
				return &Providers[i]
			}
		}
	}
	return nil
}

// FindGateway detects a gateway provider by API key prefix.
func FindGateway(apiKey string) *ProviderSpec {
	for i := range Providers {
		spec := &Providers[i]
		if spec.IsGateway && spec.DetectByKeyPrefix != "" && strings.HasPrefix(apiKey, spec.DetectByKeyPrefix) {
			return spec
		}
	}
	return nil
}

// FindByName returns the provider spec with an exact name match.
func FindByName(name string) *ProviderSpec {
	for i := range Providers {
		if Providers[i].Name == name {
			return &Providers[i]
		}
	}
	return nil
}
