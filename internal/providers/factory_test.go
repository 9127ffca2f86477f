package providers

import (
	"testing"

	"github.com/nestcare/carebot/internal/config"
)

func TestFromConfig_OpenAI(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Providers.OpenAI.APIKey = "sk-test"
	p, err := FromConfig(cfg, "gpt-4o")
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if _, ok := p.(*OpenAICompatProvider); !ok {
		t.Fatalf("expected OpenAICompatProvider, got %T", p)
	}
}

func TestFromConfig_Anthropic(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Providers.Anthropic.APIKey = "sk-ant"
	p, err := FromConfig(cfg, "claude-sonnet-4-20250514")
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if _, ok := p.(*AnthropicProvider); !ok {
		t.Fatalf("expected AnthropicProvider, got %T", p)
	}
}

func TestFromConfig_GatewayWins(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Providers.OpenAI.APIKey = "sk-test"
	cfg.Providers.OpenRouter.APIKey = "sk-or-xyz"
	p, err := FromConfig(cfg, "gpt-4o")
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if _, ok := p.(*OpenAICompatProvider); !ok {
		t.Fatalf("expected OpenAICompatProvider via gateway, got %T", p)
	}
}

func TestFromConfig_MissingKey(t *testing.T) {
	cfg := config.DefaultConfig()
	if _, err := FromConfig(cfg, "gpt-4o"); err == nil {
		t.Fatal("expected error without an API key")
	}
}

func TestFromConfig_UnknownModel(t *testing.T) {
	cfg := config.DefaultConfig()
	if _, err := FromConfig(cfg, "mystery-model"); err == nil {
		t.Fatal("expected error for unknown model without custom base URL")
	}

	cfg.Providers.Custom.BaseURL = "http://localhost:8000/v1"
	if _, err := FromConfig(cfg, "mystery-model"); err != nil {
		t.Fatalf("expected custom provider fallback, got %v", err)
	}
}
