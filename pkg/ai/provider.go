package ai

import (
	"fmt"
	"strings"
	"time"
)

// ProviderConfig selects and configures one LLM backend. A zero Timeout
// keeps the provider default.
type ProviderConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// NewGenerator builds the configured provider. A missing API key for a
// hosted provider returns (nil, nil) so callers can run unconfigured.
func NewGenerator(cfg ProviderConfig) (JSONGenerator, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = "gemini"
	}
	var (
		gen JSONGenerator
		err error
	)
	// Each case assigns only on success so a failed constructor never
	// leaves a typed nil in gen.
	switch provider {
	case "gemini":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, nil
		}
		var g *Gemini
		if g, err = NewGemini(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout); err == nil {
			gen = g
		}
	case "openai", "openai-compat":
		if provider == "openai" && strings.TrimSpace(cfg.APIKey) == "" {
			return nil, nil
		}
		var g *OpenAICompat
		if g, err = NewOpenAICompat(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout); err == nil {
			gen = g
		}
	case "ollama":
		var g *Ollama
		if g, err = NewOllama(cfg.BaseURL, cfg.Model, cfg.Timeout); err == nil {
			gen = g
		}
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
	if err != nil {
		return nil, err
	}
	return gen, nil
}
