package llm

import (
	"context"
	"fmt"

	"EnergyAnalyst/internal/config"
	"EnergyAnalyst/internal/ports"
)

// New returns the completer for the configured provider. It returns (nil, nil) when no
// credential is configured so the caller can run without a generative backend.
func New(ctx context.Context, cfg config.LLMConfig) (ports.Completer, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderOpenAI, "":
		client, err := NewChatGPTClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
