package llm

import (
	"context"
	"fmt"

	"smartquiz/internal/config"
	"smartquiz/internal/domain"

	"go.uber.org/zap"
)

// NewPrimaryBackend creates the configured primary backend.
func NewPrimaryBackend(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (domain.Backend, error) {
	switch cfg.Primary.Provider {
	case config.ProviderGemini:
		b, err := NewGeminiBackend(ctx, cfg.Primary.Gemini, cfg, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.ProviderOpenAI:
		b, err := NewOpenAIBackend(cfg.Primary.OpenAI, cfg, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Primary.Provider)
}

// NewFallbackBackend creates the local Ollama backend, or returns nil when
// fallback is disabled.
func NewFallbackBackend(cfg config.LLMConfig, logger *zap.Logger) (domain.Backend, error) {
	if !cfg.FallbackEnabled {
		logger.Info("Ollama fallback is disabled")
		return nil, nil
	}
	b, err := NewOllamaBackend(cfg.Fallback, cfg, logger)
	if err != nil {
		return nil, err
	}
	return b, nil
}
