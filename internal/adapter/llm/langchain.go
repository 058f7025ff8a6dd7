package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"smartquiz/internal/config"
	"smartquiz/internal/domain"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const (
	ollamaBackendName = "ollama"
	openAIBackendName = "openai"
)

// textModel is the slice of a langchaingo model the backend needs.
// *ollama.LLM and *openai.LLM both satisfy it.
type textModel interface {
	Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error)
}

// LangChainBackend calls any langchaingo text model. It backs both the local
// Ollama fallback and the OpenAI-compatible primary.
type LangChainBackend struct {
	name        string
	llm         textModel
	model       string
	temperature float64
	maxTokens   int
	logger      *zap.Logger
}

// NewOllamaBackend creates the local fallback backend.
func NewOllamaBackend(cfg config.FallbackConfig, gen config.LLMConfig, logger *zap.Logger) (*LangChainBackend, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("ollama server URL cannot be empty")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama model name cannot be empty")
	}

	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     10 * time.Second,
		},
	}
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.Host),
		ollama.WithModel(cfg.Model),
		ollama.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo Ollama client: %w", err)
	}

	b := newLangChainBackend(ollamaBackendName, llm, cfg.Model, gen, logger)
	b.logger.Info("Initialized Ollama backend", zap.String("host", cfg.Host), zap.String("model", cfg.Model))
	return b, nil
}

// NewOpenAIBackend creates an OpenAI-compatible primary backend. As with
// Gemini, a missing API key yields a backend whose calls fail with an auth error.
func NewOpenAIBackend(cfg config.OpenAIConfig, gen config.LLMConfig, logger *zap.Logger) (*LangChainBackend, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai model name cannot be empty")
	}
	if cfg.APIKey == "" {
		b := newLangChainBackend(openAIBackendName, nil, cfg.Model, gen, logger)
		b.logger.Warn("OpenAI API key is not configured; primary backend will report auth failures")
		return b, nil
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo OpenAI client: %w", err)
	}

	b := newLangChainBackend(openAIBackendName, llm, cfg.Model, gen, logger)
	b.logger.Info("Initialized OpenAI backend", zap.String("model", cfg.Model))
	return b, nil
}

func newLangChainBackend(name string, llm textModel, model string, gen config.LLMConfig, logger *zap.Logger) *LangChainBackend {
	return &LangChainBackend{
		name:        name,
		llm:         llm,
		model:       model,
		temperature: gen.Temperature,
		maxTokens:   gen.MaxOutputTokens,
		logger:      logger.With(zap.String("backend", name)),
	}
}

func (b *LangChainBackend) Name() string { return b.name }

// Call implements domain.Backend.
func (b *LangChainBackend) Call(ctx context.Context, prompt string, timeout time.Duration, model string) domain.BackendResult {
	if b.llm == nil {
		return domain.Failure(domain.NewBackendAuthError(b.name, "API key not configured", nil))
	}
	if model == "" {
		model = b.model
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := []llms.CallOption{
		llms.WithModel(model),
		llms.WithTemperature(b.temperature),
	}
	if b.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(b.maxTokens))
	}

	start := time.Now()
	b.logger.Info("Calling backend", zap.String("model", model), zap.Int("prompt_length", len(prompt)))
	response, err := b.llm.Call(ctx, prompt, opts...)
	if err != nil {
		failure := classifyError(ctx, b.name, err)
		b.logger.Warn("Backend call failed",
			zap.String("model", model),
			zap.String("code", string(failure.Code)),
			zap.String("reason", failure.Reason),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return domain.Failure(failure)
	}

	response = strings.TrimSpace(response)
	if response == "" {
		b.logger.Warn("Backend returned no text", zap.String("model", model))
		return domain.Failure(domain.NewBackendFailure(b.name, "empty response", false, nil))
	}

	b.logger.Debug("Raw backend response received", zap.String("model", model), zap.String("raw_response", response))
	return domain.Success(response)
}

var _ domain.Backend = (*LangChainBackend)(nil)
