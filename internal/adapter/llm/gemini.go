package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"smartquiz/internal/config"
	"smartquiz/internal/domain"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const geminiBackendName = "gemini"

// contentGenerator is the part of genai.Models the backend uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiBackend is the primary backend, calling the Gemini API.
type GeminiBackend struct {
	models      contentGenerator
	model       string
	temperature float32
	maxTokens   int32
	logger      *zap.Logger
}

// NewGeminiBackend creates the Gemini backend. An empty API key is not an
// error here: every Call then fails with an auth error so that the fallback
// can take over.
func NewGeminiBackend(ctx context.Context, cfg config.GeminiConfig, gen config.LLMConfig, logger *zap.Logger) (*GeminiBackend, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini model name cannot be empty")
	}
	b := &GeminiBackend{
		model:       cfg.Model,
		temperature: float32(gen.Temperature),
		maxTokens:   int32(gen.MaxOutputTokens),
		logger:      logger.With(zap.String("backend", geminiBackendName)),
	}
	if cfg.APIKey == "" {
		b.logger.Warn("Gemini API key is not configured; primary backend will report auth failures")
		return b, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	b.models = client.Models
	b.logger.Info("Initialized Gemini backend", zap.String("model", cfg.Model))
	return b, nil
}

func (b *GeminiBackend) Name() string { return geminiBackendName }

// Call implements domain.Backend.
func (b *GeminiBackend) Call(ctx context.Context, prompt string, timeout time.Duration, model string) domain.BackendResult {
	if b.models == nil {
		return domain.Failure(domain.NewBackendAuthError(geminiBackendName, "API key not configured", nil))
	}
	if model == "" {
		model = b.model
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Temperature is always sent: a nil pointer means "use the model default",
	// which is not the same as a configured 0.
	temp := b.temperature
	genConfig := &genai.GenerateContentConfig{
		MaxOutputTokens: b.maxTokens,
		Temperature:     &temp,
	}

	start := time.Now()
	b.logger.Info("Calling backend", zap.String("model", model), zap.Int("prompt_length", len(prompt)))
	result, err := b.models.GenerateContent(ctx, model, genai.Text(prompt), genConfig)
	if err != nil {
		failure := mapGeminiError(ctx, err)
		b.logger.Warn("Backend call failed",
			zap.String("model", model),
			zap.String("code", string(failure.Code)),
			zap.String("reason", failure.Reason),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return domain.Failure(failure)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		reason := "empty response"
		if fr := finishReason(result); fr != "" {
			reason = fmt.Sprintf("empty response (finish reason %s)", fr)
		}
		b.logger.Warn("Backend returned no text", zap.String("model", model), zap.String("reason", reason))
		return domain.Failure(domain.NewBackendFailure(geminiBackendName, reason, false, nil))
	}
	if fr := finishReason(result); fr == genai.FinishReasonMaxTokens {
		b.logger.Warn("Backend response truncated at max output tokens", zap.String("model", model))
	}

	b.logger.Debug("Raw backend response received", zap.String("model", model), zap.String("raw_response", text))
	return domain.Success(text)
}

func finishReason(result *genai.GenerateContentResponse) genai.FinishReason {
	if len(result.Candidates) > 0 && result.Candidates[0] != nil {
		return result.Candidates[0].FinishReason
	}
	return ""
}

// mapGeminiError classifies genai API errors by HTTP code and status, and
// falls back to transport-level classification for everything else.
func mapGeminiError(ctx context.Context, err error) *domain.BackendError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.NewBackendTimeoutError(geminiBackendName, err)
	}
	apiErr, ok := asAPIError(err)
	if !ok {
		return classifyError(ctx, geminiBackendName, err)
	}

	status := strings.ToUpper(apiErr.Status)
	switch {
	case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden ||
		status == "UNAUTHENTICATED" || status == "PERMISSION_DENIED" ||
		strings.Contains(strings.ToLower(apiErr.Message), "api key"):
		return domain.NewBackendAuthError(geminiBackendName, "authentication failed", err)
	case apiErr.Code == http.StatusTooManyRequests || status == "RESOURCE_EXHAUSTED":
		return domain.NewBackendQuotaError(geminiBackendName, err)
	case apiErr.Code == http.StatusNotFound || status == "NOT_FOUND":
		return domain.NewBackendAuthError(geminiBackendName, "model not supported", err)
	case apiErr.Code == http.StatusGatewayTimeout || status == "DEADLINE_EXCEEDED":
		return domain.NewBackendTimeoutError(geminiBackendName, err)
	case apiErr.Code >= 500:
		return domain.NewBackendFailure(geminiBackendName, "server error", true, err)
	}
	return domain.NewBackendFailure(geminiBackendName, "request rejected", false, err)
}

// asAPIError accepts both value and pointer forms of genai.APIError.
func asAPIError(err error) (genai.APIError, bool) {
	var v genai.APIError
	if errors.As(err, &v) {
		return v, true
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return *p, true
	}
	return genai.APIError{}, false
}

var _ domain.Backend = (*GeminiBackend)(nil)
