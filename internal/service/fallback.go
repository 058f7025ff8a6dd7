package service

import (
	"context"
	"time"

	"smartquiz/internal/config"
	"smartquiz/internal/domain"

	"go.uber.org/zap"
)

// FallbackOrchestrator tries the primary backend once and, if that fails and
// fallback is enabled, the fallback backend once. It never retries.
type FallbackOrchestrator struct {
	primary         domain.Backend
	fallback        domain.Backend
	primaryTimeout  time.Duration
	fallbackTimeout time.Duration
	fallbackEnabled bool
	logger          *zap.Logger
}

// NewFallbackOrchestrator creates the orchestrator. fallback may be nil only
// when cfg.FallbackEnabled is false.
func NewFallbackOrchestrator(primary, fallback domain.Backend, cfg config.LLMConfig, logger *zap.Logger) *FallbackOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackOrchestrator{
		primary:         primary,
		fallback:        fallback,
		primaryTimeout:  cfg.PrimaryTimeout(),
		fallbackTimeout: cfg.Fallback.Timeout,
		fallbackEnabled: cfg.FallbackEnabled && fallback != nil,
		logger:          logger,
	}
}

// Run returns the raw text of the first backend that succeeds, or an
// *domain.AllBackendsFailedError describing every failure. modelOverride
// applies to the primary backend only.
func (o *FallbackOrchestrator) Run(ctx context.Context, prompt, modelOverride string) (string, error) {
	res := o.primary.Call(ctx, prompt, o.primaryTimeout, modelOverride)
	if res.OK() {
		o.logger.Info("Primary backend succeeded", zap.String("backend", o.primary.Name()))
		return res.Text, nil
	}
	primaryErr := res.Err

	if !o.fallbackEnabled {
		o.logger.Warn("Primary backend failed and fallback is disabled",
			zap.String("backend", o.primary.Name()),
			zap.String("code", string(primaryErr.Code)),
			zap.String("reason", primaryErr.Reason))
		return "", &domain.AllBackendsFailedError{Primary: primaryErr}
	}

	o.logger.Warn("Primary backend failed, trying fallback",
		zap.String("backend", o.primary.Name()),
		zap.String("fallback", o.fallback.Name()),
		zap.String("code", string(primaryErr.Code)),
		zap.String("reason", primaryErr.Reason))

	res = o.fallback.Call(ctx, prompt, o.fallbackTimeout, "")
	if res.OK() {
		o.logger.Info("Fallback backend succeeded", zap.String("backend", o.fallback.Name()))
		return res.Text, nil
	}

	o.logger.Error("Fallback backend failed",
		zap.String("backend", o.fallback.Name()),
		zap.String("code", string(res.Err.Code)),
		zap.String("reason", res.Err.Reason))
	return "", &domain.AllBackendsFailedError{
		Primary:         primaryErr,
		Fallback:        res.Err,
		FallbackEnabled: true,
	}
}
