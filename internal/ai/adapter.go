package ai

import (
	"context"
	goerrors "errors"
	"time"

	stderrors "supplyguard/internal/common/errors"
	"supplyguard/internal/common/logger"
	"supplyguard/internal/common/metrics"
	"supplyguard/internal/models"
)

// Adapter is what agents call instead of the provider. It owns the
// per-call timeout, the bounded retry loop and the parse step. Any
// exhaustion surfaces as AI_UNAVAILABLE so callers can substitute their
// deterministic result and keep going.
type Adapter struct {
	client     Client
	executor   *Executor
	timeout    time.Duration
	maxRetries int
	bands      models.LevelBands
	logger     logger.Logger
}

type AdapterConfig struct {
	Timeout    time.Duration
	MaxRetries int
	Bands      models.LevelBands
}

func NewAdapter(client Client, executor *Executor, cfg AdapterConfig, log logger.Logger) *Adapter {
	return &Adapter{
		client:     client,
		executor:   executor,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		bands:      cfg.Bands,
		logger:     log,
	}
}

// Invoke runs one analysis prompt end to end. The returned error is
// either the caller's context error or AI_UNAVAILABLE.
func (a *Adapter) Invoke(ctx context.Context, userPrompt, analysisType string) (models.RiskScore, error) {
	systemPrompt := SystemPrompt(analysisType)

	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return models.RiskScore{}, ctx.Err()
			}
		}

		text, err := a.attempt(ctx, systemPrompt, userPrompt)
		if err == nil {
			metrics.AICalls.WithLabelValues(analysisType, "success").Inc()
			return parseRiskResponse(text, analysisType, a.bands), nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return models.RiskScore{}, ctx.Err()
		}
		if !retryableAIError(err) {
			break
		}

		a.logger.Warn("AI call failed, retrying", map[string]interface{}{
			"analysisType": analysisType,
			"attempt":      attempt + 1,
			"error":        err.Error(),
		})
	}

	metrics.AICalls.WithLabelValues(analysisType, "unavailable").Inc()
	a.logger.Error("AI provider unavailable after retries", map[string]interface{}{
		"analysisType": analysisType,
		"retries":      a.maxRetries,
		"error":        lastErr.Error(),
	})

	var se *stderrors.StandardError
	if goerrors.As(lastErr, &se) && se.Code == stderrors.ErrCodeAIUnavailable {
		return models.RiskScore{}, se
	}
	return models.RiskScore{}, stderrors.NewAIUnavailableError(lastErr.Error())
}

// attempt makes one gated, deadline-bounded provider call.
func (a *Adapter) attempt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return a.executor.Do(ctx, func(ctx context.Context) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		text, err := a.client.Complete(callCtx, systemPrompt, userPrompt)
		if err != nil && callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return "", stderrors.NewAITimeoutError("call")
		}
		return text, err
	})
}

// Healthy probes the provider with a minimal prompt.
func (a *Adapter) Healthy(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	_, err := a.client.Complete(probeCtx, "Reply with the word ok.", "ok")
	return err == nil
}

// retryableAIError reports whether another attempt can help. Breaker
// opens and queue exhaustion already mean unavailable.
func retryableAIError(err error) bool {
	var se *stderrors.StandardError
	if goerrors.As(err, &se) {
		return se.Retryable
	}
	// Transport failures and provider 5xx arrive as plain errors.
	return true
}
