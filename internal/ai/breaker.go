package ai

import (
	"context"
	goerrors "errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"supplyguard/internal/common/errors"
	"supplyguard/internal/common/logger"
)

// breakerClient wraps a Client with a circuit breaker so a dead provider
// fails fast instead of burning a timeout per call.
type breakerClient struct {
	inner Client
	cb    *gobreaker.CircuitBreaker[string]
}

type BreakerSettings struct {
	MaxFailures  uint32
	OpenInterval time.Duration
}

func NewBreakerClient(inner Client, settings BreakerSettings, log logger.Logger) Client {
	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "ai-provider",
		MaxRequests: 1,
		Timeout:     settings.OpenInterval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("AI circuit breaker state change", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})
	return &breakerClient{inner: inner, cb: cb}
}

func (b *breakerClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	text, err := b.cb.Execute(func() (string, error) {
		return b.inner.Complete(ctx, systemPrompt, userPrompt)
	})
	if goerrors.Is(err, gobreaker.ErrOpenState) || goerrors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", errors.NewAIUnavailableError("circuit breaker open")
	}
	return text, err
}
