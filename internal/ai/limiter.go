package ai

import (
	"context"
	"time"

	"supplyguard/internal/common/errors"
	"supplyguard/internal/common/logger"
	"supplyguard/internal/common/metrics"
)

// Executor enforces the process-wide ceiling on in-flight provider
// calls. Callers queue for a slot up to maxWait; exhausting the wait is
// an availability failure, not an error to retry. This is the only
// shared mutable state in the engine.
type Executor struct {
	slots   chan struct{}
	maxWait time.Duration
	logger  logger.Logger
}

func NewExecutor(maxConcurrent int, maxWait time.Duration, log logger.Logger) *Executor {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Executor{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		logger:  log,
	}
}

// Do runs fn under a concurrency slot. The slot is returned the moment
// the caller's context fires, even if the provider call is still
// unwinding in its goroutine; the abandoned call drains on its own.
func (e *Executor) Do(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	waitStart := time.Now()
	waitCtx, cancel := context.WithTimeout(ctx, e.maxWait)
	defer cancel()

	select {
	case e.slots <- struct{}{}:
		metrics.AIQueueWait.Observe(time.Since(waitStart).Seconds())
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		e.logger.Warn("AI concurrency queue wait exhausted", map[string]interface{}{
			"max_wait": e.maxWait.String(),
		})
		return "", errors.NewAIUnavailableError("concurrency queue wait exhausted")
	}

	metrics.AIInFlight.Inc()
	release := func() {
		metrics.AIInFlight.Dec()
		<-e.slots
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := fn(ctx)
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		release()
		return r.text, r.err
	case <-ctx.Done():
		release()
		return "", ctx.Err()
	}
}

// InFlightCap returns the configured ceiling.
func (e *Executor) InFlightCap() int {
	return cap(e.slots)
}
