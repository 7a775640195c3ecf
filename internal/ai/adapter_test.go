package ai

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "supplyguard/internal/common/errors"
	"supplyguard/internal/common/logger"
	"supplyguard/internal/models"
)

func chatCompletion(content string) string {
	resp := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]interface{}{"content": content}},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func structuredReply(level string, score float64) string {
	reply := map[string]interface{}{
		"risk_level":      level,
		"risk_score":      score,
		"summary":         "test summary",
		"key_findings":    []string{"finding one"},
		"recommendations": []string{"do the thing"},
		"confidence":      0.85,
	}
	data, _ := json.Marshal(reply)
	return string(data)
}

func newTestAdapter(t *testing.T, serverURL string, timeout time.Duration, maxRetries int) *Adapter {
	log := logger.NewTestLogger(t)
	client := NewChatClient(ChatClientConfig{
		BaseURL:     serverURL,
		APIKey:      "test-key",
		Model:       "test-model",
		MaxTokens:   500,
		Temperature: 0.3,
		Timeout:     timeout * 2,
	}, log)
	executor := NewExecutor(4, time.Second, log)
	return NewAdapter(client, executor, AdapterConfig{
		Timeout:    timeout,
		MaxRetries: maxRetries,
		Bands:      models.DefaultLevelBands(),
	}, log)
}

func TestAdapter_Invoke_StructuredResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(chatCompletion(structuredReply("high", 72))))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, 2*time.Second, 2)

	score, err := adapter.Invoke(context.Background(), "analyze this", "political")
	require.NoError(t, err)

	assert.Equal(t, 72.0, score.Score)
	assert.Equal(t, models.RiskHigh, score.Level)
	assert.Equal(t, models.ProvenanceAI, score.Provenance)
	assert.Equal(t, "test summary", score.Summary)
	assert.Equal(t, []string{"do the thing"}, score.Recommendations)
	assert.Equal(t, true, score.Details["structured"])
}

func TestAdapter_Invoke_FreeTextDegraded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatCompletion(
			"The situation looks like high risk overall.\n- Recommend diversifying suppliers",
		)))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, 2*time.Second, 0)

	score, err := adapter.Invoke(context.Background(), "analyze this", "logistics")
	require.NoError(t, err)

	assert.Equal(t, true, score.Details["degraded"])
	assert.Equal(t, models.RiskHigh, score.Level)
	assert.Equal(t, 0.4, score.Confidence)
	assert.Contains(t, score.Summary, "high risk")
	assert.Contains(t, score.Recommendations, "Recommend diversifying suppliers")
}

func TestAdapter_Invoke_TimeoutBecomesUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(chatCompletion(structuredReply("low", 10))))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, 50*time.Millisecond, 1)

	start := time.Now()
	_, err := adapter.Invoke(context.Background(), "analyze this", "schedule")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeAIUnavailable, stderrors.CodeOf(err))
	// Two attempts of 50ms plus one 100ms backoff, with slack.
	assert.Less(t, elapsed, 2*time.Second)
}

func TestAdapter_Invoke_RetriesRateLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(chatCompletion(structuredReply("medium", 45))))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, 2*time.Second, 2)

	score, err := adapter.Invoke(context.Background(), "analyze this", "tariff")
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 45.0, score.Score)
}

func TestAdapter_Invoke_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
		w.Write([]byte(chatCompletion("ok")))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, 5*time.Second, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := adapter.Invoke(ctx, "analyze this", "schedule")

	require.Error(t, err)
	assert.True(t, goerrors.Is(err, context.DeadlineExceeded))
}

func TestBreakerClient_OpensAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	log := logger.NewTestLogger(t)
	inner := NewChatClient(ChatClientConfig{
		BaseURL: server.URL,
		APIKey:  "k",
		Model:   "m",
		Timeout: time.Second,
	}, log)
	client := NewBreakerClient(inner, BreakerSettings{
		MaxFailures:  3,
		OpenInterval: time.Minute,
	}, log)

	for i := 0; i < 3; i++ {
		_, err := client.Complete(context.Background(), "s", "u")
		require.Error(t, err)
	}

	_, err := client.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeAIUnavailable, stderrors.CodeOf(err))
}
