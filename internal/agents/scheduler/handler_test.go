package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyguard/internal/agents"
	"supplyguard/internal/ai"
	"supplyguard/internal/common/config"
	"supplyguard/internal/common/logger"
	"supplyguard/internal/models"
	"supplyguard/internal/storage"
)

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		Bands:               config.BandsConfig{Medium: 30, High: 60, Critical: 80},
		DivergenceThreshold: 40,
		Threshold: config.ThresholdConfig{
			DelayPercent: []float64{10, 25, 50, 75},
			HighImpact:   []float64{2, 5, 10, 15},
			AvgDelayDays: []float64{3, 7, 14, 30},
		},
		Keyword: config.KeywordConfig{
			HighWeight:   10,
			MediumWeight: 5,
			LowWeight:    1,
		},
		TradeRoute: config.TradeRouteConfig{
			UnknownCountryRisk: 40,
			TransitFactor:      0.1,
		},
		TimeWindow: config.TimeWindowConfig{
			WindowDays: []int{1, 7, 30, 90},
			Decay:      []float64{1.0, 0.8, 0.5, 0.2},
		},
	}
}

func seedSchedules(store *storage.MemoryStore, total, delayed, delayDays int) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	for i := 0; i < total; i++ {
		s := models.Schedule{
			ID:               "s",
			EquipmentID:      "eq-1",
			Status:           models.ScheduleStatusInProgress,
			PlannedStartDate: now.AddDate(0, 0, -30),
			PlannedEndDate:   now.AddDate(0, 0, 30),
		}
		if i < delayed {
			s.Status = models.ScheduleStatusDelayed
			s.DelayDays = delayDays
		}
		store.SeedSchedules(s)
	}
	store.SeedEquipment(models.Equipment{ID: "eq-1", Name: "Lithography Unit", Category: "semiconductor"})
}

func testAdapter(t *testing.T, serverURL string) *ai.Adapter {
	log := logger.NewTestLogger(t)
	client := ai.NewChatClient(ai.ChatClientConfig{
		BaseURL: serverURL,
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: 2 * time.Second,
	}, log)
	executor := ai.NewExecutor(4, time.Second, log)
	return ai.NewAdapter(client, executor, ai.AdapterConfig{
		Timeout:    time.Second,
		MaxRetries: 0,
		Bands:      models.DefaultLevelBands(),
	}, log)
}

func testRequest() agents.Request {
	return agents.Request{
		Query: models.Query{Text: "What are the schedule risks?"},
		Now:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestScheduler_DeterministicWithoutAI(t *testing.T) {
	store := storage.NewMemoryStore()
	seedSchedules(store, 20, 6, 2)

	h := NewHandler(LoadConfig(), store, nil, testAnalysisConfig(), logger.NewTestLogger(t))

	score, err := h.Analyze(context.Background(), testRequest())
	require.NoError(t, err)

	// Delay percentage 30 sits above the medium statistical band once
	// blended with the threshold severity.
	assert.Equal(t, "schedule", score.Dimension)
	assert.InDelta(t, 30.0, score.Details["delay_percent"], 0.001)
	assert.Equal(t, models.RiskMedium, score.Level)
	assert.Equal(t, models.ProvenanceTraditional, score.Provenance)
}

func TestScheduler_FallsBackWhenAIDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := storage.NewMemoryStore()
	seedSchedules(store, 20, 6, 2)

	h := NewHandler(LoadConfig(), store, testAdapter(t, server.URL), testAnalysisConfig(), logger.NewTestLogger(t))

	score, err := h.Analyze(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, models.ProvenanceTraditionalFallback, score.Provenance)
	assert.Equal(t, models.RiskMedium, score.Level)
}

func TestScheduler_MergesAIResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply, _ := json.Marshal(map[string]interface{}{
			"risk_level":      "high",
			"risk_score":      72.0,
			"summary":         "Schedules show compounding delays.",
			"recommendations": []string{"Expedite the delayed lots"},
			"confidence":      0.85,
		})
		resp, _ := json.Marshal(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": string(reply)}},
			},
		})
		w.Write(resp)
	}))
	defer server.Close()

	store := storage.NewMemoryStore()
	seedSchedules(store, 20, 6, 2)

	h := NewHandler(LoadConfig(), store, testAdapter(t, server.URL), testAnalysisConfig(), logger.NewTestLogger(t))

	score, err := h.Analyze(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, models.ProvenanceAI, score.Provenance)
	assert.Equal(t, 72.0, score.Score)
	assert.Equal(t, "schedule", score.Dimension)
	assert.Contains(t, score.Recommendations, "Expedite the delayed lots")
	// Deterministic context rides along with the AI verdict.
	assert.InDelta(t, 42.5, score.Details["traditional_score"], 0.001)
}

func TestScheduler_EmptyDataIsZeroRisk(t *testing.T) {
	h := NewHandler(LoadConfig(), storage.NewMemoryStore(), nil, testAnalysisConfig(), logger.NewTestLogger(t))

	score, err := h.Analyze(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, 0.0, score.Score)
	assert.Equal(t, models.RiskLow, score.Level)
}
