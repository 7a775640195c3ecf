package political

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyguard/internal/agents"
	"supplyguard/internal/common/config"
	"supplyguard/internal/common/logger"
	"supplyguard/internal/models"
	"supplyguard/internal/storage"
)

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		Bands:               config.BandsConfig{Medium: 30, High: 60, Critical: 80},
		DivergenceThreshold: 40,
		Keyword: config.KeywordConfig{
			HighWeight:   10,
			MediumWeight: 5,
			LowWeight:    1,
		},
		TimeWindow: config.TimeWindowConfig{
			WindowDays: []int{1, 7, 30, 90},
			Decay:      []float64{1.0, 0.8, 0.5, 0.2},
		},
	}
}

func TestPolitical_ScoresSanctionEvents(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	store := storage.NewMemoryStore()
	store.SeedNewsEvents(
		models.NewsEvent{
			ID: "n-1", Title: "New sanction package announced",
			Content:  "Broad export sanction hits semiconductor supply",
			Country:  "Russia",
			Category: "political",
			ImpactLevel: models.ImpactHigh,
			PublishedDate: now.AddDate(0, 0, -2),
		},
		models.NewsEvent{
			ID: "n-2", Title: "Trade policy review",
			Content:  "Routine regulation update",
			Country:  "Germany",
			Category: "political",
			ImpactLevel: models.ImpactLow,
			PublishedDate: now.AddDate(0, 0, -20),
		},
	)

	h := NewHandler(LoadConfig(), store, nil, testAnalysisConfig(), logger.NewTestLogger(t))

	score, err := h.Analyze(context.Background(), agents.Request{
		Query: models.Query{Text: "political risks"},
		Now:   now,
	})
	require.NoError(t, err)

	assert.Equal(t, "political", score.Dimension)
	assert.Greater(t, score.Score, 0.0)
	assert.NotEmpty(t, score.Details["trend"])
	assert.NotEmpty(t, score.Details["recent_events"])
}

func TestPolitical_CountryEntityNarrowsEvents(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	store := storage.NewMemoryStore()
	store.SeedNewsEvents(
		models.NewsEvent{ID: "n-1", Title: "Embargo extended", Country: "Iran", Category: "political", ImpactLevel: models.ImpactHigh, PublishedDate: now.AddDate(0, 0, -1)},
		models.NewsEvent{ID: "n-2", Title: "Election results", Country: "Brazil", Category: "political", ImpactLevel: models.ImpactLow, PublishedDate: now.AddDate(0, 0, -1)},
	)

	h := NewHandler(LoadConfig(), store, nil, testAnalysisConfig(), logger.NewTestLogger(t))

	score, err := h.Analyze(context.Background(), agents.Request{
		Query:    models.Query{Text: "political risks in Iran"},
		Entities: models.Entities{Countries: []string{"Iran"}},
		Now:      now,
	})
	require.NoError(t, err)

	recent, ok := score.Details["recent_events"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, recent, 1)
	assert.Equal(t, "Iran", recent[0]["country"])
}

func TestPolitical_NoEventsIsZeroRisk(t *testing.T) {
	h := NewHandler(LoadConfig(), storage.NewMemoryStore(), nil, testAnalysisConfig(), logger.NewTestLogger(t))

	score, err := h.Analyze(context.Background(), agents.Request{
		Query: models.Query{Text: "political risks"},
		Now:   time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, score.Score)
	assert.Equal(t, models.RiskLow, score.Level)
}
