package assistant

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
		Bands: config.BandsConfig{Medium: 30, High: 60, Critical: 80},
		Keyword: config.KeywordConfig{
			HighWeight:   10,
			MediumWeight: 5,
			LowWeight:    1,
		},
	}
}

func TestAssistant_GreetingIsZeroRisk(t *testing.T) {
	h := NewHandler(LoadConfig(), storage.NewMemoryStore(), nil, testAnalysisConfig(), logger.NewTestLogger(t))

	score, err := h.Analyze(context.Background(), agents.Request{
		Query: models.Query{Text: "Hello, can you help me?"},
		Now:   time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, "general", score.Dimension)
	assert.Equal(t, 0.0, score.Score)
	assert.Equal(t, models.RiskLow, score.Level)
	assert.Contains(t, score.Summary, "no specific risk signals")
}

func TestAssistant_RiskTermsInQueryScore(t *testing.T) {
	h := NewHandler(LoadConfig(), storage.NewMemoryStore(), nil, testAnalysisConfig(), logger.NewTestLogger(t))

	score, err := h.Analyze(context.Background(), agents.Request{
		Query: models.Query{Text: "Is the embargo causing a port closure?"},
		Now:   time.Now(),
	})
	require.NoError(t, err)

	assert.Greater(t, score.Score, 0.0)
}
