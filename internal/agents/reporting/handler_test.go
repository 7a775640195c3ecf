package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyguard/internal/common/config"
	"supplyguard/internal/common/logger"
	"supplyguard/internal/models"
)

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		Bands:               config.BandsConfig{Medium: 30, High: 60, Critical: 80},
		DivergenceThreshold: 40,
	}
}

func invocation(dimension string, score float64, level models.RiskLevel) models.AgentInvocation {
	return models.AgentInvocation{
		AgentID: dimension,
		Status:  models.InvocationSucceeded,
		Result: &models.RiskScore{
			Dimension:  dimension,
			Score:      score,
			Level:      level,
			Confidence: 0.9,
			Provenance: models.ProvenanceTraditional,
		},
	}
}

func TestReport_WeightedAverageOfDimensions(t *testing.T) {
	h := NewHandler(LoadConfig(), testAnalysisConfig(), logger.NewTestLogger(t))

	verdict := h.Report([]models.AgentInvocation{
		invocation("political", 80, models.RiskCritical),
		invocation("logistics", 20, models.RiskLow),
	}, false)

	assert.Equal(t, "overall", verdict.Dimension)
	assert.InDelta(t, 50.0, verdict.Score, 0.001)
	assert.Equal(t, models.RiskMedium, verdict.Level)
	assert.Contains(t, verdict.Summary, "political")
}

func TestReport_TruncatedPipelineDowngradesConfidence(t *testing.T) {
	h := NewHandler(LoadConfig(), testAnalysisConfig(), logger.NewTestLogger(t))

	full := h.Report([]models.AgentInvocation{invocation("schedule", 40, models.RiskMedium)}, false)
	cut := h.Report([]models.AgentInvocation{invocation("schedule", 40, models.RiskMedium)}, true)

	assert.Less(t, cut.Confidence, full.Confidence)
	assert.Equal(t, true, cut.Details["truncated"])
}

func TestReport_PrefersTraditionalOnDisagreement(t *testing.T) {
	h := NewHandler(LoadConfig(), testAnalysisConfig(), logger.NewTestLogger(t))

	aiHigh := models.AgentInvocation{
		AgentID: "political",
		Status:  models.InvocationSucceeded,
		Result: &models.RiskScore{
			Dimension:  "political",
			Score:      85,
			Level:      models.RiskCritical,
			Confidence: 0.85,
			Provenance: models.ProvenanceAI,
			Details:    map[string]interface{}{"traditional_score": 25.0},
		},
	}

	verdict := h.Report([]models.AgentInvocation{aiHigh}, false)

	// Policy default sides with the deterministic reading.
	assert.InDelta(t, 25.0, verdict.Score, 0.001)
	assert.Equal(t, models.RiskLow, verdict.Level)
	assert.Equal(t, "traditional", verdict.Details["disagreement_resolved_by"])
}

func TestReport_PreferAIPolicyKeepsAIScore(t *testing.T) {
	h := NewHandler(&Config{Prefer: PreferAI}, testAnalysisConfig(), logger.NewTestLogger(t))

	aiHigh := models.AgentInvocation{
		AgentID: "political",
		Status:  models.InvocationSucceeded,
		Result: &models.RiskScore{
			Dimension:  "political",
			Score:      85,
			Level:      models.RiskCritical,
			Confidence: 0.85,
			Provenance: models.ProvenanceAI,
			Details:    map[string]interface{}{"traditional_score": 25.0},
		},
	}

	verdict := h.Report([]models.AgentInvocation{aiHigh}, false)

	assert.InDelta(t, 85.0, verdict.Score, 0.001)
}

func TestReport_FailedInvocationsAreSkipped(t *testing.T) {
	h := NewHandler(LoadConfig(), testAnalysisConfig(), logger.NewTestLogger(t))

	verdict := h.Report([]models.AgentInvocation{
		invocation("schedule", 40, models.RiskMedium),
		{AgentID: "political", Status: models.InvocationFailed, Error: "boom"},
	}, false)

	require.NotNil(t, verdict.Details["ranked_dimensions"])
	assert.InDelta(t, 40.0, verdict.Score, 0.001)
}
