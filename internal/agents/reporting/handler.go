// Package reporting closes a pipeline: it computes no dimension of its
// own, folds the completed invocations into one verdict and renders the
// caller-facing summary.
package reporting

import (
	"fmt"
	"math"
	"strings"

	"supplyguard/internal/analysis"
	"supplyguard/internal/common/config"
	"supplyguard/internal/common/logger"
	"supplyguard/internal/models"
)

const AgentID = "reporting"

type Handler struct {
	config     *Config
	aggregator *analysis.Aggregator
	bands      models.LevelBands
	divergence float64
	logger     logger.Logger
}

func NewHandler(cfg *Config, analysisCfg config.AnalysisConfig, log logger.Logger) *Handler {
	bands := models.DefaultLevelBands()
	if analysisCfg.Bands.Critical > 0 {
		bands = models.LevelBands{
			Medium:   analysisCfg.Bands.Medium,
			High:     analysisCfg.Bands.High,
			Critical: analysisCfg.Bands.Critical,
		}
	}
	return &Handler{
		config:     cfg,
		aggregator: analysis.NewAggregator(analysisCfg),
		bands:      bands,
		divergence: analysisCfg.DivergenceThreshold,
		logger: log.With(map[string]interface{}{
			"agent": AgentID,
		}),
	}
}

func (h *Handler) ID() string { return AgentID }

// Report folds the completed invocations into the final verdict.
// Truncated pipelines still report whatever completed, at reduced
// confidence.
func (h *Handler) Report(invocations []models.AgentInvocation, truncated bool) models.RiskScore {
	scores := make([]models.RiskScore, 0, len(invocations))
	disagreements := make([]string, 0)

	for _, inv := range invocations {
		if inv.Result == nil {
			continue
		}
		score, disagreed := h.resolve(*inv.Result)
		if disagreed {
			disagreements = append(disagreements, score.Dimension)
		}
		scores = append(scores, score)
	}

	verdict := h.aggregator.Aggregate(scores)
	verdict.Dimension = "overall"
	verdict.Summary = h.renderSummary(verdict, scores)

	if len(disagreements) > 0 {
		verdict.Details["disagreement_resolved_by"] = h.config.Prefer
		verdict.Details["disagreed_dimensions"] = disagreements
	}
	if truncated {
		verdict.Confidence = math.Round(verdict.Confidence*0.5*10) / 10
		verdict.Details["truncated"] = true
	}
	verdict.Details["ranked_dimensions"] = analysis.TopDimensions(scores)
	return verdict
}

// resolve applies the disagreement policy to one dimension score. When
// an AI reading diverged from its deterministic counterpart past the
// threshold and the policy prefers traditional, the deterministic
// numbers win for aggregation.
func (h *Handler) resolve(score models.RiskScore) (models.RiskScore, bool) {
	if score.Provenance != models.ProvenanceAI {
		return score, false
	}
	tradScore, ok := score.Details["traditional_score"].(float64)
	if !ok {
		return score, false
	}
	if math.Abs(score.Score-tradScore) < h.divergence {
		return score, false
	}

	h.logger.Info("AI and deterministic scores diverge", map[string]interface{}{
		"dimension":   score.Dimension,
		"aiScore":     score.Score,
		"traditional": tradScore,
		"prefer":      h.config.Prefer,
	})

	if h.config.Prefer == PreferAI {
		return score, true
	}
	resolved := score
	resolved.Score = tradScore
	resolved.Level = h.bands.Level(tradScore)
	resolved.Provenance = models.ProvenanceTraditional
	return resolved, true
}

func (h *Handler) renderSummary(verdict models.RiskScore, scores []models.RiskScore) string {
	if len(scores) == 0 {
		return "no completed analyses to report"
	}

	parts := make([]string, 0, len(scores)+1)
	parts = append(parts, fmt.Sprintf("Overall risk %s (%.1f) across %d dimensions.", verdict.Level, verdict.Score, len(scores)))
	for _, s := range scores {
		parts = append(parts, fmt.Sprintf("%s: %s (%.1f)", s.Dimension, s.Level, s.Score))
	}
	return strings.Join(parts, " ")
}
