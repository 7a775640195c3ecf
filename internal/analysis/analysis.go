// Package analysis holds the deterministic risk strategies. Every
// strategy is pure: same input, same config, same result, and never an
// error. Thin or empty input produces a defined zero-risk result.
package analysis

import (
	"math"

	"supplyguard/internal/common/config"
	"supplyguard/internal/models"
)

// Input carries the data slice a strategy works on. Strategies ignore
// the fields they do not need.
type Input struct {
	Schedules []models.Schedule
	Events    []models.NewsEvent
	Equipment []models.Equipment
}

const insufficientDataNote = "insufficient data for analysis"

func bandsFrom(cfg config.BandsConfig) models.LevelBands {
	if cfg.Medium == 0 && cfg.High == 0 && cfg.Critical == 0 {
		return models.DefaultLevelBands()
	}
	return models.LevelBands{Medium: cfg.Medium, High: cfg.High, Critical: cfg.Critical}
}

// zeroResult is the shared empty-input answer: zero score, low level,
// zero confidence, flagged in details.
func zeroResult(dimension string) models.RiskScore {
	return models.RiskScore{
		Dimension:  dimension,
		Score:      0,
		Level:      models.RiskLow,
		Summary:    insufficientDataNote,
		Confidence: 0,
		Provenance: models.ProvenanceTraditional,
		Details: map[string]interface{}{
			"insufficient_data": true,
		},
	}
}

func clampScore(score float64) float64 {
	return math.Min(100, math.Max(0, score))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
