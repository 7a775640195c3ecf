package analysis

import (
	"fmt"
	"sort"
	"strings"

	"supplyguard/internal/common/config"
	"supplyguard/internal/models"
)

// Agreement labels how far the per-dimension scores sit from each other.
type Agreement string

const (
	FullAgreement    Agreement = "full_agreement"
	PartialAgreement Agreement = "partial_agreement"
	Disagreement     Agreement = "disagreement"
)

// Aggregator folds per-dimension scores into one verdict. The overall
// score is a weighted average, not a max: one alarmed dimension among
// several calm ones raises the blend instead of dictating it, and the
// agreement annotation carries the divergence a max rule would have
// hidden.
type Aggregator struct {
	bands      models.LevelBands
	weights    map[string]float64
	divergence float64
}

func NewAggregator(cfg config.AnalysisConfig) *Aggregator {
	return &Aggregator{
		bands:      bandsFrom(cfg.Bands),
		weights:    cfg.Weights,
		divergence: cfg.DivergenceThreshold,
	}
}

// Aggregate blends the given scores. Zero-confidence inputs still count,
// matching the rule that failed agents contribute their fallback score.
// Empty input yields the zero result.
func (a *Aggregator) Aggregate(scores []models.RiskScore) models.RiskScore {
	if len(scores) == 0 {
		return zeroResult("aggregate")
	}

	var weightedSum, weightTotal, confSum float64
	var minScore, maxScore float64
	perDimension := make(map[string]float64, len(scores))

	for i, s := range scores {
		w := 1.0
		if cw, ok := a.weights[s.Dimension]; ok && cw > 0 {
			w = cw
		}
		weightedSum += s.Score * w
		weightTotal += w
		confSum += s.Confidence
		perDimension[s.Dimension] = s.Score

		if i == 0 || s.Score < minScore {
			minScore = s.Score
		}
		if i == 0 || s.Score > maxScore {
			maxScore = s.Score
		}
	}

	overall := clampScore(weightedSum / weightTotal)
	level := a.bands.Level(overall)
	agreement := a.agreementFor(maxScore - minScore)

	return models.RiskScore{
		Dimension:       "aggregate",
		Score:           round1(overall),
		Level:           level,
		Summary:         fmt.Sprintf("weighted blend of %d dimensions (%s)", len(scores), agreement),
		Recommendations: dedupeRecommendations(scores),
		Confidence:      round1(confSum / float64(len(scores))),
		Provenance:      models.ProvenanceTraditional,
		Details: map[string]interface{}{
			"per_dimension": perDimension,
			"agreement":     string(agreement),
			"spread":        round1(maxScore - minScore),
		},
	}
}

func (a *Aggregator) agreementFor(spread float64) Agreement {
	switch {
	case spread >= a.divergence:
		return Disagreement
	case spread >= a.divergence/2:
		return PartialAgreement
	default:
		return FullAgreement
	}
}

// dedupeRecommendations merges source recommendations preserving first
// occurrence order.
func dedupeRecommendations(scores []models.RiskScore) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range scores {
		for _, rec := range s.Recommendations {
			key := strings.ToLower(rec)
			if !seen[key] {
				seen[key] = true
				out = append(out, rec)
			}
		}
	}
	// Keep the list short enough to act on.
	if len(out) > 6 {
		out = out[:6]
	}
	return out
}

// TopDimensions returns dimensions ordered by descending score, for
// report rendering.
func TopDimensions(scores []models.RiskScore) []string {
	sorted := make([]models.RiskScore, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	out := make([]string, len(sorted))
	for i, s := range sorted {
		out[i] = s.Dimension
	}
	return out
}
