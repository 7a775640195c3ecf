package ai

import (
	"encoding/json"
	"strings"

	"supplyguard/internal/common/validation"
	"supplyguard/internal/models"
)

// parseRiskResponse turns a completion into a RiskScore. Structured JSON
// is preferred; anything else is read heuristically at lower confidence
// with the raw text preserved in the summary.
func parseRiskResponse(text, dimension string, bands models.LevelBands) models.RiskScore {
	if score, ok := parseStructured(text, dimension, bands); ok {
		return score
	}
	return parseFreeText(text, dimension, bands)
}

func parseStructured(text, dimension string, bands models.LevelBands) (models.RiskScore, bool) {
	raw := extractJSONObject(text)
	if raw == "" {
		return models.RiskScore{}, false
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return models.RiskScore{}, false
	}
	if err := validation.ValidateRiskResponse(doc); err != nil {
		return models.RiskScore{}, false
	}

	score, _ := doc["risk_score"].(float64)
	level, _ := doc["risk_level"].(string)
	summary, _ := doc["summary"].(string)

	confidence := 0.8
	if c, ok := doc["confidence"].(float64); ok {
		confidence = c
	}

	out := models.RiskScore{
		Dimension:       dimension,
		Score:           score,
		Level:           models.RiskLevel(level),
		Summary:         summary,
		Recommendations: stringSlice(doc["recommendations"]),
		Confidence:      confidence,
		Provenance:      models.ProvenanceAI,
		Details:         map[string]interface{}{"structured": true},
	}
	if findings := stringSlice(doc["key_findings"]); len(findings) > 0 {
		out.Details["key_findings"] = findings
	}
	// Keep level and score consistent even if the model disagrees with
	// its own number.
	if out.Level != bands.Level(out.Score) {
		out.Level = bands.Level(out.Score)
		out.Details["level_adjusted"] = true
	}
	return out, true
}

// extractJSONObject finds the first balanced {...} block in the text.
// Models often wrap JSON in prose or markdown fences.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}

// parseFreeText reads risk cues out of prose. Confidence is cut because
// the structure is guessed, and the raw text is kept in the summary.
func parseFreeText(text, dimension string, bands models.LevelBands) models.RiskScore {
	lowered := strings.ToLower(text)

	var score float64
	switch {
	case containsAny(lowered, "critical risk", "critical", "severe"):
		score = 85
	case containsAny(lowered, "high risk", "high", "significant"):
		score = 70
	case containsAny(lowered, "medium risk", "moderate", "medium"):
		score = 45
	case containsAny(lowered, "low risk", "low", "minimal"):
		score = 15
	default:
		score = 40
	}

	summary := strings.TrimSpace(text)
	if len(summary) > 400 {
		summary = summary[:400] + "..."
	}

	return models.RiskScore{
		Dimension:       dimension,
		Score:           score,
		Level:           bands.Level(score),
		Summary:         summary,
		Recommendations: extractRecommendationLines(text),
		Confidence:      0.4,
		Provenance:      models.ProvenanceAI,
		Details: map[string]interface{}{
			"structured": false,
			"degraded":   true,
		},
	}
}

// extractRecommendationLines pulls bullet or "recommend" lines out of prose.
func extractRecommendationLines(text string) []string {
	var recs []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		isBullet := strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*")
		if isBullet || strings.Contains(strings.ToLower(trimmed), "recommend") {
			recs = append(recs, strings.TrimLeft(trimmed, "-* "))
		}
		if len(recs) == 5 {
			break
		}
	}
	return recs
}

func containsAny(text string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func stringSlice(v interface{}) []string {
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
