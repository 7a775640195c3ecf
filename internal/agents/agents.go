// Package agents defines the contract every pipeline stage implements
// and the shared mechanics of blending an AI reading with the
// deterministic one. Each concrete agent lives in its own subpackage.
package agents

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"supplyguard/internal/ai"
	stderrors "supplyguard/internal/common/errors"
	"supplyguard/internal/common/logger"
	"supplyguard/internal/common/metrics"
	"supplyguard/internal/models"
	"supplyguard/internal/storage"
)

// Request is the per-invocation input handed to an agent by the
// orchestrator. Now is injected so a rerun over unchanged data produces
// an identical score.
type Request struct {
	Query    models.Query
	Entities models.Entities
	Now      time.Time
}

// Agent is one pipeline stage producing a RiskScore for its dimension.
type Agent interface {
	ID() string
	AnalysisType() string
	Analyze(ctx context.Context, req Request) (models.RiskScore, error)
}

// FilterFor maps extracted entities onto a storage filter. The first
// country and category win; the window bounds the news-event lookback.
func FilterFor(req Request, defaultWindowDays int) storage.Filter {
	f := storage.Filter{Limit: 100}
	if len(req.Entities.Countries) > 0 {
		f.Country = req.Entities.Countries[0]
	}
	if len(req.Entities.EquipmentCategories) > 0 {
		f.Category = req.Entities.EquipmentCategories[0]
	}

	window := req.Entities.WindowDays
	if window <= 0 {
		window = defaultWindowDays
	}
	if window > 0 {
		f.Since = req.Now.AddDate(0, 0, -window)
	}
	return f
}

// Blend runs the AI adapter over the prompt and merges its reading with
// the deterministic score. Any AI-side failure substitutes the
// deterministic score tagged traditional-fallback; only the caller's own
// context expiry is surfaced as an error.
func Blend(ctx context.Context, adapter *ai.Adapter, analysisType, prompt string, traditional models.RiskScore, log logger.Logger) (models.RiskScore, error) {
	if adapter == nil {
		return traditional, nil
	}

	aiScore, err := adapter.Invoke(ctx, prompt, analysisType)
	if err == nil {
		return Merge(aiScore, traditional), nil
	}

	if ctx.Err() != nil {
		return models.RiskScore{}, err
	}

	metrics.AIFallbacks.WithLabelValues(analysisType).Inc()
	log.Warn("AI analysis unavailable, using deterministic result", map[string]interface{}{
		"analysisType": analysisType,
		"errorCode":    string(stderrors.CodeOf(err)),
	})

	fallback := traditional
	fallback.Provenance = models.ProvenanceTraditionalFallback
	return fallback, nil
}

// Merge combines an AI score with the deterministic one: the AI verdict
// leads, the deterministic details and recommendations ride along.
func Merge(aiScore, traditional models.RiskScore) models.RiskScore {
	out := aiScore
	out.Dimension = traditional.Dimension

	summary := strings.TrimSpace(aiScore.Summary + " " + traditional.Summary)
	if summary != "" {
		out.Summary = summary
	}

	out.Recommendations = dedupe(append(aiScore.Recommendations, traditional.Recommendations...), 5)

	if out.Details == nil {
		out.Details = map[string]interface{}{}
	}
	for k, v := range traditional.Details {
		if _, taken := out.Details[k]; !taken {
			out.Details[k] = v
		}
	}
	out.Details["traditional_score"] = traditional.Score
	out.Details["traditional_level"] = string(traditional.Level)
	return out
}

// Prompt renders the agent's question plus a JSON snapshot of the data
// it looked at, in the shape the provider system prompts expect.
func Prompt(question string, context map[string]interface{}) string {
	var parts []string
	parts = append(parts, question)
	if len(context) > 0 {
		snapshot, _ := json.MarshalIndent(context, "", "  ")
		parts = append(parts, "\nData under analysis:")
		parts = append(parts, string(snapshot))
	}
	return strings.Join(parts, "\n")
}

// AffectedEquipment lists equipment tied to delayed schedules, worst
// delays first capped at five, for the caller-facing payload.
func AffectedEquipment(equipment []models.Equipment, schedules []models.Schedule) []map[string]interface{} {
	byID := make(map[string]models.Equipment, len(equipment))
	for _, eq := range equipment {
		byID[eq.ID] = eq
	}

	var out []map[string]interface{}
	for _, s := range schedules {
		if !s.IsDelayed() {
			continue
		}
		eq, ok := byID[s.EquipmentID]
		if !ok {
			continue
		}
		out = append(out, map[string]interface{}{
			"id":        eq.ID,
			"name":      eq.Name,
			"category":  eq.Category,
			"delayDays": s.DelayDays,
		})
		if len(out) == 5 {
			break
		}
	}
	return out
}

// RecentEvents summarizes the newest events for the caller-facing
// payload, capped at five.
func RecentEvents(events []models.NewsEvent) []map[string]interface{} {
	var out []map[string]interface{}
	for _, ev := range events {
		out = append(out, map[string]interface{}{
			"title":       ev.Title,
			"country":     ev.Country,
			"impactLevel": string(ev.ImpactLevel),
			"date":        ev.PublishedDate.Format("2006-01-02"),
		})
		if len(out) == 5 {
			break
		}
	}
	return out
}

func dedupe(recs []string, limit int) []string {
	seen := make(map[string]bool, len(recs))
	var out []string
	for _, rec := range recs {
		key := strings.ToLower(strings.TrimSpace(rec))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out
}
