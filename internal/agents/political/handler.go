// Package political scores geopolitical risk from political news
// events: sanctions, conflicts, policy shifts and how recent they are.
package political

import (
	"context"
	"fmt"

	"supplyguard/internal/agents"
	"supplyguard/internal/ai"
	"supplyguard/internal/analysis"
	"supplyguard/internal/common/config"
	"supplyguard/internal/common/logger"
	"supplyguard/internal/models"
	"supplyguard/internal/storage"
)

const (
	AgentID      = "political"
	analysisType = "political"
)

type Handler struct {
	config     *Config
	store      storage.Store
	adapter    *ai.Adapter
	keyword    *analysis.Keyword
	timeWindow *analysis.TimeWindow
	aggregator *analysis.Aggregator
	logger     logger.Logger
}

func NewHandler(cfg *Config, store storage.Store, adapter *ai.Adapter, analysisCfg config.AnalysisConfig, log logger.Logger) *Handler {
	return &Handler{
		config:     cfg,
		store:      store,
		adapter:    adapter,
		keyword:    analysis.NewKeyword(analysisCfg),
		timeWindow: analysis.NewTimeWindow(analysisCfg),
		aggregator: analysis.NewAggregator(analysisCfg),
		logger: log.With(map[string]interface{}{
			"agent": AgentID,
		}),
	}
}

func (h *Handler) ID() string           { return AgentID }
func (h *Handler) AnalysisType() string { return analysisType }

func (h *Handler) Analyze(ctx context.Context, req agents.Request) (models.RiskScore, error) {
	filter := agents.FilterFor(req, h.config.WindowDays)
	filter.Category = "political"
	filter.Limit = h.config.MaxEvents

	events, err := h.store.NewsEvents(ctx, filter)
	if err != nil {
		return models.RiskScore{}, err
	}

	traditional := h.traditional(events, req)

	country := "global regions"
	if filter.Country != "" {
		country = filter.Country
	}
	prompt := agents.Prompt(
		fmt.Sprintf("Analyze political risks affecting supply chain operations in %s. Consider geopolitical events, policy changes, and their impact on procurement and logistics.", country),
		map[string]interface{}{
			"total_events":   len(events),
			"target_country": filter.Country,
			"recent_events":  agents.RecentEvents(events),
		},
	)

	return agents.Blend(ctx, h.adapter, analysisType, prompt, traditional, h.logger)
}

func (h *Handler) traditional(events []models.NewsEvent, req agents.Request) models.RiskScore {
	in := analysis.Input{Events: events}

	kw := h.keyword.AnalyzeEvents(events)
	tw := h.timeWindow.Analyze(in, req.Now)

	score := h.aggregator.Aggregate([]models.RiskScore{kw, tw})
	score.Dimension = analysisType
	if len(events) == 0 {
		score.Summary = "no political events in window"
		return score
	}

	score.Summary = fmt.Sprintf("%d political events analyzed, trend %v", len(events), tw.Details["trend"])
	score.Details["matched_terms"] = kw.Details["matched"]
	score.Details["trend"] = tw.Details["trend"]
	score.Details["recent_events"] = agents.RecentEvents(events)
	return score
}
