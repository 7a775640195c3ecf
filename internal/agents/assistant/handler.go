// Package assistant handles queries that match no specific risk
// domain. It answers from the query text itself plus a small snapshot
// of recent events, and never escalates beyond what the text supports.
package assistant

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
	AgentID      = "assistant"
	analysisType = "general"
)

type Handler struct {
	config  *Config
	store   storage.Store
	adapter *ai.Adapter
	keyword *analysis.Keyword
	logger  logger.Logger
}

func NewHandler(cfg *Config, store storage.Store, adapter *ai.Adapter, analysisCfg config.AnalysisConfig, log logger.Logger) *Handler {
	return &Handler{
		config:  cfg,
		store:   store,
		adapter: adapter,
		keyword: analysis.NewKeyword(analysisCfg),
		logger: log.With(map[string]interface{}{
			"agent": AgentID,
		}),
	}
}

func (h *Handler) ID() string           { return AgentID }
func (h *Handler) AnalysisType() string { return analysisType }

func (h *Handler) Analyze(ctx context.Context, req agents.Request) (models.RiskScore, error) {
	filter := agents.FilterFor(req, h.config.WindowDays)
	filter.Limit = h.config.MaxEvents

	// Recent events give the provider something concrete to answer
	// from; the deterministic path only needs the query text.
	events, err := h.store.NewsEvents(ctx, filter)
	if err != nil {
		return models.RiskScore{}, err
	}

	traditional := h.keyword.AnalyzeText(req.Query.Text)
	traditional.Dimension = analysisType
	if traditional.Score == 0 {
		traditional.Summary = fmt.Sprintf("no specific risk signals in query %q", req.Query.Text)
	}

	prompt := agents.Prompt(
		req.Query.Text,
		map[string]interface{}{
			"recent_events": agents.RecentEvents(events),
		},
	)

	return agents.Blend(ctx, h.adapter, analysisType, prompt, traditional, h.logger)
}
