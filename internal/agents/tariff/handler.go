// Package tariff scores trade-policy risk: tariff and trade-war events
// weighted by recency, plus how exposed tracked equipment routes are to
// the countries those events touch.
package tariff

import (
	"context"
	"fmt"
	"strings"

	"supplyguard/internal/agents"
	"supplyguard/internal/ai"
	"supplyguard/internal/analysis"
	"supplyguard/internal/common/config"
	"supplyguard/internal/common/logger"
	"supplyguard/internal/models"
	"supplyguard/internal/storage"
)

const (
	AgentID      = "tariff"
	analysisType = "tariff"
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
	eventFilter := agents.FilterFor(req, h.config.WindowDays)
	eventFilter.Category = "tariff"
	eventFilter.Limit = h.config.MaxEvents

	events, err := h.store.NewsEvents(ctx, eventFilter)
	if err != nil {
		return models.RiskScore{}, err
	}

	equipmentFilter := agents.FilterFor(req, h.config.WindowDays)
	equipmentFilter.Limit = h.config.MaxEquipment
	equipment, err := h.store.Equipment(ctx, equipmentFilter)
	if err != nil {
		return models.RiskScore{}, err
	}

	traditional := h.traditional(events, equipment, req)

	prompt := agents.Prompt(
		"Analyze tariff and trade-policy risks for the supply chain. Consider announced duties, trade disputes, and cost impact on exposed routes.",
		map[string]interface{}{
			"total_events":      len(events),
			"exposed_equipment": traditional.Details["exposed_equipment"],
			"recent_events":     agents.RecentEvents(events),
		},
	)

	return agents.Blend(ctx, h.adapter, analysisType, prompt, traditional, h.logger)
}

func (h *Handler) traditional(events []models.NewsEvent, equipment []models.Equipment, req agents.Request) models.RiskScore {
	kw := h.keyword.AnalyzeEvents(events)
	tw := h.timeWindow.Analyze(analysis.Input{Events: events}, req.Now)

	score := h.aggregator.Aggregate([]models.RiskScore{kw, tw})
	score.Dimension = analysisType
	if len(events) == 0 {
		score.Summary = "no tariff events in window"
		return score
	}

	exposed := exposedEquipment(events, equipment)
	score.Summary = fmt.Sprintf("%d tariff events analyzed, %d equipment items on exposed routes", len(events), len(exposed))
	score.Details["matched_terms"] = kw.Details["matched"]
	score.Details["trend"] = tw.Details["trend"]
	score.Details["recent_events"] = agents.RecentEvents(events)
	score.Details["exposed_count"] = len(exposed)
	if len(exposed) > 0 {
		score.Details["exposed_equipment"] = exposed
	}
	return score
}

// exposedEquipment lists equipment whose manufacturing or destination
// country appears in the event set, capped at five.
func exposedEquipment(events []models.NewsEvent, equipment []models.Equipment) []map[string]interface{} {
	countries := make(map[string]bool, len(events))
	for _, ev := range events {
		if ev.Country != "" {
			countries[strings.ToLower(ev.Country)] = true
		}
	}

	var out []map[string]interface{}
	for _, eq := range equipment {
		if countries[strings.ToLower(eq.ManufacturingCountry)] || countries[strings.ToLower(eq.DestinationCountry)] {
			out = append(out, map[string]interface{}{
				"id":    eq.ID,
				"name":  eq.Name,
				"route": fmt.Sprintf("%s -> %s", eq.ManufacturingCountry, eq.DestinationCountry),
			})
			if len(out) == 5 {
				break
			}
		}
	}
	return out
}
