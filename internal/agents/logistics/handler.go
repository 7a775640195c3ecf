// Package logistics scores transport risk: port and shipping events
// plus the riskiness of the routes tracked equipment travels.
package logistics

import (
	"context"
	"fmt"
	"sort"

	"supplyguard/internal/agents"
	"supplyguard/internal/ai"
	"supplyguard/internal/analysis"
	"supplyguard/internal/common/config"
	"supplyguard/internal/common/logger"
	"supplyguard/internal/models"
	"supplyguard/internal/storage"
)

const (
	AgentID      = "logistics"
	analysisType = "logistics"
)

type Handler struct {
	config     *Config
	store      storage.Store
	adapter    *ai.Adapter
	keyword    *analysis.Keyword
	tradeRoute *analysis.TradeRoute
	aggregator *analysis.Aggregator
	logger     logger.Logger
}

func NewHandler(cfg *Config, store storage.Store, adapter *ai.Adapter, analysisCfg config.AnalysisConfig, log logger.Logger) *Handler {
	return &Handler{
		config:     cfg,
		store:      store,
		adapter:    adapter,
		keyword:    analysis.NewKeyword(analysisCfg),
		tradeRoute: analysis.NewTradeRoute(analysisCfg),
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
	eventFilter.Category = "logistics"
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

	traditional := h.traditional(events, equipment)

	prompt := agents.Prompt(
		fmt.Sprintf("Analyze logistics and transportation risks for %d tracked equipment items. Consider port congestion, shipping disruptions, and route exposure.", len(equipment)),
		map[string]interface{}{
			"total_events":    len(events),
			"total_equipment": len(equipment),
			"recent_events":   agents.RecentEvents(events),
			"top_routes":      traditional.Details["top_routes"],
		},
	)

	return agents.Blend(ctx, h.adapter, analysisType, prompt, traditional, h.logger)
}

func (h *Handler) traditional(events []models.NewsEvent, equipment []models.Equipment) models.RiskScore {
	kw := h.keyword.AnalyzeEvents(events)
	route, topRoutes := h.worstRoute(equipment)

	var inputs []models.RiskScore
	if len(events) > 0 {
		inputs = append(inputs, kw)
	}
	if route != nil {
		inputs = append(inputs, *route)
	}

	score := h.aggregator.Aggregate(inputs)
	score.Dimension = analysisType
	if len(inputs) == 0 {
		score.Summary = "no logistics events or equipment routes in scope"
		return score
	}

	score.Summary = fmt.Sprintf("%d logistics events, %d equipment routes assessed", len(events), len(equipment))
	if len(topRoutes) > 0 {
		score.Details["top_routes"] = topRoutes
	}
	if len(events) > 0 {
		score.Details["matched_terms"] = kw.Details["matched"]
		score.Details["recent_events"] = agents.RecentEvents(events)
	}
	if route != nil {
		if cond, ok := route.Details["condition"]; ok {
			score.Details["condition"] = cond
		}
	}
	return score
}

// worstRoute scores every equipment route and keeps the riskiest as the
// trade-route contribution, with the top three reported for context.
func (h *Handler) worstRoute(equipment []models.Equipment) (*models.RiskScore, []map[string]interface{}) {
	if len(equipment) == 0 {
		return nil, nil
	}

	type routed struct {
		eq    models.Equipment
		score models.RiskScore
	}
	routes := make([]routed, 0, len(equipment))
	for _, eq := range equipment {
		routes = append(routes, routed{eq: eq, score: h.tradeRoute.AnalyzeEquipment(eq)})
	}
	sort.SliceStable(routes, func(i, j int) bool { return routes[i].score.Score > routes[j].score.Score })

	top := make([]map[string]interface{}, 0, 3)
	for _, r := range routes {
		top = append(top, map[string]interface{}{
			"equipment": r.eq.Name,
			"route":     fmt.Sprintf("%s -> %s", r.eq.ManufacturingCountry, r.eq.DestinationCountry),
			"score":     r.score.Score,
		})
		if len(top) == 3 {
			break
		}
	}

	worst := routes[0].score
	return &worst, top
}
