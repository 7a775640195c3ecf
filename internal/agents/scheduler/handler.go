// Package scheduler scores delivery-schedule risk: delay rates, delay
// depth and approaching deadlines.
package scheduler

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
	AgentID      = "scheduler"
	analysisType = "schedule"
)

type Handler struct {
	config      *Config
	store       storage.Store
	adapter     *ai.Adapter
	statistical *analysis.Statistical
	threshold   *analysis.Threshold
	aggregator  *analysis.Aggregator
	logger      logger.Logger
}

func NewHandler(cfg *Config, store storage.Store, adapter *ai.Adapter, analysisCfg config.AnalysisConfig, log logger.Logger) *Handler {
	return &Handler{
		config:      cfg,
		store:       store,
		adapter:     adapter,
		statistical: analysis.NewStatistical(analysisCfg),
		threshold:   analysis.NewThreshold(analysisCfg),
		aggregator:  analysis.NewAggregator(analysisCfg),
		logger: log.With(map[string]interface{}{
			"agent": AgentID,
		}),
	}
}

func (h *Handler) ID() string           { return AgentID }
func (h *Handler) AnalysisType() string { return analysisType }

func (h *Handler) Analyze(ctx context.Context, req agents.Request) (models.RiskScore, error) {
	filter := agents.FilterFor(req, h.config.WindowDays)
	filter.Limit = h.config.MaxRecords

	schedules, err := h.store.Schedules(ctx, filter)
	if err != nil {
		return models.RiskScore{}, err
	}
	equipment, err := h.store.Equipment(ctx, filter)
	if err != nil {
		return models.RiskScore{}, err
	}

	traditional := h.traditional(schedules, equipment)

	prompt := agents.Prompt(
		fmt.Sprintf("Analyze the delivery schedule risks for %d equipment schedules. Identify delays, bottlenecks, and potential timeline issues.", len(schedules)),
		map[string]interface{}{
			"total_schedules": len(schedules),
			"delay_percent":   traditional.Details["delay_percent"],
			"avg_delay_days":  traditional.Details["avg_delay_days"],
		},
	)

	return agents.Blend(ctx, h.adapter, analysisType, prompt, traditional, h.logger)
}

// traditional blends the statistical ratios with the threshold bands so
// a high per-metric severity lifts a mild average and vice versa.
func (h *Handler) traditional(schedules []models.Schedule, equipment []models.Equipment) models.RiskScore {
	in := analysis.Input{Schedules: schedules, Equipment: equipment}

	stat := h.statistical.Analyze(in)
	thr := h.threshold.Analyze(in)

	score := h.aggregator.Aggregate([]models.RiskScore{stat, thr})
	score.Dimension = analysisType
	score.Summary = stat.Summary

	for k, v := range stat.Details {
		score.Details[k] = v
	}
	if _, ok := thr.Details["delay_percent_level"]; ok {
		score.Details["metric_levels"] = map[string]interface{}{
			"delay_percent":  thr.Details["delay_percent_level"],
			"high_impact":    thr.Details["high_impact_level"],
			"avg_delay_days": thr.Details["avg_delay_days_level"],
		}
	}
	if affected := agents.AffectedEquipment(equipment, schedules); len(affected) > 0 {
		score.Details["affected_equipment"] = affected
	}
	return score
}
