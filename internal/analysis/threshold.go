package analysis

import (
	"fmt"

	"supplyguard/internal/common/config"
	"supplyguard/internal/models"
)

// Threshold maps raw metrics onto severity bands through ordered
// cutpoints. Boundary values belong to the higher band; the overall
// level is the worst per-metric level, not an average.
type Threshold struct {
	delayPct     []float64
	highImpact   []float64
	avgDelayDays []float64
}

func NewThreshold(cfg config.AnalysisConfig) *Threshold {
	return &Threshold{
		delayPct:     cfg.Threshold.DelayPercent,
		highImpact:   cfg.Threshold.HighImpact,
		avgDelayDays: cfg.Threshold.AvgDelayDays,
	}
}

func (t *Threshold) Analyze(in Input) models.RiskScore {
	if len(in.Schedules) == 0 && len(in.Events) == 0 {
		return zeroResult("threshold")
	}

	var delayed, delaySum, highImpact int
	for _, sched := range in.Schedules {
		if sched.IsDelayed() {
			delayed++
			delaySum += sched.DelayDays
		}
	}
	for _, ev := range in.Events {
		if ev.ImpactLevel == models.ImpactHigh {
			highImpact++
		}
	}

	var delayPct, avgDelay float64
	if len(in.Schedules) > 0 {
		delayPct = float64(delayed) / float64(len(in.Schedules)) * 100
	}
	if delayed > 0 {
		avgDelay = float64(delaySum) / float64(delayed)
	}

	metricLevels := map[string]models.RiskLevel{
		"delay_percent":  levelForCutpoints(delayPct, t.delayPct),
		"high_impact":    levelForCutpoints(float64(highImpact), t.highImpact),
		"avg_delay_days": levelForCutpoints(avgDelay, t.avgDelayDays),
	}

	overall := models.RiskLow
	for _, lvl := range metricLevels {
		overall = models.MaxLevel(overall, lvl)
	}

	return models.RiskScore{
		Dimension:       "threshold",
		Score:           scoreForLevel(overall),
		Level:           overall,
		Summary:         fmt.Sprintf("worst metric severity is %s", overall),
		Recommendations: thresholdRecommendations(overall, metricLevels),
		Confidence:      0.95,
		Provenance:      models.ProvenanceTraditional,
		Details: map[string]interface{}{
			"delay_percent":        round1(delayPct),
			"high_impact_events":   highImpact,
			"avg_delay_days":       round1(avgDelay),
			"delay_percent_level":  string(metricLevels["delay_percent"]),
			"high_impact_level":    string(metricLevels["high_impact"]),
			"avg_delay_days_level": string(metricLevels["avg_delay_days"]),
		},
	}
}

// levelForCutpoints finds the band a value falls into. Cutpoints are the
// inclusive lower bounds of medium, high, critical and an upper critical
// step, lowest first.
func levelForCutpoints(value float64, cutpoints []float64) models.RiskLevel {
	if len(cutpoints) == 0 {
		return models.RiskLow
	}
	level := models.RiskLow
	ladder := []models.RiskLevel{models.RiskMedium, models.RiskHigh, models.RiskCritical, models.RiskCritical}
	for i, cp := range cutpoints {
		if i >= len(ladder) {
			break
		}
		if value >= cp {
			level = ladder[i]
		}
	}
	return level
}

// scoreForLevel gives a representative score for a banded-only result so
// the aggregator can blend it.
func scoreForLevel(level models.RiskLevel) float64 {
	switch level {
	case models.RiskCritical:
		return 90
	case models.RiskHigh:
		return 70
	case models.RiskMedium:
		return 45
	default:
		return 15
	}
}

func thresholdRecommendations(overall models.RiskLevel, metrics map[string]models.RiskLevel) []string {
	var recs []string
	if metrics["delay_percent"] != models.RiskLow {
		recs = append(recs, "Investigate root causes of schedule delays")
	}
	if metrics["high_impact"] != models.RiskLow {
		recs = append(recs, "Track high-impact events against exposed routes")
	}
	if metrics["avg_delay_days"] != models.RiskLow {
		recs = append(recs, "Re-baseline delivery dates for long-delayed schedules")
	}
	if overall == models.RiskCritical {
		recs = append(recs, "Escalate to supply-chain leadership")
	}
	if len(recs) == 0 {
		recs = []string{"All metrics within normal thresholds"}
	}
	return recs
}
