package analysis

import (
	"fmt"

	"supplyguard/internal/common/config"
	"supplyguard/internal/models"
)

// Statistical computes delay and event ratios over the input slice and
// blends them into a single score.
type Statistical struct {
	bands models.LevelBands
}

func NewStatistical(cfg config.AnalysisConfig) *Statistical {
	return &Statistical{bands: bandsFrom(cfg.Bands)}
}

func (s *Statistical) Analyze(in Input) models.RiskScore {
	if len(in.Schedules) == 0 && len(in.Events) == 0 {
		return zeroResult("statistical")
	}

	var (
		delayed    int
		delaySum   int
		highImpact int
	)

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

	var delayPct, avgDelay, delayScore float64
	if len(in.Schedules) > 0 {
		delayPct = float64(delayed) / float64(len(in.Schedules)) * 100
		if delayed > 0 {
			avgDelay = float64(delaySum) / float64(delayed)
		}
		delayScore = delayPct
	}

	var highImpactRatio, eventScore float64
	if len(in.Events) > 0 {
		highImpactRatio = float64(highImpact) / float64(len(in.Events))
		eventScore = highImpactRatio * 100
	}

	score := clampScore(0.5*delayScore + 0.5*eventScore)
	level := s.bands.Level(score)

	return models.RiskScore{
		Dimension: "statistical",
		Score:     round1(score),
		Level:     level,
		Summary: fmt.Sprintf("%.1f%% of schedules delayed, %d high-impact events across %d tracked",
			delayPct, highImpact, len(in.Events)),
		Recommendations: statisticalRecommendations(level),
		Confidence:      0.9,
		Provenance:      models.ProvenanceTraditional,
		Details: map[string]interface{}{
			"total_schedules":   len(in.Schedules),
			"delayed_schedules": delayed,
			"delay_percent":     round1(delayPct),
			"avg_delay_days":    round1(avgDelay),
			"total_events":      len(in.Events),
			"high_impact":       highImpact,
			"high_impact_ratio": round1(highImpactRatio * 100),
		},
	}
}

func statisticalRecommendations(level models.RiskLevel) []string {
	switch level {
	case models.RiskCritical:
		return []string{
			"Escalate delayed schedules to supplier management immediately",
			"Activate alternative sourcing for affected equipment",
		}
	case models.RiskHigh:
		return []string{
			"Review delayed schedules with suppliers this week",
			"Prepare contingency routing for high-impact events",
		}
	case models.RiskMedium:
		return []string{"Monitor delayed schedules and recent events closely"}
	default:
		return []string{"Continue routine monitoring"}
	}
}
