package analysis

import (
	"fmt"
	"time"

	"supplyguard/internal/common/config"
	"supplyguard/internal/models"
)

// TimeWindow buckets events by age relative to a caller-supplied
// reference time and applies decay so old news stops moving the score.
// The reference time is always injected, never read from the wall clock,
// so a run can be replayed.
type TimeWindow struct {
	bands      models.LevelBands
	windowDays []int
	decay      []float64
}

// weightedSumTolerance is the weighted event total that saturates the
// score at 100.
const weightedSumTolerance = 25.0

func NewTimeWindow(cfg config.AnalysisConfig) *TimeWindow {
	return &TimeWindow{
		bands:      bandsFrom(cfg.Bands),
		windowDays: cfg.TimeWindow.WindowDays,
		decay:      cfg.TimeWindow.Decay,
	}
}

func (t *TimeWindow) Analyze(in Input, ref time.Time) models.RiskScore {
	if len(in.Events) == 0 && len(in.Schedules) == 0 {
		return zeroResult("time_window")
	}

	var weightedSum float64
	var recentSum, olderSum float64
	bucketCounts := make(map[string]int, len(t.windowDays))

	for _, ev := range in.Events {
		age := ref.Sub(ev.PublishedDate)
		if age < 0 {
			continue
		}
		ageDays := int(age.Hours() / 24)

		idx := -1
		for i, wd := range t.windowDays {
			if ageDays <= wd {
				idx = i
				break
			}
		}
		if idx == -1 {
			continue
		}

		w := impactWeight(ev.ImpactLevel) * t.decay[idx]
		weightedSum += w
		bucketCounts[windowLabel(t.windowDays[idx])]++

		// Trend compares the short-term window against the one after it.
		if len(t.windowDays) >= 3 {
			if ageDays <= t.windowDays[1] {
				recentSum += impactWeight(ev.ImpactLevel)
			} else if ageDays <= t.windowDays[2] {
				olderSum += impactWeight(ev.ImpactLevel)
			}
		}
	}

	eventScore := clampScore(weightedSum / weightedSumTolerance * 100)

	var overdue, atRisk, highPriority int
	for _, sched := range in.Schedules {
		if sched.IsOverdue(ref) {
			overdue++
		} else if sched.Status != models.ScheduleStatusCompleted &&
			sched.PlannedEndDate.Sub(ref) <= 7*24*time.Hour {
			atRisk++
		}
		if sched.Priority == "high" && sched.Status != models.ScheduleStatusCompleted {
			highPriority++
		}
	}
	scheduleScore := clampScore(float64(overdue*5 + atRisk*3 + highPriority*2))

	score := eventScore
	if len(in.Schedules) > 0 && len(in.Events) > 0 {
		score = clampScore(0.5*eventScore + 0.5*scheduleScore)
	} else if len(in.Events) == 0 {
		score = scheduleScore
	}

	trend := trendLabel(recentSum, olderSum)
	level := t.bands.Level(score)

	return models.RiskScore{
		Dimension:       "time_window",
		Score:           round1(score),
		Level:           level,
		Summary:         fmt.Sprintf("decayed event pressure %.1f, schedule urgency %.1f, trend %s", eventScore, scheduleScore, trend),
		Recommendations: timeWindowRecommendations(level, trend),
		Confidence:      0.85,
		Provenance:      models.ProvenanceTraditional,
		Details: map[string]interface{}{
			"event_score":     round1(eventScore),
			"schedule_score":  round1(scheduleScore),
			"weighted_events": round1(weightedSum),
			"buckets":         bucketCounts,
			"overdue":         overdue,
			"at_risk":         atRisk,
			"high_priority":   highPriority,
			"trend":           trend,
			"reference_time":  ref.UTC().Format(time.RFC3339),
		},
	}
}

func impactWeight(level models.ImpactLevel) float64 {
	switch level {
	case models.ImpactHigh:
		return 5
	case models.ImpactMedium:
		return 3
	default:
		return 1
	}
}

func windowLabel(days int) string {
	switch {
	case days <= 1:
		return "immediate"
	case days <= 7:
		return "short_term"
	case days <= 30:
		return "medium_term"
	default:
		return "long_term"
	}
}

func trendLabel(recent, older float64) string {
	switch {
	case older == 0 && recent == 0:
		return "stable"
	case recent > older*1.2:
		return "increasing"
	case recent < older*0.8:
		return "decreasing"
	default:
		return "stable"
	}
}

func timeWindowRecommendations(level models.RiskLevel, trend string) []string {
	var recs []string
	if trend == "increasing" {
		recs = append(recs, "Event pressure is rising, tighten the monitoring cadence")
	}
	switch level {
	case models.RiskCritical, models.RiskHigh:
		recs = append(recs, "Prioritize overdue and at-risk schedules for intervention")
	}
	if len(recs) == 0 {
		recs = []string{"No time-sensitive action required"}
	}
	return recs
}
