package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"supplyguard/internal/common/config"
	"supplyguard/internal/models"
)

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		Bands:               config.BandsConfig{Medium: 30, High: 60, Critical: 80},
		DivergenceThreshold: 40,
		Threshold: config.ThresholdConfig{
			DelayPercent: []float64{10, 25, 50, 75},
			HighImpact:   []float64{2, 5, 10, 15},
			AvgDelayDays: []float64{3, 7, 14, 30},
		},
		Keyword: config.KeywordConfig{
			HighWeight:   10,
			MediumWeight: 5,
			LowWeight:    1,
		},
		TradeRoute: config.TradeRouteConfig{
			UnknownCountryRisk: 40,
			TransitFactor:      0.1,
		},
		TimeWindow: config.TimeWindowConfig{
			WindowDays: []int{1, 7, 30, 90},
			Decay:      []float64{1.0, 0.8, 0.5, 0.2},
		},
	}
}

func schedules(total, delayed, delayDays int) []models.Schedule {
	out := make([]models.Schedule, 0, total)
	for i := 0; i < total; i++ {
		s := models.Schedule{
			ID:     "s",
			Status: models.ScheduleStatusInProgress,
		}
		if i < delayed {
			s.Status = models.ScheduleStatusDelayed
			s.DelayDays = delayDays
		}
		out = append(out, s)
	}
	return out
}

func TestLevelBands_InclusiveLowerBounds(t *testing.T) {
	bands := models.LevelBands{Medium: 30, High: 60, Critical: 80}

	tests := []struct {
		score float64
		level models.RiskLevel
	}{
		{0, models.RiskLow},
		{29.9, models.RiskLow},
		{30, models.RiskMedium},
		{59.9, models.RiskMedium},
		{60, models.RiskHigh},
		{79.9, models.RiskHigh},
		{80, models.RiskCritical},
		{100, models.RiskCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, bands.Level(tt.score), "score %v", tt.score)
	}
}

func TestStatistical_DelayPercentage(t *testing.T) {
	stat := NewStatistical(testAnalysisConfig())

	// 6 of 20 delayed and no events: delay score 30, event score 0,
	// blended 15.
	res := stat.Analyze(Input{Schedules: schedules(20, 6, 5)})

	assert.Equal(t, "statistical", res.Dimension)
	assert.Equal(t, 30.0, res.Details["delay_percent"])
	assert.Equal(t, 15.0, res.Score)
	assert.Equal(t, models.RiskLow, res.Level)
	assert.Equal(t, models.ProvenanceTraditional, res.Provenance)
}

func TestStatistical_EmptyInput(t *testing.T) {
	stat := NewStatistical(testAnalysisConfig())

	res := stat.Analyze(Input{})

	assert.Zero(t, res.Score)
	assert.Equal(t, models.RiskLow, res.Level)
	assert.Zero(t, res.Confidence)
	assert.Equal(t, true, res.Details["insufficient_data"])
}

func TestStatistical_Deterministic(t *testing.T) {
	stat := NewStatistical(testAnalysisConfig())
	in := Input{
		Schedules: schedules(10, 4, 7),
		Events: []models.NewsEvent{
			{ImpactLevel: models.ImpactHigh},
			{ImpactLevel: models.ImpactLow},
		},
	}

	first := stat.Analyze(in)
	second := stat.Analyze(in)

	assert.Equal(t, first, second)
}

func TestThreshold_BoundaryBelongsToHigherBand(t *testing.T) {
	th := NewThreshold(testAnalysisConfig())

	// Exactly 10% delayed sits on the first cutpoint.
	res := th.Analyze(Input{Schedules: schedules(10, 1, 0)})

	assert.Equal(t, "medium", res.Details["delay_percent_level"])
}

func TestThreshold_OverallIsWorstMetric(t *testing.T) {
	th := NewThreshold(testAnalysisConfig())

	// Delay percent critical (8 of 10 delayed), other metrics low.
	in := Input{Schedules: schedules(10, 8, 1)}
	res := th.Analyze(in)

	assert.Equal(t, models.RiskCritical, res.Level)
	assert.Equal(t, "critical", res.Details["delay_percent_level"])
	assert.Equal(t, "low", res.Details["avg_delay_days_level"])
}

func TestThreshold_EmptyInput(t *testing.T) {
	th := NewThreshold(testAnalysisConfig())

	res := th.Analyze(Input{})

	assert.Zero(t, res.Score)
	assert.Equal(t, models.RiskLow, res.Level)
}

func TestKeyword_NoMatches(t *testing.T) {
	kw := NewKeyword(testAnalysisConfig())

	res := kw.AnalyzeText("sunny weather and calm seas everywhere")

	assert.Zero(t, res.Score)
	assert.Equal(t, models.RiskLow, res.Level)
}

func TestKeyword_WeightedMatches(t *testing.T) {
	kw := NewKeyword(testAnalysisConfig())

	// "sanction" is a high political term, "congestion" a medium
	// logistics term.
	res := kw.AnalyzeText("new sanction package announced amid port congestion")

	matched := res.Details["matched"].(map[string][]string)
	assert.Contains(t, matched["political"], "sanction")
	assert.Contains(t, matched["logistics"], "congestion")
	assert.Equal(t, 15.0, res.Score)
}

func TestKeyword_ScoreCappedAt100(t *testing.T) {
	kw := NewKeyword(testAnalysisConfig())

	text := ""
	for i := 0; i < 30; i++ {
		text += "war sanction embargo trade war strike "
	}
	res := kw.AnalyzeText(text)

	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, models.RiskCritical, res.Level)
}

func TestKeyword_CaseInsensitive(t *testing.T) {
	kw := NewKeyword(testAnalysisConfig())

	upper := kw.AnalyzeText("SANCTION imposed")
	lower := kw.AnalyzeText("sanction imposed")

	assert.Equal(t, lower.Score, upper.Score)
}

func TestTradeRoute_WorstCountryTimesComplexity(t *testing.T) {
	tr := NewTradeRoute(testAnalysisConfig())

	// Germany 15, China 45, one transit through Russia 70:
	// 70 * (1 + 0.1) = 77.
	res := tr.AnalyzeRoute("Germany", "China", "Russia")

	assert.Equal(t, 77.0, res.Score)
	assert.Equal(t, models.RiskHigh, res.Level)
	assert.Equal(t, 1, res.Details["transit_count"])
}

func TestTradeRoute_UnknownCountry(t *testing.T) {
	tr := NewTradeRoute(testAnalysisConfig())

	res := tr.AnalyzeRoute("Atlantis", "Germany")

	assert.Equal(t, "UNKNOWN_ENTITY", res.Details["condition"])
	assert.Contains(t, res.Details["unknown_countries"], "Atlantis")
	assert.Equal(t, 40.0, res.Score)
	assert.Less(t, res.Confidence, 0.9)
}

func TestTradeRoute_EmptyRoute(t *testing.T) {
	tr := NewTradeRoute(testAnalysisConfig())

	res := tr.AnalyzeRoute("", "")

	assert.Zero(t, res.Score)
	assert.Equal(t, models.RiskLow, res.Level)
}

func TestTimeWindow_DecayReducesOldEvents(t *testing.T) {
	tw := NewTimeWindow(testAnalysisConfig())
	ref := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	fresh := tw.Analyze(Input{Events: []models.NewsEvent{
		{ImpactLevel: models.ImpactHigh, PublishedDate: ref.Add(-12 * time.Hour)},
	}}, ref)
	stale := tw.Analyze(Input{Events: []models.NewsEvent{
		{ImpactLevel: models.ImpactHigh, PublishedDate: ref.Add(-80 * 24 * time.Hour)},
	}}, ref)

	assert.Greater(t, fresh.Score, stale.Score)
}

func TestTimeWindow_TrendIncreasing(t *testing.T) {
	tw := NewTimeWindow(testAnalysisConfig())
	ref := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	events := []models.NewsEvent{
		{ImpactLevel: models.ImpactHigh, PublishedDate: ref.Add(-2 * 24 * time.Hour)},
		{ImpactLevel: models.ImpactHigh, PublishedDate: ref.Add(-3 * 24 * time.Hour)},
		{ImpactLevel: models.ImpactLow, PublishedDate: ref.Add(-20 * 24 * time.Hour)},
	}
	res := tw.Analyze(Input{Events: events}, ref)

	assert.Equal(t, "increasing", res.Details["trend"])
}

func TestTimeWindow_IdempotentWithFixedReference(t *testing.T) {
	tw := NewTimeWindow(testAnalysisConfig())
	ref := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	in := Input{
		Events: []models.NewsEvent{
			{ImpactLevel: models.ImpactMedium, PublishedDate: ref.Add(-5 * 24 * time.Hour)},
		},
		Schedules: []models.Schedule{
			{Status: models.ScheduleStatusInProgress, PlannedEndDate: ref.Add(3 * 24 * time.Hour)},
		},
	}

	first := tw.Analyze(in, ref)
	second := tw.Analyze(in, ref)

	assert.Equal(t, first, second)
}

func TestTimeWindow_FutureEventsIgnored(t *testing.T) {
	tw := NewTimeWindow(testAnalysisConfig())
	ref := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	res := tw.Analyze(Input{Events: []models.NewsEvent{
		{ImpactLevel: models.ImpactHigh, PublishedDate: ref.Add(24 * time.Hour)},
	}}, ref)

	assert.Zero(t, res.Score)
}

func TestAggregator_WeightedAverage(t *testing.T) {
	agg := NewAggregator(testAnalysisConfig())

	res := agg.Aggregate([]models.RiskScore{
		{Dimension: "a", Score: 80, Confidence: 0.9},
		{Dimension: "b", Score: 20, Confidence: 0.9},
	})

	assert.Equal(t, 50.0, res.Score)
	assert.Equal(t, models.RiskMedium, res.Level)
}

func TestAggregator_DisagreementAnnotation(t *testing.T) {
	agg := NewAggregator(testAnalysisConfig())

	res := agg.Aggregate([]models.RiskScore{
		{Dimension: "a", Score: 90},
		{Dimension: "b", Score: 10},
	})

	assert.Equal(t, "disagreement", res.Details["agreement"])

	res = agg.Aggregate([]models.RiskScore{
		{Dimension: "a", Score: 50},
		{Dimension: "b", Score: 45},
	})

	assert.Equal(t, "full_agreement", res.Details["agreement"])
}

func TestAggregator_ConfiguredWeights(t *testing.T) {
	cfg := testAnalysisConfig()
	cfg.Weights = map[string]float64{"a": 3, "b": 1}
	agg := NewAggregator(cfg)

	res := agg.Aggregate([]models.RiskScore{
		{Dimension: "a", Score: 80},
		{Dimension: "b", Score: 20},
	})

	assert.Equal(t, 65.0, res.Score)
}

func TestAggregator_EmptyInput(t *testing.T) {
	agg := NewAggregator(testAnalysisConfig())

	res := agg.Aggregate(nil)

	assert.Zero(t, res.Score)
	assert.Equal(t, models.RiskLow, res.Level)
}

func TestAggregator_ZeroConfidenceStillCounts(t *testing.T) {
	agg := NewAggregator(testAnalysisConfig())

	res := agg.Aggregate([]models.RiskScore{
		{Dimension: "a", Score: 60, Confidence: 0.9},
		{Dimension: "b", Score: 0, Confidence: 0},
	})

	assert.Equal(t, 30.0, res.Score)
}
