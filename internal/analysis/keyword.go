package analysis

import (
	"fmt"
	"sort"
	"strings"

	"supplyguard/internal/common/config"
	"supplyguard/internal/models"
)

// Keyword scores free text against weighted term lists. Matching is
// case-insensitive substring matching, so "war" also hits "warehouse";
// the weights assume that and keep single hits cheap.
type Keyword struct {
	bands        models.LevelBands
	highWeight   float64
	mediumWeight float64
	lowWeight    float64
}

type keywordCategory struct {
	name   string
	high   []string
	medium []string
	low    []string
}

var keywordCategories = []keywordCategory{
	{
		name:   "political",
		high:   []string{"war", "sanction", "embargo", "coup", "invasion"},
		medium: []string{"election", "protest", "tension", "dispute", "instability"},
		low:    []string{"policy", "government", "diplomatic", "regulation"},
	},
	{
		name:   "logistics",
		high:   []string{"port closure", "strike", "blockade", "capacity crisis"},
		medium: []string{"congestion", "shortage", "disruption", "backlog"},
		low:    []string{"shipping", "freight", "carrier", "customs"},
	},
	{
		name:   "tariff",
		high:   []string{"trade war", "tariff hike", "import ban", "export ban"},
		medium: []string{"tariff", "duty", "quota", "trade barrier"},
		low:    []string{"trade policy", "wto", "trade agreement"},
	},
	{
		name:   "schedule",
		high:   []string{"severe delay", "missed deadline", "halted"},
		medium: []string{"delay", "postponed", "behind schedule", "rescheduled"},
		low:    []string{"schedule", "timeline", "deadline", "delivery date"},
	},
}

func NewKeyword(cfg config.AnalysisConfig) *Keyword {
	return &Keyword{
		bands:        bandsFrom(cfg.Bands),
		highWeight:   cfg.Keyword.HighWeight,
		mediumWeight: cfg.Keyword.MediumWeight,
		lowWeight:    cfg.Keyword.LowWeight,
	}
}

// AnalyzeText scores one piece of text. Empty text yields the zero result.
func (k *Keyword) AnalyzeText(text string) models.RiskScore {
	if strings.TrimSpace(text) == "" {
		return zeroResult("keyword")
	}

	lowered := strings.ToLower(text)

	var total float64
	matched := make(map[string][]string)
	categoryScores := make(map[string]float64)

	for _, cat := range keywordCategories {
		var catScore float64
		for _, term := range cat.high {
			if n := strings.Count(lowered, term); n > 0 {
				catScore += k.highWeight * float64(n)
				matched[cat.name] = append(matched[cat.name], term)
			}
		}
		for _, term := range cat.medium {
			if n := strings.Count(lowered, term); n > 0 {
				catScore += k.mediumWeight * float64(n)
				matched[cat.name] = append(matched[cat.name], term)
			}
		}
		for _, term := range cat.low {
			if n := strings.Count(lowered, term); n > 0 {
				catScore += k.lowWeight * float64(n)
				matched[cat.name] = append(matched[cat.name], term)
			}
		}
		if catScore > 0 {
			categoryScores[cat.name] = catScore
			total += catScore
		}
	}

	if total == 0 {
		return models.RiskScore{
			Dimension:  "keyword",
			Score:      0,
			Level:      models.RiskLow,
			Summary:    "no risk keywords matched",
			Confidence: 0.7,
			Provenance: models.ProvenanceTraditional,
			Details:    map[string]interface{}{"matched": map[string][]string{}},
		}
	}

	score := clampScore(total)
	details := map[string]interface{}{
		"matched":         matched,
		"category_scores": categoryScores,
		"raw_total":       total,
	}

	return models.RiskScore{
		Dimension:       "keyword",
		Score:           round1(score),
		Level:           k.bands.Level(score),
		Summary:         fmt.Sprintf("risk keywords matched in %s", categoryList(categoryScores)),
		Recommendations: []string{"Corroborate keyword signals against structured data"},
		Confidence:      0.7,
		Provenance:      models.ProvenanceTraditional,
		Details:         details,
	}
}

// AnalyzeEvents scores the combined title and content of news events.
func (k *Keyword) AnalyzeEvents(events []models.NewsEvent) models.RiskScore {
	if len(events) == 0 {
		return zeroResult("keyword")
	}
	var sb strings.Builder
	for _, ev := range events {
		sb.WriteString(ev.Title)
		sb.WriteString(" ")
		sb.WriteString(ev.Content)
		sb.WriteString(" ")
	}
	res := k.AnalyzeText(sb.String())
	if res.Details == nil {
		res.Details = map[string]interface{}{}
	}
	res.Details["events_scanned"] = len(events)
	return res
}

func categoryList(scores map[string]float64) string {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
